package model

// Conversation role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationMessage is one entry in a drafting conversation. The ordered
// sequence is replayed verbatim to the LLM on every turn; there is no
// server-side conversation memory on the inference side.
type ConversationMessage struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}
