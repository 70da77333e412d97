package drafting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robbykap/github-dashboard/common/llm"
	"github.com/robbykap/github-dashboard/common/logger"
	"github.com/robbykap/github-dashboard/internal/model"
)

// Structured operation names offered to the model. Exactly one of the two
// is forced each turn; the model never gets free choice between them.
const (
	toolUpdatePreview    = "update_preview"
	toolSignalIssueReady = "signal_issue_ready"
)

const fillerMaxTokens = 120

// UpdatePreviewParams is the schema for the continue-drafting operation.
type UpdatePreviewParams struct {
	Title     string   `json:"title" jsonschema:"required,description=Concise issue title"`
	Body      string   `json:"body" jsonschema:"required,description=Markdown issue body"`
	IssueType string   `json:"issue_type,omitempty" jsonschema:"enum=bug,enum=feature,enum=enhancement,enum=documentation,enum=question"`
	Labels    []string `json:"labels,omitempty"`
	Priority  string   `json:"priority,omitempty" jsonschema:"enum=low,enum=medium,enum=high,enum=critical"`
}

// SignalIssueReadyParams is the schema for the finalize operation. Its
// arguments become the final draft verbatim; nothing is merged.
type SignalIssueReadyParams struct {
	IssueType string   `json:"issue_type" jsonschema:"required,enum=bug,enum=feature,enum=enhancement,enum=documentation,enum=question"`
	Title     string   `json:"title" jsonschema:"required,description=Concise issue title"`
	Body      string   `json:"body" jsonschema:"required,description=Markdown issue body"`
	Labels    []string `json:"labels" jsonschema:"required"`
	Priority  string   `json:"priority,omitempty" jsonschema:"enum=low,enum=medium,enum=high,enum=critical"`
}

// ExchangeResult is the outcome of one forced structured invocation.
type ExchangeResult struct {
	Finalized bool
	Final     model.DraftIssue // set when Finalized
	Update    *DraftUpdate     // set when a continue-drafting payload parsed
	Reply     string           // human-facing free text (may be empty on finalize)
}

// Exchange sends the full conversation plus both operation schemas to the
// model, forcing whichever operation the readiness verdict selected, and
// parses whatever comes back. Transport and parse failures degrade to "no
// usable structured update"; they are never surfaced as turn errors.
type Exchange struct {
	llm       llm.AgentClient
	maxTokens int
}

func NewExchange(client llm.AgentClient, maxTokens int) *Exchange {
	return &Exchange{llm: client, maxTokens: maxTokens}
}

func (e *Exchange) Run(
	ctx context.Context,
	history []model.ConversationMessage,
	userMessage string,
	draft model.DraftIssue,
	ready bool,
) ExchangeResult {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "dashboard.drafting.exchange",
	})

	forced := toolUpdatePreview
	if ready {
		forced = toolSignalIssueReady
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: model.RoleSystem, Content: chatSystemPrompt})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: model.RoleUser, Content: userMessage})

	resp, err := e.llm.ChatWithTools(ctx, llm.AgentRequest{
		Messages:             messages,
		Tools:                e.tools(),
		MaxTokens:            e.maxTokens,
		ForceTool:            forced,
		DisableParallelTools: true,
	})
	if err != nil {
		slog.WarnContext(ctx, "drafting exchange call failed", "forced", forced, "error", err)
		return ExchangeResult{Reply: e.reply(ctx, "", draft, userMessage, ready, false)}
	}

	result := e.parseToolCalls(ctx, resp.ToolCalls)
	result.Reply = e.reply(ctx, resp.Content, draft, userMessage, ready, result.Finalized)
	return result
}

// parseToolCalls honors the first relevant structured call; anything after
// it is ignored.
func (e *Exchange) parseToolCalls(ctx context.Context, calls []llm.ToolCall) ExchangeResult {
	for _, tc := range calls {
		switch tc.Name {
		case toolSignalIssueReady:
			params, err := llm.ParseToolArguments[SignalIssueReadyParams](tc.Arguments)
			if err != nil {
				slog.WarnContext(ctx, "finalize arguments unparseable, treating as empty turn",
					"error", err)
				return ExchangeResult{}
			}
			slog.InfoContext(ctx, "draft finalized by model")
			return ExchangeResult{Finalized: true, Final: finalDraft(params)}

		case toolUpdatePreview:
			update, err := llm.ParseToolArguments[DraftUpdate](tc.Arguments)
			if err != nil {
				slog.WarnContext(ctx, "preview update unparseable, treating as empty turn",
					"error", err)
				return ExchangeResult{}
			}
			normalizeUpdate(&update)
			return ExchangeResult{Update: &update}
		}
	}
	return ExchangeResult{}
}

// reply derives the human-facing line for this turn: scrub the model's free
// text, and when a non-finalizing turn produced nothing speakable, spend one
// small follow-up call before falling back to a canned line. Finalized turns
// never trigger the follow-up call.
func (e *Exchange) reply(ctx context.Context, content string, draft model.DraftIssue, userMessage string, ready, finalized bool) string {
	content = strings.TrimSpace(content)
	if content != "" {
		scrubbed, ok := ScrubReply(content, draft)
		if !ok {
			return ConversationalFallback(draft)
		}
		content = scrubbed
	}

	if content != "" || ready || finalized {
		return content
	}

	title := ""
	if draft.Title != nil {
		title = *draft.Title
	}

	resp, err := e.llm.ChatWithTools(ctx, llm.AgentRequest{
		Messages: []llm.Message{
			{Role: model.RoleUser, Content: fmt.Sprintf(fillerPrompt, title, userMessage)},
		},
		MaxTokens: fillerMaxTokens,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		return staticFillerReply
	}
	return strings.TrimSpace(resp.Content)
}

func (e *Exchange) tools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        toolUpdatePreview,
			Description: "Update the live issue preview with the fields understood so far.",
			Parameters:  llm.GenerateSchemaFrom(UpdatePreviewParams{}),
		},
		{
			Name:        toolSignalIssueReady,
			Description: "Signal that the issue is complete and ready to be created.",
			Parameters:  llm.GenerateSchemaFrom(SignalIssueReadyParams{}),
		},
	}
}

// finalDraft converts finalize arguments into the terminal draft verbatim.
func finalDraft(p SignalIssueReadyParams) model.DraftIssue {
	issueType := model.IssueType(strings.ToLower(p.IssueType))
	priority := model.Priority(strings.ToLower(p.Priority))

	labels := p.Labels
	if labels == nil {
		labels = []string{}
	}

	out := model.DraftIssue{
		Title:     &p.Title,
		Body:      &p.Body,
		IssueType: &issueType,
		Labels:    labels,
	}
	if priority != "" {
		out.Priority = &priority
	}
	return out
}

// normalizeUpdate lowercases enum fields in place; invalid values pass
// through untouched and are resolved downstream.
func normalizeUpdate(u *DraftUpdate) {
	if u.IssueType != nil {
		v := model.IssueType(strings.ToLower(string(*u.IssueType)))
		u.IssueType = &v
	}
	if u.Priority != nil {
		v := model.Priority(strings.ToLower(string(*u.Priority)))
		u.Priority = &v
	}
}
