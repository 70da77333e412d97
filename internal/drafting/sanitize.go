package drafting

import (
	"regexp"
	"strings"

	"github.com/robbykap/github-dashboard/internal/model"
)

// Patterns for structured preview content that occasionally leaks into the
// model's conversational reply despite the system prompt.
var (
	structuredFieldPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Issue\s+Type\s*:\s*[^\n]+`),
		regexp.MustCompile(`(?i)Title\s*:\s*[^\n]+`),
		regexp.MustCompile(`(?i)Description\s*:\s*[^\n]+`),
		regexp.MustCompile(`(?i)Requirements\s*:\s*`),
		regexp.MustCompile(`(?i)Priority\s*:\s*[^\n]+`),
		regexp.MustCompile(`(?i)Labels\s*:\s*[^\n]+`),
	}

	// Three or more consecutive bullet lines look like a pasted field list,
	// not conversation.
	bulletBlockPattern = regexp.MustCompile(`(?m)(?:^|\n)[ \t]*[-*•][ \t]+[^\n]+(?:\n[ \t]*[-*•][ \t]+[^\n]+){2,}`)

	fieldHeaderPattern = regexp.MustCompile(`(?i)#{1,3}\s*(Issue Type|Title|Description|Requirements|Priority)\s*\n`)

	excessNewlines = regexp.MustCompile(`\n\s*\n\s*\n+`)

	codeFencePattern = regexp.MustCompile("(?s)```(?:json|html)?\\s*(.*?)\\s*```")
)

// ScrubReply removes leaked preview content from a conversational reply.
// Returns the cleaned reply and false when so much was removed that the
// message was evidently structured data rather than conversation; the
// caller should substitute a fallback line in that case.
func ScrubReply(message string, draft model.DraftIssue) (string, bool) {
	if strings.TrimSpace(message) == "" {
		return message, true
	}

	original := message

	for _, p := range structuredFieldPatterns {
		message = p.ReplaceAllString(message, "")
	}

	message = bulletBlockPattern.ReplaceAllString(message, "")

	if draft.Title != nil && *draft.Title != "" {
		titlePattern := regexp.MustCompile(`(?:^|\n)\s*` + regexp.QuoteMeta(*draft.Title) + `\s*(?:\n|$)`)
		message = titlePattern.ReplaceAllString(message, "\n")
	}

	if draft.Body != nil && len(*draft.Body) > 0 {
		// A large chunk of the body appearing verbatim means major leakage;
		// keep only what follows it, which is usually the conversational part.
		probe := *draft.Body
		if len(probe) > 200 {
			probe = probe[:200]
		}
		if idx := strings.LastIndex(message, probe); idx >= 0 {
			message = message[idx+len(probe):]
		}
	}

	message = fieldHeaderPattern.ReplaceAllString(message, "")
	message = excessNewlines.ReplaceAllString(message, "\n\n")
	message = strings.TrimSpace(message)

	// Losing more than 80% of a substantial message means it was mostly
	// structured data
	if len(original) > 50 && len(message) < len(original)/5 {
		return "", false
	}

	return message, true
}

// ConversationalFallback returns a safe reply when scrubbing rejected the
// model's message.
func ConversationalFallback(draft model.DraftIssue) string {
	if draft.Title != nil && *draft.Title != "" {
		return "I've updated the preview with your issue details. How does it look?"
	}
	return "Let me know what else you'd like to add to the issue."
}

// StripCodeFence unwraps a markdown code fence if the whole payload is
// wrapped in one. Models asked for bare JSON still fence it now and then.
func StripCodeFence(text string) string {
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
