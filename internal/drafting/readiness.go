package drafting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robbykap/github-dashboard/common/llm"
	"github.com/robbykap/github-dashboard/common/logger"
)

// readyKeywords is the curated fast-path list of completion phrases.
// Substring matches here resolve the verdict without an inference call.
// The list is informally curated and can both over- and under-trigger;
// the slow path covers what it misses.
var readyKeywords = []string{
	"create the ticket",
	"make the ticket",
	"create the issue",
	"make the issue",
	"generate the ticket",
	"generate the issue",
	"i'm ready",
	"im ready",
	"ready to create",
	"looks good",
	"that's enough",
	"thats enough",
	"good enough",
	"let's create",
	"lets create",
}

// failOpenKeywords is the reduced set consulted when the inference call
// itself fails: strong enough signals to finalize even blind.
var failOpenKeywords = []string{"ready", "create", "make"}

const readinessMaxTokens = 10

// ReadinessClassifier decides, for a single user message, whether the
// conversation should finalize now. It never returns an error: total
// failure degrades to "keep drafting" except for the fail-open keywords.
type ReadinessClassifier struct {
	llm llm.AgentClient
}

func NewReadinessClassifier(client llm.AgentClient) *ReadinessClassifier {
	return &ReadinessClassifier{llm: client}
}

// Classify reports whether the user intends to create the issue now.
// The keyword fast path is checked first and never touches the inference
// service; only ambiguous messages pay for the LLM verdict.
func (c *ReadinessClassifier) Classify(ctx context.Context, message string) bool {
	text := strings.TrimSpace(message)
	if text == "" {
		return false
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "dashboard.drafting.readiness",
	})

	lower := strings.ToLower(text)
	for _, kw := range readyKeywords {
		if strings.Contains(lower, kw) {
			slog.DebugContext(ctx, "readiness keyword match", "keyword", kw)
			return true
		}
	}

	resp, err := c.llm.ChatWithTools(ctx, llm.AgentRequest{
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(readinessPrompt, text)},
		},
		MaxTokens:   readinessMaxTokens,
		Temperature: llm.Temp(0),
	})
	if err != nil {
		// Fail open for the strongest ready phrases
		for _, kw := range failOpenKeywords {
			if strings.Contains(lower, kw) {
				slog.WarnContext(ctx, "readiness call failed, fail-open keyword matched",
					"keyword", kw, "error", err)
				return true
			}
		}
		slog.WarnContext(ctx, "readiness call failed, defaulting to not ready", "error", err)
		return false
	}

	verdict := strings.HasPrefix(strings.ToLower(strings.TrimSpace(resp.Content)), "yes")
	if verdict {
		slog.DebugContext(ctx, "readiness detected by model",
			"response", logger.Truncate(resp.Content, 40))
	}
	return verdict
}
