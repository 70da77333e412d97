package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robbykap/github-dashboard/common/llm"
	"github.com/robbykap/github-dashboard/common/logger"
	"github.com/robbykap/github-dashboard/internal/model"
)

const (
	// extractionWindow bounds how much transcript is replayed to the
	// extraction call, capping token cost.
	extractionWindow    = 10
	extractionMaxTokens = 400
)

// FallbackExtractor reconstructs a partial draft from the raw transcript.
// It runs only when a continue-drafting turn left the draft with zero
// populated fields: the structured channel produced nothing usable, so we
// ask the model to read the conversation whole instead.
type FallbackExtractor struct {
	llm llm.AgentClient
}

func NewFallbackExtractor(client llm.AgentClient) *FallbackExtractor {
	return &FallbackExtractor{llm: client}
}

// Extract infers issue fields from the most recent messages. Fields the
// model is not confident about are dropped; on any parse or transport
// failure the returned update is simply empty and the session continues
// with an empty preview rather than erroring.
func (e *FallbackExtractor) Extract(ctx context.Context, history []model.ConversationMessage) DraftUpdate {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "dashboard.drafting.extractor",
	})

	window := history
	if len(window) > extractionWindow {
		window = window[len(window)-extractionWindow:]
	}

	var transcript strings.Builder
	for _, msg := range window {
		if msg.Content == "" {
			continue
		}
		fmt.Fprintf(&transcript, "%s: %s\n", msg.Role, msg.Content)
	}
	if transcript.Len() == 0 {
		return DraftUpdate{}
	}

	resp, err := e.llm.ChatWithTools(ctx, llm.AgentRequest{
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(extractionPrompt, transcript.String())},
		},
		MaxTokens:   extractionMaxTokens,
		Temperature: llm.Temp(0),
	})
	if err != nil {
		slog.WarnContext(ctx, "fallback extraction call failed", "error", err)
		return DraftUpdate{}
	}

	var update DraftUpdate
	if err := json.Unmarshal([]byte(StripCodeFence(resp.Content)), &update); err != nil {
		slog.WarnContext(ctx, "fallback extraction returned unparseable content",
			"error", err, "content", logger.Truncate(resp.Content, 200))
		return DraftUpdate{}
	}

	update = dropEmptyFields(update)
	slog.DebugContext(ctx, "fallback extraction completed", "empty", update.IsZero())
	return update
}

// dropEmptyFields strips null/empty-string/empty-list values so the
// extractor only ever reports fields it inferred with confidence.
func dropEmptyFields(u DraftUpdate) DraftUpdate {
	if u.Title != nil && *u.Title == "" {
		u.Title = nil
	}
	if u.Body != nil && *u.Body == "" {
		u.Body = nil
	}
	if u.IssueType != nil && (*u.IssueType == "" || !u.IssueType.Valid()) {
		u.IssueType = nil
	}
	if len(u.Labels) == 0 {
		u.Labels = nil
	}
	if u.Priority != nil && (*u.Priority == "" || !u.Priority.Valid()) {
		u.Priority = nil
	}
	return u
}
