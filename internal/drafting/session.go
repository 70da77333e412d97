package drafting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robbykap/github-dashboard/common/logger"
	"github.com/robbykap/github-dashboard/internal/model"
)

var (
	// ErrNotDrafting is returned when a message arrives after the draft was
	// finalized; no further clarifying turns are permitted for the session.
	ErrNotDrafting = errors.New("session is no longer drafting")

	// ErrNotConfiguring is returned when submit or revise is requested
	// outside the configuring state.
	ErrNotConfiguring = errors.New("session has no finalized draft")

	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("message is empty")
)

// SubmitResult identifies the issue created by the downstream tracker.
type SubmitResult struct {
	Number int
	URL    string
}

// IssueSubmitter is the issue-creation collaborator. It receives only
// complete, finalized drafts.
type IssueSubmitter interface {
	Submit(ctx context.Context, repo string, issue model.DraftIssue) (*SubmitResult, error)
}

// Deps bundles the collaborators a session needs for its turns.
type Deps struct {
	Classifier *ReadinessClassifier
	Exchange   *Exchange
	Extractor  *FallbackExtractor
	Submitter  IssueSubmitter
}

// TurnResult is what the caller sees after each user message.
type TurnResult struct {
	State model.FlowState
	Reply string
	Draft model.DraftIssue
}

// Session is the drafting state machine for one conversation. It is the
// sole owner of the conversation history and the cumulative draft; one turn
// must fully resolve before the next message is accepted, enforced by the
// mutex. Independent sessions share nothing but the LLM client.
type Session struct {
	ID   int64
	Repo string

	deps Deps

	mu         sync.Mutex
	state      model.FlowState
	history    []model.ConversationMessage
	draft      model.DraftIssue
	turn       int
	lastActive time.Time
}

func NewSession(id int64, repo string, deps Deps) *Session {
	return &Session{
		ID:         id,
		Repo:       repo,
		deps:       deps,
		state:      model.FlowStateDrafting,
		lastActive: time.Now(),
	}
}

// SubmitMessage resolves one conversational turn: classify readiness, run
// the forced structured exchange, then merge or finalize. The fallback
// extractor runs only when the turn leaves the draft with zero populated
// fields and readiness was false.
func (s *Session) SubmitMessage(ctx context.Context, text string) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state != model.FlowStateDrafting {
		return TurnResult{}, ErrNotDrafting
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	s.turn++
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(s.ID),
		Repo:      logger.Ptr(s.Repo),
		Turn:      logger.Ptr(s.turn),
		Component: "dashboard.drafting.session",
	})

	ready := s.deps.Classifier.Classify(ctx, text)
	res := s.deps.Exchange.Run(ctx, s.history, text, s.draft, ready)

	switch {
	case res.Finalized:
		// Finalize arguments replace the draft wholesale
		s.draft = res.Final
		s.state = model.FlowStateConfiguring
		slog.InfoContext(ctx, "session finalized draft", "title", logger.Truncate(deref(s.draft.Title), 80))

	default:
		if res.Update != nil {
			s.draft = Merge(s.draft, *res.Update)
		}
		if s.draft.IsEmpty() && !ready {
			extracted := s.deps.Extractor.Extract(ctx, s.transcriptWithPending(text))
			s.draft = Merge(s.draft, extracted)
		}
	}

	s.history = append(s.history, model.ConversationMessage{Role: model.RoleUser, Content: text})
	if res.Reply != "" {
		s.history = append(s.history, model.ConversationMessage{Role: model.RoleAssistant, Content: res.Reply})
	}

	return TurnResult{
		State: s.state,
		Reply: res.Reply,
		Draft: s.draft.Clone(),
	}, nil
}

// SubmitFinal hands the finalized draft to the issue-creation collaborator.
// On failure the draft is retained and the session returns to configuring
// so the caller can retry or revise; the error is surfaced verbatim.
func (s *Session) SubmitFinal(ctx context.Context) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state != model.FlowStateConfiguring {
		return nil, ErrNotConfiguring
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(s.ID),
		Repo:      logger.Ptr(s.Repo),
		Component: "dashboard.drafting.session",
	})

	s.state = model.FlowStateSubmitting
	result, err := s.deps.Submitter.Submit(ctx, s.Repo, s.draft)
	if err != nil {
		s.state = model.FlowStateConfiguring
		slog.WarnContext(ctx, "issue submission failed, draft retained", "error", err)
		return nil, fmt.Errorf("submitting issue: %w", err)
	}

	s.state = model.FlowStateDone
	slog.InfoContext(ctx, "issue submitted", "number", result.Number, "url", result.URL)
	return result, nil
}

// RequestRevision rejects the finalized draft: the draft is discarded and
// the session returns to drafting with a revision prompt in the history.
func (s *Session) RequestRevision() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state != model.FlowStateConfiguring {
		return ErrNotConfiguring
	}

	s.draft = model.DraftIssue{}
	s.state = model.FlowStateDrafting
	s.history = append(s.history, model.ConversationMessage{
		Role:    model.RoleUser,
		Content: revisionPrompt,
	})
	return nil
}

// State returns the current flow state.
func (s *Session) State() model.FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns a copy of the cumulative draft.
func (s *Session) Draft() model.DraftIssue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// LastActive reports when the session last handled a call, for idle expiry.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// transcriptWithPending is the history plus the in-flight user message,
// which has not been appended yet when the fallback extractor runs.
func (s *Session) transcriptWithPending(text string) []model.ConversationMessage {
	out := make([]model.ConversationMessage, 0, len(s.history)+1)
	out = append(out, s.history...)
	return append(out, model.ConversationMessage{Role: model.RoleUser, Content: text})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
