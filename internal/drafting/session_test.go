package drafting_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/robbykap/github-dashboard/common/llm"
	"github.com/robbykap/github-dashboard/internal/drafting"
	"github.com/robbykap/github-dashboard/internal/model"
)

// sessionHarness routes the single mock client's calls to per-concern stubs.
// The call shapes are distinct: the exchange is the only caller that sends
// tools, readiness caps at 10 tokens, extraction at 400.
type sessionHarness struct {
	client    *mockAgentClient
	submitter *mockSubmitter

	readinessFn  func() (*llm.AgentResponse, error)
	exchangeFn   func(req llm.AgentRequest) (*llm.AgentResponse, error)
	extractionFn func() (*llm.AgentResponse, error)
	fillerFn     func() (*llm.AgentResponse, error)

	extractionCalls int
}

func newSessionHarness() *sessionHarness {
	h := &sessionHarness{
		client:    &mockAgentClient{},
		submitter: &mockSubmitter{},
	}
	h.readinessFn = func() (*llm.AgentResponse, error) {
		return &llm.AgentResponse{Content: "No"}, nil
	}
	h.exchangeFn = func(llm.AgentRequest) (*llm.AgentResponse, error) {
		return &llm.AgentResponse{Content: "Tell me more."}, nil
	}
	h.extractionFn = func() (*llm.AgentResponse, error) {
		return &llm.AgentResponse{Content: `{}`}, nil
	}
	h.fillerFn = func() (*llm.AgentResponse, error) {
		return &llm.AgentResponse{Content: "Anything else?"}, nil
	}

	h.client.chatFn = func(_ context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
		switch {
		case len(req.Tools) > 0:
			return h.exchangeFn(req)
		case req.MaxTokens == 10:
			return h.readinessFn()
		case req.MaxTokens == 400:
			h.extractionCalls++
			return h.extractionFn()
		default:
			return h.fillerFn()
		}
	}
	return h
}

func (h *sessionHarness) newSession() *drafting.Session {
	return drafting.NewSession(42, "acme/webapp", drafting.Deps{
		Classifier: drafting.NewReadinessClassifier(h.client),
		Exchange:   drafting.NewExchange(h.client, 1024),
		Extractor:  drafting.NewFallbackExtractor(h.client),
		Submitter:  h.submitter,
	})
}

func previewCall(args string) *llm.AgentResponse {
	return &llm.AgentResponse{
		Content:   "Got it.",
		ToolCalls: []llm.ToolCall{{Name: "update_preview", Arguments: args}},
	}
}

func finalizeCall(args string) *llm.AgentResponse {
	return &llm.AgentResponse{
		ToolCalls: []llm.ToolCall{{Name: "signal_issue_ready", Arguments: args}},
	}
}

var _ = Describe("Session", func() {
	var (
		h   *sessionHarness
		s   *drafting.Session
		ctx context.Context
	)

	BeforeEach(func() {
		h = newSessionHarness()
		s = h.newSession()
		ctx = context.Background()
	})

	Describe("drafting turns", func() {
		It("accumulates fields across turns without losing earlier ones", func() {
			h.exchangeFn = func(llm.AgentRequest) (*llm.AgentResponse, error) {
				return previewCall(`{"title":"Login crash","issue_type":"bug"}`), nil
			}
			res, err := s.SubmitMessage(ctx, "the login page crashes on submit")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.State).To(Equal(model.FlowStateDrafting))
			Expect(*res.Draft.Title).To(Equal("Login crash"))

			h.exchangeFn = func(llm.AgentRequest) (*llm.AgentResponse, error) {
				return previewCall(`{"body":"Crash happens on mobile Safari.","title":""}`), nil
			}
			res, err = s.SubmitMessage(ctx, "it only happens on mobile safari")
			Expect(err).NotTo(HaveOccurred())

			Expect(*res.Draft.Title).To(Equal("Login crash"))
			Expect(*res.Draft.Body).To(Equal("Crash happens on mobile Safari."))
			Expect(*res.Draft.IssueType).To(Equal(model.IssueTypeBug))
		})

		It("rejects blank input", func() {
			_, err := s.SubmitMessage(ctx, "   \n ")
			Expect(err).To(MatchError(drafting.ErrEmptyMessage))
		})

		It("runs the fallback extractor only when the turn leaves the draft empty", func() {
			h.exchangeFn = func(llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{Content: "Interesting, go on."}, nil
			}
			h.extractionFn = func() (*llm.AgentResponse, error) {
				return &llm.AgentResponse{Content: `{"title":"Slow search","issue_type":"enhancement"}`}, nil
			}

			res, err := s.SubmitMessage(ctx, "search is slow")
			Expect(err).NotTo(HaveOccurred())
			Expect(h.extractionCalls).To(Equal(1))
			Expect(*res.Draft.Title).To(Equal("Slow search"))

			res, err = s.SubmitMessage(ctx, "really slow")
			Expect(err).NotTo(HaveOccurred())
			Expect(h.extractionCalls).To(Equal(1))
			Expect(*res.Draft.Title).To(Equal("Slow search"))
		})

		It("skips the fallback extractor on ready turns even if the draft is empty", func() {
			h.readinessFn = func() (*llm.AgentResponse, error) {
				return &llm.AgentResponse{Content: "Yes"}, nil
			}
			h.exchangeFn = func(llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{Content: "Hmm."}, nil
			}

			_, err := s.SubmitMessage(ctx, "this should be finished now")
			Expect(err).NotTo(HaveOccurred())
			Expect(h.extractionCalls).To(Equal(0))
		})
	})

	Describe("finalization", func() {
		finalize := func() {
			h.readinessFn = func() (*llm.AgentResponse, error) {
				return &llm.AgentResponse{Content: "Yes"}, nil
			}
			h.exchangeFn = func(llm.AgentRequest) (*llm.AgentResponse, error) {
				return finalizeCall(`{"issue_type":"bug","title":"Login crash","body":"Crashes on submit.","labels":["auth"],"priority":"high"}`), nil
			}
			_, err := s.SubmitMessage(ctx, "please finish this up")
			Expect(err).NotTo(HaveOccurred())
		}

		It("replaces the draft wholesale and moves to configuring", func() {
			h.exchangeFn = func(llm.AgentRequest) (*llm.AgentResponse, error) {
				return previewCall(`{"title":"Old working title","labels":["stale"]}`), nil
			}
			_, err := s.SubmitMessage(ctx, "the login page crashes")
			Expect(err).NotTo(HaveOccurred())

			finalize()

			Expect(s.State()).To(Equal(model.FlowStateConfiguring))
			draft := s.Draft()
			Expect(*draft.Title).To(Equal("Login crash"))
			Expect(draft.Labels).To(Equal([]string{"auth"}))
		})

		It("rejects further messages after finalization", func() {
			finalize()

			_, err := s.SubmitMessage(ctx, "one more thing")
			Expect(err).To(MatchError(drafting.ErrNotDrafting))
		})

		It("submits the finalized draft and completes", func() {
			finalize()

			h.submitter.submitFn = func(_ context.Context, repo string, issue model.DraftIssue) (*drafting.SubmitResult, error) {
				Expect(repo).To(Equal("acme/webapp"))
				Expect(*issue.Title).To(Equal("Login crash"))
				return &drafting.SubmitResult{Number: 128, URL: "https://example.com/issues/128"}, nil
			}

			result, err := s.SubmitFinal(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Number).To(Equal(128))
			Expect(s.State()).To(Equal(model.FlowStateDone))
		})

		It("returns to configuring with the draft retained when submission fails", func() {
			finalize()

			h.submitter.submitFn = func(context.Context, string, model.DraftIssue) (*drafting.SubmitResult, error) {
				return nil, errors.New("422 validation failed")
			}

			_, err := s.SubmitFinal(ctx)
			Expect(err).To(MatchError(ContainSubstring("422 validation failed")))
			Expect(s.State()).To(Equal(model.FlowStateConfiguring))
			Expect(*s.Draft().Title).To(Equal("Login crash"))
		})

		It("refuses submission before a draft is finalized", func() {
			_, err := s.SubmitFinal(ctx)
			Expect(err).To(MatchError(drafting.ErrNotConfiguring))
		})
	})

	Describe("reject and revise", func() {
		It("discards the draft and returns to drafting", func() {
			h.readinessFn = func() (*llm.AgentResponse, error) {
				return &llm.AgentResponse{Content: "Yes"}, nil
			}
			h.exchangeFn = func(llm.AgentRequest) (*llm.AgentResponse, error) {
				return finalizeCall(`{"issue_type":"bug","title":"t","body":"b","labels":[]}`), nil
			}
			_, err := s.SubmitMessage(ctx, "finish it")
			Expect(err).NotTo(HaveOccurred())

			Expect(s.RequestRevision()).To(Succeed())
			Expect(s.State()).To(Equal(model.FlowStateDrafting))
			Expect(s.Draft().IsEmpty()).To(BeTrue())
		})

		It("refuses revision while still drafting", func() {
			Expect(s.RequestRevision()).To(MatchError(drafting.ErrNotConfiguring))
		})
	})
})
