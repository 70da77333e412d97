package summarizer

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/robbykap/github-dashboard/common/llm"
	"github.com/robbykap/github-dashboard/internal/service/tracker"
)

var _ = Describe("Service", func() {
	var (
		client *mockLLMClient
		svc    *Service
		ctx    context.Context
	)

	BeforeEach(func() {
		client = &mockLLMClient{}
		svc = New(client, nil, 0)
		ctx = context.Background()
	})

	Describe("SummarizeIssue", func() {
		It("returns the structured summary", func() {
			client.chatFn = func(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
				Expect(req.UserPrompt).To(ContainSubstring("Login crash"))
				out := result.(*IssueSummary)
				out.IssueType = "bug"
				out.Summary = "The login form crashes on submit."
				return &llm.Response{}, nil
			}

			summary := svc.SummarizeIssue(ctx, "Login crash", "Crashes every time.")

			Expect(summary.IssueType).To(Equal("bug"))
			Expect(summary.Summary).To(ContainSubstring("login form"))
		})

		It("degrades to a placeholder on failure", func() {
			client.chatFn = func(_ context.Context, _ llm.Request, _ any) (*llm.Response, error) {
				return nil, errors.New("rate limited")
			}

			summary := svc.SummarizeIssue(ctx, "Login crash", "body")

			Expect(summary.IssueType).To(Equal("unknown"))
			Expect(summary.Summary).To(HavePrefix("Summary unavailable:"))
		})

		It("degrades when no model is configured", func() {
			svc = New(nil, nil, 0)

			summary := svc.SummarizeIssue(ctx, "Login crash", "body")
			Expect(summary.Summary).To(HavePrefix("Summary unavailable:"))
		})
	})

	Describe("SummarizePullRequest", func() {
		It("includes changed files in the prompt", func() {
			files := []tracker.PullRequestFile{
				{Filename: "auth/login.go", Status: "modified", Additions: 12, Deletions: 4},
			}
			client.chatFn = func(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
				Expect(req.UserPrompt).To(ContainSubstring("auth/login.go"))
				Expect(req.UserPrompt).To(ContainSubstring("+12/-4"))
				out := result.(*PullRequestSummary)
				out.Summary = "Fixes the login crash."
				out.CodeUpdates = "Rewrites the submit handler."
				return &llm.Response{}, nil
			}

			summary := svc.SummarizePullRequest(ctx, "Fix login", "", files)

			Expect(summary.Summary).To(Equal("Fixes the login crash."))
			Expect(summary.CodeUpdates).NotTo(BeEmpty())
		})

		It("degrades to a placeholder on failure", func() {
			client.chatFn = func(_ context.Context, _ llm.Request, _ any) (*llm.Response, error) {
				return nil, errors.New("timeout")
			}

			summary := svc.SummarizePullRequest(ctx, "Fix login", "", nil)
			Expect(summary.Summary).To(HavePrefix("Summary unavailable:"))
			Expect(summary.CodeUpdates).To(BeEmpty())
		})
	})

	Describe("Prioritize", func() {
		issues := []IssueRef{
			{ID: 1, Title: "Typo in readme"},
			{ID: 2, Title: "Data loss on save"},
			{ID: 3, Title: "Add dark mode"},
		}

		setRanking := func(ids ...int64) {
			client.chatFn = func(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
				result.(*priorityRanking).RankedIDs = ids
				return &llm.Response{}, nil
			}
		}

		It("returns the model's ordering", func() {
			setRanking(2, 3, 1)
			Expect(svc.Prioritize(ctx, issues)).To(Equal([]int64{2, 3, 1}))
		})

		It("drops unknown and duplicate IDs and appends skipped ones in input order", func() {
			setRanking(2, 99, 2)
			Expect(svc.Prioritize(ctx, issues)).To(Equal([]int64{2, 1, 3}))
		})

		It("falls back to input order on failure", func() {
			client.chatFn = func(context.Context, llm.Request, any) (*llm.Response, error) {
				return nil, errors.New("boom")
			}
			Expect(svc.Prioritize(ctx, issues)).To(Equal([]int64{1, 2, 3}))
		})

		It("lists the issues in the prompt", func() {
			client.chatFn = func(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
				Expect(req.UserPrompt).To(ContainSubstring("ID:2 - Data loss on save"))
				result.(*priorityRanking).RankedIDs = []int64{2, 1, 3}
				return &llm.Response{}, nil
			}
			Expect(svc.Prioritize(ctx, issues)).To(Equal([]int64{2, 1, 3}))
		})

		It("handles empty input without a call", func() {
			Expect(svc.Prioritize(ctx, nil)).To(BeEmpty())
			Expect(client.callCount).To(Equal(0))
		})
	})
})
