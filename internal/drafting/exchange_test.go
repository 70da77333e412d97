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

var _ = Describe("Exchange", func() {
	var (
		client   *mockAgentClient
		exchange *drafting.Exchange
		ctx      context.Context
	)

	BeforeEach(func() {
		client = &mockAgentClient{}
		exchange = drafting.NewExchange(client, 1024)
		ctx = context.Background()
	})

	Describe("forced operation selection", func() {
		It("forces the preview update when the user is still drafting", func() {
			client.chatFn = func(_ context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
				Expect(req.ForceTool).To(Equal("update_preview"))
				Expect(req.DisableParallelTools).To(BeTrue())
				Expect(req.Tools).To(HaveLen(2))
				return &llm.AgentResponse{Content: "Noted!"}, nil
			}

			res := exchange.Run(ctx, nil, "the login page crashes", model.DraftIssue{}, false)
			Expect(res.Finalized).To(BeFalse())
			Expect(res.Reply).To(Equal("Noted!"))
		})

		It("forces the finalize operation when the user is ready", func() {
			client.chatFn = func(_ context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
				Expect(req.ForceTool).To(Equal("signal_issue_ready"))
				Expect(req.DisableParallelTools).To(BeTrue())
				return &llm.AgentResponse{}, nil
			}

			exchange.Run(ctx, nil, "create the ticket", model.DraftIssue{}, true)
			Expect(client.callCount).To(Equal(1))
		})

		It("replays history with the system prompt first and user message last", func() {
			history := []model.ConversationMessage{
				{Role: model.RoleUser, Content: "first"},
				{Role: model.RoleAssistant, Content: "second"},
			}
			client.chatFn = func(_ context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
				Expect(req.Messages).To(HaveLen(4))
				Expect(req.Messages[0].Role).To(Equal(model.RoleSystem))
				Expect(req.Messages[1].Content).To(Equal("first"))
				Expect(req.Messages[3].Content).To(Equal("third"))
				return &llm.AgentResponse{Content: "ok"}, nil
			}

			exchange.Run(ctx, history, "third", model.DraftIssue{}, false)
		})
	})

	Describe("finalize turns", func() {
		It("adopts the finalize arguments verbatim as the final draft", func() {
			client.chatFn = func(_ context.Context, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{
					ToolCalls: []llm.ToolCall{{
						Name:      "signal_issue_ready",
						Arguments: `{"issue_type":"Bug","title":"Login crash","body":"Crashes on submit.","labels":["auth"],"priority":"HIGH"}`,
					}},
				}, nil
			}

			res := exchange.Run(ctx, nil, "create the ticket", model.DraftIssue{Title: ptr("old title")}, true)

			Expect(res.Finalized).To(BeTrue())
			Expect(*res.Final.Title).To(Equal("Login crash"))
			Expect(*res.Final.Body).To(Equal("Crashes on submit."))
			Expect(*res.Final.IssueType).To(Equal(model.IssueTypeBug))
			Expect(*res.Final.Priority).To(Equal(model.PriorityHigh))
			Expect(res.Final.Labels).To(Equal([]string{"auth"}))
		})

		It("leaves priority unset when finalize omits it", func() {
			client.chatFn = func(_ context.Context, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{
					ToolCalls: []llm.ToolCall{{
						Name:      "signal_issue_ready",
						Arguments: `{"issue_type":"feature","title":"Dark mode","body":"Add a theme toggle.","labels":[]}`,
					}},
				}, nil
			}

			res := exchange.Run(ctx, nil, "create the ticket", model.DraftIssue{}, true)

			Expect(res.Finalized).To(BeTrue())
			Expect(res.Final.Priority).To(BeNil())
			Expect(res.Final.Labels).To(BeEmpty())
			Expect(res.Final.Labels).NotTo(BeNil())
		})

		It("treats unparseable finalize arguments as an empty turn", func() {
			client.chatFn = func(_ context.Context, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{
					Content:   "Creating it now.",
					ToolCalls: []llm.ToolCall{{Name: "signal_issue_ready", Arguments: `{not json`}},
				}, nil
			}

			res := exchange.Run(ctx, nil, "create the ticket", model.DraftIssue{}, true)

			Expect(res.Finalized).To(BeFalse())
			Expect(res.Update).To(BeNil())
			Expect(res.Reply).To(Equal("Creating it now."))
		})
	})

	Describe("preview update turns", func() {
		It("parses the update with per-field presence", func() {
			client.chatFn = func(_ context.Context, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{
					Content:   "I've added that to the preview.",
					ToolCalls: []llm.ToolCall{{Name: "update_preview", Arguments: `{"title":"Login crash","labels":[]}`}},
				}, nil
			}

			res := exchange.Run(ctx, nil, "it crashes on login", model.DraftIssue{}, false)

			Expect(res.Finalized).To(BeFalse())
			Expect(res.Update).NotTo(BeNil())
			Expect(*res.Update.Title).To(Equal("Login crash"))
			Expect(res.Update.Body).To(BeNil())
			Expect(res.Update.Labels).NotTo(BeNil())
			Expect(res.Update.Labels).To(BeEmpty())
		})

		It("lowercases enum fields in the update", func() {
			client.chatFn = func(_ context.Context, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{
					Content:   "ok",
					ToolCalls: []llm.ToolCall{{Name: "update_preview", Arguments: `{"issue_type":"Bug","priority":"Critical"}`}},
				}, nil
			}

			res := exchange.Run(ctx, nil, "it crashes", model.DraftIssue{}, false)

			Expect(*res.Update.IssueType).To(Equal(model.IssueTypeBug))
			Expect(*res.Update.Priority).To(Equal(model.PriorityCritical))
		})

		It("honors only the first relevant structured call", func() {
			client.chatFn = func(_ context.Context, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{
					Content: "ok",
					ToolCalls: []llm.ToolCall{
						{Name: "update_preview", Arguments: `{"title":"first"}`},
						{Name: "update_preview", Arguments: `{"title":"second"}`},
					},
				}, nil
			}

			res := exchange.Run(ctx, nil, "crash", model.DraftIssue{}, false)

			Expect(*res.Update.Title).To(Equal("first"))
		})

		It("ignores unknown operation names", func() {
			client.chatFn = func(_ context.Context, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{
					Content:   "hm",
					ToolCalls: []llm.ToolCall{{Name: "something_else", Arguments: `{}`}},
				}, nil
			}

			res := exchange.Run(ctx, nil, "crash", model.DraftIssue{}, false)

			Expect(res.Finalized).To(BeFalse())
			Expect(res.Update).To(BeNil())
		})
	})

	Describe("reply handling", func() {
		It("scrubs leaked field lines from the reply", func() {
			client.chatFn = func(_ context.Context, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{
					Content:   "Here's the update.\nTitle: Login crash\nWhat browser was it?",
					ToolCalls: []llm.ToolCall{{Name: "update_preview", Arguments: `{"title":"Login crash"}`}},
				}, nil
			}

			res := exchange.Run(ctx, nil, "it crashes", model.DraftIssue{}, false)

			Expect(res.Reply).NotTo(ContainSubstring("Title:"))
			Expect(res.Reply).To(ContainSubstring("What browser was it?"))
		})

		It("spends one filler call when a drafting turn has no speakable text", func() {
			client.chatFn = func(_ context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
				if len(req.Tools) > 0 {
					return &llm.AgentResponse{
						ToolCalls: []llm.ToolCall{{Name: "update_preview", Arguments: `{"title":"Login crash"}`}},
					}, nil
				}
				return &llm.AgentResponse{Content: "Added that to the draft. Anything else?"}, nil
			}

			res := exchange.Run(ctx, nil, "it crashes", model.DraftIssue{}, false)

			Expect(client.callCount).To(Equal(2))
			Expect(res.Reply).To(Equal("Added that to the draft. Anything else?"))
		})

		It("falls back to the canned line when the filler call fails", func() {
			client.chatFn = func(_ context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
				if len(req.Tools) > 0 {
					return &llm.AgentResponse{
						ToolCalls: []llm.ToolCall{{Name: "update_preview", Arguments: `{"title":"x"}`}},
					}, nil
				}
				return nil, errors.New("rate limited")
			}

			res := exchange.Run(ctx, nil, "it crashes", model.DraftIssue{}, false)

			Expect(res.Reply).To(Equal("Let me know if you'd like to adjust anything."))
		})

		It("never spends a filler call on finalize turns", func() {
			client.chatFn = func(_ context.Context, _ llm.AgentRequest) (*llm.AgentResponse, error) {
				return &llm.AgentResponse{
					ToolCalls: []llm.ToolCall{{
						Name:      "signal_issue_ready",
						Arguments: `{"issue_type":"bug","title":"t","body":"b","labels":[]}`,
					}},
				}, nil
			}

			res := exchange.Run(ctx, nil, "create the ticket", model.DraftIssue{}, true)

			Expect(client.callCount).To(Equal(1))
			Expect(res.Reply).To(BeEmpty())
		})
	})

	Describe("transport failure", func() {
		It("degrades to a filler reply with no structured result", func() {
			calls := 0
			client.chatFn = func(_ context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
				calls++
				if len(req.Tools) > 0 {
					return nil, errors.New("upstream 503")
				}
				return &llm.AgentResponse{Content: "Got it, still listening."}, nil
			}

			res := exchange.Run(ctx, nil, "it crashes", model.DraftIssue{}, false)

			Expect(res.Finalized).To(BeFalse())
			Expect(res.Update).To(BeNil())
			Expect(res.Reply).To(Equal("Got it, still listening."))
			Expect(calls).To(Equal(2))
		})
	})
})
