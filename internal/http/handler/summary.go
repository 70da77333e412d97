package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robbykap/github-dashboard/internal/http/dto"
	"github.com/robbykap/github-dashboard/internal/service/summarizer"
	"github.com/robbykap/github-dashboard/internal/service/tracker"
)

// SummaryService is the summarization surface the handler depends on.
type SummaryService interface {
	SummarizeIssue(ctx context.Context, title, body string) summarizer.IssueSummary
	SummarizePullRequest(ctx context.Context, title, body string, files []tracker.PullRequestFile) summarizer.PullRequestSummary
	Prioritize(ctx context.Context, issues []summarizer.IssueRef) []int64
}

// FileLister fetches changed files for pull request summaries.
type FileLister interface {
	ListPullRequestFiles(ctx context.Context, repo string, number int) ([]tracker.PullRequestFile, error)
}

type SummaryHandler struct {
	summaries SummaryService
	files     FileLister
}

func NewSummaryHandler(summaries SummaryService, files FileLister) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, files: files}
}

func (h *SummaryHandler) Summarize(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Kind == "issue" {
		summary := h.summaries.SummarizeIssue(ctx, req.Title, req.Body)
		c.JSON(http.StatusOK, dto.ToIssueSummaryResponse(summary))
		return
	}

	var files []tracker.PullRequestFile
	if req.Repo != "" && req.Number > 0 {
		var err error
		files, err = h.files.ListPullRequestFiles(ctx, req.Repo, req.Number)
		if err != nil {
			// Summarize from the description alone
			slog.WarnContext(ctx, "failed to list pull request files",
				"repo", req.Repo, "number", req.Number, "error", err)
		}
	}

	summary := h.summaries.SummarizePullRequest(ctx, req.Title, req.Body, files)
	c.JSON(http.StatusOK, dto.ToPullRequestSummaryResponse(summary))
}

func (h *SummaryHandler) Prioritize(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PrioritizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issues := make([]summarizer.IssueRef, len(req.Issues))
	for i, issue := range req.Issues {
		issues[i] = summarizer.IssueRef{ID: issue.ID, Title: issue.Title}
	}

	ranked := h.summaries.Prioritize(ctx, issues)
	c.JSON(http.StatusOK, dto.PrioritizeResponse{RankedIDs: ranked})
}
