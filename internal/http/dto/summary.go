package dto

import "github.com/robbykap/github-dashboard/internal/service/summarizer"

type SummarizeRequest struct {
	Kind  string `json:"kind" binding:"required,oneof=issue pull_request"`
	Title string `json:"title" binding:"required,max=512"`
	Body  string `json:"body" binding:"max=65536"`

	// Repo and Number identify a pull request whose changed files should
	// inform the summary. Optional; ignored for issues.
	Repo   string `json:"repo,omitempty"`
	Number int    `json:"number,omitempty"`
}

type IssueSummaryResponse struct {
	IssueType string `json:"issue_type"`
	Summary   string `json:"summary"`
}

type PullRequestSummaryResponse struct {
	Summary     string `json:"summary"`
	CodeUpdates string `json:"code_updates"`
}

type PrioritizeRequest struct {
	Issues []PrioritizeIssue `json:"issues" binding:"required,min=1,dive"`
}

type PrioritizeIssue struct {
	ID    int64  `json:"id" binding:"required"`
	Title string `json:"title" binding:"required,max=512"`
}

type PrioritizeResponse struct {
	RankedIDs []int64 `json:"ranked_ids"`
}

func ToIssueSummaryResponse(s summarizer.IssueSummary) IssueSummaryResponse {
	return IssueSummaryResponse{IssueType: s.IssueType, Summary: s.Summary}
}

func ToPullRequestSummaryResponse(s summarizer.PullRequestSummary) PullRequestSummaryResponse {
	return PullRequestSummaryResponse{Summary: s.Summary, CodeUpdates: s.CodeUpdates}
}
