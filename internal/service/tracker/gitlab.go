package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/robbykap/github-dashboard/internal/drafting"
	"github.com/robbykap/github-dashboard/internal/model"
)

type gitLabTracker struct {
	client *gitlab.Client
}

// NewGitLabTracker creates an IssueTracker backed by the GitLab API.
// baseURL selects a self-hosted instance; empty means gitlab.com.
func NewGitLabTracker(token, baseURL string) (IssueTracker, error) {
	var client *gitlab.Client
	var err error

	if baseURL == "" {
		client, err = gitlab.NewClient(token)
	} else {
		apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(apiURL))
	}
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	return &gitLabTracker{client: client}, nil
}

func (t *gitLabTracker) Submit(ctx context.Context, repo string, issue model.DraftIssue) (*drafting.SubmitResult, error) {
	title := ""
	if issue.Title != nil {
		title = *issue.Title
	}
	body := ""
	if issue.Body != nil {
		body = *issue.Body
	}
	labels := gitlab.LabelOptions(submissionLabels(issue))

	created, _, err := t.client.Issues.CreateIssue(repo, &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(title),
		Description: gitlab.Ptr(body),
		Labels:      &labels,
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("creating gitlab issue: %w", err)
	}

	slog.InfoContext(ctx, "gitlab issue created",
		"repo", repo,
		"iid", created.IID,
		"labels", len(labels))

	return &drafting.SubmitResult{
		Number: int(created.IID),
		URL:    created.WebURL,
	}, nil
}

// ListPullRequestFiles maps merge request diffs onto the provider-agnostic
// changed-file shape.
func (t *gitLabTracker) ListPullRequestFiles(ctx context.Context, repo string, number int) ([]PullRequestFile, error) {
	diffs, _, err := t.client.MergeRequests.ListMergeRequestDiffs(repo, int64(number), &gitlab.ListMergeRequestDiffsOptions{
		ListOptions: gitlab.ListOptions{PerPage: maxPullRequestFiles},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing merge request diffs: %w", err)
	}

	files := make([]PullRequestFile, 0, len(diffs))
	for _, d := range diffs {
		if len(files) >= maxPullRequestFiles {
			break
		}
		files = append(files, PullRequestFile{
			Filename: d.NewPath,
			Status:   diffStatus(d),
			Patch:    truncatePatch(d.Diff),
		})
	}

	return files, nil
}

func diffStatus(d *gitlab.MergeRequestDiff) string {
	switch {
	case d.NewFile:
		return "added"
	case d.DeletedFile:
		return "removed"
	case d.RenamedFile:
		return "renamed"
	default:
		return "modified"
	}
}
