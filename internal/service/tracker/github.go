package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/robbykap/github-dashboard/internal/drafting"
	"github.com/robbykap/github-dashboard/internal/model"
)

type gitHubTracker struct {
	client *github.Client
}

// NewGitHubTracker creates an IssueTracker backed by the GitHub REST API.
func NewGitHubTracker(ctx context.Context, token string) IssueTracker {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &gitHubTracker{
		client: github.NewClient(oauth2.NewClient(ctx, ts)),
	}
}

func (t *gitHubTracker) Submit(ctx context.Context, repo string, issue model.DraftIssue) (*drafting.SubmitResult, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	title := ""
	if issue.Title != nil {
		title = *issue.Title
	}
	body := ""
	if issue.Body != nil {
		body = *issue.Body
	}
	labels := submissionLabels(issue)

	created, _, err := t.client.Issues.Create(ctx, owner, name, &github.IssueRequest{
		Title:  github.Ptr(title),
		Body:   github.Ptr(body),
		Labels: &labels,
	})
	if err != nil {
		return nil, fmt.Errorf("creating github issue: %w", err)
	}

	slog.InfoContext(ctx, "github issue created",
		"repo", repo,
		"number", created.GetNumber(),
		"labels", len(labels))

	return &drafting.SubmitResult{
		Number: created.GetNumber(),
		URL:    created.GetHTMLURL(),
	}, nil
}

func (t *gitHubTracker) ListPullRequestFiles(ctx context.Context, repo string, number int) ([]PullRequestFile, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	ghFiles, _, err := t.client.PullRequests.ListFiles(ctx, owner, name, number, &github.ListOptions{
		PerPage: maxPullRequestFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("listing pull request files: %w", err)
	}

	files := make([]PullRequestFile, 0, len(ghFiles))
	for _, f := range ghFiles {
		if len(files) >= maxPullRequestFiles {
			break
		}
		files = append(files, PullRequestFile{
			Filename:  f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Patch:     truncatePatch(f.GetPatch()),
		})
	}

	return files, nil
}
