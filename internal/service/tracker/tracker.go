package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/robbykap/github-dashboard/internal/drafting"
	"github.com/robbykap/github-dashboard/internal/model"
)

const (
	// Caps for pull request file listings, keeping summary prompts bounded.
	maxPullRequestFiles = 30
	maxPatchSize        = 2000
)

// PullRequestFile describes one changed file in a pull/merge request.
type PullRequestFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
}

// IssueTracker creates issues from finalized drafts and reads back change
// metadata. Implementations exist for GitHub and GitLab; both satisfy
// drafting.IssueSubmitter.
type IssueTracker interface {
	drafting.IssueSubmitter
	ListPullRequestFiles(ctx context.Context, repo string, number int) ([]PullRequestFile, error)
}

// submissionLabels derives the label set sent to the provider: the draft's
// own labels plus classification- and priority-derived ones, deduplicated
// case-insensitively.
func submissionLabels(issue model.DraftIssue) []string {
	var labels []string
	labels = append(labels, issue.Labels...)

	if issue.IssueType != nil && *issue.IssueType != "" {
		labels = append(labels, string(*issue.IssueType))
	}
	if issue.Priority != nil && *issue.Priority != "" {
		labels = append(labels, "priority: "+string(*issue.Priority))
	}

	seen := make(map[string]struct{}, len(labels))
	out := labels[:0]
	for _, l := range labels {
		key := strings.ToLower(strings.TrimSpace(l))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

// splitRepo splits an "owner/name" path.
func splitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository path %q, want owner/name", repo)
	}
	return owner, name, nil
}

func truncatePatch(patch string) string {
	if len(patch) > maxPatchSize {
		return patch[:maxPatchSize]
	}
	return patch
}
