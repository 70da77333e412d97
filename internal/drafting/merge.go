package drafting

import "github.com/robbykap/github-dashboard/internal/model"

// DraftUpdate is the argument record of one continue-drafting invocation,
// parsed with per-field presence: a nil pointer (or nil slice) means the
// model did not mention the field at all, while a pointer to a zero value
// (or empty non-nil slice) means the model explicitly set it empty.
type DraftUpdate struct {
	Title     *string          `json:"title"`
	Body      *string          `json:"body"`
	IssueType *model.IssueType `json:"issue_type"`
	Labels    []string         `json:"labels"`
	Priority  *model.Priority  `json:"priority"`
}

// IsZero reports whether the update carries no fields at all.
func (u DraftUpdate) IsZero() bool {
	return u.Title == nil && u.Body == nil && u.IssueType == nil &&
		u.Labels == nil && u.Priority == nil
}

// Merge folds an update into an existing draft and returns a new draft.
// It never fails and never mutates its inputs.
//
// Per field: a populated update value always wins; an explicitly-empty
// update value is recorded only when the field was never discussed, so
// "no labels yet" stays distinguishable from "never mentioned"; and a
// populated existing value is never erased by an empty update.
func Merge(existing model.DraftIssue, update DraftUpdate) model.DraftIssue {
	out := existing.Clone()
	out.Title = mergeField(out.Title, update.Title)
	out.Body = mergeField(out.Body, update.Body)
	out.IssueType = mergeField(out.IssueType, update.IssueType)
	out.Labels = mergeLabels(out.Labels, update.Labels)
	out.Priority = mergeField(out.Priority, update.Priority)
	return out
}

func mergeField[T comparable](existing, update *T) *T {
	if update == nil {
		return existing
	}
	var zero T
	if *update != zero {
		v := *update
		return &v
	}
	if existing == nil {
		return &zero
	}
	return existing
}

func mergeLabels(existing, update []string) []string {
	if update == nil {
		return existing
	}
	if len(update) > 0 {
		out := make([]string, len(update))
		copy(out, update)
		return out
	}
	if existing == nil {
		return []string{}
	}
	return existing
}
