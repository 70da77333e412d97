package model

// IssueType classifies the kind of work item being drafted.
type IssueType string

const (
	IssueTypeBug           IssueType = "bug"
	IssueTypeFeature       IssueType = "feature"
	IssueTypeEnhancement   IssueType = "enhancement"
	IssueTypeDocumentation IssueType = "documentation"
	IssueTypeQuestion      IssueType = "question"
)

func (t IssueType) Valid() bool {
	switch t {
	case IssueTypeBug, IssueTypeFeature, IssueTypeEnhancement, IssueTypeDocumentation, IssueTypeQuestion:
		return true
	}
	return false
}

// Priority ranks the urgency of a drafted issue.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// FlowState tracks where a drafting session is in its lifecycle. Transitions
// are strictly forward except the explicit reject-and-revise edge from
// configuring back to drafting.
type FlowState string

const (
	FlowStateDrafting    FlowState = "drafting"
	FlowStateConfiguring FlowState = "configuring"
	FlowStateSubmitting  FlowState = "submitting"
	FlowStateDone        FlowState = "done"
)

// DraftIssue is the cumulative, partially populated work item accumulated
// over a drafting conversation.
//
// Each field tracks three states rather than two:
//   - nil pointer / nil slice: never discussed
//   - pointer to zero value / empty non-nil slice: explicitly empty
//     (e.g. the user said "no labels yet")
//   - anything else: populated
//
// The distinction is what makes the non-destructive merge enforceable: a
// populated field is never overwritten by an empty one.
type DraftIssue struct {
	Title     *string    `json:"title"`
	Body      *string    `json:"body"`
	IssueType *IssueType `json:"issue_type"`
	Labels    []string   `json:"labels"`
	Priority  *Priority  `json:"priority"`
}

// IsEmpty reports whether the draft has zero populated fields. Explicitly
// empty fields do not count as populated.
func (d DraftIssue) IsEmpty() bool {
	if d.Title != nil && *d.Title != "" {
		return false
	}
	if d.Body != nil && *d.Body != "" {
		return false
	}
	if d.IssueType != nil && *d.IssueType != "" {
		return false
	}
	if len(d.Labels) > 0 {
		return false
	}
	if d.Priority != nil && *d.Priority != "" {
		return false
	}
	return true
}

// Clone returns a deep copy. Merge operates on copies so callers can treat
// a prior draft as immutable once superseded.
func (d DraftIssue) Clone() DraftIssue {
	out := DraftIssue{}
	if d.Title != nil {
		v := *d.Title
		out.Title = &v
	}
	if d.Body != nil {
		v := *d.Body
		out.Body = &v
	}
	if d.IssueType != nil {
		v := *d.IssueType
		out.IssueType = &v
	}
	if d.Labels != nil {
		out.Labels = make([]string, len(d.Labels))
		copy(out.Labels, d.Labels)
	}
	if d.Priority != nil {
		v := *d.Priority
		out.Priority = &v
	}
	return out
}
