package dto

import (
	"github.com/robbykap/github-dashboard/internal/drafting"
	"github.com/robbykap/github-dashboard/internal/model"
)

type CreateSessionRequest struct {
	Repo string `json:"repo" binding:"required,min=3,max=255"`
}

type SessionResponse struct {
	ID    int64         `json:"id,string"`
	Repo  string        `json:"repo"`
	State string        `json:"state"`
	Draft DraftResponse `json:"draft"`
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required,max=8192"`
}

type TurnResponse struct {
	State string        `json:"state"`
	Reply string        `json:"reply"`
	Draft DraftResponse `json:"draft"`
}

type SubmitResponse struct {
	State  string `json:"state"`
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// DraftResponse mirrors the cumulative draft. Fields the conversation has
// not touched are omitted; explicitly cleared fields serialize as empty.
type DraftResponse struct {
	Title     *string  `json:"title,omitempty"`
	Body      *string  `json:"body,omitempty"`
	IssueType *string  `json:"issue_type,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Priority  *string  `json:"priority,omitempty"`
}

func ToDraftResponse(d model.DraftIssue) DraftResponse {
	out := DraftResponse{
		Title:  d.Title,
		Body:   d.Body,
		Labels: d.Labels,
	}
	if d.IssueType != nil {
		s := string(*d.IssueType)
		out.IssueType = &s
	}
	if d.Priority != nil {
		s := string(*d.Priority)
		out.Priority = &s
	}
	return out
}

func ToSessionResponse(s *drafting.Session) SessionResponse {
	return SessionResponse{
		ID:    s.ID,
		Repo:  s.Repo,
		State: string(s.State()),
		Draft: ToDraftResponse(s.Draft()),
	}
}

func ToTurnResponse(r drafting.TurnResult) TurnResponse {
	return TurnResponse{
		State: string(r.State),
		Reply: r.Reply,
		Draft: ToDraftResponse(r.Draft),
	}
}
