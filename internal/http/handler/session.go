package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/robbykap/github-dashboard/internal/drafting"
	"github.com/robbykap/github-dashboard/internal/http/dto"
	"github.com/robbykap/github-dashboard/internal/session"
)

type SessionHandler struct {
	registry *session.Registry
}

func NewSessionHandler(registry *session.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

func (h *SessionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := h.registry.Create(req.Repo)
	slog.InfoContext(ctx, "drafting session created", "session_id", s.ID, "repo", s.Repo)

	c.JSON(http.StatusCreated, dto.ToSessionResponse(s))
}

func (h *SessionHandler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.SubmitMessage(ctx, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, drafting.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		case errors.Is(err, drafting.ErrNotDrafting):
			c.JSON(http.StatusConflict, gin.H{"error": "draft is already finalized"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTurnResponse(result))
}

func (h *SessionHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	s, ok := h.session(c)
	if !ok {
		return
	}

	result, err := s.SubmitFinal(ctx)
	if err != nil {
		if errors.Is(err, drafting.ErrNotConfiguring) {
			c.JSON(http.StatusConflict, gin.H{"error": "no finalized draft to submit"})
			return
		}
		// Draft is retained; the client may retry or revise.
		slog.WarnContext(ctx, "issue submission failed", "session_id", s.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create issue", "state": string(s.State())})
		return
	}

	c.JSON(http.StatusCreated, dto.SubmitResponse{
		State:  string(s.State()),
		Number: result.Number,
		URL:    result.URL,
	})
}

func (h *SessionHandler) Revise(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.RequestRevision(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no finalized draft to revise"})
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(s))
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	h.registry.Remove(id)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) sessionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return 0, false
	}
	return id, true
}

func (h *SessionHandler) session(c *gin.Context) (*drafting.Session, bool) {
	id, ok := h.sessionID(c)
	if !ok {
		return nil, false
	}

	s, err := h.registry.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return s, true
}
