package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"deepwork-api/internal/domain"
	"deepwork-api/internal/repository"
)

// FocusHandler mantiene dependencias para endpoints de sesiones de enfoque.
type FocusHandler struct {
	logger *zap.Logger
	focus  repository.FocusSessionRepository
}

func NewFocusHandler(logger *zap.Logger, focus repository.FocusSessionRepository) *FocusHandler {
	return &FocusHandler{logger: logger, focus: focus}
}

// StartSession maneja POST /focus.
func (h *FocusHandler) StartSession(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		TaskID *string `json:"task_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid start focus request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session := domain.FocusSession{
		ID:        uuid.NewString(),
		UserID:    claims.UserID,
		TaskID:    req.TaskID,
		StartedAt: nowUTC(),
	}

	if err := h.focus.Create(c.Request.Context(), session); err != nil {
		h.logger.Error("start focus session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start focus session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"focus_session": session})
}

// FinishSession maneja POST /focus/:id/finish. La duracion se calcula
// en el servidor a partir de started_at.
func (h *FocusHandler) FinishSession(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	sessionID := c.Param("id")
	existing, err := h.focus.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "focus session not found"})
			return
		}
		h.logger.Error("get focus session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not finish focus session"})
		return
	}
	if existing.UserID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "focus session not found"})
		return
	}
	if existing.EndedAt != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "focus session already finished"})
		return
	}

	var req struct {
		Completed     bool     `json:"completed"`
		FocusScore    *float64 `json:"focus_score"`
		Notes         *string  `json:"notes"`
		Interruptions *int     `json:"interruptions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid finish focus request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	endedAt := nowUTC()
	duration := int(endedAt.Sub(existing.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}

	session, err := h.focus.Finish(c.Request.Context(), sessionID, endedAt, duration, req.Completed, req.FocusScore, req.Notes, req.Interruptions)
	if err != nil {
		h.logger.Error("finish focus session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not finish focus session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"focus_session": session})
}

// ListSessions maneja GET /focus.
func (h *FocusHandler) ListSessions(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	sessions, err := h.focus.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list focus sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list focus sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"focus_sessions": sessions})
}
