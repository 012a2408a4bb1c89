package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"deepwork-api/internal/domain"
	"deepwork-api/internal/repository"
)

// TaskHandler mantiene dependencias para endpoints de tareas.
type TaskHandler struct {
	logger *zap.Logger
	tasks  repository.TaskRepository
}

func NewTaskHandler(logger *zap.Logger, tasks repository.TaskRepository) *TaskHandler {
	return &TaskHandler{logger: logger, tasks: tasks}
}

func validTaskStatus(status string) bool {
	switch status {
	case domain.TaskStatusTodo, domain.TaskStatusInProgress, domain.TaskStatusCompleted:
		return true
	}
	return false
}

// CreateTask maneja POST /tasks.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		Title             string     `json:"title" binding:"required"`
		Description       *string    `json:"description"`
		DueDate           *time.Time `json:"due_date"`
		Priority          int        `json:"priority"`
		Status            string     `json:"status"`
		Tags              []string   `json:"tags"`
		EstimatedDuration *int       `json:"estimated_duration"`
		ParentTaskID      *string    `json:"parent_task_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create task request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	status := req.Status
	if status == "" {
		status = domain.TaskStatusTodo
	}
	if !validTaskStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	now := nowUTC()
	task := domain.Task{
		ID:                uuid.NewString(),
		UserID:            claims.UserID,
		Title:             req.Title,
		Description:       req.Description,
		DueDate:           req.DueDate,
		Priority:          req.Priority,
		Status:            status,
		Tags:              req.Tags,
		EstimatedDuration: req.EstimatedDuration,
		ParentTaskID:      req.ParentTaskID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		h.logger.Error("create task failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create task"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// ListTasks maneja GET /tasks.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	tasks, err := h.tasks.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list tasks failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// UpdateTask maneja PATCH /tasks/:id.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	taskID := c.Param("id")
	existing, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		h.logger.Error("get task failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update task"})
		return
	}
	if existing.UserID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	var upd repository.TaskUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		h.logger.Warn("invalid update task request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if upd.Status != nil && !validTaskStatus(*upd.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), taskID, upd, nowUTC())
	if err != nil {
		h.logger.Error("update task failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task})
}

// DeleteTask maneja DELETE /tasks/:id.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	taskID := c.Param("id")
	existing, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		h.logger.Error("get task failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete task"})
		return
	}
	if existing.UserID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), taskID); err != nil {
		h.logger.Error("delete task failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete task"})
		return
	}

	c.Status(http.StatusNoContent)
}
