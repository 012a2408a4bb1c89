package domain

import "time"

// Estados posibles de una tarea.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Task es una tarea del usuario.
type Task struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Title             string     `json:"title"`
	Description       *string    `json:"description,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	Priority          int        `json:"priority"`
	Status            string     `json:"status"`
	Tags              []string   `json:"tags,omitempty"`
	AIPriorityScore   *float64   `json:"ai_priority_score,omitempty"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty"`
	ParentTaskID      *string    `json:"parent_task_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// FocusSession es una sesion de enfoque cronometrada, opcionalmente
// ligada a una tarea.
type FocusSession struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	TaskID        *string    `json:"task_id,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Duration      int        `json:"duration"`
	Completed     bool       `json:"completed"`
	FocusScore    *float64   `json:"focus_score,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	Interruptions *int       `json:"interruptions,omitempty"`
}
