package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"deepwork-api/internal/domain"
)

// TaskUpdate describe una actualizacion parcial de una tarea.
type TaskUpdate struct {
	Title             *string    `json:"title,omitempty"`
	Description       *string    `json:"description,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	Priority          *int       `json:"priority,omitempty"`
	Status            *string    `json:"status,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty"`
}

// TaskRepository define el contrato de persistencia para tareas.
type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) error
	GetByID(ctx context.Context, id string) (domain.Task, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Task, error)
	Update(ctx context.Context, id string, upd TaskUpdate, updatedAt time.Time) (domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// PgTaskRepository implementa TaskRepository usando pgxpool.
type PgTaskRepository struct {
	pool *pgxpool.Pool
}

func NewPgTaskRepository(pool *pgxpool.Pool) *PgTaskRepository {
	return &PgTaskRepository{pool: pool}
}

const taskColumns = `id, user_id, title, description, due_date, priority, status, tags, ai_priority_score, estimated_duration, parent_task_id, created_at, updated_at`

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Priority,
		&t.Status,
		&t.Tags,
		&t.AIPriorityScore,
		&t.EstimatedDuration,
		&t.ParentTaskID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *PgTaskRepository) Create(ctx context.Context, task domain.Task) error {
	const query = `
		INSERT INTO tasks (id, user_id, title, description, due_date, priority, status, tags, ai_priority_score, estimated_duration, parent_task_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Status,
		task.Tags,
		task.AIPriorityScore,
		task.EstimatedDuration,
		task.ParentTaskID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	return err
}

func (r *PgTaskRepository) GetByID(ctx context.Context, id string) (domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

func (r *PgTaskRepository) ListByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *PgTaskRepository) Update(ctx context.Context, id string, upd TaskUpdate, updatedAt time.Time) (domain.Task, error) {
	sets := []string{}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.DueDate != nil {
		add("due_date", *upd.DueDate)
	}
	if upd.Priority != nil {
		add("priority", *upd.Priority)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.Tags != nil {
		add("tags", upd.Tags)
	}
	if upd.EstimatedDuration != nil {
		add("estimated_duration", *upd.EstimatedDuration)
	}
	add("updated_at", updatedAt)

	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $1 RETURNING %s",
		strings.Join(sets, ", "),
		taskColumns,
	)
	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

func (r *PgTaskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
