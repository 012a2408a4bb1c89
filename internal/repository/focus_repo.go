package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"deepwork-api/internal/domain"
)

// FocusSessionRepository define el contrato de persistencia para
// sesiones de enfoque.
type FocusSessionRepository interface {
	Create(ctx context.Context, session domain.FocusSession) error
	GetByID(ctx context.Context, id string) (domain.FocusSession, error)
	ListByUser(ctx context.Context, userID string) ([]domain.FocusSession, error)
	Finish(ctx context.Context, id string, endedAt time.Time, duration int, completed bool, focusScore *float64, notes *string, interruptions *int) (domain.FocusSession, error)
}

// PgFocusSessionRepository implementa FocusSessionRepository usando pgxpool.
type PgFocusSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgFocusSessionRepository(pool *pgxpool.Pool) *PgFocusSessionRepository {
	return &PgFocusSessionRepository{pool: pool}
}

const focusColumns = `id, user_id, task_id, started_at, ended_at, duration, completed, focus_score, notes, interruptions`

func scanFocusSession(row pgx.Row) (domain.FocusSession, error) {
	var f domain.FocusSession
	err := row.Scan(
		&f.ID,
		&f.UserID,
		&f.TaskID,
		&f.StartedAt,
		&f.EndedAt,
		&f.Duration,
		&f.Completed,
		&f.FocusScore,
		&f.Notes,
		&f.Interruptions,
	)
	return f, err
}

func (r *PgFocusSessionRepository) Create(ctx context.Context, session domain.FocusSession) error {
	const query = `
		INSERT INTO focus_sessions (id, user_id, task_id, started_at, ended_at, duration, completed, focus_score, notes, interruptions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.TaskID,
		session.StartedAt,
		session.EndedAt,
		session.Duration,
		session.Completed,
		session.FocusScore,
		session.Notes,
		session.Interruptions,
	)
	return err
}

func (r *PgFocusSessionRepository) GetByID(ctx context.Context, id string) (domain.FocusSession, error) {
	query := `SELECT ` + focusColumns + ` FROM focus_sessions WHERE id = $1`
	return scanFocusSession(r.pool.QueryRow(ctx, query, id))
}

func (r *PgFocusSessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.FocusSession, error) {
	query := `
		SELECT ` + focusColumns + `
		FROM focus_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.FocusSession
	for rows.Next() {
		f, err := scanFocusSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, f)
	}
	return sessions, rows.Err()
}

func (r *PgFocusSessionRepository) Finish(ctx context.Context, id string, endedAt time.Time, duration int, completed bool, focusScore *float64, notes *string, interruptions *int) (domain.FocusSession, error) {
	query := `
		UPDATE focus_sessions
		SET ended_at = $2, duration = $3, completed = $4, focus_score = $5, notes = $6, interruptions = $7
		WHERE id = $1
		RETURNING ` + focusColumns
	return scanFocusSession(r.pool.QueryRow(ctx, query,
		id, endedAt, duration, completed, focusScore, notes, interruptions,
	))
}
