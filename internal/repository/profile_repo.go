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

// ProfileRepository define el contrato de persistencia para la tabla users.
// GetAllByID devuelve todas las filas con ese id para que el llamador
// pueda detectar la anomalia de filas duplicadas.
type ProfileRepository interface {
	GetAllByID(ctx context.Context, id string) ([]domain.Profile, error)
	Insert(ctx context.Context, profile domain.Profile) error
	Update(ctx context.Context, id string, upd domain.ProfileUpdate, updatedAt time.Time) (domain.Profile, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// PgProfileRepository implementa ProfileRepository usando pgxpool.
type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

const profileColumns = `id, email, full_name, avatar_url, preferences, time_zone, last_login, created_at, updated_at`

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&p.AvatarURL,
		&p.Preferences,
		&p.TimeZone,
		&p.LastLogin,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *PgProfileRepository) GetAllByID(ctx context.Context, id string) ([]domain.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *PgProfileRepository) Insert(ctx context.Context, profile domain.Profile) error {
	const query = `
		INSERT INTO users (id, email, full_name, avatar_url, preferences, time_zone, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.AvatarURL,
		profile.Preferences,
		profile.TimeZone,
		profile.LastLogin,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	return err
}

// Update aplica solo los campos presentes en upd en una unica sentencia,
// de modo que la actualizacion es todo-o-nada.
func (r *PgProfileRepository) Update(ctx context.Context, id string, upd domain.ProfileUpdate, updatedAt time.Time) (domain.Profile, error) {
	sets := []string{}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.AvatarURL != nil {
		add("avatar_url", *upd.AvatarURL)
	}
	if upd.Preferences != nil {
		add("preferences", upd.Preferences)
	}
	if upd.TimeZone != nil {
		add("time_zone", *upd.TimeZone)
	}
	if upd.LastLogin != nil {
		add("last_login", *upd.LastLogin)
	}
	add("updated_at", updatedAt)

	query := fmt.Sprintf(
		"UPDATE users SET %s WHERE id = $1 RETURNING %s",
		strings.Join(sets, ", "),
		profileColumns,
	)
	return scanProfile(r.pool.QueryRow(ctx, query, args...))
}

func (r *PgProfileRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}
