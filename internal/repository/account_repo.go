package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"deepwork-api/internal/domain"
)

// AccountRepository define el contrato de persistencia para cuentas de
// identidad.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	UpdateResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// PgAccountRepository implementa AccountRepository usando pgxpool.
type PgAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPgAccountRepository(pool *pgxpool.Pool) *PgAccountRepository {
	return &PgAccountRepository{pool: pool}
}

const accountColumns = `id, email, password_hash, full_name, avatar_url, reset_code_hash, reset_code_expires, created_at`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.FullName,
		&a.AvatarURL,
		&a.ResetCodeHash,
		&a.ResetCodeExpires,
		&a.CreatedAt,
	)
	return a, err
}

func (r *PgAccountRepository) Create(ctx context.Context, account domain.Account) error {
	const query = `
		INSERT INTO accounts (id, email, password_hash, full_name, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.FullName,
		account.AvatarURL,
		account.CreatedAt,
	)
	return err
}

func (r *PgAccountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

func (r *PgAccountRepository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

func (r *PgAccountRepository) UpdateResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	const query = `
		UPDATE accounts SET reset_code_hash = $2, reset_code_expires = $3 WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, codeHash, expiresAt)
	return err
}

func (r *PgAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE accounts SET password_hash = $2, reset_code_hash = '', reset_code_expires = NULL WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, passwordHash)
	return err
}
