package otp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"univendor/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *postgresRepo) Put(ctx context.Context, c Code) error {
	const q = `
INSERT INTO otps (email, code_hash, expires_at, attempts, verified_at)
VALUES ($1, $2, $3, 0, NULL)
ON CONFLICT (email) DO UPDATE SET
    code_hash = EXCLUDED.code_hash,
    expires_at = EXCLUDED.expires_at,
    attempts = 0,
    verified_at = NULL,
    created_at = now()
`
	_, err := r.pool.Exec(ctx, q, normalize(c.Email), c.CodeHash, c.ExpiresAt)
	return err
}

func (r *postgresRepo) Get(ctx context.Context, email string) (*Code, error) {
	const q = `
SELECT email, code_hash, expires_at, attempts, verified_at, created_at
FROM otps
WHERE email = $1
`
	var c Code
	if err := r.pool.QueryRow(ctx, q, normalize(email)).Scan(&c.Email, &c.CodeHash, &c.ExpiresAt, &c.Attempts, &c.VerifiedAt, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) IncrementAttempts(ctx context.Context, email string) (int, error) {
	var attempts int
	err := r.pool.QueryRow(ctx, `
UPDATE otps SET attempts = attempts + 1
WHERE email = $1
RETURNING attempts
`, normalize(email)).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return attempts, nil
}

func (r *postgresRepo) MarkVerified(ctx context.Context, email string, at time.Time) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE otps SET verified_at = $2 WHERE email = $1`, normalize(email), at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM otps WHERE email = $1`, normalize(email))
	return err
}
