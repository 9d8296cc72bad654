package otp

import (
	"context"
	"time"
)

// Code is the pending one-time password for an email address. Only the
// bcrypt hash of the code is stored.
type Code struct {
	Email      string
	CodeHash   string
	ExpiresAt  time.Time
	Attempts   int
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

type Repository interface {
	// Put replaces any pending code for the email and resets its attempts.
	Put(ctx context.Context, c Code) error
	Get(ctx context.Context, email string) (*Code, error)
	// IncrementAttempts records a failed verification and returns the new count.
	IncrementAttempts(ctx context.Context, email string) (int, error)
	MarkVerified(ctx context.Context, email string, at time.Time) error
	Delete(ctx context.Context, email string) error
}
