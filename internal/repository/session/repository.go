package session

import (
	"context"
	"time"
)

// Session binds an opaque cookie token to a user until ExpiresAt. While
// ImpersonatedUserID is set an admin session acts as that user.
type Session struct {
	Token              string
	UserID             string
	ImpersonatedUserID *string
	ExpiresAt          time.Time
	CreatedAt          time.Time
}

type Repository interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (*Session, error)
	// SetImpersonation points the session at userID, or back at its own
	// user when userID is nil.
	SetImpersonation(ctx context.Context, token string, userID *string) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
