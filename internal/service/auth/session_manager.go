package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"univendor/internal/domain"
	sessionrepo "univendor/internal/repository/session"
)

type sessionManager struct {
	repo sessionrepo.Repository
	now  func() time.Time
}

func newSessionManager(repo sessionrepo.Repository, now func() time.Time) *sessionManager {
	return &sessionManager{repo: repo, now: now}
}

func (m *sessionManager) Issue(ctx context.Context, userID string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := m.now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", time.Time{}, err
		}
		err = m.repo.Create(ctx, sessionrepo.Session{
			Token:     token,
			UserID:    userID,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, expiresAt, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", time.Time{}, err
	}
	return "", time.Time{}, errors.New("session token collision")
}

func (m *sessionManager) Validate(ctx context.Context, token string) (*sessionrepo.Session, bool) {
	if token == "" {
		return nil, false
	}
	s, err := m.repo.Get(ctx, token)
	if err != nil {
		return nil, false
	}
	if !m.now().Before(s.ExpiresAt) {
		_ = m.repo.Delete(ctx, token)
		return nil, false
	}
	return s, true
}

func (m *sessionManager) Impersonate(ctx context.Context, token string, userID *string) error {
	return m.repo.SetImpersonation(ctx, token, userID)
}

func (m *sessionManager) Revoke(ctx context.Context, token string) error {
	return m.repo.Delete(ctx, token)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
