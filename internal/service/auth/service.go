package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"univendor/internal/domain"
	"univendor/internal/logging"
	otprepo "univendor/internal/repository/otp"
	sessionrepo "univendor/internal/repository/session"
	userrepo "univendor/internal/repository/user"
)

var (
	// ErrInvalidCode is returned when an OTP does not match or none is pending.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrCodeExpired is returned when the pending OTP is past its expiry.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrTooManyAttempts is returned once a code has been guessed wrong too often.
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")
	// ErrNotVerified is returned by Register without a verified OTP for the email.
	ErrNotVerified = errors.New("email not verified")
	// ErrEmailLoginDisabled is returned by LoginWithEmail outside development.
	ErrEmailLoginDisabled = errors.New("email login is disabled")
	// ErrInvalidSession indicates a missing, unknown or expired session token.
	ErrInvalidSession = errors.New("invalid session")
)

const (
	codeDigits  = 6
	maxAttempts = 5
)

// Mailer delivers a one-time code to an email address.
type Mailer interface {
	SendCode(ctx context.Context, email, code string) error
}

type Options struct {
	OTPTTL          time.Duration
	SessionTTL      time.Duration
	AllowEmailLogin bool
	Mailer          Mailer
	Logger          *zap.Logger
}

// Service handles passwordless sign-in: OTP issue and verification,
// registration of new buyers, and session lifecycle.
type Service struct {
	users           userrepo.Repository
	otps            otprepo.Repository
	sessions        *sessionManager
	mailer          Mailer
	logger          *zap.Logger
	otpTTL          time.Duration
	sessionTTL      time.Duration
	allowEmailLogin bool

	now     func() time.Time
	newCode func() (string, error)
}

// New creates a Service. Zero TTLs default to 10 minutes for codes and
// 7 days for sessions.
func New(users userrepo.Repository, otps otprepo.Repository, sessions sessionrepo.Repository, opts Options) *Service {
	logger := logging.OrNop(opts.Logger)
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	s := &Service{
		users:           users,
		otps:            otps,
		mailer:          mailer,
		logger:          logger,
		otpTTL:          opts.OTPTTL,
		sessionTTL:      opts.SessionTTL,
		allowEmailLogin: opts.AllowEmailLogin,
		now:             time.Now,
		newCode:         randomCode,
	}
	s.sessions = newSessionManager(sessions, func() time.Time { return s.now() })
	return s
}

// Result is the outcome of a successful sign-in step. When
// RequiresRegistration is set, User and Token are empty.
type Result struct {
	User                 *domain.User
	Token                string
	ExpiresAt            time.Time
	RequiresRegistration bool
}

type RegisterInput struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// SessionTTL exposes the session lifetime for cookie max-age.
func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

// SendOTP issues a fresh code for email, replacing any pending one.
func (s *Service) SendOTP(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err := s.otps.Put(ctx, otprepo.Code{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(s.otpTTL),
	}); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if err := s.mailer.SendCode(ctx, email, code); err != nil {
		return fmt.Errorf("deliver code: %w", err)
	}
	s.logger.Info("otp issued", zap.String("email", email))
	return nil
}

// VerifyOTP checks code for email. A known user gets a session; an unknown
// email is marked verified so Register can complete within the code window.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*Result, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	pending, err := s.otps.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	if !s.now().Before(pending.ExpiresAt) {
		_ = s.otps.Delete(ctx, email)
		return nil, ErrCodeExpired
	}
	if pending.Attempts >= maxAttempts {
		return nil, ErrTooManyAttempts
	}
	if bcrypt.CompareHashAndPassword([]byte(pending.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		attempts, err := s.otps.IncrementAttempts(ctx, email)
		if err != nil {
			return nil, err
		}
		s.logger.Info("otp mismatch", zap.String("email", email), zap.Int("attempts", attempts))
		if attempts >= maxAttempts {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidCode
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		if err := s.otps.MarkVerified(ctx, email, s.now()); err != nil {
			return nil, err
		}
		return &Result{RequiresRegistration: true}, nil
	}
	if err != nil {
		return nil, err
	}
	_ = s.otps.Delete(ctx, email)
	return s.startSession(ctx, u)
}

// Register creates a buyer for an email verified by VerifyOTP.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, domain.Invalid("firstName and lastName are required")
	}
	pending, err := s.otps.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNotVerified
		}
		return nil, err
	}
	if pending.VerifiedAt == nil || !s.now().Before(pending.ExpiresAt) {
		return nil, ErrNotVerified
	}

	u, err := s.users.Create(ctx, domain.User{
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		Role:      domain.RoleBuyer,
	})
	if err != nil {
		return nil, err
	}
	_ = s.otps.Delete(ctx, email)
	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return s.startSession(ctx, u)
}

// LoginWithEmail signs in an existing user without a code. Development only.
func (s *Service) LoginWithEmail(ctx context.Context, email string) (*Result, error) {
	if !s.allowEmailLogin {
		return nil, ErrEmailLoginDisabled
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, u)
}

// Principal is who a request acts as. Impersonator is the admin behind
// the session while it impersonates User, nil otherwise.
type Principal struct {
	User         *domain.User
	Impersonator *domain.User
}

// Authenticate resolves a session token to its principal. An impersonation
// only takes effect while the session's own user is still an admin and the
// impersonated user still exists.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	sess, ok := s.sessions.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidSession
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if sess.ImpersonatedUserID == nil || !u.Role.IsAdmin() {
		return &Principal{User: u}, nil
	}
	target, err := s.users.GetByID(ctx, *sess.ImpersonatedUserID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &Principal{User: u}, nil
	case err != nil:
		return nil, err
	}
	return &Principal{User: target, Impersonator: u}, nil
}

// Impersonate makes the session act as targetID. actor is the session's
// own user; only admins may impersonate, and only a super admin may
// impersonate another admin.
func (s *Service) Impersonate(ctx context.Context, token string, actor domain.User, targetID string) (*domain.User, error) {
	if !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if targetID == actor.ID {
		return nil, domain.Invalid("cannot impersonate yourself")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load impersonation target: %w", err)
	}
	if target.Role.IsAdmin() && actor.Role != domain.RoleSuperAdmin {
		return nil, domain.ErrForbidden
	}
	if err := s.sessions.Impersonate(ctx, token, &target.ID); err != nil {
		return nil, fmt.Errorf("start impersonation: %w", err)
	}
	s.logger.Info("impersonation started", zap.String("admin_id", actor.ID), zap.String("user_id", target.ID))
	return target, nil
}

// StopImpersonating returns the session to its own user.
func (s *Service) StopImpersonating(ctx context.Context, token string) error {
	if err := s.sessions.Impersonate(ctx, token, nil); err != nil {
		return fmt.Errorf("stop impersonation: %w", err)
	}
	return nil
}

// Logout ends the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) startSession(ctx context.Context, u *domain.User) (*Result, error) {
	token, expiresAt, err := s.sessions.Issue(ctx, u.ID, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Result{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "", domain.Invalid("a valid email is required")
	}
	return email, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
