package shop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"univendor/internal/api"
	"univendor/internal/cartapi"
	"univendor/internal/domain"
	"univendor/internal/logging"
)

// AuthAPI is the sign-in endpoint set.
type AuthAPI interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.AuthResponse, error)
	LoginWithEmail(ctx context.Context, email string) (api.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (api.User, error)
}

// SignIn is the outcome of a sign-in step.
type SignIn struct {
	User                 api.User
	RedirectTo           string
	RequiresRegistration bool
}

// Session tracks who is signed in. The guest cart is migrated after a
// successful sign-in and before Authenticated turns true, so the view
// never shows an empty server cart in between.
type Session struct {
	api       AuthAPI
	migrator  *Migrator
	cart      *ServerCart
	redirects *RedirectStore
	nav       Navigator
	logger    *zap.Logger

	mu   sync.RWMutex
	user *api.User
}

type SessionOptions struct {
	Migrator  *Migrator
	Cart      *ServerCart
	Redirects *RedirectStore
	Navigator Navigator
	Logger    *zap.Logger
}

func NewSession(authAPI AuthAPI, opts SessionOptions) *Session {
	return &Session{
		api:       authAPI,
		migrator:  opts.Migrator,
		cart:      opts.Cart,
		redirects: opts.Redirects,
		nav:       navigatorOrNop(opts.Navigator),
		logger:    logging.OrNop(opts.Logger),
	}
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) User() (api.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return api.User{}, false
	}
	return *s.user, true
}

func (s *Session) SendOTP(ctx context.Context, email string) error {
	if err := s.api.SendOTP(ctx, email); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}

// VerifyOTP checks a code. An unknown email comes back with
// RequiresRegistration set and nothing is signed in yet.
func (s *Session) VerifyOTP(ctx context.Context, email, code string) (SignIn, error) {
	res, err := s.api.VerifyOTP(ctx, email, code)
	if err != nil {
		return SignIn{}, fmt.Errorf("verify code: %w", err)
	}
	if res.RequiresRegistration {
		return SignIn{RequiresRegistration: true}, nil
	}
	return s.signedIn(ctx, res)
}

func (s *Session) Register(ctx context.Context, req api.RegisterRequest) (SignIn, error) {
	res, err := s.api.Register(ctx, req)
	if err != nil {
		return SignIn{}, fmt.Errorf("register: %w", err)
	}
	return s.signedIn(ctx, res)
}

func (s *Session) LoginWithEmail(ctx context.Context, email string) (SignIn, error) {
	res, err := s.api.LoginWithEmail(ctx, email)
	if err != nil {
		return SignIn{}, fmt.Errorf("email login: %w", err)
	}
	return s.signedIn(ctx, res)
}

// Restore resumes an existing session, e.g. on start-up. It never
// migrates the guest cart.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	u, err := s.api.CurrentUser(ctx)
	if cartapi.IsStatus(err, http.StatusUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	s.setUser(&u)
	s.refreshCart(ctx)
	return true, nil
}

// Logout signs out. The local state is dropped even if the server call
// fails.
func (s *Session) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.setUser(nil)
	if s.cart != nil {
		s.cart.Reset()
	}
	if err != nil && !cartapi.IsStatus(err, http.StatusUnauthorized) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Session) signedIn(ctx context.Context, res api.AuthResponse) (SignIn, error) {
	if res.User == nil {
		return SignIn{}, errors.New("sign-in response has no user")
	}
	if s.migrator != nil {
		s.migrator.Run(ctx)
	}
	u := *res.User
	s.setUser(&u)
	s.refreshCart(ctx)

	target := res.RedirectTo
	if target == "" {
		target = domain.Role(u.Role).HomePath()
	}
	if s.redirects != nil {
		if saved, ok := s.redirects.Consume(ctx); ok {
			target = saved
		}
	}
	s.logger.Info("signed in", zap.String("user_id", u.ID), zap.String("role", u.Role), zap.String("redirect", target))
	s.nav.Navigate(target)
	return SignIn{User: u, RedirectTo: target}, nil
}

func (s *Session) refreshCart(ctx context.Context) {
	if s.cart == nil {
		return
	}
	if err := s.cart.Refresh(ctx); err != nil {
		s.logger.Debug("initial cart fetch failed", zap.Error(err))
	}
}

func (s *Session) setUser(u *api.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}
