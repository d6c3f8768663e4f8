package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kiwiq/alpha-cli/internal/domain"
	"github.com/kiwiq/alpha-cli/internal/port"
)

// SessionState is a point-in-time snapshot of the session machine:
// anonymous -> loading -> authenticated | anonymous(error).
type SessionState struct {
	User            *domain.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Err             string
}

// SessionService owns the current user, token, and impersonation flag.
// Login, SwitchUser, Logout, and CheckAuth are serialized behind a
// single-writer mutex so overlapping calls cannot interleave their
// token/user writes.
type SessionService struct {
	api    port.AuthAPI
	tokens port.TokenStore

	opMu     sync.Mutex  // serializes auth transitions
	checking atomic.Bool // CheckAuth re-entrancy latch

	stateMu         sync.Mutex
	user            *domain.User
	token           string
	isAuthenticated bool
	isLoading       bool
	errMsg          string
}

// NewSessionService creates the session machine in the anonymous state.
func NewSessionService(api port.AuthAPI, tokens port.TokenStore) *SessionService {
	return &SessionService{api: api, tokens: tokens}
}

// State returns a snapshot for rendering.
func (s *SessionService) State() SessionState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return SessionState{
		User:            s.user,
		Token:           s.token,
		IsAuthenticated: s.isAuthenticated,
		IsLoading:       s.isLoading,
		Err:             s.errMsg,
	}
}

// Login exchanges credentials for a token, persists it, then fetches
// the profile. A profile failure after a successful login leaves the
// session authenticated with no user and the error recorded; the token
// is kept so the profile fetch can be retried.
func (s *SessionService) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.begin()

	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		s.fail(fmt.Sprintf("Login failed: %v", err))
		return nil, err
	}

	if err := s.tokens.Save(resp.AccessToken); err != nil {
		slog.Error("failed to persist token", "error", err)
	}
	s.setToken(resp.AccessToken)

	user, err := s.api.Me(ctx)
	if err != nil {
		// Token is valid but the profile is missing. The session stays
		// authenticated so the UI can retry the profile fetch.
		slog.Error("profile fetch failed after login", "error", err)
		s.stateMu.Lock()
		s.isAuthenticated = true
		s.isLoading = false
		s.errMsg = "Failed to fetch user profile after login."
		s.stateMu.Unlock()
		return nil, err
	}

	if Impersonated(resp.AccessToken) {
		user.IsImpersonated = true
	}

	s.stateMu.Lock()
	s.user = user
	s.isAuthenticated = true
	s.isLoading = false
	s.stateMu.Unlock()

	slog.Info("user authenticated", "user_id", user.ID)
	return user, nil
}

// SwitchUser starts an impersonated session for the target user
// (admin only). The resulting user is always flagged impersonated,
// whatever the token claims.
func (s *SessionService) SwitchUser(ctx context.Context, userID int) (*domain.User, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.begin()

	resp, err := s.api.SwitchUser(ctx, userID)
	if err != nil {
		s.fail(fmt.Sprintf("Failed to switch user: %v", err))
		return nil, err
	}

	if err := s.tokens.Save(resp.AccessToken); err != nil {
		slog.Error("failed to persist token", "error", err)
	}
	s.setToken(resp.AccessToken)

	user, err := s.api.Me(ctx)
	if err != nil {
		slog.Error("profile fetch failed after switch", "error", err)
		s.stateMu.Lock()
		s.isAuthenticated = false
		s.isLoading = false
		s.errMsg = "Failed to fetch user profile after switching accounts."
		s.stateMu.Unlock()
		return nil, err
	}

	user.IsImpersonated = true

	s.stateMu.Lock()
	s.user = user
	s.isAuthenticated = true
	s.isLoading = false
	s.stateMu.Unlock()

	slog.Info("switched user", "user_id", user.ID)
	return user, nil
}

// Logout tells the server best-effort and always clears local state.
// It never fails from the caller's perspective.
func (s *SessionService) Logout(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.begin()

	if err := s.api.Logout(ctx); err != nil {
		slog.Error("remote logout failed", "error", err)
	}

	if err := s.tokens.Clear(); err != nil {
		slog.Error("failed to clear token", "error", err)
	}

	s.stateMu.Lock()
	s.user = nil
	s.token = ""
	s.isAuthenticated = false
	s.isLoading = false
	s.errMsg = ""
	s.stateMu.Unlock()
}

// CheckAuth validates the stored token at startup. It returns false
// immediately when a check or another transition is already running.
// Without a stored token it settles anonymous without touching the
// network; a failed probe purges the token.
func (s *SessionService) CheckAuth(ctx context.Context) bool {
	if s.State().IsLoading {
		return false
	}
	if !s.checking.CompareAndSwap(false, true) {
		return false
	}
	defer s.checking.Store(false)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	stored := s.tokens.Token()
	if stored == "" {
		s.stateMu.Lock()
		s.user = nil
		s.token = ""
		s.isAuthenticated = false
		s.stateMu.Unlock()
		return false
	}
	s.setToken(stored)
	s.begin()

	user, err := s.api.Me(ctx)
	if err != nil {
		slog.Error("auth check failed", "error", err)
		if cerr := s.tokens.Clear(); cerr != nil {
			slog.Error("failed to clear token", "error", cerr)
		}
		s.stateMu.Lock()
		s.user = nil
		s.token = ""
		s.isAuthenticated = false
		s.isLoading = false
		s.errMsg = "Your session has expired. Please login again."
		s.stateMu.Unlock()
		return false
	}

	if Impersonated(stored) {
		user.IsImpersonated = true
	}

	s.stateMu.Lock()
	s.user = user
	s.isAuthenticated = true
	s.isLoading = false
	s.stateMu.Unlock()
	return true
}

// Me refreshes the cached profile. Unlike CheckAuth it never purges the
// token on failure; it is an ambient refresh, not a startup probe.
func (s *SessionService) Me(ctx context.Context) (*domain.User, error) {
	if s.State().Token == "" && s.tokens.Token() == "" {
		return nil, port.ErrNotAuthenticated
	}
	s.begin()

	user, err := s.api.Me(ctx)
	if err != nil {
		slog.Error("profile refresh failed", "error", err)
		s.fail("Failed to load user profile.")
		return nil, err
	}

	if Impersonated(s.tokens.Token()) {
		user.IsImpersonated = true
	}

	s.stateMu.Lock()
	s.user = user
	s.isAuthenticated = true
	s.isLoading = false
	s.stateMu.Unlock()
	return user, nil
}

// Users lists all accounts (admin only).
func (s *SessionService) Users(ctx context.Context) ([]domain.User, error) {
	s.begin()
	users, err := s.api.Users(ctx)
	if err != nil {
		s.fail("Failed to fetch users.")
		return nil, err
	}
	s.done()
	return users, nil
}

// Register creates an account. The error is both recorded and returned
// so registration forms can drive field-specific messaging.
func (s *SessionService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	s.begin()
	user, err := s.api.Register(ctx, req)
	if err != nil {
		s.fail(fmt.Sprintf("Registration failed: %v", err))
		return nil, err
	}
	s.done()
	return user, nil
}

// CreateUser creates an account through the admin endpoint.
func (s *SessionService) CreateUser(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	s.begin()
	user, err := s.api.CreateUser(ctx, req)
	if err != nil {
		s.fail("Failed to create user.")
		return nil, err
	}
	s.done()
	return user, nil
}

// UserByID fetches one user's profile.
func (s *SessionService) UserByID(ctx context.Context, userID int) (*domain.User, error) {
	s.begin()
	user, err := s.api.UserByID(ctx, userID)
	if err != nil {
		s.fail("Failed to fetch user information.")
		return nil, err
	}
	s.done()
	return user, nil
}

// UpdateUser edits a profile; an edit of the current user is mirrored
// into the cached session user.
func (s *SessionService) UpdateUser(ctx context.Context, userID int, update domain.UserUpdate) (*domain.User, error) {
	s.begin()
	user, err := s.api.UpdateUser(ctx, userID, update)
	if err != nil {
		s.fail("Failed to update user.")
		return nil, err
	}

	s.stateMu.Lock()
	if s.user != nil && s.user.ID == userID {
		impersonated := s.user.IsImpersonated
		s.user = user
		s.user.IsImpersonated = impersonated
	}
	s.isLoading = false
	s.stateMu.Unlock()
	return user, nil
}

// ResetError clears the recorded error. The store never auto-clears;
// banner timers live in the UI layer.
func (s *SessionService) ResetError() {
	s.stateMu.Lock()
	s.errMsg = ""
	s.stateMu.Unlock()
}

func (s *SessionService) begin() {
	s.stateMu.Lock()
	s.isLoading = true
	s.errMsg = ""
	s.stateMu.Unlock()
}

func (s *SessionService) done() {
	s.stateMu.Lock()
	s.isLoading = false
	s.stateMu.Unlock()
}

func (s *SessionService) fail(msg string) {
	s.stateMu.Lock()
	s.isLoading = false
	s.errMsg = msg
	s.stateMu.Unlock()
}

func (s *SessionService) setToken(token string) {
	s.stateMu.Lock()
	s.token = token
	s.stateMu.Unlock()
}
