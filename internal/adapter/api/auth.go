package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kiwiq/alpha-cli/internal/domain"
)

// AuthService wraps the /auth endpoints. Pure translation, no logic.
type AuthService struct {
	client *Client
}

// NewAuthService creates the auth endpoint wrapper.
func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

// Login posts form-encoded credentials.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	form := url.Values{
		"username": {creds.Username},
		"password": {creds.Password},
	}
	var resp domain.AuthResponse
	if err := s.client.postForm(ctx, "/auth/login", form, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

// Logout invalidates the session server-side.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.client.post(ctx, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// SwitchUser starts an impersonated session for the target user.
func (s *AuthService) SwitchUser(ctx context.Context, userID int) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := s.client.post(ctx, fmt.Sprintf("/auth/switch/%d", userID), nil, &resp); err != nil {
		return nil, fmt.Errorf("switch user: %w", err)
	}
	return &resp, nil
}

// Me fetches the current user's profile.
func (s *AuthService) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := s.client.get(ctx, "/auth/me", &user); err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return &user, nil
}

// Users lists all users (admin only).
func (s *AuthService) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.client.get(ctx, "/auth/users/", &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Register creates an account through the public endpoint.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	var user domain.User
	if err := s.client.post(ctx, "/auth/users/register", req, &user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &user, nil
}

// CreateUser creates an account through the admin endpoint.
func (s *AuthService) CreateUser(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	var user domain.User
	if err := s.client.post(ctx, "/auth/users/", req, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// UserByID fetches one user's profile.
func (s *AuthService) UserByID(ctx context.Context, userID int) (*domain.User, error) {
	var user domain.User
	if err := s.client.get(ctx, fmt.Sprintf("/auth/users/%d", userID), &user); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdateUser updates a user's mutable profile fields.
func (s *AuthService) UpdateUser(ctx context.Context, userID int, update domain.UserUpdate) (*domain.User, error) {
	var user domain.User
	if err := s.client.put(ctx, fmt.Sprintf("/auth/users/%d", userID), update, &user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}
