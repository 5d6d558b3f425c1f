package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Service struct {
	Store    UserStore
	Secret   string
	TokenTTL time.Duration
}

func NewService(store UserStore, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TokenTTL: ttl}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
}

// Login verifies the password and issues a bearer token. Unknown users and
// wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.Store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, Claims{
		UserID:   user.ID,
		TenantID: user.TenantID,
		RoleID:   user.RoleID,
		RoleName: user.RoleName,
	}, s.TokenTTL)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last login failed", "userId", user.ID, "err", err)
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.TokenTTL),
		UserID:    user.ID,
		Role:      user.RoleName,
	}, nil
}
