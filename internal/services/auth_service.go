package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"finboard/internal/core"
)

// Demo account accepted by SignIn.
const (
	DemoEmail       = "john.doe@example.com"
	DemoPassword    = "password123"
	DemoDisplayName = "John Doe"
	DefaultRole     = "user"
)

// AuthService is a mock identity provider: one fixed account, opaque tokens
// that are never verified.
type AuthService struct {
	newToken func() string
}

func NewAuthService() *AuthService {
	return &AuthService{newToken: func() string { return "tok_" + uuid.NewString() }}
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	if email != DemoEmail || password != DemoPassword {
		slog.WarnContext(ctx, "Sign-in rejected", "email", email)
		return core.Session{}, core.ErrInvalidCredentials
	}
	return core.Session{
		User:  core.User{Email: DemoEmail, DisplayName: DemoDisplayName, Role: DefaultRole},
		Token: s.newToken(),
	}, nil
}

// SignUp accepts any non-empty email. Nothing is persisted.
func (s *AuthService) SignUp(ctx context.Context, email, _ string) (core.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return core.Session{}, core.ErrEmptyEmail
	}
	slog.InfoContext(ctx, "Sign-up accepted", "email", email)
	return core.Session{
		User:  core.User{Email: email, Role: DefaultRole},
		Token: s.newToken(),
	}, nil
}
