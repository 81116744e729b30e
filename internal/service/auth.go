package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/auth"
	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

// Tokens issues and validates access tokens. *auth.TokenService satisfies it.
type Tokens interface {
	Issue(user domain.User) (string, time.Time, error)
	Validate(raw string) (uuid.UUID, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// AuthService logs users in and resolves bearer tokens back to users.
type AuthService struct {
	users  repo.UserRepo
	tokens Tokens
	log    *slog.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users repo.UserRepo, tokens Tokens, log *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

var errBadCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

// Login checks credentials and issues a token. Unknown email, wrong
// password and inactive account all return domain.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", errBadCredentials)
	}
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		s.log.InfoContext(ctx, "login rejected", "user_id", user.ID, "reason", "password")
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", errBadCredentials)
	}
	if !user.IsActive {
		s.log.InfoContext(ctx, "login rejected", "user_id", user.ID, "reason", "inactive")
		return Session{}, fmt.Errorf("service.AuthService.Login: %w: account is inactive", domain.ErrUnauthorized)
	}

	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp, User: user}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	id, err := s.tokens.Validate(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w", err)
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w: account no longer exists", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w", err)
	}
	if !user.IsActive {
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w: account is inactive", domain.ErrUnauthorized)
	}
	return user, nil
}
