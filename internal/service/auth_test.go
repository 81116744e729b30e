package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityardiansyah/smart-agen/internal/auth"
	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/service"
)

func storedUser(t *testing.T, password string, active bool) domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return domain.User{ID: uuid.New(), Name: "Sari", Email: "sari@example.com", PasswordHash: hash, Role: domain.RoleStaff, IsActive: active}
}

func usersByEmail(u domain.User) *mockUserRepo {
	return &mockUserRepo{
		getByEmail: func(_ context.Context, email string) (domain.User, error) {
			if email != u.Email {
				return domain.User{}, domain.ErrNotFound
			}
			return u, nil
		},
		getByID: func(_ context.Context, id uuid.UUID) (domain.User, error) {
			if id != u.ID {
				return domain.User{}, domain.ErrNotFound
			}
			return u, nil
		},
	}
}

func newTokens() *auth.TokenService {
	return auth.NewTokenService("test-secret", time.Hour).WithClock(fixedClock)
}

func TestAuthService_Login_IssuesToken(t *testing.T) {
	u := storedUser(t, "rahasia123", true)
	tokens := newTokens()
	svc := service.NewAuthService(usersByEmail(u), tokens, discardLogger())

	got, err := svc.Login(context.Background(), " sari@example.com ", "rahasia123")

	require.NoError(t, err)
	assert.Equal(t, u.ID, got.User.ID)
	assert.Equal(t, fixedNow.Add(time.Hour), got.ExpiresAt)
	id, err := tokens.Validate(got.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestAuthService_Login_Rejected(t *testing.T) {
	active := storedUser(t, "rahasia123", true)
	inactive := storedUser(t, "rahasia123", false)
	cases := []struct {
		name     string
		user     domain.User
		email    string
		password string
	}{
		{"unknown email", active, "nobody@example.com", "rahasia123"},
		{"wrong password", active, active.Email, "salah-sandi"},
		{"inactive account", inactive, inactive.Email, "rahasia123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := service.NewAuthService(usersByEmail(tc.user), newTokens(), discardLogger())
			_, err := svc.Login(context.Background(), tc.email, tc.password)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	u := storedUser(t, "rahasia123", true)
	tokens := newTokens()
	token, _, err := tokens.Issue(u)
	require.NoError(t, err)

	got, err := service.NewAuthService(usersByEmail(u), tokens, discardLogger()).Authenticate(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
}

func TestAuthService_Authenticate_DeactivatedAfterIssue(t *testing.T) {
	u := storedUser(t, "rahasia123", true)
	tokens := newTokens()
	token, _, err := tokens.Issue(u)
	require.NoError(t, err)
	u.IsActive = false

	_, err = service.NewAuthService(usersByEmail(u), tokens, discardLogger()).Authenticate(context.Background(), token)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_Authenticate_DeletedUser(t *testing.T) {
	u := storedUser(t, "rahasia123", true)
	tokens := newTokens()
	token, _, err := tokens.Issue(u)
	require.NoError(t, err)

	_, err = service.NewAuthService(usersByEmail(domain.User{ID: uuid.New()}), tokens, discardLogger()).Authenticate(context.Background(), token)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_Authenticate_GarbageToken(t *testing.T) {
	svc := service.NewAuthService(&mockUserRepo{}, newTokens(), discardLogger())

	_, err := svc.Authenticate(context.Background(), "not-a-jwt")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
