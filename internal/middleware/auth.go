package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/adityardiansyah/smart-agen/internal/domain"
)

type contextKey struct{}

var userKey contextKey

// Authenticator resolves a bearer token to an active user.
// *service.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by NewAuthHandler.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey).(domain.User)
	return u, ok
}

// Scope returns the area scope of the authenticated user. Without a user
// the zero scope is returned, which allows nothing.
func Scope(ctx context.Context) domain.AreaScope {
	u, ok := UserFromContext(ctx)
	if !ok {
		return domain.AreaScope{}
	}
	return u.Scope()
}

// NewAuthHandler returns a middleware that requires an
// "Authorization: Bearer <token>" header, resolves it through auth and
// stores the user in the request context. Failures are answered with 401.
func NewAuthHandler(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="smart-agen"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					w.Header().Set("WWW-Authenticate", `Bearer realm="smart-agen", error="invalid_token"`)
					writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
					return
				}
				writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole returns a middleware that answers 403 unless the
// authenticated user has one of roles. Wire it after NewAuthHandler.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			if !slices.Contains(roles, u.Role) {
				writeError(w, http.StatusForbidden, "forbidden", "your role cannot access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// writeError writes the API's error envelope. It mirrors the handler
// package's ErrorResponse so middleware rejections look like handler ones.
func writeError(w http.ResponseWriter, status int, code, message string) {
	type detail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error detail `json:"error"`
	}{detail{Code: code, Message: message}})
}
