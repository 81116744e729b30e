package handler

import (
	"net/http"
	"time"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

// Login handles POST /api/auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if !s.readBody(w, r, &body) {
		return
	}
	if body.Email == "" || body.Password == "" {
		requestError(w, "email and password are required")
		return
	}
	sess, err := s.svc.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[LoginResponse]{Data: LoginResponse{
		Token:     sess.Token,
		TokenType: "Bearer",
		ExpiresAt: sess.ExpiresAt,
		User:      userOut(sess.User),
	}})
}

// Me handles GET /api/auth/me and returns the authenticated user.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[domain.User]{Data: userOut(u)})
}
