package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
)

// UserRequest is the body of user create and update. Password may be left
// empty on update to keep the current one.
type UserRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password,omitempty"`
	Role     domain.Role `json:"role"`
	AreaIDs  []uuid.UUID `json:"area_ids"`
	IsActive *bool       `json:"is_active,omitempty"`
}

func (b UserRequest) toDomain() domain.User {
	return domain.User{
		Name:     b.Name,
		Email:    b.Email,
		Role:     b.Role,
		AreaIDs:  b.AreaIDs,
		IsActive: boolOr(b.IsActive, true),
	}
}

// userOut normalises a user for the wire: area_ids is never null.
func userOut(u domain.User) domain.User {
	u.AreaIDs = nonNil(u.AreaIDs)
	return u
}

// actor returns the authenticated caller or answers 401.
func (s *Server) actor(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrUnauthorized)
		return domain.User{}, false
	}
	return u, true
}

// ListUsers handles GET /api/users.
// Supports ?search=, ?role=, ?status=, ?page= and ?limit=.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	q, err := parseListQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	f := domain.UserFilter{Search: q.search()}
	if f.Active, err = q.active(); err != nil {
		badRequest(w, err.Error())
		return
	}
	var role *string
	if err := query(r, "role", &role); err != nil {
		badRequest(w, err.Error())
		return
	}
	if role != nil && *role != "" {
		rl := domain.Role(*role)
		if !rl.Valid() {
			badRequest(w, "invalid role "+*role)
			return
		}
		f.Role = &rl
	}
	p := q.pagination()

	users, total, err := s.svc.Users.ListPaged(r.Context(), actor, f, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = userOut(u)
	}
	writeJSON(w, http.StatusOK, ListResponse[domain.User]{Data: out, Pagination: pagination(p, total)})
}

// CreateUser handles POST /api/users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	var body UserRequest
	if !s.readBody(w, r, &body) {
		return
	}
	created, err := s.svc.Users.Create(r.Context(), actor, body.toDomain(), body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[domain.User]{Data: userOut(created)})
}

// GetUser handles GET /api/users/{id}.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	u, err := s.svc.Users.GetByID(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[domain.User]{Data: userOut(u)})
}

// UpdateUser handles PUT /api/users/{id}.
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body UserRequest
	if !s.readBody(w, r, &body) {
		return
	}
	user := body.toDomain()
	user.ID = id
	updated, err := s.svc.Users.Update(r.Context(), actor, user, body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[domain.User]{Data: userOut(updated)})
}

// ToggleUserStatus handles PATCH /api/users/{id}/toggle-status.
func (s *Server) ToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	u, err := s.svc.Users.ToggleStatus(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[domain.User]{Data: userOut(u)})
}

// DeleteUser handles DELETE /api/users/{id}.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.svc.Users.Delete(r.Context(), actor, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
