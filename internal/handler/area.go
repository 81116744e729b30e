package handler

import (
	"net/http"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
)

// AreaRequest is the body of POST /api/areas and PUT /api/areas/{id}.
type AreaRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (b AreaRequest) toDomain() domain.Area {
	return domain.Area{Name: b.Name, Code: b.Code, IsActive: boolOr(b.IsActive, true)}
}

// ListAreas handles GET /api/areas.
// Supports ?search=, ?status=active|inactive, ?page= and ?limit=.
func (s *Server) ListAreas(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	active, err := q.active()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	f := domain.AreaFilter{Search: q.search(), Active: active, Scope: middleware.Scope(r.Context())}
	p := q.pagination()

	areas, total, err := s.svc.Areas.ListPaged(r.Context(), f, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.svc.Areas.Stats(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[domain.Area]{Data: nonNil(areas), Pagination: pagination(p, total), Stats: stats})
}

// CreateArea handles POST /api/areas.
func (s *Server) CreateArea(w http.ResponseWriter, r *http.Request) {
	var body AreaRequest
	if !s.readBody(w, r, &body) {
		return
	}
	created, err := s.svc.Areas.Create(r.Context(), middleware.Scope(r.Context()), body.toDomain())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[domain.Area]{Data: created})
}

// GetArea handles GET /api/areas/{id}.
func (s *Server) GetArea(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	area, err := s.svc.Areas.GetByID(r.Context(), middleware.Scope(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[domain.Area]{Data: area})
}

// UpdateArea handles PUT /api/areas/{id}.
func (s *Server) UpdateArea(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body AreaRequest
	if !s.readBody(w, r, &body) {
		return
	}
	area := body.toDomain()
	area.ID = id
	updated, err := s.svc.Areas.Update(r.Context(), middleware.Scope(r.Context()), area)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[domain.Area]{Data: updated})
}

// ToggleAreaStatus handles PATCH /api/areas/{id}/toggle-status.
func (s *Server) ToggleAreaStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	area, err := s.svc.Areas.ToggleStatus(r.Context(), middleware.Scope(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[domain.Area]{Data: area})
}

// DeleteArea handles DELETE /api/areas/{id}.
func (s *Server) DeleteArea(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.svc.Areas.Delete(r.Context(), middleware.Scope(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// nonNil turns a nil slice into an empty one so JSON renders [] not null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
