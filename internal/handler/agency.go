package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
)

// AgencyRequest is the body of agency create and update.
type AgencyRequest struct {
	AreaID          uuid.UUID `json:"area_id"`
	RegionID        uuid.UUID `json:"region_id"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	CylinderCount   int       `json:"cylinder_count"`
	DailyAllocation int       `json:"daily_allocation"`
	IsActive        *bool     `json:"is_active,omitempty"`
}

func (b AgencyRequest) toDomain() domain.Agency {
	return domain.Agency{
		AreaID:          b.AreaID,
		RegionID:        b.RegionID,
		Name:            b.Name,
		Address:         b.Address,
		CylinderCount:   b.CylinderCount,
		DailyAllocation: b.DailyAllocation,
		IsActive:        boolOr(b.IsActive, true),
	}
}

// ListAgencies handles GET /api/agencies.
// Supports ?search=, ?area_id=, ?status=, ?page= and ?limit=.
func (s *Server) ListAgencies(w http.ResponseWriter, r *http.Request) {
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
	f := domain.AgencyFilter{Search: q.search(), AreaID: q.AreaID, Active: active, Scope: middleware.Scope(r.Context())}
	p := q.pagination()

	agencies, total, err := s.svc.Agencies.ListPaged(r.Context(), f, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.svc.Agencies.Stats(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[domain.Agency]{Data: nonNil(agencies), Pagination: pagination(p, total), Stats: stats})
}

// CreateAgency handles POST /api/agencies.
func (s *Server) CreateAgency(w http.ResponseWriter, r *http.Request) {
	var body AgencyRequest
	if !s.readBody(w, r, &body) {
		return
	}
	created, err := s.svc.Agencies.Create(r.Context(), middleware.Scope(r.Context()), body.toDomain())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[domain.Agency]{Data: created})
}

// GetAgency handles GET /api/agencies/{id}. The agency comes with its
// fleets and their drivers.
func (s *Server) GetAgency(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	tree, err := s.svc.Agencies.GetTree(r.Context(), middleware.Scope(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[AgencyTreeResponse]{Data: agencyTreeToResponse(tree, s.now())})
}

// UpdateAgency handles PUT /api/agencies/{id}.
func (s *Server) UpdateAgency(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body AgencyRequest
	if !s.readBody(w, r, &body) {
		return
	}
	agency := body.toDomain()
	agency.ID = id
	updated, err := s.svc.Agencies.Update(r.Context(), middleware.Scope(r.Context()), agency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[domain.Agency]{Data: updated})
}

// ToggleAgencyStatus handles PATCH /api/agencies/{id}/toggle-status.
func (s *Server) ToggleAgencyStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	agency, err := s.svc.Agencies.ToggleStatus(r.Context(), middleware.Scope(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[domain.Agency]{Data: agency})
}

// DeleteAgency handles DELETE /api/agencies/{id}.
func (s *Server) DeleteAgency(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.svc.Agencies.Delete(r.Context(), middleware.Scope(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
