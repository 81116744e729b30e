package handler

import (
	"net/http"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
)

// RegionRequest is the body of region create and update.
type RegionRequest struct {
	City      string `json:"city"`
	RegionSBM string `json:"region_sbm"`
}

// ListRegions handles GET /api/areas/{id}/regions.
func (s *Server) ListRegions(w http.ResponseWriter, r *http.Request) {
	areaID, ok := idParam(w, r)
	if !ok {
		return
	}
	regions, err := s.svc.Regions.ListByArea(r.Context(), middleware.Scope(r.Context()), areaID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[[]domain.Region]{Data: nonNil(regions)})
}

// CreateRegion handles POST /api/areas/{id}/regions.
func (s *Server) CreateRegion(w http.ResponseWriter, r *http.Request) {
	areaID, ok := idParam(w, r)
	if !ok {
		return
	}
	var body RegionRequest
	if !s.readBody(w, r, &body) {
		return
	}
	created, err := s.svc.Regions.Create(r.Context(), middleware.Scope(r.Context()),
		domain.Region{AreaID: areaID, City: body.City, RegionSBM: body.RegionSBM})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[domain.Region]{Data: created})
}

// UpdateRegion handles PUT /api/regions/{id}.
func (s *Server) UpdateRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body RegionRequest
	if !s.readBody(w, r, &body) {
		return
	}
	updated, err := s.svc.Regions.Update(r.Context(), middleware.Scope(r.Context()),
		domain.Region{ID: id, City: body.City, RegionSBM: body.RegionSBM})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[domain.Region]{Data: updated})
}

// DeleteRegion handles DELETE /api/regions/{id}.
func (s *Server) DeleteRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.svc.Regions.Delete(r.Context(), middleware.Scope(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
