package handler

import (
	"net/http"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
)

// DriverRequest is the body of driver create and update.
type DriverRequest struct {
	FleetID   uuid.UUID           `json:"fleet_id"`
	Name      string              `json:"name"`
	Age       int                 `json:"age"`
	SimExpiry *openapi_types.Date `json:"sim_expiry"`
	IsActive  *bool               `json:"is_active,omitempty"`
}

func (b DriverRequest) toDomain() domain.Driver {
	return domain.Driver{
		FleetID:   b.FleetID,
		Name:      b.Name,
		Age:       b.Age,
		SimExpiry: dateIn(b.SimExpiry),
		IsActive:  boolOr(b.IsActive, false),
	}
}

func (s *Server) driversToResponse(drivers []domain.Driver) []DriverResponse {
	now := s.now()
	out := make([]DriverResponse, len(drivers))
	for i, d := range drivers {
		out[i] = driverToResponse(d, now)
	}
	return out
}

// ListDrivers handles GET /api/drivers.
// Supports ?search=, ?area_id=, ?fleet_id=, ?sim_status=, ?status=, ?page=
// and ?limit=.
func (s *Server) ListDrivers(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	f := domain.DriverFilter{Search: q.search(), AreaID: q.AreaID, Scope: middleware.Scope(r.Context())}
	if f.Active, err = q.active(); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := query(r, "fleet_id", &f.FleetID); err != nil {
		badRequest(w, err.Error())
		return
	}
	if f.SimStatus, err = expiryQuery(r, "sim_status"); err != nil {
		badRequest(w, err.Error())
		return
	}
	p := q.pagination()

	drivers, total, err := s.svc.Drivers.ListPaged(r.Context(), f, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.svc.Drivers.Stats(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[DriverResponse]{
		Data:       s.driversToResponse(drivers),
		Pagination: pagination(p, total),
		Stats:      stats,
	})
}

// CreateDriver handles POST /api/drivers.
func (s *Server) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var body DriverRequest
	if !s.readBody(w, r, &body) {
		return
	}
	created, err := s.svc.Drivers.Create(r.Context(), middleware.Scope(r.Context()), body.toDomain())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[DriverResponse]{Data: driverToResponse(created, s.now())})
}

// GetDriver handles GET /api/drivers/{id}.
func (s *Server) GetDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	driver, err := s.svc.Drivers.GetByID(r.Context(), middleware.Scope(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[DriverResponse]{Data: driverToResponse(driver, s.now())})
}

// UpdateDriver handles PUT /api/drivers/{id}.
func (s *Server) UpdateDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body DriverRequest
	if !s.readBody(w, r, &body) {
		return
	}
	driver := body.toDomain()
	driver.ID = id
	updated, err := s.svc.Drivers.Update(r.Context(), middleware.Scope(r.Context()), driver)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[DriverResponse]{Data: driverToResponse(updated, s.now())})
}

// ToggleDriverStatus handles PATCH /api/drivers/{id}/toggle-status.
func (s *Server) ToggleDriverStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	driver, err := s.svc.Drivers.ToggleStatus(r.Context(), middleware.Scope(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[DriverResponse]{Data: driverToResponse(driver, s.now())})
}

// DeleteDriver handles DELETE /api/drivers/{id}.
func (s *Server) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.svc.Drivers.Delete(r.Context(), middleware.Scope(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDriverCandidates handles GET /api/fleets/{id}/driver-candidates:
// inactive drivers in the fleet's area that can be reassigned to it.
func (s *Server) ListDriverCandidates(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	drivers, err := s.svc.Drivers.Candidates(r.Context(), middleware.Scope(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[[]DriverResponse]{Data: s.driversToResponse(drivers)})
}
