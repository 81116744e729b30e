package handler

import (
	"net/http"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
)

// FleetRequest is the body of fleet create and update.
type FleetRequest struct {
	AgencyID        uuid.UUID           `json:"agency_id"`
	LicensePlate    string              `json:"license_plate"`
	ManufactureYear int                 `json:"manufacture_year"`
	KeurNumber      string              `json:"keur_number"`
	KeurExpiry      *openapi_types.Date `json:"keur_expiry"`
	StnkExpiry      *openapi_types.Date `json:"stnk_expiry"`
	VehicleExpiry   *openapi_types.Date `json:"vehicle_expiry"`
	IsActive        *bool               `json:"is_active,omitempty"`
}

func (b FleetRequest) toDomain() domain.Fleet {
	return domain.Fleet{
		AgencyID:        b.AgencyID,
		LicensePlate:    b.LicensePlate,
		ManufactureYear: b.ManufactureYear,
		KeurNumber:      b.KeurNumber,
		KeurExpiry:      dateIn(b.KeurExpiry),
		StnkExpiry:      dateIn(b.StnkExpiry),
		VehicleExpiry:   dateIn(b.VehicleExpiry),
		IsActive:        boolOr(b.IsActive, true),
	}
}

// RegisteredDriver is one driver entered in the fleet wizard.
type RegisteredDriver struct {
	Name      string              `json:"name"`
	Age       int                 `json:"age"`
	SimExpiry *openapi_types.Date `json:"sim_expiry"`
	IsActive  bool                `json:"is_active"`
}

// RegisterFleetRequest is the body of POST /api/fleets/register.
type RegisterFleetRequest struct {
	Fleet   FleetRequest       `json:"fleet"`
	Drivers []RegisteredDriver `json:"drivers"`
}

func (b RegisterFleetRequest) toDomain() domain.FleetRegistration {
	reg := domain.FleetRegistration{Fleet: b.Fleet.toDomain(), Drivers: make([]domain.Driver, len(b.Drivers))}
	for i, d := range b.Drivers {
		reg.Drivers[i] = domain.Driver{Name: d.Name, Age: d.Age, SimExpiry: dateIn(d.SimExpiry), IsActive: d.IsActive}
	}
	return reg
}

func fleetFilter(r *http.Request) (domain.FleetFilter, listQuery, error) {
	q, err := parseListQuery(r)
	if err != nil {
		return domain.FleetFilter{}, q, err
	}
	f := domain.FleetFilter{Search: q.search(), AreaID: q.AreaID, Scope: middleware.Scope(r.Context())}
	if f.Active, err = q.active(); err != nil {
		return f, q, err
	}
	if err := query(r, "agency_id", &f.AgencyID); err != nil {
		return f, q, err
	}
	if f.KeurStatus, err = expiryQuery(r, "keur_status"); err != nil {
		return f, q, err
	}
	if f.StnkStatus, err = expiryQuery(r, "stnk_status"); err != nil {
		return f, q, err
	}
	if f.VehicleAgeStatus, err = expiryQuery(r, "vehicle_age_status"); err != nil {
		return f, q, err
	}
	return f, q, nil
}

// ListFleets handles GET /api/fleets.
// Supports ?search=, ?area_id=, ?agency_id=, ?keur_status=, ?stnk_status=,
// ?vehicle_age_status=, ?status=, ?page= and ?limit=.
func (s *Server) ListFleets(w http.ResponseWriter, r *http.Request) {
	f, q, err := fleetFilter(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	p := q.pagination()

	views, total, err := s.svc.Fleets.ListPaged(r.Context(), f, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.svc.Fleets.Stats(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[FleetViewResponse]{
		Data:       fleetViewsToResponse(views, s.now()),
		Pagination: pagination(p, total),
		Stats:      stats,
	})
}

// CreateFleet handles POST /api/fleets.
func (s *Server) CreateFleet(w http.ResponseWriter, r *http.Request) {
	var body FleetRequest
	if !s.readBody(w, r, &body) {
		return
	}
	created, err := s.svc.Fleets.Create(r.Context(), middleware.Scope(r.Context()), body.toDomain())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[FleetResponse]{Data: fleetToResponse(created)})
}

// RegisterFleet handles POST /api/fleets/register: a fleet and its drivers
// saved in one go.
func (s *Server) RegisterFleet(w http.ResponseWriter, r *http.Request) {
	var body RegisterFleetRequest
	if !s.readBody(w, r, &body) {
		return
	}
	view, err := s.svc.Fleets.Register(r.Context(), middleware.Scope(r.Context()), body.toDomain())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse[FleetViewResponse]{Data: fleetViewToResponse(view, s.now())})
}

// GetFleet handles GET /api/fleets/{id}.
func (s *Server) GetFleet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	view, err := s.svc.Fleets.GetView(r.Context(), middleware.Scope(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[FleetViewResponse]{Data: fleetViewToResponse(view, s.now())})
}

// UpdateFleet handles PUT /api/fleets/{id}.
func (s *Server) UpdateFleet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body FleetRequest
	if !s.readBody(w, r, &body) {
		return
	}
	fleet := body.toDomain()
	fleet.ID = id
	updated, err := s.svc.Fleets.Update(r.Context(), middleware.Scope(r.Context()), fleet)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[FleetResponse]{Data: fleetToResponse(updated)})
}

// ToggleFleetStatus handles PATCH /api/fleets/{id}/toggle-status.
func (s *Server) ToggleFleetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	fleet, err := s.svc.Fleets.ToggleStatus(r.Context(), middleware.Scope(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[FleetResponse]{Data: fleetToResponse(fleet)})
}

// DeleteFleet handles DELETE /api/fleets/{id}.
func (s *Server) DeleteFleet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.svc.Fleets.Delete(r.Context(), middleware.Scope(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
