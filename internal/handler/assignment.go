package handler

import (
	"net/http"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
)

// AssignDriverRequest is the body of POST /api/fleets/{id}/assign-driver.
// Mode "new" uses Name, Age and SimExpiry; mode "existing" uses DriverID.
type AssignDriverRequest struct {
	Mode      string              `json:"mode"`
	DriverID  *uuid.UUID          `json:"driver_id,omitempty"`
	Name      string              `json:"name,omitempty"`
	Age       int                 `json:"age,omitempty"`
	SimExpiry *openapi_types.Date `json:"sim_expiry,omitempty"`
}

func (b AssignDriverRequest) toDomain() domain.AssignDriverInput {
	in := domain.AssignDriverInput{
		Mode:      domain.AssignMode(b.Mode),
		Name:      b.Name,
		Age:       b.Age,
		SimExpiry: dateIn(b.SimExpiry),
	}
	if b.DriverID != nil {
		in.DriverID = *b.DriverID
	}
	return in
}

// AssignDriver handles POST /api/fleets/{id}/assign-driver. The fleet's
// current driver moves to history and the response carries the new set.
func (s *Server) AssignDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body AssignDriverRequest
	if !s.readBody(w, r, &body) {
		return
	}
	drivers, err := s.svc.Assignments.AssignDriver(r.Context(), middleware.Scope(r.Context()), id, body.toDomain())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[FleetDriversResponse]{Data: fleetDriversToResponse(drivers, s.now())})
}
