package handler

import (
	"net/http"
	"time"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
)

// GetDashboard handles GET /api/areas/{id}/dashboard.
func (s *Server) GetDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Dashboard.Get(r.Context(), middleware.Scope(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[DashboardResponse]{Data: dashboardToResponse(d, s.now())})
}

func dashboardToResponse(d domain.Dashboard, now time.Time) DashboardResponse {
	out := DashboardResponse{Area: d.Area, Summary: d.Summary, Agencies: make([]AgencyTreeResponse, len(d.Agencies))}
	for i, t := range d.Agencies {
		out.Agencies[i] = agencyTreeToResponse(t, now)
	}
	return out
}
