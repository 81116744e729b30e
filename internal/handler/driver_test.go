package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
	"github.com/adityardiansyah/smart-agen/internal/handler"
)

func TestListDrivers_200_SimStatusFilter(t *testing.T) {
	fleetID := uuid.New()
	var got domain.DriverFilter
	svc := &mockDriverServicer{
		listPaged: func(_ context.Context, f domain.DriverFilter, _ domain.PaginationParams) ([]domain.Driver, int, error) {
			got = f
			return []domain.Driver{{ID: uuid.New(), Name: "Budi", SimExpiry: date(2025, 3, 1)}}, 1, nil
		},
		stats: func(context.Context, domain.DriverFilter) (domain.DriverStats, error) {
			return domain.DriverStats{Sim: domain.StatusTally{Expired: 1}}, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Drivers: svc}, &superAdmin), http.MethodGet,
		"/api/drivers?sim_status=expired&status=active&fleet_id="+fleetID.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.SimStatus)
	assert.Equal(t, expiry.StatusExpired, *got.SimStatus)
	require.NotNil(t, got.Active)
	assert.True(t, *got.Active)
	require.NotNil(t, got.FleetID)
	assert.Equal(t, fleetID, *got.FleetID)

	resp := decode[listWithStats[handler.DriverResponse, domain.DriverStats]](t, rec)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, expiry.StatusExpired, resp.Data[0].SimStatus)
	assert.Equal(t, 1, resp.Stats.Sim.Expired)
}

func TestCreateDriver_201_DefaultsInactive(t *testing.T) {
	fleetID := uuid.New()
	var got domain.Driver
	svc := &mockDriverServicer{
		create: func(_ context.Context, _ domain.AreaScope, d domain.Driver) (domain.Driver, error) {
			got = d
			d.ID = uuid.New()
			return d, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Drivers: svc}, &superAdmin), http.MethodPost, "/api/drivers",
		jsonBody(t, map[string]any{"fleet_id": fleetID, "name": "Budi", "age": 30, "sim_expiry": "2026-03-15"}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, fleetID, got.FleetID)
	assert.False(t, got.IsActive)
	assert.Equal(t, *date(2026, 3, 15), *got.SimExpiry)
	assert.Contains(t, rec.Body.String(), `"sim_expiry":"2026-03-15"`)
}

func TestToggleDriverStatus_409_FleetHasActiveDriver(t *testing.T) {
	svc := &mockDriverServicer{
		toggleStatus: func(context.Context, domain.AreaScope, uuid.UUID) (domain.Driver, error) {
			return domain.Driver{}, domain.ErrConflict
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Drivers: svc}, &superAdmin), http.MethodPatch,
		"/api/drivers/"+uuid.NewString()+"/toggle-status", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListDriverCandidates_200(t *testing.T) {
	fleetID := uuid.New()
	svc := &mockDriverServicer{
		candidates: func(_ context.Context, _ domain.AreaScope, id uuid.UUID) ([]domain.Driver, error) {
			assert.Equal(t, fleetID, id)
			return nil, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Drivers: svc}, &superAdmin), http.MethodGet,
		"/api/fleets/"+fleetID.String()+"/driver-candidates", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}
