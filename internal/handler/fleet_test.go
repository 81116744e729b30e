package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
	"github.com/adityardiansyah/smart-agen/internal/handler"
)

func fleetFixture() domain.Fleet {
	return domain.Fleet{
		ID:              uuid.New(),
		AgencyID:        uuid.New(),
		AgencyName:      "PT Gas Makmur",
		AreaID:          uuid.New(),
		LicensePlate:    "L 1234 AB",
		ManufactureYear: 2020,
		KeurNumber:      "KR-001",
		KeurExpiry:      date(2025, 4, 1),
		StnkExpiry:      date(2026, 1, 1),
		VehicleExpiry:   date(2030, 1, 1),
		KeurDocument:    "documents/keur/a.pdf",
		IsActive:        true,
	}
}

func fleetViewFixture() domain.FleetView {
	f := fleetFixture()
	active := domain.Driver{ID: uuid.New(), FleetID: f.ID, Name: "Budi", Age: 40, SimExpiry: date(2025, 3, 20), IsActive: true, AssignedAt: &fixedNow}
	old := domain.Driver{ID: uuid.New(), FleetID: f.ID, Name: "Agus", Age: 50, SimExpiry: date(2025, 1, 1), DeactivatedAt: &fixedNow}
	return domain.FleetView{
		Fleet:    f,
		Statuses: f.Statuses(fixedNow),
		Drivers:  domain.FleetDrivers{Active: &active, History: []domain.Driver{old}},
	}
}

// ---- GET /api/fleets -------------------------------------------------------

func TestListFleets_200_PassesStatusFilters(t *testing.T) {
	areaID := uuid.New()
	var got domain.FleetFilter
	svc := &mockFleetServicer{
		listPaged: func(_ context.Context, f domain.FleetFilter, _ domain.PaginationParams) ([]domain.FleetView, int, error) {
			got = f
			return []domain.FleetView{fleetViewFixture()}, 1, nil
		},
		stats: func(context.Context, domain.FleetFilter) (domain.FleetStats, error) {
			return domain.FleetStats{StatusCounts: domain.StatusCounts{Total: 1, Active: 1}}, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Fleets: svc}, &superAdmin), http.MethodGet,
		"/api/fleets?keur_status=near_expiry&stnk_status=not_expired&vehicle_age_status=expired&area_id="+areaID.String()+"&search=L%201234", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.KeurStatus)
	assert.Equal(t, expiry.StatusNearExpiry, *got.KeurStatus)
	require.NotNil(t, got.StnkStatus)
	assert.Equal(t, expiry.StatusNotExpired, *got.StnkStatus)
	require.NotNil(t, got.VehicleAgeStatus)
	assert.Equal(t, expiry.StatusExpired, *got.VehicleAgeStatus)
	require.NotNil(t, got.AreaID)
	assert.Equal(t, areaID, *got.AreaID)
	assert.Equal(t, "L 1234", got.Search)

	resp := decode[listWithStats[handler.FleetViewResponse, domain.FleetStats]](t, rec)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.Stats.Total)
}

func TestListFleets_400_UnknownStatus(t *testing.T) {
	rec := serve(newHTTPHandler(handler.Services{Fleets: &mockFleetServicer{}}, &superAdmin), http.MethodGet,
		"/api/fleets?keur_status=soon", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- GET /api/fleets/{id} --------------------------------------------------

func TestGetFleet_200_ViewShape(t *testing.T) {
	view := fleetViewFixture()
	svc := &mockFleetServicer{
		getView: func(_ context.Context, _ domain.AreaScope, id uuid.UUID) (domain.FleetView, error) {
			assert.Equal(t, view.Fleet.ID, id)
			return view, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Fleets: svc}, &superAdmin), http.MethodGet, "/api/fleets/"+view.Fleet.ID.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	raw := rec.Body.String()
	assert.Contains(t, raw, `"keur_expiry":"2025-04-01"`)
	assert.Contains(t, raw, `"stnk_document":null`)
	assert.Contains(t, raw, `"keur_status":"near_expiry"`)

	got := decode[handler.DataResponse[handler.FleetViewResponse]](t, rec).Data
	assert.Equal(t, "L 1234 AB", got.LicensePlate)
	assert.Equal(t, expiry.StatusNearExpiry, got.Statuses.Keur)
	assert.Equal(t, expiry.StatusNotExpired, got.Statuses.Stnk)
	require.NotNil(t, got.Drivers.Active)
	assert.Equal(t, "Budi", got.Drivers.Active.Name)
	assert.Equal(t, expiry.StatusNearExpiry, got.Drivers.Active.SimStatus)
	require.Len(t, got.Drivers.History, 1)
	assert.Equal(t, expiry.StatusExpired, got.Drivers.History[0].SimStatus)
}

func TestGetFleet_200_NoActiveDriverIsNull(t *testing.T) {
	view := fleetViewFixture()
	view.Drivers = domain.FleetDrivers{History: []domain.Driver{}}
	svc := &mockFleetServicer{
		getView: func(context.Context, domain.AreaScope, uuid.UUID) (domain.FleetView, error) { return view, nil },
	}

	rec := serve(newHTTPHandler(handler.Services{Fleets: svc}, &superAdmin), http.MethodGet, "/api/fleets/"+view.Fleet.ID.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_driver":null`)
	assert.Contains(t, rec.Body.String(), `"history":[]`)
}

// ---- POST /api/fleets ------------------------------------------------------

func TestCreateFleet_201_ParsesDates(t *testing.T) {
	agencyID := uuid.New()
	var got domain.Fleet
	svc := &mockFleetServicer{
		create: func(_ context.Context, _ domain.AreaScope, f domain.Fleet) (domain.Fleet, error) {
			got = f
			f.ID = uuid.New()
			return f, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Fleets: svc}, &superAdmin), http.MethodPost, "/api/fleets", jsonBody(t, map[string]any{
		"agency_id":        agencyID,
		"license_plate":    "W 1 X",
		"manufacture_year": 2021,
		"keur_number":      "K1",
		"keur_expiry":      "2025-06-30",
		"stnk_expiry":      "2026-01-31",
		"vehicle_expiry":   "2031-12-31",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, agencyID, got.AgencyID)
	require.NotNil(t, got.KeurExpiry)
	assert.Equal(t, *date(2025, 6, 30), *got.KeurExpiry)
	assert.Equal(t, *date(2031, 12, 31), *got.VehicleExpiry)
	assert.True(t, got.IsActive)
}

func TestCreateFleet_422_MalformedDate(t *testing.T) {
	rec := serve(newHTTPHandler(handler.Services{Fleets: &mockFleetServicer{}}, &superAdmin), http.MethodPost, "/api/fleets",
		jsonBody(t, map[string]any{"license_plate": "W 1 X", "keur_expiry": "30/06/2025"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateFleet_409_DuplicatePlate(t *testing.T) {
	svc := &mockFleetServicer{
		create: func(context.Context, domain.AreaScope, domain.Fleet) (domain.Fleet, error) {
			return domain.Fleet{}, fmt.Errorf("service.FleetService.Create: %w: license plate already registered", domain.ErrConflict)
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Fleets: svc}, &superAdmin), http.MethodPost, "/api/fleets",
		jsonBody(t, map[string]any{"license_plate": "W 1 X"}))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "license plate already registered", decode[handler.ErrorResponse](t, rec).Error.Message)
}

// ---- POST /api/fleets/register ---------------------------------------------

func TestRegisterFleet_201(t *testing.T) {
	var got domain.FleetRegistration
	svc := &mockFleetServicer{
		register: func(_ context.Context, _ domain.AreaScope, reg domain.FleetRegistration) (domain.FleetView, error) {
			got = reg
			return fleetViewFixture(), nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Fleets: svc}, &superAdmin), http.MethodPost, "/api/fleets/register", jsonBody(t, map[string]any{
		"fleet": map[string]any{"agency_id": uuid.New(), "license_plate": "W 1 X", "keur_expiry": "2025-06-30"},
		"drivers": []map[string]any{
			{"name": "Budi", "age": 30, "sim_expiry": "2026-01-01"},
			{"name": "Agus", "age": 31, "sim_expiry": "2026-02-01", "is_active": true},
		},
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "W 1 X", got.Fleet.LicensePlate)
	require.Len(t, got.Drivers, 2)
	assert.False(t, got.Drivers[0].IsActive)
	assert.True(t, got.Drivers[1].IsActive)
	assert.Equal(t, *date(2026, 2, 1), *got.Drivers[1].SimExpiry)
}

// ---- DELETE /api/fleets/{id} -----------------------------------------------

func TestDeleteFleet_409_HasDrivers(t *testing.T) {
	svc := &mockFleetServicer{
		delete: func(context.Context, domain.AreaScope, uuid.UUID) error {
			return fmt.Errorf("%w: fleet still has drivers", domain.ErrConflict)
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Fleets: svc}, &superAdmin), http.MethodDelete, "/api/fleets/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// ---- agencies --------------------------------------------------------------

func TestGetAgency_200_TreeWithFleets(t *testing.T) {
	view := fleetViewFixture()
	agency := domain.Agency{ID: view.Fleet.AgencyID, Name: "PT Gas Makmur", CylinderCount: 500}
	svc := &mockAgencyServicer{
		getTree: func(context.Context, domain.AreaScope, uuid.UUID) (domain.AgencyTree, error) {
			return domain.AgencyTree{Agency: agency, Fleets: []domain.FleetView{view}}, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Agencies: svc}, &superAdmin), http.MethodGet, "/api/agencies/"+agency.ID.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[handler.DataResponse[handler.AgencyTreeResponse]](t, rec).Data
	assert.Equal(t, "PT Gas Makmur", got.Name)
	assert.Equal(t, 500, got.CylinderCount)
	require.Len(t, got.Fleets, 1)
	assert.Equal(t, view.Fleet.ID, got.Fleets[0].ID)
}

func TestCreateAgency_201(t *testing.T) {
	areaID, regionID := uuid.New(), uuid.New()
	var got domain.Agency
	svc := &mockAgencyServicer{
		create: func(_ context.Context, _ domain.AreaScope, a domain.Agency) (domain.Agency, error) {
			got = a
			return a, nil
		},
	}

	rec := serve(newHTTPHandler(handler.Services{Agencies: svc}, &superAdmin), http.MethodPost, "/api/agencies", jsonBody(t, map[string]any{
		"area_id": areaID, "region_id": regionID, "name": "PT A", "address": "Jl. 1",
		"cylinder_count": 10, "daily_allocation": 3,
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, areaID, got.AreaID)
	assert.Equal(t, regionID, got.RegionID)
	assert.Equal(t, 3, got.DailyAllocation)
}

func TestListAgencies_200_AreaFilter(t *testing.T) {
	areaID := uuid.New()
	var got domain.AgencyFilter
	svc := &mockAgencyServicer{
		listPaged: func(_ context.Context, f domain.AgencyFilter, _ domain.PaginationParams) ([]domain.Agency, int, error) {
			got = f
			return nil, 0, nil
		},
		stats: func(context.Context, domain.AgencyFilter) (domain.StatusCounts, error) { return domain.StatusCounts{}, nil },
	}

	rec := serve(newHTTPHandler(handler.Services{Agencies: svc}, &superAdmin), http.MethodGet, "/api/agencies?area_id="+areaID.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.AreaID)
	assert.Equal(t, areaID, *got.AreaID)
}
