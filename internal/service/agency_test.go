package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
	"github.com/adityardiansyah/smart-agen/internal/service"
)

type agencyFixture struct {
	area, region uuid.UUID
	agencies     *mockAgencyRepo
	regions      *mockRegionRepo
	fleets       *mockFleetRepo
	drivers      *mockDriverRepo
}

func newAgencyFixture() *agencyFixture {
	f := &agencyFixture{area: uuid.New(), region: uuid.New()}
	f.agencies = &mockAgencyRepo{
		create: func(_ context.Context, a domain.Agency) (domain.Agency, error) { return a, nil },
		update: func(_ context.Context, a domain.Agency) (domain.Agency, error) { return a, nil },
		getByID: func(_ context.Context, id uuid.UUID) (domain.Agency, error) {
			return domain.Agency{ID: id, AreaID: f.area, RegionID: f.region, Name: "Agen Maju", Address: "Jl. Merdeka 1", IsActive: true}, nil
		},
	}
	f.regions = &mockRegionRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Region, error) {
			if id != f.region {
				return domain.Region{}, domain.ErrNotFound
			}
			return domain.Region{ID: id, AreaID: f.area}, nil
		},
	}
	f.fleets = &mockFleetRepo{}
	f.drivers = &mockDriverRepo{}
	return f
}

func (f *agencyFixture) service() *service.AgencyService {
	return service.NewAgencyService(f.agencies, f.regions, f.fleets, f.drivers).WithClock(fixedClock)
}

func (f *agencyFixture) agency() domain.Agency {
	return domain.Agency{AreaID: f.area, RegionID: f.region, Name: " Agen Maju ", Address: "Jl. Merdeka 1", CylinderCount: 200, DailyAllocation: 50}
}

func TestAgencyService_Create(t *testing.T) {
	f := newAgencyFixture()

	got, err := f.service().Create(context.Background(), allAreas, f.agency())

	require.NoError(t, err)
	assert.Equal(t, "Agen Maju", got.Name)
}

func TestAgencyService_Create_RegionChecks(t *testing.T) {
	f := newAgencyFixture()

	a := f.agency()
	a.RegionID = uuid.New()
	_, err := f.service().Create(context.Background(), allAreas, a)
	assert.ErrorIs(t, err, domain.ErrValidation, "unknown region")

	f.regions.getByID = func(_ context.Context, id uuid.UUID) (domain.Region, error) {
		return domain.Region{ID: id, AreaID: uuid.New()}, nil
	}
	_, err = f.service().Create(context.Background(), allAreas, f.agency())
	assert.ErrorIs(t, err, domain.ErrValidation, "region of another area")
}

func TestAgencyService_Create_Validation(t *testing.T) {
	f := newAgencyFixture()
	for name, mutate := range map[string]func(a *domain.Agency){
		"missing address":     func(a *domain.Agency) { a.Address = "" },
		"negative cylinders":  func(a *domain.Agency) { a.CylinderCount = -1 },
		"negative allocation": func(a *domain.Agency) { a.DailyAllocation = -5 },
		"missing region":      func(a *domain.Agency) { a.RegionID = uuid.Nil },
	} {
		t.Run(name, func(t *testing.T) {
			a := f.agency()
			mutate(&a)
			_, err := f.service().Create(context.Background(), allAreas, a)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestAgencyService_Create_OutsideScope(t *testing.T) {
	f := newAgencyFixture()

	_, err := f.service().Create(context.Background(), domain.AreaScope{AreaIDs: []uuid.UUID{uuid.New()}}, f.agency())

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAgencyService_GetTree(t *testing.T) {
	f := newAgencyFixture()
	fleet := domain.Fleet{ID: uuid.New(), AreaID: f.area, ManufactureYear: 2010, KeurExpiry: simIn(10)}
	f.fleets.list = func(_ context.Context, ff domain.FleetFilter) ([]domain.Fleet, error) {
		require.NotNil(t, ff.AgencyID)
		return []domain.Fleet{fleet}, nil
	}
	driver := domain.Driver{ID: uuid.New(), FleetID: fleet.ID, IsActive: true}
	f.drivers.listByFleets = func(_ context.Context, ids []uuid.UUID) ([]domain.Driver, error) {
		assert.Equal(t, []uuid.UUID{fleet.ID}, ids)
		return []domain.Driver{driver}, nil
	}

	got, err := f.service().GetTree(context.Background(), allAreas, uuid.New())

	require.NoError(t, err)
	require.Len(t, got.Fleets, 1)
	assert.Equal(t, expiry.StatusNearExpiry, got.Fleets[0].Statuses.Keur)
	assert.Equal(t, expiry.StatusExpired, got.Fleets[0].Statuses.VehicleAge)
	require.NotNil(t, got.Fleets[0].Drivers.Active)
	assert.Equal(t, driver.ID, got.Fleets[0].Drivers.Active.ID)
}

func TestAgencyService_Delete_WithFleets(t *testing.T) {
	f := newAgencyFixture()
	f.agencies.countFleets = func(_ context.Context, _ uuid.UUID) (int, error) { return 1, nil }

	err := f.service().Delete(context.Background(), allAreas, uuid.New())

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAgencyService_ToggleStatus(t *testing.T) {
	f := newAgencyFixture()

	got, err := f.service().ToggleStatus(context.Background(), allAreas, uuid.New())

	require.NoError(t, err)
	assert.False(t, got.IsActive)
}
