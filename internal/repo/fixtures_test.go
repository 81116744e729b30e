package repo_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/repo"
	"github.com/adityardiansyah/smart-agen/testutil"
)

// newTestRepos opens a transaction against the test database and returns
// every repo bound to it. The transaction is rolled back when the test ends.
func newTestRepos(t *testing.T) repo.Repos {
	t.Helper()
	return repo.NewRepos(testutil.NewTx(t))
}

// date returns midnight UTC of the given day, matching what DATE columns scan into.
func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// seq makes names unique within a test run.
var seq int

func uniq(prefix string) string {
	seq++
	return fmt.Sprintf("%s-%d-%s", prefix, seq, uuid.NewString()[:6])
}

func mustArea(t *testing.T, r repo.Repos) domain.Area {
	t.Helper()
	a, err := r.Areas.Create(context.Background(), domain.Area{
		Name:     uniq("Area"),
		Code:     strings.ToUpper(uuid.NewString()[:8]),
		IsActive: true,
	})
	require.NoError(t, err)
	return a
}

func mustRegion(t *testing.T, r repo.Repos, areaID uuid.UUID) domain.Region {
	t.Helper()
	reg, err := r.Regions.Create(context.Background(), domain.Region{
		AreaID:    areaID,
		City:      uniq("City"),
		RegionSBM: "SBM I",
	})
	require.NoError(t, err)
	return reg
}

func mustAgency(t *testing.T, r repo.Repos, area domain.Area) domain.Agency {
	t.Helper()
	reg := mustRegion(t, r, area.ID)
	ag, err := r.Agencies.Create(context.Background(), domain.Agency{
		AreaID:          area.ID,
		RegionID:        reg.ID,
		Name:            uniq("Agency"),
		Address:         "Jl. Merdeka 1",
		CylinderCount:   120,
		DailyAllocation: 40,
		IsActive:        true,
	})
	require.NoError(t, err)
	return ag
}

func fleetFixture(agencyID uuid.UUID) domain.Fleet {
	return domain.Fleet{
		AgencyID:        agencyID,
		LicensePlate:    "B " + uuid.NewString()[:6],
		ManufactureYear: 2020,
		KeurNumber:      "KR-001",
		KeurExpiry:      date(2030, 1, 1),
		StnkExpiry:      date(2030, 1, 1),
		VehicleExpiry:   date(2035, 1, 1),
		IsActive:        true,
	}
}

func mustFleet(t *testing.T, r repo.Repos, agencyID uuid.UUID) domain.Fleet {
	t.Helper()
	f, err := r.Fleets.Create(context.Background(), fleetFixture(agencyID))
	require.NoError(t, err)
	return f
}

func mustDriver(t *testing.T, r repo.Repos, fleetID uuid.UUID, active bool) domain.Driver {
	t.Helper()
	assigned := time.Now().UTC().Truncate(time.Microsecond)
	d, err := r.Drivers.Create(context.Background(), domain.Driver{
		FleetID:    fleetID,
		Name:       uniq("Driver"),
		Age:        30,
		SimExpiry:  date(2030, 6, 1),
		IsActive:   active,
		AssignedAt: &assigned,
	})
	require.NoError(t, err)
	return d
}
