package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityardiansyah/smart-agen/internal/cache"
	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
)

func newCache(t *testing.T, ttl time.Duration) (*cache.Dashboard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewDashboard(client, ttl), mr
}

func sampleDashboard(areaID uuid.UUID) domain.Dashboard {
	keur := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	return domain.Dashboard{
		Area:    domain.Area{ID: areaID, Name: "Jawa Barat", Code: "JB", IsActive: true},
		Summary: domain.AreaSummary{AgencyCount: 1, FleetCount: 1, CylinderTotal: 120},
		Agencies: []domain.AgencyTree{{
			Agency: domain.Agency{ID: uuid.New(), AreaID: areaID, Name: "PT Maju"},
			Fleets: []domain.FleetView{{
				Fleet:    domain.Fleet{ID: uuid.New(), LicensePlate: "D 1234 AB", KeurExpiry: &keur},
				Statuses: domain.FleetStatuses{Keur: expiry.StatusNearExpiry},
				Drivers:  domain.FleetDrivers{History: []domain.Driver{}},
			}},
		}},
	}
}

func TestDashboard_SetThenGet(t *testing.T) {
	c, _ := newCache(t, time.Minute)
	areaID := uuid.New()
	want := sampleDashboard(areaID)

	require.NoError(t, c.Set(context.Background(), areaID, want))
	got, ok, err := c.Get(context.Background(), areaID)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Area.Name, got.Area.Name)
	assert.Equal(t, want.Summary, got.Summary)
	require.Len(t, got.Agencies, 1)
	fv := got.Agencies[0].Fleets[0]
	assert.Equal(t, "D 1234 AB", fv.Fleet.LicensePlate)
	assert.Equal(t, expiry.StatusNearExpiry, fv.Statuses.Keur)
	require.NotNil(t, fv.Fleet.KeurExpiry)
	assert.True(t, want.Agencies[0].Fleets[0].Fleet.KeurExpiry.Equal(*fv.Fleet.KeurExpiry))
}

func TestDashboard_MissForUnknownArea(t *testing.T) {
	c, _ := newCache(t, time.Minute)

	_, ok, err := c.Get(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDashboard_EntryExpires(t *testing.T) {
	c, mr := newCache(t, 30*time.Second)
	areaID := uuid.New()
	require.NoError(t, c.Set(context.Background(), areaID, sampleDashboard(areaID)))

	mr.FastForward(31 * time.Second)
	_, ok, err := c.Get(context.Background(), areaID)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDashboard_CorruptEntryIsError(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	areaID := uuid.New()
	require.NoError(t, mr.Set("smart-agen:dashboard:"+areaID.String(), "{not json"))

	_, ok, err := c.Get(context.Background(), areaID)

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDashboard_NilIsDisabled(t *testing.T) {
	var c *cache.Dashboard
	ctx := context.Background()

	_, ok, err := c.Get(ctx, uuid.New())
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Set(ctx, uuid.New(), domain.Dashboard{}))
	assert.NoError(t, c.Ping(ctx))
	assert.Nil(t, cache.NewDashboard(nil, time.Minute))
}

func TestNewClient_EmptyURLDisablesCache(t *testing.T) {
	client, err := cache.NewClient(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewClient_ConnectsToServer(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := cache.NewClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, cache.NewDashboard(client, time.Minute).Ping(context.Background()))
}
