package service_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

// memStore is an in-memory stand-in for the fleets and drivers tables.
// It enforces the one-active-driver-per-fleet index like Postgres does, and
// memTransactor snapshots it so failed units of work roll back.
type memStore struct {
	agencies map[uuid.UUID]domain.Agency
	fleets   map[uuid.UUID]domain.Fleet
	drivers  map[uuid.UUID]domain.Driver

	// failCreate, when set, is returned by the next driver Create.
	failCreate error
	// beforeActivate, when set, runs once at the start of the next driver
	// Activate. Tests use it to land a competing write between read and update.
	beforeActivate func()
}

func newMemStore() *memStore {
	return &memStore{
		agencies: map[uuid.UUID]domain.Agency{},
		fleets:   map[uuid.UUID]domain.Fleet{},
		drivers:  map[uuid.UUID]domain.Driver{},
	}
}

func (s *memStore) addAgency(areaID uuid.UUID) domain.Agency {
	a := domain.Agency{ID: uuid.New(), AreaID: areaID, Name: "Agen " + uuid.NewString()[:4], IsActive: true}
	s.agencies[a.ID] = a
	return a
}

func (s *memStore) addFleet(areaID uuid.UUID) domain.Fleet {
	f := domain.Fleet{ID: uuid.New(), AreaID: areaID, LicensePlate: "B " + uuid.NewString()[:4], IsActive: true}
	s.fleets[f.ID] = f
	return f
}

func (s *memStore) addDriver(fleetID uuid.UUID, active bool, assignedAt time.Time) domain.Driver {
	d := domain.Driver{
		ID:         uuid.New(),
		FleetID:    fleetID,
		Name:       "Driver " + uuid.NewString()[:4],
		Age:        35,
		IsActive:   active,
		AssignedAt: &assignedAt,
		AreaID:     s.fleets[fleetID].AreaID,
	}
	s.drivers[d.ID] = d
	return d
}

func (s *memStore) activeDrivers(fleetID uuid.UUID) []domain.Driver {
	var out []domain.Driver
	for _, d := range s.drivers {
		if d.FleetID == fleetID && d.IsActive {
			out = append(out, d)
		}
	}
	return out
}

func (s *memStore) repos() repo.Repos {
	return repo.Repos{
		Agencies: &memAgencies{s: s},
		Fleets:   &memFleets{s: s},
		Drivers:  &memDrivers{s: s},
	}
}

type memAgencies struct {
	repo.AgencyRepo
	s *memStore
}

func (m *memAgencies) GetByID(_ context.Context, id uuid.UUID) (domain.Agency, error) {
	a, ok := m.s.agencies[id]
	if !ok {
		return domain.Agency{}, domain.ErrNotFound
	}
	return a, nil
}

// memFleets implements the subset of repo.FleetRepo the services under test
// call. Calling anything else panics on the nil embedded interface.
type memFleets struct {
	repo.FleetRepo
	s *memStore
}

func (m *memFleets) GetByID(_ context.Context, id uuid.UUID) (domain.Fleet, error) {
	f, ok := m.s.fleets[id]
	if !ok {
		return domain.Fleet{}, domain.ErrNotFound
	}
	return f, nil
}

func (m *memFleets) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Fleet, error) {
	return m.GetByID(ctx, id)
}

func (m *memFleets) Create(_ context.Context, f domain.Fleet) (domain.Fleet, error) {
	for _, other := range m.s.fleets {
		if other.LicensePlate == f.LicensePlate {
			return domain.Fleet{}, fmt.Errorf("%w: license plate already registered", domain.ErrConflict)
		}
	}
	f.ID = uuid.New()
	if a, ok := m.s.agencies[f.AgencyID]; ok {
		f.AreaID = a.AreaID
		f.AgencyName = a.Name
	}
	m.s.fleets[f.ID] = f
	return f, nil
}

type memDrivers struct {
	repo.DriverRepo
	s *memStore
}

func (m *memDrivers) GetByID(_ context.Context, id uuid.UUID) (domain.Driver, error) {
	d, ok := m.s.drivers[id]
	if !ok {
		return domain.Driver{}, domain.ErrNotFound
	}
	return d, nil
}

func (m *memDrivers) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	return m.GetByID(ctx, id)
}

func (m *memDrivers) GetActiveByFleet(_ context.Context, fleetID uuid.UUID) (domain.Driver, error) {
	active := m.s.activeDrivers(fleetID)
	if len(active) == 0 {
		return domain.Driver{}, domain.ErrNotFound
	}
	return active[0], nil
}

func (m *memDrivers) Create(_ context.Context, d domain.Driver) (domain.Driver, error) {
	if err := m.s.failCreate; err != nil {
		m.s.failCreate = nil
		return domain.Driver{}, err
	}
	if d.IsActive && len(m.s.activeDrivers(d.FleetID)) > 0 {
		return domain.Driver{}, fmt.Errorf("%w: fleet already has an active driver", domain.ErrConflict)
	}
	d.ID = uuid.New()
	d.AreaID = m.s.fleets[d.FleetID].AreaID
	m.s.drivers[d.ID] = d
	return d, nil
}

func (m *memDrivers) Deactivate(_ context.Context, id uuid.UUID, at time.Time) error {
	d, ok := m.s.drivers[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.IsActive = false
	d.DeactivatedAt = &at
	m.s.drivers[id] = d
	return nil
}

func (m *memDrivers) Activate(_ context.Context, id, fleetID uuid.UUID, at time.Time) error {
	if hook := m.s.beforeActivate; hook != nil {
		m.s.beforeActivate = nil
		hook()
	}
	d, ok := m.s.drivers[id]
	if !ok {
		return domain.ErrNotFound
	}
	if d.IsActive && d.FleetID != fleetID {
		return fmt.Errorf("%w: driver is active on another fleet", domain.ErrConflict)
	}
	for _, other := range m.s.activeDrivers(fleetID) {
		if other.ID != id {
			return fmt.Errorf("%w: fleet already has an active driver", domain.ErrConflict)
		}
	}
	d.FleetID = fleetID
	d.AreaID = m.s.fleets[fleetID].AreaID
	d.IsActive = true
	d.AssignedAt = &at
	d.DeactivatedAt = nil
	m.s.drivers[id] = d
	return nil
}

func (m *memDrivers) ListByFleet(_ context.Context, fleetID uuid.UUID) ([]domain.Driver, error) {
	var out []domain.Driver
	for _, d := range m.s.drivers {
		if d.FleetID == fleetID {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b domain.Driver) int {
		if a.IsActive != b.IsActive {
			if a.IsActive {
				return -1
			}
			return 1
		}
		return assignedAt(b).Compare(assignedAt(a))
	})
	return out, nil
}

func assignedAt(d domain.Driver) time.Time {
	if d.AssignedAt == nil {
		return time.Time{}
	}
	return *d.AssignedAt
}

// memTransactor runs fn against the store and restores a snapshot when fn fails.
type memTransactor struct {
	s     *memStore
	calls int
}

func (t *memTransactor) WithinTx(_ context.Context, fn func(repo.Repos) error) error {
	t.calls++
	fleets := maps.Clone(t.s.fleets)
	drivers := maps.Clone(t.s.drivers)
	if err := fn(t.s.repos()); err != nil {
		t.s.fleets = fleets
		t.s.drivers = drivers
		return err
	}
	return nil
}

var _ repo.Transactor = (*memTransactor)(nil)
