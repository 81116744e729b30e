package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

// candidateLimit caps the reassignment candidate list.
const candidateLimit = 100

// DriverService implements business logic for Driver CRUD. Moving a driver
// between fleets goes through AssignmentService instead.
type DriverService struct {
	fleets  repo.FleetRepo
	drivers repo.DriverRepo
	now     Clock
}

// NewDriverService constructs a DriverService backed by the provided repos.
func NewDriverService(fleets repo.FleetRepo, drivers repo.DriverRepo) *DriverService {
	return &DriverService{fleets: fleets, drivers: drivers, now: systemClock}
}

// WithClock replaces the service clock. Intended for tests.
func (s *DriverService) WithClock(c Clock) *DriverService {
	s.now = c
	return s
}

// Create validates and persists a driver on an existing fleet.
// Returns domain.ErrConflict if the driver is active and the fleet already
// has an active driver.
func (s *DriverService) Create(ctx context.Context, scope domain.AreaScope, driver domain.Driver) (domain.Driver, error) {
	now := s.now()
	driver.Name = strings.TrimSpace(driver.Name)
	if err := validateDriver(driver, now); err != nil {
		return domain.Driver{}, err
	}
	if err := s.checkFleet(ctx, scope, driver.FleetID); err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.Create: %w", err)
	}
	driver.DeactivatedAt = nil
	driver.AssignedAt = nil
	if driver.IsActive {
		if err := s.ensureNoActive(ctx, driver.FleetID, uuid.Nil); err != nil {
			return domain.Driver{}, fmt.Errorf("service.DriverService.Create: %w", err)
		}
		driver.AssignedAt = &now
	}
	result, err := s.drivers.Create(ctx, driver)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single driver inside scope.
func (s *DriverService) GetByID(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Driver, error) {
	driver, err := s.get(ctx, scope, id)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.GetByID: %w", err)
	}
	return driver, nil
}

// ListPaged returns one page of drivers and the total match count.
func (s *DriverService) ListPaged(ctx context.Context, f domain.DriverFilter, p domain.PaginationParams) ([]domain.Driver, int, error) {
	f.AsOf = s.now()
	drivers, total, err := s.drivers.ListPaged(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.DriverService.ListPaged: %w", err)
	}
	return drivers, total, nil
}

// Stats tallies drivers by active flag and SIM status.
func (s *DriverService) Stats(ctx context.Context, f domain.DriverFilter) (domain.DriverStats, error) {
	facts, err := s.drivers.ListExpiryFacts(ctx, f)
	if err != nil {
		return domain.DriverStats{}, fmt.Errorf("service.DriverService.Stats: %w", err)
	}
	now := s.now()
	var st domain.DriverStats
	for _, ef := range facts {
		st.Total++
		if ef.IsActive {
			st.Active++
		} else {
			st.Inactive++
		}
		st.Sim.Add(expiry.ClassifySim(ef.SimExpiry, now))
	}
	return st, nil
}

// Candidates lists inactive drivers in the fleet's area that can be
// reassigned to it with mode "existing".
func (s *DriverService) Candidates(ctx context.Context, scope domain.AreaScope, fleetID uuid.UUID) ([]domain.Driver, error) {
	fleet, err := s.fleets.GetByID(ctx, fleetID)
	if err != nil {
		return nil, fmt.Errorf("service.DriverService.Candidates: %w", err)
	}
	if err := checkScope(scope, fleet.AreaID); err != nil {
		return nil, fmt.Errorf("service.DriverService.Candidates: %w", err)
	}
	inactive := false
	f := domain.DriverFilter{AreaID: &fleet.AreaID, Active: &inactive, Scope: scope, AsOf: s.now()}
	drivers, _, err := s.drivers.ListPaged(ctx, f, domain.PaginationParams{Page: 1, Limit: candidateLimit})
	if err != nil {
		return nil, fmt.Errorf("service.DriverService.Candidates: %w", err)
	}
	return drivers, nil
}

// Update validates and persists changes to a driver. Turning a driver
// active stamps assigned_at; turning it inactive stamps deactivated_at.
func (s *DriverService) Update(ctx context.Context, scope domain.AreaScope, driver domain.Driver) (domain.Driver, error) {
	now := s.now()
	driver.Name = strings.TrimSpace(driver.Name)
	if err := validateDriver(driver, now); err != nil {
		return domain.Driver{}, err
	}
	current, err := s.get(ctx, scope, driver.ID)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.Update: %w", err)
	}
	if err := s.checkFleet(ctx, scope, driver.FleetID); err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.Update: %w", err)
	}
	driver.AssignedAt = current.AssignedAt
	driver.DeactivatedAt = current.DeactivatedAt
	if driver.IsActive && (!current.IsActive || current.FleetID != driver.FleetID) {
		if err := s.ensureNoActive(ctx, driver.FleetID, driver.ID); err != nil {
			return domain.Driver{}, fmt.Errorf("service.DriverService.Update: %w", err)
		}
	}
	stampTransition(&driver, current.IsActive, now)

	result, err := s.drivers.Update(ctx, driver)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.Update: %w", err)
	}
	return result, nil
}

// ToggleStatus flips is_active. Activating a driver whose fleet already has
// an active driver returns domain.ErrConflict.
func (s *DriverService) ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Driver, error) {
	driver, err := s.get(ctx, scope, id)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.ToggleStatus: %w", err)
	}
	wasActive := driver.IsActive
	driver.IsActive = !wasActive
	if driver.IsActive {
		if err := s.ensureNoActive(ctx, driver.FleetID, driver.ID); err != nil {
			return domain.Driver{}, fmt.Errorf("service.DriverService.ToggleStatus: %w", err)
		}
	}
	stampTransition(&driver, wasActive, s.now())

	result, err := s.drivers.Update(ctx, driver)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.ToggleStatus: %w", err)
	}
	return result, nil
}

// Delete removes a driver.
func (s *DriverService) Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error {
	if _, err := s.get(ctx, scope, id); err != nil {
		return fmt.Errorf("service.DriverService.Delete: %w", err)
	}
	if err := s.drivers.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.DriverService.Delete: %w", err)
	}
	return nil
}

func (s *DriverService) get(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Driver, error) {
	driver, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return domain.Driver{}, err
	}
	if err := checkScope(scope, driver.AreaID); err != nil {
		return domain.Driver{}, err
	}
	return driver, nil
}

func (s *DriverService) checkFleet(ctx context.Context, scope domain.AreaScope, fleetID uuid.UUID) error {
	fleet, err := s.fleets.GetByID(ctx, fleetID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: fleet does not exist", domain.ErrValidation)
	}
	if err != nil {
		return err
	}
	return checkScope(scope, fleet.AreaID)
}

// ensureNoActive returns domain.ErrConflict when fleetID has an active
// driver other than self.
func (s *DriverService) ensureNoActive(ctx context.Context, fleetID, self uuid.UUID) error {
	active, err := s.drivers.GetActiveByFleet(ctx, fleetID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case active.ID != self:
		return fmt.Errorf("%w: fleet already has an active driver (%s)", domain.ErrConflict, active.Name)
	}
	return nil
}

// stampTransition records assigned_at or deactivated_at when the active
// flag changes.
func stampTransition(d *domain.Driver, wasActive bool, now time.Time) {
	switch {
	case d.IsActive && !wasActive:
		d.AssignedAt = &now
		d.DeactivatedAt = nil
	case !d.IsActive && wasActive:
		d.DeactivatedAt = &now
	}
}

func validateDriver(d domain.Driver, now time.Time) error {
	v := &validator{}
	v.id("fleet_id", d.FleetID)
	validateDriverFields(v, d.Name, d.Age, d.SimExpiry, startOfDay(now))
	return v.err
}
