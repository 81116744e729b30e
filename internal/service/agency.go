package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

const agencyNameMaxLen = 100

// AgencyService implements business logic for Agency operations.
// It holds the region repo to check that an agency's region belongs to its
// area, and the fleet and driver repos to build the agency detail tree.
type AgencyService struct {
	agencies repo.AgencyRepo
	regions  repo.RegionRepo
	fleets   repo.FleetRepo
	drivers  repo.DriverRepo
	now      Clock
}

// NewAgencyService constructs an AgencyService backed by the provided repos.
func NewAgencyService(agencies repo.AgencyRepo, regions repo.RegionRepo, fleets repo.FleetRepo, drivers repo.DriverRepo) *AgencyService {
	return &AgencyService{agencies: agencies, regions: regions, fleets: fleets, drivers: drivers, now: systemClock}
}

// WithClock replaces the service clock. Intended for tests.
func (s *AgencyService) WithClock(c Clock) *AgencyService {
	s.now = c
	return s
}

// Create validates and persists a new agency.
// Returns domain.ErrForbidden if the area is outside scope and
// domain.ErrValidation if the region belongs to another area.
func (s *AgencyService) Create(ctx context.Context, scope domain.AreaScope, agency domain.Agency) (domain.Agency, error) {
	agency = normalizeAgency(agency)
	if err := validateAgency(agency); err != nil {
		return domain.Agency{}, err
	}
	if err := checkScope(scope, agency.AreaID); err != nil {
		return domain.Agency{}, fmt.Errorf("service.AgencyService.Create: %w", err)
	}
	if err := s.checkRegion(ctx, agency); err != nil {
		return domain.Agency{}, fmt.Errorf("service.AgencyService.Create: %w", err)
	}
	result, err := s.agencies.Create(ctx, agency)
	if err != nil {
		return domain.Agency{}, fmt.Errorf("service.AgencyService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single agency inside scope.
func (s *AgencyService) GetByID(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Agency, error) {
	agency, err := s.agencies.GetByID(ctx, id)
	if err != nil {
		return domain.Agency{}, fmt.Errorf("service.AgencyService.GetByID: %w", err)
	}
	if err := checkScope(scope, agency.AreaID); err != nil {
		return domain.Agency{}, fmt.Errorf("service.AgencyService.GetByID: %w", err)
	}
	return agency, nil
}

// GetTree returns an agency with its fleets, each carrying derived statuses
// and its drivers.
func (s *AgencyService) GetTree(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.AgencyTree, error) {
	agency, err := s.GetByID(ctx, scope, id)
	if err != nil {
		return domain.AgencyTree{}, err
	}
	fleets, err := s.fleets.List(ctx, domain.FleetFilter{AgencyID: &agency.ID, Scope: scope})
	if err != nil {
		return domain.AgencyTree{}, fmt.Errorf("service.AgencyService.GetTree: %w", err)
	}
	views, err := fleetViews(ctx, s.drivers, fleets, s.now())
	if err != nil {
		return domain.AgencyTree{}, fmt.Errorf("service.AgencyService.GetTree: %w", err)
	}
	return domain.AgencyTree{Agency: agency, Fleets: views}, nil
}

// ListPaged returns one page of agencies and the total match count.
func (s *AgencyService) ListPaged(ctx context.Context, f domain.AgencyFilter, p domain.PaginationParams) ([]domain.Agency, int, error) {
	agencies, total, err := s.agencies.ListPaged(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.AgencyService.ListPaged: %w", err)
	}
	return agencies, total, nil
}

// Stats counts active and inactive agencies matching f's area and scope.
func (s *AgencyService) Stats(ctx context.Context, f domain.AgencyFilter) (domain.StatusCounts, error) {
	stats, err := s.agencies.Stats(ctx, f)
	if err != nil {
		return domain.StatusCounts{}, fmt.Errorf("service.AgencyService.Stats: %w", err)
	}
	return stats, nil
}

// Update validates and persists changes to an agency. Moving an agency to
// another area requires scope over both areas.
func (s *AgencyService) Update(ctx context.Context, scope domain.AreaScope, agency domain.Agency) (domain.Agency, error) {
	agency = normalizeAgency(agency)
	if err := validateAgency(agency); err != nil {
		return domain.Agency{}, err
	}
	if _, err := s.GetByID(ctx, scope, agency.ID); err != nil {
		return domain.Agency{}, err
	}
	if err := checkScope(scope, agency.AreaID); err != nil {
		return domain.Agency{}, fmt.Errorf("service.AgencyService.Update: %w", err)
	}
	if err := s.checkRegion(ctx, agency); err != nil {
		return domain.Agency{}, fmt.Errorf("service.AgencyService.Update: %w", err)
	}
	result, err := s.agencies.Update(ctx, agency)
	if err != nil {
		return domain.Agency{}, fmt.Errorf("service.AgencyService.Update: %w", err)
	}
	return result, nil
}

// ToggleStatus flips is_active and returns the updated agency.
func (s *AgencyService) ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Agency, error) {
	agency, err := s.GetByID(ctx, scope, id)
	if err != nil {
		return domain.Agency{}, err
	}
	agency.IsActive = !agency.IsActive
	result, err := s.agencies.Update(ctx, agency)
	if err != nil {
		return domain.Agency{}, fmt.Errorf("service.AgencyService.ToggleStatus: %w", err)
	}
	return result, nil
}

// Delete removes an agency without fleets.
func (s *AgencyService) Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, scope, id); err != nil {
		return err
	}
	n, err := s.agencies.CountFleets(ctx, id)
	if err != nil {
		return fmt.Errorf("service.AgencyService.Delete: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("service.AgencyService.Delete: %w: agency still has %d fleets", domain.ErrConflict, n)
	}
	if err := s.agencies.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.AgencyService.Delete: %w", err)
	}
	return nil
}

// checkRegion verifies the agency's region exists inside the agency's area.
func (s *AgencyService) checkRegion(ctx context.Context, agency domain.Agency) error {
	region, err := s.regions.GetByID(ctx, agency.RegionID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: region does not exist", domain.ErrValidation)
	}
	if err != nil {
		return err
	}
	if region.AreaID != agency.AreaID {
		return fmt.Errorf("%w: region does not belong to the selected area", domain.ErrValidation)
	}
	return nil
}

func normalizeAgency(a domain.Agency) domain.Agency {
	a.Name = strings.TrimSpace(a.Name)
	a.Address = strings.TrimSpace(a.Address)
	return a
}

func validateAgency(a domain.Agency) error {
	v := &validator{}
	v.id("area_id", a.AreaID)
	v.id("region_id", a.RegionID)
	v.required("name", a.Name)
	v.maxLen("name", a.Name, agencyNameMaxLen)
	v.required("address", a.Address)
	v.nonNegative("cylinder_count", a.CylinderCount)
	v.nonNegative("daily_allocation", a.DailyAllocation)
	return v.err
}
