package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

const regionFieldMaxLen = 100

// RegionService implements business logic for Region operations.
// Regions are nested under an area, so every call resolves the parent area
// first to check the caller's scope.
type RegionService struct {
	areas   repo.AreaRepo
	regions repo.RegionRepo
}

// NewRegionService constructs a RegionService backed by the provided repos.
func NewRegionService(areas repo.AreaRepo, regions repo.RegionRepo) *RegionService {
	return &RegionService{areas: areas, regions: regions}
}

// Create validates a region and adds it to areaID.
// Returns domain.ErrNotFound if the area does not exist.
func (s *RegionService) Create(ctx context.Context, scope domain.AreaScope, region domain.Region) (domain.Region, error) {
	if err := s.checkArea(ctx, scope, region.AreaID); err != nil {
		return domain.Region{}, fmt.Errorf("service.RegionService.Create: %w", err)
	}
	region = normalizeRegion(region)
	if err := validateRegion(region); err != nil {
		return domain.Region{}, err
	}
	result, err := s.regions.Create(ctx, region)
	if err != nil {
		return domain.Region{}, fmt.Errorf("service.RegionService.Create: %w", err)
	}
	return result, nil
}

// ListByArea returns the regions of an area ordered by city.
func (s *RegionService) ListByArea(ctx context.Context, scope domain.AreaScope, areaID uuid.UUID) ([]domain.Region, error) {
	if err := s.checkArea(ctx, scope, areaID); err != nil {
		return nil, fmt.Errorf("service.RegionService.ListByArea: %w", err)
	}
	regions, err := s.regions.ListByArea(ctx, areaID)
	if err != nil {
		return nil, fmt.Errorf("service.RegionService.ListByArea: %w", err)
	}
	if regions == nil {
		return []domain.Region{}, nil
	}
	return regions, nil
}

// Update validates and persists a new city and SBM name. The parent area
// never changes.
func (s *RegionService) Update(ctx context.Context, scope domain.AreaScope, region domain.Region) (domain.Region, error) {
	current, err := s.get(ctx, scope, region.ID)
	if err != nil {
		return domain.Region{}, fmt.Errorf("service.RegionService.Update: %w", err)
	}
	region = normalizeRegion(region)
	region.AreaID = current.AreaID
	if err := validateRegion(region); err != nil {
		return domain.Region{}, err
	}
	result, err := s.regions.Update(ctx, region)
	if err != nil {
		return domain.Region{}, fmt.Errorf("service.RegionService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a region no agency references.
func (s *RegionService) Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error {
	if _, err := s.get(ctx, scope, id); err != nil {
		return fmt.Errorf("service.RegionService.Delete: %w", err)
	}
	n, err := s.regions.CountAgencies(ctx, id)
	if err != nil {
		return fmt.Errorf("service.RegionService.Delete: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("service.RegionService.Delete: %w: region is used by %d agencies", domain.ErrConflict, n)
	}
	if err := s.regions.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.RegionService.Delete: %w", err)
	}
	return nil
}

func (s *RegionService) get(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Region, error) {
	region, err := s.regions.GetByID(ctx, id)
	if err != nil {
		return domain.Region{}, err
	}
	if err := checkScope(scope, region.AreaID); err != nil {
		return domain.Region{}, err
	}
	return region, nil
}

func (s *RegionService) checkArea(ctx context.Context, scope domain.AreaScope, areaID uuid.UUID) error {
	if _, err := s.areas.GetByID(ctx, areaID); err != nil {
		return err
	}
	return checkScope(scope, areaID)
}

func normalizeRegion(r domain.Region) domain.Region {
	r.City = strings.TrimSpace(r.City)
	r.RegionSBM = strings.TrimSpace(r.RegionSBM)
	return r
}

func validateRegion(r domain.Region) error {
	v := &validator{}
	v.required("city", r.City)
	v.maxLen("city", r.City, regionFieldMaxLen)
	v.required("region_sbm", r.RegionSBM)
	v.maxLen("region_sbm", r.RegionSBM, regionFieldMaxLen)
	return v.err
}
