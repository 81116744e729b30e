package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

const (
	areaNameMaxLen = 100
	areaCodeMaxLen = 10
)

// AreaService implements business logic for Area operations.
type AreaService struct {
	areas repo.AreaRepo
}

// NewAreaService constructs an AreaService backed by the provided AreaRepo.
func NewAreaService(r repo.AreaRepo) *AreaService {
	return &AreaService{areas: r}
}

// Create validates and persists a new area. Only callers that see every
// area may create one. The code is stored upper case.
func (s *AreaService) Create(ctx context.Context, scope domain.AreaScope, area domain.Area) (domain.Area, error) {
	if !scope.All {
		return domain.Area{}, fmt.Errorf("service.AreaService.Create: %w: creating areas requires access to all areas", domain.ErrForbidden)
	}
	area = normalizeArea(area)
	if err := validateArea(area); err != nil {
		return domain.Area{}, err
	}
	result, err := s.areas.Create(ctx, area)
	if err != nil {
		return domain.Area{}, fmt.Errorf("service.AreaService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single area.
// Returns domain.ErrForbidden when the area is outside scope.
func (s *AreaService) GetByID(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Area, error) {
	area, err := s.areas.GetByID(ctx, id)
	if err != nil {
		return domain.Area{}, fmt.Errorf("service.AreaService.GetByID: %w", err)
	}
	if err := checkScope(scope, area.ID); err != nil {
		return domain.Area{}, fmt.Errorf("service.AreaService.GetByID: %w", err)
	}
	return area, nil
}

// ListPaged returns one page of areas visible to scope and the total count.
func (s *AreaService) ListPaged(ctx context.Context, f domain.AreaFilter, p domain.PaginationParams) ([]domain.Area, int, error) {
	areas, total, err := s.areas.ListPaged(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.AreaService.ListPaged: %w", err)
	}
	return areas, total, nil
}

// Stats counts active and inactive areas visible to the filter's scope.
func (s *AreaService) Stats(ctx context.Context, f domain.AreaFilter) (domain.StatusCounts, error) {
	stats, err := s.areas.Stats(ctx, f)
	if err != nil {
		return domain.StatusCounts{}, fmt.Errorf("service.AreaService.Stats: %w", err)
	}
	return stats, nil
}

// Update validates and persists changes to an existing area.
func (s *AreaService) Update(ctx context.Context, scope domain.AreaScope, area domain.Area) (domain.Area, error) {
	if err := checkScope(scope, area.ID); err != nil {
		return domain.Area{}, fmt.Errorf("service.AreaService.Update: %w", err)
	}
	area = normalizeArea(area)
	if err := validateArea(area); err != nil {
		return domain.Area{}, err
	}
	result, err := s.areas.Update(ctx, area)
	if err != nil {
		return domain.Area{}, fmt.Errorf("service.AreaService.Update: %w", err)
	}
	return result, nil
}

// ToggleStatus flips is_active and returns the updated area.
func (s *AreaService) ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Area, error) {
	area, err := s.GetByID(ctx, scope, id)
	if err != nil {
		return domain.Area{}, err
	}
	area.IsActive = !area.IsActive
	result, err := s.areas.Update(ctx, area)
	if err != nil {
		return domain.Area{}, fmt.Errorf("service.AreaService.ToggleStatus: %w", err)
	}
	return result, nil
}

// Delete removes an area that has no agencies and no assigned users.
// Returns domain.ErrConflict while either still references it.
func (s *AreaService) Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error {
	if !scope.All {
		return fmt.Errorf("service.AreaService.Delete: %w: deleting areas requires access to all areas", domain.ErrForbidden)
	}
	agencies, users, err := s.areas.CountDependents(ctx, id)
	if err != nil {
		return fmt.Errorf("service.AreaService.Delete: %w", err)
	}
	if agencies > 0 || users > 0 {
		return fmt.Errorf("service.AreaService.Delete: %w: area still has %d agencies and %d users", domain.ErrConflict, agencies, users)
	}
	if err := s.areas.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.AreaService.Delete: %w", err)
	}
	return nil
}

func normalizeArea(a domain.Area) domain.Area {
	a.Name = strings.TrimSpace(a.Name)
	a.Code = strings.ToUpper(strings.TrimSpace(a.Code))
	return a
}

func validateArea(a domain.Area) error {
	v := &validator{}
	v.required("name", a.Name)
	v.maxLen("name", a.Name, areaNameMaxLen)
	v.required("code", a.Code)
	v.maxLen("code", a.Code, areaCodeMaxLen)
	return v.err
}
