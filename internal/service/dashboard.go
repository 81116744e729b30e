package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/metrics"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

// DashboardCache stores computed dashboards by area. *cache.Dashboard
// satisfies it.
type DashboardCache interface {
	Get(ctx context.Context, areaID uuid.UUID) (domain.Dashboard, bool, error)
	Set(ctx context.Context, areaID uuid.UUID, d domain.Dashboard) error
}

// DashboardService assembles the per-area overview: headline numbers and
// the agency, fleet and driver tree.
type DashboardService struct {
	r       repo.Repos
	cache   DashboardCache
	now     Clock
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewDashboardService constructs a DashboardService. cache and m may be nil.
func NewDashboardService(r repo.Repos, cache DashboardCache, log *slog.Logger, m *metrics.Metrics) *DashboardService {
	return &DashboardService{r: r, cache: cache, now: systemClock, log: log, metrics: m}
}

// WithClock replaces the service clock. Intended for tests.
func (s *DashboardService) WithClock(c Clock) *DashboardService {
	s.now = c
	return s
}

// Get returns the dashboard of one area. Cache failures are logged and
// fall through to the database.
func (s *DashboardService) Get(ctx context.Context, scope domain.AreaScope, areaID uuid.UUID) (domain.Dashboard, error) {
	if err := checkScope(scope, areaID); err != nil {
		return domain.Dashboard{}, fmt.Errorf("service.DashboardService.Get: %w", err)
	}

	if s.cache != nil {
		d, ok, err := s.cache.Get(ctx, areaID)
		switch {
		case err != nil:
			s.metrics.IncDashboardCache("error")
			s.log.WarnContext(ctx, "dashboard cache read failed", "area_id", areaID, "error", err)
		case ok:
			s.metrics.IncDashboardCache("hit")
			return d, nil
		default:
			s.metrics.IncDashboardCache("miss")
		}
	}

	d, err := s.build(ctx, areaID)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("service.DashboardService.Get: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, areaID, d); err != nil {
			s.log.WarnContext(ctx, "dashboard cache write failed", "area_id", areaID, "error", err)
		}
	}
	return d, nil
}

func (s *DashboardService) build(ctx context.Context, areaID uuid.UUID) (domain.Dashboard, error) {
	var (
		d        domain.Dashboard
		agencies []domain.Agency
		fleets   []domain.Fleet
	)
	all := domain.AreaScope{All: true}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Area, err = s.r.Areas.GetByID(gctx, areaID)
		return err
	})
	g.Go(func() error {
		var err error
		d.Summary, err = s.r.Agencies.Summary(gctx, areaID)
		return err
	})
	g.Go(func() error {
		var err error
		agencies, err = s.r.Agencies.List(gctx, domain.AgencyFilter{AreaID: &areaID, Scope: all})
		return err
	})
	g.Go(func() error {
		var err error
		fleets, err = s.r.Fleets.List(gctx, domain.FleetFilter{AreaID: &areaID, Scope: all})
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Dashboard{}, err
	}

	views, err := fleetViews(ctx, s.r.Drivers, fleets, s.now())
	if err != nil {
		return domain.Dashboard{}, err
	}
	byAgency := make(map[uuid.UUID][]domain.FleetView, len(agencies))
	for _, v := range views {
		byAgency[v.Fleet.AgencyID] = append(byAgency[v.Fleet.AgencyID], v)
	}

	d.Agencies = make([]domain.AgencyTree, len(agencies))
	for i, a := range agencies {
		fv := byAgency[a.ID]
		if fv == nil {
			fv = []domain.FleetView{}
		}
		d.Agencies[i] = domain.AgencyTree{Agency: a, Fleets: fv}
	}
	return d, nil
}
