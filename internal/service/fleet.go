package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

const (
	fleetMinYear        = 1990
	keurNumberMaxLen    = 50
	licensePlateMaxLen  = 20
	maxRegisteredDriver = 2
)

// FleetService implements business logic for Fleet operations.
type FleetService struct {
	agencies repo.AgencyRepo
	fleets   repo.FleetRepo
	drivers  repo.DriverRepo
	tx       repo.Transactor
	now      Clock
	log      *slog.Logger
	tracer   trace.Tracer
}

// NewFleetService constructs a FleetService. r supplies the agency, fleet
// and driver repos used outside transactions; tx runs Register.
func NewFleetService(r repo.Repos, tx repo.Transactor, log *slog.Logger) *FleetService {
	return &FleetService{
		agencies: r.Agencies,
		fleets:   r.Fleets,
		drivers:  r.Drivers,
		tx:       tx,
		now:      systemClock,
		log:      log,
		tracer:   otel.Tracer(tracerName),
	}
}

// WithClock replaces the service clock. Intended for tests.
func (s *FleetService) WithClock(c Clock) *FleetService {
	s.now = c
	return s
}

// WithTracerProvider makes the service start its spans on tp instead of the
// global provider.
func (s *FleetService) WithTracerProvider(tp trace.TracerProvider) *FleetService {
	s.tracer = tp.Tracer(tracerName)
	return s
}

// Create validates and persists a new fleet.
// Returns domain.ErrConflict if the license plate is already registered.
func (s *FleetService) Create(ctx context.Context, scope domain.AreaScope, fleet domain.Fleet) (domain.Fleet, error) {
	fleet = normalizeFleet(fleet)
	if err := validateFleet(fleet, s.now()); err != nil {
		return domain.Fleet{}, err
	}
	if err := s.checkAgency(ctx, scope, fleet.AgencyID); err != nil {
		return domain.Fleet{}, fmt.Errorf("service.FleetService.Create: %w", err)
	}
	result, err := s.fleets.Create(ctx, fleet)
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("service.FleetService.Create: %w", err)
	}
	return result, nil
}

// Register saves a fleet and up to two drivers in one transaction. At most
// one driver may be active; when none is marked active the first one is.
func (s *FleetService) Register(ctx context.Context, scope domain.AreaScope, reg domain.FleetRegistration) (domain.FleetView, error) {
	ctx, span := s.tracer.Start(ctx, "FleetService.Register", trace.WithAttributes(
		attribute.String("agency.id", reg.Fleet.AgencyID.String()),
		attribute.Int("drivers", len(reg.Drivers)),
	))
	defer span.End()

	view, err := s.register(ctx, scope, reg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "register fleet failed")
		return domain.FleetView{}, fmt.Errorf("service.FleetService.Register: %w", err)
	}
	return view, nil
}

func (s *FleetService) register(ctx context.Context, scope domain.AreaScope, reg domain.FleetRegistration) (domain.FleetView, error) {
	now := s.now()
	reg.Fleet = normalizeFleet(reg.Fleet)
	if err := validateFleet(reg.Fleet, now); err != nil {
		return domain.FleetView{}, err
	}
	drivers, err := prepareRegisteredDrivers(reg.Drivers, now)
	if err != nil {
		return domain.FleetView{}, err
	}

	var view domain.FleetView
	err = s.tx.WithinTx(ctx, func(r repo.Repos) error {
		agency, err := r.Agencies.GetByID(ctx, reg.Fleet.AgencyID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: agency does not exist", domain.ErrValidation)
		}
		if err != nil {
			return fmt.Errorf("load agency: %w", err)
		}
		if err := checkScope(scope, agency.AreaID); err != nil {
			return err
		}

		fleet, err := r.Fleets.Create(ctx, reg.Fleet)
		if err != nil {
			return fmt.Errorf("create fleet: %w", err)
		}
		for _, d := range drivers {
			d.FleetID = fleet.ID
			if _, err := r.Drivers.Create(ctx, d); err != nil {
				return fmt.Errorf("create driver %q: %w", d.Name, err)
			}
		}

		saved, err := r.Drivers.ListByFleet(ctx, fleet.ID)
		if err != nil {
			return fmt.Errorf("reload drivers: %w", err)
		}
		view = domain.FleetView{Fleet: fleet, Statuses: fleet.Statuses(now), Drivers: domain.NewFleetDrivers(saved)}
		return nil
	})
	if err != nil {
		return domain.FleetView{}, err
	}
	s.log.InfoContext(ctx, "fleet registered",
		"fleet_id", view.Fleet.ID, "license_plate", view.Fleet.LicensePlate, "drivers", len(drivers))
	return view, nil
}

// prepareRegisteredDrivers validates wizard drivers and settles which one
// is active.
func prepareRegisteredDrivers(in []domain.Driver, now time.Time) ([]domain.Driver, error) {
	if len(in) > maxRegisteredDriver {
		return nil, fmt.Errorf("%w: at most %d drivers can be registered with a fleet", domain.ErrValidation, maxRegisteredDriver)
	}
	today := startOfDay(now)
	active := 0
	for _, d := range in {
		v := &validator{}
		validateDriverFields(v, d.Name, d.Age, d.SimExpiry, today)
		if v.err != nil {
			return nil, v.err
		}
		if d.IsActive {
			active++
		}
	}
	if active > 1 {
		return nil, fmt.Errorf("%w: only one driver can be active", domain.ErrValidation)
	}

	out := make([]domain.Driver, len(in))
	for i, d := range in {
		out[i] = domain.Driver{
			Name:      strings.TrimSpace(d.Name),
			Age:       d.Age,
			SimExpiry: d.SimExpiry,
			IsActive:  d.IsActive || (active == 0 && i == 0),
		}
		if out[i].IsActive {
			at := now
			out[i].AssignedAt = &at
		}
	}
	return out, nil
}

// GetView returns a fleet with derived statuses and its drivers.
func (s *FleetService) GetView(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.FleetView, error) {
	fleet, err := s.get(ctx, scope, id)
	if err != nil {
		return domain.FleetView{}, fmt.Errorf("service.FleetService.GetView: %w", err)
	}
	drivers, err := s.drivers.ListByFleet(ctx, id)
	if err != nil {
		return domain.FleetView{}, fmt.Errorf("service.FleetService.GetView: %w", err)
	}
	return domain.FleetView{
		Fleet:    fleet,
		Statuses: fleet.Statuses(s.now()),
		Drivers:  domain.NewFleetDrivers(drivers),
	}, nil
}

// ListPaged returns one page of fleets with statuses and drivers, plus the
// total match count. Status filters are evaluated against the service clock.
func (s *FleetService) ListPaged(ctx context.Context, f domain.FleetFilter, p domain.PaginationParams) ([]domain.FleetView, int, error) {
	now := s.now()
	f.AsOf = now
	fleets, total, err := s.fleets.ListPaged(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.FleetService.ListPaged: %w", err)
	}
	views, err := fleetViews(ctx, s.drivers, fleets, now)
	if err != nil {
		return nil, 0, fmt.Errorf("service.FleetService.ListPaged: %w", err)
	}
	return views, total, nil
}

// Stats tallies fleets by active flag and by each derived status. Only the
// area and agency parts of f apply.
func (s *FleetService) Stats(ctx context.Context, f domain.FleetFilter) (domain.FleetStats, error) {
	facts, err := s.fleets.ListExpiryFacts(ctx, f)
	if err != nil {
		return domain.FleetStats{}, fmt.Errorf("service.FleetService.Stats: %w", err)
	}
	now := s.now()
	var st domain.FleetStats
	for _, ef := range facts {
		st.Total++
		if ef.IsActive {
			st.Active++
		} else {
			st.Inactive++
		}
		st.Keur.Add(expiry.ClassifyKeur(ef.KeurExpiry, now))
		st.Stnk.Add(expiry.ClassifyStnk(ef.StnkExpiry, now))
		st.VehicleAge.Add(expiry.ClassifyVehicleAge(ef.ManufactureYear, now))
	}
	return st, nil
}

// Update validates and persists changes to a fleet. Document paths are
// changed through DocumentService only.
func (s *FleetService) Update(ctx context.Context, scope domain.AreaScope, fleet domain.Fleet) (domain.Fleet, error) {
	fleet = normalizeFleet(fleet)
	if err := validateFleet(fleet, s.now()); err != nil {
		return domain.Fleet{}, err
	}
	if _, err := s.get(ctx, scope, fleet.ID); err != nil {
		return domain.Fleet{}, fmt.Errorf("service.FleetService.Update: %w", err)
	}
	if err := s.checkAgency(ctx, scope, fleet.AgencyID); err != nil {
		return domain.Fleet{}, fmt.Errorf("service.FleetService.Update: %w", err)
	}
	result, err := s.fleets.Update(ctx, fleet)
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("service.FleetService.Update: %w", err)
	}
	return result, nil
}

// ToggleStatus flips is_active and returns the updated fleet.
func (s *FleetService) ToggleStatus(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Fleet, error) {
	fleet, err := s.get(ctx, scope, id)
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("service.FleetService.ToggleStatus: %w", err)
	}
	fleet.IsActive = !fleet.IsActive
	result, err := s.fleets.Update(ctx, fleet)
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("service.FleetService.ToggleStatus: %w", err)
	}
	return result, nil
}

// Delete removes a fleet that never had a driver.
func (s *FleetService) Delete(ctx context.Context, scope domain.AreaScope, id uuid.UUID) error {
	if _, err := s.get(ctx, scope, id); err != nil {
		return fmt.Errorf("service.FleetService.Delete: %w", err)
	}
	n, err := s.fleets.CountDrivers(ctx, id)
	if err != nil {
		return fmt.Errorf("service.FleetService.Delete: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("service.FleetService.Delete: %w: fleet still has %d drivers", domain.ErrConflict, n)
	}
	if err := s.fleets.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.FleetService.Delete: %w", err)
	}
	return nil
}

func (s *FleetService) get(ctx context.Context, scope domain.AreaScope, id uuid.UUID) (domain.Fleet, error) {
	fleet, err := s.fleets.GetByID(ctx, id)
	if err != nil {
		return domain.Fleet{}, err
	}
	if err := checkScope(scope, fleet.AreaID); err != nil {
		return domain.Fleet{}, err
	}
	return fleet, nil
}

// checkAgency verifies the agency exists and lies inside scope. A missing
// agency is a validation error because it comes from the request body.
func (s *FleetService) checkAgency(ctx context.Context, scope domain.AreaScope, agencyID uuid.UUID) error {
	agency, err := s.agencies.GetByID(ctx, agencyID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: agency does not exist", domain.ErrValidation)
	}
	if err != nil {
		return err
	}
	return checkScope(scope, agency.AreaID)
}

// fleetViews attaches statuses and drivers to fleets using one driver query.
func fleetViews(ctx context.Context, drivers repo.DriverRepo, fleets []domain.Fleet, now time.Time) ([]domain.FleetView, error) {
	views := make([]domain.FleetView, len(fleets))
	if len(fleets) == 0 {
		return views, nil
	}
	ids := make([]uuid.UUID, len(fleets))
	for i, f := range fleets {
		ids[i] = f.ID
	}
	all, err := drivers.ListByFleets(ctx, ids)
	if err != nil {
		return nil, err
	}
	byFleet := make(map[uuid.UUID][]domain.Driver, len(fleets))
	for _, d := range all {
		byFleet[d.FleetID] = append(byFleet[d.FleetID], d)
	}
	for i, f := range fleets {
		views[i] = domain.FleetView{
			Fleet:    f,
			Statuses: f.Statuses(now),
			Drivers:  domain.NewFleetDrivers(byFleet[f.ID]),
		}
	}
	return views, nil
}

func normalizeFleet(f domain.Fleet) domain.Fleet {
	f.LicensePlate = strings.ToUpper(strings.TrimSpace(f.LicensePlate))
	f.KeurNumber = strings.TrimSpace(f.KeurNumber)
	return f
}

func validateFleet(f domain.Fleet, now time.Time) error {
	today := startOfDay(now)
	v := &validator{}
	v.id("agency_id", f.AgencyID)
	v.required("license_plate", f.LicensePlate)
	v.maxLen("license_plate", f.LicensePlate, licensePlateMaxLen)
	if f.ManufactureYear < fleetMinYear || f.ManufactureYear > now.Year()+1 {
		v.fail("manufacture_year must be between %d and %d", fleetMinYear, now.Year()+1)
	}
	v.required("keur_number", f.KeurNumber)
	v.maxLen("keur_number", f.KeurNumber, keurNumberMaxLen)
	v.notBefore("keur_expiry", f.KeurExpiry, today)
	v.notBefore("stnk_expiry", f.StnkExpiry, today)
	v.notBefore("vehicle_expiry", f.VehicleExpiry, today)
	return v.err
}
