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
	"github.com/adityardiansyah/smart-agen/internal/metrics"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

const tracerName = "github.com/adityardiansyah/smart-agen/internal/service"

// AssignmentService moves drivers onto fleets while keeping at most one
// active driver per fleet. Each call deactivates the fleet's current driver
// and activates the incoming one in a single transaction.
type AssignmentService struct {
	tx      repo.Transactor
	now     Clock
	log     *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewAssignmentService constructs an AssignmentService. m may be nil.
func NewAssignmentService(tx repo.Transactor, log *slog.Logger, m *metrics.Metrics) *AssignmentService {
	return &AssignmentService{
		tx:      tx,
		now:     systemClock,
		log:     log,
		metrics: m,
		tracer:  otel.Tracer(tracerName),
	}
}

// WithClock replaces the service clock. Intended for tests.
func (s *AssignmentService) WithClock(c Clock) *AssignmentService {
	s.now = c
	return s
}

// WithTracerProvider makes the service start its spans on tp instead of the
// global provider.
func (s *AssignmentService) WithTracerProvider(tp trace.TracerProvider) *AssignmentService {
	s.tracer = tp.Tracer(tracerName)
	return s
}

// AssignDriver gives fleetID a new active driver.
//
// Mode "new" creates the driver; mode "existing" re-homes and reactivates
// in.DriverID. Input is validated before anything is written. Any failure
// rolls the whole transaction back, so the previous active driver stays
// active. Calls are not idempotent: every success adds a history entry.
func (s *AssignmentService) AssignDriver(ctx context.Context, scope domain.AreaScope, fleetID uuid.UUID, in domain.AssignDriverInput) (domain.FleetDrivers, error) {
	ctx, span := s.tracer.Start(ctx, "AssignmentService.AssignDriver", trace.WithAttributes(
		attribute.String("fleet.id", fleetID.String()),
		attribute.String("assign.mode", string(in.Mode)),
	))
	defer span.End()

	now := s.now()
	result, err := s.assign(ctx, scope, fleetID, in, now)

	s.metrics.IncAssignment(string(in.Mode), outcome(err))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assign driver failed")
		return domain.FleetDrivers{}, fmt.Errorf("service.AssignmentService.AssignDriver: %w", err)
	}
	return result, nil
}

func (s *AssignmentService) assign(ctx context.Context, scope domain.AreaScope, fleetID uuid.UUID, in domain.AssignDriverInput, now time.Time) (domain.FleetDrivers, error) {
	if err := validateAssignment(in, startOfDay(now)); err != nil {
		return domain.FleetDrivers{}, err
	}

	var result domain.FleetDrivers
	err := s.tx.WithinTx(ctx, func(r repo.Repos) error {
		fleet, err := r.Fleets.GetByIDForUpdate(ctx, fleetID)
		if err != nil {
			return fmt.Errorf("load fleet: %w", err)
		}
		if err := checkScope(scope, fleet.AreaID); err != nil {
			return err
		}

		var incoming domain.Driver
		if in.Mode == domain.AssignExisting {
			incoming, err = r.Drivers.GetByIDForUpdate(ctx, in.DriverID)
			if err != nil {
				return fmt.Errorf("load driver: %w", err)
			}
			if err := checkScope(scope, incoming.AreaID); err != nil {
				return err
			}
			if incoming.IsActive && incoming.FleetID != fleetID {
				return fmt.Errorf("%w: driver is active on fleet %s", domain.ErrConflict, incoming.LicensePlate)
			}
		}

		current, err := r.Drivers.GetActiveByFleet(ctx, fleetID)
		switch {
		case err == nil:
			if err := r.Drivers.Deactivate(ctx, current.ID, now); err != nil {
				return fmt.Errorf("deactivate current driver: %w", err)
			}
			s.log.InfoContext(ctx, "driver deactivated",
				"fleet_id", fleetID, "driver_id", current.ID)
		case errors.Is(err, domain.ErrNotFound):
			// Fleet had no active driver.
		default:
			return fmt.Errorf("load active driver: %w", err)
		}

		switch in.Mode {
		case domain.AssignNew:
			created, err := r.Drivers.Create(ctx, domain.Driver{
				FleetID:    fleetID,
				Name:       strings.TrimSpace(in.Name),
				Age:        in.Age,
				SimExpiry:  in.SimExpiry,
				IsActive:   true,
				AssignedAt: &now,
			})
			if err != nil {
				return fmt.Errorf("create driver: %w", err)
			}
			incoming = created
		case domain.AssignExisting:
			if err := r.Drivers.Activate(ctx, incoming.ID, fleetID, now); err != nil {
				return fmt.Errorf("activate driver: %w", err)
			}
		}
		s.log.InfoContext(ctx, "driver assigned",
			"fleet_id", fleetID, "driver_id", incoming.ID, "mode", in.Mode)

		drivers, err := r.Drivers.ListByFleet(ctx, fleetID)
		if err != nil {
			return fmt.Errorf("reload drivers: %w", err)
		}
		result = domain.NewFleetDrivers(drivers)
		return nil
	})
	if err != nil {
		return domain.FleetDrivers{}, err
	}
	return result, nil
}

func validateAssignment(in domain.AssignDriverInput, today time.Time) error {
	v := &validator{}
	switch in.Mode {
	case domain.AssignNew:
		validateDriverFields(v, in.Name, in.Age, in.SimExpiry, today)
	case domain.AssignExisting:
		v.id("driver_id", in.DriverID)
	default:
		v.fail("mode must be %q or %q", domain.AssignNew, domain.AssignExisting)
	}
	return v.err
}

// validateDriverFields checks the fields shared by driver creation paths.
func validateDriverFields(v *validator, name string, age int, simExpiry *time.Time, today time.Time) {
	v.required("name", name)
	v.maxLen("name", name, domain.DriverNameMaxLen)
	if age < domain.DriverMinAge || age > domain.DriverMaxAge {
		v.fail("age must be between %d and %d", domain.DriverMinAge, domain.DriverMaxAge)
	}
	v.notBefore("sim_expiry", simExpiry, today)
}

// outcome labels an error for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
