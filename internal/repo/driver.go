package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
)

// DriverRepo defines the persistence operations for Drivers.
// Reads join in the fleet plate, agency name and area.
//
// The partial unique index drivers_one_active_per_fleet backs the one active
// driver per fleet rule; writes that would break it return domain.ErrConflict.
type DriverRepo interface {
	Create(ctx context.Context, driver domain.Driver) (domain.Driver, error)

	// GetByID returns domain.ErrNotFound if no driver with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error)

	// GetByIDForUpdate is GetByID with the driver row locked until the
	// surrounding transaction ends. Take it after the fleet lock.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Driver, error)

	// GetActiveByFleet returns the fleet's active driver, or domain.ErrNotFound.
	GetActiveByFleet(ctx context.Context, fleetID uuid.UUID) (domain.Driver, error)

	// ListByFleet returns all drivers of a fleet, the active one first, then
	// the rest by assigned_at descending.
	ListByFleet(ctx context.Context, fleetID uuid.UUID) ([]domain.Driver, error)

	// ListByFleets is ListByFleet for several fleets at once.
	ListByFleets(ctx context.Context, fleetIDs []uuid.UUID) ([]domain.Driver, error)

	ListPaged(ctx context.Context, f domain.DriverFilter, p domain.PaginationParams) ([]domain.Driver, int, error)

	// ListExpiryFacts returns is_active and sim_expiry for drivers in scope,
	// honouring AreaID and FleetID only.
	ListExpiryFacts(ctx context.Context, f domain.DriverFilter) ([]domain.ExpiryFacts, error)

	Update(ctx context.Context, driver domain.Driver) (domain.Driver, error)

	// Deactivate marks a driver inactive and stamps deactivated_at.
	Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error

	// Activate repoints a driver to fleetID, marks it active, stamps
	// assigned_at and clears deactivated_at. A driver that is active on a
	// different fleet is left untouched and domain.ErrConflict is returned.
	Activate(ctx context.Context, id, fleetID uuid.UUID, at time.Time) error

	// SetDocument stores the path of the SIM document.
	SetDocument(ctx context.Context, id uuid.UUID, path string) error

	Delete(ctx context.Context, id uuid.UUID) error
}

type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

const driverFrom = `
	FROM drivers d
	JOIN fleets f ON f.id = d.fleet_id
	JOIN agencies ag ON ag.id = f.agency_id`

const driverSelect = `
	SELECT d.id, d.fleet_id, d.name, d.age, d.sim_expiry, d.sim_document, d.is_active,
	       d.assigned_at, d.deactivated_at, d.created_at, d.updated_at,
	       f.license_plate, ag.name, ag.area_id` + driverFrom

const driverFleetOrder = ` ORDER BY d.is_active DESC, d.assigned_at DESC NULLS LAST, d.created_at DESC`

func driverArgs(d domain.Driver) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":             d.ID,
		"fleet_id":       d.FleetID,
		"name":           d.Name,
		"age":            d.Age,
		"sim_expiry":     d.SimExpiry,
		"is_active":      d.IsActive,
		"assigned_at":    d.AssignedAt,
		"deactivated_at": d.DeactivatedAt,
	}
}

func (r *pgDriverRepo) Create(ctx context.Context, driver domain.Driver) (domain.Driver, error) {
	const q = `
		INSERT INTO drivers (fleet_id, name, age, sim_expiry, is_active, assigned_at, deactivated_at)
		VALUES (@fleet_id, @name, @age, @sim_expiry, @is_active, @assigned_at, @deactivated_at)
		RETURNING id`

	var id pgtype.UUID
	if err := r.db.QueryRow(ctx, q, driverArgs(driver)).Scan(&id); err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Create: %w", mapWriteError(err))
	}
	result, err := r.GetByID(ctx, uuid.UUID(id.Bytes))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	result, err := scanDriver(r.db.QueryRow(ctx, driverSelect+` WHERE d.id = @id`, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	q := driverSelect + ` WHERE d.id = @id FOR UPDATE OF d`
	result, err := scanDriver(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByIDForUpdate: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) GetActiveByFleet(ctx context.Context, fleetID uuid.UUID) (domain.Driver, error) {
	q := driverSelect + ` WHERE d.fleet_id = @fleet_id AND d.is_active`
	result, err := scanDriver(r.db.QueryRow(ctx, q, pgx.NamedArgs{"fleet_id": fleetID}))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetActiveByFleet: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) ListByFleet(ctx context.Context, fleetID uuid.UUID) ([]domain.Driver, error) {
	q := driverSelect + ` WHERE d.fleet_id = @fleet_id` + driverFleetOrder
	drivers, err := r.query(ctx, q, pgx.NamedArgs{"fleet_id": fleetID})
	if err != nil {
		return nil, fmt.Errorf("repo.DriverRepo.ListByFleet: %w", err)
	}
	return drivers, nil
}

func (r *pgDriverRepo) ListByFleets(ctx context.Context, fleetIDs []uuid.UUID) ([]domain.Driver, error) {
	if len(fleetIDs) == 0 {
		return []domain.Driver{}, nil
	}
	q := driverSelect + ` WHERE d.fleet_id = ANY(@fleet_ids::uuid[])` + driverFleetOrder
	drivers, err := r.query(ctx, q, pgx.NamedArgs{"fleet_ids": fleetIDs})
	if err != nil {
		return nil, fmt.Errorf("repo.DriverRepo.ListByFleets: %w", err)
	}
	return drivers, nil
}

func driverWhere(f domain.DriverFilter) *where {
	w := newWhere()
	w.search(f.Search, "d.name", "f.license_plate", "ag.name")
	if f.AreaID != nil {
		w.add("ag.area_id = @area_id", pgx.NamedArgs{"area_id": *f.AreaID})
	}
	if f.FleetID != nil {
		w.add("d.fleet_id = @fleet_id", pgx.NamedArgs{"fleet_id": *f.FleetID})
	}
	w.status(expiry.RuleSim, "d.sim_expiry", f.SimStatus, f.AsOf)
	w.active("d.is_active", f.Active)
	w.scope("ag.area_id", f.Scope)
	return w
}

func (r *pgDriverRepo) ListPaged(ctx context.Context, f domain.DriverFilter, p domain.PaginationParams) ([]domain.Driver, int, error) {
	w := driverWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) `+driverFrom+` `+w.String(), w.args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.DriverRepo.ListPaged: count: %w", err)
	}

	q := driverSelect + ` ` + w.String() + ` ORDER BY d.name, d.created_at LIMIT @limit OFFSET @offset`
	drivers, err := r.query(ctx, q, w.paged(p))
	if err != nil {
		return nil, 0, fmt.Errorf("repo.DriverRepo.ListPaged: %w", err)
	}
	return drivers, total, nil
}

func (r *pgDriverRepo) query(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Driver, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drivers := []domain.Driver{}
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return drivers, nil
}

func (r *pgDriverRepo) ListExpiryFacts(ctx context.Context, f domain.DriverFilter) ([]domain.ExpiryFacts, error) {
	w := newWhere()
	if f.AreaID != nil {
		w.add("ag.area_id = @area_id", pgx.NamedArgs{"area_id": *f.AreaID})
	}
	if f.FleetID != nil {
		w.add("d.fleet_id = @fleet_id", pgx.NamedArgs{"fleet_id": *f.FleetID})
	}
	w.scope("ag.area_id", f.Scope)

	rows, err := r.db.Query(ctx, `SELECT d.is_active, d.sim_expiry `+driverFrom+` `+w.String(), w.args)
	if err != nil {
		return nil, fmt.Errorf("repo.DriverRepo.ListExpiryFacts: %w", err)
	}
	defer rows.Close()

	var facts []domain.ExpiryFacts
	for rows.Next() {
		var (
			ef  domain.ExpiryFacts
			sim pgtype.Date
		)
		if err := rows.Scan(&ef.IsActive, &sim); err != nil {
			return nil, fmt.Errorf("repo.DriverRepo.ListExpiryFacts: scan: %w", err)
		}
		ef.SimExpiry = dateFromPg(sim)
		facts = append(facts, ef)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DriverRepo.ListExpiryFacts: rows: %w", err)
	}
	return facts, nil
}

func (r *pgDriverRepo) Update(ctx context.Context, driver domain.Driver) (domain.Driver, error) {
	const q = `
		UPDATE drivers
		SET fleet_id       = @fleet_id,
		    name           = @name,
		    age            = @age,
		    sim_expiry     = @sim_expiry,
		    is_active      = @is_active,
		    assigned_at    = @assigned_at,
		    deactivated_at = @deactivated_at,
		    updated_at     = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, driverArgs(driver))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Update: %w", mapWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Update: %w", domain.ErrNotFound)
	}
	result, err := r.GetByID(ctx, driver.ID)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `
		UPDATE drivers
		SET is_active = FALSE, deactivated_at = @at, updated_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "at": at})
	if err != nil {
		return fmt.Errorf("repo.DriverRepo.Deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.DriverRepo.Deactivate: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgDriverRepo) Activate(ctx context.Context, id, fleetID uuid.UUID, at time.Time) error {
	const q = `
		UPDATE drivers
		SET fleet_id = @fleet_id, is_active = TRUE, assigned_at = @at,
		    deactivated_at = NULL, updated_at = now()
		WHERE id = @id AND (NOT is_active OR fleet_id = @fleet_id)`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "fleet_id": fleetID, "at": at})
	if err != nil {
		return fmt.Errorf("repo.DriverRepo.Activate: %w", mapWriteError(err))
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM drivers WHERE id = @id)`,
		pgx.NamedArgs{"id": id}).Scan(&exists); err != nil {
		return fmt.Errorf("repo.DriverRepo.Activate: %w", err)
	}
	if !exists {
		return fmt.Errorf("repo.DriverRepo.Activate: %w", domain.ErrNotFound)
	}
	return fmt.Errorf("repo.DriverRepo.Activate: %w: driver is active on another fleet", domain.ErrConflict)
}

func (r *pgDriverRepo) SetDocument(ctx context.Context, id uuid.UUID, path string) error {
	const q = `UPDATE drivers SET sim_document = @path, updated_at = now() WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "path": path})
	if err != nil {
		return fmt.Errorf("repo.DriverRepo.SetDocument: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.DriverRepo.SetDocument: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgDriverRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := execDelete(ctx, r.db, `DELETE FROM drivers WHERE id = @id`, id); err != nil {
		return fmt.Errorf("repo.DriverRepo.Delete: %w", err)
	}
	return nil
}

func scanDriver(s scanner) (domain.Driver, error) {
	var (
		d                   domain.Driver
		id, fleetID, areaID pgtype.UUID
		sim                 pgtype.Date
		assigned, deact     pgtype.Timestamptz
	)
	err := s.Scan(&id, &fleetID, &d.Name, &d.Age, &sim, &d.SimDocument, &d.IsActive,
		&assigned, &deact, &d.CreatedAt, &d.UpdatedAt,
		&d.LicensePlate, &d.AgencyName, &areaID)
	if err != nil {
		return domain.Driver{}, notFound(err)
	}
	d.ID = uuid.UUID(id.Bytes)
	d.FleetID = uuid.UUID(fleetID.Bytes)
	d.AreaID = uuid.UUID(areaID.Bytes)
	d.SimExpiry = dateFromPg(sim)
	d.AssignedAt = timeFromPg(assigned)
	d.DeactivatedAt = timeFromPg(deact)
	return d, nil
}
