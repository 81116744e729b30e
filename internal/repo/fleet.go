package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
)

// FleetRepo defines the persistence operations for Fleets.
// Reads join in the owning agency name and its area.
type FleetRepo interface {
	// Create inserts a new fleet. A duplicate license plate yields domain.ErrConflict.
	Create(ctx context.Context, fleet domain.Fleet) (domain.Fleet, error)

	// GetByID returns domain.ErrNotFound if no fleet with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Fleet, error)

	// GetByIDForUpdate is GetByID with the fleet row locked until the
	// surrounding transaction ends. Only meaningful inside WithinTx.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Fleet, error)

	// ListPaged returns one page of fleets ordered by license plate, plus the total.
	ListPaged(ctx context.Context, f domain.FleetFilter, p domain.PaginationParams) ([]domain.Fleet, int, error)

	// List returns every fleet matching the filter, ordered by agency then plate.
	List(ctx context.Context, f domain.FleetFilter) ([]domain.Fleet, error)

	// ListExpiryFacts returns the fields needed to tally derived statuses
	// for fleets in scope, honouring AreaID and AgencyID only.
	ListExpiryFacts(ctx context.Context, f domain.FleetFilter) ([]domain.ExpiryFacts, error)

	Update(ctx context.Context, fleet domain.Fleet) (domain.Fleet, error)

	// SetDocument stores the path of a KEUR or STNK document.
	SetDocument(ctx context.Context, id uuid.UUID, kind domain.DocumentKind, path string) error

	Delete(ctx context.Context, id uuid.UUID) error

	// CountDrivers returns how many drivers, active or not, belong to the fleet.
	CountDrivers(ctx context.Context, id uuid.UUID) (int, error)
}

type pgFleetRepo struct {
	db db
}

// NewFleetRepo constructs a FleetRepo backed by the provided db connection.
func NewFleetRepo(db db) FleetRepo {
	return &pgFleetRepo{db: db}
}

const fleetFrom = `
	FROM fleets f
	JOIN agencies ag ON ag.id = f.agency_id
	JOIN areas ar ON ar.id = ag.area_id`

const fleetSelect = `
	SELECT f.id, f.agency_id, f.license_plate, f.manufacture_year, f.keur_number,
	       f.keur_expiry, f.stnk_expiry, f.vehicle_expiry, f.keur_document, f.stnk_document,
	       f.is_active, f.created_at, f.updated_at, ag.name, ag.area_id, ar.name` + fleetFrom

func fleetArgs(f domain.Fleet) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":               f.ID,
		"agency_id":        f.AgencyID,
		"license_plate":    f.LicensePlate,
		"manufacture_year": f.ManufactureYear,
		"keur_number":      f.KeurNumber,
		"keur_expiry":      f.KeurExpiry, // nil becomes NULL
		"stnk_expiry":      f.StnkExpiry,
		"vehicle_expiry":   f.VehicleExpiry,
		"is_active":        f.IsActive,
	}
}

func (r *pgFleetRepo) Create(ctx context.Context, fleet domain.Fleet) (domain.Fleet, error) {
	const q = `
		INSERT INTO fleets (agency_id, license_plate, manufacture_year, keur_number,
		                    keur_expiry, stnk_expiry, vehicle_expiry, is_active)
		VALUES (@agency_id, @license_plate, @manufacture_year, @keur_number,
		        @keur_expiry, @stnk_expiry, @vehicle_expiry, @is_active)
		RETURNING id`

	var id pgtype.UUID
	if err := r.db.QueryRow(ctx, q, fleetArgs(fleet)).Scan(&id); err != nil {
		return domain.Fleet{}, fmt.Errorf("repo.FleetRepo.Create: %w", mapWriteError(err))
	}
	result, err := r.GetByID(ctx, uuid.UUID(id.Bytes))
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("repo.FleetRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgFleetRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Fleet, error) {
	result, err := scanFleet(r.db.QueryRow(ctx, fleetSelect+` WHERE f.id = @id`, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("repo.FleetRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgFleetRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Fleet, error) {
	q := fleetSelect + ` WHERE f.id = @id FOR UPDATE OF f`
	result, err := scanFleet(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("repo.FleetRepo.GetByIDForUpdate: %w", err)
	}
	return result, nil
}

func fleetWhere(f domain.FleetFilter) *where {
	w := newWhere()
	w.search(f.Search, "f.license_plate", "ag.name")
	if f.AreaID != nil {
		w.add("ag.area_id = @area_id", pgx.NamedArgs{"area_id": *f.AreaID})
	}
	if f.AgencyID != nil {
		w.add("f.agency_id = @agency_id", pgx.NamedArgs{"agency_id": *f.AgencyID})
	}
	w.status(expiry.RuleKeur, "f.keur_expiry", f.KeurStatus, f.AsOf)
	w.status(expiry.RuleStnk, "f.stnk_expiry", f.StnkStatus, f.AsOf)
	w.vehicleAge("f.manufacture_year", f.VehicleAgeStatus, f.AsOf)
	w.active("f.is_active", f.Active)
	w.scope("ag.area_id", f.Scope)
	return w
}

func (r *pgFleetRepo) ListPaged(ctx context.Context, f domain.FleetFilter, p domain.PaginationParams) ([]domain.Fleet, int, error) {
	w := fleetWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) `+fleetFrom+` `+w.String(), w.args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.FleetRepo.ListPaged: count: %w", err)
	}

	fleets, err := r.query(ctx, fleetSelect+` `+w.String()+` ORDER BY f.license_plate LIMIT @limit OFFSET @offset`, w.paged(p))
	if err != nil {
		return nil, 0, fmt.Errorf("repo.FleetRepo.ListPaged: %w", err)
	}
	return fleets, total, nil
}

func (r *pgFleetRepo) List(ctx context.Context, f domain.FleetFilter) ([]domain.Fleet, error) {
	w := fleetWhere(f)
	fleets, err := r.query(ctx, fleetSelect+` `+w.String()+` ORDER BY ag.name, f.license_plate`, w.args)
	if err != nil {
		return nil, fmt.Errorf("repo.FleetRepo.List: %w", err)
	}
	return fleets, nil
}

func (r *pgFleetRepo) query(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Fleet, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fleets := []domain.Fleet{}
	for rows.Next() {
		fl, err := scanFleet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		fleets = append(fleets, fl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return fleets, nil
}

func (r *pgFleetRepo) ListExpiryFacts(ctx context.Context, f domain.FleetFilter) ([]domain.ExpiryFacts, error) {
	w := newWhere()
	if f.AreaID != nil {
		w.add("ag.area_id = @area_id", pgx.NamedArgs{"area_id": *f.AreaID})
	}
	if f.AgencyID != nil {
		w.add("f.agency_id = @agency_id", pgx.NamedArgs{"agency_id": *f.AgencyID})
	}
	w.scope("ag.area_id", f.Scope)

	q := `SELECT f.is_active, f.manufacture_year, f.keur_expiry, f.stnk_expiry ` + fleetFrom + ` ` + w.String()
	rows, err := r.db.Query(ctx, q, w.args)
	if err != nil {
		return nil, fmt.Errorf("repo.FleetRepo.ListExpiryFacts: %w", err)
	}
	defer rows.Close()

	var facts []domain.ExpiryFacts
	for rows.Next() {
		var (
			ef         domain.ExpiryFacts
			keur, stnk pgtype.Date
		)
		if err := rows.Scan(&ef.IsActive, &ef.ManufactureYear, &keur, &stnk); err != nil {
			return nil, fmt.Errorf("repo.FleetRepo.ListExpiryFacts: scan: %w", err)
		}
		ef.KeurExpiry = dateFromPg(keur)
		ef.StnkExpiry = dateFromPg(stnk)
		facts = append(facts, ef)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.FleetRepo.ListExpiryFacts: rows: %w", err)
	}
	return facts, nil
}

func (r *pgFleetRepo) Update(ctx context.Context, fleet domain.Fleet) (domain.Fleet, error) {
	const q = `
		UPDATE fleets
		SET agency_id        = @agency_id,
		    license_plate    = @license_plate,
		    manufacture_year = @manufacture_year,
		    keur_number      = @keur_number,
		    keur_expiry      = @keur_expiry,
		    stnk_expiry      = @stnk_expiry,
		    vehicle_expiry   = @vehicle_expiry,
		    is_active        = @is_active,
		    updated_at       = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, fleetArgs(fleet))
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("repo.FleetRepo.Update: %w", mapWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.Fleet{}, fmt.Errorf("repo.FleetRepo.Update: %w", domain.ErrNotFound)
	}
	result, err := r.GetByID(ctx, fleet.ID)
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("repo.FleetRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgFleetRepo) SetDocument(ctx context.Context, id uuid.UUID, kind domain.DocumentKind, path string) error {
	var q string
	switch kind {
	case domain.DocumentKeur:
		q = `UPDATE fleets SET keur_document = @path, updated_at = now() WHERE id = @id`
	case domain.DocumentStnk:
		q = `UPDATE fleets SET stnk_document = @path, updated_at = now() WHERE id = @id`
	default:
		return fmt.Errorf("repo.FleetRepo.SetDocument: %w: fleets have no %q document", domain.ErrValidation, kind)
	}

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "path": path})
	if err != nil {
		return fmt.Errorf("repo.FleetRepo.SetDocument: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.FleetRepo.SetDocument: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgFleetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := execDelete(ctx, r.db, `DELETE FROM fleets WHERE id = @id`, id); err != nil {
		return fmt.Errorf("repo.FleetRepo.Delete: %w", err)
	}
	return nil
}

func (r *pgFleetRepo) CountDrivers(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM drivers WHERE fleet_id = @id`, pgx.NamedArgs{"id": id}).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repo.FleetRepo.CountDrivers: %w", err)
	}
	return n, nil
}

func scanFleet(s scanner) (domain.Fleet, error) {
	var (
		f                    domain.Fleet
		id, agencyID, areaID pgtype.UUID
		keur, stnk, vehicle  pgtype.Date
	)
	err := s.Scan(&id, &agencyID, &f.LicensePlate, &f.ManufactureYear, &f.KeurNumber,
		&keur, &stnk, &vehicle, &f.KeurDocument, &f.StnkDocument,
		&f.IsActive, &f.CreatedAt, &f.UpdatedAt, &f.AgencyName, &areaID, &f.AreaName)
	if err != nil {
		return domain.Fleet{}, notFound(err)
	}
	f.ID = uuid.UUID(id.Bytes)
	f.AgencyID = uuid.UUID(agencyID.Bytes)
	f.AreaID = uuid.UUID(areaID.Bytes)
	f.KeurExpiry = dateFromPg(keur)
	f.StnkExpiry = dateFromPg(stnk)
	f.VehicleExpiry = dateFromPg(vehicle)
	return f, nil
}
