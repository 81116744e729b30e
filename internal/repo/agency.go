package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/adityardiansyah/smart-agen/internal/domain"
)

// AgencyRepo defines the persistence operations for Agencies.
// Reads join in the area name and region labels.
type AgencyRepo interface {
	Create(ctx context.Context, agency domain.Agency) (domain.Agency, error)

	// GetByID returns domain.ErrNotFound if no agency with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Agency, error)

	// ListPaged returns one page of agencies ordered by name, plus the total.
	ListPaged(ctx context.Context, f domain.AgencyFilter, p domain.PaginationParams) ([]domain.Agency, int, error)

	// List returns every agency matching the filter, ordered by name.
	List(ctx context.Context, f domain.AgencyFilter) ([]domain.Agency, error)

	// Stats counts active and inactive agencies in scope, honouring AreaID.
	Stats(ctx context.Context, f domain.AgencyFilter) (domain.StatusCounts, error)

	// Summary aggregates counts and totals for one area.
	Summary(ctx context.Context, areaID uuid.UUID) (domain.AreaSummary, error)

	Update(ctx context.Context, agency domain.Agency) (domain.Agency, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// CountFleets returns how many fleets belong to the agency.
	CountFleets(ctx context.Context, id uuid.UUID) (int, error)
}

type pgAgencyRepo struct {
	db db
}

// NewAgencyRepo constructs an AgencyRepo backed by the provided db connection.
func NewAgencyRepo(db db) AgencyRepo {
	return &pgAgencyRepo{db: db}
}

const agencySelect = `
	SELECT ag.id, ag.area_id, ag.region_id, ag.name, ag.address, ag.cylinder_count,
	       ag.daily_allocation, ag.is_active, ag.created_at, ag.updated_at,
	       ar.name, rg.city, rg.region_sbm
	FROM agencies ag
	JOIN areas ar ON ar.id = ag.area_id
	JOIN regions rg ON rg.id = ag.region_id`

func agencyArgs(a domain.Agency) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":               a.ID,
		"area_id":          a.AreaID,
		"region_id":        a.RegionID,
		"name":             a.Name,
		"address":          a.Address,
		"cylinder_count":   a.CylinderCount,
		"daily_allocation": a.DailyAllocation,
		"is_active":        a.IsActive,
	}
}

func (r *pgAgencyRepo) Create(ctx context.Context, agency domain.Agency) (domain.Agency, error) {
	const q = `
		INSERT INTO agencies (area_id, region_id, name, address, cylinder_count, daily_allocation, is_active)
		VALUES (@area_id, @region_id, @name, @address, @cylinder_count, @daily_allocation, @is_active)
		RETURNING id`

	var id pgtype.UUID
	if err := r.db.QueryRow(ctx, q, agencyArgs(agency)).Scan(&id); err != nil {
		return domain.Agency{}, fmt.Errorf("repo.AgencyRepo.Create: %w", mapWriteError(err))
	}
	result, err := r.GetByID(ctx, uuid.UUID(id.Bytes))
	if err != nil {
		return domain.Agency{}, fmt.Errorf("repo.AgencyRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgAgencyRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Agency, error) {
	result, err := scanAgency(r.db.QueryRow(ctx, agencySelect+` WHERE ag.id = @id`, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Agency{}, fmt.Errorf("repo.AgencyRepo.GetByID: %w", err)
	}
	return result, nil
}

func agencyWhere(f domain.AgencyFilter) *where {
	w := newWhere()
	w.search(f.Search, "ag.name", "ag.address", "ar.name")
	if f.AreaID != nil {
		w.add("ag.area_id = @area_id", pgx.NamedArgs{"area_id": *f.AreaID})
	}
	w.active("ag.is_active", f.Active)
	w.scope("ag.area_id", f.Scope)
	return w
}

func (r *pgAgencyRepo) ListPaged(ctx context.Context, f domain.AgencyFilter, p domain.PaginationParams) ([]domain.Agency, int, error) {
	w := agencyWhere(f)

	var total int
	countQ := `SELECT count(*) FROM agencies ag JOIN areas ar ON ar.id = ag.area_id ` + w.String()
	if err := r.db.QueryRow(ctx, countQ, w.args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.AgencyRepo.ListPaged: count: %w", err)
	}

	agencies, err := r.query(ctx, agencySelect+` `+w.String()+` ORDER BY ag.name LIMIT @limit OFFSET @offset`, w.paged(p))
	if err != nil {
		return nil, 0, fmt.Errorf("repo.AgencyRepo.ListPaged: %w", err)
	}
	return agencies, total, nil
}

func (r *pgAgencyRepo) List(ctx context.Context, f domain.AgencyFilter) ([]domain.Agency, error) {
	w := agencyWhere(f)
	agencies, err := r.query(ctx, agencySelect+` `+w.String()+` ORDER BY ag.name`, w.args)
	if err != nil {
		return nil, fmt.Errorf("repo.AgencyRepo.List: %w", err)
	}
	return agencies, nil
}

func (r *pgAgencyRepo) query(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Agency, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agencies := []domain.Agency{}
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		agencies = append(agencies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return agencies, nil
}

func (r *pgAgencyRepo) Stats(ctx context.Context, f domain.AgencyFilter) (domain.StatusCounts, error) {
	w := newWhere()
	if f.AreaID != nil {
		w.add("ag.area_id = @area_id", pgx.NamedArgs{"area_id": *f.AreaID})
	}
	w.scope("ag.area_id", f.Scope)

	q := `SELECT count(*) FILTER (WHERE ag.is_active), count(*) FILTER (WHERE NOT ag.is_active), count(*)
		FROM agencies ag ` + w.String()

	var s domain.StatusCounts
	if err := r.db.QueryRow(ctx, q, w.args).Scan(&s.Active, &s.Inactive, &s.Total); err != nil {
		return domain.StatusCounts{}, fmt.Errorf("repo.AgencyRepo.Stats: %w", err)
	}
	return s, nil
}

func (r *pgAgencyRepo) Summary(ctx context.Context, areaID uuid.UUID) (domain.AreaSummary, error) {
	const q = `
		SELECT count(*),
		       coalesce(sum(ag.cylinder_count), 0),
		       coalesce(sum(ag.daily_allocation), 0),
		       (SELECT count(*) FROM fleets f JOIN agencies a2 ON a2.id = f.agency_id
		         WHERE a2.area_id = @area_id),
		       (SELECT count(*) FROM drivers d JOIN fleets f ON f.id = d.fleet_id
		         JOIN agencies a3 ON a3.id = f.agency_id WHERE a3.area_id = @area_id)
		FROM agencies ag
		WHERE ag.area_id = @area_id`

	var s domain.AreaSummary
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"area_id": areaID}).
		Scan(&s.AgencyCount, &s.CylinderTotal, &s.DailyAllocationTotal, &s.FleetCount, &s.DriverCount)
	if err != nil {
		return domain.AreaSummary{}, fmt.Errorf("repo.AgencyRepo.Summary: %w", err)
	}
	return s, nil
}

func (r *pgAgencyRepo) Update(ctx context.Context, agency domain.Agency) (domain.Agency, error) {
	const q = `
		UPDATE agencies
		SET area_id          = @area_id,
		    region_id        = @region_id,
		    name             = @name,
		    address          = @address,
		    cylinder_count   = @cylinder_count,
		    daily_allocation = @daily_allocation,
		    is_active        = @is_active,
		    updated_at       = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, agencyArgs(agency))
	if err != nil {
		return domain.Agency{}, fmt.Errorf("repo.AgencyRepo.Update: %w", mapWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.Agency{}, fmt.Errorf("repo.AgencyRepo.Update: %w", domain.ErrNotFound)
	}
	result, err := r.GetByID(ctx, agency.ID)
	if err != nil {
		return domain.Agency{}, fmt.Errorf("repo.AgencyRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgAgencyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := execDelete(ctx, r.db, `DELETE FROM agencies WHERE id = @id`, id); err != nil {
		return fmt.Errorf("repo.AgencyRepo.Delete: %w", err)
	}
	return nil
}

func (r *pgAgencyRepo) CountFleets(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM fleets WHERE agency_id = @id`, pgx.NamedArgs{"id": id}).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repo.AgencyRepo.CountFleets: %w", err)
	}
	return n, nil
}

func scanAgency(s scanner) (domain.Agency, error) {
	var (
		a                    domain.Agency
		id, areaID, regionID pgtype.UUID
	)
	err := s.Scan(&id, &areaID, &regionID, &a.Name, &a.Address, &a.CylinderCount,
		&a.DailyAllocation, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
		&a.AreaName, &a.RegionCity, &a.RegionSBM)
	if err != nil {
		return domain.Agency{}, notFound(err)
	}
	a.ID = uuid.UUID(id.Bytes)
	a.AreaID = uuid.UUID(areaID.Bytes)
	a.RegionID = uuid.UUID(regionID.Bytes)
	return a, nil
}
