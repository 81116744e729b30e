package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/adityardiansyah/smart-agen/internal/domain"
)

// RegionRepo defines the persistence operations for Regions.
type RegionRepo interface {
	Create(ctx context.Context, region domain.Region) (domain.Region, error)

	// GetByID returns domain.ErrNotFound if no region with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Region, error)

	// ListByArea returns the regions of an area ordered by city.
	ListByArea(ctx context.Context, areaID uuid.UUID) ([]domain.Region, error)

	// Update overwrites city and region_sbm.
	Update(ctx context.Context, region domain.Region) (domain.Region, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// CountAgencies returns how many agencies reference the region.
	CountAgencies(ctx context.Context, id uuid.UUID) (int, error)
}

type pgRegionRepo struct {
	db db
}

// NewRegionRepo constructs a RegionRepo backed by the provided db connection.
func NewRegionRepo(db db) RegionRepo {
	return &pgRegionRepo{db: db}
}

const regionColumns = `id, area_id, city, region_sbm, created_at, updated_at`

func (r *pgRegionRepo) Create(ctx context.Context, region domain.Region) (domain.Region, error) {
	const q = `
		INSERT INTO regions (area_id, city, region_sbm)
		VALUES (@area_id, @city, @region_sbm)
		RETURNING ` + regionColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"area_id":    region.AreaID,
		"city":       region.City,
		"region_sbm": region.RegionSBM,
	})
	result, err := scanRegion(row)
	if err != nil {
		return domain.Region{}, fmt.Errorf("repo.RegionRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgRegionRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Region, error) {
	const q = `SELECT ` + regionColumns + ` FROM regions WHERE id = @id`

	result, err := scanRegion(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Region{}, fmt.Errorf("repo.RegionRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgRegionRepo) ListByArea(ctx context.Context, areaID uuid.UUID) ([]domain.Region, error) {
	const q = `SELECT ` + regionColumns + ` FROM regions WHERE area_id = @area_id ORDER BY city`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"area_id": areaID})
	if err != nil {
		return nil, fmt.Errorf("repo.RegionRepo.ListByArea: %w", err)
	}
	defer rows.Close()

	regions := []domain.Region{}
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.RegionRepo.ListByArea: scan: %w", err)
		}
		regions = append(regions, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RegionRepo.ListByArea: rows: %w", err)
	}
	return regions, nil
}

func (r *pgRegionRepo) Update(ctx context.Context, region domain.Region) (domain.Region, error) {
	const q = `
		UPDATE regions
		SET city       = @city,
		    region_sbm = @region_sbm,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + regionColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":         region.ID,
		"city":       region.City,
		"region_sbm": region.RegionSBM,
	})
	result, err := scanRegion(row)
	if err != nil {
		return domain.Region{}, fmt.Errorf("repo.RegionRepo.Update: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgRegionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := execDelete(ctx, r.db, `DELETE FROM regions WHERE id = @id`, id); err != nil {
		return fmt.Errorf("repo.RegionRepo.Delete: %w", err)
	}
	return nil
}

func (r *pgRegionRepo) CountAgencies(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM agencies WHERE region_id = @id`, pgx.NamedArgs{"id": id}).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repo.RegionRepo.CountAgencies: %w", err)
	}
	return n, nil
}

func scanRegion(s scanner) (domain.Region, error) {
	var (
		reg    domain.Region
		id     pgtype.UUID
		areaID pgtype.UUID
	)
	if err := s.Scan(&id, &areaID, &reg.City, &reg.RegionSBM, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		return domain.Region{}, notFound(err)
	}
	reg.ID = uuid.UUID(id.Bytes)
	reg.AreaID = uuid.UUID(areaID.Bytes)
	return reg, nil
}
