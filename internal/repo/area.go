package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/adityardiansyah/smart-agen/internal/domain"
)

// AreaRepo defines the persistence operations for Areas.
type AreaRepo interface {
	// Create inserts a new area and returns the persisted record.
	Create(ctx context.Context, area domain.Area) (domain.Area, error)

	// GetByID returns domain.ErrNotFound if no area with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Area, error)

	// ListPaged returns one page of areas ordered by name, plus the total
	// number of matching rows.
	ListPaged(ctx context.Context, f domain.AreaFilter, p domain.PaginationParams) ([]domain.Area, int, error)

	// Stats counts active and inactive areas inside the filter's scope.
	// Search and Active are ignored so the totals describe the whole scope.
	Stats(ctx context.Context, f domain.AreaFilter) (domain.StatusCounts, error)

	// Update overwrites name, code and is_active.
	Update(ctx context.Context, area domain.Area) (domain.Area, error)

	// Delete removes an area. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountDependents returns how many agencies and user assignments
	// reference the area.
	CountDependents(ctx context.Context, id uuid.UUID) (agencies, users int, err error)
}

type pgAreaRepo struct {
	db db
}

// NewAreaRepo constructs an AreaRepo backed by the provided db connection.
func NewAreaRepo(db db) AreaRepo {
	return &pgAreaRepo{db: db}
}

const areaColumns = `id, name, code, is_active, created_at, updated_at`

func (r *pgAreaRepo) Create(ctx context.Context, area domain.Area) (domain.Area, error) {
	const q = `
		INSERT INTO areas (name, code, is_active)
		VALUES (@name, @code, @is_active)
		RETURNING ` + areaColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"name":      area.Name,
		"code":      area.Code,
		"is_active": area.IsActive,
	})
	result, err := scanArea(row)
	if err != nil {
		return domain.Area{}, fmt.Errorf("repo.AreaRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgAreaRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Area, error) {
	const q = `SELECT ` + areaColumns + ` FROM areas WHERE id = @id`

	result, err := scanArea(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Area{}, fmt.Errorf("repo.AreaRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgAreaRepo) ListPaged(ctx context.Context, f domain.AreaFilter, p domain.PaginationParams) ([]domain.Area, int, error) {
	w := newWhere()
	w.search(f.Search, "name", "code")
	w.active("is_active", f.Active)
	w.scope("id", f.Scope)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM areas `+w.String(), w.args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.AreaRepo.ListPaged: count: %w", err)
	}

	q := `SELECT ` + areaColumns + ` FROM areas ` + w.String() + `
		ORDER BY name
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, w.paged(p))
	if err != nil {
		return nil, 0, fmt.Errorf("repo.AreaRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	areas := []domain.Area{}
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.AreaRepo.ListPaged: scan: %w", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.AreaRepo.ListPaged: rows: %w", err)
	}
	return areas, total, nil
}

func (r *pgAreaRepo) Stats(ctx context.Context, f domain.AreaFilter) (domain.StatusCounts, error) {
	w := newWhere()
	w.scope("id", f.Scope)

	q := `SELECT count(*) FILTER (WHERE is_active), count(*) FILTER (WHERE NOT is_active), count(*)
		FROM areas ` + w.String()

	var s domain.StatusCounts
	if err := r.db.QueryRow(ctx, q, w.args).Scan(&s.Active, &s.Inactive, &s.Total); err != nil {
		return domain.StatusCounts{}, fmt.Errorf("repo.AreaRepo.Stats: %w", err)
	}
	return s, nil
}

func (r *pgAreaRepo) Update(ctx context.Context, area domain.Area) (domain.Area, error) {
	const q = `
		UPDATE areas
		SET name       = @name,
		    code       = @code,
		    is_active  = @is_active,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + areaColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":        area.ID,
		"name":      area.Name,
		"code":      area.Code,
		"is_active": area.IsActive,
	})
	result, err := scanArea(row)
	if err != nil {
		return domain.Area{}, fmt.Errorf("repo.AreaRepo.Update: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgAreaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := execDelete(ctx, r.db, `DELETE FROM areas WHERE id = @id`, id); err != nil {
		return fmt.Errorf("repo.AreaRepo.Delete: %w", err)
	}
	return nil
}

func (r *pgAreaRepo) CountDependents(ctx context.Context, id uuid.UUID) (int, int, error) {
	const q = `
		SELECT (SELECT count(*) FROM agencies WHERE area_id = @id),
		       (SELECT count(*) FROM user_areas WHERE area_id = @id)`

	var agencies, users int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&agencies, &users); err != nil {
		return 0, 0, fmt.Errorf("repo.AreaRepo.CountDependents: %w", err)
	}
	return agencies, users, nil
}

func scanArea(s scanner) (domain.Area, error) {
	var (
		a  domain.Area
		id pgtype.UUID
	)
	if err := s.Scan(&id, &a.Name, &a.Code, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return domain.Area{}, notFound(err)
	}
	a.ID = uuid.UUID(id.Bytes)
	return a, nil
}
