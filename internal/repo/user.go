package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/adityardiansyah/smart-agen/internal/domain"
)

// UserRepo defines the persistence operations for Users and their area
// assignments. Reads always populate AreaIDs.
type UserRepo interface {
	// Create inserts a user and its area assignments. A duplicate email
	// yields domain.ErrConflict.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetByEmail looks a user up case-insensitively.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	ListPaged(ctx context.Context, f domain.UserFilter, p domain.PaginationParams) ([]domain.User, int, error)

	// Update overwrites profile fields and replaces the area assignments.
	// The password hash is left alone when user.PasswordHash is empty.
	Update(ctx context.Context, user domain.User) (domain.User, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the number of users.
	Count(ctx context.Context) (int, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userSelect = `
	SELECT u.id, u.name, u.email, u.password_hash, u.role, u.is_active, u.created_at, u.updated_at,
	       coalesce(array_agg(ua.area_id) FILTER (WHERE ua.area_id IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN user_areas ua ON ua.user_id = u.id`

const userGroup = ` GROUP BY u.id`

func (r *pgUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (name, email, password_hash, role, is_active)
		VALUES (@name, lower(@email), @password_hash, @role, @is_active)
		RETURNING id`

	var id pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"name":          user.Name,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"is_active":     user.IsActive,
	}).Scan(&id)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", mapWriteError(err))
	}

	userID := uuid.UUID(id.Bytes)
	if err := r.setAreas(ctx, userID, user.AreaIDs); err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}

	result, err := r.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	q := userSelect + ` WHERE u.id = @id` + userGroup
	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	q := userSelect + ` WHERE u.email = lower(@email)` + userGroup
	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) ListPaged(ctx context.Context, f domain.UserFilter, p domain.PaginationParams) ([]domain.User, int, error) {
	w := newWhere()
	w.search(f.Search, "u.name", "u.email")
	if f.Role != nil {
		w.add("u.role = @role", pgx.NamedArgs{"role": string(*f.Role)})
	}
	w.active("u.is_active", f.Active)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users u `+w.String(), w.args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.UserRepo.ListPaged: count: %w", err)
	}

	q := userSelect + ` ` + w.String() + userGroup + ` ORDER BY u.name LIMIT @limit OFFSET @offset`
	rows, err := r.db.Query(ctx, q, w.paged(p))
	if err != nil {
		return nil, 0, fmt.Errorf("repo.UserRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.UserRepo.ListPaged: scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.UserRepo.ListPaged: rows: %w", err)
	}
	return users, total, nil
}

func (r *pgUserRepo) Update(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		UPDATE users
		SET name          = @name,
		    email         = lower(@email),
		    password_hash = coalesce(nullif(@password_hash, ''), password_hash),
		    role          = @role,
		    is_active     = @is_active,
		    updated_at    = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"is_active":     user.IsActive,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Update: %w", mapWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Update: %w", domain.ErrNotFound)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM user_areas WHERE user_id = @id`, pgx.NamedArgs{"id": user.ID}); err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Update: clear areas: %w", err)
	}
	if err := r.setAreas(ctx, user.ID, user.AreaIDs); err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Update: %w", err)
	}

	result, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) setAreas(ctx context.Context, userID uuid.UUID, areaIDs []uuid.UUID) error {
	if len(areaIDs) == 0 {
		return nil
	}
	const q = `
		INSERT INTO user_areas (user_id, area_id)
		SELECT @user_id::uuid, unnest(@area_ids::uuid[])
		ON CONFLICT DO NOTHING`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID, "area_ids": areaIDs}); err != nil {
		return fmt.Errorf("set areas: %w", mapWriteError(err))
	}
	return nil
}

func (r *pgUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := execDelete(ctx, r.db, `DELETE FROM users WHERE id = @id`, id); err != nil {
		return fmt.Errorf("repo.UserRepo.Delete: %w", err)
	}
	return nil
}

func (r *pgUserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.UserRepo.Count: %w", err)
	}
	return n, nil
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u       domain.User
		id      pgtype.UUID
		role    string
		areaIDs []pgtype.UUID
	)
	err := s.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &role, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt, &areaIDs)
	if err != nil {
		return domain.User{}, notFound(err)
	}
	u.ID = uuid.UUID(id.Bytes)
	u.Role = domain.Role(role)
	u.AreaIDs = make([]uuid.UUID, 0, len(areaIDs))
	for _, a := range areaIDs {
		u.AreaIDs = append(u.AreaIDs, uuid.UUID(a.Bytes))
	}
	return u, nil
}
