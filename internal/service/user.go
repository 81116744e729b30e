package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/auth"
	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

const (
	userNameMaxLen    = 100
	passwordMinLength = 8
)

// UserService implements user administration. Every call takes the acting
// user; only roles that manage users may call it.
type UserService struct {
	users repo.UserRepo
	tx    repo.Transactor
	log   *slog.Logger
}

// NewUserService constructs a UserService. Writes touch users and
// user_areas together, so they run through tx.
func NewUserService(users repo.UserRepo, tx repo.Transactor, log *slog.Logger) *UserService {
	return &UserService{users: users, tx: tx, log: log}
}

// Create validates and persists a new user with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, actor domain.User, user domain.User, password string) (domain.User, error) {
	if err := checkManager(actor); err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Create: %w", err)
	}
	user = normalizeUser(user)
	if err := validateUser(user, password, true); err != nil {
		return domain.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Create: %w", err)
	}
	user.PasswordHash = hash

	var created domain.User
	err = s.tx.WithinTx(ctx, func(r repo.Repos) error {
		var err error
		created, err = r.Users.Create(ctx, user)
		return err
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Create: %w", err)
	}
	s.log.InfoContext(ctx, "user created", "user_id", created.ID, "role", created.Role, "by", actor.ID)
	return created, nil
}

// GetByID returns a single user.
func (s *UserService) GetByID(ctx context.Context, actor domain.User, id uuid.UUID) (domain.User, error) {
	if err := checkManager(actor); err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.GetByID: %w", err)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.GetByID: %w", err)
	}
	return user, nil
}

// ListPaged returns one page of users and the total match count.
func (s *UserService) ListPaged(ctx context.Context, actor domain.User, f domain.UserFilter, p domain.PaginationParams) ([]domain.User, int, error) {
	if err := checkManager(actor); err != nil {
		return nil, 0, fmt.Errorf("service.UserService.ListPaged: %w", err)
	}
	users, total, err := s.users.ListPaged(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.UserService.ListPaged: %w", err)
	}
	return users, total, nil
}

// Update validates and persists changes to a user. An empty password keeps
// the current one. Area assignments are replaced.
func (s *UserService) Update(ctx context.Context, actor domain.User, user domain.User, password string) (domain.User, error) {
	if err := checkManager(actor); err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Update: %w", err)
	}
	user = normalizeUser(user)
	if err := validateUser(user, password, false); err != nil {
		return domain.User{}, err
	}
	if user.ID == actor.ID && !user.IsActive {
		return domain.User{}, fmt.Errorf("service.UserService.Update: %w: you cannot deactivate your own account", domain.ErrValidation)
	}
	user.PasswordHash = ""
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return domain.User{}, fmt.Errorf("service.UserService.Update: %w", err)
		}
		user.PasswordHash = hash
	}

	var updated domain.User
	err := s.tx.WithinTx(ctx, func(r repo.Repos) error {
		var err error
		updated, err = r.Users.Update(ctx, user)
		return err
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Update: %w", err)
	}
	return updated, nil
}

// ToggleStatus flips is_active. Users cannot deactivate themselves.
func (s *UserService) ToggleStatus(ctx context.Context, actor domain.User, id uuid.UUID) (domain.User, error) {
	if err := checkManager(actor); err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.ToggleStatus: %w", err)
	}
	if id == actor.ID {
		return domain.User{}, fmt.Errorf("service.UserService.ToggleStatus: %w: you cannot deactivate your own account", domain.ErrValidation)
	}

	var updated domain.User
	err := s.tx.WithinTx(ctx, func(r repo.Repos) error {
		user, err := r.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user.IsActive = !user.IsActive
		user.PasswordHash = ""
		updated, err = r.Users.Update(ctx, user)
		return err
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.ToggleStatus: %w", err)
	}
	return updated, nil
}

// Delete removes a user. Users cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor domain.User, id uuid.UUID) error {
	if err := checkManager(actor); err != nil {
		return fmt.Errorf("service.UserService.Delete: %w", err)
	}
	if id == actor.ID {
		return fmt.Errorf("service.UserService.Delete: %w: you cannot delete your own account", domain.ErrValidation)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.UserService.Delete: %w", err)
	}
	s.log.InfoContext(ctx, "user deleted", "user_id", id, "by", actor.ID)
	return nil
}

// EnsureBootstrapAdmin creates a super-admin when the users table is empty,
// so a fresh install can log in. It does nothing when email is empty or
// any user exists.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("service.UserService.EnsureBootstrapAdmin: %w", err)
	}
	if n > 0 {
		return nil
	}

	admin := normalizeUser(domain.User{Name: "Super Admin", Email: email, Role: domain.RoleSuperAdmin, IsActive: true})
	if err := validateUser(admin, password, true); err != nil {
		return fmt.Errorf("service.UserService.EnsureBootstrapAdmin: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("service.UserService.EnsureBootstrapAdmin: %w", err)
	}
	admin.PasswordHash = hash
	created, err := s.users.Create(ctx, admin)
	if err != nil {
		return fmt.Errorf("service.UserService.EnsureBootstrapAdmin: %w", err)
	}
	s.log.InfoContext(ctx, "bootstrap admin created", "user_id", created.ID, "email", created.Email)
	return nil
}

func checkManager(actor domain.User) error {
	if !actor.Role.ManagesUsers() {
		return fmt.Errorf("%w: only administrators manage users", domain.ErrForbidden)
	}
	return nil
}

func normalizeUser(u domain.User) domain.User {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return u
}

func validateUser(u domain.User, password string, passwordRequired bool) error {
	v := &validator{}
	v.required("name", u.Name)
	v.maxLen("name", u.Name, userNameMaxLen)
	v.required("email", u.Email)
	if u.Email != "" {
		if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
			v.fail("email is not a valid address")
		}
	}
	if passwordRequired || password != "" {
		if len(password) < passwordMinLength {
			v.fail("password must be at least %d characters", passwordMinLength)
		}
	}
	if !u.Role.Valid() {
		v.fail("role %q is not valid", u.Role)
	}
	return v.err
}
