package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role is a user's back-office role.
type Role string

const (
	RoleSuperAdmin Role = "super-admin"
	RoleManager    Role = "manager"
	RoleAsmen      Role = "asmen"
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleManager, RoleAsmen, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// SeesAllAreas reports whether the role bypasses area assignment.
func (r Role) SeesAllAreas() bool {
	switch r {
	case RoleSuperAdmin, RoleManager, RoleAsmen, RoleAdmin:
		return true
	}
	return false
}

// ManagesUsers reports whether the role may administer user accounts.
func (r Role) ManagesUsers() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// User is a back-office account.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	IsActive     bool        `json:"is_active"`
	AreaIDs      []uuid.UUID `json:"area_ids"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Scope derives the user's area scope from role and assignments.
func (u User) Scope() AreaScope {
	if u.Role.SeesAllAreas() {
		return AreaScope{All: true}
	}
	return AreaScope{AreaIDs: u.AreaIDs}
}

// AreaScope is the set of areas a caller may read and write.
// The zero value allows nothing.
type AreaScope struct {
	All     bool
	AreaIDs []uuid.UUID
}

// Allows reports whether id is inside the scope.
func (s AreaScope) Allows(id uuid.UUID) bool {
	return s.All || slices.Contains(s.AreaIDs, id)
}

// UserFilter narrows a user listing.
type UserFilter struct {
	// Search matches name or email.
	Search string
	Role   *Role
	Active *bool
}
