package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/expiry"
)

// Driver is a person assigned to drive a fleet vehicle. A fleet has at most
// one active driver; the rest form its history.
type Driver struct {
	ID            uuid.UUID
	FleetID       uuid.UUID
	Name          string
	Age           int
	SimExpiry     *time.Time
	SimDocument   string
	IsActive      bool
	AssignedAt    *time.Time
	DeactivatedAt *time.Time // nil while active
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Joined, read-only.
	LicensePlate string
	AgencyName   string
	AreaID       uuid.UUID
}

// SimStatus classifies the driver's licence at now.
func (d Driver) SimStatus(now time.Time) expiry.Status {
	return expiry.ClassifySim(d.SimExpiry, now)
}

const (
	DriverMinAge     = 18
	DriverMaxAge     = 65
	DriverNameMaxLen = 100
)

// DriverFilter narrows a driver listing.
type DriverFilter struct {
	// Search matches driver name, license plate or agency name.
	Search    string
	AreaID    *uuid.UUID
	FleetID   *uuid.UUID
	SimStatus *expiry.Status
	Active    *bool
	Scope     AreaScope
	AsOf      time.Time
}

// DriverStats summarises a driver listing.
type DriverStats struct {
	StatusCounts
	Sim StatusTally `json:"sim"`
}

// AssignMode selects how AssignDriver finds the incoming driver.
type AssignMode string

const (
	// AssignNew creates a fresh driver record.
	AssignNew AssignMode = "new"
	// AssignExisting re-homes and reactivates an existing driver.
	AssignExisting AssignMode = "existing"
)

// AssignDriverInput carries the payload of a reassignment. Name, Age and
// SimExpiry are used by AssignNew; DriverID by AssignExisting.
type AssignDriverInput struct {
	Mode      AssignMode
	DriverID  uuid.UUID
	Name      string
	Age       int
	SimExpiry *time.Time
}
