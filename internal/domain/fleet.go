package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/expiry"
)

// Fleet is a single vehicle owned by an agency.
// Expiry dates are nil only for legacy rows; new fleets always carry all three.
type Fleet struct {
	ID              uuid.UUID
	AgencyID        uuid.UUID
	LicensePlate    string
	ManufactureYear int
	KeurNumber      string
	KeurExpiry      *time.Time
	StnkExpiry      *time.Time
	VehicleExpiry   *time.Time
	KeurDocument    string // path relative to the upload root, empty when none
	StnkDocument    string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined, read-only.
	AgencyName string
	AreaID     uuid.UUID
	AreaName   string
}

// FleetStatuses holds the derived expiry buckets of a fleet. They are never
// stored; compute them with Fleet.Statuses on every read.
type FleetStatuses struct {
	Keur       expiry.Status
	Stnk       expiry.Status
	VehicleAge expiry.Status
}

// Statuses classifies the fleet's documents and age at now.
func (f Fleet) Statuses(now time.Time) FleetStatuses {
	return FleetStatuses{
		Keur:       expiry.ClassifyKeur(f.KeurExpiry, now),
		Stnk:       expiry.ClassifyStnk(f.StnkExpiry, now),
		VehicleAge: expiry.ClassifyVehicleAge(f.ManufactureYear, now),
	}
}

// FleetFilter narrows a fleet listing. Status filters are translated into
// date windows relative to AsOf, which the service sets to its clock.
type FleetFilter struct {
	// Search matches license plate or agency name.
	Search           string
	AreaID           *uuid.UUID
	AgencyID         *uuid.UUID
	KeurStatus       *expiry.Status
	StnkStatus       *expiry.Status
	VehicleAgeStatus *expiry.Status
	Active           *bool
	Scope            AreaScope
	AsOf             time.Time
}

// ExpiryFacts is the minimal projection needed to tally derived statuses.
type ExpiryFacts struct {
	IsActive        bool
	ManufactureYear int
	KeurExpiry      *time.Time
	StnkExpiry      *time.Time
	SimExpiry       *time.Time
}

// StatusTally counts records per derived expiry bucket.
type StatusTally struct {
	NotExpired int `json:"not_expired"`
	NearExpiry int `json:"near_expiry"`
	Expired    int `json:"expired"`
}

// Add increments the bucket for s.
func (t *StatusTally) Add(s expiry.Status) {
	switch s {
	case expiry.StatusNotExpired:
		t.NotExpired++
	case expiry.StatusNearExpiry:
		t.NearExpiry++
	case expiry.StatusExpired:
		t.Expired++
	}
}

// FleetStats summarises a fleet listing.
type FleetStats struct {
	StatusCounts
	Keur       StatusTally `json:"keur"`
	Stnk       StatusTally `json:"stnk"`
	VehicleAge StatusTally `json:"vehicle_age"`
}

// FleetDrivers is a fleet's driver set: the current active driver, if any,
// followed by every other driver ordered by assigned_at, most recent first.
type FleetDrivers struct {
	Active  *Driver
	History []Driver
}

// NewFleetDrivers splits drivers into the active one and the history.
// The input order is kept for the history.
func NewFleetDrivers(drivers []Driver) FleetDrivers {
	fd := FleetDrivers{History: []Driver{}}
	for i := range drivers {
		if drivers[i].IsActive && fd.Active == nil {
			d := drivers[i]
			fd.Active = &d
			continue
		}
		fd.History = append(fd.History, drivers[i])
	}
	return fd
}

// FleetView is a fleet together with its derived statuses and drivers.
type FleetView struct {
	Fleet    Fleet
	Statuses FleetStatuses
	Drivers  FleetDrivers
}

// FleetRegistration is the input of the fleet wizard: one fleet and up to
// two drivers saved together.
type FleetRegistration struct {
	Fleet   Fleet
	Drivers []Driver
}
