// Package domain contains the core data types for the smart-agen back office.
// This package has no dependencies beyond uuid and the pure expiry rules, and
// is imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Area is the top-level geographic grouping. Regions, agencies and user
// access scopes all hang off an area.
type Area struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"` // always upper case
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AreaFilter narrows an area listing.
type AreaFilter struct {
	// Search matches name or code, case-insensitively.
	Search string
	// Active filters on is_active when non-nil.
	Active *bool
	Scope  AreaScope
}

// Region is a city-level subdivision of an area. Agencies reference one.
type Region struct {
	ID        uuid.UUID `json:"id"`
	AreaID    uuid.UUID `json:"area_id"`
	City      string    `json:"city"`
	RegionSBM string    `json:"region_sbm"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusCounts tallies records by their active flag.
type StatusCounts struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Total    int `json:"total"`
}
