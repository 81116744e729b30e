package domain

import (
	"time"

	"github.com/google/uuid"
)

// Agency is a distribution agent operating inside one area and region.
// AreaName, RegionCity and RegionSBM are read-only, joined in by the repo.
type Agency struct {
	ID              uuid.UUID `json:"id"`
	AreaID          uuid.UUID `json:"area_id"`
	RegionID        uuid.UUID `json:"region_id"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	CylinderCount   int       `json:"cylinder_count"`
	DailyAllocation int       `json:"daily_allocation"`
	IsActive        bool      `json:"is_active"`
	AreaName        string    `json:"area_name,omitempty"`
	RegionCity      string    `json:"region_city,omitempty"`
	RegionSBM       string    `json:"region_sbm,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AgencyFilter narrows an agency listing.
type AgencyFilter struct {
	// Search matches agency name, address or area name.
	Search string
	AreaID *uuid.UUID
	Active *bool
	Scope  AreaScope
}
