package handler

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
)

// FleetResponse is the wire form of a fleet.
type FleetResponse struct {
	ID              uuid.UUID           `json:"id"`
	AgencyID        uuid.UUID           `json:"agency_id"`
	AgencyName      string              `json:"agency_name,omitempty"`
	AreaID          uuid.UUID           `json:"area_id"`
	AreaName        string              `json:"area_name,omitempty"`
	LicensePlate    string              `json:"license_plate"`
	ManufactureYear int                 `json:"manufacture_year"`
	KeurNumber      string              `json:"keur_number"`
	KeurExpiry      *openapi_types.Date `json:"keur_expiry"`
	StnkExpiry      *openapi_types.Date `json:"stnk_expiry"`
	VehicleExpiry   *openapi_types.Date `json:"vehicle_expiry"`
	KeurDocument    *string             `json:"keur_document"`
	StnkDocument    *string             `json:"stnk_document"`
	IsActive        bool                `json:"is_active"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// StatusesResponse carries the derived expiry buckets of a fleet.
type StatusesResponse struct {
	Keur       expiry.Status `json:"keur_status"`
	Stnk       expiry.Status `json:"stnk_status"`
	VehicleAge expiry.Status `json:"vehicle_age_status"`
}

// DriverResponse is the wire form of a driver.
type DriverResponse struct {
	ID            uuid.UUID           `json:"id"`
	FleetID       uuid.UUID           `json:"fleet_id"`
	LicensePlate  string              `json:"license_plate,omitempty"`
	AgencyName    string              `json:"agency_name,omitempty"`
	AreaID        uuid.UUID           `json:"area_id"`
	Name          string              `json:"name"`
	Age           int                 `json:"age"`
	SimExpiry     *openapi_types.Date `json:"sim_expiry"`
	SimStatus     expiry.Status       `json:"sim_status"`
	SimDocument   *string             `json:"sim_document"`
	IsActive      bool                `json:"is_active"`
	AssignedAt    *time.Time          `json:"assigned_at"`
	DeactivatedAt *time.Time          `json:"deactivated_at"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// FleetDriversResponse is the active driver and the history of a fleet.
type FleetDriversResponse struct {
	Active  *DriverResponse  `json:"active_driver"`
	History []DriverResponse `json:"history"`
}

// FleetViewResponse is a fleet with statuses and drivers.
type FleetViewResponse struct {
	FleetResponse
	Statuses StatusesResponse     `json:"statuses"`
	Drivers  FleetDriversResponse `json:"drivers"`
}

// AgencyTreeResponse is an agency with its fleets.
type AgencyTreeResponse struct {
	domain.Agency
	Fleets []FleetViewResponse `json:"fleets"`
}

// DashboardResponse is the per-area overview.
type DashboardResponse struct {
	Area     domain.Area          `json:"area"`
	Summary  domain.AreaSummary   `json:"summary"`
	Agencies []AgencyTreeResponse `json:"agencies"`
}

func fleetToResponse(f domain.Fleet) FleetResponse {
	return FleetResponse{
		ID:              f.ID,
		AgencyID:        f.AgencyID,
		AgencyName:      f.AgencyName,
		AreaID:          f.AreaID,
		AreaName:        f.AreaName,
		LicensePlate:    f.LicensePlate,
		ManufactureYear: f.ManufactureYear,
		KeurNumber:      f.KeurNumber,
		KeurExpiry:      dateOut(f.KeurExpiry),
		StnkExpiry:      dateOut(f.StnkExpiry),
		VehicleExpiry:   dateOut(f.VehicleExpiry),
		KeurDocument:    optional(f.KeurDocument),
		StnkDocument:    optional(f.StnkDocument),
		IsActive:        f.IsActive,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

func driverToResponse(d domain.Driver, now time.Time) DriverResponse {
	return DriverResponse{
		ID:            d.ID,
		FleetID:       d.FleetID,
		LicensePlate:  d.LicensePlate,
		AgencyName:    d.AgencyName,
		AreaID:        d.AreaID,
		Name:          d.Name,
		Age:           d.Age,
		SimExpiry:     dateOut(d.SimExpiry),
		SimStatus:     d.SimStatus(now),
		SimDocument:   optional(d.SimDocument),
		IsActive:      d.IsActive,
		AssignedAt:    d.AssignedAt,
		DeactivatedAt: d.DeactivatedAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func fleetDriversToResponse(fd domain.FleetDrivers, now time.Time) FleetDriversResponse {
	out := FleetDriversResponse{History: make([]DriverResponse, len(fd.History))}
	if fd.Active != nil {
		a := driverToResponse(*fd.Active, now)
		out.Active = &a
	}
	for i, d := range fd.History {
		out.History[i] = driverToResponse(d, now)
	}
	return out
}

func fleetViewToResponse(v domain.FleetView, now time.Time) FleetViewResponse {
	return FleetViewResponse{
		FleetResponse: fleetToResponse(v.Fleet),
		Statuses:      StatusesResponse{Keur: v.Statuses.Keur, Stnk: v.Statuses.Stnk, VehicleAge: v.Statuses.VehicleAge},
		Drivers:       fleetDriversToResponse(v.Drivers, now),
	}
}

func fleetViewsToResponse(views []domain.FleetView, now time.Time) []FleetViewResponse {
	out := make([]FleetViewResponse, len(views))
	for i, v := range views {
		out[i] = fleetViewToResponse(v, now)
	}
	return out
}

func agencyTreeToResponse(t domain.AgencyTree, now time.Time) AgencyTreeResponse {
	return AgencyTreeResponse{Agency: t.Agency, Fleets: fleetViewsToResponse(t.Fleets, now)}
}

// dateOut converts a stored DATE into its wire form.
func dateOut(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}

// dateIn converts a wire date into midnight UTC.
func dateIn(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
