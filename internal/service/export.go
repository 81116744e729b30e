package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

const missing = "-"

// ExportService flattens fleets with their agency and active driver into
// spreadsheet rows.
type ExportService struct {
	agencies repo.AgencyRepo
	fleets   repo.FleetRepo
	drivers  repo.DriverRepo
	now      Clock
}

// NewExportService constructs an ExportService backed by the provided repos.
func NewExportService(agencies repo.AgencyRepo, fleets repo.FleetRepo, drivers repo.DriverRepo) *ExportService {
	return &ExportService{agencies: agencies, fleets: fleets, drivers: drivers, now: systemClock}
}

// WithClock replaces the service clock. Intended for tests.
func (s *ExportService) WithClock(c Clock) *ExportService {
	s.now = c
	return s
}

// Now returns the service clock reading, used to date the export file.
func (s *ExportService) Now() time.Time { return s.now() }

// FleetRows returns one row per fleet inside scope, ordered by license
// plate. areaID narrows the export to one area when non-nil.
func (s *ExportService) FleetRows(ctx context.Context, scope domain.AreaScope, areaID *uuid.UUID) ([]domain.FleetExportRow, error) {
	if areaID != nil {
		if err := checkScope(scope, *areaID); err != nil {
			return nil, fmt.Errorf("service.ExportService.FleetRows: %w", err)
		}
	}

	fleets, err := s.fleets.List(ctx, domain.FleetFilter{AreaID: areaID, Scope: scope})
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.FleetRows: %w", err)
	}
	agencies, err := s.agencies.List(ctx, domain.AgencyFilter{AreaID: areaID, Scope: scope})
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.FleetRows: %w", err)
	}
	byID := make(map[uuid.UUID]domain.Agency, len(agencies))
	for _, a := range agencies {
		byID[a.ID] = a
	}

	now := s.now()
	views, err := fleetViews(ctx, s.drivers, fleets, now)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.FleetRows: %w", err)
	}
	slices.SortFunc(views, func(a, b domain.FleetView) int {
		return strings.Compare(a.Fleet.LicensePlate, b.Fleet.LicensePlate)
	})

	rows := make([]domain.FleetExportRow, len(views))
	for i, v := range views {
		rows[i] = exportRow(v, byID[v.Fleet.AgencyID], now)
	}
	return rows, nil
}

func exportRow(v domain.FleetView, a domain.Agency, now time.Time) domain.FleetExportRow {
	row := domain.FleetExportRow{
		AgencyName:       orMissing(a.Name),
		AgencyAddress:    orMissing(a.Address),
		RegionCity:       orMissing(a.RegionCity),
		AreaName:         orMissing(v.Fleet.AreaName),
		RegionSBM:        orMissing(a.RegionSBM),
		LicensePlate:     v.Fleet.LicensePlate,
		ManufactureYear:  v.Fleet.ManufactureYear,
		KeurNumber:       v.Fleet.KeurNumber,
		KeurExpiry:       formatDate(v.Fleet.KeurExpiry),
		KeurStatus:       v.Statuses.Keur.Label(),
		StnkExpiry:       formatDate(v.Fleet.StnkExpiry),
		StnkStatus:       v.Statuses.Stnk.Label(),
		VehicleExpiry:    formatDate(v.Fleet.VehicleExpiry),
		VehicleAgeStatus: v.Statuses.VehicleAge.Label(),
		DriverName:       missing,
		DriverAge:        missing,
		SimStatus:        missing,
		CylinderCount:    a.CylinderCount,
		DailyAllocation:  a.DailyAllocation,
	}
	if d := v.Drivers.Active; d != nil {
		row.DriverName = d.Name
		row.DriverAge = strconv.Itoa(d.Age)
		row.SimStatus = d.SimStatus(now).Label()
	}
	return row
}

func formatDate(t *time.Time) string {
	if t == nil {
		return missing
	}
	return t.Format("2006-01-02")
}

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}
