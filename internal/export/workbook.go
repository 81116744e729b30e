// Package export renders fleet export rows as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/adityardiansyah/smart-agen/internal/domain"
)

const sheetName = "Data Armada"

// Headers are the column titles of the fleet workbook, in order.
var Headers = []string{
	"No",
	"Nama Agen",
	"Alamat",
	"Kabupaten",
	"Provinsi",
	"Wilayah SBM",
	"Nopol Armada",
	"Tahun Pembuatan Armada",
	"Nomor KEUR",
	"Masa Berlaku KEUR",
	"Status Dokumen KEUR",
	"Masa Berlaku STNK",
	"Status Masa Berlaku STNK",
	"Masa Habis Armada",
	"Status Umur Armada",
	"Nama Supir",
	"Umur Supir",
	"Status SIM",
	"Jumlah Kepemilikan Tabung",
	"Alokasi Harian",
}

// Filename returns the download name of a workbook generated on day.
func Filename(day time.Time) string {
	return "data-armada-" + day.Format("2006-01-02") + ".xlsx"
}

// Record flattens row into the column order of Headers. n is the 1-based
// row number.
func Record(n int, r domain.FleetExportRow) []any {
	return []any{
		n,
		r.AgencyName,
		r.AgencyAddress,
		r.RegionCity,
		r.AreaName,
		r.RegionSBM,
		r.LicensePlate,
		r.ManufactureYear,
		r.KeurNumber,
		r.KeurExpiry,
		r.KeurStatus,
		r.StnkExpiry,
		r.StnkStatus,
		r.VehicleExpiry,
		r.VehicleAgeStatus,
		r.DriverName,
		r.DriverAge,
		r.SimStatus,
		r.CylinderCount,
		r.DailyAllocation,
	}
}

// WriteFleetWorkbook writes rows as a single-sheet xlsx workbook with a
// bold header row.
func WriteFleetWorkbook(w io.Writer, rows []domain.FleetExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("export.WriteFleetWorkbook: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("export.WriteFleetWorkbook: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export.WriteFleetWorkbook: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export.WriteFleetWorkbook: header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export.WriteFleetWorkbook: %w", err)
		}
		if err := sw.SetRow(cell, Record(i+1, r)); err != nil {
			return fmt.Errorf("export.WriteFleetWorkbook: row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export.WriteFleetWorkbook: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export.WriteFleetWorkbook: write: %w", err)
	}
	return nil
}
