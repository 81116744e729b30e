package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/export"
	"github.com/adityardiansyah/smart-agen/internal/middleware"
)

const (
	formatXLSX = "xlsx"
	formatCSV  = "csv"
	formatJSON = "json"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportFleets handles GET /api/fleets/export.
// Returns every fleet in scope with its active driver, one row each.
// ?area_id= narrows to one area; ?format=xlsx (default), csv or json.
func (s *Server) ExportFleets(w http.ResponseWriter, r *http.Request) {
	var (
		areaID *uuid.UUID
		format *string
	)
	if err := query(r, "area_id", &areaID); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := query(r, "format", &format); err != nil {
		badRequest(w, err.Error())
		return
	}
	f := formatXLSX
	if format != nil && *format != "" {
		f = *format
	}
	if f != formatXLSX && f != formatCSV && f != formatJSON {
		badRequest(w, fmt.Sprintf("invalid format %q: want xlsx, csv or json", f))
		return
	}

	rows, err := s.svc.Export.FleetRows(r.Context(), middleware.Scope(r.Context()), areaID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := export.Filename(s.svc.Export.Now())
	switch f {
	case formatJSON:
		writeJSON(w, http.StatusOK, DataResponse[[]domain.FleetExportRow]{Data: nonNil(rows)})
	case formatCSV:
		writeAttachment(w, "text/csv", strings.TrimSuffix(filename, ".xlsx")+".csv", buildCSV(rows))
	default:
		var buf bytes.Buffer
		if err := export.WriteFleetWorkbook(&buf, rows); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeAttachment(w, xlsxContentType, filename, &buf)
	}
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(body.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

// buildCSV encodes rows with the same columns as the workbook.
func buildCSV(rows []domain.FleetExportRow) *bytes.Buffer {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	// bytes.Buffer writes never fail.
	_ = cw.Write(export.Headers)
	for i, row := range rows {
		_ = cw.Write(csvRecord(export.Record(i+1, row)))
	}
	cw.Flush()
	return &buf
}

func csvRecord(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}
