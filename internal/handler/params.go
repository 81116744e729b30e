package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/expiry"
)

// Pagination is the page metadata of every list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

// ListResponse is the envelope of paginated lists. Stats is omitted by
// resources that have none.
type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
	Stats      any        `json:"stats,omitempty"`
}

// DataResponse wraps a single resource or an unpaginated list.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into dst. Unknown fields are rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			return fmt.Errorf("request body is required")
		default:
			return fmt.Errorf("malformed request body: %w", err)
		}
	}
	return nil
}

// readBody decodes the request body and writes the error response itself.
// It reports whether the handler should continue.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, err)
			return false
		}
		requestError(w, err.Error())
		return false
	}
	return true
}

// pathID binds the named chi URL parameter as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// idParam binds the "id" path parameter, answering 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// query binds one optional form-style query parameter into dst, which must
// be a pointer to a pointer so absence stays nil.
func query(r *http.Request, name string, dst any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dst); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	return nil
}

// listQuery holds the query parameters shared by list endpoints.
type listQuery struct {
	Page   *int
	Limit  *int
	Search *string
	Status *string
	AreaID *uuid.UUID
}

func (q listQuery) pagination() domain.PaginationParams {
	return domain.NewPaginationParams(q.Page, q.Limit)
}

func (q listQuery) search() string {
	if q.Search == nil {
		return ""
	}
	return *q.Search
}

// active translates ?status=active|inactive into an is_active filter.
func (q listQuery) active() (*bool, error) {
	if q.Status == nil || *q.Status == "" {
		return nil, nil
	}
	switch *q.Status {
	case "active":
		v := true
		return &v, nil
	case "inactive":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("invalid status %q: want active or inactive", *q.Status)
}

func parseListQuery(r *http.Request) (listQuery, error) {
	var q listQuery
	for name, dst := range map[string]any{
		"page":    &q.Page,
		"limit":   &q.Limit,
		"search":  &q.Search,
		"status":  &q.Status,
		"area_id": &q.AreaID,
	} {
		if err := query(r, name, dst); err != nil {
			return listQuery{}, err
		}
	}
	return q, nil
}

// expiryQuery binds an optional expiry-status query parameter.
func expiryQuery(r *http.Request, name string) (*expiry.Status, error) {
	var raw *string
	if err := query(r, name, &raw); err != nil {
		return nil, err
	}
	if raw == nil || *raw == "" {
		return nil, nil
	}
	st, err := expiry.ParseStatus(*raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &st, nil
}

func pagination(p domain.PaginationParams, total int) Pagination {
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, LastPage: p.LastPage(total)}
}
