package domain

// List endpoints take their window from the page and limit query parameters.
// A missing or non-positive value falls back to the default. A limit above
// MaxPageSize is clamped rather than rejected.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams is one page of a list query. Page is 1-indexed.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds the window for a list request from its optional
// page and limit query values.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageSize}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, MaxPageSize)
	}
	return p
}

// Offset returns the zero-based row offset for a SQL OFFSET clause.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// LastPage is the number of the final page holding total rows. An empty list
// still has page 1.
func (p PaginationParams) LastPage(total int) int {
	if total <= 0 || p.Limit <= 0 {
		return 1
	}
	return (total + p.Limit - 1) / p.Limit
}
