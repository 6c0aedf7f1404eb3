package shared

import (
	"net/http"
	"strconv"
)

// List defaults. Limits above MaxLimit are clamped.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 200
)

// Sort directions accepted in the dir query parameter.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListFilters carries the paging, search and sort options of a list request.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// Offset returns the row offset of the requested page.
func (f ListFilters) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// FiltersFromRequest reads page, limit, search, sort and dir query params.
func FiltersFromRequest(r *http.Request) ListFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = DefaultPage
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	dir := q.Get("dir")
	if dir != SortDesc {
		dir = SortAsc
	}
	return ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: dir,
	}
}
