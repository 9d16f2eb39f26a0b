package shared

import "math"

// DefaultPerPage is the page size used when the caller does not specify one.
const DefaultPerPage = 20

// MaxPerPage caps caller-supplied page sizes.
const MaxPerPage = 100

// Pagination contains metadata for paginated listings. Pages are 1-indexed;
// a page past the end of the collection is an empty page, not an error.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// NewPagination computes pagination metadata, normalizing page and perPage.
func NewPagination(page, perPage, total int) Pagination {
	page, perPage = NormalizePage(page, perPage)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && total > 0,
	}
}

// NormalizePage clamps page and perPage to usable values.
func NormalizePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}
