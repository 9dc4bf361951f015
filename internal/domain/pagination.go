package domain

// defaultListLimit applies when a caller builds PaginationParams by hand
// without a page size.
const defaultListLimit = 20

// PaginationParams selects one 1-based page of a list query.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Limit is the SQL LIMIT for the page.
func (p PaginationParams) Limit() int {
	if p.PageSize > 0 {
		return p.PageSize
	}
	return defaultListLimit
}

// Offset is the SQL OFFSET for the page. Pages below 1 read from the start.
func (p PaginationParams) Offset() int {
	return max(p.Page-1, 0) * p.Limit()
}
