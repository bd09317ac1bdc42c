package models

// Pagination defaults. The limit ceiling guards against unbounded result sets.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortOrder specifies ascending or descending sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// ListQuery carries the recognized filter parameters and pagination for a list
// endpoint. Filters is a raw param→value mapping; the per-endpoint allow-list
// in the repository decides which keys mean anything, so unrecognized
// parameters are silently ignored.
type ListQuery struct {
	Filters map[string]string
	Page    int
	Limit   int
}

// Normalize applies pagination defaults and bounds in place.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

// Offset calculates the database offset for the current page.
func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination is the page metadata attached to list responses.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// NewPagination computes page metadata from a total count. Pages is the
// ceiling of total/limit; a page past the end is legal and yields an empty
// result list, not an error.
func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Pages: pages}
}
