package model

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// Page is the paginated list envelope.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// NewPage fills defaults and guarantees Data is never nil.
func NewPage[T any](data []T, total int64, page, limit int) *Page[T] {
	if data == nil {
		data = []T{}
	}
	return &Page[T]{Data: data, Total: total, Page: page, Limit: limit}
}

// Pagination holds a normalised page/limit pair.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination replaces non-positive values with the defaults.
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset is the number of rows to skip, saturating at math.MaxInt.
func (p Pagination) Offset() int {
	if p.PastEnd() {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// PastEnd reports whether the offset is too large to represent. No row can
// live on such a page.
func (p Pagination) PastEnd() bool {
	return p.Page-1 > math.MaxInt/p.Limit
}
