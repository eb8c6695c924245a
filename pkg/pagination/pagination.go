package pagination

import (
	"math"
)

const (
	// DefaultPageSize is the standard page size when page_size is not provided.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows any list query can request.
	MaxPageSize = 100
)

// Params holds page-number pagination inputs from controllers.
type Params struct {
	Page     int
	PageSize int
}

// Normalize fills defaults and clamps the page size.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	p.PageSize = NormalizePageSize(p.PageSize)
	return p
}

// Offset is the number of rows to skip for the requested page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Limit is the normalized page size.
func (p Params) Limit() int {
	return p.Normalize().PageSize
}

// NormalizePageSize enforces the configured default and maximum sizes.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Page is the list envelope returned by paginated endpoints.
type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int   `json:"pages"`
	Results  []T   `json:"results"`
}

// NewPage assembles a page, never returning a nil results slice.
func NewPage[T any](params Params, count int64, results []T) Page[T] {
	n := params.Normalize()
	if results == nil {
		results = []T{}
	}
	pages := 0
	if count > 0 {
		pages = int(math.Ceil(float64(count) / float64(n.PageSize)))
	}
	return Page[T]{
		Count:    count,
		Page:     n.Page,
		PageSize: n.PageSize,
		Pages:    pages,
		Results:  results,
	}
}
