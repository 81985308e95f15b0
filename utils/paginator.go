package utils

import (
	"strconv"
	"strings"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	PageSize    int   `json:"page_size"`
	Count       int64 `json:"count"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// PageWindow resolves a raw page parameter against a result count.
// A non-numeric value selects page 1, values below 1 clamp to 1 and values past the
// end clamp to the last page. An empty result still has one (empty) page.
func PageWindow(raw string, count int64, size int) (number, numPages, offset int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	numPages = int((count + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return number, numPages, (number - 1) * size
}

// NewPage assembles the page metadata around already fetched items.
func NewPage[T any](items []T, number, numPages, size int, count int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return Page[T]{
		Items:       items,
		Number:      number,
		NumPages:    numPages,
		PageSize:    size,
		Count:       count,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}
