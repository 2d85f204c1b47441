// Package browse derives the visible slice of the catalog from the brand and
// name filters and the page window.
//
// Every navigation method saturates: the page number stays within
// [1, TotalPages] no matter how often it is called.
package browse

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/catalog/internal/catalog"
)

// ShowAll is the page-size sentinel meaning "everything on one page".
const ShowAll = 0

// DefaultPageSize matches the catalog's initial 30 cards per page.
const DefaultPageSize = 30

// PageSizes are the sizes offered in the page-size picker, ShowAll last.
var PageSizes = []int{30, 60, 90, ShowAll}

// Filter keeps rows whose brand equals brand and whose name contains query,
// case-insensitively. An empty predicate matches everything.
func Filter(rows []catalog.Row, brand, query string) []catalog.Row {
	if brand == "" && query == "" {
		return rows
	}
	q := strings.ToLower(query)

	out := make([]catalog.Row, 0, len(rows))
	for _, r := range rows {
		if brand != "" && r.Brand != brand {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// TotalPages returns ceil(n/size), never less than 1.
func TotalPages(n, size int) int {
	if size <= ShowAll {
		return 1
	}
	pages := (n + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// Slice returns the rows of the given 1-based page. Out-of-range pages are
// clamped into range.
func Slice(rows []catalog.Row, page, size int) []catalog.Row {
	if size <= ShowAll {
		return rows
	}
	page = clamp(page, 1, TotalPages(len(rows), size))

	start := (page - 1) * size
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// ParsePageSize accepts "all" or a positive integer.
func ParsePageSize(s string) (int, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "all" {
		return ShowAll, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// FormatPageSize is the inverse of ParsePageSize.
func FormatPageSize(size int) string {
	if size <= ShowAll {
		return "all"
	}
	return strconv.Itoa(size)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
