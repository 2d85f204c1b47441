package browse

import "github.com/JonMunkholm/catalog/internal/catalog"

// View is the user's browsing state: active filters and page window.
// The zero value is not useful; start from NewView.
type View struct {
	Brand    string
	Query    string
	Page     int
	PageSize int
}

// Window is the derived visible slice of one View over a row list.
type Window struct {
	Rows       []catalog.Row
	Page       int
	TotalPages int
	Filtered   int
	Total      int
}

// NewView returns a view on page 1 with the given page size.
func NewView(pageSize int) View {
	if pageSize < 0 {
		pageSize = DefaultPageSize
	}
	return View{Page: 1, PageSize: pageSize}
}

// Apply filters rows, then slices the current page. The view's page is
// clamped first so a stale page number never indexes past the end.
func (v *View) Apply(rows []catalog.Row) Window {
	filtered := Filter(rows, v.Brand, v.Query)
	total := TotalPages(len(filtered), v.PageSize)
	v.Page = clamp(v.Page, 1, total)

	return Window{
		Rows:       Slice(filtered, v.Page, v.PageSize),
		Page:       v.Page,
		TotalPages: total,
		Filtered:   len(filtered),
		Total:      len(rows),
	}
}

// SetFilters changes both predicates and returns to page 1.
func (v *View) SetFilters(brand, query string) {
	v.Brand = brand
	v.Query = query
	v.Page = 1
}

// SetBrand changes the brand predicate and returns to page 1.
func (v *View) SetBrand(brand string) {
	v.SetFilters(brand, v.Query)
}

// SetQuery changes the name predicate and returns to page 1.
func (v *View) SetQuery(query string) {
	v.SetFilters(v.Brand, query)
}

// SetPageSize changes the page size and returns to page 1.
func (v *View) SetPageSize(size int) {
	if size < 0 {
		size = ShowAll
	}
	v.PageSize = size
	v.Page = 1
}

// First jumps to page 1.
func (v *View) First() {
	v.Page = 1
}

// Prev moves back one page; no-op on page 1.
func (v *View) Prev() {
	if v.Page > 1 {
		v.Page--
	}
}

// Next moves forward one page; no-op on the last page.
func (v *View) Next(rows []catalog.Row) {
	if v.Page < v.lastPage(rows) {
		v.Page++
	}
}

// Last jumps to ceil(filtered/pageSize).
func (v *View) Last(rows []catalog.Row) {
	v.Page = v.lastPage(rows)
}

func (v *View) lastPage(rows []catalog.Row) int {
	return TotalPages(len(Filter(rows, v.Brand, v.Query)), v.PageSize)
}
