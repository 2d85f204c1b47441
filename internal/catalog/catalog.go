// Package catalog loads the delimited product list and holds it in memory.
//
// A catalog is created once per load and never mutated afterwards; reloading
// produces a new Catalog that replaces the old one wholesale. Row IDs are the
// positional index of the data line in the source (header excluded) and are
// only stable within one load.
package catalog

import (
	"sort"
	"strconv"
	"strings"
)

// MinColumns is the number of fields a data line needs to become a row:
// name, brand, model and at least one image-reference field.
const MinColumns = 4

// Row is one product of the catalog.
type Row struct {
	ID       int
	Name     string
	Brand    string
	Model    string
	ImageRef string
}

// Key returns the row id in the string form used by the selection store.
func (r Row) Key() string {
	return strconv.Itoa(r.ID)
}

// Catalog is an immutable, ordered list of rows.
type Catalog struct {
	rows    []Row
	byID    map[int]int
	skipped int
}

// New builds a catalog from rows already in source order.
func New(rows []Row) *Catalog {
	c := &Catalog{
		rows: rows,
		byID: make(map[int]int, len(rows)),
	}
	for i, r := range rows {
		c.byID[r.ID] = i
	}
	return c
}

// Rows returns the rows in source order. The slice must not be modified.
func (c *Catalog) Rows() []Row {
	if c == nil {
		return nil
	}
	return c.rows
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rows)
}

// Skipped returns how many data lines were discarded while parsing.
func (c *Catalog) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}

// Get looks a row up by id.
func (c *Catalog) Get(id int) (Row, bool) {
	if c == nil {
		return Row{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Row{}, false
	}
	return c.rows[i], true
}

// Brands returns the distinct non-blank brands, sorted. A blank brand would
// collide with the "all brands" entry of the filter.
func (c *Catalog) Brands() []string {
	seen := make(map[string]struct{})
	var brands []string
	for _, r := range c.Rows() {
		if strings.TrimSpace(r.Brand) == "" {
			continue
		}
		if _, ok := seen[r.Brand]; ok {
			continue
		}
		seen[r.Brand] = struct{}{}
		brands = append(brands, r.Brand)
	}
	sort.Strings(brands)
	return brands
}
