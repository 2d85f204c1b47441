// Package render builds the structural description of each page from the
// visible rows and the selection. It has no side effects and knows nothing
// about HTML; the templates package turns these values into markup.
package render

import (
	"github.com/JonMunkholm/catalog/internal/browse"
	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/selection"
)

// Option is one entry of a select control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// BrowseCard is one product card on the browse page.
type BrowseCard struct {
	ID              int
	Name            string
	ImageRef        string
	Selected        bool
	Quantity        int
	QuantityEnabled bool
}

// Pager describes the page navigation controls.
type Pager struct {
	Page       int
	TotalPages int
	Info       string
	HasPrev    bool
	HasNext    bool
}

// BrowsePage is the full browse view.
type BrowsePage struct {
	Cards         []BrowseCard
	Brands        []Option
	PageSizes     []Option
	Query         string
	Pager         Pager
	Filtered      int
	Total         int
	SelectedCount int
	Notice        string
	Zoom          *ZoomView
}

// SelectedCard is one card on the selected-items page.
type SelectedCard struct {
	ID       int
	Name     string
	ImageRef string
	Quantity int
}

// ContactForm holds the prefilled contact fields.
type ContactForm struct {
	Name      string
	Email     string
	Phone     string
	Business  string
	Countries []Option
}

// SelectedPage is the full selected-items view.
type SelectedPage struct {
	Cards   []SelectedCard
	Empty   bool
	Notice  string
	Contact ContactForm
	Zoom    *ZoomView
}

// ZoomView is the image overlay.
type ZoomView struct {
	ID       int
	Name     string
	ImageRef string
}

// Browse builds the browse page for one window. Unselected rows show a
// disabled quantity of 1; selected rows show their stored quantity.
func Browse(w browse.Window, v browse.View, brands []string, store *selection.Store) BrowsePage {
	cards := make([]BrowseCard, 0, len(w.Rows))
	for _, row := range w.Rows {
		card := BrowseCard{
			ID:       row.ID,
			Name:     row.Name,
			ImageRef: row.ImageRef,
			Quantity: 1,
		}
		if e, ok := store.Get(row.ID); ok {
			card.Selected = true
			card.Quantity = e.Quantity
			card.QuantityEnabled = true
		}
		cards = append(cards, card)
	}

	return BrowsePage{
		Cards:     cards,
		Brands:    BrandOptions(brands, v.Brand),
		PageSizes: PageSizeOptions(v.PageSize),
		Query:     v.Query,
		Pager: Pager{
			Page:       w.Page,
			TotalPages: w.TotalPages,
			Info:       PageInfo(w.Page, w.TotalPages),
			HasPrev:    w.Page > 1,
			HasNext:    w.Page < w.TotalPages,
		},
		Filtered:      w.Filtered,
		Total:         w.Total,
		SelectedCount: store.Len(),
	}
}

// Selected builds the selected-items page. Cards follow catalog order.
func Selected(cat *catalog.Catalog, store *selection.Store, contact export.Contact) SelectedPage {
	page := SelectedPage{Contact: contactForm(contact)}

	for _, row := range cat.Rows() {
		e, ok := store.Get(row.ID)
		if !ok {
			continue
		}
		page.Cards = append(page.Cards, SelectedCard{
			ID:       row.ID,
			Name:     row.Name,
			ImageRef: row.ImageRef,
			Quantity: e.Quantity,
		})
	}

	if len(page.Cards) == 0 {
		page.Empty = true
	}
	return page
}

// Zoom builds the overlay for row id, independent of paging.
func Zoom(cat *catalog.Catalog, id int) (*ZoomView, bool) {
	row, ok := cat.Get(id)
	if !ok {
		return nil, false
	}
	return &ZoomView{ID: row.ID, Name: row.Name, ImageRef: row.ImageRef}, true
}

// BrandOptions lists the brand filter, "all brands" first.
func BrandOptions(brands []string, current string) []Option {
	opts := make([]Option, 0, len(brands)+1)
	opts = append(opts, Option{Value: "", Label: LabelAllBrands, Selected: current == ""})
	for _, b := range brands {
		opts = append(opts, Option{Value: b, Label: b, Selected: b == current})
	}
	return opts
}

// PageSizeOptions lists the offered page sizes.
func PageSizeOptions(current int) []Option {
	opts := make([]Option, 0, len(browse.PageSizes))
	for _, size := range browse.PageSizes {
		label := browse.FormatPageSize(size)
		if size == browse.ShowAll {
			label = LabelAll
		}
		opts = append(opts, Option{
			Value:    browse.FormatPageSize(size),
			Label:    label,
			Selected: size == current,
		})
	}
	return opts
}

func contactForm(c export.Contact) ContactForm {
	code := c.CountryCode
	if !export.KnownCountry(code) {
		code = export.DefaultCountryCode
	}

	countries := make([]Option, 0, len(export.Countries))
	for _, country := range export.Countries {
		countries = append(countries, Option{
			Value:    country.Code,
			Label:    country.Label(),
			Selected: country.Code == code,
		})
	}

	return ContactForm{
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Business:  c.Business,
		Countries: countries,
	}
}
