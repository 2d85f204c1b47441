// Package export turns the current selection into the two shareable forms:
// a paginated PDF document and a prefilled messaging link.
//
// Both exports share the same content: a greeting, one line per selected row
// in catalog order, then the contact form. Both refuse an empty selection.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/selection"
)

// ErrEmptySelection is returned when there is nothing to export.
var ErrEmptySelection = errors.New("empty selection: no products selected")

// Fixed text of the exported content.
const (
	Greeting = "HOLA!"
	Intro    = "Estoy interesado en los siguientes productos:"
)

// Item is one selected row with its quantity.
type Item struct {
	ID       int
	Name     string
	Quantity int
}

// Line formats the item as "name (Cantidad: n)".
func (i Item) Line() string {
	return fmt.Sprintf("%s (Cantidad: %d)", i.Name, i.Quantity)
}

// Items returns the selected rows in catalog order. Selected ids that are no
// longer in the catalog are skipped.
func Items(cat *catalog.Catalog, store *selection.Store) []Item {
	if store == nil || store.Len() == 0 {
		return nil
	}

	items := make([]Item, 0, store.Len())
	for _, row := range cat.Rows() {
		e, ok := store.Get(row.ID)
		if !ok {
			continue
		}
		items = append(items, Item{ID: row.ID, Name: row.Name, Quantity: e.Quantity})
	}
	return items
}

// Contact is the visitor's contact form.
type Contact struct {
	Name        string
	Email       string
	CountryCode string
	Phone       string
	Business    string
}

// NormalizedPhone strips exactly one leading zero from the local number.
func (c Contact) NormalizedPhone() string {
	return strings.TrimPrefix(strings.TrimSpace(c.Phone), "0")
}

// WhatsApp returns the full number as written in the export.
func (c Contact) WhatsApp() string {
	return c.CountryCode + c.NormalizedPhone()
}

// Lines returns the contact block of the export.
func (c Contact) Lines() []string {
	return []string{
		"NOMBRE Y APELLIDO: " + c.Name,
		"WHATSAPP: " + c.WhatsApp(),
		"CORREO: " + c.Email,
		"NEGOCIO: " + c.Business,
	}
}

// Country is a selectable phone prefix.
type Country struct {
	Code string
	Name string
	Flag string
}

// Label is the text shown in the country picker.
func (c Country) Label() string {
	return fmt.Sprintf("%s %s (%s)", c.Flag, c.Name, c.Code)
}

// DefaultCountryCode is preselected in the contact form.
const DefaultCountryCode = "+595"

// Countries are the offered phone prefixes, default first.
var Countries = []Country{
	{Code: "+595", Name: "Paraguay", Flag: "🇵🇾"},
	{Code: "+54", Name: "Argentina", Flag: "🇦🇷"},
	{Code: "+55", Name: "Brasil", Flag: "🇧🇷"},
}

// KnownCountry reports whether code is one of Countries.
func KnownCountry(code string) bool {
	for _, c := range Countries {
		if c.Code == code {
			return true
		}
	}
	return false
}
