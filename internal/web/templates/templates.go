// Package templates renders the page view models as HTML.
//
// Components are written in templ. After editing a .templ file run
// `templ generate` and commit the _templ.go file next to it.
package templates

//go:generate templ generate

import "strconv"

// Paths used by forms and links.
const (
	BrowsePath   = "/"
	SelectedPath = "/seleccionados"
	ActionsPath  = "/actions"
	PDFPath      = "/export/pdf"
	MessagePath  = "/export/message"
)

// zoomHref links a card image to its overlay on the page at base.
func zoomHref(base string, id int) string {
	return base + "?zoom=" + strconv.Itoa(id)
}

// toggleAction is the action the selection button of a card sends.
func toggleAction(selected bool) string {
	if selected {
		return "deselect"
	}
	return "select"
}
