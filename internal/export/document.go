package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// Page layout in millimetres on A4 portrait.
const (
	MarginLeft  = 20
	CursorStart = 20
	LineStep    = 10
	PageBreakAt = 250
	FontSize    = 16
)

// Line is one text line placed at vertical position Y.
type Line struct {
	Y    int
	Text string
}

// Block is the content of one document page.
type Block struct {
	Lines []Line
}

// Document lays out items and contact into pages. The page-break check runs
// only before item lines; the contact block always follows the last item on
// the same page.
func Document(items []Item, contact Contact) ([]Block, error) {
	if len(items) == 0 {
		return nil, ErrEmptySelection
	}

	var (
		blocks []Block
		cur    Block
		y      = CursorStart
	)
	put := func(text string) {
		cur.Lines = append(cur.Lines, Line{Y: y, Text: text})
		y += LineStep
	}

	put(Greeting)
	put(Intro)

	for _, it := range items {
		if y > PageBreakAt {
			blocks = append(blocks, cur)
			cur = Block{}
			y = CursorStart
		}
		put(it.Line())
	}

	y += LineStep
	for _, l := range contact.Lines() {
		put(l)
	}

	return append(blocks, cur), nil
}

// WritePDF renders blocks, one page each, to w.
func WritePDF(w io.Writer, blocks []Block) error {
	if len(blocks) == 0 {
		return ErrEmptySelection
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Seleccion de productos", true)
	pdf.SetFont("Helvetica", "", FontSize)
	// Core fonts are cp1252; translate so accented names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, b := range blocks {
		pdf.AddPage()
		for _, l := range b.Lines {
			pdf.Text(MarginLeft, float64(l.Y), tr(l.Text))
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
