package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/catalog/internal/render"
	"github.com/a-h/templ"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestBrowseCard(t *testing.T) {
	tests := []struct {
		name     string
		card     render.BrowseCard
		contains []string
		excludes []string
	}{
		{
			name: "unselected card has disabled quantity",
			card: render.BrowseCard{ID: 3, Name: "Lente", ImageRef: "img/l.jpg", Quantity: 1},
			contains: []string{
				`data-id="3"`,
				`value="select"`,
				`value="1" disabled`,
				"SELECCIONAR",
				"CANTIDAD:",
				`href="/?zoom=3"`,
			},
		},
		{
			name: "selected card enables quantity",
			card: render.BrowseCard{ID: 4, Name: "Filtro", Selected: true, Quantity: 3, QuantityEnabled: true},
			contains: []string{
				`value="deselect"`,
				`aria-pressed="true"`,
				`value="3"`,
			},
			excludes: []string{"disabled"},
		},
		{
			name:     "names are escaped",
			card:     render.BrowseCard{ID: 5, Name: `<b>"x"</b>`},
			contains: []string{"&lt;b&gt;"},
			excludes: []string{"<b>"},
		},
		{
			name:     "unsafe image urls are replaced",
			card:     render.BrowseCard{ID: 6, Name: "x", ImageRef: "javascript:alert(1)"},
			excludes: []string{"javascript:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderString(t, BrowseCard(tt.card))
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output contains %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestBrowsePage(t *testing.T) {
	page := render.BrowsePage{
		Cards:     []render.BrowseCard{{ID: 0, Name: "A", Quantity: 1}},
		Brands:    render.BrandOptions([]string{"brand1"}, "brand1"),
		PageSizes: render.PageSizeOptions(30),
		Pager:     render.Pager{Page: 1, TotalPages: 2, Info: render.PageInfo(1, 2), HasNext: true},
		Zoom:      &render.ZoomView{ID: 0, Name: "A", ImageRef: "a.jpg"},
		Notice:    "aviso",
	}
	out := renderString(t, BrowsePage(page))

	for _, s := range []string{
		"<!doctype html>",
		"TODAS LAS MARCAS",
		`<option value="brand1" selected>`,
		"Página 1 de 2",
		`id="first-page" value="first" disabled`,
		`id="image-modal"`,
		`class="notice"`,
		`<option value="all">Todos</option>`,
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q", s)
		}
	}
}

func TestSelectedPage(t *testing.T) {
	empty := renderString(t, SelectedPage(render.SelectedPage{Empty: true}))
	if !strings.Contains(empty, "No hay productos seleccionados.") {
		t.Error("empty page missing notice")
	}

	page := render.SelectedPage{
		Cards: []render.SelectedCard{{ID: 2, Name: "C", Quantity: 4}},
		Contact: render.ContactForm{
			Name:      "Ana",
			Countries: []render.Option{{Value: "+595", Label: "Paraguay (+595)", Selected: true}},
		},
	}
	out := renderString(t, SelectedPage(page))
	for _, s := range []string{
		`value="delete"`,
		"Eliminar",
		`value="4"`,
		`formaction="/export/pdf"`,
		`formaction="/export/message"`,
		`<option value="+595" selected>`,
		`value="Ana"`,
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q", s)
		}
	}
	if strings.Contains(out, "No hay productos seleccionados.") {
		t.Error("non-empty page shows empty notice")
	}
	if strings.Contains(out, `id="image-modal"`) {
		t.Error("overlay rendered without a zoomed row")
	}
}

func TestSelectedPage_Zoom(t *testing.T) {
	page := render.SelectedPage{
		Cards: []render.SelectedCard{{ID: 2, Name: "C", ImageRef: "c.jpg", Quantity: 1}},
		Zoom:  &render.ZoomView{ID: 2, Name: "C", ImageRef: "c.jpg"},
	}
	out := renderString(t, SelectedPage(page))

	for _, s := range []string{
		`href="/seleccionados?zoom=2"`,
		`id="image-modal"`,
		`class="close" data-close href="/seleccionados"`,
		`id="modal-image" class="modal-content" src="c.jpg"`,
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q", s)
		}
	}
}

func TestAutosubmitModes(t *testing.T) {
	page := render.BrowsePage{
		Cards:     []render.BrowseCard{{ID: 0, Name: "A", Quantity: 1}},
		Brands:    render.BrandOptions([]string{"brand1"}, ""),
		PageSizes: render.PageSizeOptions(30),
	}
	out := renderString(t, BrowsePage(page))
	out += renderString(t, SelectedPage(render.SelectedPage{
		Cards: []render.SelectedCard{{ID: 0, Name: "A", Quantity: 1}},
	}))

	// The search box submits while typing only; everything else on change.
	if !strings.Contains(out, `id="name-filter" type="search" name="q" data-autosubmit="input"`) {
		t.Error("search box not in input mode")
	}
	if n := strings.Count(out, `data-autosubmit="input"`); n != 1 {
		t.Errorf("input-mode fields = %d, want 1", n)
	}
	if strings.Contains(out, "data-autosubmit ") || strings.Contains(out, "data-autosubmit>") {
		t.Error("autosubmit field without an explicit mode")
	}
	if n := strings.Count(out, `data-autosubmit="change"`); n != 4 {
		t.Errorf("change-mode fields = %d, want 4", n)
	}
}

func TestCatalogError(t *testing.T) {
	out := renderString(t, CatalogError())
	if !strings.Contains(out, "Error al cargar los productos. Por favor, revise la consola para más detalles.") {
		t.Errorf("missing error text: %s", out)
	}
	if strings.Contains(out, "product-card") {
		t.Error("error page rendered product cards")
	}
}

func TestErrorAlert(t *testing.T) {
	out := renderString(t, ErrorAlert("Algo falló", "Intente nuevamente", "ERR000"))
	for _, s := range []string{"Algo falló", "Intente nuevamente", "Código: ERR000"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q", s)
		}
	}
}
