package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/selection"
	"github.com/spf13/cobra"
)

const testCSV = "producto,marca,modelo,imagen\n" +
	"A,brand1,m1, a.jpg\n" +
	"B,brand2,m2,b.jpg \n" +
	"C,brand1,m3,c.jpg\n"

// setup writes a catalog file, points the configuration at it and resets
// the command flags.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "idcatalog.csv")
	if err := os.WriteFile(path, []byte(testCSV), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	t.Setenv("CATALOG_SOURCE", path)
	t.Setenv("SELECTION_BACKEND", "file")
	t.Setenv("SELECTION_DIR", filepath.Join(dir, "selections"))

	c, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	cfg = c

	items, visitor, contact = nil, "", export.Contact{}
	pdfOutput, openMessage, cleanOutput = "", false, ""
	t.Cleanup(func() { items, visitor = nil, "" })
	return path
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

func TestRunBrands(t *testing.T) {
	setup(t)
	cmd, out := newCmd()

	if err := runBrands(cmd, nil); err != nil {
		t.Fatalf("runBrands() error = %v", err)
	}
	if got := out.String(); got != "brand1\nbrand2\n" {
		t.Errorf("output = %q", got)
	}
}

func TestRunBrands_FetchFailure(t *testing.T) {
	setup(t)
	cfg.Catalog.Source = filepath.Join(t.TempDir(), "missing.csv")
	cmd, _ := newCmd()

	err := runBrands(cmd, nil)
	if !errors.Is(err, catalog.ErrFetch) {
		t.Errorf("runBrands() error = %v, want ErrFetch", err)
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "empty selection",
			err:  export.ErrEmptySelection,
			want: []string{"(Código: EXP001)", "\n" + export.ErrEmptySelection.Error()},
		},
		{
			name: "catalog fetch",
			err:  fmt.Errorf("%w: idcatalog.csv: no such file", catalog.ErrFetch),
			want: []string{"(Código: CAT001)", "no such file"},
		},
		{
			name: "unmapped",
			err:  errors.New(`invalid item "x"`),
			want: []string{`Error: invalid item "x"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorText(tt.err)
			for _, s := range tt.want {
				if !strings.Contains(got, s) {
					t.Errorf("errorText() = %q, missing %q", got, s)
				}
			}
		})
	}
}

func TestRunClean_InPlace(t *testing.T) {
	path := setup(t)
	cmd, out := newCmd()

	if err := runClean(cmd, nil); err != nil {
		t.Fatalf("runClean() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "producto,marca,modelo,imagen\nA,brand1,m1,a.jpg\nB,brand2,m2,b.jpg\nC,brand1,m3,c.jpg\n"
	if string(data) != want {
		t.Errorf("cleaned = %q, want %q", data, want)
	}
	if !strings.Contains(out.String(), "3 rows, 2 image references trimmed") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunClean_Output(t *testing.T) {
	path := setup(t)
	cleanOutput = filepath.Join(t.TempDir(), "out.csv")
	cmd, _ := newCmd()

	if err := runClean(cmd, []string{path}); err != nil {
		t.Fatalf("runClean() error = %v", err)
	}

	orig, _ := os.ReadFile(path)
	if string(orig) != testCSV {
		t.Error("input modified when --output is set")
	}
	if _, err := os.Stat(cleanOutput); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestParseItem(t *testing.T) {
	tests := []struct {
		raw     string
		id, qty int
		wantErr bool
	}{
		{"0", 0, 1, false},
		{"2=5", 2, 5, false},
		{" 1=3 ", 1, 3, false},
		{"x", 0, 0, true},
		{"-1", 0, 0, true},
		{"1=0", 0, 0, true},
		{"1=abc", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, qty, err := parseItem(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseItem(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && (id != tt.id || qty != tt.qty) {
				t.Errorf("parseItem(%q) = %d, %d, want %d, %d", tt.raw, id, qty, tt.id, tt.qty)
			}
		})
	}
}

func TestRunExportMessage(t *testing.T) {
	setup(t)
	items = []string{"2=2", "0"}
	contact = export.Contact{Name: "Ana", CountryCode: "+54", Phone: "0981"}
	openMessage = true

	var opened string
	prev := openURL
	openURL = func(u string) error { opened = u; return nil }
	t.Cleanup(func() { openURL = prev })

	cmd, out := newCmd()
	if err := runExportMessage(cmd, nil); err != nil {
		t.Fatalf("runExportMessage() error = %v", err)
	}

	link := strings.TrimSpace(out.String())
	if opened != link {
		t.Errorf("opened %q, printed %q", opened, link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	text := u.Query().Get("text")
	// Catalog order, not flag order.
	if !strings.Contains(text, "A (Cantidad: 1)\nC (Cantidad: 2)") {
		t.Errorf("message = %q", text)
	}
	if !strings.Contains(text, "WHATSAPP: +54981") {
		t.Errorf("message missing phone: %q", text)
	}
}

func TestRunExportPDF(t *testing.T) {
	setup(t)
	items = []string{"1"}
	contact = export.Contact{Name: "Ana", CountryCode: "+99"}
	pdfOutput = filepath.Join(t.TempDir(), "sel.pdf")

	cmd, _ := newCmd()
	if err := runExportPDF(cmd, nil); err != nil {
		t.Fatalf("runExportPDF() error = %v", err)
	}

	data, err := os.ReadFile(pdfOutput)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestExport_EmptySelection(t *testing.T) {
	setup(t)
	cmd, out := newCmd()

	if err := runExportMessage(cmd, nil); !errors.Is(err, export.ErrEmptySelection) {
		t.Errorf("runExportMessage() error = %v, want ErrEmptySelection", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestExport_UnknownItem(t *testing.T) {
	setup(t)
	items = []string{"42"}
	cmd, _ := newCmd()

	if err := runExportMessage(cmd, nil); err == nil {
		t.Error("expected error for an id outside the catalog")
	}
}

func TestExport_VisitorSelection(t *testing.T) {
	setup(t)
	ctx := context.Background()

	backend, err := selection.NewFileBackend(cfg.Selection.Dir)
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	store := selection.Open(ctx, backend, "visitor-1")
	if err := store.Set(ctx, 1, 3); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	visitor = "visitor-1"
	items = []string{"0"}
	cmd, out := newCmd()
	if err := runExportMessage(cmd, nil); err != nil {
		t.Fatalf("runExportMessage() error = %v", err)
	}

	u, _ := url.Parse(strings.TrimSpace(out.String()))
	text := u.Query().Get("text")
	if !strings.Contains(text, "A (Cantidad: 1)\nB (Cantidad: 3)") {
		t.Errorf("message = %q", text)
	}

	// --item must not leak into the persisted selection.
	reopened := selection.Open(ctx, backend, "visitor-1")
	if reopened.Len() != 1 || !reopened.Has(1) {
		t.Errorf("persisted selection changed: %v", reopened.Snapshot())
	}
}
