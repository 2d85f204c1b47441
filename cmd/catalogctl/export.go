package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/selection"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	// Selection flags
	items   []string
	visitor string

	// Contact flags
	contact export.Contact

	pdfOutput   string
	openMessage bool
)

// openURL is replaced in tests.
var openURL = browser.OpenURL

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a selection as a document or a messaging link",
	Long: `Builds an export from a selection. The selection comes from --item
flags (id or id=quantity), from the persisted selection of --visitor, or both;
--item entries are applied on top of the visitor's selection.`,
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Write the selection as a PDF document",
	Args:  cobra.NoArgs,
	RunE:  runExportPDF,
}

var exportMessageCmd = &cobra.Command{
	Use:   "message",
	Short: "Print the messaging link for the selection",
	Args:  cobra.NoArgs,
	RunE:  runExportMessage,
}

func runExportPDF(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	list, err := exportItems(ctx)
	if err != nil {
		return err
	}

	blocks, err := export.Document(list, normalizedContact())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, blocks); err != nil {
		return err
	}

	target := pdfOutput
	if target == "" {
		target = cfg.Export.DocumentName
	}
	if target == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}

	slog.Info("pdf exported", "file", target, "items", len(list), "pages", len(blocks))
	fmt.Fprintln(cmd.OutOrStdout(), target)
	return nil
}

func runExportMessage(cmd *cobra.Command, args []string) error {
	list, err := exportItems(cmd.Context())
	if err != nil {
		return err
	}

	msg, err := export.Message(list, normalizedContact())
	if err != nil {
		return err
	}
	link := export.MessageLink(cfg.Export.MessageEndpoint, cfg.Export.ContactNumber, msg)
	fmt.Fprintln(cmd.OutOrStdout(), link)

	if openMessage {
		if err := openURL(link); err != nil {
			return fmt.Errorf("open link: %w", err)
		}
	}
	return nil
}

// exportItems loads the catalog and builds the selection to export, in
// catalog order.
func exportItems(ctx context.Context) ([]export.Item, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cat, err := loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	// Work on an in-memory copy so --item never rewrites a visitor's
	// persisted selection.
	store := selection.NewStore(selection.NewMemoryBackend(), "catalogctl")
	if visitor != "" {
		rec, err := visitorSelection(ctx)
		if err != nil {
			return nil, err
		}
		for key, entry := range rec {
			id, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			if err := store.Set(ctx, id, entry.Quantity); err != nil {
				return nil, err
			}
		}
	}

	for _, raw := range items {
		id, qty, err := parseItem(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := cat.Get(id); !ok {
			return nil, fmt.Errorf("item %d: not in catalog", id)
		}
		if err := store.Set(ctx, id, qty); err != nil {
			return nil, err
		}
	}

	list := export.Items(cat, store)
	if len(list) == 0 {
		return nil, export.ErrEmptySelection
	}
	return list, nil
}

// visitorSelection reads the persisted selection of --visitor from the
// configured backend.
func visitorSelection(ctx context.Context) (selection.Record, error) {
	backend, closeBackend, err := selection.NewBackend(ctx, cfg.Selection)
	if err != nil {
		return nil, err
	}
	defer closeBackend()

	rec := selection.Open(ctx, backend, visitor).Snapshot()
	slog.Debug("visitor selection loaded", "visitor", visitor, "backend", cfg.Selection.Backend, "items", len(rec))
	return rec, nil
}

// parseItem reads "id" or "id=quantity".
func parseItem(raw string) (int, int, error) {
	idText, qtyText, hasQty := strings.Cut(strings.TrimSpace(raw), "=")

	id, err := strconv.Atoi(idText)
	if err != nil || id < 0 {
		return 0, 0, fmt.Errorf("invalid item %q", raw)
	}

	qty := 1
	if hasQty {
		qty, err = strconv.Atoi(qtyText)
		if err != nil || qty < 1 {
			return 0, 0, fmt.Errorf("invalid quantity in item %q", raw)
		}
	}
	return id, qty, nil
}

// normalizedContact applies the configured default to an unknown country code.
func normalizedContact() export.Contact {
	c := contact
	if !export.KnownCountry(c.CountryCode) {
		c.CountryCode = cfg.Export.DefaultCountryCode
	}
	return c
}

func init() {
	exportCmd.PersistentFlags().StringSliceVarP(&items, "item", "i", nil, "Row to export as id or id=quantity (repeatable)")
	exportCmd.PersistentFlags().StringVar(&visitor, "visitor", "", "Export the persisted selection of this visitor id")

	exportCmd.PersistentFlags().StringVar(&contact.Name, "name", "", "Contact name and surname")
	exportCmd.PersistentFlags().StringVar(&contact.Email, "email", "", "Contact email")
	exportCmd.PersistentFlags().StringVar(&contact.CountryCode, "country", "", "Phone country code (+595, +54, +55)")
	exportCmd.PersistentFlags().StringVar(&contact.Phone, "phone", "", "Local messaging number")
	exportCmd.PersistentFlags().StringVar(&contact.Business, "business", "", "Business name")

	exportPDFCmd.Flags().StringVarP(&pdfOutput, "output", "o", "", "Output file, - for stdout (default: EXPORT_DOCUMENT_NAME)")
	exportMessageCmd.Flags().BoolVar(&openMessage, "open", false, "Open the link in the default browser")

	exportCmd.AddCommand(exportPDFCmd)
	exportCmd.AddCommand(exportMessageCmd)
}
