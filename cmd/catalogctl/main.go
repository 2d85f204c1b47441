// Command catalogctl inspects the product catalog and exports selections
// from the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	source    string
	delimiter string
	timeout   time.Duration
	verbose   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "catalogctl",
	Short:         "Inspect the product catalog and export selections",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c

		// stdout carries command output; logs go to stderr
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		slog.SetDefault(logging.New(os.Stderr, level, cfg.Logging.Format))

		if cmd.Flags().Changed("source") {
			cfg.Catalog.Source = source
		}
		if cmd.Flags().Changed("delimiter") {
			if len([]rune(delimiter)) != 1 {
				return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
			}
			cfg.Catalog.Delimiter = delimiter
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Catalog.LoadTimeout = timeout
		}
		return nil
	},
}

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "List the distinct brands of the catalog",
	Args:  cobra.NoArgs,
	RunE:  runBrands,
}

func runBrands(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cmd.Context())
	if err != nil {
		return err
	}
	for _, b := range cat.Brands() {
		fmt.Fprintln(cmd.OutOrStdout(), b)
	}
	return nil
}

// loadCatalog fetches the configured source within the load timeout.
func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Catalog.LoadTimeout)
	defer cancel()
	return catalog.Load(ctx, cfg.Catalog.Source, cfg.Catalog.DelimiterRune())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&source, "source", "s", "", "Catalog file or URL (default: CATALOG_SOURCE)")
	rootCmd.PersistentFlags().StringVarP(&delimiter, "delimiter", "d", "", "Field separator (default: CATALOG_DELIMITER)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Catalog load timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(brandsCmd)
	rootCmd.AddCommand(exportCmd)
}

// errorText leads with the support message and code for known failures and
// keeps the technical error on the next line.
func errorText(err error) string {
	if !core.IsUserFacing(err) {
		return "Error: " + err.Error()
	}
	return core.FormatUserError(err) + "\n" + err.Error()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}
