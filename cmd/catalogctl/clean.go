package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/spf13/cobra"
)

var cleanOutput string

var cleanCmd = &cobra.Command{
	Use:   "clean [file]",
	Short: "Trim whitespace around image references",
	Long: `Rewrites a catalog file with the image-reference column trimmed.
The header and every other field are copied unchanged. Without --output the
file is replaced in place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	input := cfg.Catalog.Source
	if len(args) == 1 {
		input = args[0]
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", catalog.ErrFetch, input, err)
	}
	defer in.Close()

	target := cleanOutput
	if target == "" {
		target = input
	}

	// Write next to the target and rename, so a failed run leaves it intact.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".clean-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	stats, err := catalog.Clean(in, tmp, cfg.Catalog.DelimiterRune())
	if err != nil {
		tmp.Close()
		return fmt.Errorf("clean %s: %w", input, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	in.Close()

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}

	slog.Info("catalog cleaned", "input", input, "output", target, "rows", stats.Rows, "trimmed", stats.Trimmed)
	fmt.Fprintf(cmd.OutOrStdout(), "%d rows, %d image references trimmed\n", stats.Rows, stats.Trimmed)
	return nil
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "Write to this file instead of replacing the input")
}
