package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CleanStats reports what Clean changed.
type CleanStats struct {
	Rows    int
	Trimmed int
}

// Clean copies a catalog from r to w, trimming surrounding whitespace from
// the image-reference column. The header is copied unchanged. Quoting follows
// encoding/csv, so a quoted image field containing the delimiter survives.
func Clean(r io.Reader, w io.Writer, delim rune) (CleanStats, error) {
	var stats CleanStats

	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	writer := csv.NewWriter(w)
	writer.Comma = delim

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}
	if err := writer.Write(header); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read row %d: %w", stats.Rows+2, err)
		}
		stats.Rows++

		if len(record) > 3 {
			if trimmed := strings.TrimSpace(record[3]); trimmed != record[3] {
				record[3] = trimmed
				stats.Trimmed++
			}
		}
		if err := writer.Write(record); err != nil {
			return stats, fmt.Errorf("write row %d: %w", stats.Rows+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, fmt.Errorf("flush: %w", err)
	}
	return stats, nil
}
