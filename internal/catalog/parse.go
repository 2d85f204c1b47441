package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/catalog/internal/logging"
)

// maxLineSize bounds a single catalog line. Image references may be long
// data URLs, so this is well above bufio's 64KB default.
const maxLineSize = 4 * 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads a delimited catalog.
//
// The first line is a header and is discarded. Every following line is split
// on delim; lines with fewer than MinColumns fields or an empty name are
// skipped with a warning. Fields beyond the third are joined back with delim
// into the image reference, so the delimiter may appear inside that field.
func Parse(ctx context.Context, r io.Reader, delim rune) (*Catalog, error) {
	logger := logging.FromContext(ctx)
	sep := string(delim)

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		rows    []Row
		skipped int
		index   = -1 // header
	)
	for scanner.Scan() {
		if index < 0 {
			index++
			continue
		}

		line := strings.ToValidUTF8(scanner.Text(), "?")
		id := index
		index++

		columns := strings.Split(line, sep)
		if len(columns) < MinColumns {
			logger.Warn("skipping malformed catalog row",
				"line", id+2,
				"columns", len(columns),
				"row", line,
			)
			skipped++
			continue
		}

		if columns[0] == "" {
			logger.Debug("skipping catalog row without name", "line", id+2)
			skipped++
			continue
		}

		rows = append(rows, Row{
			ID:       id,
			Name:     columns[0],
			Brand:    columns[1],
			Model:    columns[2],
			ImageRef: strings.Join(columns[3:], sep),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	c := New(rows)
	c.skipped = skipped
	return c, nil
}
