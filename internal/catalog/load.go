package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/JonMunkholm/catalog/internal/logging"
)

// ErrFetch marks a failure to obtain the catalog resource itself, as opposed
// to a problem with individual rows (which are skipped, never fatal).
var ErrFetch = errors.New("catalog fetch failed")

// HTTPClient is used for http(s) sources. Replaceable in tests.
var HTTPClient = http.DefaultClient

// Load fetches source and parses it. Sources starting with http:// or
// https:// are requested with ctx; anything else is opened as a file.
// There is no retry: a failed fetch fails the whole load.
func Load(ctx context.Context, source string, delim rune) (*Catalog, error) {
	body, err := open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, source, err)
	}
	defer body.Close()

	c, err := Parse(ctx, body, delim)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, source, err)
	}

	logging.FromContext(ctx).Info("catalog loaded",
		"source", source,
		"rows", c.Len(),
		"skipped", c.Skipped(),
		"brands", len(c.Brands()),
	)
	return c, nil
}

func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !isURL(source) {
		return os.Open(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
