package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/catalog/internal/browse"
	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/selection"
)

var (
	// ErrCatalogUnavailable is returned when the catalog failed to load.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrRowNotFound is returned for an id that is not in the catalog.
	ErrRowNotFound = errors.New("row not found")

	// ErrInvalidRowID is returned when an action carries a malformed id.
	ErrInvalidRowID = errors.New("invalid row id")

	// ErrUnknownAction is returned for an unrecognized action name.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidPageSize is returned for a page size that cannot be parsed.
	ErrInvalidPageSize = errors.New("invalid page size")
)

// Options configures a Service.
type Options struct {
	PageSize           int           // Initial page size, browse.ShowAll for all (default: 30)
	IdleTimeout        time.Duration // Sessions idle longer than this are evicted (default: 2h)
	DefaultCountryCode string        // Preselected phone prefix
}

// Service owns the catalog, the selection backend and all live sessions.
type Service struct {
	catalog *catalog.Catalog
	loadErr error
	brands  []string
	backend selection.Backend
	opts    Options

	mu       sync.Mutex
	sessions map[string]*Session

	now func() time.Time
}

// NewService creates a Service. A non-nil loadErr puts the service in the
// failed state: pages show the catalog error and no session can be opened.
func NewService(cat *catalog.Catalog, loadErr error, backend selection.Backend, opts Options) *Service {
	if opts.PageSize < 0 {
		opts.PageSize = browse.DefaultPageSize
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 2 * time.Hour
	}

	return &Service{
		catalog:  cat,
		loadErr:  loadErr,
		brands:   cat.Brands(),
		backend:  backend,
		opts:     opts,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Catalog returns the loaded catalog, nil in the failed state.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Brands returns the distinct brands, sorted.
func (s *Service) Brands() []string {
	return s.brands
}

// Err returns ErrCatalogUnavailable, wrapping the load error when there is
// one, in the failed state and nil otherwise.
func (s *Service) Err() error {
	switch {
	case s.loadErr != nil:
		return fmt.Errorf("%w: %w", ErrCatalogUnavailable, s.loadErr)
	case s.catalog == nil:
		return ErrCatalogUnavailable
	}
	return nil
}

// Ready reports whether the catalog loaded.
func (s *Service) Ready() bool {
	return s.loadErr == nil && s.catalog != nil
}

// Session returns the session for visitorID, creating and restoring it on
// first use. The selection is restored outside the service lock, so a slow
// backend only delays the visitor being opened.
func (s *Service) Session(ctx context.Context, visitorID string) (*Session, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}

	if sess, ok := s.lookup(visitorID); ok {
		return sess, nil
	}

	opened := newSession(ctx, s, visitorID)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another request for the same visitor may have won the race.
	if sess, ok := s.sessions[visitorID]; ok {
		sess.touch(s.now())
		return sess, nil
	}

	opened.touch(s.now())
	s.sessions[visitorID] = opened

	slog.Debug("session opened",
		"visitor", visitorID,
		"selected", opened.store.Len(),
		"sessions", len(s.sessions),
	)
	return opened, nil
}

func (s *Service) lookup(visitorID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[visitorID]
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle since before now-IdleTimeout and returns how
// many were removed. Selections survive eviction in the backend.
func (s *Service) Sweep(now time.Time) int {
	cutoff := now.Add(-s.opts.IdleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	slog.Info("session sweeper started",
		"interval", interval,
		"idle_timeout", s.opts.IdleTimeout,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				slog.Info("evicted idle sessions", "evicted", n, "remaining", s.SessionCount())
			}
		}
	}
}
