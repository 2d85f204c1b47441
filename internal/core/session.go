package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/catalog/internal/browse"
	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/render"
	"github.com/JonMunkholm/catalog/internal/selection"
)

// Session is one visitor's application state. All methods are safe for
// concurrent use; each call holds the session lock until it returns.
type Session struct {
	id     string
	cat    *catalog.Catalog
	brands []string

	mu      sync.Mutex
	view    browse.View
	store   *selection.Store
	contact export.Contact
	notice  string

	seen atomic.Int64 // unix nanos of the last access
}

func newSession(ctx context.Context, svc *Service, visitorID string) *Session {
	return &Session{
		id:      visitorID,
		cat:     svc.catalog,
		brands:  svc.brands,
		view:    browse.NewView(svc.opts.PageSize),
		store:   selection.Open(ctx, svc.backend, visitorID),
		contact: export.Contact{CountryCode: svc.opts.DefaultCountryCode},
	}
}

// ID returns the visitor id.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) touch(now time.Time) {
	s.seen.Store(now.UnixNano())
}

func (s *Session) lastSeen() time.Time {
	return time.Unix(0, s.seen.Load())
}

// View returns a copy of the current view state.
func (s *Session) View() browse.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Record returns a copy of the selection as persisted.
func (s *Session) Record() selection.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Dispatch applies one delegated action. Selection changes are persisted
// before it returns.
func (s *Session) Dispatch(ctx context.Context, a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.FromContext(ctx).Debug("dispatch action",
		"action", a.Name,
		"id", a.ID,
	)

	rows := s.cat.Rows()

	switch a.Name {
	case ActionFilter:
		s.view.SetFilters(a.Brand, a.Query)

	case ActionPageSize:
		size, ok := browse.ParsePageSize(a.PageSize)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidPageSize, a.PageSize)
		}
		s.view.SetPageSize(size)

	case ActionFirst:
		s.view.First()
	case ActionPrev:
		s.view.Prev()
	case ActionNext:
		s.view.Next(rows)
	case ActionLast:
		s.view.Last(rows)

	case ActionSelect:
		id, err := s.catalogRow(a.ID)
		if err != nil {
			return err
		}
		qty, ok := parseQuantity(a.Quantity)
		if !ok || qty < 1 {
			qty = 1
		}
		return s.store.Set(ctx, id, qty)

	case ActionDeselect, ActionDelete:
		id, err := parseRowID(a.ID)
		if err != nil {
			return err
		}
		return s.store.Remove(ctx, id)

	case ActionQuantity:
		id, err := parseRowID(a.ID)
		if err != nil {
			return err
		}
		// The quantity field of an unselected row is disabled.
		if !s.store.Has(id) {
			return nil
		}
		qty, ok := parseQuantity(a.Quantity)
		if !ok {
			return nil
		}
		return s.store.Set(ctx, id, qty)

	case ActionClear:
		return s.store.Clear(ctx)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, a.Name)
	}

	return nil
}

// BrowsePage renders the current window. zoom, when it names a catalog row,
// opens the image overlay for it. A pending notice is consumed.
func (s *Session) BrowsePage(zoom string) render.BrowsePage {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.view.Apply(s.cat.Rows())
	page := render.Browse(w, s.view, s.brands, s.store)
	page.Notice = s.takeNotice()
	page.Zoom = s.zoom(zoom)
	return page
}

// SelectedPage renders the selected items and the contact form, with the
// overlay for zoom like BrowsePage. A pending notice is consumed.
func (s *Session) SelectedPage(zoom string) render.SelectedPage {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := render.Selected(s.cat, s.store, s.contact)
	page.Notice = s.takeNotice()
	page.Zoom = s.zoom(zoom)
	return page
}

// zoom returns the overlay for a raw row id, nil when it names no row.
func (s *Session) zoom(raw string) *render.ZoomView {
	if raw == "" {
		return nil
	}
	id, err := parseRowID(raw)
	if err != nil {
		return nil
	}
	z, _ := render.Zoom(s.cat, id)
	return z
}

// Document lays out the selection for the PDF export. An empty selection
// returns export.ErrEmptySelection and leaves a notice for the next page.
func (s *Session) Document(ctx context.Context, contact export.Contact) ([]export.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contact = contact
	blocks, err := export.Document(export.Items(s.cat, s.store), contact)
	if err != nil {
		s.refused(ctx, "pdf", err)
		return nil, err
	}
	return blocks, nil
}

// MessageLink builds the messaging link for the selection. An empty
// selection returns export.ErrEmptySelection and leaves a notice for the
// next page.
func (s *Session) MessageLink(ctx context.Context, contact export.Contact, endpoint, number string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contact = contact
	msg, err := export.Message(export.Items(s.cat, s.store), contact)
	if err != nil {
		s.refused(ctx, "message", err)
		return "", err
	}
	return export.MessageLink(endpoint, number, msg), nil
}

func (s *Session) refused(ctx context.Context, kind string, err error) {
	if errors.Is(err, export.ErrEmptySelection) {
		s.notice = render.NoticeEmptyExport
	}
	logging.FromContext(ctx).Info("export refused", "export", kind, "error", err)
}

func (s *Session) takeNotice() string {
	n := s.notice
	s.notice = ""
	return n
}

// catalogRow parses id and checks it names a catalog row.
func (s *Session) catalogRow(raw string) (int, error) {
	id, err := parseRowID(raw)
	if err != nil {
		return 0, err
	}
	if _, ok := s.cat.Get(id); !ok {
		return 0, fmt.Errorf("%w: %d", ErrRowNotFound, id)
	}
	return id, nil
}

func parseRowID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRowID, raw)
	}
	return id, nil
}

func parseQuantity(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}
