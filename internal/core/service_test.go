package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/catalog/internal/browse"
	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/render"
	"github.com/JonMunkholm/catalog/internal/selection"
)

const testCSV = "producto,marca,modelo,imagen\n" +
	"A,brand1,m1,a.jpg\n" +
	"B,brand2,m2,b.jpg\n" +
	"C,brand1,m3,c.jpg\n"

func newTestService(t *testing.T) (*Service, *selection.MemoryBackend) {
	t.Helper()
	cat, err := catalog.Parse(context.Background(), strings.NewReader(testCSV), ',')
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	backend := selection.NewMemoryBackend()
	return NewService(cat, nil, backend, Options{PageSize: browse.DefaultPageSize}), backend
}

func cardNames(page render.BrowsePage) []string {
	names := make([]string, len(page.Cards))
	for i, c := range page.Cards {
		names[i] = c.Name
	}
	return names
}

func TestSession_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t)

	sess, err := svc.Session(ctx, "visitor-1")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}

	if err := sess.Dispatch(ctx, Action{Name: ActionFilter, Brand: "brand1"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	page := sess.BrowsePage("")
	if got := strings.Join(cardNames(page), ","); got != "A,C" {
		t.Errorf("visible = %s, want A,C", got)
	}

	if err := sess.Dispatch(ctx, Action{Name: ActionSelect, ID: "0", Quantity: "2"}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := backend.Raw("visitor-1"); got != `{"0":{"quantity":2}}` {
		t.Errorf("persisted = %s, want {\"0\":{\"quantity\":2}}", got)
	}

	if err := sess.Dispatch(ctx, Action{Name: ActionClear}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := backend.Raw("visitor-1"); got != "{}" {
		t.Errorf("persisted after clear = %s, want {}", got)
	}
}

func TestSession_SelectionSurvivesNewSession(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t)

	sess, _ := svc.Session(ctx, "v1")
	sess.Dispatch(ctx, Action{Name: ActionSelect, ID: "2", Quantity: "3"})

	// A second service over the same backend acts as a process restart.
	restarted := NewService(svc.Catalog(), nil, backend, Options{})
	again, _ := restarted.Session(ctx, "v1")

	if rec := again.Record(); rec["2"].Quantity != 3 || len(rec) != 1 {
		t.Errorf("restored record = %v", rec)
	}
}

func TestSession_Dispatch(t *testing.T) {
	tests := []struct {
		name    string
		setup   []Action
		action  Action
		wantErr error
		want    selection.Record
	}{
		{
			name:   "select defaults to quantity 1",
			action: Action{Name: ActionSelect, ID: "1"},
			want:   selection.Record{"1": {Quantity: 1}},
		},
		{
			name:   "select with unparsable quantity uses 1",
			action: Action{Name: ActionSelect, ID: "1", Quantity: "abc"},
			want:   selection.Record{"1": {Quantity: 1}},
		},
		{
			name:   "deselect removes",
			setup:  []Action{{Name: ActionSelect, ID: "1"}},
			action: Action{Name: ActionDeselect, ID: "1"},
			want:   selection.Record{},
		},
		{
			name:   "quantity change on selected row",
			setup:  []Action{{Name: ActionSelect, ID: "1"}},
			action: Action{Name: ActionQuantity, ID: "1", Quantity: "7"},
			want:   selection.Record{"1": {Quantity: 7}},
		},
		{
			name:   "zero quantity removes",
			setup:  []Action{{Name: ActionSelect, ID: "1"}},
			action: Action{Name: ActionQuantity, ID: "1", Quantity: "0"},
			want:   selection.Record{},
		},
		{
			name:   "negative quantity removes",
			setup:  []Action{{Name: ActionSelect, ID: "1"}},
			action: Action{Name: ActionQuantity, ID: "1", Quantity: "-3"},
			want:   selection.Record{},
		},
		{
			name:   "unparsable quantity is ignored",
			setup:  []Action{{Name: ActionSelect, ID: "1", Quantity: "4"}},
			action: Action{Name: ActionQuantity, ID: "1", Quantity: "lots"},
			want:   selection.Record{"1": {Quantity: 4}},
		},
		{
			name:   "quantity on unselected row is ignored",
			action: Action{Name: ActionQuantity, ID: "1", Quantity: "5"},
			want:   selection.Record{},
		},
		{
			name:   "delete removes",
			setup:  []Action{{Name: ActionSelect, ID: "0"}, {Name: ActionSelect, ID: "2"}},
			action: Action{Name: ActionDelete, ID: "0"},
			want:   selection.Record{"2": {Quantity: 1}},
		},
		{
			name:    "select unknown row",
			action:  Action{Name: ActionSelect, ID: "99"},
			wantErr: ErrRowNotFound,
			want:    selection.Record{},
		},
		{
			name:    "malformed id",
			action:  Action{Name: ActionDelete, ID: "x"},
			wantErr: ErrInvalidRowID,
			want:    selection.Record{},
		},
		{
			name:    "unknown action",
			action:  Action{Name: "dance"},
			wantErr: ErrUnknownAction,
			want:    selection.Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newTestService(t)
			sess, _ := svc.Session(ctx, "v1")

			for _, a := range tt.setup {
				if err := sess.Dispatch(ctx, a); err != nil {
					t.Fatalf("setup %s: %v", a.Name, err)
				}
			}

			err := sess.Dispatch(ctx, tt.action)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Dispatch() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("Dispatch() error = %v", err)
			}

			got := sess.Record()
			if len(got) != len(tt.want) {
				t.Fatalf("record = %v, want %v", got, tt.want)
			}
			for k, e := range tt.want {
				if got[k] != e {
					t.Errorf("entry %s = %+v, want %+v", k, got[k], e)
				}
			}
		})
	}
}

func TestSession_Navigation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	sess, _ := svc.Session(ctx, "v1")

	steps := []struct {
		action   Action
		wantPage int
	}{
		{Action{Name: ActionPageSize, PageSize: "1"}, 1},
		{Action{Name: ActionPrev}, 1},
		{Action{Name: ActionNext}, 2},
		{Action{Name: ActionLast}, 3},
		{Action{Name: ActionNext}, 3},
		{Action{Name: ActionFirst}, 1},
		{Action{Name: ActionLast}, 3},
		{Action{Name: ActionFilter, Brand: "brand1"}, 1},
		{Action{Name: ActionLast}, 2},
		{Action{Name: ActionPageSize, PageSize: "all"}, 1},
		{Action{Name: ActionLast}, 1},
	}

	for i, st := range steps {
		if err := sess.Dispatch(ctx, st.action); err != nil {
			t.Fatalf("step %d (%s): %v", i, st.action.Name, err)
		}
		if got := sess.View().Page; got != st.wantPage {
			t.Errorf("step %d (%s): page = %d, want %d", i, st.action.Name, got, st.wantPage)
		}
	}

	err := sess.Dispatch(ctx, Action{Name: ActionPageSize, PageSize: "many"})
	if !errors.Is(err, ErrInvalidPageSize) {
		t.Errorf("bad page size error = %v", err)
	}
}

func TestSession_BrowsePageZoom(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	sess, _ := svc.Session(ctx, "v1")

	sess.Dispatch(ctx, Action{Name: ActionFilter, Brand: "brand2"})

	// The overlay is independent of the visible window.
	page := sess.BrowsePage("2")
	if page.Zoom == nil || page.Zoom.ImageRef != "c.jpg" {
		t.Errorf("Zoom = %+v, want row C", page.Zoom)
	}
	if page := sess.BrowsePage("nope"); page.Zoom != nil {
		t.Errorf("Zoom for bad id = %+v", page.Zoom)
	}
}

func TestSession_SelectedPageZoom(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	sess, _ := svc.Session(ctx, "v1")
	sess.Dispatch(ctx, Action{Name: ActionSelect, ID: "1"})

	page := sess.SelectedPage("1")
	if page.Zoom == nil || page.Zoom.ImageRef != "b.jpg" {
		t.Errorf("Zoom = %+v, want row B", page.Zoom)
	}
	if page := sess.SelectedPage(""); page.Zoom != nil {
		t.Errorf("Zoom without parameter = %+v", page.Zoom)
	}
	if page := sess.SelectedPage("99"); page.Zoom != nil {
		t.Errorf("Zoom outside catalog = %+v", page.Zoom)
	}
}

func TestSession_FilterPaddedBrand(t *testing.T) {
	ctx := context.Background()
	csv := "producto,marca,modelo,imagen\n" +
		"A, Sony,m1,a.jpg\n" +
		"B,Canon,m2,b.jpg\n"
	cat, err := catalog.Parse(ctx, strings.NewReader(csv), ',')
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	svc := NewService(cat, nil, selection.NewMemoryBackend(), Options{})
	sess, _ := svc.Session(ctx, "v1")

	// The dropdown offers the brands exactly as the service lists them.
	var brand string
	for _, b := range svc.Brands() {
		if strings.TrimSpace(b) == "Sony" {
			brand = b
		}
	}
	if err := sess.Dispatch(ctx, Action{Name: ActionFilter, Brand: brand}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	page := sess.BrowsePage("")
	if got := strings.Join(cardNames(page), ","); got != "A" {
		t.Errorf("visible for brand %q = %q, want A", brand, got)
	}
	for _, o := range page.Brands {
		if o.Value == brand && !o.Selected {
			t.Errorf("option %q not selected", brand)
		}
	}
}

func TestSession_ExportsRefuseEmptySelection(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	sess, _ := svc.Session(ctx, "v1")
	contact := export.Contact{Name: "Ana", CountryCode: "+54", Phone: "011"}

	if _, err := sess.Document(ctx, contact); !errors.Is(err, export.ErrEmptySelection) {
		t.Errorf("Document() error = %v", err)
	}
	page := sess.SelectedPage("")
	if page.Notice != render.NoticeEmptyExport {
		t.Errorf("notice = %q", page.Notice)
	}
	if page.Contact.Name != "Ana" {
		t.Errorf("contact not kept: %+v", page.Contact)
	}
	if again := sess.SelectedPage(""); again.Notice != "" {
		t.Errorf("notice not consumed: %q", again.Notice)
	}

	if _, err := sess.MessageLink(ctx, contact, "https://wa.me/", "+595983617831"); !errors.Is(err, export.ErrEmptySelection) {
		t.Errorf("MessageLink() error = %v", err)
	}
	if page := sess.SelectedPage(""); page.Notice != render.NoticeEmptyExport {
		t.Errorf("notice after message refusal = %q", page.Notice)
	}
}

func TestSession_Exports(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	sess, _ := svc.Session(ctx, "v1")
	sess.Dispatch(ctx, Action{Name: ActionSelect, ID: "0", Quantity: "2"})

	contact := export.Contact{Name: "Ana", CountryCode: "+595", Phone: "0981"}

	blocks, err := sess.Document(ctx, contact)
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if blocks[0].Lines[2].Text != "A (Cantidad: 2)" {
		t.Errorf("item line = %q", blocks[0].Lines[2].Text)
	}

	link, err := sess.MessageLink(ctx, contact, "https://wa.me/", "+595983617831")
	if err != nil {
		t.Fatalf("MessageLink() error = %v", err)
	}
	if !strings.Contains(link, "A%20(Cantidad%3A%202)") {
		t.Errorf("link missing item: %s", link)
	}
	if !strings.Contains(link, "WHATSAPP%3A%20%2B595981") {
		t.Errorf("link missing normalized phone: %s", link)
	}
}

func TestService_FailedCatalog(t *testing.T) {
	loadErr := errors.New("catalog fetch failed: idcatalog.csv: boom")
	svc := NewService(nil, loadErr, selection.NewMemoryBackend(), Options{})

	if svc.Ready() {
		t.Error("Ready() = true for failed catalog")
	}
	_, err := svc.Session(context.Background(), "v1")
	if !errors.Is(err, ErrCatalogUnavailable) || !errors.Is(err, loadErr) {
		t.Errorf("Session() error = %v", err)
	}
	if MapError(err).Code != "CAT001" {
		t.Errorf("code = %s", MapError(err).Code)
	}
}

func TestService_Sweep(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	svc.opts.IdleTimeout = time.Hour

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	svc.Session(ctx, "old")

	svc.now = func() time.Time { return base.Add(50 * time.Minute) }
	svc.Session(ctx, "fresh")

	if n := svc.Sweep(base.Add(90 * time.Minute)); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if svc.SessionCount() != 1 {
		t.Errorf("SessionCount() = %d, want 1", svc.SessionCount())
	}
}

// gatedBackend blocks Load for one key until release is closed.
type gatedBackend struct {
	*selection.MemoryBackend
	key     string
	started chan struct{}
	release chan struct{}
}

func (g *gatedBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if key == g.key {
		close(g.started)
		<-g.release
	}
	return g.MemoryBackend.Load(ctx, key)
}

func TestService_SessionRestoreDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	cat, err := catalog.Parse(ctx, strings.NewReader(testCSV), ',')
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	backend := &gatedBackend{
		MemoryBackend: selection.NewMemoryBackend(),
		key:           "slow",
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	svc := NewService(cat, nil, backend, Options{})

	slow := make(chan *Session)
	go func() {
		sess, _ := svc.Session(ctx, "slow")
		slow <- sess
	}()
	<-backend.started

	fast := make(chan error)
	go func() {
		_, err := svc.Session(ctx, "fast")
		fast <- err
	}()
	select {
	case err := <-fast:
		if err != nil {
			t.Fatalf("Session(fast) error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Session(fast) blocked behind a slow restore")
	}

	close(backend.release)
	if sess := <-slow; sess == nil || sess.ID() != "slow" {
		t.Errorf("Session(slow) = %v", sess)
	}
	if svc.SessionCount() != 2 {
		t.Errorf("SessionCount() = %d, want 2", svc.SessionCount())
	}
}

func TestService_SessionConcurrentOpen(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	const n = 8
	got := make([]*Session, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], _ = svc.Session(ctx, "v1")
		}()
	}
	wg.Wait()

	for i, sess := range got {
		if sess != got[0] {
			t.Errorf("Session() #%d returned a different session", i)
		}
	}
	if svc.SessionCount() != 1 {
		t.Errorf("SessionCount() = %d, want 1", svc.SessionCount())
	}
}

func TestService_StartSweeperStops(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartSweeper(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
