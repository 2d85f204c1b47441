package selection

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

func TestStore_SelectDefaultsAndRemoval(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := Open(ctx, backend, "v1")

	if err := s.Set(ctx, 3, 1); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if e, ok := s.Get(3); !ok || e.Quantity != 1 {
		t.Errorf("Get(3) = %+v, %v; want quantity 1", e, ok)
	}

	if err := s.Set(ctx, 3, 5); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if e, _ := s.Get(3); e.Quantity != 5 {
		t.Errorf("quantity = %d, want 5", e.Quantity)
	}

	if err := s.Remove(ctx, 3); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if s.Has(3) {
		t.Error("row 3 still selected after Remove")
	}
	if got := backend.Raw("v1"); got != "{}" {
		t.Errorf("persisted = %s, want {}", got)
	}
}

func TestStore_NonPositiveQuantityRemoves(t *testing.T) {
	for _, q := range []int{0, -1, -50} {
		ctx := context.Background()
		s := Open(ctx, NewMemoryBackend(), "v1")
		s.Set(ctx, 7, 2)

		if err := s.Set(ctx, 7, q); err != nil {
			t.Fatalf("Set(%d) error = %v", q, err)
		}
		if s.Has(7) {
			t.Errorf("Set(7, %d) kept the entry", q)
		}
	}
}

func TestStore_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := Open(ctx, backend, "v1")

	s.Set(ctx, 0, 2)
	if got := backend.Raw("v1"); got != `{"0":{"quantity":2}}` {
		t.Errorf("after Set persisted = %s", got)
	}

	s.Set(ctx, 10, 1)
	if got := backend.Raw("v1"); got != `{"0":{"quantity":2},"10":{"quantity":1}}` {
		t.Errorf("after second Set persisted = %s", got)
	}

	s.Clear(ctx)
	if got := backend.Raw("v1"); got != "{}" {
		t.Errorf("after Clear persisted = %s", got)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after Clear", s.Len())
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	first := Open(ctx, backend, "v1")
	first.Set(ctx, 0, 2)
	first.Set(ctx, 4, 1)
	first.Set(ctx, 9, 12)
	want := first.Snapshot()

	// Simulated reload: a fresh store over the same backend.
	reloaded := Open(ctx, backend, "v1")
	got := reloaded.Snapshot()

	if len(got) != len(want) {
		t.Fatalf("reloaded %v, want %v", got, want)
	}
	for k, e := range want {
		if got[k] != e {
			t.Errorf("entry %s = %+v, want %+v", k, got[k], e)
		}
	}

	ids := reloaded.IDs()
	if len(ids) != 3 || ids[0] != 0 || ids[1] != 4 || ids[2] != 9 {
		t.Errorf("IDs() = %v, want [0 4 9]", ids)
	}
}

func TestStore_RestoreTolerance(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		wantLen int
	}{
		{"absent", "", 0},
		{"corrupt json", "{not json", 0},
		{"wrong shape", `["0","1"]`, 0},
		{"drops bad entries", `{"0":{"quantity":2},"x":{"quantity":1},"3":{"quantity":0}}`, 1},
		{"valid", `{"1":{"quantity":1},"2":{"quantity":3}}`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := NewMemoryBackend()
			if tt.stored != "" {
				backend.Save(ctx, "v1", []byte(tt.stored))
			}
			s := Open(ctx, backend, "v1")
			if s.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", s.Len(), tt.wantLen)
			}
		})
	}
}

type failingBackend struct {
	loadErr, saveErr error
}

func (f failingBackend) Load(context.Context, string) ([]byte, error) { return nil, f.loadErr }
func (f failingBackend) Save(context.Context, string, []byte) error   { return f.saveErr }

func TestStore_BackendErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")

	s := Open(ctx, failingBackend{loadErr: boom, saveErr: boom}, "v1")
	if s.Len() != 0 {
		t.Errorf("Len() = %d after failed load, want 0", s.Len())
	}

	err := s.Set(ctx, 1, 1)
	if !errors.Is(err, boom) {
		t.Errorf("Set() error = %v, want wrapped %v", err, boom)
	}
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "selections")
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}

	data, err := backend.Load(ctx, "visitor-1")
	if err != nil || data != nil {
		t.Fatalf("Load(absent) = %q, %v; want nil, nil", data, err)
	}

	s := Open(ctx, backend, "visitor-1")
	s.Set(ctx, 0, 2)

	raw, err := os.ReadFile(filepath.Join(dir, "visitor-1.json"))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if string(raw) != `{"0":{"quantity":2}}` {
		t.Errorf("file contents = %s", raw)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only the record (temp files cleaned up)", len(entries))
	}

	if again := Open(ctx, backend, "visitor-1"); again.Len() != 1 {
		t.Errorf("reopened Len() = %d, want 1", again.Len())
	}
}

func TestFileBackend_RejectsTraversal(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "../x", "a/b", ".."} {
		if err := backend.Save(context.Background(), key, []byte("{}")); err == nil {
			t.Errorf("Save(%q) succeeded, want error", key)
		}
	}
}

type fakeRow struct {
	payload string
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.payload
	return nil
}

type fakeDB struct {
	rows  map[string]string
	execs []string
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if strings.Contains(sql, "INSERT INTO catalog_selections") {
		f.rows[args[0].(string)] = args[1].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	payload, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{payload: payload}
}

func TestPostgresBackend(t *testing.T) {
	ctx := context.Background()
	db := &fakeDB{rows: make(map[string]string)}
	backend := NewPostgresBackend(db)

	if err := backend.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if !strings.Contains(db.execs[0], "CREATE TABLE IF NOT EXISTS catalog_selections") {
		t.Errorf("unexpected schema statement: %s", db.execs[0])
	}

	if data, err := backend.Load(ctx, "v1"); err != nil || data != nil {
		t.Errorf("Load(absent) = %q, %v; want nil, nil", data, err)
	}

	s := Open(ctx, backend, "v1")
	s.Set(ctx, 0, 2)
	if db.rows["v1"] != `{"0":{"quantity":2}}` {
		t.Errorf("stored payload = %s", db.rows["v1"])
	}

	if again := Open(ctx, backend, "v1"); again.Len() != 1 {
		t.Errorf("reloaded Len() = %d, want 1", again.Len())
	}
}

func newDisabledRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "localhost:0",
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("redis disabled in tests")
		},
		MaxRetries: -1,
	})
}

func TestRedisBackend_Unavailable(t *testing.T) {
	ctx := context.Background()
	client := newDisabledRedis()
	defer client.Close()

	backend := NewRedisBackend(client, 0)
	if backend.redisKey("v1") != "selection:visitor:v1" {
		t.Errorf("redisKey = %q", backend.redisKey("v1"))
	}

	if _, err := backend.Load(ctx, "v1"); err == nil {
		t.Error("Load() on unreachable redis succeeded")
	}

	// Unreachable storage restores as an empty selection but refuses writes.
	s := Open(ctx, backend, "v1")
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if err := s.Set(ctx, 1, 1); err == nil {
		t.Error("Set() on unreachable redis succeeded")
	}
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	b, closeFn, err := NewBackend(ctx, config.SelectionConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	closeFn()
	if _, ok := b.(*MemoryBackend); !ok {
		t.Errorf("memory backend type = %T", b)
	}

	b, closeFn, err = NewBackend(ctx, config.SelectionConfig{Backend: "file", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	closeFn()
	if _, ok := b.(*FileBackend); !ok {
		t.Errorf("file backend type = %T", b)
	}

	if _, _, err := NewBackend(ctx, config.SelectionConfig{Backend: "etcd"}); err == nil {
		t.Error("unknown backend accepted")
	}
	if _, _, err := NewBackend(ctx, config.SelectionConfig{Backend: "redis", RedisURL: "not a url"}); err == nil {
		t.Error("bad redis url accepted")
	}
}
