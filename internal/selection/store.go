// Package selection keeps the visitor's chosen rows and quantities.
//
// A Store is an in-memory map from row id to Entry that is written back to
// its Backend after every mutation, so the persisted record never lags the
// in-memory state by more than the call in progress. Presence in the map
// means "selected"; a quantity is always at least 1.
package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/JonMunkholm/catalog/internal/logging"
)

// Entry is the persisted state of one selected row.
type Entry struct {
	Quantity int `json:"quantity"`
}

// Record is the serialized form: row-id strings to entries.
type Record map[string]Entry

// Backend stores one opaque serialized record per key.
type Backend interface {
	// Load returns the stored record, or nil with no error when none exists.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Store is one visitor's selection. It is not safe for concurrent use; the
// owning session serializes access.
type Store struct {
	backend Backend
	key     string
	entries Record
}

// NewStore returns an empty store bound to key. Call Restore to load the
// persisted state.
func NewStore(backend Backend, key string) *Store {
	return &Store{
		backend: backend,
		key:     key,
		entries: make(Record),
	}
}

// Open creates a store and restores it.
func Open(ctx context.Context, backend Backend, key string) *Store {
	s := NewStore(backend, key)
	s.Restore(ctx)
	return s
}

// Key returns the backend key this store persists under.
func (s *Store) Key() string {
	return s.key
}

// Restore replaces the in-memory state with the persisted record. Missing,
// unreadable or corrupt data yields an empty selection; nothing is surfaced
// to the caller.
func (s *Store) Restore(ctx context.Context) {
	logger := logging.WithFields(ctx, "selection_key", s.key)
	s.entries = make(Record)

	data, err := s.backend.Load(ctx, s.key)
	if err != nil {
		logger.Warn("selection load failed, starting empty", "error", err)
		return
	}
	if len(data) == 0 {
		return
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Debug("corrupt selection record, starting empty", "error", err)
		return
	}
	for k, e := range rec {
		if _, err := strconv.Atoi(k); err != nil || e.Quantity < 1 {
			continue
		}
		s.entries[k] = e
	}
}

// Persist writes the current state to the backend.
func (s *Store) Persist(ctx context.Context) error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("save selection %s: %w", s.key, err)
	}
	return nil
}

// Get returns the entry for row id, if selected.
func (s *Store) Get(id int) (Entry, bool) {
	e, ok := s.entries[strconv.Itoa(id)]
	return e, ok
}

// Has reports whether row id is selected.
func (s *Store) Has(id int) bool {
	_, ok := s.Get(id)
	return ok
}

// Set selects row id with quantity. A quantity below 1 removes the entry.
func (s *Store) Set(ctx context.Context, id, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, id)
	}
	s.entries[strconv.Itoa(id)] = Entry{Quantity: quantity}
	return s.Persist(ctx)
}

// Remove deselects row id. Removing an absent id still persists, which keeps
// the stored record identical to memory.
func (s *Store) Remove(ctx context.Context, id int) error {
	delete(s.entries, strconv.Itoa(id))
	return s.Persist(ctx)
}

// Clear empties the selection.
func (s *Store) Clear(ctx context.Context) error {
	s.entries = make(Record)
	return s.Persist(ctx)
}

// Len returns the number of selected rows.
func (s *Store) Len() int {
	return len(s.entries)
}

// IDs returns the selected row ids in ascending order.
func (s *Store) IDs() []int {
	ids := make([]int, 0, len(s.entries))
	for k := range s.entries {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() Record {
	out := make(Record, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}
