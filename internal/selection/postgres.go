package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx used by PostgresBackend.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

const (
	createSelectionsSQL = `
CREATE TABLE IF NOT EXISTS catalog_selections (
	visitor_id TEXT PRIMARY KEY,
	payload    JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	loadSelectionSQL = `SELECT payload::text FROM catalog_selections WHERE visitor_id = $1`

	saveSelectionSQL = `
INSERT INTO catalog_selections (visitor_id, payload, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (visitor_id) DO UPDATE
SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

// PostgresBackend keeps one row per visitor in catalog_selections.
type PostgresBackend struct {
	db DBTX
}

// NewPostgresBackend wraps a pool or connection.
func NewPostgresBackend(db DBTX) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// EnsureSchema creates the selections table if it does not exist.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createSelectionsSQL); err != nil {
		return fmt.Errorf("create catalog_selections: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Load(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := p.db.QueryRow(ctx, loadSelectionSQL, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	return []byte(payload), nil
}

func (p *PostgresBackend) Save(ctx context.Context, key string, data []byte) error {
	if _, err := p.db.Exec(ctx, saveSelectionSQL, key, string(data)); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}
