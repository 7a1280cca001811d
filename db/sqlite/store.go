// Package sqlite provides the local, file-backed Scenario Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"scenario-engine/internal/simulation"
	"scenario-engine/internal/store"
)

const timeFormat = time.RFC3339Nano

// Store keeps one row per owner; saves use INSERT OR REPLACE.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.EnsureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// EnsureSchema creates the scenario table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const createTable = `
CREATE TABLE IF NOT EXISTS scenario_inputs (
  owner_id    TEXT PRIMARY KEY,
  revision_id TEXT NOT NULL,
  input_json  TEXT NOT NULL,
  updated_at  TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create scenario table: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, ownerID string, input simulation.ScenarioInput) error {
	if err := store.ValidateOwnerID(ownerID); err != nil {
		return err
	}
	payload, err := store.EncodeInput(input)
	if err != nil {
		return err
	}
	rec := store.NewRecord(ownerID)

	const stmt = `
		INSERT OR REPLACE INTO scenario_inputs (owner_id, revision_id, input_json, updated_at)
		VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, stmt, rec.OwnerID, rec.RevisionID.String(), payload, rec.UpdatedAt.Format(timeFormat)); err != nil {
		return fmt.Errorf("failed to save scenario: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, ownerID string) (*simulation.ScenarioInput, error) {
	if err := store.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT input_json FROM scenario_inputs WHERE owner_id = ?`, ownerID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	return store.DecodeInput(payload)
}

func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT owner_id, revision_id, updated_at FROM scenario_inputs ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		var owner, revision, updated string
		if err := rows.Scan(&owner, &revision, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		rec := store.Record{OwnerID: owner}
		if rec.RevisionID, err = uuid.Parse(revision); err != nil {
			return nil, fmt.Errorf("invalid revision id for %s: %w", owner, err)
		}
		if rec.UpdatedAt, err = time.Parse(timeFormat, updated); err != nil {
			return nil, fmt.Errorf("invalid updated_at for %s: %w", owner, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
