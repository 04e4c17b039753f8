package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloud8421/recipe/pkg/domain"
	_ "modernc.org/sqlite"
)

// Store implements ports.RunStore using a single-file SQLite database.
// Zero-setup persistence for single-process deployments; use the redis
// store when runs must be visible across hosts.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	correlation_id TEXT NOT NULL PRIMARY KEY,
	recipe         TEXT NOT NULL,
	status         TEXT NOT NULL,
	values_json    TEXT NOT NULL,
	failed_step    TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL DEFAULT '',
	started_at     INTEGER NOT NULL,
	finished_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_recipe ON runs(recipe);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// New opens or creates the database at path and migrates the schema.
// Use ":memory:" for an ephemeral store.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save persists the record, replacing any previous record with the same
// correlation id.
func (s *Store) Save(ctx context.Context, rec *domain.RunRecord) error {
	values, err := json.Marshal(rec.Values)
	if err != nil {
		return fmt.Errorf("failed to marshal run values: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(correlation_id, recipe, status, values_json, failed_step, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CorrelationID,
		rec.Recipe,
		string(rec.Status),
		string(values),
		rec.FailedStep,
		rec.Error,
		rec.StartedAt.UnixNano(),
		rec.FinishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}
	return nil
}

// Load retrieves a record by correlation id.
func (s *Store) Load(ctx context.Context, correlationID string) (*domain.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT correlation_id, recipe, status, values_json, failed_step, error, started_at, finished_at
		FROM runs WHERE correlation_id = ?`, correlationID)

	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to load run record: %w", err)
	}
	return rec, nil
}

// List returns all recorded runs, most recent first.
func (s *Store) List(ctx context.Context) ([]*domain.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT correlation_id, recipe, status, values_json, failed_step, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC, correlation_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var recs []*domain.RunRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return recs, nil
}

// Delete removes a record. Deleting a run that was never recorded is
// not an error.
func (s *Store) Delete(ctx context.Context, correlationID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE correlation_id = ?`, correlationID); err != nil {
		return fmt.Errorf("failed to delete run record: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecord(scan func(dest ...any) error) (*domain.RunRecord, error) {
	var (
		rec        domain.RunRecord
		status     string
		values     string
		startedAt  int64
		finishedAt int64
	)
	if err := scan(
		&rec.CorrelationID,
		&rec.Recipe,
		&status,
		&values,
		&rec.FailedStep,
		&rec.Error,
		&startedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}

	rec.Status = domain.RunStatus(status)
	if err := json.Unmarshal([]byte(values), &rec.Values); err != nil {
		return nil, fmt.Errorf("corrupted values payload: %w", err)
	}
	rec.StartedAt = time.Unix(0, startedAt).UTC()
	rec.FinishedAt = time.Unix(0, finishedAt).UTC()
	return &rec, nil
}
