// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records finished research runs and their per-source
// outcomes in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/variant-research/pkg/types"
)

// DefaultFile is the database file name inside the reports directory.
const DefaultFile = "history.db"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and its schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query_key TEXT NOT NULL,
			gene_symbol TEXT,
			state TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			report_path TEXT,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_query_key ON runs(query_key)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS source_outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source TEXT NOT NULL,
			status TEXT NOT NULL,
			records INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			PRIMARY KEY (run_id, source)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run and its source outcomes in one transaction. Recording
// the same run id again replaces the earlier entry.
func (s *Store) Record(ctx context.Context, run types.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("replacing run %s: %w", run.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, query_key, gene_symbol, state, started_at, finished_at, report_path, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.QueryKey, run.GeneSymbol, run.State,
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		run.ReportPath, run.Error,
	); err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	for i, o := range run.Sources {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO source_outcomes (run_id, position, source, status, records, errors)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, i, o.Source, string(o.Status), o.Records, o.Errors,
		); err != nil {
			return fmt.Errorf("inserting outcome %s/%s: %w", run.ID, o.Source, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit runs, newest first. A non-empty queryKey
// restricts the result to runs of that key.
func (s *Store) Recent(ctx context.Context, queryKey string, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, query_key, gene_symbol, state, started_at, finished_at, report_path, error FROM runs`
	args := []any{}
	if queryKey != "" {
		query += ` WHERE query_key = ?`
		args = append(args, types.NormalizeQueryKey(queryKey))
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		var (
			run                 types.RunRecord
			gene, report, msg   sql.NullString
			startedAt, finished string
		)
		if err := rows.Scan(&run.ID, &run.QueryKey, &gene, &run.State, &startedAt, &finished, &report, &msg); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.GeneSymbol, run.ReportPath, run.Error = gene.String, report.String, msg.String
		if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at of %s: %w", run.ID, err)
		}
		if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at of %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		outcomes, err := s.outcomes(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Sources = outcomes
	}
	return runs, nil
}

func (s *Store) outcomes(ctx context.Context, runID string) ([]types.SourceOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, status, records, errors FROM source_outcomes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes of %s: %w", runID, err)
	}
	defer rows.Close()

	out := []types.SourceOutcome{}
	for rows.Next() {
		var o types.SourceOutcome
		var status string
		if err := rows.Scan(&o.Source, &status, &o.Records, &o.Errors); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.Status = types.Status(status)
		out = append(out, o)
	}
	return out, rows.Err()
}
