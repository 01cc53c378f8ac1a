// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest persists conversion run history in a SQLite database
// under the working directory.
package manifest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tarzip/internal/convert"
	"github.com/pdiddy/tarzip/pkg/types"
)

const (
	manifestDir = ".tarzip"
	dbFile      = "manifest.db"
)

// Run is one recorded batch conversion.
type Run struct {
	ID         int64     `json:"id" yaml:"id"`
	Directory  string    `json:"directory" yaml:"directory"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Converted  int       `json:"converted" yaml:"converted"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Failed     int       `json:"failed" yaml:"failed"`
}

// Store manages the run manifest SQLite database.
type Store struct {
	db      *sql.DB
	maxRuns int
}

// Open opens or creates the manifest database at dir/.tarzip/manifest.db,
// creating the schema if it does not exist.
func Open(dir string, cfg types.ManifestConfig) (*Store, error) {
	dbDir := filepath.Join(dir, manifestDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening manifest database: %w", err)
	}

	maxRuns := cfg.MaxRuns
	if maxRuns <= 0 {
		maxRuns = 20
	}

	s := &Store{db: db, maxRuns: maxRuns}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating manifest schema: %w", err)
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
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			directory TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			converted INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			input TEXT NOT NULL,
			output TEXT,
			status TEXT NOT NULL,
			stage TEXT,
			error TEXT,
			entries INTEGER NOT NULL,
			bytes_in INTEGER NOT NULL,
			bytes_out INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_run_id ON conversions(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun inserts one run and its per-archive records. It returns the
// new run's ID.
func (s *Store) RecordRun(dir string, result convert.BatchResult) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (directory, started_at, finished_at, converted, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		dir,
		result.StartedAt.Format(time.RFC3339Nano),
		result.FinishedAt.Format(time.RFC3339Nano),
		result.Converted, result.Skipped, result.Failed,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, rec := range result.Records {
		if _, err := tx.Exec(
			`INSERT INTO conversions (run_id, input, output, status, stage, error, entries, bytes_in, bytes_out, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, rec.Input, rec.Output, string(rec.Status), rec.Stage, rec.Error,
			rec.Entries, rec.BytesIn, rec.BytesOut, rec.Duration.Milliseconds(),
		); err != nil {
			return 0, fmt.Errorf("inserting conversion for %s: %w", rec.Input, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Runs returns the most recent runs, newest first. limit <= 0 falls back
// to the configured default.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = s.maxRuns
	}
	rows, err := s.db.Query(
		`SELECT id, directory, started_at, finished_at, converted, skipped, failed
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Directory, &started, &finished,
			&r.Converted, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Conversions returns the per-archive records of one run in insertion
// order.
func (s *Store) Conversions(runID int64) ([]types.ConversionRecord, error) {
	rows, err := s.db.Query(
		`SELECT input, output, status, stage, error, entries, bytes_in, bytes_out, duration_ms
		 FROM conversions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var recs []types.ConversionRecord
	for rows.Next() {
		var rec types.ConversionRecord
		var status string
		var durationMS int64
		if err := rows.Scan(&rec.Input, &rec.Output, &status, &rec.Stage, &rec.Error,
			&rec.Entries, &rec.BytesIn, &rec.BytesOut, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		rec.Status = types.ConversionStatus(status)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
