package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by GetRun for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

// Fixed width so that stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id                   TEXT PRIMARY KEY,
  started_at           TEXT NOT NULL,
  finished_at          TEXT NOT NULL,
  prompt               TEXT NOT NULL,
  base_dir             TEXT NOT NULL,
  output_dir           TEXT,
  filter_json          TEXT NOT NULL DEFAULT '{}',
  status               TEXT NOT NULL CHECK (status IN ('ok','failed')),
  error                TEXT,
  scanned              INTEGER NOT NULL DEFAULT 0,
  matched              INTEGER NOT NULL DEFAULT 0,
  skipped_missing_meta INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE TABLE IF NOT EXISTS run_files (
  run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  position  INTEGER NOT NULL,
  dest_path TEXT NOT NULL,
  PRIMARY KEY (run_id, position)
);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// InsertRun stores a run and its copied files in one transaction.
func (d *DB) InsertRun(ctx context.Context, r Run) (err error) {
	if r.ID == "" {
		return errors.New("run id is required")
	}
	if r.FilterJSON == "" {
		r.FilterJSON = "{}"
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs(id, started_at, finished_at, prompt, base_dir, output_dir, filter_json, status, error, scanned, matched, skipped_missing_meta) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, formatTime(r.StartedAt), formatTime(r.FinishedAt), r.Prompt, r.BaseDir, nullIfEmpty(r.OutputDir), r.FilterJSON, r.Status, nullIfEmpty(r.Error), r.Scanned, r.Matched, r.SkippedMissingMeta)
	if err != nil {
		return err
	}

	for i, f := range r.Files {
		if _, err = tx.ExecContext(ctx, `INSERT INTO run_files(run_id, position, dest_path) VALUES(?,?,?)`, r.ID, i, f); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRuns returns runs newest first, without their file lists.
func (d *DB) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Status != "" && opts.Status != "all" {
		where += " AND status = ?"
		args = append(args, opts.Status)
	}
	if !opts.Since.IsZero() {
		where += " AND started_at >= ?"
		args = append(args, formatTime(opts.Since))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	q := "SELECT " + runColumns + " FROM runs " + where + " ORDER BY started_at DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RunIDsWithPrefix returns the IDs of runs whose ID starts with prefix,
// newest first.
func (d *DB) RunIDsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id FROM runs WHERE substr(id, 1, ?) = ? ORDER BY started_at DESC`, len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetRun returns a run with its files in copy order.
func (d *DB) GetRun(ctx context.Context, id string) (Run, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := d.sql.QueryContext(ctx, "SELECT dest_path FROM run_files WHERE run_id = ? ORDER BY position", id)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return Run{}, err
		}
		r.Files = append(r.Files, p)
	}
	return r, rows.Err()
}

func (d *DB) GetStats(ctx context.Context) ([]StatusStats, error) {
	query := `
		SELECT
			status,
			COUNT(*),
			COALESCE(SUM(scanned), 0),
			COALESCE(SUM(matched), 0),
			COALESCE(SUM(skipped_missing_meta), 0)
		FROM
			runs
		GROUP BY
			status
		ORDER BY
			status;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []StatusStats
	for rows.Next() {
		var s StatusStats
		if err := rows.Scan(&s.Status, &s.RunCount, &s.Scanned, &s.Matched, &s.SkippedMissingMeta); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

const runColumns = "id, started_at, finished_at, prompt, base_dir, output_dir, filter_json, status, error, scanned, matched, skipped_missing_meta"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r                   Run
		started, finished   string
		outputDir, errorMsg sql.NullString
	)
	if err := s.Scan(&r.ID, &started, &finished, &r.Prompt, &r.BaseDir, &outputDir, &r.FilterJSON, &r.Status, &errorMsg, &r.Scanned, &r.Matched, &r.SkippedMissingMeta); err != nil {
		return Run{}, err
	}
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	r.OutputDir = outputDir.String
	r.Error = errorMsg.String
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	// Fall back to the SQLite CURRENT_TIMESTAMP format
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
