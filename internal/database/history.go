package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sqlharvest/internal/model"
)

// FileName is the name of the database file inside the history directory.
const FileName = "sqlharvest.db"

// HistoryDB stores crawl runs and page fetches.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	// Read-only commands such as history leave it false.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ErrNotFound is returned by Open when the database does not exist and
// CreateIfNotExists is false.
var ErrNotFound = errors.New("history database not found")

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (h *HistoryDB) createTables() error {
	schema := `
	-- One row per crawl invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_url TEXT NOT NULL,
		output_file TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		discovered INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		fetched INTEGER NOT NULL DEFAULT 0,
		new_records INTEGER NOT NULL DEFAULT 0,
		total_records INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per category page fetch
	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL DEFAULT 0,
		category TEXT NOT NULL,
		page_id TEXT NOT NULL,
		url TEXT NOT NULL,
		referer TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		status_code INTEGER NOT NULL DEFAULT 0,
		content_hash TEXT NOT NULL DEFAULT '',
		snippets INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		fetched_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_run ON fetches(run_id);
	CREATE INDEX IF NOT EXISTS idx_fetches_category ON fetches(category);
	CREATE INDEX IF NOT EXISTS idx_fetches_time ON fetches(fetched_at);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// StartRun inserts a new run and sets run.ID.
// A zero StartedAt is replaced with the current time and an empty Status
// with RunStatusRunning.
func (h *HistoryDB) StartRun(ctx context.Context, run *model.Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = model.RunStatusRunning
	}

	query := `
	INSERT INTO runs (root_url, output_file, started_at, status)
	VALUES (?, ?, ?, ?)
	`

	result, err := h.db.ExecContext(ctx, query,
		run.RootURL,
		run.OutputFile,
		formatTimestamp(run.StartedAt),
		string(run.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run id: %w", err)
	}
	run.ID = id
	return nil
}

// FinishRun stores the outcome and counters of a started run.
func (h *HistoryDB) FinishRun(ctx context.Context, run *model.Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	query := `
	UPDATE runs SET
		finished_at = ?,
		status = ?,
		discovered = ?,
		skipped = ?,
		fetched = ?,
		new_records = ?,
		total_records = ?,
		error = ?
	WHERE id = ?
	`

	result, err := h.db.ExecContext(ctx, query,
		formatTimestamp(run.FinishedAt),
		string(run.Status),
		run.Discovered,
		run.Skipped,
		run.Fetched,
		run.NewRecords,
		run.TotalRecords,
		run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d does not exist", run.ID)
	}
	return nil
}

// GetRun retrieves a run by id. It returns nil without error when no run
// has that id.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	query := `
	SELECT id, root_url, output_file, started_at, finished_at, status,
		discovered, skipped, fetched, new_records, total_records, error
	FROM runs
	WHERE id = ?
	`

	run, err := scanRun(h.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	query := `
	SELECT id, root_url, output_file, started_at, finished_at, status,
		discovered, skipped, fetched, new_records, total_records, error
	FROM runs
	ORDER BY started_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// RecordFetch inserts a fetch record and sets rec.ID.
func (h *HistoryDB) RecordFetch(ctx context.Context, rec *model.FetchRecord) error {
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now()
	}

	query := `
	INSERT INTO fetches (run_id, category, page_id, url, referer, user_agent,
		status_code, content_hash, snippets, duration_ms, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := h.db.ExecContext(ctx, query,
		rec.RunID,
		rec.Category,
		rec.PageID,
		rec.URL,
		rec.Referer,
		rec.UserAgent,
		rec.StatusCode,
		rec.ContentHash,
		rec.Snippets,
		rec.Duration.Milliseconds(),
		formatTimestamp(rec.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fetch record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get fetch id: %w", err)
	}
	rec.ID = id
	return nil
}

// FetchQuery filters ListFetches. Zero values match everything.
type FetchQuery struct {
	// Category restricts results to one category name.
	Category string

	// RunID restricts results to one run.
	RunID int64

	// Limit caps the number of results.
	Limit int
}

// ListFetches returns fetch records matching q, most recent first.
func (h *HistoryDB) ListFetches(ctx context.Context, q FetchQuery) ([]model.FetchRecord, error) {
	query := `
	SELECT id, run_id, category, page_id, url, referer, user_agent,
		status_code, content_hash, snippets, duration_ms, fetched_at
	FROM fetches
	WHERE 1=1
	`
	args := make([]any, 0, 3)

	if q.Category != "" {
		query += " AND category = ?"
		args = append(args, q.Category)
	}
	if q.RunID != 0 {
		query += " AND run_id = ?"
		args = append(args, q.RunID)
	}

	query += " ORDER BY fetched_at DESC, id DESC"

	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}
	defer rows.Close()

	var results []model.FetchRecord
	for rows.Next() {
		var rec model.FetchRecord
		var durationMS int64
		var fetchedAt string

		err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.Category,
			&rec.PageID,
			&rec.URL,
			&rec.Referer,
			&rec.UserAgent,
			&rec.StatusCode,
			&rec.ContentHash,
			&rec.Snippets,
			&durationMS,
			&fetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fetch record: %w", err)
		}

		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.FetchedAt = parseTimestamp(fetchedAt)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun reads one runs row.
func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var status, startedAt, finishedAt string

	err := row.Scan(
		&run.ID,
		&run.RootURL,
		&run.OutputFile,
		&startedAt,
		&finishedAt,
		&status,
		&run.Discovered,
		&run.Skipped,
		&run.Fetched,
		&run.NewRecords,
		&run.TotalRecords,
		&run.Error,
	)
	if err != nil {
		return nil, err
	}

	run.Status = model.RunStatus(status)
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt != "" {
		run.FinishedAt = parseTimestamp(finishedAt)
	}
	return &run, nil
}

// storedTimestampFormat sorts lexically in time order, which the ORDER BY
// clauses rely on.
const storedTimestampFormat = "2006-01-02T15:04:05.000000000Z"

// formatTimestamp renders t in UTC for storage.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimestampFormat)
}

// timestampFormats contains the timestamp formats parseTimestamp accepts.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimestampFormat,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp tries each of timestampFormats in turn and returns the
// zero time when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
