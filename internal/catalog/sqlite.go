package catalog

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"idxdata/internal/ingest"
)

var _ Recorder = (*SQLiteRecorder)(nil)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			mode        TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			cancelled   INTEGER NOT NULL,
			symbols     INTEGER NOT NULL,
			done        INTEGER NOT NULL,
			failed      INTEGER NOT NULL,
			written     INTEGER NOT NULL,
			skipped     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS run_symbols (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  INTEGER NOT NULL REFERENCES runs(id),
			kode    TEXT NOT NULL,
			status  TEXT NOT NULL,
			stage   TEXT,
			message TEXT,
			written INTEGER NOT NULL,
			skipped INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_symbols_run ON run_symbols(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_run_symbols_kode ON run_symbols(kode)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts the run row and one row per symbol outcome, in a single
// transaction.
func (r *SQLiteRecorder) RecordRun(summary *ingest.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	done, failed, written, skipped := summary.Counts()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs
		(mode, started_at, finished_at, cancelled, symbols, done, failed, written, skipped)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		string(summary.Mode),
		summary.StartedAt.Unix(),
		summary.FinishedAt.Unix(),
		boolToInt(summary.Cancelled),
		len(summary.PerSymbol),
		done, failed, written, skipped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	for kode, out := range summary.PerSymbol {
		if _, err := tx.Exec(`INSERT INTO run_symbols
			(run_id, kode, status, stage, message, written, skipped)
			VALUES (?,?,?,?,?,?,?)`,
			runID, kode, string(out.Status), string(out.Stage), out.Err, out.Written, out.Skipped,
		); err != nil {
			return fmt.Errorf("insert outcome %s: %w", kode, err)
		}
	}

	return tx.Commit()
}

// LastRun returns the most recent run's mode and counts, for inspection.
func (r *SQLiteRecorder) LastRun() (mode string, done, failed, written int, err error) {
	row := r.db.QueryRow(`SELECT mode, done, failed, written FROM runs ORDER BY id DESC LIMIT 1`)
	err = row.Scan(&mode, &done, &failed, &written)
	return mode, done, failed, written, err
}

// Close closes the underlying database connection.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
