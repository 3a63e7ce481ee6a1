// internal/state/db.go
// Transfer history persistence.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// TransferRecord represents a single transfer attempt in the history.
type TransferRecord struct {
	ID               int64
	RemoteName       string
	TriggerType      string
	State            string // success, failure, timeout, cancelled, aborted, skipped
	StartedAt        time.Time
	FinishedAt       time.Time
	DurationMs       int64
	RetryAttempt     int
	AbortTrigger     string // phrase that aborted the transfer, if any
	CooldownSeconds  int64
	TransferredBytes uint64
	Error            string
	Output           string // truncated to 10KB, scrubbed of secrets
	DryRun           bool
}

// Summary aggregates a remote's transfer history.
type Summary struct {
	RemoteName       string
	Transfers        int
	Aborts           int
	Failures         int
	TransferredBytes uint64
}

// DB wraps the SQLite database connection for transfer history.
type DB struct {
	db *sql.DB
}

const stateSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transfer_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    remote_name TEXT NOT NULL,
    trigger_type TEXT NOT NULL,
    state TEXT NOT NULL,
    started_at DATETIME NOT NULL,
    finished_at DATETIME NOT NULL,
    duration_ms INTEGER NOT NULL,
    retry_attempt INTEGER DEFAULT 0,
    abort_trigger TEXT,
    cooldown_seconds INTEGER DEFAULT 0,
    transferred_bytes INTEGER DEFAULT 0,
    error TEXT,
    output TEXT,
    dry_run BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transfer_history_remote ON transfer_history(remote_name);
CREATE INDEX IF NOT EXISTS idx_transfer_history_state ON transfer_history(state);
CREATE INDEX IF NOT EXISTS idx_transfer_history_started ON transfer_history(started_at);
`

// Open opens or creates a state database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	// Insert schema version if not present
	var count int
	db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if count == 0 {
		db.Exec("INSERT INTO schema_version (version) VALUES (1)")
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// RecordTransfer stores a transfer record and returns its ID.
func (d *DB) RecordTransfer(rec TransferRecord) (int64, error) {
	result, err := d.db.Exec(`
		INSERT INTO transfer_history
		(remote_name, trigger_type, state, started_at, finished_at, duration_ms,
		 retry_attempt, abort_trigger, cooldown_seconds, transferred_bytes,
		 error, output, dry_run)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RemoteName, rec.TriggerType, rec.State, rec.StartedAt, rec.FinishedAt,
		rec.DurationMs, rec.RetryAttempt, rec.AbortTrigger, rec.CooldownSeconds,
		rec.TransferredBytes, rec.Error, rec.Output, rec.DryRun,
	)
	if err != nil {
		return 0, fmt.Errorf("recording transfer: %w", err)
	}
	return result.LastInsertId()
}

// GetHistory retrieves transfer history filtered by remote name and/or state.
func (d *DB) GetHistory(remoteName, state string, limit int) ([]TransferRecord, error) {
	query := "SELECT id, remote_name, trigger_type, state, started_at, finished_at, duration_ms, retry_attempt, abort_trigger, cooldown_seconds, transferred_bytes, error, output, dry_run FROM transfer_history WHERE 1=1"
	var args []any

	if remoteName != "" {
		query += " AND remote_name = ?"
		args = append(args, remoteName)
	}
	if state != "" {
		query += " AND state = ?"
		args = append(args, state)
	}

	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []TransferRecord
	for rows.Next() {
		var r TransferRecord
		var abortTrigger, errStr, output sql.NullString
		if err := rows.Scan(&r.ID, &r.RemoteName, &r.TriggerType, &r.State,
			&r.StartedAt, &r.FinishedAt, &r.DurationMs, &r.RetryAttempt,
			&abortTrigger, &r.CooldownSeconds, &r.TransferredBytes,
			&errStr, &output, &r.DryRun); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.AbortTrigger = abortTrigger.String
		r.Error = errStr.String
		r.Output = output.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetLastState returns the most recent transfer state for a remote.
func (d *DB) GetLastState(remoteName string) (string, error) {
	var state sql.NullString
	err := d.db.QueryRow(
		"SELECT state FROM transfer_history WHERE remote_name = ? ORDER BY started_at DESC LIMIT 1",
		remoteName,
	).Scan(&state)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting last state: %w", err)
	}
	return state.String, nil
}

// Summarize aggregates transfer counts and total bytes moved for a remote.
func (d *DB) Summarize(remoteName string) (Summary, error) {
	s := Summary{RemoteName: remoteName}
	err := d.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN state = 'aborted' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN state IN ('failure', 'timeout') THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(transferred_bytes), 0)
		FROM transfer_history WHERE remote_name = ?`,
		remoteName,
	).Scan(&s.Transfers, &s.Aborts, &s.Failures, &s.TransferredBytes)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing history: %w", err)
	}
	return s, nil
}

// Cleanup removes transfer records older than the specified number of days.
func (d *DB) Cleanup(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result, err := d.db.Exec(
		"DELETE FROM transfer_history WHERE started_at < ?", cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("cleaning up history: %w", err)
	}
	return result.RowsAffected()
}
