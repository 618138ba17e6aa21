// index.go provides the SQLite-backed active-job index. Only active sessions
// live here; terminal history is served from the per-session metadata files.
package session

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Index tracks active sessions keyed by id -> worker process identity.
type Index struct {
	db *sql.DB
}

// OpenIndex opens the SQLite index at dbPath and creates the table if it
// doesn't exist.
func OpenIndex(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS active_sessions (
		id TEXT PRIMARY KEY,
		pid INTEGER NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index table: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Register adds or replaces the entry for id.
func (ix *Index) Register(id string, pid int) error {
	_, err := ix.db.Exec(
		`INSERT OR REPLACE INTO active_sessions (id, pid, started_at) VALUES (?, ?, ?)`,
		id, pid, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	return nil
}

// SetPID updates the worker process identity for id.
func (ix *Index) SetPID(id string, pid int) error {
	_, err := ix.db.Exec(`UPDATE active_sessions SET pid = ? WHERE id = ?`, pid, id)
	if err != nil {
		return fmt.Errorf("update session pid: %w", err)
	}
	return nil
}

// Remove deletes the entry for id. Removing an absent id is not an error.
func (ix *Index) Remove(id string) error {
	_, err := ix.db.Exec(`DELETE FROM active_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// ActiveEntry is one row of the active index.
type ActiveEntry struct {
	ID        string
	PID       int
	StartedAt time.Time
}

// Active returns all registered entries, oldest first.
func (ix *Index) Active() ([]ActiveEntry, error) {
	rows, err := ix.db.Query(
		`SELECT id, pid, started_at FROM active_sessions ORDER BY started_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query active sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []ActiveEntry
	for rows.Next() {
		var e ActiveEntry
		if err := rows.Scan(&e.ID, &e.PID, &e.StartedAt); err != nil {
			return nil, fmt.Errorf("scan active session: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}
