package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codepad-io/codepad-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id     TEXT NOT NULL,
	backend     TEXT NOT NULL,
	status      TEXT NOT NULL,
	output      TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_room ON runs(room_id, created_at DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database at dbPath and
// applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts one execution record and returns it with ID and
// timestamp filled in.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *store.Run) (*store.Run, error) {
	query := `
		INSERT INTO runs (room_id, backend, status, output, duration_ms)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		run.RoomID, run.Backend, run.Status, run.Output, run.Duration.Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getRun(ctx, id)
}

// ListRuns returns the most recent runs for a room, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, roomID string, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, room_id, backend, status, output, duration_ms, created_at
		FROM runs
		WHERE room_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) getRun(ctx context.Context, id int64) (*store.Run, error) {
	query := `
		SELECT id, room_id, backend, status, output, duration_ms, created_at
		FROM runs
		WHERE id = ?
	`
	return scanRun(s.db.QueryRowContext(ctx, query, id).Scan)
}

func scanRun(scan func(dest ...any) error) (*store.Run, error) {
	var run store.Run
	var durationMs int64
	if err := scan(&run.ID, &run.RoomID, &run.Backend, &run.Status,
		&run.Output, &durationMs, &run.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}
