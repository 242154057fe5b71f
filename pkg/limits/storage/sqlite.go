package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"unblock-hq/corsair/pkg/limits/ratelimit"
)

// SQLiteBackend implements Backend using SQLite for persistence. It is
// suitable for single-instance deployments where abuse-escalation state
// (consecutive saturated windows) should survive restarts.
//
// The database is opened in WAL mode with a busy timeout; SQLite supports
// a single writer, so the connection pool is capped at one connection.
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string

	saveStmt    *sql.Stmt
	loadStmt    *sql.Stmt
	listStmt    *sql.Stmt
	deleteStmt  *sql.Stmt
	cleanupStmt *sql.Stmt
}

// NewSQLiteBackend creates a new SQLite storage backend at the given path.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:     db,
		dbPath: dbPath,
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return backend, nil
}

func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rate_limit_states (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		window_start INTEGER NOT NULL,
		count INTEGER NOT NULL,
		limited INTEGER NOT NULL,
		consecutive_windows INTEGER NOT NULL,
		PRIMARY KEY (scope, key)
	);

	CREATE INDEX IF NOT EXISTS idx_window_start ON rate_limit_states(window_start);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO rate_limit_states (scope, key, window_start, count, limited, consecutive_windows)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (scope, key) DO UPDATE SET
			window_start = excluded.window_start,
			count = excluded.count,
			limited = excluded.limited,
			consecutive_windows = excluded.consecutive_windows
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(`
		SELECT key, window_start, count, limited, consecutive_windows
		FROM rate_limit_states
		WHERE scope = ? AND key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT key, window_start, count, limited, consecutive_windows
		FROM rate_limit_states
		WHERE scope = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`
		DELETE FROM rate_limit_states WHERE scope = ? AND key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`
		DELETE FROM rate_limit_states WHERE window_start < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}

	return nil
}

// Save persists the window state for a key.
func (s *SQLiteBackend) Save(ctx context.Context, scope string, state ratelimit.State) error {
	if state.Key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	limited := 0
	if state.Limited {
		limited = 1
	}

	_, err := s.saveStmt.ExecContext(ctx,
		scope, state.Key, state.WindowStart.UnixNano(), state.Count, limited, state.ConsecutiveWindows)
	if err != nil {
		return fmt.Errorf("failed to save state for %q: %w", state.Key, err)
	}
	return nil
}

// Load retrieves the window state for a key.
func (s *SQLiteBackend) Load(ctx context.Context, scope, key string) (ratelimit.State, bool, error) {
	row := s.loadStmt.QueryRowContext(ctx, scope, key)

	state, err := scanState(row)
	if err == sql.ErrNoRows {
		return ratelimit.State{}, false, nil
	}
	if err != nil {
		return ratelimit.State{}, false, fmt.Errorf("failed to load state for %q: %w", key, err)
	}
	return state, true, nil
}

// List returns all persisted states for a scope.
func (s *SQLiteBackend) List(ctx context.Context, scope string) ([]ratelimit.State, error) {
	rows, err := s.listStmt.QueryContext(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	var out []ratelimit.State
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		out = append(out, state)
	}
	return out, rows.Err()
}

// Delete removes the state for a key.
func (s *SQLiteBackend) Delete(ctx context.Context, scope, key string) error {
	if _, err := s.deleteStmt.ExecContext(ctx, scope, key); err != nil {
		return fmt.Errorf("failed to delete state for %q: %w", key, err)
	}
	return nil
}

// Cleanup removes entries whose window started before the cutoff.
func (s *SQLiteBackend) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.cleanupStmt.ExecContext(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cleanup failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close closes the database.
func (s *SQLiteBackend) Close() error {
	for _, stmt := range []*sql.Stmt{s.saveStmt, s.loadStmt, s.listStmt, s.deleteStmt, s.cleanupStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (ratelimit.State, error) {
	var (
		state       ratelimit.State
		windowStart int64
		limited     int
	)

	err := row.Scan(&state.Key, &windowStart, &state.Count, &limited, &state.ConsecutiveWindows)
	if err != nil {
		return ratelimit.State{}, err
	}

	state.WindowStart = time.Unix(0, windowStart)
	state.Limited = limited == 1
	return state, nil
}
