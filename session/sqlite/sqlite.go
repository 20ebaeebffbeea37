// Package sqlite provides a durable core.SessionStore backed by SQLite via
// the pure Go modernc.org/sqlite driver. Session headers, credentials and
// extraction results live in separate columns/tables so that appends never
// rewrite the session row's history.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/hupe1980/llmbridge/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	header      TEXT NOT NULL,
	credentials TEXT NOT NULL DEFAULT '{}',
	latest      TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at, id);
CREATE TABLE IF NOT EXISTS session_messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	result     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_messages_session ON session_messages(session_id, seq);
`

// Store is a SQLite backed session store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for an
// ephemeral database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Create implements core.SessionStore.
func (s *Store) Create(ctx context.Context, sess *core.Session) error {
	header, err := json.Marshal(sess.Header())
	if err != nil {
		return fmt.Errorf("sqlite: encode session: %w", err)
	}
	creds, err := json.Marshal(sess.Credentials)
	if err != nil {
		return fmt.Errorf("sqlite: encode credentials: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_messages WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("sqlite: reset messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, created_at, header, credentials, latest) VALUES (?, ?, ?, ?, NULL)`,
		sess.ID, sess.CreatedAt.UnixNano(), string(header), string(creds),
	); err != nil {
		return fmt.Errorf("sqlite: insert session: %w", err)
	}
	for _, r := range sess.Messages {
		if err := appendTx(ctx, tx, sess.ID, r); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get implements core.SessionStore.
func (s *Store) Get(ctx context.Context, id string) (*core.Session, error) {
	var header, creds string
	var latest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT header, credentials, latest FROM sessions WHERE id = ?`, id,
	).Scan(&header, &creds, &latest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load session: %w", err)
	}

	sess, err := decodeSession(header, creds, latest)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT result FROM session_messages WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load messages: %w", err)
	}
	defer rows.Close()

	sess.Messages = []core.ExtractionResult{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("sqlite: scan message: %w", err)
		}
		var r core.ExtractionResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("sqlite: decode message: %w", err)
		}
		sess.Messages = append(sess.Messages, r)
	}

	return sess, rows.Err()
}

// List implements core.SessionStore.
func (s *Store) List(ctx context.Context, limit int) ([]*core.Session, error) {
	query := `SELECT id FROM sessions ORDER BY created_at, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*core.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

// AppendResult implements core.SessionStore.
func (s *Store) AppendResult(ctx context.Context, id string, r core.ExtractionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrSessionNotFound
		}
		return fmt.Errorf("sqlite: load session: %w", err)
	}

	if err := appendTx(ctx, tx, id, r); err != nil {
		return err
	}

	return tx.Commit()
}

func appendTx(ctx context.Context, tx *sql.Tx, id string, r core.ExtractionResult) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("sqlite: encode result: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session_messages (session_id, result) VALUES (?, ?)`, id, string(raw)); err != nil {
		return fmt.Errorf("sqlite: insert message: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET latest = ? WHERE id = ?`, string(raw), id); err != nil {
		return fmt.Errorf("sqlite: update latest: %w", err)
	}
	return nil
}

func decodeSession(header, creds string, latest sql.NullString) (*core.Session, error) {
	var sess core.Session
	if err := json.Unmarshal([]byte(header), &sess); err != nil {
		return nil, fmt.Errorf("sqlite: decode session: %w", err)
	}
	sess.Credentials = map[core.Provider]string{}
	if err := json.Unmarshal([]byte(creds), &sess.Credentials); err != nil {
		return nil, fmt.Errorf("sqlite: decode credentials: %w", err)
	}
	if latest.Valid {
		var r core.ExtractionResult
		if err := json.Unmarshal([]byte(latest.String), &r); err != nil {
			return nil, fmt.Errorf("sqlite: decode latest: %w", err)
		}
		sess.Latest = &r
	}
	sess.CreatedAt = sess.CreatedAt.In(time.UTC)
	return &sess, nil
}
