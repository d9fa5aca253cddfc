package kv

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is a Medium persisted in a single SQLite table.
type SQLite struct {
	conn  *sql.DB
	quota int64
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
// A quota of zero or less disables the limit.
func OpenSQLite(dsn string, quota int64) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("kv: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kv: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kv: apply schema: %w", err)
	}
	return &SQLite{conn: conn, quota: quota}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Get implements Medium.
func (s *SQLite) Get(key string) (string, bool, error) {
	var v string
	err := s.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set implements Medium. The quota check and the write share one transaction.
func (s *SQLite) Set(key, value string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("kv: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if s.quota > 0 {
		var others int64
		err := tx.QueryRow(`
			SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0)
			FROM kv WHERE key != ?
		`, key).Scan(&others)
		if err != nil {
			return fmt.Errorf("kv: usage: %w", err)
		}
		if need := others + entrySize(key, value); need > s.quota {
			return quotaError(key, need, s.quota)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("kv: set %s: %w", key, err)
	}
	return tx.Commit()
}

// Remove implements Medium.
func (s *SQLite) Remove(key string) error {
	if _, err := s.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv: remove %s: %w", key, err)
	}
	return nil
}

// Keys implements Medium.
func (s *SQLite) Keys() ([]string, error) {
	rows, err := s.conn.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("kv: keys: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Used implements Sizer.
func (s *SQLite) Used() (int64, error) {
	var n int64
	err := s.conn.QueryRow(`
		SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0) FROM kv
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("kv: usage: %w", err)
	}
	return n, nil
}
