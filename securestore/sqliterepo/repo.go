// Package sqliterepo stores sealed secrets in an embedded sqlite database.
package sqliterepo

import (
	"database/sql"

	"github.com/quantfold/tradekit/securestore"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

var _ securestore.Repo = (*Repo)(nil)

// Repo wraps a sql.DB connection.
type Repo struct {
	conn *sql.DB
}

// Open opens the database at path and creates the schema if needed.
func Open(path string) (*Repo, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	r := &Repo{conn: conn}
	if err := r.migrate(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Repo) migrate() error {
	_, err := r.conn.Exec(`CREATE TABLE IF NOT EXISTS secrets (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// Close releases the database connection.
func (r *Repo) Close() error {
	return r.conn.Close()
}

func (r *Repo) Upsert(key, value string) error {
	_, err := r.conn.Exec(
		`INSERT INTO secrets (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

func (r *Repo) Get(key string) (string, bool, error) {
	var value string
	err := r.conn.QueryRow(`SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *Repo) Delete(key string) error {
	_, err := r.conn.Exec(`DELETE FROM secrets WHERE key = ?`, key)
	return err
}

func (r *Repo) DeleteNamespace(prefix string) error {
	// Prefixes are fixed package constants, never user input.
	_, err := r.conn.Exec(`DELETE FROM secrets WHERE key LIKE ? || '%'`, prefix)
	return err
}
