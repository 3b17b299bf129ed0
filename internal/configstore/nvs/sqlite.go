package nvs

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteNVS implements NVS on a single-table SQLite database: the same
// upsert-by-primary-key shape the storage layer uses elsewhere in this
// codebase, repurposed from JSON flow blobs to opaque config blobs.
type SQLiteNVS struct {
	db *sql.DB
}

// OpenSQLiteNVS opens (creating if needed) the "config" namespace at
// dbPath.
func OpenSQLiteNVS(dbPath string) (*SQLiteNVS, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("nvs: open database: %w", err)
	}

	n := &SQLiteNVS{db: db}
	if err := n.init(); err != nil {
		db.Close()
		return nil, err
	}
	return n, nil
}

func (n *SQLiteNVS) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS config (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);
	`
	if _, err := n.db.Exec(schema); err != nil {
		return fmt.Errorf("nvs: create schema: %w", err)
	}
	return nil
}

func (n *SQLiteNVS) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := n.db.QueryRow(`SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("nvs: query %s: %w", key, err)
	}
	return value, true, nil
}

func (n *SQLiteNVS) Set(key string, value []byte) error {
	query := `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := n.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("nvs: set %s: %w", key, err)
	}
	return nil
}

func (n *SQLiteNVS) Erase() error {
	if _, err := n.db.Exec(`DELETE FROM config`); err != nil {
		return fmt.Errorf("nvs: erase: %w", err)
	}
	return nil
}

func (n *SQLiteNVS) Close() error {
	return n.db.Close()
}
