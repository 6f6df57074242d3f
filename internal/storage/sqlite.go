package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath is the DSN for a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps a SQLite database holding memoized lookup results.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite lookup cache at the given path.
// An empty path opens an in-memory database that lives as long as the DB.
func OpenDB(path string) (*DB, error) {
	if path == "" {
		path = MemoryPath
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: SQLite doesn't support concurrent writes, and an
	// in-memory database is private to its connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Remote lookup results keyed by source and query.
		-- A NULL value records a definitive "no match".
		CREATE TABLE IF NOT EXISTS lookups (
			source TEXT NOT NULL,
			query TEXT NOT NULL,
			value TEXT,
			stored_at INTEGER NOT NULL,
			PRIMARY KEY (source, query)
		);
	`

	_, err := db.Exec(schema)
	return err
}

// GetLookup returns the cached value for (source, query).
// hit is false when nothing is cached; a cached "no match" is a hit with a
// nil value.
func (d *DB) GetLookup(source, query string) (value []byte, hit bool, err error) {
	var v sql.NullString
	err = d.db.QueryRow(`SELECT value FROM lookups WHERE source = ? AND query = ?`, source, query).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading lookup %s/%s: %w", source, query, err)
	}
	if !v.Valid {
		return nil, true, nil
	}
	return []byte(v.String), true, nil
}

// PutLookup stores value for (source, query), replacing any previous result.
// A nil value records "no match".
func (d *DB) PutLookup(source, query string, value []byte) error {
	_, err := d.db.Exec(`
		INSERT INTO lookups (source, query, value, stored_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(source, query) DO UPDATE SET value = excluded.value, stored_at = excluded.stored_at
	`, source, query, nullableString(value), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("storing lookup %s/%s: %w", source, query, err)
	}
	return nil
}

// CountLookups returns the number of cached results.
func (d *DB) CountLookups() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM lookups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting lookups: %w", err)
	}
	return n, nil
}

// PruneLookups deletes results stored before cutoff and returns how many
// were removed.
func (d *DB) PruneLookups(cutoff time.Time) (int, error) {
	res, err := d.db.Exec(`DELETE FROM lookups WHERE stored_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning lookups: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning lookups: %w", err)
	}
	return int(n), nil
}

// nullableString returns nil for a nil slice, otherwise the string value.
func nullableString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
