// Package storage provides SQLite persistence for the citation graph:
// publications, authors, authorship and citation edges, and bookmarks.
//
// Identity resolution (get-or-create by normalized key) relies on unique
// constraints plus INSERT ... ON CONFLICT DO NOTHING and a re-select, so
// concurrent creators of the same key converge on a single surviving row.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

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
		CREATE TABLE IF NOT EXISTS publications (
			id TEXT PRIMARY KEY,
			doi TEXT NOT NULL DEFAULT '',
			title TEXT,
			pub_date TEXT,
			raw_metadata TEXT,
			reference_level INTEGER NOT NULL DEFAULT 0,
			expansion_enabled INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		-- A non-empty DOI identifies a publication uniquely
		CREATE UNIQUE INDEX IF NOT EXISTS idx_publications_doi
			ON publications(doi) WHERE doi != '';

		CREATE TABLE IF NOT EXISTS authors (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			orcid TEXT NOT NULL DEFAULT ''
		);

		-- Import-time identity key: the exact (first, last, orcid) tuple
		CREATE UNIQUE INDEX IF NOT EXISTS idx_authors_identity
			ON authors(first_name, last_name, orcid);

		CREATE TABLE IF NOT EXISTS author_publications (
			publication_id TEXT NOT NULL REFERENCES publications(id) ON DELETE CASCADE,
			author_id TEXT NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
			ord INTEGER NOT NULL,
			UNIQUE(publication_id, author_id)
		);

		CREATE INDEX IF NOT EXISTS idx_authorships_author
			ON author_publications(author_id);

		CREATE TABLE IF NOT EXISTS publication_references (
			source_id TEXT NOT NULL REFERENCES publications(id) ON DELETE CASCADE,
			target_id TEXT NOT NULL REFERENCES publications(id) ON DELETE CASCADE,
			ref_key INTEGER NOT NULL DEFAULT 0,
			UNIQUE(source_id, target_id)
		);

		CREATE INDEX IF NOT EXISTS idx_references_source
			ON publication_references(source_id);

		CREATE TABLE IF NOT EXISTS user_publications (
			user TEXT NOT NULL,
			publication_id TEXT NOT NULL REFERENCES publications(id) ON DELETE CASCADE,
			added_at TEXT NOT NULL,
			UNIQUE(user, publication_id)
		);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// dateFormat is the storage format for calendar dates.
const dateFormat = "2006-01-02"

// nowUTC returns the current time truncated to seconds in UTC.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// formatTime serializes a timestamp for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseStoredTime deserializes a stored timestamp, returning the zero time
// for malformed values.
func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullableString converts a string to sql.NullString, treating empty as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableDate serializes an optional calendar date.
func nullableDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateFormat), Valid: true}
}
