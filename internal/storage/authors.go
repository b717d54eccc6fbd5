package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lmartin/citegraph/internal/citation"
)

// GetOrCreateAuthor resolves an author by the exact (first, last, orcid)
// identity tuple, creating the row if needed. Concurrent creators of the same
// tuple converge on a single surviving row.
func (d *DB) GetOrCreateAuthor(first, last, orcid string) (*citation.Author, bool, error) {
	orcid = citation.NormalizeORCID(orcid)
	id := uuid.NewString()

	_, err := d.db.Exec(`
		INSERT INTO authors (id, first_name, last_name, orcid)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(first_name, last_name, orcid) DO NOTHING
	`, id, first, last, orcid)
	if err != nil {
		return nil, false, fmt.Errorf("inserting author %s %s: %w", first, last, err)
	}

	author, err := d.getAuthorByIdentity(first, last, orcid)
	if err != nil {
		return nil, false, err
	}
	if author == nil {
		return nil, false, fmt.Errorf("author %s %s vanished after insert", first, last)
	}

	return author, author.ID == id, nil
}

// GetAuthor retrieves an author by internal ID.
// Returns nil without error when no row matches.
func (d *DB) GetAuthor(id string) (*citation.Author, error) {
	row := d.db.QueryRow(`SELECT id, first_name, last_name, orcid FROM authors WHERE id = ?`, id)
	return scanAuthor(row)
}

func (d *DB) getAuthorByIdentity(first, last, orcid string) (*citation.Author, error) {
	row := d.db.QueryRow(`
		SELECT id, first_name, last_name, orcid FROM authors
		WHERE first_name = ? AND last_name = ? AND orcid = ?
	`, first, last, orcid)
	return scanAuthor(row)
}

// ListAuthors returns all authors ordered by last then first name.
func (d *DB) ListAuthors() ([]citation.Author, error) {
	rows, err := d.db.Query(`SELECT id, first_name, last_name, orcid FROM authors ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing authors: %w", err)
	}
	defer rows.Close()

	var authors []citation.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		if a != nil {
			authors = append(authors, *a)
		}
	}
	return authors, rows.Err()
}

// AuthorsOf returns a publication's authors in authorship order.
func (d *DB) AuthorsOf(publicationID string) ([]citation.Author, error) {
	rows, err := d.db.Query(`
		SELECT a.id, a.first_name, a.last_name, a.orcid
		FROM authors a
		JOIN author_publications ap ON ap.author_id = a.id
		WHERE ap.publication_id = ?
		ORDER BY ap.ord
	`, publicationID)
	if err != nil {
		return nil, fmt.Errorf("listing authors of %s: %w", publicationID, err)
	}
	defer rows.Close()

	var authors []citation.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		if a != nil {
			authors = append(authors, *a)
		}
	}
	return authors, rows.Err()
}

// AuthorshipsOf returns a publication's authorship edges in order.
func (d *DB) AuthorshipsOf(publicationID string) ([]citation.Authorship, error) {
	rows, err := d.db.Query(`
		SELECT publication_id, author_id, ord
		FROM author_publications
		WHERE publication_id = ?
		ORDER BY ord
	`, publicationID)
	if err != nil {
		return nil, fmt.Errorf("listing authorships of %s: %w", publicationID, err)
	}
	defer rows.Close()

	var edges []citation.Authorship
	for rows.Next() {
		var e citation.Authorship
		if err := rows.Scan(&e.PublicationID, &e.AuthorID, &e.Ord); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// PublicationsOfAuthor returns the publications an author appears on.
func (d *DB) PublicationsOfAuthor(authorID string) ([]citation.Publication, error) {
	rows, err := d.db.Query(`
		SELECT `+qualifiedPubFields("p")+`
		FROM publications p
		JOIN author_publications ap ON ap.publication_id = p.id
		WHERE ap.author_id = ?
		ORDER BY p.doi, p.id
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("listing publications of author %s: %w", authorID, err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

func scanAuthor(s scanner) (*citation.Author, error) {
	var a citation.Author
	err := s.Scan(&a.ID, &a.First, &a.Last, &a.ORCID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// qualifiedPubFields prefixes the publication field list with a table alias.
func qualifiedPubFields(alias string) string {
	return alias + `.id, ` + alias + `.doi, ` + alias + `.title, ` + alias + `.pub_date, ` +
		alias + `.raw_metadata, ` + alias + `.reference_level, ` + alias + `.expansion_enabled, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
