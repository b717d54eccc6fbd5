package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lmartin/citegraph/internal/citation"
)

// selectPubFields contains the standard field list for publication SELECTs.
const selectPubFields = `id, doi, title, pub_date, raw_metadata,
	reference_level, expansion_enabled, created_at, updated_at`

// GetOrCreatePublication resolves a publication by normalized DOI, creating
// it at the given reference level if it does not exist. Under concurrent
// callers exactly one row survives for a given DOI and every caller observes
// it. Returns the surviving publication and whether this call created it.
func (d *DB) GetOrCreatePublication(doi string, level int, expansionEnabled bool) (*citation.Publication, bool, error) {
	doi = citation.NormalizeDOI(doi)
	if doi == "" {
		return nil, false, fmt.Errorf("get-or-create requires a non-empty DOI")
	}

	id := uuid.NewString()
	now := formatTime(nowUTC())

	// The partial unique index on doi makes this a no-op when the DOI
	// already exists, including when a concurrent import wins the race.
	_, err := d.db.Exec(`
		INSERT INTO publications (id, doi, reference_level, expansion_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(doi) WHERE doi != '' DO NOTHING
	`, id, doi, level, boolToInt(expansionEnabled), now, now)
	if err != nil {
		return nil, false, fmt.Errorf("inserting publication %s: %w", doi, err)
	}

	pub, err := d.GetPublicationByDOI(doi)
	if err != nil {
		return nil, false, err
	}
	if pub == nil {
		return nil, false, fmt.Errorf("publication %s vanished after insert", doi)
	}

	return pub, pub.ID == id, nil
}

// CreateTitleOnlyPublication creates a publication known only by title.
// Without an identifier no deduplication is possible, so every call creates
// a fresh row.
func (d *DB) CreateTitleOnlyPublication(title string, level int) (*citation.Publication, error) {
	id := uuid.NewString()
	now := nowUTC()

	_, err := d.db.Exec(`
		INSERT INTO publications (id, doi, title, reference_level, expansion_enabled, created_at, updated_at)
		VALUES (?, '', ?, ?, 0, ?, ?)
	`, id, nullableString(title), level, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting title-only publication: %w", err)
	}

	return d.GetPublication(id)
}

// GetPublication retrieves a publication by internal ID.
// Returns nil without error when no row matches.
func (d *DB) GetPublication(id string) (*citation.Publication, error) {
	row := d.db.QueryRow(`SELECT `+selectPubFields+` FROM publications WHERE id = ?`, id)
	return scanPublication(row)
}

// GetPublicationByDOI retrieves a publication by normalized DOI.
func (d *DB) GetPublicationByDOI(doi string) (*citation.Publication, error) {
	doi = citation.NormalizeDOI(doi)
	if doi == "" {
		return nil, nil
	}
	row := d.db.QueryRow(`SELECT `+selectPubFields+` FROM publications WHERE doi = ?`, doi)
	return scanPublication(row)
}

// SaveRawMetadata stores the fetched provider blob for a publication.
// This is a durability checkpoint: it is written before parsing so a failed
// parse can be retried without another fetch.
func (d *DB) SaveRawMetadata(id string, raw []byte) error {
	res, err := d.db.Exec(`
		UPDATE publications SET raw_metadata = ?, updated_at = ? WHERE id = ?
	`, nullableString(string(raw)), formatTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("saving raw metadata for %s: %w", id, err)
	}
	return requireOneRow(res, id)
}

// UpdateParsedFields overwrites title and publication date from parsed facts.
// Empty/nil values leave the stored fields untouched.
func (d *DB) UpdateParsedFields(id string, title string, date *time.Time) error {
	query := `UPDATE publications SET updated_at = ?`
	args := []interface{}{formatTime(nowUTC())}

	if title != "" {
		query += ", title = ?"
		args = append(args, title)
	}
	if date != nil {
		query += ", pub_date = ?"
		args = append(args, date.Format(dateFormat))
	}

	query += " WHERE id = ?"
	args = append(args, id)

	res, err := d.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("updating parsed fields for %s: %w", id, err)
	}
	return requireOneRow(res, id)
}

// LowerReferenceLevel lowers a publication's reference level to the given
// value if it is currently higher. Levels are never raised.
func (d *DB) LowerReferenceLevel(id string, level int) error {
	_, err := d.db.Exec(`
		UPDATE publications SET reference_level = ?, updated_at = ?
		WHERE id = ? AND reference_level > ?
	`, level, formatTime(nowUTC()), id, level)
	if err != nil {
		return fmt.Errorf("lowering reference level for %s: %w", id, err)
	}
	return nil
}

// SetExpansionEnabled flips whether a publication's own references are
// expanded on import.
func (d *DB) SetExpansionEnabled(id string, enabled bool) error {
	res, err := d.db.Exec(`
		UPDATE publications SET expansion_enabled = ?, updated_at = ? WHERE id = ?
	`, boolToInt(enabled), formatTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("setting expansion for %s: %w", id, err)
	}
	return requireOneRow(res, id)
}

// ListPublications returns all publications ordered by reference level then
// DOI. A negative level returns every publication.
func (d *DB) ListPublications(level int) ([]citation.Publication, error) {
	query := `SELECT ` + selectPubFields + ` FROM publications`
	var args []interface{}
	if level >= 0 {
		query += " WHERE reference_level = ?"
		args = append(args, level)
	}
	query += " ORDER BY reference_level, doi, id"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

// CountPublications returns the total number of publications.
func (d *DB) CountPublications() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM publications").Scan(&count)
	return count, err
}

func scanPublication(s scanner) (*citation.Publication, error) {
	var pub citation.Publication
	var title, pubDate, raw sql.NullString
	var expansion int
	var createdAt, updatedAt string

	err := s.Scan(
		&pub.ID, &pub.DOI, &title, &pubDate, &raw,
		&pub.ReferenceLevel, &expansion, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	pub.Title = title.String
	if pubDate.Valid {
		if t, err := time.Parse(dateFormat, pubDate.String); err == nil {
			t = t.UTC()
			pub.Published = &t
		}
	}
	if raw.Valid {
		pub.RawMetadata = []byte(raw.String)
	}
	pub.ExpansionEnabled = expansion != 0
	pub.CreatedAt = parseStoredTime(createdAt)
	pub.UpdatedAt = parseStoredTime(updatedAt)

	return &pub, nil
}

func scanPublications(rows *sql.Rows) ([]citation.Publication, error) {
	var pubs []citation.Publication
	for rows.Next() {
		pub, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		if pub != nil {
			pubs = append(pubs, *pub)
		}
	}
	return pubs, rows.Err()
}

// requireOneRow fails when an UPDATE targeted a publication that does not exist.
func requireOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("publication %s not found", id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
