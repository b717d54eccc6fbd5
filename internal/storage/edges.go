package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lmartin/citegraph/internal/citation"
)

// AuthorIdentity is a candidate author key for authorship replacement, in
// provider listing order.
type AuthorIdentity struct {
	First string
	Last  string
	ORCID string
}

// ReferenceCandidate is a candidate citation target for reference
// replacement.
type ReferenceCandidate struct {
	DOI    string // Normalized; empty for title-only targets
	Title  string
	RefKey int
}

// ReferenceReplaceResult reports what a reference replacement did.
type ReferenceReplaceResult struct {
	Edges          int                    // Citation edges now owned by the source
	CreatedTargets []citation.Publication // Publications created during replacement
	SelfSkipped    int                    // Parsed references pointing at the source itself
}

// ReplaceAuthorship atomically replaces a publication's authorship edges:
// all existing edges are deleted, then each identity is resolved or created
// and linked with its position as the order. A duplicate identity in the
// list keeps its first (lowest-order) edge.
func (d *DB) ReplaceAuthorship(publicationID string, authors []AuthorIdentity) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning authorship replacement: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM author_publications WHERE publication_id = ?`, publicationID); err != nil {
		return fmt.Errorf("clearing authorship of %s: %w", publicationID, err)
	}

	for ord, ident := range authors {
		orcid := citation.NormalizeORCID(ident.ORCID)
		id := uuid.NewString()

		if _, err := tx.Exec(`
			INSERT INTO authors (id, first_name, last_name, orcid)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(first_name, last_name, orcid) DO NOTHING
		`, id, ident.First, ident.Last, orcid); err != nil {
			return fmt.Errorf("resolving author %s %s: %w", ident.First, ident.Last, err)
		}

		var authorID string
		err := tx.QueryRow(`
			SELECT id FROM authors WHERE first_name = ? AND last_name = ? AND orcid = ?
		`, ident.First, ident.Last, orcid).Scan(&authorID)
		if err != nil {
			return fmt.Errorf("re-reading author %s %s: %w", ident.First, ident.Last, err)
		}

		if _, err := tx.Exec(`
			INSERT INTO author_publications (publication_id, author_id, ord)
			VALUES (?, ?, ?)
			ON CONFLICT(publication_id, author_id) DO NOTHING
		`, publicationID, authorID, ord); err != nil {
			return fmt.Errorf("linking author %s to %s: %w", authorID, publicationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing authorship replacement: %w", err)
	}
	return nil
}

// ReplaceReferences atomically replaces a source publication's outgoing
// citation edges. Targets with a DOI are resolved or created at
// source level + 1 (existing targets have their level lowered, never
// raised); targets without a DOI always become fresh title-only rows.
// Created targets have expansion disabled so a single import expands the
// graph by at most one hop. Self-citations are skipped.
func (d *DB) ReplaceReferences(source *citation.Publication, refs []ReferenceCandidate) (*ReferenceReplaceResult, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning reference replacement: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM publication_references WHERE source_id = ?`, source.ID); err != nil {
		return nil, fmt.Errorf("clearing references of %s: %w", source.ID, err)
	}

	result := &ReferenceReplaceResult{}
	targetLevel := source.ReferenceLevel + 1
	now := formatTime(nowUTC())

	for _, ref := range refs {
		var target *citation.Publication

		if ref.DOI != "" {
			target, err = resolveDOITargetTx(tx, ref, targetLevel, now, result)
		} else {
			target, err = createTitleOnlyTargetTx(tx, ref.Title, targetLevel, now, result)
		}
		if err != nil {
			return nil, err
		}

		// A publication citing itself is degenerate provider data; drop the
		// edge rather than create a self-loop.
		if target.ID == source.ID {
			result.SelfSkipped++
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO publication_references (source_id, target_id, ref_key)
			VALUES (?, ?, ?)
			ON CONFLICT(source_id, target_id) DO UPDATE SET ref_key = excluded.ref_key
		`, source.ID, target.ID, ref.RefKey); err != nil {
			return nil, fmt.Errorf("linking %s -> %s: %w", source.ID, target.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reference replacement: %w", err)
	}

	var count int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM publication_references WHERE source_id = ?`, source.ID).Scan(&count); err != nil {
		return nil, fmt.Errorf("counting references of %s: %w", source.ID, err)
	}
	result.Edges = count

	return result, nil
}

// resolveDOITargetTx gets or creates a citation target by DOI inside a
// reference-replacement transaction, lowering the level of existing targets.
func resolveDOITargetTx(tx *sql.Tx, ref ReferenceCandidate, level int, now string, result *ReferenceReplaceResult) (*citation.Publication, error) {
	id := uuid.NewString()

	if _, err := tx.Exec(`
		INSERT INTO publications (id, doi, title, reference_level, expansion_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(doi) WHERE doi != '' DO NOTHING
	`, id, ref.DOI, nullableString(ref.Title), level, now, now); err != nil {
		return nil, fmt.Errorf("creating target %s: %w", ref.DOI, err)
	}

	row := tx.QueryRow(`SELECT `+selectPubFields+` FROM publications WHERE doi = ?`, ref.DOI)
	target, err := scanPublication(row)
	if err != nil {
		return nil, fmt.Errorf("re-reading target %s: %w", ref.DOI, err)
	}
	if target == nil {
		return nil, fmt.Errorf("target %s vanished after insert", ref.DOI)
	}

	if target.ID == id {
		result.CreatedTargets = append(result.CreatedTargets, *target)
	} else if target.ReferenceLevel > level {
		// A shorter path to an existing node lowers its level.
		if _, err := tx.Exec(`
			UPDATE publications SET reference_level = ?, updated_at = ?
			WHERE id = ? AND reference_level > ?
		`, level, now, target.ID, level); err != nil {
			return nil, fmt.Errorf("lowering level of %s: %w", target.ID, err)
		}
		target.ReferenceLevel = level
	}

	return target, nil
}

// createTitleOnlyTargetTx creates a fresh target row for a reference without
// a DOI. No dedup key exists, so every occurrence becomes its own node.
func createTitleOnlyTargetTx(tx *sql.Tx, title string, level int, now string, result *ReferenceReplaceResult) (*citation.Publication, error) {
	id := uuid.NewString()

	if _, err := tx.Exec(`
		INSERT INTO publications (id, doi, title, reference_level, expansion_enabled, created_at, updated_at)
		VALUES (?, '', ?, ?, 0, ?, ?)
	`, id, nullableString(title), level, now, now); err != nil {
		return nil, fmt.Errorf("creating title-only target: %w", err)
	}

	row := tx.QueryRow(`SELECT `+selectPubFields+` FROM publications WHERE id = ?`, id)
	target, err := scanPublication(row)
	if err != nil {
		return nil, fmt.Errorf("re-reading title-only target %s: %w", id, err)
	}
	if target == nil {
		return nil, fmt.Errorf("title-only target %s vanished after insert", id)
	}

	result.CreatedTargets = append(result.CreatedTargets, *target)
	return target, nil
}

// OutgoingReferences returns a publication's citation edges ordered by their
// provider ordinal.
func (d *DB) OutgoingReferences(sourceID string) ([]citation.Reference, error) {
	rows, err := d.db.Query(`
		SELECT source_id, target_id, ref_key
		FROM publication_references
		WHERE source_id = ?
		ORDER BY ref_key, target_id
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("listing references of %s: %w", sourceID, err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

// IncomingReferences returns the citation edges pointing at a publication.
func (d *DB) IncomingReferences(targetID string) ([]citation.Reference, error) {
	rows, err := d.db.Query(`
		SELECT source_id, target_id, ref_key
		FROM publication_references
		WHERE target_id = ?
		ORDER BY ref_key, source_id
	`, targetID)
	if err != nil {
		return nil, fmt.Errorf("listing citers of %s: %w", targetID, err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

func scanReferences(rows *sql.Rows) ([]citation.Reference, error) {
	var refs []citation.Reference
	for rows.Next() {
		var r citation.Reference
		if err := rows.Scan(&r.SourceID, &r.TargetID, &r.RefKey); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// Pin bookmarks a publication for a named user. Pinning twice is a no-op.
func (d *DB) Pin(user, publicationID string) error {
	_, err := d.db.Exec(`
		INSERT INTO user_publications (user, publication_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user, publication_id) DO NOTHING
	`, user, publicationID, formatTime(nowUTC()))
	if err != nil {
		return fmt.Errorf("pinning %s for %s: %w", publicationID, user, err)
	}
	return nil
}

// Unpin removes a user's bookmark.
func (d *DB) Unpin(user, publicationID string) error {
	_, err := d.db.Exec(`
		DELETE FROM user_publications WHERE user = ? AND publication_id = ?
	`, user, publicationID)
	if err != nil {
		return fmt.Errorf("unpinning %s for %s: %w", publicationID, user, err)
	}
	return nil
}

// Bookmarks returns a user's bookmarks, oldest first.
func (d *DB) Bookmarks(user string) ([]citation.Bookmark, error) {
	rows, err := d.db.Query(`
		SELECT user, publication_id, added_at FROM user_publications
		WHERE user = ? ORDER BY added_at, publication_id
	`, user)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks for %s: %w", user, err)
	}
	defer rows.Close()

	var marks []citation.Bookmark
	for rows.Next() {
		var b citation.Bookmark
		var added string
		if err := rows.Scan(&b.User, &b.PublicationID, &added); err != nil {
			return nil, err
		}
		b.AddedAt = parseStoredTime(added)
		marks = append(marks, b)
	}
	return marks, rows.Err()
}

// PinnedPublicationIDs returns the IDs of a user's bookmarked publications,
// oldest first. These are the default roots for graph snapshots.
func (d *DB) PinnedPublicationIDs(user string) ([]string, error) {
	rows, err := d.db.Query(`
		SELECT publication_id FROM user_publications
		WHERE user = ? ORDER BY added_at, publication_id
	`, user)
	if err != nil {
		return nil, fmt.Errorf("listing pins for %s: %w", user, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
