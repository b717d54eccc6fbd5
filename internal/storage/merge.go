package storage

import (
	"database/sql"
	"fmt"

	"github.com/lmartin/citegraph/internal/citation"
)

// MergeFields is the identity the surviving author carries after a merge.
// Empty fields keep the target's current value; the merge never infers
// values from the sources.
type MergeFields struct {
	First string
	Last  string
	ORCID string
}

// MergeStats reports what an author merge did.
type MergeStats struct {
	Repointed         int `json:"repointed"`          // Authorship edges moved to the target
	ConflictsResolved int `json:"conflicts_resolved"` // Duplicate (publication, author) pairs collapsed
	SourcesDeleted    int `json:"sources_deleted"`
}

// MergeAuthors consolidates the source authors into the target in a single
// transaction: the target takes the given identity fields, every authorship
// edge owned by a source is re-pointed to the target, and the sources are
// deleted. Where the target and a source share a publication, the edge with
// the lower order survives and the other is discarded.
//
// SQLite's single-writer transaction serializes this against in-flight
// imports that might resolve one of the merged authors.
func (d *DB) MergeAuthors(targetID string, sourceIDs []string, fields MergeFields) (*MergeStats, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning merge: %w", err)
	}
	defer tx.Rollback()

	var target citation.Author
	err = tx.QueryRow(`SELECT id, first_name, last_name, orcid FROM authors WHERE id = ?`, targetID).
		Scan(&target.ID, &target.First, &target.Last, &target.ORCID)
	if err != nil {
		return nil, fmt.Errorf("loading target author %s: %w", targetID, err)
	}

	// Publications the target already has an edge for, with that edge's order.
	targetOrd := make(map[string]int)
	rows, err := tx.Query(`SELECT publication_id, ord FROM author_publications WHERE author_id = ?`, targetID)
	if err != nil {
		return nil, fmt.Errorf("loading target authorships: %w", err)
	}
	for rows.Next() {
		var pubID string
		var ord int
		if err := rows.Scan(&pubID, &ord); err != nil {
			rows.Close()
			return nil, err
		}
		targetOrd[pubID] = ord
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	stats := &MergeStats{}

	for _, sourceID := range sourceIDs {
		edges, err := authorshipEdgesTx(tx, sourceID)
		if err != nil {
			return nil, err
		}

		for _, e := range edges {
			existingOrd, conflict := targetOrd[e.PublicationID]
			if conflict {
				// Re-pointing would duplicate (publication, author): keep
				// exactly one edge, the one with the lower order.
				if e.Ord < existingOrd {
					if _, err := tx.Exec(`
						UPDATE author_publications SET ord = ?
						WHERE publication_id = ? AND author_id = ?
					`, e.Ord, e.PublicationID, targetID); err != nil {
						return nil, fmt.Errorf("adjusting order on %s: %w", e.PublicationID, err)
					}
					targetOrd[e.PublicationID] = e.Ord
				}
				if _, err := tx.Exec(`
					DELETE FROM author_publications
					WHERE publication_id = ? AND author_id = ?
				`, e.PublicationID, sourceID); err != nil {
					return nil, fmt.Errorf("discarding duplicate edge on %s: %w", e.PublicationID, err)
				}
				stats.ConflictsResolved++
				continue
			}

			if _, err := tx.Exec(`
				UPDATE author_publications SET author_id = ?
				WHERE publication_id = ? AND author_id = ?
			`, targetID, e.PublicationID, sourceID); err != nil {
				return nil, fmt.Errorf("re-pointing edge on %s: %w", e.PublicationID, err)
			}
			targetOrd[e.PublicationID] = e.Ord
			stats.Repointed++
		}

		res, err := tx.Exec(`DELETE FROM authors WHERE id = ?`, sourceID)
		if err != nil {
			return nil, fmt.Errorf("deleting source author %s: %w", sourceID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			stats.SourcesDeleted++
		}
	}

	first, last, orcid := target.First, target.Last, target.ORCID
	if fields.First != "" {
		first = fields.First
	}
	if fields.Last != "" {
		last = fields.Last
	}
	if fields.ORCID != "" {
		orcid = citation.NormalizeORCID(fields.ORCID)
	}

	// Applied after the sources are gone so a merged identity equal to a
	// source's tuple cannot trip the author identity constraint.
	if _, err := tx.Exec(`
		UPDATE authors SET first_name = ?, last_name = ?, orcid = ? WHERE id = ?
	`, first, last, orcid, targetID); err != nil {
		return nil, fmt.Errorf("applying merged identity to %s: %w", targetID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing merge: %w", err)
	}

	return stats, nil
}

// authorshipEdgesTx loads an author's edges inside a transaction.
func authorshipEdgesTx(tx *sql.Tx, authorID string) ([]citation.Authorship, error) {
	rows, err := tx.Query(`
		SELECT publication_id, author_id, ord
		FROM author_publications
		WHERE author_id = ?
		ORDER BY publication_id
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("loading authorships of %s: %w", authorID, err)
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
