// Package citation defines the core domain types for the citation graph.
package citation

import "time"

// Publication represents a bibliographic work in the graph.
type Publication struct {
	// Identity
	ID  string `json:"id"`  // Internal stable identifier
	DOI string `json:"doi"` // Normalized DOI (primary deduplication key); may be empty

	// Metadata
	Title       string     `json:"title,omitempty"`
	Published   *time.Time `json:"published,omitempty"` // Calendar date, nil if unknown
	RawMetadata []byte     `json:"-"`                   // Opaque provider JSON, nil until fetched

	// Graph position
	ReferenceLevel   int  `json:"reference_level"`   // Breadth distance from the nearest root; 0 = root
	ExpansionEnabled bool `json:"expansion_enabled"` // Whether this node's own references get expanded

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author represents a person with optional ORCID identifier.
type Author struct {
	ID    string `json:"id"`
	First string `json:"first"`           // First/given name(s)
	Last  string `json:"last"`            // Last/family name
	ORCID string `json:"orcid,omitempty"` // ORCID identifier (without URL prefix)
}

// Authorship is an ordered authorship edge between a publication and an author.
type Authorship struct {
	PublicationID string `json:"publication_id"`
	AuthorID      string `json:"author_id"`
	Ord           int    `json:"ord"` // Dense 0-based rank in the provider's listing order
}

// Reference is a directed citation edge between two publications.
type Reference struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	RefKey   int    `json:"ref_key"` // Provider's citation ordinal; sparse, 0 when unknown
}

// Bookmark marks a publication as belonging to a named user's collection.
// Bookmarked publications are the default roots for graph snapshots.
type Bookmark struct {
	User          string    `json:"user"`
	PublicationID string    `json:"publication_id"`
	AddedAt       time.Time `json:"added_at"`
}

// DisplayName returns "First Last" or just the last name.
func (a Author) DisplayName() string {
	if a.First == "" {
		return a.Last
	}
	return a.First + " " + a.Last
}

// Label returns the best human-readable identifier for a publication.
func (p Publication) Label() string {
	if p.Title != "" {
		return p.Title
	}
	if p.DOI != "" {
		return p.DOI
	}
	return p.ID
}
