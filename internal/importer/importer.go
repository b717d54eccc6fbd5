// Package importer drives the metadata import pipeline for one publication:
// fetch, checkpoint, parse, then atomic replacement of authorship and
// citation edges with breadth-level reconciliation.
package importer

import (
	"context"
	"fmt"

	"github.com/lmartin/citegraph/internal/citation"
	"github.com/lmartin/citegraph/internal/crossref"
	"github.com/lmartin/citegraph/internal/storage"
)

// Importer orchestrates imports against one database and one metadata
// provider. Safe for concurrent use; each import is an independent unit of
// work.
type Importer struct {
	db      *storage.DB
	fetcher crossref.Fetcher
}

// New creates an Importer.
func New(db *storage.DB, fetcher crossref.Fetcher) *Importer {
	return &Importer{db: db, fetcher: fetcher}
}

// Report summarizes what one import did, including non-fatal events.
type Report struct {
	PublicationID string   `json:"publication_id"`
	Fetched       bool     `json:"fetched"`     // A provider call was made
	NoMetadata    bool     `json:"no_metadata"` // Provider had nothing for this DOI; import was a no-op
	Authors       int      `json:"authors"`     // Authorship edges after replacement
	Edges         int      `json:"edges"`       // Citation edges after replacement (cascade only)
	Created       int      `json:"created"`     // Publications created during cascade
	SelfSkipped   int      `json:"self_skipped,omitempty"`
	ChildImports  int      `json:"child_imports,omitempty"`  // Newly created DOI targets imported (no cascade)
	ChildFailures []string `json:"child_failures,omitempty"` // Non-fatal child fetch/parse failures
}

// Import runs the pipeline for one publication.
//
// Raw metadata is fetched only when absent or when forceFetch is set, and is
// persisted before parsing so a failed parse can be retried without another
// fetch. A fetch failure aborts with no state change. Authorship replacement
// and, when cascade is set, reference replacement are each atomic; the
// returned Error names the stage that failed so callers can distinguish
// partial success.
//
// Each publication created during the cascade with a DOI is itself imported
// afterwards with cascade off, so one call expands the graph by exactly one
// hop of edges plus the metadata of the new nodes.
func (im *Importer) Import(ctx context.Context, pub *citation.Publication, cascade, forceFetch bool) (*Report, error) {
	report := &Report{PublicationID: pub.ID}

	if len(pub.RawMetadata) == 0 || forceFetch {
		raw, err := im.fetcher.Fetch(ctx, pub.DOI)
		if err != nil {
			if crossref.IsNotFound(err) {
				report.NoMetadata = true
				return report, nil
			}
			return report, &Error{Stage: StageFetch, Err: err}
		}
		report.Fetched = true

		if err := im.db.SaveRawMetadata(pub.ID, raw); err != nil {
			return report, &Error{Stage: StageCheckpoint, Err: err}
		}
		pub.RawMetadata = raw
	}

	facts, err := crossref.Parse(pub.RawMetadata)
	if err != nil {
		return report, &Error{Stage: StageParse, Err: err}
	}

	if err := im.db.UpdateParsedFields(pub.ID, facts.Title, facts.Date); err != nil {
		return report, &Error{Stage: StageMetadata, Err: err}
	}

	idents := make([]storage.AuthorIdentity, len(facts.Authors))
	for i, a := range facts.Authors {
		idents[i] = storage.AuthorIdentity{First: a.First, Last: a.Last, ORCID: a.ORCID}
	}
	if err := im.db.ReplaceAuthorship(pub.ID, idents); err != nil {
		return report, &Error{Stage: StageAuthors, Err: err}
	}
	authorships, err := im.db.AuthorshipsOf(pub.ID)
	if err != nil {
		return report, &Error{Stage: StageAuthors, Err: err}
	}
	report.Authors = len(authorships)

	if !cascade {
		return report, nil
	}

	// Reload so level lowering done by other imports since our read is
	// reflected in the targets' levels.
	current, err := im.db.GetPublication(pub.ID)
	if err != nil || current == nil {
		return report, &Error{Stage: StageReferences, Err: fmt.Errorf("reloading %s: %w", pub.ID, err)}
	}

	candidates := make([]storage.ReferenceCandidate, len(facts.References))
	for i, r := range facts.References {
		candidates[i] = storage.ReferenceCandidate{DOI: r.DOI, Title: r.Title, RefKey: r.RefKey}
	}
	result, err := im.db.ReplaceReferences(current, candidates)
	if err != nil {
		return report, &Error{Stage: StageReferences, Err: err}
	}

	report.Edges = result.Edges
	report.Created = len(result.CreatedTargets)
	report.SelfSkipped = result.SelfSkipped

	// One-hop expansion: fetch metadata for the nodes this import created,
	// without cascading into their own references.
	for _, target := range result.CreatedTargets {
		if target.DOI == "" {
			continue
		}
		t := target
		if _, err := im.Import(ctx, &t, false, false); err != nil {
			report.ChildFailures = append(report.ChildFailures, fmt.Sprintf("%s: %v", t.DOI, err))
			continue
		}
		report.ChildImports++
	}

	return report, nil
}

// Seed registers a DOI as a root publication and imports it with cascade.
// An existing publication is promoted to a root: its level drops to 0 and
// expansion is enabled.
func (im *Importer) Seed(ctx context.Context, doi string) (*citation.Publication, *Report, error) {
	pub, created, err := im.db.GetOrCreatePublication(doi, 0, true)
	if err != nil {
		return nil, nil, err
	}

	if !created {
		if err := im.db.LowerReferenceLevel(pub.ID, 0); err != nil {
			return nil, nil, err
		}
		if err := im.db.SetExpansionEnabled(pub.ID, true); err != nil {
			return nil, nil, err
		}
		pub.ReferenceLevel = 0
		pub.ExpansionEnabled = true
	}

	report, err := im.Import(ctx, pub, true, false)
	return pub, report, err
}

// Promote enables expansion for a publication discovered as a citation
// target and imports its own references. This is the operator action that
// grows the graph beyond the one-hop boundary.
func (im *Importer) Promote(ctx context.Context, id string) (*Report, error) {
	pub, err := im.db.GetPublication(id)
	if err != nil {
		return nil, err
	}
	if pub == nil {
		return nil, fmt.Errorf("publication %s not found", id)
	}

	if err := im.db.SetExpansionEnabled(pub.ID, true); err != nil {
		return nil, err
	}
	pub.ExpansionEnabled = true

	return im.Import(ctx, pub, true, false)
}
