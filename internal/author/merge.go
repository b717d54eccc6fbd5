package author

import (
	"fmt"

	"github.com/lmartin/citegraph/internal/storage"
)

// MergeRequest describes one author consolidation. Fields is the identity
// the surviving author carries afterwards; unset fields keep the target's
// current values, and the engine never infers values from the sources.
type MergeRequest struct {
	TargetID  string
	SourceIDs []string
	Fields    storage.MergeFields
}

// Merge consolidates the request's source authors into the target.
//
// Validation happens here; the repointing itself runs as a single storage
// transaction (see storage.MergeAuthors), so either every edge moves and
// every source is deleted, or nothing changes. Publications shared between
// the target and a source keep only the lower-order authorship edge.
func Merge(db *storage.DB, req MergeRequest) (*storage.MergeStats, error) {
	if req.TargetID == "" {
		return nil, fmt.Errorf("merge requires a target author")
	}
	if len(req.SourceIDs) == 0 {
		return nil, fmt.Errorf("merge requires at least one source author")
	}

	seen := make(map[string]bool, len(req.SourceIDs)+1)
	seen[req.TargetID] = true
	for _, id := range req.SourceIDs {
		if id == req.TargetID {
			return nil, fmt.Errorf("author %s cannot be merged into itself", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate source author %s", id)
		}
		seen[id] = true
	}

	target, err := db.GetAuthor(req.TargetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("target author %s not found", req.TargetID)
	}
	for _, id := range req.SourceIDs {
		src, err := db.GetAuthor(id)
		if err != nil {
			return nil, err
		}
		if src == nil {
			return nil, fmt.Errorf("source author %s not found", id)
		}
	}

	return db.MergeAuthors(req.TargetID, req.SourceIDs, req.Fields)
}
