// Package graph builds read-only snapshots of the persisted citation graph
// for presentation layers.
package graph

import (
	"fmt"
	"strings"

	"github.com/lmartin/citegraph/internal/citation"
	"github.com/lmartin/citegraph/internal/storage"
)

// Graph contains all data needed to render a citation network.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node represents one publication in the snapshot.
type Node struct {
	ID    string `json:"id"`
	DOI   string `json:"doi,omitempty"`
	Label string `json:"label"`

	// Tooltip fields
	Title   string `json:"title,omitempty"`
	Authors string `json:"authors,omitempty"` // Formatted "First Last, First Last"
	Year    int    `json:"year,omitempty"`

	Level    int  `json:"level"`
	Root     bool `json:"root"`
	Incoming int  `json:"incoming"` // Citation edges reaching this node within the snapshot
}

// Edge represents a citation from source to target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	RefKey int    `json:"refKey"`
}

// IsEmpty returns true if the snapshot has no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// Snapshot traverses the persisted reference edges breadth-first from the
// given roots and returns an in-memory node/edge view. Nodes are deduplicated
// by identity, which also makes the traversal cycle-safe. Persisted state is
// never mutated.
func Snapshot(db *storage.DB, rootIDs []string) (*Graph, error) {
	roots := make(map[string]bool, len(rootIDs))
	visited := make(map[string]*citation.Publication)
	incoming := make(map[string]int)

	var queue []string
	for _, id := range rootIDs {
		if roots[id] {
			continue
		}
		pub, err := db.GetPublication(id)
		if err != nil {
			return nil, fmt.Errorf("loading root %s: %w", id, err)
		}
		if pub == nil {
			return nil, fmt.Errorf("root publication %s not found", id)
		}
		roots[id] = true
		visited[id] = pub
		queue = append(queue, id)
	}

	var edges []Edge
	var order []string // visit order, for stable output
	order = append(order, queue...)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		refs, err := db.OutgoingReferences(id)
		if err != nil {
			return nil, err
		}

		for _, ref := range refs {
			edges = append(edges, Edge{Source: ref.SourceID, Target: ref.TargetID, RefKey: ref.RefKey})
			incoming[ref.TargetID]++

			if _, seen := visited[ref.TargetID]; seen {
				continue
			}
			target, err := db.GetPublication(ref.TargetID)
			if err != nil {
				return nil, fmt.Errorf("loading node %s: %w", ref.TargetID, err)
			}
			if target == nil {
				return nil, fmt.Errorf("data integrity error: edge references non-existent publication %s", ref.TargetID)
			}
			visited[ref.TargetID] = target
			order = append(order, ref.TargetID)
			queue = append(queue, ref.TargetID)
		}
	}

	g := &Graph{Edges: edges}
	for _, id := range order {
		node, err := newNode(db, visited[id], roots[id], incoming[id])
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, node)
	}

	return g, nil
}

// newNode builds a snapshot node with its formatted author list.
func newNode(db *storage.DB, pub *citation.Publication, root bool, incoming int) (Node, error) {
	authors, err := db.AuthorsOf(pub.ID)
	if err != nil {
		return Node{}, fmt.Errorf("loading authors of %s: %w", pub.ID, err)
	}

	node := Node{
		ID:       pub.ID,
		DOI:      pub.DOI,
		Label:    pub.Label(),
		Title:    pub.Title,
		Authors:  authorsToString(authors),
		Level:    pub.ReferenceLevel,
		Root:     root,
		Incoming: incoming,
	}
	if pub.Published != nil {
		node.Year = pub.Published.Year()
	}
	return node, nil
}

// authorsToString converts authors to a comma-separated "First Last" string.
func authorsToString(authors []citation.Author) string {
	if len(authors) == 0 {
		return ""
	}

	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.DisplayName())
	}
	return strings.Join(names, ", ")
}
