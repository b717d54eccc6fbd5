// Package author provides author name query matching and the merge engine
// that consolidates duplicate author identities.
package author

import (
	"strings"

	"github.com/lmartin/citegraph/internal/citation"
)

// Query represents a parsed author search query.
type Query struct {
	First string // First name (may be empty for last-name-only queries)
	Last  string // Last name (required)
}

// ParseQuery parses an author search string into a structured Query.
//
// Supported formats:
//   - "Yu"           → last="Yu" (single word = last name only)
//   - "Timothy Yu"   → first="Timothy", last="Yu" (space-separated = First Last)
//   - "Yu, Timothy"  → first="Timothy", last="Yu" (comma = Last, First)
//
// Names are trimmed but case is preserved (matching is case-insensitive).
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if input == "" {
		return Query{}
	}

	// Check for comma format: "Last, First"
	if idx := strings.Index(input, ","); idx > 0 {
		last := strings.TrimSpace(input[:idx])
		first := strings.TrimSpace(input[idx+1:])
		return Query{First: first, Last: last}
	}

	parts := strings.Fields(input)
	if len(parts) == 1 {
		// Single word = last name only
		return Query{Last: parts[0]}
	}

	// Multiple words: last word is last name, rest is first name
	// e.g., "Timothy C Yu" → first="Timothy C", last="Yu"
	last := parts[len(parts)-1]
	first := strings.Join(parts[:len(parts)-1], " ")
	return Query{First: first, Last: last}
}

// Matches checks if the query matches a given author.
//
// Matching rules:
//   - Last name: case-insensitive exact match (required)
//   - First name: case-insensitive prefix match (if query has first name)
//
// This enables "Tim Yu" to match "Timothy C Yu" while preventing
// "Yu" from matching "Yujia" (since "Yu" is not Yujia's last name).
func (q Query) Matches(a citation.Author) bool {
	if !strings.EqualFold(q.Last, a.Last) {
		return false
	}

	if q.First == "" {
		return true
	}

	// First name uses prefix matching (case-insensitive)
	// "Tim" matches "Timothy", "Timothy C", etc.
	return strings.HasPrefix(
		strings.ToLower(a.First),
		strings.ToLower(q.First),
	)
}

// Filter returns the authors matching the query, preserving input order.
// An empty query matches everyone.
func (q Query) Filter(authors []citation.Author) []citation.Author {
	if q.Last == "" {
		return authors
	}
	var matched []citation.Author
	for _, a := range authors {
		if q.Matches(a) {
			matched = append(matched, a)
		}
	}
	return matched
}
