package crossref

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lmartin/citegraph/internal/citation"
)

// ParsedFacts holds the structured facts extracted from one works record.
// Every field is optional: absent provider data yields zero values, never an
// error.
type ParsedFacts struct {
	Title      string
	Date       *time.Time
	Authors    []ParsedAuthor
	References []ParsedReference
}

// ParsedAuthor is a candidate author identity in provider listing order.
type ParsedAuthor struct {
	First string
	Last  string
	ORCID string
}

// ParsedReference is a candidate citation target in provider listing order.
type ParsedReference struct {
	DOI    string // Normalized; empty when the provider gives only a title
	Title  string
	RefKey int
}

// worksEnvelope mirrors the CrossRef response shape we consume. Any field may
// be absent. Date parts use pointers because the provider emits nulls inside
// the arrays.
type worksEnvelope struct {
	Message struct {
		Title  []string `json:"title"`
		Issued struct {
			DateParts [][]*int `json:"date-parts"`
		} `json:"issued"`
		Author []struct {
			Given  string `json:"given"`
			Family string `json:"family"`
			ORCID  string `json:"ORCID"`
		} `json:"author"`
		Reference []struct {
			DOI          string `json:"DOI"`
			ArticleTitle string `json:"article-title"`
			Key          string `json:"key"`
		} `json:"reference"`
	} `json:"message"`
}

// Parse extracts structured facts from a raw CrossRef works record.
// It is total over missing fields and only fails on undecodable JSON.
// It never touches the persisted graph.
func Parse(raw []byte) (ParsedFacts, error) {
	var env worksEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ParsedFacts{}, fmt.Errorf("decoding works record: %w", err)
	}

	msg := env.Message
	var facts ParsedFacts

	if len(msg.Title) > 0 {
		facts.Title = strings.TrimSpace(msg.Title[0])
	}

	facts.Date = parseIssuedDate(msg.Issued.DateParts)

	for _, a := range msg.Author {
		facts.Authors = append(facts.Authors, ParsedAuthor{
			First: a.Given,
			Last:  a.Family,
			ORCID: citation.NormalizeORCID(a.ORCID),
		})
	}

	for _, r := range msg.Reference {
		facts.References = append(facts.References, ParsedReference{
			DOI:    citation.NormalizeDOI(r.DOI),
			Title:  strings.TrimSpace(r.ArticleTitle),
			RefKey: ParseRefKey(r.Key),
		})
	}

	return facts, nil
}

// parseIssuedDate converts CrossRef "issued" date-parts into a calendar date.
// Missing month/day default to 1. An invalid calendar date (e.g. Feb 30) or a
// missing year yields nil rather than a clamped date.
func parseIssuedDate(dateParts [][]*int) *time.Time {
	if len(dateParts) == 0 {
		return nil
	}
	parts := dateParts[0]

	year, month, day := 0, 1, 1
	if len(parts) > 0 && parts[0] != nil {
		year = *parts[0]
	}
	if len(parts) > 1 && parts[1] != nil {
		month = *parts[1]
	}
	if len(parts) > 2 && parts[2] != nil {
		day = *parts[2]
	}

	if year == 0 {
		return nil
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components; a changed component means
	// the provider date was not a real calendar date.
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return nil
	}
	return &d
}

// ParseRefKey extracts the citation ordinal from a provider key string such
// as "ref3". Leading 'r', 'e' and 'f' characters are stripped before parsing;
// non-numeric remainders default to 0.
func ParseRefKey(key string) int {
	trimmed := strings.TrimLeft(key, "ref")
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
