package citation

import (
	"regexp"
	"strings"
)

// DOIPattern matches a modern DOI: the 10-prefixed registrant code followed
// by a suffix running to the first character a DOI cannot contain.
var DOIPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// NormalizeDOI normalizes a DOI to a consistent format for comparison.
// It removes common URL prefixes (https://doi.org/, DOI:) and converts to lowercase.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	lower := strings.ToLower(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi.org/", "doi:"} {
		if strings.HasPrefix(lower, prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

// NormalizeORCID strips the ORCID URL prefix and surrounding whitespace.
// "https://orcid.org/0000-0001-2345-6789" and "0000-0001-2345-6789" normalize
// to the same value.
func NormalizeORCID(orcid string) string {
	orcid = strings.TrimSpace(orcid)
	orcid = strings.TrimPrefix(orcid, "https://orcid.org/")
	orcid = strings.TrimPrefix(orcid, "http://orcid.org/")
	return strings.TrimSpace(orcid)
}
