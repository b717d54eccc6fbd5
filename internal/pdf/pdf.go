// Package pdf pulls a DOI out of article PDFs so they can seed the
// citation graph without typing the identifier by hand.
package pdf

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lmartin/citegraph/internal/citation"
)

// Publishers print the DOI near the top of the article, usually as a bare
// identifier or a doi.org URL. Scanning more than the front matter mostly
// turns up DOIs of cited works, so the search stops early.
const maxScanPages = 3

// ExtractDOI scans the first pages of the PDF at path and returns the first
// DOI it finds, normalized to lowercase bare form. An empty string with a nil
// error means the document carries no recognizable DOI.
func ExtractDOI(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := r.NumPage()
	if pages > maxScanPages {
		pages = maxScanPages
	}

	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Malformed page streams happen; keep scanning.
			continue
		}
		if doi := FindDOI(text); doi != "" {
			return doi, nil
		}
	}
	return "", nil
}

// doiPattern matches modern DOIs: a 10.NNNN+ registrant prefix and a suffix
// running to the next character DOIs cannot contain.
var doiPattern = citation.DOIPattern

// FindDOI returns the first plausible DOI in text, normalized, or "".
func FindDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		// Prose punctuation stuck to the end of the match is not part
		// of the identifier.
		match = strings.TrimRight(match, ".,;:)")
		doi := citation.NormalizeDOI(match)
		if plausibleDOI(doi) {
			return doi
		}
	}
	return ""
}

func plausibleDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slash := strings.Index(doi, "/")
	return slash > 0 && slash < len(doi)-1
}
