// Package flomo parses a flomo HTML export into import candidates. It is an
// import-source collaborator: it only produces raw candidate records, the
// reconciliation and dedup happen in the importer.
package flomo

import (
	"html"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/tonyski/bbmemo/internal/errs"
	"github.com/tonyski/bbmemo/internal/importer"
)

// SourceType identifies notes imported from a flomo HTML export.
const SourceType = "flomo_html"

const timeLayout = "2006-01-02 15:04:05"

var (
	memoRe      = regexp.MustCompile(`(?s)<div class="memo">\s*<div class="time">(.*?)</div>\s*<div class="content">(.*?)</div>`)
	brRe        = regexp.MustCompile(`<br\s*/?>`)
	multiLineRe = regexp.MustCompile(`\n{3,}`)

	// stripPolicy removes every remaining HTML element, keeping text only.
	stripPolicy = bluemonday.StrictPolicy()
)

// ParseFile reads and parses a flomo export file. A file that yields no
// memo records is reported as a malformed import source.
func ParseFile(path string) ([]importer.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ImportSource, "read import file", err)
	}
	candidates := Parse(string(data))
	if len(candidates) == 0 {
		return nil, errs.New(errs.ImportSource, "no memo records found in import file")
	}
	return candidates, nil
}

// Parse extracts candidate records from flomo export HTML. Records whose
// timestamp does not parse are skipped.
func Parse(htmlText string) []importer.Candidate {
	matches := memoRe.FindAllStringSubmatch(htmlText, -1)
	if len(matches) == 0 {
		return nil
	}

	candidates := make([]importer.Candidate, 0, len(matches))
	for _, m := range matches {
		createdAt, err := time.Parse(timeLayout, strings.TrimSpace(m[1]))
		if err != nil {
			continue
		}
		content := cleanHTML(m[2])
		if content == "" {
			continue
		}
		candidates = append(candidates, importer.Candidate{
			Content:    content,
			CreatedAt:  createdAt.UTC(),
			SourceType: SourceType,
		})
	}
	return candidates
}

// cleanHTML flattens flomo's markup into plain text: paragraphs and list
// items become lines, everything else is stripped, entities are decoded.
func cleanHTML(s string) string {
	s = strings.ReplaceAll(s, "<p>", "")
	s = strings.ReplaceAll(s, "</p>", "\n")
	s = strings.ReplaceAll(s, "<li>", "- ")
	s = strings.ReplaceAll(s, "</li>", "\n")
	s = brRe.ReplaceAllString(s, "\n")

	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")

	s = multiLineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
