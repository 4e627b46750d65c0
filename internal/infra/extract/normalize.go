// Package extractors implements one extraction strategy per format
// family. Every strategy produces canonical UTF-8 text plus structural
// notes; corrupt input is reported through the error return so a single
// malformed file never aborts batch processing.
package extractors

import (
	"regexp"
	"strings"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// normalize turns raw extracted text into canonical form: valid UTF-8,
// LF line endings, no trailing whitespace, at most one blank line in a
// row.
func normalize(s string) string {
	s = strings.ToValidUTF8(s, "�")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
