// Package local provides a deterministic, offline summarizer used when
// no API credential is configured (debug mode) and by tests. It is a
// plain extractive heuristic matching the external capability's schema.
package local

import (
	"context"
	"strings"

	domai "github.com/Timtech4u/ai-file-analyzer/internal/domain/ai"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/analysis"
)

const (
	maxSummarySentences = 4
	maxKeyPoints        = 8
)

type Summarizer struct{}

func NewSummarizer() *Summarizer { return &Summarizer{} }

// Summarize builds an extractive summary: the leading sentences become
// the summary paragraph, and list items or heading lines become key
// points.
func (s *Summarizer) Summarize(ctx context.Context, text string, prov analysis.Provenance) (domai.Summary, error) {
	if err := ctx.Err(); err != nil {
		return domai.Summary{}, err
	}

	var points []string
	var body []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			if len(points) < maxKeyPoints {
				points = append(points, strings.TrimSpace(line[2:]))
			}
		case strings.HasPrefix(line, "#"):
			if len(points) < maxKeyPoints {
				points = append(points, strings.TrimLeft(line, "# "))
			}
		default:
			body = append(body, line)
		}
	}

	summary := leadingSentences(strings.Join(body, " "), maxSummarySentences)
	if summary == "" {
		summary = leadingSentences(strings.Join(points, ". "), maxSummarySentences)
	}
	return domai.Summary{Summary: summary, KeyPoints: points}, nil
}

func leadingSentences(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	var sb strings.Builder
	count := 0
	for i, r := range text {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			count++
			if count >= n {
				break
			}
		}
		// Hard cap so unpunctuated text still terminates sensibly.
		if i > 600 {
			sb.WriteString("...")
			break
		}
	}
	return strings.TrimSpace(sb.String())
}
