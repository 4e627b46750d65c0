package extractors

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Timtech4u/ai-file-analyzer/internal/domain/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

// Presentation handles PowerPoint (.pptx) decks. Text runs live in
// a:t elements inside each ppt/slides/slideN.xml part; slides are
// emitted in deck order with one structural note each.
type Presentation struct{}

func NewPresentation() *Presentation { return &Presentation{} }

func (p *Presentation) Extract(ctx context.Context, f files.SourceFile) (extract.Result, error) {
	zr, err := openZip(f.Content)
	if err != nil {
		return extract.Result{}, fmt.Errorf("open pptx container: %w", err)
	}

	var slides []string
	for _, zf := range zr.File {
		if strings.HasPrefix(zf.Name, "ppt/slides/slide") && strings.HasSuffix(zf.Name, ".xml") {
			slides = append(slides, zf.Name)
		}
	}
	if len(slides) == 0 {
		return extract.Result{}, fmt.Errorf("no slides in archive")
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideIndex(slides[i]) < slideIndex(slides[j])
	})

	var sb strings.Builder
	var notes []extract.Note
	for i, name := range slides {
		data, err := readZipFile(zr, name)
		if err != nil {
			continue
		}
		runs := xmlCharData(data, map[string]bool{"t": true})
		if len(runs) == 0 {
			continue
		}
		notes = append(notes, extract.Note{Kind: "slide", Value: strconv.Itoa(i + 1)})
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "## Slide %d\n", i+1)
		sb.WriteString(strings.Join(runs, "\n"))
	}

	text := normalize(sb.String())
	if text == "" {
		return extract.Result{}, fmt.Errorf("no text content found in presentation")
	}
	return extract.Result{Text: text, Notes: notes}, nil
}

func slideIndex(name string) int {
	base := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	n, _ := strconv.Atoi(base)
	return n
}
