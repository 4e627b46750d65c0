package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Timtech4u/ai-file-analyzer/internal/domain/ai"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

// Image recognizes text and content in images through an injected
// vision capability. The description becomes the canonical text body
// itself, so downstream stages need no format-specific knowledge.
type Image struct {
	vision ai.VisionDescriber
}

func NewImage(vision ai.VisionDescriber) *Image {
	return &Image{vision: vision}
}

func (i *Image) Extract(ctx context.Context, f files.SourceFile) (extract.Result, error) {
	if i.vision == nil {
		return extract.Result{}, fmt.Errorf("image recognition capability not configured")
	}

	mimeType := "image/jpeg"
	if bytes.HasPrefix(f.Content, []byte{0x89, 'P', 'N', 'G'}) {
		mimeType = "image/png"
	}

	desc, err := i.vision.DescribeImage(ctx, f.Content, mimeType)
	if err != nil {
		return extract.Result{}, fmt.Errorf("describe image: %w", err)
	}
	text := normalize(desc)
	if text == "" {
		return extract.Result{}, fmt.Errorf("no description returned for image")
	}

	notes := []extract.Note{{Kind: "caption", Value: firstLine(text)}}
	return extract.Result{Text: text, Notes: notes}, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
