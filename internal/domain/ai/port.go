package ai

import (
	"context"

	"github.com/Timtech4u/ai-file-analyzer/internal/domain/analysis"
)

// Summary is the structured response of the summarization capability.
type Summary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// Summarizer sends canonical text to an external AI capability. The
// call must be bounded by the implementation's timeout policy; it
// returns an error on timeout or connectivity failure and performs no
// retries itself.
type Summarizer interface {
	Summarize(ctx context.Context, text string, prov analysis.Provenance) (Summary, error)
}

// VisionDescriber recognizes text and content in images. Used by the
// image extraction strategy, which folds the description into the
// canonical text body.
type VisionDescriber interface {
	DescribeImage(ctx context.Context, content []byte, mimeType string) (string, error)
}
