package analysis

import (
	"errors"
	"fmt"
)

// Rejection reasons surfaced by the validation gate.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrSizeExceeded      = errors.New("file size exceeds configured limit")
)

// ErrNotFound indicates a history entry lookup miss.
var ErrNotFound = errors.New("history entry not found")

// ExtractionError wraps a per-format extraction failure. It terminates
// the invocation's pipeline but never the process.
type ExtractionError struct {
	Format string
	Detail string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %s", e.Format, e.Detail)
}

// SummarizationError wraps a failure of the external AI capability:
// connectivity, timeout, or a malformed response.
type SummarizationError struct {
	Detail string
	Err    error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed: %s", e.Detail)
}

func (e *SummarizationError) Unwrap() error { return e.Err }
