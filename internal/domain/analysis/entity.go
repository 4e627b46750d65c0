package analysis

import (
	"time"

	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

// OutcomeID identifier type
type OutcomeID string

// Status enum
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRejected  Status = "rejected"
)

// Provenance records where an outcome came from.
type Provenance struct {
	Filename   string           `json:"filename"`
	Format     files.FormatKind `json:"format"`
	SizeBytes  int64            `json:"size_bytes"`
	AnalyzedAt time.Time        `json:"analyzed_at"`
}

// Outcome is the result of one pipeline invocation. Exactly one Outcome
// is produced per invocation, success or failure, and it is immutable
// after creation.
type Outcome struct {
	ID         OutcomeID  `json:"id"`
	TenantID   string     `json:"tenant_id"`
	Provenance Provenance `json:"provenance"`
	Status     Status     `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	KeyPoints  []string   `json:"key_points,omitempty"`
	// CanonicalText is the normalized extracted text the summary was
	// derived from.
	CanonicalText string `json:"canonical_text,omitempty"`
	// SourceURL points at the archived original file, when archiving
	// is configured.
	SourceURL  string `json:"source_url,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// HistoryEntry is an Outcome with its assigned sequence identifier.
// Sequence ids are strictly increasing per backend and never reused.
type HistoryEntry struct {
	Seq int64 `json:"seq"`
	Outcome
}
