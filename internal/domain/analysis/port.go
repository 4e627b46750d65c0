package analysis

import "context"

// History port (interface for the append-only outcome log).
// Implementations must serialize appends so sequence ids remain
// strictly increasing even under concurrent invocations.
type History interface {
	// Record appends an outcome and returns it with its assigned
	// sequence id.
	Record(ctx context.Context, o *Outcome) (*HistoryEntry, error)

	// Get returns a single entry by sequence id.
	Get(ctx context.Context, tenant string, seq int64) (*HistoryEntry, error)

	// Latest returns the most recent entries, newest first.
	Latest(ctx context.Context, tenant string, limit int) ([]*HistoryEntry, error)

	// Paginate returns a page of entries, newest first.
	Paginate(ctx context.Context, tenant string, page, pageSize int) (PaginatedResult, error)

	// Summary counts outcomes per status since N days ago.
	Summary(ctx context.Context, tenant string, sinceDays int) (StatusCounts, error)
}

// ArtifactStore port (interface for archiving original files).
type ArtifactStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// StatusCounts value object
type StatusCounts struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Rejected  int `json:"rejected"`
	Total     int `json:"total"`
}

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*HistoryEntry `json:"data"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	Total      int64           `json:"totalItems"`
	TotalPages int             `json:"totalPages"`
}
