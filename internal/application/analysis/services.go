package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Timtech4u/ai-file-analyzer/internal/application"
	domai "github.com/Timtech4u/ai-file-analyzer/internal/domain/ai"
	domain "github.com/Timtech4u/ai-file-analyzer/internal/domain/analysis"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

// batchConcurrency bounds how many files a batch request analyzes in
// parallel.
const batchConcurrency = 4

// Service implements the analysis pipeline use-cases. It sequences
// classify → validate → extract → summarize → record, isolating
// failures per stage: every invocation ends in exactly one recorded
// outcome, success or not, and never aborts a sibling invocation.
// Service is safe for concurrent use.
type Service struct {
	History    domain.History
	Extractors *extract.Registry
	Summarizer domai.Summarizer
	Artifacts  domain.ArtifactStore // optional; nil disables archiving
	Clock      application.Clock

	// MaxFileSize is the validation gate's size ceiling in bytes.
	MaxFileSize int64

	// MaxRetries bounds extra summarization attempts after the first
	// (0 = no retry). Backoff doubles per attempt.
	MaxRetries int
	// RetryBackoff is the initial backoff; defaults to 500ms.
	RetryBackoff time.Duration
}

//
// ==== USE CASES ====
//

// Command to analyze one uploaded file
type AnalyzeCommand struct {
	TenantID string
	Filename string
	Content  []byte
}

// Analyze runs the full pipeline for one file. The returned error is
// reserved for infrastructure faults (history unavailable); rejection,
// extraction and summarization failures come back inside the recorded
// entry's status and reason.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (*domain.HistoryEntry, error) {
	start := s.Clock.Now()
	src := files.SourceFile{Name: cmd.Filename, Content: cmd.Content}

	kind := files.Classify(src.Name, src.Content)
	outcome := &domain.Outcome{
		ID:       domain.OutcomeID(uuid.New().String()),
		TenantID: cmd.TenantID,
		Provenance: domain.Provenance{
			Filename:   src.Name,
			Format:     kind,
			SizeBytes:  src.Size(),
			AnalyzedAt: start,
		},
	}

	if err := s.validate(src, kind); err != nil {
		outcome.Status = domain.StatusRejected
		outcome.Reason = err.Error()
		return s.record(ctx, outcome, start)
	}

	res, err := s.Extractors.Extract(ctx, kind, src)
	if err != nil {
		extErr := &domain.ExtractionError{Format: string(kind), Detail: err.Error()}
		outcome.Status = domain.StatusFailed
		outcome.Reason = extErr.Error()
		return s.record(ctx, outcome, start)
	}
	if strings.TrimSpace(res.Text) == "" {
		// The summarizer requires non-empty input; enforced here, not
		// in the client.
		outcome.Status = domain.StatusFailed
		outcome.Reason = "no text content could be extracted from this file"
		return s.record(ctx, outcome, start)
	}
	outcome.CanonicalText = res.Text

	// Archiving is best-effort: a storage hiccup must not fail an
	// otherwise healthy invocation.
	if s.Artifacts != nil {
		key := fmt.Sprintf("%s/%s/%s", cmd.TenantID, outcome.ID, src.Name)
		if url, err := s.Artifacts.UploadBytes(ctx, key, src.Content, ""); err != nil {
			log.Printf("archive upload failed for tenant=%s file=%s: %v", cmd.TenantID, src.Name, err)
		} else {
			outcome.SourceURL = url
		}
	}

	summary, err := s.summarizeWithRetry(ctx, res.Text, outcome.Provenance)
	if err != nil {
		sumErr := &domain.SummarizationError{Detail: err.Error(), Err: err}
		outcome.Status = domain.StatusFailed
		outcome.Reason = sumErr.Error()
		return s.record(ctx, outcome, start)
	}

	outcome.Status = domain.StatusSucceeded
	outcome.Summary = summary.Summary
	outcome.KeyPoints = summary.KeyPoints
	return s.record(ctx, outcome, start)
}

// AnalyzeBatch fans several files out over a bounded worker group.
// Results come back in input order; one corrupt file yields one failed
// entry without touching its siblings.
func (s *Service) AnalyzeBatch(ctx context.Context, tenant string, items []AnalyzeCommand) ([]*domain.HistoryEntry, error) {
	entries := make([]*domain.HistoryEntry, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, item := range items {
		g.Go(func() error {
			item.TenantID = tenant
			entry, err := s.Analyze(gctx, item)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", item.Filename, err)
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Latest returns the N most recent history entries.
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.HistoryEntry, error) {
	return s.History.Latest(ctx, tenant, limit)
}

// Get returns one history entry by sequence id.
func (s *Service) Get(ctx context.Context, tenant string, seq int64) (*domain.HistoryEntry, error) {
	return s.History.Get(ctx, tenant, seq)
}

// Paginate returns a history page, newest first.
func (s *Service) Paginate(ctx context.Context, tenant string, page, pageSize int) (domain.PaginatedResult, error) {
	return s.History.Paginate(ctx, tenant, page, pageSize)
}

// Summary recaps outcomes of the last N days.
func (s *Service) Summary(ctx context.Context, tenant string, sinceDays int) (domain.StatusCounts, error) {
	return s.History.Summary(ctx, tenant, sinceDays)
}

// validate is the gate in front of extraction: size ceiling first,
// then supported-type policy. It never runs extraction.
func (s *Service) validate(src files.SourceFile, kind files.FormatKind) error {
	if s.MaxFileSize > 0 && src.Size() > s.MaxFileSize {
		return fmt.Errorf("%w: %d bytes (max %d)", domain.ErrSizeExceeded, src.Size(), s.MaxFileSize)
	}
	if kind == files.FormatUnsupported {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, src.Name)
	}
	return nil
}

// summarizeWithRetry wraps the client call with the orchestrator-level
// retry policy: at most MaxRetries extra attempts with doubling
// backoff. Quota errors and context cancellation are not retried.
func (s *Service) summarizeWithRetry(ctx context.Context, text string, prov domain.Provenance) (domai.Summary, error) {
	backoff := s.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domai.Summary{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		summary, err := s.Summarizer.Summarize(ctx, text, prov)
		if err == nil {
			return summary, nil
		}
		lastErr = err
		if errors.Is(err, domai.ErrQuotaExceeded) || ctx.Err() != nil {
			break
		}
	}
	return domai.Summary{}, lastErr
}

func (s *Service) record(ctx context.Context, o *domain.Outcome, start time.Time) (*domain.HistoryEntry, error) {
	o.DurationMS = s.Clock.Now().Sub(start).Milliseconds()
	entry, err := s.History.Record(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("record outcome: %w", err)
	}
	return entry, nil
}
