// Package sqlite provides an embedded history backend for single-node
// and development deployments. The driver is pure Go (modernc.org),
// so CGO stays disabled.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	domain "github.com/Timtech4u/ai-file-analyzer/internal/domain/analysis"
)

type HistoryRepository struct{ db *sql.DB }

func NewHistoryRepository(db *sql.DB) *HistoryRepository { return &HistoryRepository{db: db} }

// Connect opens a sqlite database file (or ":memory:"). A single
// connection enforces the single-writer discipline the history log
// requires.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the history table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS analysis_history (
  seq            INTEGER PRIMARY KEY AUTOINCREMENT,
  outcome_id     TEXT NOT NULL,
  tenant_id      TEXT NOT NULL,
  filename       TEXT NOT NULL DEFAULT '',
  format         TEXT NOT NULL DEFAULT '',
  size_bytes     INTEGER NOT NULL DEFAULT 0,
  analyzed_at    TIMESTAMP NOT NULL,
  status         TEXT NOT NULL,
  reason         TEXT NOT NULL,
  summary        TEXT NOT NULL,
  key_points     TEXT NOT NULL,
  canonical_text TEXT NOT NULL,
  source_url     TEXT NOT NULL DEFAULT '',
  duration_ms    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_history_tenant_seq ON analysis_history (tenant_id, seq);`
	_, err := db.ExecContext(ctx, ddl)
	return err
}

const historyColumns = `
seq, outcome_id, tenant_id, filename, format, size_bytes, analyzed_at,
status, reason, summary, key_points, canonical_text, source_url, duration_ms`

func (r *HistoryRepository) Record(ctx context.Context, o *domain.Outcome) (*domain.HistoryEntry, error) {
	const q = `
INSERT INTO analysis_history
(outcome_id, tenant_id, filename, format, size_bytes, analyzed_at,
 status, reason, summary, key_points, canonical_text, source_url, duration_ms)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?);
`
	analyzedAt := o.Provenance.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}
	points, err := json.Marshal(o.KeyPoints)
	if err != nil {
		return nil, fmt.Errorf("encode key points: %w", err)
	}

	res, err := r.db.ExecContext(ctx, q,
		o.ID, o.TenantID, o.Provenance.Filename, o.Provenance.Format, o.Provenance.SizeBytes, analyzedAt,
		o.Status, o.Reason, o.Summary, string(points), o.CanonicalText, o.SourceURL, o.DurationMS,
	)
	if err != nil {
		return nil, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.HistoryEntry{Seq: seq, Outcome: *o}, nil
}

func (r *HistoryRepository) Get(ctx context.Context, tenant string, seq int64) (*domain.HistoryEntry, error) {
	q := `SELECT ` + historyColumns + `
FROM analysis_history
WHERE tenant_id=? AND seq=? LIMIT 1;`

	e, err := scanEntry(r.db.QueryRowContext(ctx, q, tenant, seq))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return e, err
}

func (r *HistoryRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + historyColumns + `
FROM analysis_history
WHERE tenant_id=? ORDER BY seq DESC LIMIT ?;`

	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *HistoryRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	q := `SELECT ` + historyColumns + `
FROM analysis_history
WHERE tenant_id=? ORDER BY seq DESC LIMIT ? OFFSET ?;`

	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	if err != nil {
		return domain.PaginatedResult{}, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analysis_history WHERE tenant_id=?;`, tenant,
	).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("counting history: %w", err)
	}

	return domain.PaginatedResult{
		Data:       entries,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (r *HistoryRepository) Summary(ctx context.Context, tenant string, sinceDays int) (domain.StatusCounts, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total,
       COALESCE(SUM(status='succeeded'),0) AS succeeded,
       COALESCE(SUM(status='failed'),0)    AS failed,
       COALESCE(SUM(status='rejected'),0)  AS rejected
FROM analysis_history
WHERE tenant_id=? AND analyzed_at >= ?;
`
	var c domain.StatusCounts
	if err := r.db.QueryRowContext(ctx, q, tenant, cut).Scan(&c.Total, &c.Succeeded, &c.Failed, &c.Rejected); err != nil {
		return domain.StatusCounts{}, err
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.HistoryEntry, error) {
	var e domain.HistoryEntry
	var points string
	if err := row.Scan(
		&e.Seq, &e.ID, &e.TenantID, &e.Provenance.Filename, &e.Provenance.Format,
		&e.Provenance.SizeBytes, &e.Provenance.AnalyzedAt,
		&e.Status, &e.Reason, &e.Summary, &points, &e.CanonicalText, &e.SourceURL, &e.DurationMS,
	); err != nil {
		return nil, err
	}
	if points != "" && points != "null" {
		if err := json.Unmarshal([]byte(points), &e.KeyPoints); err != nil {
			return nil, fmt.Errorf("decode key points: %w", err)
		}
	}
	return &e, nil
}

func collectEntries(rows *sql.Rows) ([]*domain.HistoryEntry, error) {
	var out []*domain.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
