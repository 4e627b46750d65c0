package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Timtech4u/ai-file-analyzer/internal/application"
	appanalysis "github.com/Timtech4u/ai-file-analyzer/internal/application/analysis"
	domai "github.com/Timtech4u/ai-file-analyzer/internal/domain/ai"
	domain "github.com/Timtech4u/ai-file-analyzer/internal/domain/analysis"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

type memHistory struct {
	mu      sync.Mutex
	entries []*domain.HistoryEntry
}

func (h *memHistory) Record(ctx context.Context, o *domain.Outcome) (*domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry := &domain.HistoryEntry{Seq: int64(len(h.entries) + 1), Outcome: *o}
	h.entries = append(h.entries, entry)
	return entry, nil
}

func (h *memHistory) Get(ctx context.Context, tenant string, seq int64) (*domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.entries {
		if e.Seq == seq && e.TenantID == tenant {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (h *memHistory) Latest(ctx context.Context, tenant string, limit int) ([]*domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*domain.HistoryEntry
	for i := len(h.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if h.entries[i].TenantID == tenant {
			out = append(out, h.entries[i])
		}
	}
	return out, nil
}

func (h *memHistory) Paginate(ctx context.Context, tenant string, page, pageSize int) (domain.PaginatedResult, error) {
	list, _ := h.Latest(ctx, tenant, len(h.entries))
	return domain.PaginatedResult{Data: list, Page: 1, PageSize: pageSize, Total: int64(len(list)), TotalPages: 1}, nil
}

func (h *memHistory) Summary(ctx context.Context, tenant string, sinceDays int) (domain.StatusCounts, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var c domain.StatusCounts
	for _, e := range h.entries {
		if e.TenantID != tenant {
			continue
		}
		c.Total++
		switch e.Status {
		case domain.StatusSucceeded:
			c.Succeeded++
		case domain.StatusFailed:
			c.Failed++
		case domain.StatusRejected:
			c.Rejected++
		}
	}
	return c, nil
}

type echoExtractor struct{}

func (echoExtractor) Extract(ctx context.Context, f files.SourceFile) (extract.Result, error) {
	return extract.Result{Text: string(f.Content)}, nil
}

type fixedSummarizer struct{}

func (fixedSummarizer) Summarize(ctx context.Context, text string, prov domain.Provenance) (domai.Summary, error) {
	return domai.Summary{Summary: "stub summary", KeyPoints: []string{"one"}}, nil
}

func newTestHandler(t *testing.T) (http.Handler, *memHistory) {
	t.Helper()
	hist := &memHistory{}
	reg := extract.NewRegistry()
	for _, kind := range []files.FormatKind{
		files.FormatDocument, files.FormatSpreadsheet, files.FormatWeb, files.FormatArchive,
	} {
		reg.Register(kind, echoExtractor{})
	}
	svc := &appanalysis.Service{
		History:      hist,
		Extractors:   reg,
		Summarizer:   fixedSummarizer{},
		Clock:        application.SystemClock{},
		MaxFileSize:  1 << 20,
		RetryBackoff: time.Millisecond,
	}
	health := func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) }
	return NewRouter(svc, health), hist
}

func multipartBody(t *testing.T, field string, names map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range names {
		w, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeEndpoint(t *testing.T) {
	handler, hist := newTestHandler(t)

	body, contentType := multipartBody(t, "file", map[string][]byte{
		"report.csv": []byte("a,b\n1,2"),
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entry domain.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, domain.StatusSucceeded, entry.Status)
	assert.Equal(t, "stub summary", entry.Summary)
	assert.Equal(t, "report.csv", entry.Provenance.Filename)
	assert.Len(t, hist.entries, 1)
}

func TestAnalyzeEndpointMissingFile(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, contentType := multipartBody(t, "wrong-field", map[string][]byte{"a.csv": []byte("x")})
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpointBadTenant(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, contentType := multipartBody(t, "file", map[string][]byte{"a.csv": []byte("x")})
	req := httptest.NewRequest(http.MethodPost, "/v1/bad.tenant/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeBatchEndpoint(t *testing.T) {
	handler, hist := newTestHandler(t)

	body, contentType := multipartBody(t, "files", map[string][]byte{
		"a.csv":  []byte("a,b"),
		"b.json": []byte(`{"k":1}`),
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/analyze/batch", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entries []domain.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
	assert.Len(t, hist.entries, 2)
}

func TestGetEndpointNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/analyses/42", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestEndpoint(t *testing.T) {
	handler, hist := newTestHandler(t)
	hist.Record(context.Background(), &domain.Outcome{
		TenantID: "acme",
		Status:   domain.StatusSucceeded,
		Provenance: domain.Provenance{
			Filename: "x.csv", Format: files.FormatSpreadsheet, AnalyzedAt: time.Now(),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/analyses/latest", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "x.csv", list[0].Provenance.Filename)
}

func TestSummaryEndpoint(t *testing.T) {
	handler, hist := newTestHandler(t)
	hist.Record(context.Background(), &domain.Outcome{TenantID: "acme", Status: domain.StatusSucceeded})
	hist.Record(context.Background(), &domain.Outcome{TenantID: "acme", Status: domain.StatusFailed})

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/summary?days=30", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var counts domain.StatusCounts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, 2, counts.Total)
	assert.Equal(t, 1, counts.Succeeded)
	assert.Equal(t, 1, counts.Failed)
}

func TestFormatsEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/formats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var types []files.TypeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &types))
	assert.NotEmpty(t, types)
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
