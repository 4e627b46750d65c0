package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/Timtech4u/ai-file-analyzer/internal/application/analysis"
	domai "github.com/Timtech4u/ai-file-analyzer/internal/domain/ai"
	domain "github.com/Timtech4u/ai-file-analyzer/internal/domain/analysis"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
	"github.com/Timtech4u/ai-file-analyzer/internal/middleware"
)

// maxMultipartMemory caps how much of an upload stays in memory while
// parsing; the rest spills to temp files.
const maxMultipartMemory = 32 << 20

// maxBatchFiles caps how many files one batch request may carry.
const maxBatchFiles = 20

var errBadRequest = errors.New("bad request")

type Router struct {
	svc *appanalysis.Service
}

func NewRouter(svc *appanalysis.Service, health http.HandlerFunc) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", health)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Get("/v1/formats", r.wrap(r.handleFormats))

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/analyze/batch", r.wrap(r.handleAnalyzeBatch))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/latest", r.wrap(r.handleLatest))
		rt.Get("/analyses/{seq}", r.wrap(r.handleGet))
		rt.Get("/summary", r.wrap(r.handleSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, errBadRequest):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, domai.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func tenantParam(req *http.Request) (string, error) {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return tenant, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func trackOutcome(entry *domain.HistoryEntry) {
	middleware.IncrementAnalyses()
	switch entry.Status {
	case domain.StatusSucceeded:
		middleware.IncrementAnalysesSucceeded()
	case domain.StatusRejected:
		middleware.IncrementAnalysesRejected()
	default:
		middleware.IncrementAnalysesFailed()
	}
}

// GET /v1/formats
func (r *Router) handleFormats(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(files.SupportedTypes())
}

// POST /v1/{tenant}/analyze
// Multipart form with a single "file" part.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantParam(req)
	if err != nil {
		return err
	}

	if err := req.ParseMultipartForm(maxMultipartMemory); err != nil {
		return fmt.Errorf("%w: invalid multipart body: %v", errBadRequest, err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: missing \"file\" part", errBadRequest)
	}
	defer file.Close()

	if err := middleware.ValidateFilename(header.Filename); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	entry, err := r.svc.Analyze(req.Context(), appanalysis.AnalyzeCommand{
		TenantID: tenant,
		Filename: header.Filename,
		Content:  content,
	})
	if err != nil {
		return err
	}
	trackOutcome(entry)

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(entry)
}

// POST /v1/{tenant}/analyze/batch
// Multipart form with one or more "files" parts.
func (r *Router) handleAnalyzeBatch(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantParam(req)
	if err != nil {
		return err
	}

	if err := req.ParseMultipartForm(maxMultipartMemory); err != nil {
		return fmt.Errorf("%w: invalid multipart body: %v", errBadRequest, err)
	}
	if req.MultipartForm == nil || len(req.MultipartForm.File["files"]) == 0 {
		return fmt.Errorf("%w: missing \"files\" parts", errBadRequest)
	}
	headers := req.MultipartForm.File["files"]
	if len(headers) > maxBatchFiles {
		return fmt.Errorf("%w: too many files (max %d)", errBadRequest, maxBatchFiles)
	}

	items := make([]appanalysis.AnalyzeCommand, 0, len(headers))
	for _, fh := range headers {
		if err := middleware.ValidateFilename(fh.Filename); err != nil {
			return fmt.Errorf("%w: %s: %v", errBadRequest, fh.Filename, err)
		}
		content, err := readUpload(fh)
		if err != nil {
			return err
		}
		items = append(items, appanalysis.AnalyzeCommand{
			Filename: fh.Filename,
			Content:  content,
		})
	}

	entries, err := r.svc.AnalyzeBatch(req.Context(), tenant, items)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		trackOutcome(entry)
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(entries)
}

// GET /v1/{tenant}/analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantParam(req)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.Paginate(req.Context(), tenant, page, size)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/analyses/latest?limit=10
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantParam(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.svc.Latest(req.Context(), tenant, limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/analyses/{seq}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantParam(req)
	if err != nil {
		return err
	}
	seq, err := strconv.ParseInt(chi.URLParam(req, "seq"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid sequence id", errBadRequest)
	}

	entry, err := r.svc.Get(req.Context(), tenant, seq)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(entry)
}

// GET /v1/{tenant}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantParam(req)
	if err != nil {
		return err
	}
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	days = middleware.ValidateDays(days)

	summary, err := r.svc.Summary(req.Context(), tenant, days)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}
