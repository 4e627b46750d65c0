package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Timtech4u/ai-file-analyzer/internal/application"
	appanalysis "github.com/Timtech4u/ai-file-analyzer/internal/application/analysis"
	"github.com/Timtech4u/ai-file-analyzer/internal/config"
	domai "github.com/Timtech4u/ai-file-analyzer/internal/domain/ai"
	domain "github.com/Timtech4u/ai-file-analyzer/internal/domain/analysis"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
	localai "github.com/Timtech4u/ai-file-analyzer/internal/infra/ai/local"
	openaic "github.com/Timtech4u/ai-file-analyzer/internal/infra/ai/openai"
	mysqlp "github.com/Timtech4u/ai-file-analyzer/internal/infra/db/mysql"
	postgresp "github.com/Timtech4u/ai-file-analyzer/internal/infra/db/postgres"
	sqlitep "github.com/Timtech4u/ai-file-analyzer/internal/infra/db/sqlite"
	extractors "github.com/Timtech4u/ai-file-analyzer/internal/infra/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/infra/httpserver"
	minioStore "github.com/Timtech4u/ai-file-analyzer/internal/infra/storage"
	"github.com/Timtech4u/ai-file-analyzer/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	db, history, err := openHistory(ctx, cfg)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	// minio is optional: without an endpoint the pipeline simply skips
	// archiving originals
	var artifacts domain.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		artifacts = store
	}

	summarizer, vision := buildAI(cfg)

	svc := &appanalysis.Service{
		History:     history,
		Extractors:  buildRegistry(vision),
		Summarizer:  summarizer,
		Artifacts:   artifacts,
		Clock:       application.SystemClock{},
		MaxFileSize: cfg.MaxFileSizeBytes(),
		MaxRetries:  cfg.OpenAI.MaxRetries,
	}

	health := middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	})

	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(60, 1))
	mux.Mount("/", httpserver.NewRouter(svc, health))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// openHistory connects the configured backend and ensures the schema
// exists.
func openHistory(ctx context.Context, cfg *config.Config) (*sql.DB, domain.History, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		if err := mysqlp.EnsureSchema(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("mysql schema: %w", err)
		}
		return db, mysqlp.NewHistoryRepository(db), nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := postgresp.EnsureSchema(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		return db, postgresp.NewHistoryRepository(db), nil
	case "sqlite":
		db, err := sqlitep.Connect(ctx, cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite connect: %w", err)
		}
		if err := sqlitep.EnsureSchema(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return db, sqlitep.NewHistoryRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// buildAI picks the summarizer implementation. Without an API key the
// server only starts in debug mode, falling back to the offline
// extractive summarizer (no vision support).
func buildAI(cfg *config.Config) (domai.Summarizer, domai.VisionDescriber) {
	if cfg.OpenAI.APIKey == "" {
		if !cfg.Analysis.Debug {
			log.Fatal("openai.apiKey is required unless analysis.debug is set")
		}
		log.Println("no OpenAI API key configured, using local summarizer")
		return localai.NewSummarizer(), nil
	}

	client := openaic.NewClient(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.VisionModel,
		time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second,
	)
	return client, client
}

func buildRegistry(vision domai.VisionDescriber) *extract.Registry {
	reg := extract.NewRegistry()
	reg.Register(files.FormatDocument, extractors.NewDocument())
	reg.Register(files.FormatSpreadsheet, extractors.NewSpreadsheet())
	reg.Register(files.FormatPresentation, extractors.NewPresentation())
	reg.Register(files.FormatImage, extractors.NewImage(vision))
	reg.Register(files.FormatWeb, extractors.NewWeb())
	reg.Register(files.FormatArchive, extractors.NewArchive())
	// audio is classified but has no extraction strategy yet
	return reg
}
