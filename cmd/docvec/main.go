package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docvec/docvec/internal/api"
	"github.com/docvec/docvec/internal/config"
	"github.com/docvec/docvec/internal/embed"
	"github.com/docvec/docvec/internal/extract"
	"github.com/docvec/docvec/internal/pipeline"
	"github.com/docvec/docvec/internal/storage"
)

const usage = `docvec - web documentation ingestion pipeline

Usage:
  docvec run [flags] <url> [<url>...]    process URLs once
  docvec serve [flags]                   start the HTTP API server
  docvec search [flags] <query>          search stored chunks
  docvec schedule [flags] <url>...       reprocess URLs on an interval

Flags:
  -env string          path to a .env file (default ".env", ignored if missing)
  -max-workers int     override MAX_WORKERS
  -validate-content    override VALIDATE_CONTENT (true/false)
  -retry               retry transient failures (run only)
  -interval duration   schedule interval (schedule only, default 1h)
  -limit int           max search results (search only, default 5)
  -verbose             debug logging
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	envFile := fs.String("env", ".env", "path to a .env file")
	maxWorkers := fs.Int("max-workers", 0, "override MAX_WORKERS")
	validateContent := fs.String("validate-content", "", "override VALIDATE_CONTENT (true/false)")
	retry := fs.Bool("retry", false, "retry transient failures")
	interval := fs.Duration("interval", time.Hour, "schedule interval")
	limit := fs.Int("limit", 5, "max search results")
	verbose := fs.Bool("verbose", false, "debug logging")
	fs.Parse(os.Args[2:])

	// Missing .env files are fine; env vars may come from the shell.
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *maxWorkers > 0 {
		cfg.MaxWorkers = *maxWorkers
	}
	if *validateContent != "" {
		cfg.ValidateContent = *validateContent == "true"
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	log := newLogger(cfg.LogLevel)

	orch, cleanup, err := buildPipeline(cfg, log)
	if err != nil {
		log.Error("pipeline setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "run":
		os.Exit(runOnce(ctx, orch, fs.Args(), *retry))
	case "serve":
		os.Exit(serve(ctx, orch, cfg, log))
	case "search":
		os.Exit(search(ctx, orch, strings.Join(fs.Args(), " "), *limit))
	case "schedule":
		os.Exit(schedule(ctx, orch, fs.Args(), *interval, log))
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func buildPipeline(cfg config.Config, log *slog.Logger) (*pipeline.Orchestrator, func(), error) {
	extractor := extract.NewExtractor(cfg.FetchTimeout, log)

	cohere := embed.NewCohereClient(cfg.CohereURL, cfg.CohereAPIKey, cfg.EmbedTimeout)
	generator := embed.NewGenerator(cohere, cfg.EmbedModel, cfg.BatchSize, cfg.VectorSize, log)

	var store storage.Store
	if cfg.StoreBackend == "memory" {
		store = storage.NewMemoryStore(cfg.CollectionName, cfg.VectorSize)
	} else {
		store = storage.NewQdrantStore(storage.QdrantConfig{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.CollectionName,
			VectorSize: cfg.VectorSize,
			Timeout:    cfg.StoreTimeout,
		})
	}

	cleanup := func() {
		extractor.Close()
		cohere.Close()
		store.Close()
	}

	orch, err := pipeline.New(cfg, extractor, generator, store, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()
	if err := store.EnsureCollection(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ensure collection: %w", err)
	}

	return orch, cleanup, nil
}

func runOnce(ctx context.Context, orch *pipeline.Orchestrator, urls []string, retry bool) int {
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "error: at least one URL is required")
		return 1
	}

	results := orch.ProcessBatch(ctx, urls)
	if retry {
		for i, res := range results {
			if !res.Succeeded() {
				results[i] = orch.ProcessWithRetry(ctx, res.URL)
			}
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"results": results,
		"stats":   orch.Stats().Snapshot(),
	})

	for _, res := range results {
		if !res.Succeeded() {
			return 1
		}
	}
	return 0
}

func serve(ctx context.Context, orch *pipeline.Orchestrator, cfg config.Config, log *slog.Logger) int {
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // synchronous batch ingest can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docvec", "port", cfg.Port, "backend", cfg.StoreBackend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		return 1
	}
	return 0
}

func search(ctx context.Context, orch *pipeline.Orchestrator, query string, limit int) int {
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(os.Stderr, "error: a query is required")
		return 1
	}

	hits, err := orch.SearchSimilar(ctx, query, limit, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"query": query, "results": hits})
	return 0
}

func schedule(ctx context.Context, orch *pipeline.Orchestrator, urls []string, interval time.Duration, log *slog.Logger) int {
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "error: at least one URL is required")
		return 1
	}

	sched := pipeline.NewScheduler(orch, urls, interval, log)
	sched.Start(ctx)
	<-ctx.Done()
	sched.Stop()
	return 0
}
