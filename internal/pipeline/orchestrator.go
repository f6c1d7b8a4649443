// Package pipeline sequences extraction, validation, chunking, embedding
// and storage per URL, and runs batches of URLs with bounded parallelism.
// A failure in one URL never affects the others; every URL produces exactly
// one Result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docvec/docvec/internal/chunker"
	"github.com/docvec/docvec/internal/config"
	"github.com/docvec/docvec/internal/document"
	"github.com/docvec/docvec/internal/embed"
	"github.com/docvec/docvec/internal/extract"
	"github.com/docvec/docvec/internal/storage"
	"github.com/docvec/docvec/internal/validate"
)

// Extractor fetches and parses one page. *extract.Extractor implements it;
// tests substitute fakes.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (*extract.Page, error)
}

// Orchestrator runs the ingestion pipeline.
type Orchestrator struct {
	cfg       config.Config
	extractor Extractor
	validator *validate.ContentValidator
	generator *embed.Generator
	store     storage.Store
	stats     *Statistics
	log       *slog.Logger
}

// New wires the pipeline together. Configuration is validated here so a
// misconfigured process fails before touching the network.
func New(cfg config.Config, extractor Extractor, generator *embed.Generator, store storage.Store, log *slog.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Orchestrator{
		cfg:       cfg,
		extractor: extractor,
		validator: validate.NewContentValidator(cfg.MinQualityScore),
		generator: generator,
		store:     store,
		stats:     NewStatistics(),
		log:       log,
	}, nil
}

// Stats exposes the accumulated run statistics.
func (o *Orchestrator) Stats() *Statistics {
	return o.stats
}

// Store exposes the vector store for direct use by API handlers.
func (o *Orchestrator) Store() storage.Store {
	return o.store
}

// Extractor exposes the page extractor for direct use by API handlers.
func (o *Orchestrator) Extractor() Extractor {
	return o.extractor
}

// ProcessURL runs the full pipeline for one URL. It never returns an
// error; failures are folded into the Result so batch callers can keep
// going.
func (o *Orchestrator) ProcessURL(ctx context.Context, pageURL string) Result {
	start := time.Now()
	res := Result{URL: pageURL, Status: StatusSuccess}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.URLTimeout)
	defer cancel()

	if err := o.run(ctx, pageURL, &res); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = stageErrf(StageTimeout, "processing exceeded %s", o.cfg.URLTimeout)
		}
		res.Status = StatusFailed
		var se *StageError
		if errors.As(err, &se) {
			res.FailedStage = string(se.Stage)
		}
		res.Errors = append(res.Errors, err.Error())
		o.log.Warn("url failed", "url", pageURL, "stage", res.FailedStage, "error", err)
	}

	res.ProcessingSecs = time.Since(start).Seconds()
	o.stats.Record(pageURL, res.Succeeded(), time.Since(start))
	return res
}

func (o *Orchestrator) run(ctx context.Context, pageURL string, res *Result) error {
	urlCheck := validate.URL(pageURL)
	res.Warnings = append(res.Warnings, urlCheck.Warnings...)
	if !urlCheck.IsValid {
		return stageErrf(StageURLValidation, "%s", strings.Join(urlCheck.Errors, "; "))
	}

	page, err := o.extractor.Extract(ctx, pageURL)
	if err != nil {
		var fe *extract.FetchError
		if errors.As(err, &fe) {
			return &StageError{Stage: StageFetch, Err: err}
		}
		return &StageError{Stage: StageExtraction, Err: err}
	}

	res.ContentScore = 1.0
	if o.cfg.ValidateContent {
		check := o.validator.Content(page)
		res.Warnings = append(res.Warnings, check.Warnings...)
		res.ContentScore = check.QualityScore
		if !check.IsValid {
			return stageErrf(StageContentQuality, "%s", strings.Join(check.Errors, "; "))
		}
	}

	if len(page.Text) > o.cfg.MaxTextLength {
		page.Text = page.Text[:o.cfg.MaxTextLength]
		res.Warnings = append(res.Warnings, fmt.Sprintf("text truncated to %d characters", o.cfg.MaxTextLength))
	}

	doc := document.Structure(page)
	sections := doc.Sections(page.Text)
	chunks := chunker.ChunkSections(sections, o.cfg.MaxChunkSize)
	if len(chunks) == 0 {
		return stageErrf(StageExtraction, "no chunks produced from %d characters", len(page.Text))
	}
	res.ChunkCount = len(chunks)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embedded := o.generator.Generate(ctx, texts)

	var issues []string
	for i, e := range embedded {
		if !e.IsValid {
			issues = append(issues, fmt.Sprintf("chunk %d: quality %.2f", i, e.QualityScore))
		}
	}
	if len(issues) > 0 {
		if ctx.Err() != nil {
			return stageErrf(StageEmbeddingService, "embedding aborted: %v", ctx.Err())
		}
		return stageErrf(StageEmbeddingQuality, "%d/%d embeddings rejected: %s",
			len(issues), len(embedded), strings.Join(issues, "; "))
	}

	points := o.buildPoints(pageURL, doc.Title, chunks, embedded)
	if err := o.store.Upsert(ctx, points); err != nil {
		return &StageError{Stage: StageStorage, Err: err}
	}

	res.EmbeddingIDs = make([]string, len(points))
	for i, p := range points {
		res.EmbeddingIDs[i] = p.ID
	}
	o.log.Info("url ingested", "url", pageURL, "chunks", len(chunks), "score", res.ContentScore)
	return nil
}

// buildPoints derives deterministic point IDs from URL and chunk index, so
// re-ingesting a page overwrites its previous chunks instead of duplicating
// them.
func (o *Orchestrator) buildPoints(pageURL, title string, chunks []chunker.Chunk, embedded []embed.Result) []storage.Point {
	now := time.Now().UTC().Format(time.RFC3339)
	points := make([]storage.Point, len(chunks))
	for i, c := range chunks {
		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", pageURL, i)))
		points[i] = storage.Point{
			ID:     id.String(),
			Vector: embedded[i].Vector,
			Payload: map[string]any{
				"text":          c.Content,
				"source_url":    pageURL,
				"title":         title,
				"chunk_index":   i,
				"total_chunks":  len(chunks),
				"section_title": c.SectionTitle,
				"context_path":  c.ContextPath,
				"level":         c.HierarchyLevel,
				"model":         embedded[i].Model,
				"extracted_at":  now,
			},
		}
	}
	return points
}

// ProcessBatch processes URLs concurrently, at most MaxWorkers at a time.
// Results come back in input order.
func (o *Orchestrator) ProcessBatch(ctx context.Context, urls []string) []Result {
	o.stats.Begin()
	defer o.stats.End()

	results := make([]Result, len(urls))
	sem := make(chan struct{}, o.cfg.MaxWorkers)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = o.ProcessURL(ctx, u)
		}(i, u)
	}
	wg.Wait()

	var ok int
	for _, r := range results {
		if r.Succeeded() {
			ok++
		}
	}
	o.log.Info("batch complete", "total", len(urls), "succeeded", ok, "failed", len(urls)-ok)
	return results
}

// ProcessWithRetry reprocesses a URL on transient failures, with
// exponential backoff between attempts. Deterministic failures (validation,
// quality gates) are returned immediately.
func (o *Orchestrator) ProcessWithRetry(ctx context.Context, pageURL string) Result {
	res, _ := Retry(ctx, o.cfg.MaxRetries, o.cfg.RetryBackoff, func(ctx context.Context) (Result, error) {
		r := o.ProcessURL(ctx, pageURL)
		if r.Succeeded() {
			return r, nil
		}
		err := stageErrf(Stage(r.FailedStage), "%s", strings.Join(r.Errors, "; "))
		if !IsTransient(err) {
			return r, nil
		}
		return r, err
	})
	return res
}

// SearchSimilar embeds the query and returns the closest stored chunks.
func (o *Orchestrator) SearchSimilar(ctx context.Context, query string, limit int, filter storage.Filter) ([]storage.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = 5
	}

	embedded := o.generator.GenerateOne(ctx, query)
	if !embedded.IsValid {
		return nil, stageErrf(StageEmbeddingQuality, "query embedding rejected (quality %.2f)", embedded.QualityScore)
	}

	hits, err := o.store.Search(ctx, embedded.Vector, limit, filter)
	if err != nil {
		return nil, &StageError{Stage: StageStorage, Err: err}
	}
	return hits, nil
}

// Health reports per-component status. The embedding service is not probed
// to avoid burning quota; its key presence is checked instead.
func (o *Orchestrator) Health(ctx context.Context) map[string]string {
	health := map[string]string{
		"pipeline":  "ok",
		"embedding": "ok",
	}
	if o.cfg.CohereAPIKey == "" {
		health["embedding"] = "missing api key"
	}
	if _, err := o.store.Info(ctx); err != nil {
		health["storage"] = err.Error()
	} else {
		health["storage"] = "ok"
	}
	return health
}
