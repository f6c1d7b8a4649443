package embed

import (
	"context"
	"log/slog"
)

// Result pairs a text with its vector and quality verdict. An invalid
// result carries either a zero fallback vector or one that failed the
// quality gate; it must never be stored as-is.
type Result struct {
	Text         string
	Vector       []float32
	QualityScore float64
	IsValid      bool
	Model        string
}

// Generator produces embeddings in batches with bisection retry.
type Generator struct {
	client     Client
	model      string
	batchSize  int
	vectorSize int
	log        *slog.Logger
}

// NewGenerator creates a Generator. vectorSize is used for zero-vector
// fallbacks when a single text cannot be embedded at all.
func NewGenerator(client Client, model string, batchSize, vectorSize int, log *slog.Logger) *Generator {
	if batchSize <= 0 {
		batchSize = 10
	}
	if vectorSize <= 0 {
		vectorSize = 1024
	}
	return &Generator{
		client:     client,
		model:      model,
		batchSize:  batchSize,
		vectorSize: vectorSize,
		log:        log,
	}
}

// Generate returns exactly one Result per input text, in input order,
// regardless of service failures. Failed batches are bisected and retried
// with halved batch size; a single text that still fails gets a zero vector
// flagged invalid.
func (g *Generator) Generate(ctx context.Context, texts []string) []Result {
	vectors := g.embedAll(ctx, texts, g.batchSize)

	results := make([]Result, len(texts))
	for i, text := range texts {
		vec := vectors[i]
		score := Evaluate(vec)
		results[i] = Result{
			Text:         text,
			Vector:       vec,
			QualityScore: score,
			IsValid:      score > acceptThreshold,
			Model:        g.model,
		}
	}
	return results
}

// GenerateOne embeds a single text, e.g. a search query.
func (g *Generator) GenerateOne(ctx context.Context, text string) Result {
	results := g.Generate(ctx, []string{text})
	return results[0]
}

func (g *Generator) embedAll(ctx context.Context, texts []string, batchSize int) [][]float32 {
	if len(texts) == 0 {
		return nil
	}
	if batchSize < 1 {
		batchSize = 1
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vectors, err := g.client.Embed(ctx, batch, g.model)
		if err == nil && len(vectors) == len(batch) {
			out = append(out, vectors...)
			continue
		}
		if err != nil {
			g.log.Warn("embed batch failed", "size", len(batch), "error", err)
		}

		if len(batch) > 1 {
			mid := len(batch) / 2
			half := batchSize / 2
			if half < 1 {
				half = 1
			}
			out = append(out, g.embedAll(ctx, batch[:mid], half)...)
			out = append(out, g.embedAll(ctx, batch[mid:], half)...)
		} else {
			g.log.Warn("using zero embedding for failed text", "preview", preview(batch[0]))
			out = append(out, make([]float32, g.vectorSize))
		}
	}
	return out
}

func preview(text string) string {
	if len(text) > 50 {
		return text[:50] + "..."
	}
	return text
}
