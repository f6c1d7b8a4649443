package embed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// fakeClient embeds every text as a fixed healthy vector, failing any batch
// that contains a poisoned text.
type fakeClient struct {
	poison string
	calls  int
}

func (f *fakeClient) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	f.calls++
	for _, text := range texts {
		if f.poison != "" && strings.Contains(text, f.poison) {
			return nil, fmt.Errorf("simulated service rejection")
		}
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = goodVector(16)
	}
	return vectors, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerate_OneResultPerText(t *testing.T) {
	client := &fakeClient{}
	g := NewGenerator(client, "embed-multilingual-v3.0", 10, 16, testLogger())

	texts := []string{"alpha", "beta", "gamma"}
	results := g.Generate(context.Background(), texts)
	if len(results) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(results))
	}
	for i, res := range results {
		if res.Text != texts[i] {
			t.Errorf("result %d: expected text %q, got %q", i, texts[i], res.Text)
		}
		if !res.IsValid {
			t.Errorf("result %d: expected valid embedding, score %v", i, res.QualityScore)
		}
		if res.Model != "embed-multilingual-v3.0" {
			t.Errorf("result %d: unexpected model %q", i, res.Model)
		}
	}
	if client.calls != 1 {
		t.Errorf("expected a single batch call, got %d", client.calls)
	}
}

func TestGenerate_BisectionIsolatesFailure(t *testing.T) {
	client := &fakeClient{poison: "bad"}
	g := NewGenerator(client, "m", 4, 16, testLogger())

	texts := []string{"one", "two", "bad apple", "four"}
	results := g.Generate(context.Background(), texts)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Text != texts[i] {
			t.Errorf("result %d out of order: %q", i, res.Text)
		}
	}
	if results[0].IsValid != true || results[1].IsValid != true || results[3].IsValid != true {
		t.Error("expected healthy texts to embed despite poisoned batch")
	}
	if results[2].IsValid {
		t.Error("expected poisoned text to be flagged invalid")
	}
	if len(results[2].Vector) != 16 {
		t.Errorf("expected zero fallback vector of configured size, got %d", len(results[2].Vector))
	}
	for _, v := range results[2].Vector {
		if v != 0 {
			t.Error("expected fallback vector to be all zeros")
			break
		}
	}
}

func TestGenerate_AllPoisoned(t *testing.T) {
	client := &fakeClient{poison: "x"}
	g := NewGenerator(client, "m", 2, 16, testLogger())

	results := g.Generate(context.Background(), []string{"x1", "x2", "x3"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.IsValid {
			t.Errorf("result %d: expected invalid", i)
		}
	}
}

func TestGenerate_EmptyInput(t *testing.T) {
	g := NewGenerator(&fakeClient{}, "m", 10, 16, testLogger())
	if results := g.Generate(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results for no texts, got %d", len(results))
	}
}

func TestGenerate_BatchLargerThanInput(t *testing.T) {
	client := &fakeClient{}
	g := NewGenerator(client, "m", 100, 16, testLogger())
	results := g.Generate(context.Background(), []string{"only one"})
	if len(results) != 1 || !results[0].IsValid {
		t.Fatalf("expected single valid result, got %+v", results)
	}
}

func TestGenerateOne(t *testing.T) {
	g := NewGenerator(&fakeClient{}, "m", 10, 16, testLogger())
	res := g.GenerateOne(context.Background(), "a search query")
	if !res.IsValid {
		t.Errorf("expected valid embedding, score %v", res.QualityScore)
	}
	if res.Text != "a search query" {
		t.Errorf("unexpected text %q", res.Text)
	}
}
