package embed

import (
	"math"
	"testing"
)

func goodVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		if i%2 == 0 {
			vec[i] = 0.5
		} else {
			vec[i] = -0.25
		}
	}
	return vec
}

func TestEvaluate_EmptyVector(t *testing.T) {
	if score := Evaluate(nil); score != 0.0 {
		t.Errorf("expected 0.0 for nil vector, got %v", score)
	}
	if score := Evaluate([]float32{}); score != 0.0 {
		t.Errorf("expected 0.0 for empty vector, got %v", score)
	}
}

func TestEvaluate_TooFewDimensions(t *testing.T) {
	if score := Evaluate(make([]float32, 9)); score != 0.0 {
		t.Errorf("expected 0.0 below minimum dimension, got %v", score)
	}
}

func TestEvaluate_AllZeros(t *testing.T) {
	if score := Evaluate(make([]float32, 1024)); score != 0.0 {
		t.Errorf("expected 0.0 for zero vector, got %v", score)
	}
}

func TestEvaluate_GoodVectorPasses(t *testing.T) {
	score := Evaluate(goodVector(1024))
	if score <= acceptThreshold {
		t.Errorf("expected good vector above threshold, got %v", score)
	}
	if !IsAcceptable(goodVector(1024)) {
		t.Error("expected good vector to be acceptable")
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	vec := goodVector(256)
	if Evaluate(vec) != Evaluate(vec) {
		t.Error("expected identical scores for identical input")
	}
}

func TestEvaluate_WeakVectorPenalized(t *testing.T) {
	// Uniform tiny values: weak magnitude, near-zero mean abs, zero spread.
	vec := make([]float32, 1024)
	for i := range vec {
		vec[i] = 1e-6
	}
	score := Evaluate(vec)
	if math.Abs(score-0.4) > 1e-9 {
		t.Errorf("expected all three penalties (score 0.4), got %v", score)
	}
}

func TestCosineSimilarity_Identical(t *testing.T) {
	vec := goodVector(64)
	if sim := CosineSimilarity(vec, vec); math.Abs(sim-1.0) > 1e-6 {
		t.Errorf("expected similarity 1.0, got %v", sim)
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	a := []float32{1, 0, 0, 0}
	b := []float32{0, 1, 0, 0}
	if sim := CosineSimilarity(a, b); sim != 0.0 {
		t.Errorf("expected similarity 0.0, got %v", sim)
	}
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	if sim := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); sim != 0.0 {
		t.Errorf("expected 0.0 for mismatched lengths, got %v", sim)
	}
	if sim := CosineSimilarity([]float32{0, 0}, []float32{1, 2}); sim != 0.0 {
		t.Errorf("expected 0.0 for zero vector, got %v", sim)
	}
}

func TestCheckConsistency_SingleVectorTrivial(t *testing.T) {
	c := CheckConsistency([][]float32{goodVector(16)}, 0.9)
	if !c.IsConsistent || c.AvgSimilarity != 1.0 {
		t.Errorf("expected trivial consistency, got %+v", c)
	}
}

func TestCheckConsistency_IdenticalVectors(t *testing.T) {
	vecs := [][]float32{goodVector(16), goodVector(16), goodVector(16)}
	c := CheckConsistency(vecs, 0.9)
	if !c.IsConsistent {
		t.Errorf("expected identical vectors to be consistent, got %+v", c)
	}
	if math.Abs(c.MinSimilarity-1.0) > 1e-6 {
		t.Errorf("expected min similarity 1.0, got %v", c.MinSimilarity)
	}
}

func TestCheckConsistency_DivergentVectors(t *testing.T) {
	a := []float32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	b := []float32{0, 1, 0, 0, 0, 0, 0, 0, 0, 0}
	c := CheckConsistency([][]float32{a, b}, 0.9)
	if c.IsConsistent {
		t.Errorf("expected orthogonal vectors to be inconsistent, got %+v", c)
	}
}
