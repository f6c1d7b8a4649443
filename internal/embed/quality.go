package embed

import "math"

// minDimension below which a vector is rejected outright.
const minDimension = 10

// acceptThreshold is the minimum quality score for a usable vector.
const acceptThreshold = 0.3

// Evaluate scores a vector in [0,1]. Empty, all-zero, and implausibly small
// vectors score 0; otherwise penalties are subtracted for weak magnitude,
// near-zero mean absolute value, and near-zero variance.
func Evaluate(vec []float32) float64 {
	if len(vec) == 0 || len(vec) < minDimension {
		return 0.0
	}

	allZero := true
	for _, v := range vec {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return 0.0
	}

	var sumSq, sumAbs, sum float64
	for _, v := range vec {
		f := float64(v)
		sumSq += f * f
		sumAbs += math.Abs(f)
		sum += f
	}
	n := float64(len(vec))
	magnitude := math.Sqrt(sumSq)
	meanAbs := sumAbs / n
	mean := sum / n

	var variance float64
	for _, v := range vec {
		d := float64(v) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / n)

	score := 1.0
	if magnitude < 0.1 {
		score -= 0.3
	}
	if meanAbs < 0.001 {
		score -= 0.2
	}
	if stddev < 0.001 {
		score -= 0.1
	}

	return clamp01(score)
}

// IsAcceptable reports whether a vector passes the quality gate.
func IsAcceptable(vec []float32) bool {
	return Evaluate(vec) > acceptThreshold
}

// CosineSimilarity returns the cosine similarity of two vectors, clamped to
// [0,1]. Mismatched lengths and zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		fa, fb := float64(a[i]), float64(b[i])
		dot += fa * fb
		normA += fa * fa
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Consistency summarizes pairwise similarity across a set of vectors.
type Consistency struct {
	IsConsistent  bool
	AvgSimilarity float64
	MinSimilarity float64
	MaxSimilarity float64
}

// CheckConsistency computes all pairwise cosine similarities. Fewer than two
// vectors is trivially consistent.
func CheckConsistency(vectors [][]float32, threshold float64) Consistency {
	if len(vectors) < 2 {
		return Consistency{IsConsistent: true, AvgSimilarity: 1.0, MinSimilarity: 1.0, MaxSimilarity: 1.0}
	}

	var sum float64
	minSim, maxSim := math.Inf(1), math.Inf(-1)
	count := 0
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sim := CosineSimilarity(vectors[i], vectors[j])
			sum += sim
			minSim = math.Min(minSim, sim)
			maxSim = math.Max(maxSim, sim)
			count++
		}
	}

	avg := sum / float64(count)
	return Consistency{
		IsConsistent:  avg >= threshold,
		AvgSimilarity: avg,
		MinSimilarity: minSim,
		MaxSimilarity: maxSim,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
