package pipeline

import (
	"sort"
	"sync"
	"time"
)

const maxRecentURLs = 20

// StatsSnapshot is a point-in-time aggregate of pipeline runs.
type StatsSnapshot struct {
	TotalProcessed int      `json:"total_processed"`
	TotalFailed    int      `json:"total_failed"`
	SuccessRate    float64  `json:"success_rate"`
	MinSecs        float64  `json:"min_seconds"`
	MaxSecs        float64  `json:"max_seconds"`
	AvgSecs        float64  `json:"avg_seconds"`
	MedianSecs     float64  `json:"median_seconds"`
	RecentURLs     []string `json:"recent_urls"`
	FailedURLs     []string `json:"failed_urls"`
	StartedAt      string   `json:"started_at,omitempty"`
	FinishedAt     string   `json:"finished_at,omitempty"`
}

// Statistics accumulates per-URL outcomes across pipeline runs. Safe for
// concurrent use by batch workers.
type Statistics struct {
	mu         sync.Mutex
	processed  []string
	failed     []string
	durations  []float64
	startedAt  time.Time
	finishedAt time.Time
}

func NewStatistics() *Statistics {
	return &Statistics{}
}

// Begin marks the start of a batch run.
func (s *Statistics) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedAt = time.Now()
	s.finishedAt = time.Time{}
}

// End marks the end of a batch run.
func (s *Statistics) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishedAt = time.Now()
}

// Record folds one URL outcome into the aggregates.
func (s *Statistics) Record(url string, success bool, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if success {
		s.processed = append(s.processed, url)
	} else {
		s.failed = append(s.failed, url)
	}
	s.durations = append(s.durations, duration.Seconds())
}

// Reset clears all accumulated state.
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = nil
	s.failed = nil
	s.durations = nil
	s.startedAt = time.Time{}
	s.finishedAt = time.Time{}
}

// Snapshot computes the aggregate view.
func (s *Statistics) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		TotalProcessed: len(s.processed),
		TotalFailed:    len(s.failed),
		RecentURLs:     tail(s.processed, maxRecentURLs),
		FailedURLs:     tail(s.failed, maxRecentURLs),
	}
	total := len(s.processed) + len(s.failed)
	if total > 0 {
		snap.SuccessRate = float64(len(s.processed)) / float64(total)
	}
	if !s.startedAt.IsZero() {
		snap.StartedAt = s.startedAt.Format(time.RFC3339)
	}
	if !s.finishedAt.IsZero() {
		snap.FinishedAt = s.finishedAt.Format(time.RFC3339)
	}
	if len(s.durations) == 0 {
		return snap
	}

	values := make([]float64, len(s.durations))
	copy(values, s.durations)
	sort.Float64s(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	snap.MinSecs = values[0]
	snap.MaxSecs = values[len(values)-1]
	snap.AvgSecs = sum / float64(len(values))
	snap.MedianSecs = median(values)
	return snap
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func tail(items []string, n int) []string {
	if len(items) <= n {
		return append([]string(nil), items...)
	}
	return append([]string(nil), items[len(items)-n:]...)
}
