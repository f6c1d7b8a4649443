package pipeline

// Processing status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Result records the outcome of processing one URL. A failed result keeps
// the stage it failed in and the error messages; a successful one keeps the
// IDs of the stored points.
type Result struct {
	URL            string   `json:"url"`
	Status         string   `json:"status"`
	FailedStage    string   `json:"failed_stage,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	EmbeddingIDs   []string `json:"embedding_ids,omitempty"`
	ChunkCount     int      `json:"chunk_count"`
	ContentScore   float64  `json:"content_score"`
	ProcessingSecs float64  `json:"processing_time_seconds"`
}

// Succeeded reports whether the URL made it all the way to storage.
func (r *Result) Succeeded() bool {
	return r.Status == StatusSuccess
}
