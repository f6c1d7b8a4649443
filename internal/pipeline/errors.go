package pipeline

import (
	"errors"
	"fmt"
)

// Stage identifies where in the pipeline a URL failed.
type Stage string

const (
	StageURLValidation    Stage = "url_validation"
	StageFetch            Stage = "fetch"
	StageExtraction       Stage = "extraction"
	StageContentQuality   Stage = "content_quality"
	StageEmbeddingService Stage = "embedding_service"
	StageEmbeddingQuality Stage = "embedding_quality"
	StageStorage          Stage = "storage"
	StageTimeout          Stage = "timeout"
)

// StageError wraps a failure with the pipeline stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErrf(stage Stage, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether an error is worth retrying. Validation and
// quality failures are deterministic; network and service failures are not.
func IsTransient(err error) bool {
	var se *StageError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Stage {
	case StageFetch, StageEmbeddingService, StageStorage, StageTimeout:
		return true
	}
	return false
}
