package services

import (
	"errors"
	"fmt"
)

// Stage identifies where in the analysis pipeline a run failed. Each run has
// one terminal success state or exactly one of these failure states.
type Stage string

const (
	StageValidation  Stage = "validation"
	StageRetrieval   Stage = "retrieval"
	StageExtraction  Stage = "extraction"
	StageCompletion  Stage = "completion"
	StagePersistence Stage = "persistence"
)

// StageError wraps a failure with the pipeline stage it occurred in, so the
// invoking infrastructure can log and alert per stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// StageOf extracts the failure stage from an error chain. The second return
// is false when the error did not originate in the pipeline.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
