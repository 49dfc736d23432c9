// internal/pipeline/errors.go
package pipeline

import (
	"errors"
	"fmt"
)

// Stage identifies a step of the upscale pipeline.
type Stage string

const (
	StageReceived        Stage = "received"
	StageFetching        Stage = "fetching"
	StageGuarding        Stage = "guarding"
	StageInferring       Stage = "inferring"
	StageEncoding        Stage = "encoding"
	StageUploading       Stage = "uploading"
	StageRecordingStatus Stage = "recording_status"
)

// ErrInvalidRequest is the client-input error for a request missing its
// required fields. It is never written to the status store.
var ErrInvalidRequest = errors.New("Missing requestId or imageUrl")

// StageError tags a processing failure with the stage that produced it, so
// the orchestrator and its tests can dispatch on where a run short-circuited.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func failedAt(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// FailedStage extracts the stage tag from an error, if present.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
