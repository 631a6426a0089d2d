package orchestrator

import (
	"errors"
	"fmt"
)

// ErrModelEvaluation is matched by every *ModelEvaluationError.
var ErrModelEvaluation = errors.New("model evaluation failed")

// errRunAborted is reported for a run whose worker stopped without a result.
var errRunAborted = errors.New("regeneration aborted before completion")

// ModelEvaluationError reports that the model function could not be resolved,
// returned an error, or panicked.
type ModelEvaluationError struct {
	Model string
	Err   error
}

func (e *ModelEvaluationError) Error() string {
	return fmt.Sprintf("model %q: %v", e.Model, e.Err)
}

func (e *ModelEvaluationError) Unwrap() []error {
	return []error{ErrModelEvaluation, e.Err}
}
