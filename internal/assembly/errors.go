package assembly

import (
	"errors"
	"fmt"
)

// ErrInvalidModelOutput matches every *InvalidModelOutputError.
var ErrInvalidModelOutput = errors.New("invalid model output")

// InvalidModelOutputError means Normalize could not interpret what a model
// function returned.
type InvalidModelOutputError struct {
	Type   string
	Reason string
}

func (e *InvalidModelOutputError) Error() string {
	return fmt.Sprintf("invalid model output of type %s: %s", e.Type, e.Reason)
}

func (e *InvalidModelOutputError) Unwrap() error {
	return ErrInvalidModelOutput
}
