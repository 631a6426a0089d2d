package registry

import (
	"errors"
	"fmt"
)

// ErrModelNotFound is matched by every *ModelNotFoundError.
var ErrModelNotFound = errors.New("model not found")

// ErrClosed is returned by operations on a registry after Teardown.
var ErrClosed = errors.New("registry is closed")

// ModelNotFoundError reports a lookup for a model family that is not loaded.
type ModelNotFoundError struct {
	Name string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %q is not registered", e.Name)
}

func (e *ModelNotFoundError) Unwrap() error { return ErrModelNotFound }
