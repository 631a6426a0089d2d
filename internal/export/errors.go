package export

import (
	"errors"
	"fmt"
)

var (
	// ErrNothingToExport means no built assembly with geometry is available.
	ErrNothingToExport = errors.New("nothing to export")
	// ErrExportInProgress means another export has not finished yet.
	ErrExportInProgress = errors.New("an export is already in progress")
	// ErrExportSizeAborted is matched by every *ExportSizeAbortedError.
	ErrExportSizeAborted = errors.New("export aborted due to size")
	// ErrExportBackend is matched by every *ExportBackendError.
	ErrExportBackend = errors.New("export backend failed")
)

// ExportSizeAbortedError is returned when a large export was not confirmed.
type ExportSizeAbortedError struct {
	Solids        int
	EstimateBytes int64
}

func (e *ExportSizeAbortedError) Error() string {
	return fmt.Sprintf("export of %d solids (about %d MB) was not confirmed", e.Solids, e.EstimateBytes/(1<<20))
}

func (e *ExportSizeAbortedError) Unwrap() error { return ErrExportSizeAborted }

// ExportBackendError wraps a failed or malformed STEP write.
type ExportBackendError struct {
	Path string
	Err  error
}

func (e *ExportBackendError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
}

func (e *ExportBackendError) Unwrap() []error { return []error{ErrExportBackend, e.Err} }
