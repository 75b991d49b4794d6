package export

import (
	"errors"
	"fmt"
)

var (
	// ErrExportFailed is returned when a card could not be written to a sink.
	ErrExportFailed = errors.New("card export failed")

	// ErrNoSinks is returned when an exporter has nowhere to write.
	ErrNoSinks = errors.New("no export destination configured")
)

// ExportError records which sink failed for which object.
type ExportError struct {
	Sink   string
	Object string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export: %s %s: %v", e.Sink, e.Object, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

func (e *ExportError) Is(target error) bool {
	return target == ErrExportFailed || errors.Is(e.Err, target)
}
