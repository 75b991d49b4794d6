package raster

import (
	"errors"
	"fmt"
)

var (
	// ErrRaster is returned when a drawing surface cannot be acquired or the
	// encoded output is empty.
	ErrRaster = errors.New("rasterization failed")

	// ErrDecode is returned when an uploaded file cannot be decoded as an image.
	ErrDecode = errors.New("image could not be decoded")
)

// RasterError wraps errors with context about the failing raster operation.
type RasterError struct {
	// Op is the operation that failed (e.g., "CreateSurface", "Encode").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RasterError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("raster: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("raster: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RasterError) Unwrap() error {
	return e.Err
}

// Is reports ErrRaster for every RasterError so callers can match the kind
// without knowing the cause.
func (e *RasterError) Is(target error) bool {
	return target == ErrRaster || errors.Is(e.Err, target)
}

// WrapRasterError wraps an error as a RasterError if it isn't already one.
func WrapRasterError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var rasterErr *RasterError
	if errors.As(err, &rasterErr) {
		return err
	}

	return &RasterError{Op: op, Err: err, Details: details}
}
