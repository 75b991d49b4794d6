package detect

import (
	"errors"
	"fmt"
)

var (
	// ErrDetectionUnavailable is returned when the detector could not be
	// reached or answered with data that could not be used.
	ErrDetectionUnavailable = errors.New("automatic card detection is unavailable")

	// ErrNoCardDetected is returned when the detector ran but found no card.
	ErrNoCardDetected = errors.New("no ID card was detected in the image")
)

// DetectError wraps a detection failure with the operation and file involved.
type DetectError struct {
	Op      string
	Err     error
	Details string
}

func (e *DetectError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("detect: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("detect: %s failed: %v", e.Op, e.Err)
}

func (e *DetectError) Unwrap() error {
	return e.Err
}

func (e *DetectError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapDetectError wraps err as a DetectError if it isn't already one.
func WrapDetectError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var detectErr *DetectError
	if errors.As(err, &detectErr) {
		return err
	}

	return &DetectError{Op: op, Err: err, Details: details}
}
