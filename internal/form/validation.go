package form

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidationFailed is returned when submission finds missing fields or files.
	ErrValidationFailed = errors.New("required information is missing")

	// ErrReadOnly is returned when a submitted application is edited.
	ErrReadOnly = errors.New("application has been submitted and is read-only")

	// ErrUnknownField is returned for an unrecognized field identifier.
	ErrUnknownField = errors.New("unknown form field")
)

// ValidationError lists every field and slot that failed validation, in display order.
type ValidationError struct {
	Fields []FieldID
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Label()
	}
	return fmt.Sprintf("%v: %s", ErrValidationFailed, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Validate returns the required fields that are blank after trimming and the
// slots that are empty.
func Validate(r Record) []FieldID {
	var failing []FieldID
	for _, id := range RequiredFields {
		switch id {
		case FieldDocumentFront, FieldDocumentBack, FieldPortrait:
			if r.Slots.Get(slotOf(id)) == nil {
				failing = append(failing, id)
			}
		default:
			if strings.TrimSpace(r.Field(id)) == "" {
				failing = append(failing, id)
			}
		}
	}
	return failing
}

// FieldSet is an ordered set of flagged fields.
type FieldSet []FieldID

// Has reports whether id is flagged.
func (s FieldSet) Has(id FieldID) bool {
	for _, f := range s {
		if f == id {
			return true
		}
	}
	return false
}

// Without returns a copy with id removed.
func (s FieldSet) Without(id FieldID) FieldSet {
	if !s.Has(id) {
		return s
	}
	out := make(FieldSet, 0, len(s)-1)
	for _, f := range s {
		if f != id {
			out = append(out, f)
		}
	}
	return out
}
