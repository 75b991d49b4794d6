package upload

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrFileTooLarge is returned when a file exceeds the slot's size limit.
	ErrFileTooLarge = errors.New("file exceeds the maximum size for this slot")

	// ErrUnsupportedType is returned when a file's MIME type is not accepted by the slot.
	ErrUnsupportedType = errors.New("file type is not accepted for this slot")

	// ErrEmptyFile is returned for zero-length uploads.
	ErrEmptyFile = errors.New("file is empty")
)

const megabyte = 1024 * 1024

// Policy describes what a slot accepts.
type Policy struct {
	MaxBytes int64
	Accepted []string
}

// Policies maps each slot to its policy.
type Policies map[Slot]Policy

// DefaultPolicies returns 5MB limits for documents (JPEG, PNG or PDF) and a
// stricter 2MB limit for the portrait (JPEG or PNG).
func DefaultPolicies() Policies {
	documents := Policy{MaxBytes: 5 * megabyte, Accepted: []string{MIMEJPEG, MIMEPNG, MIMEPDF}}
	return Policies{
		DocumentFront: documents,
		DocumentBack:  documents,
		Portrait:      {MaxBytes: 2 * megabyte, Accepted: []string{MIMEJPEG, MIMEPNG}},
	}
}

// WithMaxBytes returns a copy of the policies with one slot's limit replaced.
func (p Policies) WithMaxBytes(slot Slot, maxBytes int64) Policies {
	out := make(Policies, len(p))
	for k, v := range p {
		out[k] = v
	}
	policy := out[slot]
	policy.MaxBytes = maxBytes
	out[slot] = policy
	return out
}

// Check validates a file against the slot's policy.
func (p Policies) Check(slot Slot, f File) error {
	policy, ok := p[slot]
	if !ok {
		return fmt.Errorf("no upload policy for slot %q", slot)
	}
	if f.Size() == 0 {
		return ErrEmptyFile
	}
	if policy.MaxBytes > 0 && f.Size() > policy.MaxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d bytes (%dMB)", ErrFileTooLarge, f.Size(), policy.MaxBytes, policy.MaxBytes/megabyte)
	}
	if len(policy.Accepted) > 0 && !slices.Contains(policy.Accepted, f.MIMEType) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, f.MIMEType)
	}
	return nil
}
