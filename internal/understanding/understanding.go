// Package understanding defines the image-understanding capability consumed by
// the auto-detect and auto-fill flows.
//
// Two operations are offered by every provider:
//   - DetectCardRegion locates a rectangular ID card in one image and reports
//     a normalized bounding box.
//   - ExtractFields reads the printed fields from the front and back of a card.
//
// Providers live in sub-packages (gemini, vision, documentai, openai) and are
// selected by SIMREG_DETECTOR and SIMREG_EXTRACTOR. Every provider requires an
// externally provisioned credential; a missing credential is reported as a
// *ConfigurationError before any request is attempted.
package understanding

import (
	"context"

	"simreg/internal/geometry"
	"simreg/internal/upload"
)

// CardRegion is the detector's answer for one image.
type CardRegion struct {
	Present bool          `json:"is_card_present"`
	Box     *geometry.Box `json:"bounding_box,omitempty"`
}

// IDFields are the fields read from a national ID card. DateOfBirth is
// formatted YYYY-MM-DD; Address is the full address as a single string.
type IDFields struct {
	Name        string `json:"name"`
	FatherName  string `json:"fatherName"`
	MotherName  string `json:"motherName"`
	DateOfBirth string `json:"dateOfBirth"`
	NIDNumber   string `json:"nidNumber"`
	Address     string `json:"address"`
}

// IsEmpty reports whether no field was extracted.
func (f *IDFields) IsEmpty() bool {
	return f == nil || *f == IDFields{}
}

// CardDetector locates an ID card within an image.
type CardDetector interface {
	DetectCardRegion(ctx context.Context, image upload.File) (CardRegion, error)
}

// FieldExtractor reads the printed fields from both sides of an ID card.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, front, back upload.File) (*IDFields, error)
}
