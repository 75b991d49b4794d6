// Package form holds the application record and the form state machine:
// field edits, bulk auto-fill, slot commits, stage navigation, submission
// with aggregate validation, and reset.
//
// State is a value. Every transition returns the next state and leaves the
// receiver untouched.
package form

import (
	"fmt"

	"simreg/internal/upload"
)

// FieldID identifies a form field or an upload slot in validation results.
type FieldID string

const (
	FieldName        FieldID = "customerName"
	FieldFatherName  FieldID = "fatherName"
	FieldMotherName  FieldID = "motherName"
	FieldDateOfBirth FieldID = "dateOfBirth"
	FieldNIDNumber   FieldID = "nidNumber"
	FieldVillage     FieldID = "village"
	FieldPostOffice  FieldID = "postOffice"
	FieldUpazila     FieldID = "upazila"
	FieldDistrict    FieldID = "district"
	FieldMobile      FieldID = "mobileNumber"
	FieldNotes       FieldID = "additionalInfo"

	FieldDocumentFront FieldID = FieldID(upload.DocumentFront)
	FieldDocumentBack  FieldID = FieldID(upload.DocumentBack)
	FieldPortrait      FieldID = FieldID(upload.Portrait)
)

// TextFields lists every text field in display order.
var TextFields = []FieldID{
	FieldName, FieldFatherName, FieldMotherName, FieldDateOfBirth, FieldNIDNumber,
	FieldVillage, FieldPostOffice, FieldUpazila, FieldDistrict, FieldMobile, FieldNotes,
}

// RequiredFields lists the fields and slots that must be filled to submit, in display order.
var RequiredFields = []FieldID{
	FieldName, FieldFatherName, FieldMotherName, FieldDateOfBirth, FieldNIDNumber,
	FieldVillage, FieldPostOffice, FieldUpazila, FieldDistrict, FieldMobile,
	FieldDocumentFront, FieldDocumentBack, FieldPortrait,
}

var labels = map[FieldID]string{
	FieldName:          "Name",
	FieldFatherName:    "Father's name",
	FieldMotherName:    "Mother's name",
	FieldDateOfBirth:   "Date of birth",
	FieldNIDNumber:     "NID number",
	FieldVillage:       "Village",
	FieldPostOffice:    "Post office",
	FieldUpazila:       "Upazila",
	FieldDistrict:      "District",
	FieldMobile:        "Mobile number",
	FieldNotes:         "Additional information",
	FieldDocumentFront: "NID front",
	FieldDocumentBack:  "NID back",
	FieldPortrait:      "Customer photo",
}

// Label returns a human-readable name for the field.
func (f FieldID) Label() string {
	if l, ok := labels[f]; ok {
		return l
	}
	return string(f)
}

// ParseFieldID resolves a text field identifier.
func ParseFieldID(s string) (FieldID, error) {
	for _, f := range TextFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Slots holds the committed image for each upload slot.
type Slots struct {
	DocumentFront *upload.File `json:"-"`
	DocumentBack  *upload.File `json:"-"`
	Portrait      *upload.File `json:"-"`
}

// Get returns the image committed to slot, or nil.
func (s Slots) Get(slot upload.Slot) *upload.File {
	switch slot {
	case upload.DocumentFront:
		return s.DocumentFront
	case upload.DocumentBack:
		return s.DocumentBack
	case upload.Portrait:
		return s.Portrait
	}
	return nil
}

// With returns a copy with slot set to f. A nil f clears the slot.
func (s Slots) With(slot upload.Slot, f *upload.File) Slots {
	switch slot {
	case upload.DocumentFront:
		s.DocumentFront = f
	case upload.DocumentBack:
		s.DocumentBack = f
	case upload.Portrait:
		s.Portrait = f
	}
	return s
}

// Filled reports whether every slot holds an image.
func (s Slots) Filled() bool {
	return s.DocumentFront != nil && s.DocumentBack != nil && s.Portrait != nil
}

// Any reports whether at least one slot holds an image.
func (s Slots) Any() bool {
	return s.DocumentFront != nil || s.DocumentBack != nil || s.Portrait != nil
}

// Record is the application being filled in.
type Record struct {
	Name        string `json:"customerName"`
	FatherName  string `json:"fatherName"`
	MotherName  string `json:"motherName"`
	DateOfBirth string `json:"dateOfBirth"`
	NIDNumber   string `json:"nidNumber"`
	Village     string `json:"village"`
	PostOffice  string `json:"postOffice"`
	Upazila     string `json:"upazila"`
	District    string `json:"district"`
	Mobile      string `json:"mobileNumber"`
	Notes       string `json:"additionalInfo"`
	Slots       Slots  `json:"-"`
}

// Field returns the value of a text field.
func (r Record) Field(id FieldID) string {
	if p := r.field(id); p != nil {
		return *p
	}
	return ""
}

// WithField returns a copy with the text field set.
func (r Record) WithField(id FieldID, value string) (Record, error) {
	p := r.field(id)
	if p == nil {
		return r, fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	*p = value
	return r, nil
}

func (r *Record) field(id FieldID) *string {
	switch id {
	case FieldName:
		return &r.Name
	case FieldFatherName:
		return &r.FatherName
	case FieldMotherName:
		return &r.MotherName
	case FieldDateOfBirth:
		return &r.DateOfBirth
	case FieldNIDNumber:
		return &r.NIDNumber
	case FieldVillage:
		return &r.Village
	case FieldPostOffice:
		return &r.PostOffice
	case FieldUpazila:
		return &r.Upazila
	case FieldDistrict:
		return &r.District
	case FieldMobile:
		return &r.Mobile
	case FieldNotes:
		return &r.Notes
	}
	return nil
}
