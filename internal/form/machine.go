package form

import (
	"time"

	"simreg/internal/autofill"
	"simreg/internal/upload"
)

// Stage is the step of the form the user is on while editing.
type Stage int

const (
	StageEntry Stage = iota
	StageUpload
	StageReview
)

func (s Stage) String() string {
	switch s {
	case StageUpload:
		return "upload"
	case StageReview:
		return "review"
	default:
		return "entry"
	}
}

// Status is Editing until a successful submission.
type Status int

const (
	Editing Status = iota
	Submitted
)

func (s Status) String() string {
	if s == Submitted {
		return "submitted"
	}
	return "editing"
}

// State is one registration attempt.
type State struct {
	Record        Record
	Invalid       FieldSet
	Stage         Stage
	Status        Status
	ApplicationID string
	SubmittedAt   time.Time
}

// New returns an empty application at the entry stage.
func New() State {
	return State{Stage: StageEntry, Status: Editing}
}

// Reset discards everything and starts a new application.
func (s State) Reset() State {
	return New()
}

// ReadOnly reports whether the application has been submitted.
func (s State) ReadOnly() bool {
	return s.Status == Submitted
}

// SetField updates a text field and clears its validation flag.
func (s State) SetField(id FieldID, value string) (State, error) {
	if s.ReadOnly() {
		return s, ErrReadOnly
	}
	rec, err := s.Record.WithField(id, value)
	if err != nil {
		return s, err
	}
	s.Record = rec
	s.Invalid = s.Invalid.Without(id)
	return s, nil
}

// ApplyAutofill overwrites the identity and address fields with extracted
// values. District, mobile number and notes are left as they are.
func (s State) ApplyAutofill(r autofill.Result) (State, error) {
	if s.ReadOnly() {
		return s, ErrReadOnly
	}
	values := map[FieldID]string{
		FieldName:        r.Name,
		FieldFatherName:  r.FatherName,
		FieldMotherName:  r.MotherName,
		FieldDateOfBirth: r.DateOfBirth,
		FieldNIDNumber:   r.NIDNumber,
		FieldVillage:     r.Village,
		FieldPostOffice:  r.PostOffice,
		FieldUpazila:     r.Upazila,
	}
	for _, id := range TextFields {
		v, ok := values[id]
		if !ok {
			continue
		}
		var err error
		if s, err = s.SetField(id, v); err != nil {
			return s, err
		}
	}
	return s, nil
}

// CommitSlot stores an image in slot and clears the slot's flag. Filling a
// slot moves the form to at least the upload stage.
func (s State) CommitSlot(slot upload.Slot, f upload.File) (State, error) {
	if s.ReadOnly() {
		return s, ErrReadOnly
	}
	if _, err := upload.ParseSlot(string(slot)); err != nil {
		return s, err
	}
	s.Record.Slots = s.Record.Slots.With(slot, &f)
	s.Invalid = s.Invalid.Without(FieldID(slot))
	if s.Stage < StageUpload {
		s.Stage = StageUpload
	}
	return s, nil
}

// ClearSlot empties slot.
func (s State) ClearSlot(slot upload.Slot) (State, error) {
	if s.ReadOnly() {
		return s, ErrReadOnly
	}
	s.Record.Slots = s.Record.Slots.With(slot, nil)
	return s, nil
}

// Advance moves to the next stage; at review it is a no-op.
func (s State) Advance() State {
	if !s.ReadOnly() && s.Stage < StageReview {
		s.Stage++
	}
	return s
}

// Back moves to the previous stage; at entry it is a no-op.
func (s State) Back() State {
	if !s.ReadOnly() && s.Stage > StageEntry {
		s.Stage--
	}
	return s
}

// Submit validates every required field and slot. On failure the returned
// state flags exactly the failing fields and the error is a *ValidationError.
// On success the application gets an identifier and becomes read-only.
func (s State) Submit(ids IDGenerator, now time.Time) (State, error) {
	if s.ReadOnly() {
		return s, ErrReadOnly
	}

	failing := Validate(s.Record)
	s.Invalid = FieldSet(failing)
	if len(failing) > 0 {
		return s, &ValidationError{Fields: failing}
	}

	s.ApplicationID = ids.NewApplicationID()
	s.SubmittedAt = now
	s.Stage = StageReview
	s.Status = Submitted
	return s, nil
}

func slotOf(id FieldID) upload.Slot {
	return upload.Slot(id)
}
