// Package registration orchestrates one SIM registration: it routes selected
// files to their upload slots through auto-detection or a manual crop
// session, runs auto-fill, and submits the form.
//
// The Orchestrator is driven by one event loop and is not safe for
// concurrent use. RunDetection alone touches no state and may run elsewhere;
// its result must be handed back through ApplyDetection, which discards it if
// the slot has since received another file.
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"simreg/internal/autofill"
	"simreg/internal/cropper"
	"simreg/internal/detect"
	"simreg/internal/form"
	"simreg/internal/geometry"
	"simreg/internal/logger"
	"simreg/internal/raster"
	"simreg/internal/understanding"
	"simreg/internal/upload"
)

// ErrNoActiveSession is returned by session operations when no crop session is open.
var ErrNoActiveSession = errors.New("no crop session is open")

// Detector detects and crops a card, reporting detect.ErrNoCardDetected and
// detect.ErrDetectionUnavailable for the soft outcomes.
type Detector interface {
	Detect(ctx context.Context, image upload.File) (*upload.File, error)
}

// Extractor reads form values from both sides of the card.
type Extractor interface {
	Extract(ctx context.Context, front, back *upload.File) (*autofill.Result, error)
}

// Options configures an Orchestrator. Detector and Extractor may be nil, in
// which case every document goes to a manual crop and auto-fill is unavailable.
type Options struct {
	Detector   Detector
	Extractor  Extractor
	Rasterizer cropper.Rasterizer
	Policies   upload.Policies
	Notifier   Notifier
	IDs        form.IDGenerator
	Now        func() time.Time

	// DisplayBox bounds the size images are displayed at in a crop session.
	// Zero means natural size.
	DisplayBox geometry.Size

	// DetectorErr records why Detector is nil. A configuration error turns
	// the fallback notice into the configuration notice.
	DetectorErr error
}

// Ticket identifies one detection request for a slot.
type Ticket struct {
	Slot       upload.Slot
	Generation uint64
	File       upload.File
}

// DetectionResult is the outcome of RunDetection.
type DetectionResult struct {
	Ticket  Ticket
	Cropped *upload.File
	Err     error
}

// Orchestrator owns the form state and the crop sessions of one registration.
type Orchestrator struct {
	opts       Options
	state      form.State
	active     *cropper.Session
	queue      []cropper.Session
	generation map[upload.Slot]uint64
	log        zerolog.Logger
}

// New creates an orchestrator with an empty application.
func New(opts Options) *Orchestrator {
	if opts.Rasterizer == nil {
		opts.Rasterizer = raster.NewImageEngine()
	}
	if opts.Policies == nil {
		opts.Policies = upload.DefaultPolicies()
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(Notice) {})
	}
	if opts.IDs == nil {
		opts.IDs = form.RandomIDs
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		opts:       opts,
		state:      form.New(),
		generation: make(map[upload.Slot]uint64),
		log:        logger.WithComponent("registration"),
	}
}

// State returns the current form state.
func (o *Orchestrator) State() form.State {
	return o.state
}

// ActiveSession returns the crop session being edited, if any.
func (o *Orchestrator) ActiveSession() (cropper.Session, bool) {
	if o.active == nil {
		return cropper.Session{}, false
	}
	return *o.active, true
}

// PendingSessions returns the number of crop sessions waiting for the active one to close.
func (o *Orchestrator) PendingSessions() int {
	return len(o.queue)
}

// HandleFileSelected routes a file to slot. Portraits always open a manual
// crop session. PDFs are committed as they are. Other documents are
// auto-detected; when detection yields nothing the user is notified and a
// manual session opens.
func (o *Orchestrator) HandleFileSelected(ctx context.Context, file upload.File, slot upload.Slot) error {
	ticket, err := o.SelectFile(file, slot)
	if err != nil || ticket == nil {
		return err
	}
	o.ApplyDetection(o.RunDetection(ctx, *ticket))
	return nil
}

// SelectFile performs the synchronous part of a file selection: policy check,
// clearing the slot and superseding any earlier request for it. It returns a
// ticket when the file needs auto-detection and nil when it was fully handled.
func (o *Orchestrator) SelectFile(file upload.File, slot upload.Slot) (*Ticket, error) {
	if o.state.ReadOnly() {
		return nil, form.ErrReadOnly
	}
	if file.MIMEType == "" {
		file.MIMEType = upload.MIMEFromName(file.Name)
	}
	if err := o.opts.Policies.Check(slot, file); err != nil {
		o.notify(NoticeError, CodeFileRejected, err.Error(), err)
		return nil, err
	}

	log := logger.WithSlot("registration", string(slot))

	// The old image goes before anything new can land in the slot.
	state, err := o.state.ClearSlot(slot)
	if err != nil {
		return nil, err
	}
	o.state = state
	o.generation[slot]++
	o.dropSessions(slot)

	log.Debug().
		Str("file", file.Name).
		Uint64("generation", o.generation[slot]).
		Msg("File selected")

	switch {
	case slot == upload.Portrait:
		o.openManual(file, slot)
		return nil, nil
	case file.IsPDF():
		o.commit(slot, file)
		return nil, nil
	case o.opts.Detector == nil && understanding.IsConfigurationError(o.opts.DetectorErr):
		o.notify(NoticeError, CodeConfiguration, msgConfiguration, o.opts.DetectorErr)
		o.openManual(file, slot)
		return nil, nil
	case o.opts.Detector == nil:
		o.notify(NoticeWarning, CodeDetectionUnavailable, msgDetectionDown, detect.ErrDetectionUnavailable)
		o.openManual(file, slot)
		return nil, nil
	}

	return &Ticket{Slot: slot, Generation: o.generation[slot], File: file}, nil
}

// RunDetection calls the detector for a ticket. It does not touch orchestrator state.
func (o *Orchestrator) RunDetection(ctx context.Context, t Ticket) DetectionResult {
	cropped, err := o.opts.Detector.Detect(ctx, t.File)
	return DetectionResult{Ticket: t, Cropped: cropped, Err: err}
}

// ApplyDetection applies a detection result unless a newer file has been
// selected for its slot since the ticket was issued. It reports whether the
// result was applied.
func (o *Orchestrator) ApplyDetection(r DetectionResult) bool {
	t := r.Ticket
	if o.generation[t.Slot] != t.Generation || o.state.ReadOnly() {
		o.log.Warn().
			Str("slot", string(t.Slot)).
			Uint64("generation", t.Generation).
			Uint64("current", o.generation[t.Slot]).
			Msg("Discarding stale detection result")
		return false
	}

	switch {
	case r.Err == nil && r.Cropped != nil:
		o.commit(t.Slot, *r.Cropped)
		return true
	case r.Err == nil, errors.Is(r.Err, detect.ErrNoCardDetected):
		o.notify(NoticeWarning, CodeNoCardDetected, msgNoCardDetected, r.Err)
	case errors.Is(r.Err, detect.ErrDetectionUnavailable):
		o.notify(NoticeWarning, CodeDetectionUnavailable, msgDetectionDown, r.Err)
	case understanding.IsConfigurationError(r.Err):
		o.notify(NoticeError, CodeConfiguration, msgConfiguration, r.Err)
	default:
		o.notify(NoticeError, CodeDetectionError, msgDetectionError, r.Err)
	}
	o.openManual(t.File, t.Slot)
	return true
}

// UpdateCrop replaces the active session's crop rectangle.
func (o *Orchestrator) UpdateCrop(r geometry.Rect) error {
	if o.active == nil {
		return ErrNoActiveSession
	}
	next, err := o.active.UpdateCropRect(r)
	if err != nil {
		return err
	}
	o.active = &next
	return nil
}

// RotateSession rotates the active session by delta degrees.
func (o *Orchestrator) RotateSession(delta int) error {
	if o.active == nil {
		return ErrNoActiveSession
	}
	next, err := o.active.Rotate(delta)
	if err != nil {
		return err
	}
	o.active = &next
	return nil
}

// CommitSession rasterizes the active session into its slot and opens the
// next queued session. On failure the session stays open unchanged.
func (o *Orchestrator) CommitSession() error {
	if o.active == nil {
		return ErrNoActiveSession
	}

	committed, file, err := o.active.Commit(o.opts.Rasterizer)
	if err != nil {
		if errors.Is(err, geometry.ErrInvalidCrop) {
			o.notify(NoticeError, CodeInvalidCrop, msgInvalidCrop, err)
		} else {
			o.notify(NoticeError, CodeRasterError, msgRasterError, err)
		}
		return err
	}

	o.log.Debug().Str("session", committed.ID).Str("status", committed.Status.String()).Msg("Crop session committed")
	o.commit(committed.Slot, file)
	o.nextSession()
	return nil
}

// CancelSession closes the active session without touching its slot.
func (o *Orchestrator) CancelSession() error {
	if o.active == nil {
		return ErrNoActiveSession
	}
	cancelled := o.active.Cancel()
	o.log.Debug().Str("session", cancelled.ID).Str("slot", string(cancelled.Slot)).Msg("Crop session cancelled")
	o.nextSession()
	return nil
}

// SetField updates one text field.
func (o *Orchestrator) SetField(id form.FieldID, value string) error {
	state, err := o.state.SetField(id, value)
	if err != nil {
		return err
	}
	o.state = state
	return nil
}

// Advance moves the form to its next stage.
func (o *Orchestrator) Advance() { o.state = o.state.Advance() }

// Back moves the form to its previous stage.
func (o *Orchestrator) Back() { o.state = o.state.Back() }

// AutoFill extracts the card fields from both document slots and writes
// them into the form. On any failure the form is left untouched.
func (o *Orchestrator) AutoFill(ctx context.Context) error {
	if o.state.ReadOnly() {
		return form.ErrReadOnly
	}
	front := o.state.Record.Slots.DocumentFront
	back := o.state.Record.Slots.DocumentBack
	if front == nil || back == nil {
		o.notify(NoticeWarning, CodeAutofillNeedsCard, msgAutofillNeedsCard, autofill.ErrDocumentsRequired)
		return autofill.ErrDocumentsRequired
	}
	if o.opts.Extractor == nil {
		err := understanding.MissingSetting("autofill", "extractor")
		o.notify(NoticeError, CodeConfiguration, msgConfiguration, err)
		return err
	}

	result, err := o.opts.Extractor.Extract(ctx, front, back)
	if err != nil {
		if understanding.IsConfigurationError(err) {
			o.notify(NoticeError, CodeConfiguration, msgConfiguration, err)
		} else {
			o.notify(NoticeError, CodeExtractionFailed, msgExtractionFailed, err)
		}
		return err
	}

	state, err := o.state.ApplyAutofill(*result)
	if err != nil {
		return err
	}
	o.state = state
	o.notify(NoticeSuccess, CodeAutofillComplete, msgAutofillComplete, nil)
	return nil
}

// Submit validates and submits the application.
func (o *Orchestrator) Submit() error {
	state, err := o.state.Submit(o.opts.IDs, o.opts.Now())
	o.state = state
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			o.notify(NoticeError, CodeValidationFailed, msgValidationFailed, err)
		}
		return err
	}

	o.log.Info().
		Str("application_id", state.ApplicationID).
		Msg("Application submitted")
	o.notify(NoticeSuccess, CodeSubmitted, fmt.Sprintf("Application %s submitted.", state.ApplicationID), nil)
	return nil
}

// Reset discards the application, all crop sessions and any in-flight detections.
func (o *Orchestrator) Reset() {
	o.state = o.state.Reset()
	o.active = nil
	o.queue = nil
	for _, slot := range upload.Slots {
		o.generation[slot]++
	}
}

func (o *Orchestrator) commit(slot upload.Slot, file upload.File) {
	state, err := o.state.CommitSlot(slot, file)
	if err != nil {
		o.log.Error().Err(err).Str("slot", string(slot)).Msg("Could not commit image")
		return
	}
	o.state = state
	o.log.Info().
		Str("slot", string(slot)).
		Str("file", file.Name).
		Int64("bytes", file.Size()).
		Msg("Image committed")
}

func (o *Orchestrator) openManual(file upload.File, slot upload.Slot) {
	src, err := raster.Decode(file)
	if err != nil {
		o.notify(NoticeError, CodeFileRejected, fmt.Sprintf("%s could not be opened as an image.", file.Name), err)
		return
	}
	if !o.opts.DisplayBox.IsEmpty() {
		src = src.FitDisplay(o.opts.DisplayBox.Width, o.opts.DisplayBox.Height)
	}

	session := cropper.New(slot).Load(file.Name, src)
	if o.active != nil {
		o.queue = append(o.queue, session)
		o.log.Debug().Str("slot", string(slot)).Int("queued", len(o.queue)).Msg("Crop session queued")
		return
	}
	o.active = &session
	o.log.Debug().Str("slot", string(slot)).Str("session", session.ID).Msg("Crop session opened")
}

func (o *Orchestrator) nextSession() {
	o.active = nil
	if len(o.queue) == 0 {
		return
	}
	next := o.queue[0]
	o.queue = o.queue[1:]
	o.active = &next
}

// dropSessions removes any open session for slot, active or queued.
func (o *Orchestrator) dropSessions(slot upload.Slot) {
	kept := o.queue[:0]
	for _, s := range o.queue {
		if s.Slot != slot {
			kept = append(kept, s)
		}
	}
	o.queue = kept
	if o.active != nil && o.active.Slot == slot {
		o.nextSession()
	}
}

func (o *Orchestrator) notify(kind NoticeKind, code NoticeCode, msg string, err error) {
	ev := o.log.Info()
	if kind == NoticeError || kind == NoticeWarning {
		ev = o.log.Warn().Err(err)
	}
	ev.Str("code", string(code)).Msg("Notice")
	o.opts.Notifier.Notify(Notice{Kind: kind, Code: code, Message: msg, Err: err})
}
