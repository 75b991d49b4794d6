// Package cropper implements the editing session for one image: initial crop
// placement by aspect ratio, live rectangle updates, quarter-turn rotation and
// the commit/cancel transitions.
//
// Sessions are values. Every transition returns the next session and leaves
// the receiver untouched, so the owner decides which state is current.
package cropper

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"simreg/internal/geometry"
	"simreg/internal/raster"
	"simreg/internal/upload"
)

// Status is the lifecycle state of a session.
type Status int

const (
	Uninitialized Status = iota
	Editing
	Committed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Editing:
		return "editing"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return "uninitialized"
	}
}

// Shape is the crop overlay shape shown to the user. The rasterized output is
// always the bounding rectangle.
type Shape string

const (
	Rectangular Shape = "rectangular"
	Elliptical  Shape = "elliptical"
)

// Standard crop aspect ratios.
const (
	PortraitAspect = 3.0 / 4.0
	IDCardAspect   = 85.6 / 54.0
)

var (
	// ErrNotEditing is returned when an editing operation is applied to a
	// session that is not in the Editing state.
	ErrNotEditing = errors.New("crop session is not editing")

	// ErrCropTooSmall is returned when an updated rectangle is below the minimum crop size.
	ErrCropTooSmall = errors.New("crop rectangle is smaller than the minimum size")
)

// Rasterizer produces the committed image for a session.
type Rasterizer interface {
	Rasterize(src raster.Source, crop geometry.Rect, rotation geometry.Rotation) ([]byte, error)
}

// Session is the transient editing state for one image and target slot.
type Session struct {
	ID       string
	Slot     upload.Slot
	FileName string
	Title    string
	Source   raster.Source
	Aspect   float64
	Shape    Shape
	Rect     geometry.Rect
	Rotation geometry.Rotation
	Status   Status
}

// New creates an uninitialized session for slot with the slot's standard
// aspect ratio and shape.
func New(slot upload.Slot) Session {
	s := Session{
		ID:     uuid.NewString(),
		Slot:   slot,
		Aspect: IDCardAspect,
		Shape:  Rectangular,
		Title:  "Crop ID card",
		Status: Uninitialized,
	}
	if slot == upload.Portrait {
		s.Aspect = PortraitAspect
		s.Shape = Elliptical
		s.Title = "Crop photo"
	}
	return s
}

// Load enters Editing for a newly loaded image: the crop is reset to the
// centered initial rectangle and rotation to 0.
func (s Session) Load(fileName string, src raster.Source) Session {
	s.FileName = fileName
	s.Source = src
	s.Rect = geometry.InitialCrop(src.Displayed, s.Aspect)
	s.Rotation = 0
	s.Status = Editing
	return s
}

// UpdateCropRect replaces the live crop rectangle. Aspect ratio is the drag
// tool's responsibility; only the minimum size is checked here.
func (s Session) UpdateCropRect(r geometry.Rect) (Session, error) {
	if s.Status != Editing {
		return s, ErrNotEditing
	}
	if r.IsEmpty() {
		return s, geometry.ErrInvalidCrop
	}
	if !r.MeetsMinimum(s.Source.Displayed, s.Aspect) {
		min := geometry.MinimumSize(s.Aspect)
		return s, fmt.Errorf("%w: need at least %.0fx%.0f displayed pixels", ErrCropTooSmall, min.Width, min.Height)
	}
	s.Rect = r
	return s, nil
}

// Rotate adds delta degrees to the accumulated rotation.
func (s Session) Rotate(delta int) (Session, error) {
	if s.Status != Editing {
		return s, ErrNotEditing
	}
	if err := geometry.Rotation(delta).Validate(); err != nil {
		return s, err
	}
	s.Rotation = s.Rotation.Add(delta)
	return s, nil
}

// Commit rasterizes the current crop. On success the returned session is
// Committed and the file holds the PNG. On failure the returned session is
// the unchanged Editing session, so the user may retry or cancel.
func (s Session) Commit(r Rasterizer) (Session, upload.File, error) {
	if s.Status != Editing {
		return s, upload.File{}, ErrNotEditing
	}
	if s.Rect.IsEmpty() {
		return s, upload.File{}, geometry.ErrInvalidCrop
	}

	data, err := r.Rasterize(s.Source, s.Rect, s.Rotation)
	if err != nil {
		return s, upload.File{}, err
	}

	committed := s
	committed.Status = Committed
	return committed, raster.PNGFile(croppedName(s.FileName), data), nil
}

// Cancel ends the session without producing an image.
func (s Session) Cancel() Session {
	if s.Status == Editing || s.Status == Uninitialized {
		s.Status = Cancelled
	}
	return s
}

// IsOpen reports whether the session still awaits commit or cancel.
func (s Session) IsOpen() bool {
	return s.Status == Uninitialized || s.Status == Editing
}

func croppedName(name string) string {
	if name == "" {
		return "cropped_image.png"
	}
	return "cropped_" + trimExt(name) + ".png"
}

func trimExt(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/'; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
