// Package geometry holds the pure coordinate math behind cropping: crop
// rectangles in displayed-image space, their mapping into natural pixel space,
// aspect-constrained initial placement and quarter-turn rotation.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCrop is returned for a crop rectangle with zero area or no rectangle at all.
var ErrInvalidCrop = errors.New("invalid crop: rectangle must have a positive width and height")

// ErrUnsupportedRotation is returned for angles that are not a multiple of 90 degrees.
var ErrUnsupportedRotation = errors.New("rotation must be a multiple of 90 degrees")

// Unit is the unit a crop rectangle is expressed in.
type Unit string

const (
	Pixels  Unit = "px"
	Percent Unit = "%"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64
	Height float64
}

// IsEmpty reports whether either dimension is not positive.
func (s Size) IsEmpty() bool { return s.Width <= 0 || s.Height <= 0 }

// Rect is a crop rectangle in displayed-image coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Unit   Unit
}

func (r Rect) String() string {
	return fmt.Sprintf("%.2f%s,%.2f%s %.2fx%.2f%s", r.X, r.Unit, r.Y, r.Unit, r.Width, r.Height, r.Unit)
}

// IsEmpty reports whether the rectangle has zero area.
func (r Rect) IsEmpty() bool { return !(r.Width > 0) || !(r.Height > 0) }

// ToPixels converts a percentage rectangle to absolute displayed pixels.
// Pixel rectangles (and rectangles with no unit) are returned unchanged.
func (r Rect) ToPixels(display Size) Rect {
	if r.Unit != Percent {
		r.Unit = Pixels
		return r
	}
	return Rect{
		X:      r.X / 100 * display.Width,
		Y:      r.Y / 100 * display.Height,
		Width:  r.Width / 100 * display.Width,
		Height: r.Height / 100 * display.Height,
		Unit:   Pixels,
	}
}

// ToPercent converts a pixel rectangle into percentages of the displayed size.
func (r Rect) ToPercent(display Size) Rect {
	if r.Unit == Percent {
		return r
	}
	return Rect{
		X:      r.X / display.Width * 100,
		Y:      r.Y / display.Height * 100,
		Width:  r.Width / display.Width * 100,
		Height: r.Height / display.Height * 100,
		Unit:   Percent,
	}
}

// MinCropWidth is the smallest crop width, in displayed pixels, the drag tool allows.
const MinCropWidth = 150

// MinimumSize returns the smallest crop box allowed for an aspect ratio:
// MinCropWidth wide and MinCropWidth/aspect tall.
func MinimumSize(aspect float64) Size {
	return Size{Width: MinCropWidth, Height: MinCropWidth / aspect}
}

// MeetsMinimum reports whether the rectangle, once in displayed pixels, is at
// least the minimum crop size for the aspect ratio.
func (r Rect) MeetsMinimum(display Size, aspect float64) bool {
	px := r.ToPixels(display)
	minimum := MinimumSize(aspect)
	const epsilon = 1e-9
	return px.Width+epsilon >= minimum.Width && px.Height+epsilon >= minimum.Height
}

// InitialCrop returns the starting crop for a freshly loaded image: 90% of the
// displayed width, height derived from the aspect ratio, shrunk to fit the
// image if needed, then centered. The result is expressed in percent.
func InitialCrop(display Size, aspect float64) Rect {
	if display.IsEmpty() || !(aspect > 0) {
		return Rect{Unit: Percent}
	}

	width := 0.9 * display.Width
	height := width / aspect
	if height > display.Height {
		height = display.Height
		width = height * aspect
	}
	if width > display.Width {
		width = display.Width
		height = width / aspect
	}

	pct := Rect{X: 0, Y: 0, Width: width, Height: height, Unit: Pixels}.ToPercent(display)
	pct.X = (100 - pct.Width) / 2
	pct.Y = (100 - pct.Height) / 2
	return pct
}

// FitAspect returns r with its height recomputed so width/height equals the aspect ratio.
func FitAspect(r Rect, aspect float64) Rect {
	if aspect > 0 {
		r.Height = r.Width / aspect
	}
	return r
}

// Scale is the factor from displayed to natural pixels on each axis.
type Scale struct {
	X float64
	Y float64
}

// ScaleBetween returns natural/displayed for each axis.
func ScaleBetween(natural, displayed Size) Scale {
	return Scale{
		X: natural.Width / displayed.Width,
		Y: natural.Height / displayed.Height,
	}
}

// Region is a rectangle in natural image pixel space.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MapToNatural maps a displayed-pixel rectangle into natural pixel space.
func MapToNatural(r Rect, s Scale) Region {
	return Region{
		X:      r.X * s.X,
		Y:      r.Y * s.Y,
		Width:  r.Width * s.X,
		Height: r.Height * s.Y,
	}
}

// Box is a normalized bounding box with coordinates in [0,1] relative to the
// image, origin top-left.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Denormalize scales the box by the image's natural dimensions and clips it
// to the image bounds.
func (b Box) Denormalize(natural Size) Region {
	x0 := clamp01(b.X) * natural.Width
	y0 := clamp01(b.Y) * natural.Height
	x1 := clamp01(b.X+b.Width) * natural.Width
	y1 := clamp01(b.Y+b.Height) * natural.Height
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// RoundPixels rounds a natural-space dimension to a whole pixel count.
func RoundPixels(v float64) int {
	return int(math.Round(v))
}
