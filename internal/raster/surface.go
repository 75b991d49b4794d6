package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"simreg/internal/geometry"
)

// Placement is the canvas transform sequence used to paint a source image:
// translate to (CenterX, CenterY), rotate by Degrees clockwise, translate by
// (-PivotX, -PivotY), then draw the full source at its natural size with its
// top-left corner at (OffsetX, OffsetY).
type Placement struct {
	Degrees int
	CenterX float64
	CenterY float64
	PivotX  float64
	PivotY  float64
	OffsetX float64
	OffsetY float64
}

// Surface is a drawing target of fixed pixel size.
type Surface interface {
	// DrawRotatedRegion paints src using the placement's transform.
	DrawRotatedRegion(src image.Image, p Placement) error

	// Encode returns the surface as a lossless PNG.
	Encode() ([]byte, error)
}

// SurfaceFactory acquires drawing surfaces.
type SurfaceFactory interface {
	CreateSurface(width, height int) (Surface, error)
}

// ImageSurfaces creates in-memory RGBA surfaces resampled with x/image/draw.
// Quarter-turn placements on whole-pixel offsets copy pixels exactly.
type ImageSurfaces struct {
	// Interpolator defaults to nearest-neighbor.
	Interpolator draw.Interpolator
}

// CreateSurface returns a transparent RGBA surface.
func (f ImageSurfaces) CreateSurface(width, height int) (Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface size %dx%d must be positive", width, height)
	}
	interp := f.Interpolator
	if interp == nil {
		interp = draw.NearestNeighbor
	}
	return &imageSurface{
		dst:    image.NewRGBA(image.Rect(0, 0, width, height)),
		interp: interp,
	}, nil
}

type imageSurface struct {
	dst    *image.RGBA
	interp draw.Interpolator
}

func (s *imageSurface) DrawRotatedRegion(src image.Image, p Placement) error {
	if src == nil {
		return errors.New("nil source image")
	}
	b := src.Bounds()

	var cos, sin float64
	if p.Degrees%90 == 0 {
		cos, sin = geometry.QuarterTurn(p.Degrees)
	} else {
		rad := float64(p.Degrees) * math.Pi / 180
		cos, sin = math.Cos(rad), math.Sin(rad)
	}

	// Source pixel (x, y) lands at R*(x - Min + Offset - Pivot) + Center.
	tx := p.OffsetX - p.PivotX - float64(b.Min.X)
	ty := p.OffsetY - p.PivotY - float64(b.Min.Y)
	m := f64.Aff3{
		cos, -sin, cos*tx - sin*ty + p.CenterX,
		sin, cos, sin*tx + cos*ty + p.CenterY,
	}

	s.interp.Transform(s.dst, m, src, b, draw.Src, nil)
	return nil
}

func (s *imageSurface) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
