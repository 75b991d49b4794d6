// Package raster turns a crop rectangle drawn on a displayed image into a
// pixel-exact PNG cut from the natural-resolution source.
//
// The engine is platform independent: it computes the natural-space region,
// the rotated output size and the paint transform, then delegates drawing and
// encoding to a Surface. ImageSurfaces is the in-memory implementation.
package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog"

	"simreg/internal/geometry"
	"simreg/internal/logger"
	"simreg/internal/upload"
)

// Source is a decoded image together with the size it is displayed at.
// Natural and displayed sizes differ when the image is scaled for display.
type Source struct {
	Image     image.Image
	Natural   geometry.Size
	Displayed geometry.Size
}

// Decode decodes a JPEG or PNG upload. The displayed size defaults to the natural size.
func Decode(f upload.File) (Source, error) {
	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return Source{}, WrapRasterError("Decode", fmt.Errorf("%w: %v", ErrDecode, err), f.Name)
	}
	b := img.Bounds()
	natural := geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
	return Source{Image: img, Natural: natural, Displayed: natural}, nil
}

// WithDisplay returns the source displayed at the given size. An empty size
// keeps the current one.
func (s Source) WithDisplay(display geometry.Size) Source {
	if !display.IsEmpty() {
		s.Displayed = display
	}
	return s
}

// FitDisplay returns the source displayed within maxWidth x maxHeight,
// preserving aspect and never upscaling.
func (s Source) FitDisplay(maxWidth, maxHeight float64) Source {
	if s.Natural.IsEmpty() {
		return s
	}
	ratio := 1.0
	if maxWidth > 0 && s.Natural.Width*ratio > maxWidth {
		ratio = maxWidth / s.Natural.Width
	}
	if maxHeight > 0 && s.Natural.Height*ratio > maxHeight {
		ratio = maxHeight / s.Natural.Height
	}
	s.Displayed = geometry.Size{Width: s.Natural.Width * ratio, Height: s.Natural.Height * ratio}
	return s
}

// Engine rasterizes crops onto surfaces.
type Engine struct {
	surfaces SurfaceFactory
	log      zerolog.Logger
}

// NewEngine creates an engine backed by the given surface factory.
func NewEngine(surfaces SurfaceFactory) *Engine {
	return &Engine{
		surfaces: surfaces,
		log:      logger.WithComponent("raster"),
	}
}

// NewImageEngine creates an engine backed by in-memory RGBA surfaces.
func NewImageEngine() *Engine {
	return NewEngine(ImageSurfaces{})
}

// Rasterize cuts crop (in displayed coordinates) out of the natural image,
// applies rotation about the crop center and returns the PNG bytes.
// A zero-area crop fails with geometry.ErrInvalidCrop before any surface is acquired.
func (e *Engine) Rasterize(src Source, crop geometry.Rect, rotation geometry.Rotation) ([]byte, error) {
	const op = "Rasterize"

	if src.Image == nil || src.Displayed.IsEmpty() {
		return nil, WrapRasterError(op, ErrDecode, "source image is not loaded")
	}
	px := crop.ToPixels(src.Displayed)
	if px.IsEmpty() {
		return nil, geometry.ErrInvalidCrop
	}
	if err := rotation.Validate(); err != nil {
		return nil, err
	}

	region := geometry.MapToNatural(px, geometry.ScaleBetween(src.Natural, src.Displayed))
	outW, outH := geometry.OutputSize(region, rotation)
	if outW <= 0 || outH <= 0 {
		return nil, geometry.ErrInvalidCrop
	}

	placement := Placement{
		Degrees: rotation.Normalized(),
		CenterX: float64(outW) / 2,
		CenterY: float64(outH) / 2,
		PivotX:  region.Width / 2,
		PivotY:  region.Height / 2,
		OffsetX: -region.X,
		OffsetY: -region.Y,
	}

	e.log.Debug().
		Str("crop", px.String()).
		Int("rotation", placement.Degrees).
		Int("out_width", outW).
		Int("out_height", outH).
		Msg("Rasterizing crop")

	return e.paint(op, src.Image, outW, outH, placement)
}

// CropRegion copies a natural-space region of the source without rotation.
func (e *Engine) CropRegion(src Source, region geometry.Region) ([]byte, error) {
	const op = "CropRegion"

	if src.Image == nil {
		return nil, WrapRasterError(op, ErrDecode, "source image is not loaded")
	}
	outW, outH := geometry.OutputSize(region, 0)
	if outW <= 0 || outH <= 0 {
		return nil, geometry.ErrInvalidCrop
	}

	placement := Placement{
		CenterX: float64(outW) / 2,
		CenterY: float64(outH) / 2,
		PivotX:  float64(outW) / 2,
		PivotY:  float64(outH) / 2,
		OffsetX: -region.X,
		OffsetY: -region.Y,
	}
	return e.paint(op, src.Image, outW, outH, placement)
}

func (e *Engine) paint(op string, img image.Image, width, height int, p Placement) ([]byte, error) {
	surface, err := e.surfaces.CreateSurface(width, height)
	if err != nil {
		return nil, WrapRasterError(op, fmt.Errorf("%w: %v", ErrRaster, err), "could not acquire drawing surface")
	}
	if err := surface.DrawRotatedRegion(img, p); err != nil {
		return nil, WrapRasterError(op, fmt.Errorf("%w: %v", ErrRaster, err), "drawing failed")
	}
	data, err := surface.Encode()
	if err != nil {
		return nil, WrapRasterError(op, fmt.Errorf("%w: %v", ErrRaster, err), "encoding failed")
	}
	if len(data) == 0 {
		return nil, WrapRasterError(op, ErrRaster, "encoder produced no data")
	}
	return data, nil
}

// PNGFile wraps encoded output as an upload file.
func PNGFile(name string, data []byte) upload.File {
	return upload.File{Name: name, MIMEType: upload.MIMEPNG, Data: data}
}
