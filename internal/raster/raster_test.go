package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simreg/internal/geometry"
	"simreg/internal/upload"
)

// recordingSurfaces records every surface request and draw call.
type recordingSurfaces struct {
	created    [][2]int
	placements []Placement
	createErr  error
	encodeOut  []byte
}

func (r *recordingSurfaces) CreateSurface(width, height int) (Surface, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created = append(r.created, [2]int{width, height})
	return &recordingSurface{parent: r}, nil
}

type recordingSurface struct {
	parent *recordingSurfaces
}

func (s *recordingSurface) DrawRotatedRegion(_ image.Image, p Placement) error {
	s.parent.placements = append(s.parent.placements, p)
	return nil
}

func (s *recordingSurface) Encode() ([]byte, error) {
	return s.parent.encodeOut, nil
}

// patternImage returns an opaque image whose every pixel has a unique color.
func patternImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8((x + y) * 3), A: 255})
		}
	}
	return img
}

func sourceOf(img image.Image, display geometry.Size) Source {
	b := img.Bounds()
	return Source{
		Image:     img,
		Natural:   geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())},
		Displayed: display,
	}
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestEngine_Rasterize_Placement(t *testing.T) {
	surfaces := &recordingSurfaces{encodeOut: []byte("png")}
	engine := NewEngine(surfaces)
	src := sourceOf(patternImage(400, 300), geometry.Size{Width: 200, Height: 150})

	_, err := engine.Rasterize(src, geometry.Rect{X: 10, Y: 20, Width: 60, Height: 40, Unit: geometry.Pixels}, 90)
	require.NoError(t, err)

	require.Len(t, surfaces.created, 1)
	assert.Equal(t, [2]int{80, 120}, surfaces.created[0], "90 degrees swaps the 120x80 natural crop")
	assert.Equal(t, Placement{
		Degrees: 90,
		CenterX: 40,
		CenterY: 60,
		PivotX:  60,
		PivotY:  40,
		OffsetX: -20,
		OffsetY: -40,
	}, surfaces.placements[0])
}

func TestEngine_Rasterize_Errors(t *testing.T) {
	src := sourceOf(patternImage(10, 10), geometry.Size{Width: 10, Height: 10})

	t.Run("zero-area crop is rejected before a surface is acquired", func(t *testing.T) {
		surfaces := &recordingSurfaces{encodeOut: []byte("png")}
		_, err := NewEngine(surfaces).Rasterize(src, geometry.Rect{Width: 0, Height: 5, Unit: geometry.Pixels}, 0)
		assert.ErrorIs(t, err, geometry.ErrInvalidCrop)
		assert.Empty(t, surfaces.created)
	})

	t.Run("crop that rounds to zero pixels is rejected before a surface is acquired", func(t *testing.T) {
		surfaces := &recordingSurfaces{encodeOut: []byte("png")}
		_, err := NewEngine(surfaces).Rasterize(src, geometry.Rect{Width: 0.3, Height: 5, Unit: geometry.Pixels}, 90)
		assert.ErrorIs(t, err, geometry.ErrInvalidCrop)
		assert.NotErrorIs(t, err, ErrRaster)
		assert.Empty(t, surfaces.created)
	})

	t.Run("surface acquisition failure is a raster error", func(t *testing.T) {
		surfaces := &recordingSurfaces{createErr: errors.New("no context")}
		_, err := NewEngine(surfaces).Rasterize(src, geometry.Rect{Width: 5, Height: 5, Unit: geometry.Pixels}, 0)
		assert.ErrorIs(t, err, ErrRaster)
		var rasterErr *RasterError
		assert.ErrorAs(t, err, &rasterErr)
	})

	t.Run("empty encoding is a raster error", func(t *testing.T) {
		surfaces := &recordingSurfaces{}
		_, err := NewEngine(surfaces).Rasterize(src, geometry.Rect{Width: 5, Height: 5, Unit: geometry.Pixels}, 0)
		assert.ErrorIs(t, err, ErrRaster)
	})

	t.Run("non quarter-turn rotation is unsupported", func(t *testing.T) {
		_, err := NewImageEngine().Rasterize(src, geometry.Rect{Width: 5, Height: 5, Unit: geometry.Pixels}, 45)
		assert.ErrorIs(t, err, geometry.ErrUnsupportedRotation)
	})
}

func TestEngine_Rasterize_OutputDimensions(t *testing.T) {
	engine := NewImageEngine()
	cases := []struct {
		name     string
		natural  [2]int
		display  geometry.Size
		crop     geometry.Rect
		rotation geometry.Rotation
		want     [2]int
	}{
		{"unscaled no rotation", [2]int{100, 80}, geometry.Size{Width: 100, Height: 80}, geometry.Rect{X: 10, Y: 10, Width: 50, Height: 30, Unit: geometry.Pixels}, 0, [2]int{50, 30}},
		{"downscaled display", [2]int{400, 200}, geometry.Size{Width: 200, Height: 100}, geometry.Rect{X: 10, Y: 10, Width: 50, Height: 30, Unit: geometry.Pixels}, 0, [2]int{100, 60}},
		{"rotated 90", [2]int{400, 200}, geometry.Size{Width: 200, Height: 100}, geometry.Rect{X: 10, Y: 10, Width: 50, Height: 30, Unit: geometry.Pixels}, 90, [2]int{60, 100}},
		{"rotated 180", [2]int{100, 80}, geometry.Size{Width: 100, Height: 80}, geometry.Rect{X: 0, Y: 0, Width: 40, Height: 20, Unit: geometry.Pixels}, 180, [2]int{40, 20}},
		{"rotated -90", [2]int{100, 80}, geometry.Size{Width: 100, Height: 80}, geometry.Rect{X: 0, Y: 0, Width: 40, Height: 20, Unit: geometry.Pixels}, -90, [2]int{20, 40}},
		{"percent crop", [2]int{200, 100}, geometry.Size{Width: 200, Height: 100}, geometry.Rect{X: 25, Y: 25, Width: 50, Height: 50, Unit: geometry.Percent}, 270, [2]int{50, 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := sourceOf(patternImage(tc.natural[0], tc.natural[1]), tc.display)
			data, err := engine.Rasterize(src, tc.crop, tc.rotation)
			require.NoError(t, err)
			b := decodePNG(t, data).Bounds()
			assert.Equal(t, tc.want, [2]int{b.Dx(), b.Dy()})
		})
	}
}

func TestEngine_Rasterize_FullRevolutionIsIdentity(t *testing.T) {
	engine := NewImageEngine()
	src := sourceOf(patternImage(64, 48), geometry.Size{Width: 32, Height: 24})
	crop := geometry.Rect{X: 3, Y: 4, Width: 20, Height: 12, Unit: geometry.Pixels}

	base, err := engine.Rasterize(src, crop, 0)
	require.NoError(t, err)

	var rotation geometry.Rotation
	for i := 0; i < 4; i++ {
		rotation = rotation.Add(90)
	}
	full, err := engine.Rasterize(src, crop, rotation)
	require.NoError(t, err)

	assert.Equal(t, base, full)
}

func TestEngine_Rasterize_PixelMapping(t *testing.T) {
	engine := NewImageEngine()
	img := patternImage(4, 2)
	src := sourceOf(img, geometry.Size{Width: 4, Height: 2})
	whole := geometry.Rect{Width: 4, Height: 2, Unit: geometry.Pixels}

	t.Run("no rotation copies pixels", func(t *testing.T) {
		out := decodePNG(t, must(engine.Rasterize(src, geometry.Rect{X: 1, Y: 0, Width: 2, Height: 2, Unit: geometry.Pixels}, 0)))
		assert.Equal(t, img.At(1, 0), toRGBA(out.At(0, 0)))
		assert.Equal(t, img.At(2, 1), toRGBA(out.At(1, 1)))
	})

	t.Run("90 degrees rotates clockwise", func(t *testing.T) {
		out := decodePNG(t, must(engine.Rasterize(src, whole, 90)))
		require.Equal(t, image.Rect(0, 0, 2, 4), out.Bounds())
		for sy := 0; sy < 2; sy++ {
			for sx := 0; sx < 4; sx++ {
				assert.Equal(t, img.At(sx, sy), toRGBA(out.At(1-sy, sx)), "source pixel %d,%d", sx, sy)
			}
		}
	})

	t.Run("180 degrees flips both axes", func(t *testing.T) {
		out := decodePNG(t, must(engine.Rasterize(src, whole, 180)))
		assert.Equal(t, img.At(0, 0), toRGBA(out.At(3, 1)))
		assert.Equal(t, img.At(3, 0), toRGBA(out.At(0, 1)))
	})
}

func TestEngine_CropRegion(t *testing.T) {
	img := patternImage(100, 50)
	src := sourceOf(img, geometry.Size{Width: 100, Height: 50})

	region := geometry.Box{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8}.Denormalize(src.Natural)
	out := decodePNG(t, must(NewImageEngine().CropRegion(src, region)))

	assert.Equal(t, image.Rect(0, 0, 80, 40), out.Bounds())
	assert.Equal(t, img.At(10, 5), toRGBA(out.At(0, 0)))
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, patternImage(12, 7)))

	src, err := Decode(upload.File{Name: "a.png", MIMEType: upload.MIMEPNG, Data: buf.Bytes()})
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 12, Height: 7}, src.Natural)
	assert.Equal(t, src.Natural, src.Displayed)

	fitted := src.FitDisplay(6, 0)
	assert.Equal(t, geometry.Size{Width: 6, Height: 3.5}, fitted.Displayed)

	_, err = Decode(upload.File{Name: "junk.png", Data: []byte("nope")})
	assert.ErrorIs(t, err, ErrDecode)
}

func must(data []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return data
}

func toRGBA(c color.Color) color.Color {
	return color.RGBAModel.Convert(c)
}
