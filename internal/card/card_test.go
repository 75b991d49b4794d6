package card

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simreg/internal/form"
	"simreg/internal/upload"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleRecord() form.Record {
	return form.Record{
		Name:        "Rahim Uddin",
		FatherName:  "Karim Uddin",
		MotherName:  "Amena Begum",
		DateOfBirth: "1990-01-15",
		NIDNumber:   "1234567890",
		Village:     "Shibpur",
		PostOffice:  "Shibpur",
		Upazila:     "Shibpur",
		District:    "নরসিংদী",
		Mobile:      "01711000000",
	}
}

func submittedState(t *testing.T, portrait []byte) form.State {
	t.Helper()
	s := form.New()
	rec := sampleRecord()
	for _, id := range form.TextFields {
		var err error
		s, err = s.SetField(id, rec.Field(id))
		require.NoError(t, err)
	}
	doc := upload.File{Name: "front.png", MIMEType: upload.MIMEPNG, Data: []byte("x")}
	var err error
	s, err = s.CommitSlot(upload.DocumentFront, doc)
	require.NoError(t, err)
	s, err = s.CommitSlot(upload.DocumentBack, doc)
	require.NoError(t, err)
	s, err = s.CommitSlot(upload.Portrait, upload.File{Name: "p.png", MIMEType: upload.MIMEPNG, Data: portrait})
	require.NoError(t, err)

	s, err = s.Submit(form.IDFunc(func() string { return "SIM-123456" }), time.Now())
	require.NoError(t, err)
	return s
}

func TestNewRenderer_ClampsScale(t *testing.T) {
	assert.Equal(t, MinScale, NewRenderer(1, DefaultFonts()).Scale())
	assert.Equal(t, MaxScale, NewRenderer(10, DefaultFonts()).Scale())
	assert.Equal(t, 2.75, NewRenderer(2.75, DefaultFonts()).Scale())
}

func TestRenderer_Render(t *testing.T) {
	portrait := solidPNG(t, 30, 40, color.RGBA{R: 255, A: 255})
	c, err := FromState(submittedState(t, portrait))
	require.NoError(t, err)
	require.NotNil(t, c.Portrait)
	assert.Equal(t, "SIM-123456", c.ApplicationID)

	r := NewRenderer(2.5, DefaultFonts())

	t.Run("output is the logical layout at device scale", func(t *testing.T) {
		data, err := r.RenderPNG(c)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 1400, img.Bounds().Dx())
		assert.Equal(t, 850, img.Bounds().Dy())
	})

	t.Run("portrait fills the center of its ellipse", func(t *testing.T) {
		img := r.Render(c)
		// Portrait area is 120x160 at (24, 68); its center is (84, 148).
		red, green, blue, _ := img.At(210, 370).RGBA()
		assert.Greater(t, red>>8, uint32(200))
		assert.Less(t, green>>8, uint32(60))
		assert.Less(t, blue>>8, uint32(60))
	})

	t.Run("missing portrait draws a placeholder", func(t *testing.T) {
		c := c
		c.Portrait = nil
		img := r.Render(c)
		got := color.RGBAModel.Convert(img.At(210, 370)).(color.RGBA)
		assert.InDelta(t, 0xe5, int(got.R), 2)
		assert.InDelta(t, 0xe7, int(got.G), 2)
		assert.InDelta(t, 0xeb, int(got.B), 2)
	})
}

func TestFromState_RequiresSubmission(t *testing.T) {
	_, err := FromState(form.New())
	assert.ErrorIs(t, err, ErrNotSubmitted)
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "Shibpur, Shibpur, Shibpur, নরসিংদী", Address(sampleRecord()))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "SIM-123456.png", FileName("SIM-123456"))
}

func TestLoadFonts(t *testing.T) {
	fonts, err := LoadFonts("")
	require.NoError(t, err)
	assert.NotNil(t, fonts.Regular)
	assert.NotNil(t, fonts.Mono)

	_, err = LoadFonts(filepath.Join(t.TempDir(), "missing.ttf"))
	assert.Error(t, err)
}
