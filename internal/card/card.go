// Package card renders the shareable registration card for a submitted
// application as a PNG.
//
// The layout is defined in logical units on a 560x340 canvas and rendered at
// a fixed device scale between 2.5 and 3.
package card

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"simreg/internal/form"
	"simreg/internal/logger"
)

const (
	// Width and Height are the logical card size.
	Width  = 560
	Height = 340

	MinScale = 2.5
	MaxScale = 3.0
)

// ErrNotSubmitted is returned when a card is requested for an application
// that has not been submitted.
var ErrNotSubmitted = errors.New("application has not been submitted")

// Card is the data shown on the card.
type Card struct {
	ApplicationID string
	Record        form.Record
	Portrait      image.Image
}

// FromState builds the card for a submitted application.
func FromState(s form.State) (Card, error) {
	if !s.ReadOnly() || s.ApplicationID == "" {
		return Card{}, ErrNotSubmitted
	}
	c := Card{ApplicationID: s.ApplicationID, Record: s.Record}
	if p := s.Record.Slots.Portrait; p != nil {
		img, _, err := image.Decode(bytes.NewReader(p.Data))
		if err != nil {
			return Card{}, fmt.Errorf("decode portrait: %w", err)
		}
		c.Portrait = img
	}
	return c, nil
}

// FileName is the export name of the card for an application.
func FileName(applicationID string) string {
	return applicationID + ".png"
}

// Renderer draws cards.
type Renderer struct {
	scale float64
	fonts Fonts
	log   zerolog.Logger
}

// NewRenderer creates a renderer. The scale is clamped to [MinScale, MaxScale].
func NewRenderer(scale float64, fonts Fonts) *Renderer {
	return &Renderer{
		scale: math.Max(MinScale, math.Min(MaxScale, scale)),
		fonts: fonts,
		log:   logger.WithComponent("card"),
	}
}

// Scale returns the device scale in use.
func (r *Renderer) Scale() float64 { return r.scale }

// Size returns the pixel size of rendered cards.
func (r *Renderer) Size() (int, int) {
	return int(math.Round(Width * r.scale)), int(math.Round(Height * r.scale))
}

// RenderPNG renders the card and encodes it.
func (r *Renderer) RenderPNG(c Card) ([]byte, error) {
	img := r.Render(c)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	r.log.Info().
		Str("application_id", c.ApplicationID).
		Int("bytes", buf.Len()).
		Float64("scale", r.scale).
		Msg("Card rendered")
	return buf.Bytes(), nil
}

// Render draws the card.
func (r *Renderer) Render(c Card) image.Image {
	w, h := r.Size()
	dc := gg.NewContext(w, h)

	r.drawBackground(dc)
	r.drawHeader(dc)
	r.drawPortrait(dc, c.Portrait)
	r.drawChip(dc)
	r.drawFields(dc, c.Record)
	r.drawFooter(dc, c.ApplicationID)

	return dc.Image()
}

// px converts logical units to device pixels.
func (r *Renderer) px(v float64) float64 { return v * r.scale }

func (r *Renderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: r.px(size)})
}

func (r *Renderer) drawBackground(dc *gg.Context) {
	w, h := r.Size()
	cx, cy := float64(w)/2, float64(h)/2
	maxDist := math.Hypot(cx, cy)

	// Radial gradient, painted as concentric rings from the outside in.
	const rings = 48
	for i := rings; i >= 0; i-- {
		t := float64(i) / rings
		dc.SetColor(palette.backgroundCenter.BlendLab(palette.backgroundEdge, t))
		dc.DrawEllipse(cx, cy, maxDist*t*1.2+1, maxDist*t*1.2+1)
		dc.Fill()
	}

	// Diagonal guilloche grid.
	dc.SetColor(withAlpha(palette.pattern, 0.3))
	dc.SetLineWidth(r.px(0.5))
	for d := -float64(h); d < float64(w); d += r.px(50) {
		dc.DrawLine(d, 0, d+float64(h), float64(h))
		dc.DrawLine(d+float64(h), 0, d, float64(h))
	}
	dc.Stroke()
}

func (r *Renderer) drawHeader(dc *gg.Context) {
	dc.SetColor(palette.primary)
	dc.SetFontFace(r.face(r.fonts.Bold, 13))
	dc.DrawString("Bangladesh Telecommunication Regulatory Commission", r.px(20), r.px(30))

	dc.SetColor(palette.muted)
	dc.SetFontFace(r.face(r.fonts.Regular, 7.5))
	dc.DrawString("SIM REGISTRATION INFORMATION CARD", r.px(20), r.px(44))

	r.drawRule(dc, 54)
}

func (r *Renderer) drawRule(dc *gg.Context, y float64) {
	dc.SetColor(withAlpha(palette.accent, 0.5))
	dc.SetLineWidth(r.px(2))
	dc.DrawLine(r.px(20), r.px(y), r.px(Width-20), r.px(y))
	dc.Stroke()
}

func (r *Renderer) drawPortrait(dc *gg.Context, portrait image.Image) {
	x, y, w, h := 24.0, 68.0, 120.0, 160.0
	cx, cy := r.px(x+w/2), r.px(y+h/2)

	dc.SetColor(palette.frame)
	dc.DrawEllipse(cx, cy, r.px(w/2+2), r.px(h/2+2))
	dc.Fill()

	if portrait == nil {
		dc.SetColor(palette.placeholder)
		dc.DrawEllipse(cx, cy, r.px(w/2), r.px(h/2))
		dc.Fill()
		return
	}

	scaled := fitCover(portrait, int(math.Round(r.px(w))), int(math.Round(r.px(h))))

	dc.Push()
	dc.DrawEllipse(cx, cy, r.px(w/2), r.px(h/2))
	dc.Clip()
	dc.DrawImageAnchored(scaled, int(math.Round(cx)), int(math.Round(cy)), 0.5, 0.5)
	dc.ResetClip()
	dc.Pop()
}

func (r *Renderer) drawChip(dc *gg.Context) {
	x, y, w, h := 63.0, 244.0, 42.0, 30.0
	const steps = 12
	for i := 0; i < steps; i++ {
		t := float64(i) / (steps - 1)
		dc.SetColor(palette.chipLight.BlendRgb(palette.chipDark, t))
		dc.DrawRoundedRectangle(r.px(x+t*2), r.px(y+t*2), r.px(w-t*4), r.px(h-t*4), r.px(4))
		dc.Fill()
	}
	dc.SetColor(withAlpha(palette.chipLight, 0.6))
	dc.SetLineWidth(r.px(0.8))
	dc.DrawLine(r.px(x+w/2), r.px(y+4), r.px(x+w/2), r.px(y+h-4))
	dc.DrawLine(r.px(x+4), r.px(y+h/2), r.px(x+w-4), r.px(y+h/2))
	dc.Stroke()
}

func (r *Renderer) drawFields(dc *gg.Context, rec form.Record) {
	left := 164.0
	right := Width - 20.0

	r.drawLabel(dc, "Name", left, 80)
	dc.SetColor(palette.text)
	dc.SetFontFace(r.face(r.fonts.Bold, 18))
	dc.DrawString(r.fit(dc, orNA(rec.Name), right-left), r.px(left), r.px(101))

	col2 := left + (right-left)/2
	colWidth := (right-left)/2 - 8
	r.drawField(dc, "Father's name", rec.FatherName, left, 124, colWidth, r.fonts.Regular)
	r.drawField(dc, "Mother's name", rec.MotherName, col2, 124, colWidth, r.fonts.Regular)
	r.drawField(dc, "Date of birth", rec.DateOfBirth, left, 160, colWidth, r.fonts.Regular)
	r.drawField(dc, "Mobile number", rec.Mobile, col2, 160, colWidth, r.fonts.Mono)
	r.drawField(dc, "Address", Address(rec), left, 196, right-left, r.fonts.Regular)
	r.drawField(dc, "NID", rec.NIDNumber, left, 232, right-left, r.fonts.Mono)
}

func (r *Renderer) drawField(dc *gg.Context, label, value string, x, y, maxWidth float64, f *truetype.Font) {
	r.drawLabel(dc, label, x, y)
	dc.SetColor(palette.text)
	dc.SetFontFace(r.face(f, 11))
	dc.DrawString(r.fit(dc, orNA(value), maxWidth), r.px(x), r.px(y+15))
}

func (r *Renderer) drawLabel(dc *gg.Context, label string, x, y float64) {
	dc.SetColor(withAlpha(palette.primary, 0.7))
	dc.SetFontFace(r.face(r.fonts.Bold, 7))
	dc.DrawString(strings.ToUpper(label), r.px(x), r.px(y))
}

func (r *Renderer) drawFooter(dc *gg.Context, applicationID string) {
	r.drawRule(dc, 284)
	r.drawHologram(dc, 44, 312, 18)

	right := r.px(Width - 20)
	dc.SetColor(palette.muted)
	dc.SetFontFace(r.face(r.fonts.Bold, 7))
	dc.DrawStringAnchored("APPLICATION ID", right, r.px(300), 1, 0)

	dc.SetColor(palette.primary)
	dc.SetFontFace(r.face(r.fonts.Mono, 14))
	dc.DrawStringAnchored(applicationID, right, r.px(316), 1, 0)

	dc.SetColor(palette.verified)
	dc.SetFontFace(r.face(r.fonts.Bold, 7))
	dc.DrawStringAnchored("VERIFIED", right, r.px(329), 1, 0)
}

// drawHologram paints a rainbow seal blending magenta, cyan and yellow.
func (r *Renderer) drawHologram(dc *gg.Context, x, y, radius float64) {
	stops := []colorful.Color{palette.holoMagenta, palette.holoCyan, palette.holoYellow, palette.holoMagenta}
	const segments = 72
	for i := 0; i < segments; i++ {
		t := float64(i) / segments
		pos := t * float64(len(stops)-1)
		k := int(pos)
		c := stops[k].BlendHcl(stops[k+1], pos-float64(k)).Clamped()

		a0 := t * 2 * math.Pi
		a1 := (t + 1.0/segments) * 2 * math.Pi
		dc.SetColor(withAlpha(c, 0.5))
		dc.MoveTo(r.px(x), r.px(y))
		dc.DrawArc(r.px(x), r.px(y), r.px(radius), a0, a1)
		dc.ClosePath()
		dc.Fill()
	}
	dc.SetColor(withAlpha(palette.white, 0.8))
	dc.SetLineWidth(r.px(2))
	dc.DrawCircle(r.px(x), r.px(y), r.px(radius*0.5))
	dc.Stroke()
}

// fit shortens s with an ellipsis until it fits maxWidth logical units.
func (r *Renderer) fit(dc *gg.Context, s string, maxWidth float64) string {
	limit := r.px(maxWidth)
	if w, _ := dc.MeasureString(s); w <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if w, _ := dc.MeasureString(candidate); w <= limit {
			return candidate
		}
	}
	return ""
}

// Address joins the address parts as printed on the card.
func Address(rec form.Record) string {
	return strings.Join([]string{rec.Village, rec.PostOffice, rec.Upazila, rec.District}, ", ")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// fitCover scales img to cover w x h, cropping the overflow around the center.
func fitCover(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	scale := math.Max(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	sw := int(math.Ceil(float64(b.Dx()) * scale))
	sh := int(math.Ceil(float64(b.Dy()) * scale))

	scaled := image.NewRGBA(image.Rect(0, 0, sw, sh))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	x0, y0 := (sw-w)/2, (sh-h)/2
	return scaled.SubImage(image.Rect(x0, y0, x0+w, y0+h))
}
