package card

import (
	"fmt"
	"image/color"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/ridge/must/v2"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts used on the card.
type Fonts struct {
	Regular *truetype.Font
	Bold    *truetype.Font
	Mono    *truetype.Font
}

// DefaultFonts returns the embedded Go fonts. They cover Latin text only.
func DefaultFonts() Fonts {
	return Fonts{
		Regular: must.OK1(truetype.Parse(goregular.TTF)),
		Bold:    must.OK1(truetype.Parse(gobold.TTF)),
		Mono:    must.OK1(truetype.Parse(gomono.TTF)),
	}
}

// LoadFonts uses the TrueType font at path for regular and bold text, which
// is needed for Bengali names and addresses. An empty path returns DefaultFonts.
func LoadFonts(path string) (Fonts, error) {
	fonts := DefaultFonts()
	if path == "" {
		return fonts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Fonts{}, fmt.Errorf("read card font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return Fonts{}, fmt.Errorf("parse card font %s: %w", path, err)
	}
	fonts.Regular = f
	fonts.Bold = f
	return fonts, nil
}

var palette = struct {
	primary, muted, text, accent, frame, placeholder, pattern, verified, white colorful.Color
	backgroundCenter, backgroundEdge                                           colorful.Color
	chipLight, chipDark                                                        colorful.Color
	holoMagenta, holoCyan, holoYellow                                          colorful.Color
}{
	primary:          hex("#1e3a8a"),
	muted:            hex("#6b7280"),
	text:             hex("#111827"),
	accent:           hex("#f59e0b"),
	frame:            hex("#d1d5db"),
	placeholder:      hex("#e5e7eb"),
	pattern:          hex("#c8dcff"),
	verified:         hex("#16a34a"),
	white:            hex("#ffffff"),
	backgroundCenter: hex("#ffffff"),
	backgroundEdge:   hex("#eef4ff"),
	chipLight:        hex("#fcd34d"),
	chipDark:         hex("#d97706"),
	holoMagenta:      hex("#ff00ff"),
	holoCyan:         hex("#00ffff"),
	holoYellow:       hex("#ffff00"),
}

func hex(s string) colorful.Color {
	return must.OK1(colorful.Hex(s))
}

func withAlpha(c colorful.Color, alpha float64) color.Color {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}
