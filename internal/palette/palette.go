// Package palette holds the badge color palette and hex color parsing.
//
// A [Palette] pairs the canvas background with the set of badge colors drawn
// from at random. Badges are rendered as knockouts: the badge square takes a
// palette color and its glyph takes the background color, so the icon reads
// as a hole punched through to the wallpaper.
package palette

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ///////////////////////////////////////////////
// Built-in Palette
// ///////////////////////////////////////////////

// Monokai colors used by [Default].
var (
	MonokaiBackground = color.NRGBA{R: 46, G: 46, B: 46, A: 255}
	MonokaiYellow     = color.NRGBA{R: 229, G: 181, B: 103, A: 255}
	MonokaiGreen      = color.NRGBA{R: 180, G: 210, B: 115, A: 255}
	MonokaiOrange     = color.NRGBA{R: 232, G: 125, B: 62, A: 255}
	MonokaiPurple     = color.NRGBA{R: 158, G: 134, B: 200, A: 255}
	MonokaiPink       = color.NRGBA{R: 176, G: 82, B: 121, A: 255}
	MonokaiBlue       = color.NRGBA{R: 108, G: 153, B: 187, A: 255}
)

// Palette is the set of colors one canvas is drawn with.
type Palette struct {
	// Background fills the canvas and colors every glyph.
	Background color.NRGBA
	// Colors are the badge fills picked from uniformly at random.
	Colors []color.NRGBA
	// Fallback is used when Colors is empty.
	Fallback color.NRGBA
}

// Default returns the built-in monokai palette. Callers get a fresh slice and
// may modify it.
func Default() Palette {
	return Palette{
		Background: MonokaiBackground,
		Colors: []color.NRGBA{
			MonokaiYellow,
			MonokaiGreen,
			MonokaiOrange,
			MonokaiPurple,
			MonokaiPink,
			MonokaiBlue,
		},
		Fallback: MonokaiGreen,
	}
}

// Rand is the random source consumed by [Palette.Pick].
type Rand interface {
	IntN(n int) int
}

// Pick returns a uniformly random badge color, or Fallback when the palette
// has no colors. No random value is consumed in the fallback case.
func (p Palette) Pick(rng Rand) color.NRGBA {
	if len(p.Colors) == 0 {
		return p.Fallback
	}
	return p.Colors[rng.IntN(len(p.Colors))]
}

// ///////////////////////////////////////////////
// Contrast
// ///////////////////////////////////////////////

// DefaultMinContrast is the CIEDE2000 distance below which a badge color is
// reported by [Palette.LowContrast]. Around 0.1 the glyph is still legible
// on a typical monitor.
const DefaultMinContrast = 0.1

// Contrast returns the perceptual CIEDE2000 distance between two colors,
// ignoring alpha.
func Contrast(a, b color.NRGBA) float64 {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	return ca.DistanceCIEDE2000(cb)
}

// LowContrast returns the badge colors whose distance to the background is
// below min. Those badges render with a nearly invisible glyph.
func (p Palette) LowContrast(min float64) []color.NRGBA {
	var out []color.NRGBA
	for _, c := range p.Colors {
		if Contrast(c, p.Background) < min {
			out = append(out, c)
		}
	}
	return out
}

// ///////////////////////////////////////////////
// Hex Parsing
// ///////////////////////////////////////////////

// ParseHex parses a "#RRGGBB" or "#RRGGBBAA" hex color string into a
// color.NRGBA. The leading "#" is optional. Six-digit colors are opaque.
func ParseHex(hex string) (color.NRGBA, error) {
	raw := strings.TrimPrefix(hex, "#")
	if len(raw) != 6 && len(raw) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: must be 6 or 8 hex digits", hex)
	}
	var ch [4]uint8
	ch[3] = 255
	for i := 0; i < len(raw)/2; i++ {
		v, err := strconv.ParseUint(raw[2*i:2*i+2], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		ch[i] = uint8(v)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// Hex formats c as "#RRGGBB", or "#RRGGBBAA" when c is not opaque.
func Hex(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
