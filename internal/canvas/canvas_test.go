// canvas_test.go tests [Generate] end to end on small canvases: badge
// footprints, background preservation, determinism and error wrapping.

package canvas

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math/rand/v2"
	"slices"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/adiepenbrock/nerdpaper/internal/glyph"
	"github.com/adiepenbrock/nerdpaper/internal/palette"
	"github.com/adiepenbrock/nerdpaper/internal/placement"
)

func goFont(t *testing.T) *glyph.Font {
	t.Helper()
	f, err := glyph.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("parse gofont: %v", err)
	}
	return f
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func rgba(c color.NRGBA) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func smallParams() Params {
	return Params{
		Width:      256,
		Height:     256,
		BadgeCount: 3,
		BadgeSize:  64,
		PointSize:  42,
		Palette: palette.Palette{
			Background: palette.MonokaiBackground,
			Colors:     []color.NRGBA{palette.MonokaiGreen},
			Fallback:   palette.MonokaiGreen,
		},
		Icons: []string{"A"},
	}
}

// ///////////////////////////////////////////////
// Generate
// ///////////////////////////////////////////////

func TestGenerateEndToEnd(t *testing.T) {
	p := smallParams()
	res, err := Generate(p, goFont(t), seeded(3))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if b := res.Image.Bounds(); b != image.Rect(0, 0, 256, 256) {
		t.Fatalf("bounds = %v, want 256x256", b)
	}
	if len(res.Badges) != 3 {
		t.Fatalf("badges = %d, want 3", len(res.Badges))
	}

	bg := rgba(p.Palette.Background)
	fill := rgba(palette.MonokaiGreen)
	seen := make(map[placement.Cell]bool)
	for _, b := range res.Badges {
		if seen[b.Cell] {
			t.Errorf("duplicate cell %v", b.Cell)
		}
		seen[b.Cell] = true
		if (b.Cell.X != 64 && b.Cell.X != 128) || (b.Cell.Y != 64 && b.Cell.Y != 128) {
			t.Errorf("cell %v outside {64,128}x{64,128}", b.Cell)
		}
		if b.Color != palette.MonokaiGreen || b.Icon != "A" {
			t.Errorf("badge = %+v, want green A", b)
		}

		// Badge corners carry the fill; the background is hidden there.
		for _, pt := range []image.Point{
			{b.Cell.X, b.Cell.Y},
			{b.Cell.X + 63, b.Cell.Y},
			{b.Cell.X, b.Cell.Y + 63},
			{b.Cell.X + 63, b.Cell.Y + 63},
		} {
			if got := res.Image.RGBAAt(pt.X, pt.Y); got != fill {
				t.Errorf("pixel %v = %v, want badge fill %v", pt, got, fill)
			}
		}

		// The knocked-out glyph shows the background color inside the badge.
		var knockout int
		for y := b.Cell.Y; y < b.Cell.Y+64; y++ {
			for x := b.Cell.X; x < b.Cell.X+64; x++ {
				if res.Image.RGBAAt(x, y) == bg {
					knockout++
				}
			}
		}
		if knockout == 0 {
			t.Errorf("badge at %v has no glyph pixels in the background color", b.Cell)
		}
	}

	// The border ring is never covered.
	for _, pt := range []image.Point{{0, 0}, {255, 255}, {63, 200}, {200, 10}, {192, 192}} {
		if got := res.Image.RGBAAt(pt.X, pt.Y); got != bg {
			t.Errorf("pixel %v = %v, want background %v", pt, got, bg)
		}
	}
}

func TestGenerateNoBadges(t *testing.T) {
	p := smallParams()
	p.BadgeCount = 0
	res, err := Generate(p, goFont(t), seeded(1))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Badges) != 0 {
		t.Errorf("badges = %v, want none", res.Badges)
	}
	bg := rgba(p.Palette.Background)
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			if got := res.Image.RGBAAt(x, y); got != bg {
				t.Fatalf("pixel (%d,%d) = %v, want background", x, y, got)
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	f := goFont(t)
	p := Params{
		Width:      1280,
		Height:     720,
		BadgeCount: 12,
		BadgeSize:  64,
		PointSize:  42,
		Palette:    palette.Default(),
		Icons:      []string{"A", "B", "go", "Z"},
	}

	a, err := Generate(p, f, seeded(1234))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(p, f, seeded(1234))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !slices.Equal(a.Badges, b.Badges) {
		t.Errorf("same seed gave different badges:\n%v\n%v", a.Badges, b.Badges)
	}
	if !bytes.Equal(a.Image.Pix, b.Image.Pix) {
		t.Error("same seed gave different pixels")
	}
}

func TestGenerateFallbackColor(t *testing.T) {
	p := smallParams()
	p.Palette.Colors = nil
	p.Palette.Fallback = palette.MonokaiPink
	res, err := Generate(p, goFont(t), seeded(5))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, b := range res.Badges {
		if b.Color != palette.MonokaiPink {
			t.Errorf("badge color = %v, want fallback %v", b.Color, palette.MonokaiPink)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	f := goFont(t)
	tests := []struct {
		name   string
		modify func(*Params)
		want   error
	}{
		{"no icons", func(p *Params) { p.Icons = nil }, ErrEmptyIconSet},
		{"no icons beats bad size", func(p *Params) { p.Icons = nil; p.Width = 10 }, ErrEmptyIconSet},
		{"tiny canvas", func(p *Params) { p.Width, p.Height = 65, 65; p.BadgeCount = 1 }, placement.ErrPlacementExhausted},
		{"invalid size", func(p *Params) { p.Width = 64 }, placement.ErrInvalidCanvasSize},
		{"grid smaller than badge", func(p *Params) { p.BadgeSize = 32 }, placement.ErrInvalidCanvasSize},
		{"grid larger than badge", func(p *Params) { p.BadgeSize = 128; p.Width, p.Height = 1024, 1024 }, placement.ErrInvalidCanvasSize},
		{"whitespace icon", func(p *Params) { p.Icons = []string{" "} }, glyph.ErrGlyphLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := smallParams()
			tt.modify(&p)
			_, err := Generate(p, f, seeded(1))
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
