// badge_test.go tests [Draw] output size, fill, glyph placement and clipping,
// plus the [Center] and [Overlay] helpers it is built from.

package badge

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/adiepenbrock/nerdpaper/internal/glyph"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func goFont(t *testing.T) *glyph.Font {
	t.Helper()
	f, err := glyph.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("parse gofont: %v", err)
	}
	return f
}

// ///////////////////////////////////////////////
// Draw
// ///////////////////////////////////////////////

func TestDrawSize(t *testing.T) {
	f := goFont(t)
	tests := []struct {
		name string
		text string
		size float64
	}{
		{"small", "A", 12},
		{"default", "A", 42},
		{"oversized", "WWWW", 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Draw(red, blue, tt.size, f, tt.text)
			if err != nil {
				t.Fatalf("Draw: %v", err)
			}
			if b := img.Bounds(); b != image.Rect(0, 0, Size, Size) {
				t.Errorf("bounds = %v, want 64x64 at origin", b)
			}
		})
	}
}

func TestDrawFillAndGlyph(t *testing.T) {
	img, err := Draw(red, blue, 42, goFont(t), "A")
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}

	if got := img.RGBAAt(0, 0); got != red {
		t.Errorf("corner pixel = %v, want background %v", got, red)
	}

	var glyphPixels int
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			p := img.RGBAAt(x, y)
			if p.A != 255 {
				t.Fatalf("pixel (%d,%d) = %v: badge must be opaque", x, y, p)
			}
			if p.G != 0 {
				t.Fatalf("pixel (%d,%d) = %v: only background and glyph colors may appear", x, y, p)
			}
			if p == blue {
				glyphPixels++
			}
		}
	}
	if glyphPixels == 0 {
		t.Error("no pixel carries the glyph color")
	}
}

func TestDrawOversizedClips(t *testing.T) {
	img, err := Draw(red, blue, 200, goFont(t), "WWWW")
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if img.Bounds().Dx() != Size || img.Bounds().Dy() != Size {
		t.Errorf("bounds = %v, want 64x64", img.Bounds())
	}
}

func TestDrawLayoutError(t *testing.T) {
	_, err := Draw(red, blue, 42, goFont(t), "")
	if !errors.Is(err, glyph.ErrGlyphLayout) {
		t.Errorf("Draw(\"\") error = %v, want ErrGlyphLayout", err)
	}
}

// ///////////////////////////////////////////////
// Center / Overlay
// ///////////////////////////////////////////////

func TestCenter(t *testing.T) {
	tests := []struct {
		size image.Point
		want image.Point
	}{
		{image.Pt(64, 64), image.Pt(0, 0)},
		{image.Pt(20, 30), image.Pt(22, 17)},
		{image.Pt(21, 31), image.Pt(22, 17)},
		{image.Pt(1, 1), image.Pt(32, 32)},
		{image.Pt(100, 80), image.Pt(-18, -8)},
	}
	for _, tt := range tests {
		if got := Center(tt.size); got != tt.want {
			t.Errorf("Center(%v) = %v, want %v", tt.size, got, tt.want)
		}
	}
}

func TestOverlayTransparentLeavesBackground(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(red), image.Point{}, draw.Src)

	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	src.SetRGBA(5, 5, blue)

	Overlay(dst, src, image.Pt(20, 20))
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			want := red
			if x == 25 && y == 25 {
				want = blue
			}
			if got := dst.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestOverlayNegativeOffsetClips(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, Size, Size))
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	draw.Draw(src, src.Bounds(), image.NewUniform(blue), image.Point{}, draw.Src)

	Overlay(dst, src, image.Pt(-4, -6))
	if got := dst.RGBAAt(5, 3); got != blue {
		t.Errorf("pixel (5,3) = %v, want %v", got, blue)
	}
	if got := dst.RGBAAt(6, 0); got != (color.RGBA{}) {
		t.Errorf("pixel (6,0) = %v, want untouched", got)
	}
	if got := dst.RGBAAt(0, 4); got != (color.RGBA{}) {
		t.Errorf("pixel (0,4) = %v, want untouched", got)
	}
}
