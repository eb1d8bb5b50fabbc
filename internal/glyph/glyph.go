// Package glyph rasterizes icon text from an OpenType font into a tightly
// cropped RGBA buffer.
//
// A [Font] is parsed once per run and shared read-only by every rasterization;
// each [Rasterize] call builds its own face at the requested size, so calls
// never share mutable state.
package glyph

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ErrGlyphLayout is returned when text cannot be laid out into a non-empty
// pixel box: empty text, a rune the font has no glyph for, or a glyph with no
// ink (whitespace).
var ErrGlyphLayout = errors.New("glyph layout")

// dpi is fixed so that point size equals pixel size.
const dpi = 72

// ///////////////////////////////////////////////
// Font
// ///////////////////////////////////////////////

// Font is an immutable parsed OpenType/TrueType font.
type Font struct {
	otf  *opentype.Font
	name string
}

// Parse decodes SFNT (TTF/OTF) font data. WOFF2 data must be converted by the
// caller first.
func Parse(data []byte) (*Font, error) {
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	var buf sfnt.Buffer
	name, _ := otf.Name(&buf, sfnt.NameIDFamily)
	return &Font{otf: otf, name: name}, nil
}

// Name returns the font family name, or "" if the font has none.
func (f *Font) Name() string { return f.name }

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int { return f.otf.NumGlyphs() }

// face builds a face at size points. The caller must close it.
func (f *Font) face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(f.otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// ///////////////////////////////////////////////
// Rasterize
// ///////////////////////////////////////////////

// Rasterize draws text at pointSize in color c into a new buffer sized to the
// text's pixel box. The buffer spans horizontally from the leftmost to the
// rightmost inked pixel column and vertically ceil(ascent+descent) rows, with
// the baseline at the ascent. Pixels the glyphs do not cover are fully
// transparent.
//
// Identical inputs always produce identical pixels.
func Rasterize(f *Font, text string, pointSize float64, c color.Color) (*image.RGBA, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrGlyphLayout)
	}
	if pointSize <= 0 {
		return nil, fmt.Errorf("%w: point size %v must be positive", ErrGlyphLayout, pointSize)
	}

	face, err := f.face(pointSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	minX, maxX, err := inkExtent(face, text)
	if err != nil {
		return nil, err
	}

	m := face.Metrics()
	width := maxX - minX
	height := (m.Ascent + m.Descent).Ceil()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %q has an empty pixel box", ErrGlyphLayout, text)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: -fixed.I(minX), Y: m.Ascent},
	}
	d.DrawString(text)
	return img, nil
}

// inkExtent lays text out from x=0 the way [font.Drawer] does (kerning, then
// advance) and returns the pixel columns [minX, maxX) covered by the glyphs.
func inkExtent(face font.Face, text string) (minX, maxX int, err error) {
	var dot fixed.Int26_6
	prev := rune(-1)
	first := true
	for _, r := range text {
		if prev >= 0 {
			dot += face.Kern(prev, r)
		}
		b, advance, ok := face.GlyphBounds(r)
		if !ok {
			return 0, 0, fmt.Errorf("%w: font has no glyph for %U", ErrGlyphLayout, r)
		}
		if b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y {
			return 0, 0, fmt.Errorf("%w: glyph %U has no pixel bounds", ErrGlyphLayout, r)
		}
		x0 := (dot + b.Min.X).Floor()
		x1 := (dot + b.Max.X).Ceil()
		if first || x0 < minX {
			minX = x0
		}
		if first || x1 > maxX {
			maxX = x1
		}
		first = false
		dot += advance
		prev = r
	}
	return minX, maxX, nil
}
