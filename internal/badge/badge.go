// Package badge composes one square icon badge: a flat color fill with a
// rasterized glyph centered on top.
package badge

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/adiepenbrock/nerdpaper/internal/glyph"
)

// Size is the edge length in pixels of every badge.
const Size = 64

// Draw renders a Size×Size badge filled with background and carrying text
// drawn in foreground at pointSize, centered with integer division. Glyphs
// larger than the badge are clipped at its edges; the result is always
// Size×Size.
func Draw(background, foreground color.Color, pointSize float64, f *glyph.Font, text string) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	g, err := glyph.Rasterize(f, text, pointSize, foreground)
	if err != nil {
		return nil, fmt.Errorf("rasterize %q: %w", text, err)
	}

	Overlay(img, g, Center(g.Bounds().Size()))
	return img, nil
}

// Center returns the top-left offset that centers an image of size sz on a
// badge. Odd sizes round toward the top-left; offsets are negative when sz
// exceeds the badge.
func Center(sz image.Point) image.Point {
	return image.Point{X: Size/2 - sz.X/2, Y: Size/2 - sz.Y/2}
}

// Overlay composites src onto dst with its top-left corner at at, using
// source-over blending. Pixels of src with alpha 0 leave dst unchanged and
// anything falling outside dst is clipped.
func Overlay(dst draw.Image, src image.Image, at image.Point) {
	sb := src.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(sb.Size())}
	draw.Draw(dst, r, src, sb.Min, draw.Over)
}
