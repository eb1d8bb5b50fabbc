// Package canvas composes a full wallpaper: a background fill with randomly
// placed icon badges on top.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/adiepenbrock/nerdpaper/internal/badge"
	"github.com/adiepenbrock/nerdpaper/internal/glyph"
	"github.com/adiepenbrock/nerdpaper/internal/palette"
	"github.com/adiepenbrock/nerdpaper/internal/placement"
)

// ErrEmptyIconSet is returned when a canvas is requested without any icons.
var ErrEmptyIconSet = errors.New("empty icon set")

// Rand is the random source for one canvas. Cell choice, badge color and
// icon choice all draw from it in that order, so a seeded source reproduces
// the same canvas.
type Rand interface {
	IntN(n int) int
}

// Params describes one canvas.
type Params struct {
	Width, Height int
	BadgeCount    int
	// BadgeSize is the grid spacing and must equal [badge.Size].
	BadgeSize     int
	PointSize     float64
	Palette       palette.Palette
	Icons         []string
}

// Placed records one badge drawn on the canvas.
type Placed struct {
	Cell  placement.Cell
	Color color.NRGBA
	Icon  string
}

// Result is a finished canvas.
type Result struct {
	Image  *image.RGBA
	Badges []Placed
}

// Generate renders a canvas. Each badge takes a random palette color as its
// fill and the canvas background as its glyph color, so icons appear cut
// out of the badge.
func Generate(p Params, f *glyph.Font, rng Rand) (*Result, error) {
	if len(p.Icons) == 0 {
		return nil, ErrEmptyIconSet
	}
	if p.BadgeSize != badge.Size {
		return nil, fmt.Errorf("%w: grid spacing %d differs from the %dpx badge",
			placement.ErrInvalidCanvasSize, p.BadgeSize, badge.Size)
	}

	cells, err := placement.Select(p.Width, p.Height, p.BadgeSize, p.BadgeCount, rng)
	if err != nil {
		return nil, fmt.Errorf("place badges: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(p.Palette.Background), image.Point{}, draw.Src)

	res := &Result{Image: img, Badges: make([]Placed, 0, len(cells))}
	for _, cell := range cells {
		c := p.Palette.Pick(rng)
		icon := p.Icons[rng.IntN(len(p.Icons))]

		b, err := badge.Draw(c, p.Palette.Background, p.PointSize, f, icon)
		if err != nil {
			return nil, fmt.Errorf("draw badge at (%d,%d): %w", cell.X, cell.Y, err)
		}
		badge.Overlay(img, b, image.Pt(cell.X, cell.Y))
		res.Badges = append(res.Badges, Placed{Cell: cell, Color: c, Icon: icon})
	}
	return res, nil
}
