// Package placement chooses where badges go on a canvas.
//
// The canvas is divided into a grid of badge-sized cells. The outermost ring
// of cells is never used, so badges never touch the canvas edges, and no two
// badges share a cell.
package placement

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCanvasSize is returned when the canvas is not larger than one
	// badge in both directions, or the badge size is not positive.
	ErrInvalidCanvasSize = errors.New("invalid canvas size")
	// ErrPlacementExhausted is returned when more badges are requested than
	// the grid has distinct cells.
	ErrPlacementExhausted = errors.New("placement exhausted")
)

// Rand is the random source consumed by [Select]. *math/rand/v2.Rand
// satisfies it.
type Rand interface {
	IntN(n int) int
}

// Cell is the top-left pixel corner of a badge. Both coordinates are
// multiples of the badge size.
type Cell struct {
	X, Y int
}

// grid returns the number of usable grid indices along each axis. Indices
// run from 1 to rows-1 horizontally and 1 to cols-1 vertically.
func grid(width, height, size int) (rows, cols int, err error) {
	if size <= 0 || width <= size || height <= size {
		return 0, 0, fmt.Errorf("%w: %dx%d with badge size %d", ErrInvalidCanvasSize, width, height, size)
	}
	return (width - size) / size, (height - size) / size, nil
}

// Capacity returns how many distinct cells [Select] can hand out for a
// canvas, or 0 when the size is invalid.
func Capacity(width, height, size int) int {
	rows, cols, err := grid(width, height, size)
	if err != nil || rows < 1 || cols < 1 {
		return 0
	}
	return (rows - 1) * (cols - 1)
}

// Select returns count distinct cells chosen uniformly at random from the
// interior of a width×height canvas. Candidates are enumerated in row-major
// order and sampled without replacement, so the result depends only on the
// state of rng. A count of zero or less yields an empty result.
func Select(width, height, size, count int, rng Rand) ([]Cell, error) {
	rows, cols, err := grid(width, height, size)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return []Cell{}, nil
	}

	capacity := Capacity(width, height, size)
	if count > capacity {
		return nil, fmt.Errorf("%w: %d badges requested, %dx%d canvas has room for %d",
			ErrPlacementExhausted, count, width, height, capacity)
	}

	candidates := make([]Cell, 0, capacity)
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			candidates = append(candidates, Cell{X: i * size, Y: j * size})
		}
	}

	// Partial Fisher-Yates: after step k the first k+1 entries are the sample.
	for k := 0; k < count; k++ {
		r := k + rng.IntN(len(candidates)-k)
		candidates[k], candidates[r] = candidates[r], candidates[k]
	}
	return candidates[:count], nil
}
