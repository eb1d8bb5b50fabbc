// Package output names and writes finished wallpapers.
package output

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/adiepenbrock/nerdpaper/internal/atomicfile"
	"github.com/adiepenbrock/nerdpaper/internal/config"
)

// ErrImageWrite is returned when a wallpaper cannot be encoded or persisted.
var ErrImageWrite = errors.New("image write")

// FileName expands the {name}, {width} and {height} placeholders in pattern
// for d. Unknown placeholders are left as they are.
func FileName(pattern string, d config.Dimension) string {
	return d.FileName(pattern)
}

var encoder = png.Encoder{CompressionLevel: png.BestCompression}

// WritePNG encodes img as PNG and atomically writes it to path, creating the
// parent directory if needed. A failed write never leaves a partial file at
// path.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %w", ErrImageWrite, err)
	}
	err := atomicfile.WriteFrom(path, 0o644, func(w io.Writer) error {
		return encoder.Encode(w, img)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrImageWrite, path, err)
	}
	return nil
}
