// Package fontsrc locates and loads the icon font.
//
// A font is resolved with this fallback chain:
//  1. A local file, given as a path or doublestar glob relative to the
//     config directory. The first match in lexical order wins.
//  2. A Google Fonts download from a "google:FAMILY:WEIGHT" spec (e.g.
//     "google:Inter:800"), cached on disk so it isn't re-fetched every run.
//
// WOFF2 data from either source is converted to SFNT before parsing.
package fontsrc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tdewolff/font"

	"github.com/adiepenbrock/nerdpaper/internal/glyph"
)

// ErrFontLoad is returned when no usable font could be loaded.
var ErrFontLoad = errors.New("font load")

// Spec describes where to look for the font.
type Spec struct {
	// Path is a font file path or doublestar glob. Relative paths are
	// resolved against BaseDir.
	Path string
	// Fallback is an optional "google:FAMILY:WEIGHT" spec tried when Path
	// matches nothing.
	Fallback string
	// BaseDir anchors a relative Path.
	BaseDir string
	// CacheDir holds downloaded fonts.
	CacheDir string
}

// Resolve loads the font described by spec using a shared default [Client].
func Resolve(ctx context.Context, spec Spec) (*glyph.Font, error) {
	return defaultClient().Resolve(ctx, spec)
}

// Resolve loads the font described by spec, trying the local path first and
// the Google Fonts fallback second. Every failure wraps [ErrFontLoad].
func (c *Client) Resolve(ctx context.Context, spec Spec) (*glyph.Font, error) {
	if spec.Path != "" {
		path, err := findLocal(spec.BaseDir, spec.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFontLoad, err)
		}
		if path != "" {
			f, err := loadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrFontLoad, path, err)
			}
			c.logger().Debug("font loaded", "source", "local", "path", path, "family", f.Name())
			return f, nil
		}
		if spec.Fallback == "" {
			return nil, fmt.Errorf("%w: no font file matches %q", ErrFontLoad, spec.Path)
		}
		c.logger().Debug("no local font, trying fallback", "pattern", spec.Path, "fallback", spec.Fallback)
	}

	if spec.Fallback == "" {
		return nil, fmt.Errorf("%w: no font configured (set font.path or font.fallback)", ErrFontLoad)
	}

	gf, err := ParseFallback(spec.Fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontLoad, err)
	}
	data, err := c.Fetch(ctx, gf, spec.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("%w: google fonts fallback: %w", ErrFontLoad, err)
	}
	f, err := glyph.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFontLoad, spec.Fallback, err)
	}
	c.logger().Debug("font loaded", "source", "google", "family", f.Name(), "weight", gf.Weight)
	return f, nil
}

// LocalPath returns the local font file spec.Path resolves to, or "" when
// spec has no path or nothing matches.
func LocalPath(spec Spec) (string, error) {
	if spec.Path == "" {
		return "", nil
	}
	return findLocal(spec.BaseDir, spec.Path)
}

// findLocal expands pattern relative to baseDir and returns the first match
// in lexical order, or "" when nothing matches.
func findLocal(baseDir, pattern string) (string, error) {
	if !filepath.IsAbs(pattern) && baseDir != "" {
		pattern = filepath.Join(baseDir, pattern)
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return "", fmt.Errorf("invalid font pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[0], nil
}

// loadFile reads and parses a font file, converting WOFF2 if needed.
func loadFile(path string) (*glyph.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err = maybeConvertWOFF2(path, data)
	if err != nil {
		return nil, err
	}
	return glyph.Parse(data)
}

// maybeConvertWOFF2 converts WOFF2 font data to SFNT format if needed.
func maybeConvertWOFF2(name string, data []byte) ([]byte, error) {
	if isWOFF2(name, data) {
		sfnt, err := font.ToSFNT(data)
		if err != nil {
			return nil, fmt.Errorf("convert woff2 to sfnt: %w", err)
		}
		return sfnt, nil
	}
	return data, nil
}

// isWOFF2 checks whether font data is WOFF2 by extension or magic bytes.
// WOFF2 magic: 0x774F4632 ("wOF2")
func isWOFF2(name string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(name), ".woff2") {
		return true
	}
	return len(data) >= 4 && string(data[:4]) == "wOF2"
}
