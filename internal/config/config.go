// Package config provides configuration loading and defaults for nerdpaper.
//
// Configuration is read from a TOML file, or from YAML when the file name
// ends in .yaml or .yml. The package covers the icon font, badge layout, the
// color palette, output naming, logging, the icon set and the list of
// wallpaper dimensions to render, with defaults for everything but the
// dimensions a user is expected to pick.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/adiepenbrock/nerdpaper/internal/atomicfile"
	"github.com/adiepenbrock/nerdpaper/internal/badge"
	"github.com/adiepenbrock/nerdpaper/internal/fontsrc"
	"github.com/adiepenbrock/nerdpaper/internal/migrate"
	"github.com/adiepenbrock/nerdpaper/internal/palette"
	"github.com/adiepenbrock/nerdpaper/internal/paths"
	"github.com/adiepenbrock/nerdpaper/internal/placement"
)

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version used for migrations.
	Version int `toml:"version" yaml:"version"`
	// Icons are the glyph strings badges are drawn with, usually single
	// private-use code points from a Nerd Font.
	Icons []string `toml:"icons" yaml:"icons"`
	// Font selects the icon font.
	Font FontConfig `toml:"font" yaml:"font"`
	// Badge holds badge layout settings.
	Badge BadgeConfig `toml:"badge" yaml:"badge"`
	// Palette holds the canvas and badge colors.
	Palette PaletteConfig `toml:"palette" yaml:"palette"`
	// Output holds output directory and file naming settings.
	Output OutputConfig `toml:"output" yaml:"output"`
	// Log holds logging settings.
	Log LogConfig `toml:"log" yaml:"log"`
	// Dimensions lists the wallpapers to render, one PNG each.
	Dimensions []Dimension `toml:"dimensions" yaml:"dimensions"`
}

// FontConfig selects the icon font.
type FontConfig struct {
	// Path is a font file path or doublestar glob, relative to the config file.
	Path string `toml:"path" yaml:"path"`
	// Fallback is a "google:FAMILY:WEIGHT" spec used when Path matches nothing.
	Fallback string `toml:"fallback,omitempty" yaml:"fallback,omitempty"`
	// PointSize is the glyph size in points (equal to pixels).
	PointSize float64 `toml:"point_size" yaml:"point_size"`
}

// BadgeConfig holds badge layout settings.
type BadgeConfig struct {
	// Size is the badge edge length in pixels. Only 64 is supported.
	Size int `toml:"size" yaml:"size"`
	// Count is the number of badges placed on each canvas.
	Count int `toml:"count" yaml:"count"`
}

// PaletteConfig holds colors as "#RRGGBB" or "#RRGGBBAA" strings.
type PaletteConfig struct {
	// Background fills the canvas and colors every glyph.
	Background string `toml:"background" yaml:"background"`
	// Colors are the badge fills, picked uniformly at random.
	Colors []string `toml:"colors" yaml:"colors"`
	// Fallback is the badge fill used when Colors is empty.
	Fallback string `toml:"fallback" yaml:"fallback"`
}

// OutputConfig holds output directory and file naming settings.
type OutputConfig struct {
	// Dir is the directory PNGs are written to, relative to the config file.
	Dir string `toml:"dir" yaml:"dir"`
	// Pattern is the file name template ({name}, {width}, {height}).
	Pattern string `toml:"pattern" yaml:"pattern"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level" yaml:"level"`
	// File is an optional log file path; empty logs to stderr only.
	File string `toml:"file,omitempty" yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb" yaml:"max_size_mb"`
}

// Dimension is one wallpaper to render.
type Dimension struct {
	// Name identifies the dimension in logs, file names and --only filters.
	Name string `toml:"name" yaml:"name"`
	// Width is the canvas width in pixels.
	Width int `toml:"width" yaml:"width"`
	// Height is the canvas height in pixels.
	Height int `toml:"height" yaml:"height"`
}

// FileName expands the {name}, {width} and {height} placeholders in pattern.
// Unknown placeholders are left as they are.
func (d Dimension) FileName(pattern string) string {
	r := strings.NewReplacer(
		"{name}", d.Name,
		"{width}", strconv.Itoa(d.Width),
		"{height}", strconv.Itoa(d.Height),
	)
	return r.Replace(pattern)
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: migrate.Config.CurrentVersion,
		Icons: []string{
			"\ue795", // terminal
			"\ue627", // go
			"\ue7a8", // rust
			"\uf09b", // github
			"\uf17c", // linux
			"\ue702", // git
		},
		Font: FontConfig{
			Path:      "fonts/*NerdFont*.{ttf,otf,woff2}",
			PointSize: 42,
		},
		Badge: BadgeConfig{
			Size:  badge.Size,
			Count: 10,
		},
		Palette: PaletteConfig{
			Background: palette.Hex(palette.MonokaiBackground),
			Colors: []string{
				palette.Hex(palette.MonokaiYellow),
				palette.Hex(palette.MonokaiGreen),
				palette.Hex(palette.MonokaiOrange),
				palette.Hex(palette.MonokaiPurple),
				palette.Hex(palette.MonokaiPink),
				palette.Hex(palette.MonokaiBlue),
			},
			Fallback: palette.Hex(palette.MonokaiGreen),
		},
		Output: OutputConfig{
			Dir:     paths.OutputDir,
			Pattern: paths.DefaultOutputPattern,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ///////////////////////////////////////////////
// Example Configuration
// ///////////////////////////////////////////////

// ExampleConfig returns a Config suitable for generating config.default.toml:
// the defaults plus a set of common screen sizes.
func ExampleConfig() *Config {
	cfg := DefaultConfig()
	cfg.Dimensions = []Dimension{
		{Name: "fhd", Width: 1920, Height: 1080},
		{Name: "qhd", Width: 2560, Height: 1440},
		{Name: "uhd", Width: 3840, Height: 2160},
		{Name: "ultrawide", Width: 3440, Height: 1440},
	}
	return cfg
}

// ///////////////////////////////////////////////
// File Formats
// ///////////////////////////////////////////////

// Format is a config file encoding.
type Format int

const (
	// TOML is the default format.
	TOML Format = iota
	// YAML is used for .yaml and .yml files.
	YAML
)

// FormatFor returns the format implied by path's extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return TOML
	}
}

func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "toml"
}

// Unmarshal decodes data into v.
func (f Format) Unmarshal(data []byte, v any) error {
	if f == YAML {
		return yaml.Unmarshal(data, v)
	}
	return toml.Unmarshal(data, v)
}

// Marshal encodes v.
func (f Format) Marshal(v any) ([]byte, error) {
	if f == YAML {
		return yaml.Marshal(v)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

// PeekVersion reads just the version field from raw config bytes.
// Returns 1 if the version field is missing, zero, or unreadable.
func PeekVersion(data []byte, f Format) int {
	var doc migrate.Document
	if err := f.Unmarshal(data, &doc); err != nil {
		return 1
	}
	return doc.Version()
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads, migrates, normalizes and validates the configuration file at
// path. Values missing from the file keep their [DefaultConfig] value.
//
// Files from an older schema are upgraded in memory; the original is kept
// next to it as path+".bak" and the upgraded config is written back.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	format := FormatFor(path)

	var doc migrate.Document
	if err := format.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		doc = migrate.Document{}
	}

	version := doc.Version()
	shouldMigrate := migrate.Config.NeedsMigration(version)
	if shouldMigrate {
		if version > migrate.Config.CurrentVersion {
			return nil, fmt.Errorf("config version %d is newer than supported version %d", version, migrate.Config.CurrentVersion)
		}
		if backupErr := os.WriteFile(path+".bak", data, 0o644); backupErr != nil {
			slog.Warn("failed to write config backup", "error", backupErr)
		}
		if _, err := migrate.Config.Run(doc, version); err != nil {
			return nil, fmt.Errorf("migrate config: %w", err)
		}
		if data, err = format.Marshal(map[string]any(doc)); err != nil {
			return nil, fmt.Errorf("re-encode migrated config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := format.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Version = migrate.Config.CurrentVersion
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// Re-save after migration
	if shouldMigrate {
		if err := cfg.Save(path); err != nil {
			slog.Warn("failed to save migrated config", "error", err)
		}
	}

	return cfg, nil
}

// Save writes the config to path atomically, in the format implied by the
// file extension.
func (c *Config) Save(path string) error {
	data, err := FormatFor(path).Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, data, 0o644)
}

// normalize rewrites icons to Unicode NFC so decomposed sequences select the
// same precomposed glyph the font maps.
func (c *Config) normalize() {
	for i, icon := range c.Icons {
		c.Icons[i] = norm.NFC.String(icon)
	}
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Font.Path == "" && c.Font.Fallback == "" {
		errs = append(errs, errors.New("font.path or font.fallback must be set"))
	}
	if c.Font.Path != "" && !doublestar.ValidatePattern(filepath.ToSlash(c.Font.Path)) {
		errs = append(errs, fmt.Errorf("invalid font.path pattern %q", c.Font.Path))
	}
	if c.Font.Fallback != "" {
		if _, err := fontsrc.ParseFallback(c.Font.Fallback); err != nil {
			errs = append(errs, fmt.Errorf("font.fallback: %w", err))
		}
	}
	if c.Font.PointSize <= 0 {
		errs = append(errs, fmt.Errorf("font.point_size must be > 0, got %v", c.Font.PointSize))
	}

	if c.Badge.Size != badge.Size {
		errs = append(errs, fmt.Errorf("badge.size must be %d, got %d", badge.Size, c.Badge.Size))
	}
	if c.Badge.Count < 0 {
		errs = append(errs, fmt.Errorf("badge.count must be >= 0, got %d", c.Badge.Count))
	}

	if _, err := c.PaletteColors(); err != nil {
		errs = append(errs, err)
	}

	if c.Output.Pattern == "" {
		errs = append(errs, errors.New("output.pattern must not be empty"))
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level))
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, fmt.Errorf("log.max_size_mb must be >= 0, got %d", c.Log.MaxSizeMB))
	}

	if len(c.Icons) == 0 {
		errs = append(errs, errors.New("icons must not be empty"))
	}
	for i, icon := range c.Icons {
		if strings.TrimFunc(icon, unicode.IsSpace) == "" {
			errs = append(errs, fmt.Errorf("icons[%d] is empty or whitespace", i))
		}
	}

	if len(c.Dimensions) == 0 {
		errs = append(errs, errors.New("at least one [[dimensions]] entry is required"))
	}
	seen := make(map[string]bool, len(c.Dimensions))
	files := make(map[string]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		switch {
		case d.Name == "":
			errs = append(errs, fmt.Errorf("dimensions[%d]: name must not be empty", i))
		case seen[d.Name]:
			errs = append(errs, fmt.Errorf("dimensions[%d]: duplicate name %q", i, d.Name))
		}
		seen[d.Name] = true
		if c.Output.Pattern != "" {
			file := filepath.Clean(d.FileName(c.Output.Pattern))
			if prev, ok := files[file]; ok {
				errs = append(errs, fmt.Errorf("dimensions[%d] %q: output file %q is also written by %q; add {name} to output.pattern",
					i, d.Name, file, prev))
			} else {
				files[file] = d.Name
			}
		}
		if d.Width <= c.Badge.Size || d.Height <= c.Badge.Size {
			errs = append(errs, fmt.Errorf("dimensions[%d] %q: %dx%d must be larger than the %dpx badge in both directions",
				i, d.Name, d.Width, d.Height, c.Badge.Size))
		}
	}

	return errors.Join(errs...)
}

// Warnings reports settings that are valid but will fail or look wrong at
// render time: dimensions too small for the configured badge count, and
// badge colors too close to the background for the glyph to show.
func (c *Config) Warnings() []string {
	var out []string
	for _, d := range c.Dimensions {
		if capacity := placement.Capacity(d.Width, d.Height, c.Badge.Size); c.Badge.Count > capacity {
			out = append(out, fmt.Sprintf("dimension %q (%dx%d) has room for %d badges, %d configured",
				d.Name, d.Width, d.Height, capacity, c.Badge.Count))
		}
	}
	if p, err := c.PaletteColors(); err == nil {
		for _, low := range p.LowContrast(palette.DefaultMinContrast) {
			out = append(out, fmt.Sprintf("palette color %s is hard to tell apart from background %s",
				palette.Hex(low), palette.Hex(p.Background)))
		}
	}
	return out
}

// ///////////////////////////////////////////////
// Accessors
// ///////////////////////////////////////////////

// PaletteColors parses the palette section.
func (c *Config) PaletteColors() (palette.Palette, error) {
	var p palette.Palette
	var err error
	if p.Background, err = palette.ParseHex(c.Palette.Background); err != nil {
		return palette.Palette{}, fmt.Errorf("palette.background: %w", err)
	}
	if p.Fallback, err = palette.ParseHex(c.Palette.Fallback); err != nil {
		return palette.Palette{}, fmt.Errorf("palette.fallback: %w", err)
	}
	p.Colors = make([]color.NRGBA, 0, len(c.Palette.Colors))
	for i, s := range c.Palette.Colors {
		col, err := palette.ParseHex(s)
		if err != nil {
			return palette.Palette{}, fmt.Errorf("palette.colors[%d]: %w", i, err)
		}
		p.Colors = append(p.Colors, col)
	}
	return p, nil
}

// SelectDimensions returns the dimensions whose name matches the doublestar
// pattern, in config order. An empty pattern selects every dimension.
func (c *Config) SelectDimensions(pattern string) ([]Dimension, error) {
	if pattern == "" {
		return c.Dimensions, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid dimension pattern %q", pattern)
	}
	var out []Dimension
	for _, d := range c.Dimensions {
		if ok, _ := doublestar.Match(pattern, d.Name); ok {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no dimension matches %q", pattern)
	}
	return out, nil
}
