package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "font.point_size")
// to their [FieldDoc] entries. The genconfig tool uses this map to annotate the
// generated config.default.toml with inline comments and alternative examples.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version. Do not edit.",
	},
	"icons": {
		Comment: "Icons drawn on the badges, picked at random for each badge.\nUsually single Nerd Font code points; each must exist in the font.\nWhitespace-only entries are rejected.",
		Alternatives: []string{
			`icons = ["\ue795", "\uf09b"]`,
		},
	},

	// ── Font ──────────────────────────────────────────────────────
	"font": {
		Comment: "Icon font. TTF, OTF and WOFF2 files are supported.",
	},
	"font.path": {
		Comment: "Font file, relative to this config file. Glob patterns (**, {a,b}) are\nsupported; the first match in lexical order is used.",
		Alternatives: []string{
			`path = "/usr/share/fonts/TTF/JetBrainsMonoNerdFont-Regular.ttf"`,
		},
	},
	"font.fallback": {
		Comment: "Downloaded from Google Fonts when path matches nothing.\nFormat: \"google:FAMILY:WEIGHT\". Cached next to the output files.",
		Alternatives: []string{
			`# fallback = "google:Material Symbols Outlined:400"`,
		},
	},
	"font.point_size": {
		Comment: "Glyph size in points (1pt = 1px). Glyphs larger than the badge are clipped.",
	},

	// ── Badge ─────────────────────────────────────────────────────
	"badge": {
		Comment: "Badges are square tiles placed on a grid of badge-sized cells.\nThe outer ring of cells stays empty and no two badges share a cell.",
	},
	"badge.size": {
		Comment: "Badge edge length in pixels. Only 64 is supported.",
	},
	"badge.count": {
		Comment: "Badges per wallpaper. Rendering fails for a dimension that has\nfewer free cells than this; nerdpaper warns about those at startup.",
	},

	// ── Palette ───────────────────────────────────────────────────
	"palette": {
		Comment: "Colors as \"#RRGGBB\" or \"#RRGGBBAA\". Each badge is filled with a random\npalette color and its icon is cut out in the background color.",
	},
	"palette.background": {
		Comment: "Wallpaper background, also used for the icon glyphs.",
	},
	"palette.colors": {
		Comment: "Badge fill colors. Leave empty to use fallback for every badge.",
	},
	"palette.fallback": {
		Comment: "Badge fill used when colors is empty.",
	},

	// ── Output ────────────────────────────────────────────────────
	"output.dir": {
		Comment: "Output directory, relative to this config file. --output overrides it.",
	},
	"output.pattern": {
		Comment: "File name for each dimension. Variables: {name}, {width}, {height}",
		Alternatives: []string{
			`pattern = "{name}.png"`,
			`pattern = "{name}/wallpaper-{width}x{height}.png"`,
		},
	},

	// ── Log ───────────────────────────────────────────────────────
	"log": {
		Comment: "Logging configuration",
	},
	"log.level": {
		Comment: "Minimum log level. Options: \"trace\", \"debug\", \"info\", \"warn\", \"error\"\n  trace logs every badge placed.",
		Alternatives: []string{
			`level = "debug"`,
			`level = "trace"`,
		},
	},
	"log.file": {
		Comment: "Also write logs to this file, rotated at max_size_mb.",
		Alternatives: []string{
			`# file = "nerdpaper.log"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},

	// ── Dimensions ────────────────────────────────────────────────
	"dimensions": {
		Comment: "Wallpapers to render, one PNG each. Names must be unique;\nselect a subset with --only \"fhd*\".",
	},
}
