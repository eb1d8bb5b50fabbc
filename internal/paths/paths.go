// Package paths centralizes file and directory names used across the project.
// All default file names are defined here as the single source of truth.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Default file and directory names.
const (
	ConfigFile   = "nerdpaper.toml"
	LockFile     = ".nerdpaper.lock"
	OutputDir    = "out"
	FontCacheDir = ".font-cache"
	BinaryName   = "nerdpaper"
)

// DefaultOutputPattern is the output file name template used when the config
// does not set one. Matches the file names the first release wrote.
const DefaultOutputPattern = "image_{width}x{height}.png"

// ///////////////////////////////////////////////
// Workspace
// ///////////////////////////////////////////////

// Workspace provides path construction methods rooted at an output directory.
type Workspace struct {
	Root string
}

// Lock returns the full path to the watch-mode lock file.
func (w Workspace) Lock() string { return filepath.Join(w.Root, LockFile) }

// FontCache returns the full path to the downloaded font cache directory.
func (w Workspace) FontCache() string { return filepath.Join(w.Root, FontCacheDir) }

// File returns the full path for an output file name.
func (w Workspace) File(name string) string { return filepath.Join(w.Root, name) }
