// Package main implements the nerdpaper command, which renders wallpapers
// covered with randomly placed Nerd Font icon badges, one PNG per configured
// screen size.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	rootpkg "github.com/adiepenbrock/nerdpaper"
	"github.com/adiepenbrock/nerdpaper/internal/canvas"
	"github.com/adiepenbrock/nerdpaper/internal/config"
	"github.com/adiepenbrock/nerdpaper/internal/fontsrc"
	"github.com/adiepenbrock/nerdpaper/internal/generate"
	"github.com/adiepenbrock/nerdpaper/internal/logger"
	"github.com/adiepenbrock/nerdpaper/internal/paths"
	"github.com/adiepenbrock/nerdpaper/internal/watch"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags:
//   - goreleaser: -X main.version={{.Version}}  -> "0.1.0"
//   - make build: -X main.version=$(VERSION)    -> "0.0.0-dev+05ffee5"
//
// When ldflags are not set (bare go build), resolveVersion reads the VCS info
// that Go embeds automatically.
var version = "dev"

// resolveVersion returns the build version string. If [version] was set via
// ldflags at build time it is returned as-is; otherwise VCS revision and dirty
// state embedded by the Go toolchain are used to construct a "dev+<hash>" tag.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Flags
// ///////////////////////////////////////////////

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// options holds the parsed command line.
type options struct {
	configPath  string
	outputDir   string
	only        string
	seed        uint64
	count       int
	watch       bool
	init        bool
	logLevel    string
	logFile     string
	showVersion bool
}

// parseFlags parses args (without the program name).
func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	flags := flag.NewFlagSet(paths.BinaryName, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&o.configPath, "config", paths.ConfigFile, "Config file (TOML, or YAML with a .yaml/.yml extension)")
	flags.StringVar(&o.outputDir, "output", "", "Output directory, overrides output.dir")
	flags.StringVar(&o.only, "only", "", "Render only dimensions whose name matches this glob")
	flags.Uint64Var(&o.seed, "seed", 0, "Random seed to reproduce a previous run (0 picks one)")
	flags.IntVar(&o.count, "count", -1, "Badges per wallpaper, overrides badge.count")
	flags.BoolVar(&o.watch, "watch", false, "Regenerate whenever the config file changes")
	flags.BoolVar(&o.init, "init", false, "Write an example config to -config and exit")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level, overrides log.level")
	flags.StringVar(&o.logFile, "log-file", "", "Log file, overrides log.file")
	flags.BoolVar(&o.showVersion, "version", false, "Print the version and exit")
	if err := flags.Parse(args); err != nil {
		return o, err
	}
	if flags.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	if o.configPath == "" {
		return o, errors.New("-config must not be empty")
	}
	return o, nil
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	ctx, stop := context.WithCancel(context.Background())
	sigCh := signalChannel()
	go func() {
		<-sigCh
		stop()
	}()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "%s %s\n", paths.BinaryName, resolveVersion())
		return exitOK
	}

	if opts.init {
		if err := writeDefaultConfig(opts.configPath); err != nil {
			fmt.Fprintf(stderr, "fatal: %v\n", err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "wrote %s\n", opts.configPath)
		return exitOK
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "fatal: load config: %v\n", err)
		return exitFailure
	}

	log, logCloser := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.Log.Level),
		Console:   stderr,
		File:      resolvePath(opts.configPath, cfg.Log.File),
		MaxSizeMB: cfg.Log.MaxSizeMB,
	})
	defer logCloser.Close()
	slog.SetDefault(log)

	log.Info("nerdpaper starting", "version", resolveVersion(), "config", opts.configPath)

	ws := paths.Workspace{Root: outputDir(opts, cfg)}

	if !opts.watch {
		report, err := generateOnce(ctx, opts, cfg, ws, log)
		if err != nil {
			logger.Fail(log, "generation aborted", "error", err)
			return exitFailure
		}
		if n := report.Failed(); n > 0 {
			logger.Fail(log, "some wallpapers failed", "failed", n, "total", len(report.Results))
			return exitFailure
		}
		return exitOK
	}

	if err := os.MkdirAll(ws.Root, 0o755); err != nil {
		logger.Fail(log, "create output dir", "error", err)
		return exitFailure
	}
	token := lockToken()
	lock, err := acquireLock(ws, token)
	if err != nil {
		logger.Fail(log, "another watcher is using the output directory", "dir", ws.Root, "error", err)
		return exitFailure
	}
	defer releaseLock(ws, token, lock)

	w, err := watch.New(watchedFiles(opts, cfg), watch.WithLogger(log))
	if err != nil {
		logger.Fail(log, "watch config", "error", err)
		return exitFailure
	}
	defer w.Close()
	if w.Polling() {
		log.Info("using polling mode for file watching")
	}

	watchLoop(ctx, w, func() {
		regenerate(ctx, opts, ws, log)
	})
	log.Info("received shutdown signal")
	return exitOK
}

// ///////////////////////////////////////////////
// Config
// ///////////////////////////////////////////////

// writeDefaultConfig writes the embedded example config to path. An existing
// file is never overwritten.
func writeDefaultConfig(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s already exists", path)
		}
		return fmt.Errorf("create config: %w", err)
	}
	if _, err := f.Write(rootpkg.DefaultConfigTOML); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}

// loadConfig loads the config file and applies command line overrides.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w (run with -init to create one)", err)
		}
		return nil, err
	}
	if opts.count >= 0 {
		cfg.Badge.Count = opts.count
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFile != "" {
		abs, err := filepath.Abs(opts.logFile)
		if err != nil {
			return nil, fmt.Errorf("resolve -log-file: %w", err)
		}
		cfg.Log.File = abs
	}
	return cfg, nil
}

// resolvePath returns p relative to the config file's directory, unless p is
// empty or absolute.
func resolvePath(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

// outputDir returns the -output flag when set, otherwise output.dir resolved
// against the config file's directory.
func outputDir(opts options, cfg *config.Config) string {
	if opts.outputDir != "" {
		return opts.outputDir
	}
	return resolvePath(opts.configPath, cfg.Output.Dir)
}

// ///////////////////////////////////////////////
// Generation
// ///////////////////////////////////////////////

// generateOnce resolves the font and renders every selected dimension. The
// returned error covers problems that stop the whole run; per-dimension
// failures are in the report.
func generateOnce(ctx context.Context, opts options, cfg *config.Config, ws paths.Workspace, log *slog.Logger) (generate.Report, error) {
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	dims, err := cfg.SelectDimensions(opts.only)
	if err != nil {
		return generate.Report{}, err
	}
	pal, err := cfg.PaletteColors()
	if err != nil {
		return generate.Report{}, err
	}

	font, err := fontsrc.Resolve(ctx, fontsrc.Spec{
		Path:     cfg.Font.Path,
		Fallback: cfg.Font.Fallback,
		BaseDir:  filepath.Dir(opts.configPath),
		CacheDir: ws.FontCache(),
	})
	if err != nil {
		return generate.Report{}, err
	}
	log.Debug("font loaded", "name", font.Name(), "glyphs", font.NumGlyphs())

	job := generate.Job{
		Dimensions: dims,
		Params: canvas.Params{
			BadgeCount: cfg.Badge.Count,
			BadgeSize:  cfg.Badge.Size,
			PointSize:  cfg.Font.PointSize,
			Palette:    pal,
			Icons:      cfg.Icons,
		},
		OutDir:  ws.Root,
		Pattern: cfg.Output.Pattern,
		Seed:    opts.seed,
	}
	return generate.Run(ctx, job, font, log), nil
}

// regenerate reloads the config and renders again. Errors are logged; the
// watcher keeps running so the next save can fix them.
func regenerate(ctx context.Context, opts options, ws paths.Workspace, log *slog.Logger) {
	cfg, err := loadConfig(opts)
	if err != nil {
		log.Error("config reload failed", "error", err)
		return
	}
	report, err := generateOnce(ctx, opts, cfg, ws, log)
	if err != nil {
		log.Error("generation aborted", "error", err)
		return
	}
	if n := report.Failed(); n > 0 {
		log.Warn("some wallpapers failed", "failed", n, "total", len(report.Results))
	}
}

// ///////////////////////////////////////////////
// Watch Loop
// ///////////////////////////////////////////////

// watchedFiles returns the config file and, when font.path matches a local
// file, that font file.
func watchedFiles(opts options, cfg *config.Config) []string {
	files := []string{opts.configPath}
	font, err := fontsrc.LocalPath(fontsrc.Spec{Path: cfg.Font.Path, BaseDir: filepath.Dir(opts.configPath)})
	if err == nil && font != "" {
		files = append(files, font)
	}
	return files
}

// changeSource delivers a signal whenever the inputs change.
type changeSource interface {
	Events() <-chan struct{}
}

// watchLoop calls regen once, then again after every change, until ctx is
// done.
func watchLoop(ctx context.Context, src changeSource, regen func()) {
	regen()
	for {
		select {
		case <-ctx.Done():
			return
		case <-src.Events():
			regen()
		}
	}
}

// ///////////////////////////////////////////////
// Lock File
// ///////////////////////////////////////////////

// lockToken generates a random 16-character hex token used to prove ownership
// of the lock file, so [releaseLock] only deletes the file if this process
// wrote it.
func lockToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// acquireLock creates the lock file in the output directory, takes an
// exclusive advisory lock on it and writes "PID:TOKEN". The returned handle
// must stay open while watching.
func acquireLock(ws paths.Workspace, token string) (*os.File, error) {
	f, err := os.OpenFile(ws.Lock(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d:%s", os.Getpid(), token); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return f, nil
}

// releaseLock unlocks and closes f, then removes the lock file if it still
// carries token.
func releaseLock(ws paths.Workspace, token string, f *os.File) {
	if f != nil {
		_ = unlockFile(f)
		f.Close()
	}
	data, err := os.ReadFile(ws.Lock())
	if err != nil {
		return
	}
	parts := strings.SplitN(string(data), ":", 2)
	if len(parts) == 2 && parts[1] == token {
		os.Remove(ws.Lock())
	}
}
