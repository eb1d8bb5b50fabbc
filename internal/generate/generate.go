// Package generate renders and writes one wallpaper per configured
// dimension.
//
// Canvases are rendered sequentially and fail in isolation: an error in one
// dimension is logged and recorded in the [Report] while the rest continue.
package generate

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/adiepenbrock/nerdpaper/internal/canvas"
	"github.com/adiepenbrock/nerdpaper/internal/config"
	"github.com/adiepenbrock/nerdpaper/internal/glyph"
	"github.com/adiepenbrock/nerdpaper/internal/logger"
	"github.com/adiepenbrock/nerdpaper/internal/output"
	"github.com/adiepenbrock/nerdpaper/internal/palette"
	"github.com/adiepenbrock/nerdpaper/internal/paths"
)

// ///////////////////////////////////////////////
// Job and Report
// ///////////////////////////////////////////////

// Job describes one generation run.
type Job struct {
	// Dimensions are rendered in order, one PNG each.
	Dimensions []config.Dimension
	// Params holds everything but the canvas size, which comes from each
	// dimension.
	Params canvas.Params
	// OutDir is the directory output files are written to.
	OutDir string
	// Pattern is the output file name template, see [output.FileName].
	Pattern string
	// Seed reproduces a previous run. Zero picks a random seed.
	Seed uint64
}

// Outcome is the result of rendering one dimension.
type Outcome struct {
	Dimension config.Dimension
	// Path is the output file, set even when writing it failed.
	Path string
	// Seed is the run seed the canvas was derived from.
	Seed   uint64
	Badges int
	Err    error
}

// Report collects the outcome of every dimension in a run.
type Report struct {
	Seed    uint64
	Results []Outcome
}

// Failed returns the number of dimensions that were not written.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Results {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// ///////////////////////////////////////////////
// Run
// ///////////////////////////////////////////////

// Run renders every dimension in job with font f. It returns once all
// dimensions are done or ctx is cancelled; dimensions skipped because of
// cancellation are reported with ctx's error.
func Run(ctx context.Context, job Job, f *glyph.Font, log *slog.Logger) Report {
	if log == nil {
		log = slog.Default()
	}
	seed := job.Seed
	if seed == 0 {
		seed = rand.Uint64()
		log.Info("using random seed", "seed", seed)
	}

	ws := paths.Workspace{Root: job.OutDir}
	report := Report{Seed: seed, Results: make([]Outcome, 0, len(job.Dimensions))}
	for _, d := range job.Dimensions {
		out := Outcome{
			Dimension: d,
			Path:      ws.File(output.FileName(job.Pattern, d)),
			Seed:      seed,
		}
		if err := ctx.Err(); err != nil {
			out.Err = fmt.Errorf("cancelled: %w", err)
			report.Results = append(report.Results, out)
			continue
		}

		start := time.Now()
		out.Badges, out.Err = render(job, d, out.Path, f, seed, log)
		if out.Err != nil {
			log.Error("wallpaper failed", "dimension", d.Name, "error", out.Err)
		} else {
			log.Info("wallpaper written",
				"dimension", d.Name,
				"path", out.Path,
				"size", fmt.Sprintf("%dx%d", d.Width, d.Height),
				"badges", out.Badges,
				"elapsed", time.Since(start).Round(time.Millisecond),
			)
		}
		report.Results = append(report.Results, out)
	}
	return report
}

// render draws and writes a single dimension. The returned error names the
// stage that failed.
func render(job Job, d config.Dimension, path string, f *glyph.Font, seed uint64, log *slog.Logger) (int, error) {
	p := job.Params
	p.Width, p.Height = d.Width, d.Height

	res, err := canvas.Generate(p, f, Source(seed, d.Name))
	if err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}
	for _, b := range res.Badges {
		logger.Trace(log, "badge placed",
			"dimension", d.Name,
			"x", b.Cell.X,
			"y", b.Cell.Y,
			"color", palette.Hex(b.Color),
			"icon", fmt.Sprintf("%+q", b.Icon),
		)
	}
	if err := output.WritePNG(path, res.Image); err != nil {
		return len(res.Badges), fmt.Errorf("write: %w", err)
	}
	return len(res.Badges), nil
}

// Source returns the random source for the canvas named name in a run with
// the given seed. The stream depends on the name rather than the position,
// so a single dimension selected with --only renders the same as in a full
// run.
func Source(seed uint64, name string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}
