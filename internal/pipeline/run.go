package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kingspeech/assetgen/internal/assets"
	"github.com/kingspeech/assetgen/internal/derivative"
	"github.com/kingspeech/assetgen/internal/manifest"
)

// Result is the outcome of one AssetSpec.
type Result struct {
	Spec        assets.AssetSpec
	Skipped     bool
	Derivatives []derivative.Derivative
}

// Report collects the results of a run in registry order.
type Report struct {
	Results  []Result
	Started  time.Time
	Finished time.Time
}

// Generated counts derivatives written during the run.
func (r *Report) Generated() int {
	n := 0
	for _, res := range r.Results {
		for _, d := range res.Derivatives {
			if !d.Fresh {
				n++
			}
		}
	}
	return n
}

// Skipped counts specs whose source was missing.
func (r *Report) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Skipped {
			n++
		}
	}
	return n
}

// Runner executes the generator over a registry.
type Runner struct {
	Generator *derivative.Generator
	// Out receives the human-readable progress lines.
	Out io.Writer
	// Jobs is the number of specs processed concurrently; values below 2 run sequentially.
	Jobs int

	mu sync.Mutex
}

// Run provisions every output directory, then generates each spec. Missing
// sources are reported and skipped; any other error aborts the run.
func (r *Runner) Run(ctx context.Context, reg *assets.Registry) (*Report, error) {
	report := &Report{Started: time.Now()}

	for _, dir := range reg.OutputDirs() {
		if err := derivative.EnsureDir(dir); err != nil {
			return report, err
		}
	}

	specs := reg.Specs()
	results := make([]Result, len(specs))

	if r.Jobs < 2 {
		for i, spec := range specs {
			res, err := r.runSpec(ctx, spec)
			results[i] = res
			if err != nil {
				report.Results = results[:i+1]
				return report, err
			}
		}
	} else {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(r.Jobs)
		for i, spec := range specs {
			g.Go(func() error {
				res, err := r.runSpec(gCtx, spec)
				results[i] = res
				return err
			})
		}
		if err := g.Wait(); err != nil {
			for _, res := range results {
				if res.Spec.Name != "" {
					report.Results = append(report.Results, res)
				}
			}
			return report, err
		}
	}

	report.Results = results
	report.Finished = time.Now()
	r.printf("Done\n")
	slog.Info("Generation complete", "generated", report.Generated(), "skipped_specs", report.Skipped(), "elapsed", report.Finished.Sub(report.Started))
	return report, nil
}

func (r *Runner) runSpec(ctx context.Context, spec assets.AssetSpec) (Result, error) {
	slog.Debug("Processing asset spec", "spec", spec.Name, "source", spec.SourcePath, "widths", spec.Widths)

	ds, err := r.Generator.GenerateSpec(ctx, spec)
	res := Result{Spec: spec, Derivatives: ds}

	var missing *derivative.MissingSourceError
	switch {
	case errors.As(err, &missing):
		slog.Warn("Source not found, skipping", "spec", spec.Name, "source", missing.Path)
		r.printf("%s source not found, skip\n", displayName(spec.Name))
		res.Skipped = true
		return res, nil
	case err != nil:
		return res, fmt.Errorf("asset %q: %w", spec.Name, err)
	}

	r.printf("%s images generated\n", displayName(spec.Name))
	return res, nil
}

// Plan prints the outputs a run would write without touching the filesystem.
func (r *Runner) Plan(reg *assets.Registry) {
	for _, spec := range reg.Specs() {
		r.printf("%s (%s)\n", displayName(spec.Name), spec.SourcePath)
		for _, p := range spec.OutputPaths() {
			r.printf("  %s\n", p)
		}
	}
}

func (r *Runner) printf(format string, args ...any) {
	if r.Out == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.Out, format, args...)
}

func displayName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Manifest converts the report into manifest entries.
func (r *Report) Manifest(opts derivative.Options) *manifest.Manifest {
	m := &manifest.Manifest{
		Settings: manifest.Settings{
			Quality:     opts.Quality,
			Method:      opts.Method,
			Incremental: opts.Incremental,
			Timestamp:   r.Started.UTC().Format(time.RFC3339),
		},
	}

	for _, res := range r.Results {
		if res.Skipped {
			m.Entries = append(m.Entries, manifest.Entry{
				Spec:   res.Spec.Name,
				Status: manifest.StatusSkipped,
				Source: res.Spec.SourcePath,
			})
			continue
		}
		for _, d := range res.Derivatives {
			status := manifest.StatusGenerated
			if d.Fresh {
				status = manifest.StatusFresh
			}
			m.Entries = append(m.Entries, manifest.Entry{
				Spec:         res.Spec.Name,
				Status:       status,
				Source:       d.SourcePath,
				OutputPath:   d.OutputPath,
				TargetWidth:  d.TargetWidth,
				SourceWidth:  d.SourceWidth,
				SourceHeight: d.SourceHeight,
				Width:        d.Width,
				Height:       d.Height,
				Bytes:        d.Bytes,
			})
		}
	}
	return m
}
