package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kingspeech/assetgen/internal/assets"
)

// DefaultDebounce is how long a source must stay quiet before it is regenerated.
const DefaultDebounce = 500 * time.Millisecond

// Handler regenerates a single spec.
type Handler func(ctx context.Context, spec assets.AssetSpec) error

// Watcher regenerates derivatives when a registered source file changes.
type Watcher struct {
	reg      *assets.Registry
	handle   Handler
	watcher  *fsnotify.Watcher
	Debounce time.Duration
}

// New creates a watcher over the source files of reg.
func New(reg *assets.Registry, handle Handler) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		reg:      reg,
		handle:   handle,
		watcher:  fsWatcher,
		Debounce: DefaultDebounce,
	}, nil
}

// Start registers the directory of every source. Directories are watched
// rather than files so that editors replacing a file are still seen.
func (w *Watcher) Start() error {
	seen := make(map[string]bool)
	for _, spec := range w.reg.Specs() {
		dir := filepath.Dir(spec.SourcePath)
		if seen[dir] {
			continue
		}
		seen[dir] = true

		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch folder %s: %w", dir, err)
		}
		slog.Info("Watching folder", "dir", dir)
	}
	return nil
}

// Close releases the underlying fsnotify watcher. Run closes it on return.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	d := newDebouncer(w.Debounce)
	defer d.stopAll()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			spec, ok := w.reg.SourceFor(event.Name)
			if !ok {
				continue
			}
			d.schedule(ctx, spec.Name)

		case f := <-d.fire:
			if !d.take(f) {
				continue
			}
			spec, ok := w.reg.Lookup(f.name)
			if !ok {
				continue
			}
			slog.Info("Source changed, regenerating", "spec", f.name, "source", spec.SourcePath)
			if err := w.handle(ctx, spec); err != nil {
				slog.Error("Regeneration failed", "spec", f.name, "err", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "err", err)
		}
	}
}

type firing struct {
	name string
	gen  uint64
}

type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

// debouncer coalesces events per asset. It is owned by a single goroutine;
// only the timer callbacks touch fire. Each schedule bumps the generation so a
// timer that fired before being superseded is recognised as stale.
type debouncer struct {
	delay   time.Duration
	fire    chan firing
	pending map[string]pendingTimer
	gen     uint64
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		fire:    make(chan firing),
		pending: make(map[string]pendingTimer),
	}
}

func (d *debouncer) schedule(ctx context.Context, name string) {
	if p, ok := d.pending[name]; ok {
		p.timer.Stop()
	}
	d.gen++
	f := firing{name: name, gen: d.gen}
	d.pending[name] = pendingTimer{
		gen: f.gen,
		timer: time.AfterFunc(d.delay, func() {
			select {
			case d.fire <- f:
			case <-ctx.Done():
			}
		}),
	}
}

// take reports whether f is the current timer for its asset and clears it.
func (d *debouncer) take(f firing) bool {
	p, ok := d.pending[f.name]
	if !ok || p.gen != f.gen {
		return false
	}
	delete(d.pending, f.name)
	return true
}

func (d *debouncer) stopAll() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
}
