package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/poiesic/fixit/seed"
)

// DefaultDebounce is how long the watcher waits after the last change before
// reseeding, so a scrape job rewriting several files triggers one pass.
const DefaultDebounce = 2 * time.Second

// RefreshFunc rebuilds the lexical indexes after a reseed.
type RefreshFunc func(context.Context) error

// Watcher reseeds collections when their corpus files change on disk.
// Scrape jobs typically replace a file with a rename, which drops a watch
// installed on the file itself, so the watcher monitors the parent
// directories and filters events down to the corpus paths.
type Watcher struct {
	seeder   *seed.Seeder
	refresh  RefreshFunc
	corpus   seed.Corpus
	debounce time.Duration
	logger   *slog.Logger

	fs       *fsnotify.Watcher
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long changes are coalesced before reseeding.
// Default is DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets a custom logger.
// Default is slog.Default().
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher that reseeds from the files named in corpus
// and refreshes the lexical indexes afterwards. At least one corpus path is
// required.
func NewWatcher(seeder *seed.Seeder, refresh RefreshFunc, corpus seed.Corpus, opts ...WatcherOption) (*Watcher, error) {
	if seeder == nil {
		return nil, ErrSeederRequired
	}
	if refresh == nil {
		return nil, ErrRefreshRequired
	}

	w := &Watcher{
		seeder:   seeder,
		refresh:  refresh,
		corpus:   corpus,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "watcher")

	if len(w.paths()) == 0 {
		return nil, ErrNoWatchPaths
	}
	return w, nil
}

// paths returns the non-empty corpus paths, cleaned for comparison.
func (w *Watcher) paths() []string {
	var out []string
	for _, p := range []string{w.corpus.PartsPath, w.corpus.BlogsPath, w.corpus.RepairsPath} {
		if p != "" {
			out = append(out, filepath.Clean(p))
		}
	}
	return out
}

// corpusFor maps one changed file back to a partial corpus covering only the
// collections seeded from it.
func (w *Watcher) corpusFor(path string) seed.Corpus {
	var c seed.Corpus
	switch {
	case w.corpus.PartsPath != "" && path == filepath.Clean(w.corpus.PartsPath):
		c.PartsPath = w.corpus.PartsPath
	case w.corpus.BlogsPath != "" && path == filepath.Clean(w.corpus.BlogsPath):
		c.BlogsPath = w.corpus.BlogsPath
	case w.corpus.RepairsPath != "" && path == filepath.Clean(w.corpus.RepairsPath):
		c.RepairsPath = w.corpus.RepairsPath
	}
	return c
}

// match reports the corpus path an event refers to, if it is a change worth
// reseeding for. Chmod-only events are noise.
func (w *Watcher) match(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return "", false
	}
	name := filepath.Clean(event.Name)
	for _, p := range w.paths() {
		if name == p {
			return p, true
		}
	}
	return "", false
}

// Start begins watching the corpus files' directories. The watch loop runs
// until Stop is called or ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dirs := make(map[string]struct{})
	for _, p := range w.paths() {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Info("watching corpus directory", "dir", dir)
	}

	w.fs = fs
	w.done = make(chan struct{})
	go w.loop(ctx)
	return nil
}

// Stop ends the watch loop and waits for it to exit. Safe to call more than
// once; a no-op if Start was never called.
func (w *Watcher) Stop() {
	if w.done == nil {
		return
	}
	w.stopOnce.Do(func() {
		close(w.stop)
		w.fs.Close()
	})
	<-w.done
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			path, ok := w.match(event)
			if !ok {
				continue
			}
			pending[path] = struct{}{}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "err", err)
		case <-timer.C:
			w.reseed(ctx, pending)
			pending = make(map[string]struct{})
		}
	}
}

// reseed replays each changed corpus file and rebuilds the lexical indexes
// once at the end.
func (w *Watcher) reseed(ctx context.Context, pending map[string]struct{}) {
	for path := range pending {
		w.logger.Info("corpus file changed", "path", path)
		stats, err := w.seeder.Seed(ctx, w.corpusFor(path), nil)
		if err != nil {
			w.logger.Error("reseed failed", "path", path, "err", err)
			continue
		}
		total := stats.Total()
		w.logger.Info("reseeded",
			"path", path,
			"stored", total.Stored,
			"skipped", total.Skipped,
			"dropped", total.Dropped)
	}
	if err := w.refresh(ctx); err != nil {
		w.logger.Error("index refresh failed", "err", err)
	}
}
