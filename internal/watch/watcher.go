// Package watch keeps a migration root under observation and re-applies
// the rebase pipeline to files as they change on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/docfold/mdrebase/internal/batch"
	"github.com/docfold/mdrebase/internal/rewrite"
)

// DefaultDebounce is how long the watcher waits after the last event
// before flushing a batch of changed paths.
const DefaultDebounce = 200 * time.Millisecond

// Options configure a watch session.
type Options struct {
	// Root is the directory to watch recursively.
	Root string
	// Extensions are the file suffixes to process, matched
	// case-insensitively.
	Extensions []string
	// PruneNames are base names deleted after processing.
	PruneNames []string
	// Rules drive the reference rewriting.
	Rules rewrite.Rules
	// Debounce is the quiet period that closes a batch of events.
	// Zero means DefaultDebounce.
	Debounce time.Duration
	// Logger receives progress and per-file failures. Nil means no logging.
	Logger *zap.Logger
	// OnFile, if non-nil, is called after each processed file.
	OnFile func(batch.Outcome)
}

// Run watches opts.Root until ctx is cancelled, applying the per-file
// pipeline to every changed file. Directories created at runtime are added
// to the watch list. Per-file failures are logged and watching continues;
// a watcher infrastructure failure ends the session with an error.
func Run(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	if err := addDirsRecursive(w, opts.Root); err != nil {
		return fmt.Errorf("watching %s: %w", opts.Root, err)
	}

	opts.Logger.Info("watching", zap.String("root", opts.Root))

	batches := make(chan []string, 1)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return collect(gCtx, w, opts, batches)
	})
	g.Go(func() error {
		return process(gCtx, opts, batches)
	})
	return g.Wait()
}

// collect reads watcher events, folds them into a pending set, and flushes
// the set as one sorted batch once the debounce window closes.
func collect(ctx context.Context, w *fsnotify.Watcher, opts Options, batches chan<- []string) error {
	logger := opts.Logger
	pending := make(map[string]struct{})

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			fire = timer.C
		} else {
			timer.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher stopped")
			return nil

		case <-fire:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]struct{})
			select {
			case batches <- paths:
			case <-ctx.Done():
				return nil
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watching new dir failed",
							zap.String("path", ev.Name), zap.Error(addErr))
					} else {
						logger.Debug("watching new dir", zap.String("path", ev.Name))
					}
					// Files may already exist inside the new directory.
					enqueueDir(ev.Name, opts.Extensions, pending)
					if len(pending) > 0 {
						schedule()
					}
					continue
				}
			}

			if !batch.MatchesExtension(filepath.Base(ev.Name), opts.Extensions) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			pending[ev.Name] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", opts.Root, watchErr)
		}
	}
}

// process applies the per-file pipeline to each flushed batch, strictly in
// order. It remembers the checksum of content it wrote so that events fired
// by its own writes do not re-trigger processing.
func process(ctx context.Context, opts Options, batches <-chan []string) error {
	rw := rewrite.New(opts.Rules)
	written := make(map[string]string)

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-batches:
			for _, path := range paths {
				processPath(rw, opts, written, path)
			}
		}
	}
}

func processPath(rw *rewrite.Rewriter, opts Options, written map[string]string, path string) {
	logger := opts.Logger

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			delete(written, path)
			return
		}
		logger.Warn("read failed", zap.String("path", path), zap.Error(err))
		return
	}
	if written[path] == contentSum(data) {
		// Echo of our own write.
		return
	}

	outcome, err := batch.ProcessFile(rw, path, opts.PruneNames, false)
	if err != nil {
		logger.Warn("processing failed", zap.String("path", path), zap.Error(err))
		return
	}

	if outcome.Deleted {
		delete(written, path)
		logger.Info("pruned", zap.String("path", path))
	} else {
		if after, readErr := os.ReadFile(path); readErr == nil {
			written[path] = contentSum(after)
		}
		if outcome.Changed {
			logger.Info("rebased", zap.String("path", path), zap.Int("refs", len(outcome.Refs)))
		} else {
			logger.Debug("unchanged", zap.String("path", path))
		}
	}

	if opts.OnFile != nil {
		opts.OnFile(outcome)
	}
}

// enqueueDir adds every matching file under dir to the pending set.
func enqueueDir(dir string, extensions []string, pending map[string]struct{}) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if batch.MatchesExtension(d.Name(), extensions) {
			pending[path] = struct{}{}
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func contentSum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
