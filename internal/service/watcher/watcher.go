package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oshokin/sunrise-alarm/internal/logger"
)

// DefaultDebounce is the quiet period after the last event before notifying.
const DefaultDebounce = 500 * time.Millisecond

// relevantOps are the operations that can change the file contents.
const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove

// ChangeFunc is called after the watched file changed.
type ChangeFunc func(ctx context.Context)

// Option configures Watch.
type Option func(*settings)

type settings struct {
	debounce time.Duration
	ready    chan<- struct{}
}

// WithDebounce overrides the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithReady closes ready once the watch is established.
func WithReady(ready chan<- struct{}) Option {
	return func(s *settings) {
		s.ready = ready
	}
}

// Watch blocks until ctx is cancelled, calling onChange whenever the file at
// path is created, written, replaced or removed. The parent directory is
// watched so atomic replacements are seen.
func Watch(ctx context.Context, path string, onChange ChangeFunc, opts ...Option) error {
	cfg := settings{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx = logger.WithName(ctx, "watcher")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}

	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close file watcher", "error", closeErr)
		}
	}()

	var (
		clean = filepath.Clean(path)
		dir   = filepath.Dir(clean)
	)

	if err = w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger.InfoKV(ctx, "Watching alarms file", "path", clean)

	if cfg.ready != nil {
		close(cfg.ready)
	}

	debounce := time.NewTimer(cfg.debounce)
	debounce.Stop()

	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != clean || event.Op&relevantOps == 0 {
				continue
			}

			logger.DebugKV(ctx, "Alarms file event", "op", event.Op.String())
			debounce.Reset(cfg.debounce)
		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}

			if errors.Is(watchErr, fsnotify.ErrEventOverflow) {
				debounce.Reset(cfg.debounce)
			}

			logger.WarnKV(ctx, "File watcher error", "error", watchErr)
		case <-debounce.C:
			logger.InfoKV(ctx, "Alarms file changed", "path", clean)
			onChange(ctx)
		}
	}
}
