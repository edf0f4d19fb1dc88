package schema

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called after a watched schema file changes and the change
// window has settled.
type ReloadFunc func()

// Watch monitors the given files (schema document, field table) and calls
// reload after changes, debounced so editor save patterns (write + rename)
// trigger a single reload. It blocks until ctx is cancelled.
func Watch(ctx context.Context, logger *slog.Logger, reload ReloadFunc, paths ...string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		watched[abs] = true
		// Watch the directory: many editors replace the file on save, which
		// would drop a direct file watch.
		dir := filepath.Dir(abs)
		if err := w.Add(dir); err != nil {
			logger.Warn("schema: watch failed",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
		}
	}
	if len(watched) == 0 {
		<-ctx.Done()
		return nil
	}

	logger.Info("schema: watching for changes", slog.Int("files", len(watched)))

	var settle *time.Timer
	var settleCh <-chan time.Time
	schedule := func() {
		if settle == nil {
			settle = time.NewTimer(200 * time.Millisecond)
			settleCh = settle.C
		} else {
			settle.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			logger.Info("schema: watcher stopped")
			return nil

		case <-settleCh:
			logger.Info("schema: reloading after change")
			reload()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("schema: watcher error", slog.String("error", err.Error()))
		}
	}
}
