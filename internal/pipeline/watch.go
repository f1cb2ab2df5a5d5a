package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/euforicio/epubhl/internal/config"
)

// debounceDelay coalesces the burst of events an EPUB build tool emits
// while rewriting the input file.
const debounceDelay = 250 * time.Millisecond

// Watch runs the pipeline once, then re-runs it whenever the input file is
// rewritten, until ctx is cancelled. The initial run's error is fatal;
// re-run failures are logged and watching continues. The watch is placed on
// the input's directory because most tools replace files by rename, which
// drops a watch set on the file itself.
func Watch(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	wlog := logger.With("component", "watch")

	if _, err := Run(ctx, cfg, logger); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(cfg.Input)); err != nil {
		return err
	}
	wlog.Info("watching input", slog.String("path", cfg.Input))

	timer := time.NewTimer(debounceDelay)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != cfg.Input {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			// Stop and drain before Reset: a concurrent expiry would
			// otherwise leave a stale tick in timer.C and cut the
			// debounce window short.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounceDelay)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			wlog.Warn("watch error", slog.Any("err", werr))

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			res, err := Run(ctx, cfg, logger)
			if err != nil {
				wlog.Error("re-run failed", slog.Any("err", err))
				continue
			}
			wlog.Info("re-processed input",
				slog.Int("documents", res.Documents), slog.Int("blocks", res.Blocks))
		}
	}
}
