package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"baseline/internal/core/config"
	"baseline/internal/core/ports"
	"baseline/internal/core/watcher"
	"baseline/internal/engine/lint"
	"baseline/internal/shared/observability"
	"baseline/internal/shared/util"
)

// Update is the full diagnostic state after a watch-mode change.
type Update struct {
	Changed     []string
	Files       int
	Diagnostics []lint.Diagnostic
	Failed      []ports.FileError
}

const limiterTTL = 5 * time.Minute

// Watch runs an initial scan and then re-lints files as they change until
// ctx is cancelled. Re-lints of a single file are throttled to watch.rate
// per second. When a config path is set, edits to it reload the policy and
// trigger a full rescan.
func (a *App) Watch(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		paths = a.Paths.ScanPaths
	}
	if _, err := a.Scan(ctx, paths); err != nil {
		return err
	}
	a.emitUpdate(a.snapshot(nil))

	limiters := util.NewLimiterRegistry(a.Config.Watch.Rate, a.Config.Watch.Burst, limiterTTL)
	defer limiters.Close()

	_, filter := a.current()
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, filter, func(changed []string) {
		a.handleChanges(ctx, limiters, changed)
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(uniqueRoots(paths)); err != nil {
		return err
	}

	if a.configPath != "" {
		cw := config.NewWatcher(a.configPath, func(cfg *config.Config) {
			if err := a.Reload(cfg); err != nil {
				slog.Warn("config reload rejected", "path", a.configPath, "error", err)
				return
			}
			_, filter := a.current()
			w.SetFilter(filter)
			w.SetDebounce(cfg.Watch.Debounce)
			if _, err := a.Scan(ctx, paths); err != nil {
				slog.Warn("rescan after config reload failed", "error", err)
				return
			}
			a.emitUpdate(a.snapshot(nil))
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config watcher unavailable", "path", a.configPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	slog.Info("watching for changes", "paths", paths)
	<-ctx.Done()
	return nil
}

func (a *App) handleChanges(ctx context.Context, limiters *util.LimiterRegistry, changed []string) {
	for _, path := range changed {
		limiter := limiters.Get(path)
		if !limiter.Allow(1) {
			observability.WatcherThrottledTotal.Inc()
			slog.Debug("re-lint throttled", "path", path)
			if err := limiter.Wait(ctx, 1); err != nil {
				return
			}
		}

		if _, err := os.Stat(path); err != nil {
			a.forget(path)
			continue
		}
		r, err := a.lintFile(ctx, path)
		if err != nil {
			slog.Warn("re-lint failed", "path", path, "error", err)
			continue
		}
		a.store(r)
	}
	a.emitUpdate(a.snapshot(changed))
}

// storeAll replaces the watch state with results.
func (a *App) storeAll(results []fileResult) {
	a.resultsMu.Lock()
	a.results = make(map[string][]lint.Diagnostic, len(results))
	a.failed = make(map[string]string)
	a.resultsMu.Unlock()
	for _, r := range results {
		a.store(r)
	}
}

func (a *App) store(r fileResult) {
	a.resultsMu.Lock()
	defer a.resultsMu.Unlock()
	if r.err != nil {
		delete(a.results, r.path)
		a.failed[r.path] = r.err.Error()
		return
	}
	delete(a.failed, r.path)
	a.results[r.path] = r.diagnostics
}

func (a *App) forget(path string) {
	a.parsed.Evict(path)
	a.resultsMu.Lock()
	defer a.resultsMu.Unlock()
	delete(a.results, path)
	delete(a.failed, path)
}

func (a *App) snapshot(changed []string) Update {
	a.resultsMu.RLock()
	defer a.resultsMu.RUnlock()

	u := Update{Files: len(a.results) + len(a.failed)}
	for _, path := range changed {
		u.Changed = append(u.Changed, a.displayPath(path))
	}
	for _, path := range util.SortedStringKeys(a.results) {
		u.Diagnostics = append(u.Diagnostics, a.results[path]...)
	}
	for _, path := range util.SortedStringKeys(a.failed) {
		u.Failed = append(u.Failed, ports.FileError{Path: a.displayPath(path), Error: a.failed[path]})
	}
	sortDiagnostics(u.Diagnostics)
	return u
}
