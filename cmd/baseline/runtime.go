package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"baseline/internal/core/app"
	"baseline/internal/core/config"
	"baseline/internal/data/history"
	"baseline/internal/shared/observability"
)

// runtime owns the app and every resource opened for it.
type runtime struct {
	app     *app.App
	closers []func(context.Context) error
}

func newRuntime(ctx context.Context, opts *options, cfg *config.Config) (*runtime, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, err
	}

	rt := &runtime{}
	appOpts := []app.Option{}

	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath, cfg.History.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		adapter := history.NewAdapter(store, cfg.History.Keep)
		rt.closers = append(rt.closers, func(context.Context) error { return adapter.Close() })
		appOpts = append(appOpts, app.WithHistory(adapter))
	}
	if path := configPathFor(opts); path != "" {
		appOpts = append(appOpts, app.WithConfigPath(path))
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, shutdownTracing)

	a, err := app.New(cfg, cwd, appOpts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.app = a

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		server := observability.NewServer(addr, a.Health)
		if err := server.Start(ctx); err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, server.Stop)
	}
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			slog.Warn("shutdown step failed", "error", err)
		}
	}
	rt.closers = nil
}

// configPathFor returns the config file watch mode should follow.
func configPathFor(opts *options) string {
	if opts.configPath != "" {
		return opts.configPath
	}
	if _, err := os.Stat(config.DefaultFile); err == nil {
		return config.DefaultFile
	}
	return ""
}
