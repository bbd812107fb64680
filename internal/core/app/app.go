// Package app wires parsing, linting, history and watch mode into the
// operations the CLI drives.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"baseline/internal/core/config"
	"baseline/internal/core/ports"
	"baseline/internal/engine/lint"
	"baseline/internal/engine/parser"
	"baseline/internal/shared/observability"
	"baseline/internal/shared/util"
)

// parseCacheSize bounds how many parsed files are kept between rescans.
const parseCacheSize = 4096

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	codeParser ports.CodeParser
	parsed     *util.LRUCache[string, parsedFile]
	history    ports.HistoryStore
	configPath string

	// linter and filter are swapped together on config reload.
	stateMu sync.RWMutex
	linter  *lint.Linter
	filter  *util.PathFilter

	// Watch-mode diagnostics keyed by file path.
	resultsMu sync.RWMutex
	results   map[string][]lint.Diagnostic
	failed    map[string]string

	updateMu sync.RWMutex
	onUpdate func(Update)
}

type Option func(*App)

// WithHistory persists every scan to store.
func WithHistory(store ports.HistoryStore) Option {
	return func(a *App) { a.history = store }
}

// WithConfigPath enables config reloads in watch mode.
func WithConfigPath(path string) Option {
	return func(a *App) { a.configPath = path }
}

// New builds the parser, rule catalog and linter described by cfg. Scan
// paths are resolved against cwd.
func New(cfg *config.Config, cwd string, opts ...Option) (*App, error) {
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	codeParser, err := buildParser(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Paths:      paths,
		codeParser: codeParser,
		parsed:     util.NewLRUCache[string, parsedFile](parseCacheSize),
		results:    make(map[string][]lint.Diagnostic),
		failed:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(a)
	}

	linter, filter, err := a.buildLinter(cfg)
	if err != nil {
		return nil, err
	}
	a.linter = linter
	a.filter = filter
	return a, nil
}

func buildParser(cfg *config.Config) (*parser.Parser, error) {
	registry, err := parser.BuildLanguageRegistry(cfg.LanguageOverrides())
	if err != nil {
		return nil, err
	}
	loader, err := parser.NewGrammarLoaderWithRegistry(registry)
	if err != nil {
		return nil, err
	}
	return parser.NewParser(loader), nil
}

func (a *App) buildLinter(cfg *config.Config) (*lint.Linter, *util.PathFilter, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}
	linter, err := lint.New(catalog, policy, lint.WithMessage(cfg.Baseline.Message))
	if err != nil {
		return nil, nil, err
	}
	filter, err := util.NewPathFilter(
		cfg.Scan.ExcludeDirs,
		cfg.Scan.ExcludeFiles,
		a.codeParser.SupportedExtensions(),
		cfg.Scan.Tests(),
		cfg.Scan.MaxFileSize,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("compile scan filters: %w", err)
	}

	active := len(linter.Active())
	observability.ActiveRules.Set(float64(active))
	slog.Debug("linter ready",
		"as_of", policy.AsOf.String(),
		"support", policy.SupportTier.String(),
		"rules", catalog.Len(),
		"active", active)
	return linter, filter, nil
}

func (a *App) current() (*lint.Linter, *util.PathFilter) {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.linter, a.filter
}

// Reload swaps in the linter and filters of cfg. The parser keeps its
// languages; changing them needs a restart.
func (a *App) Reload(cfg *config.Config) error {
	linter, filter, err := a.buildLinter(cfg)
	if err != nil {
		return err
	}
	a.stateMu.Lock()
	a.Config = cfg
	a.linter = linter
	a.filter = filter
	a.stateMu.Unlock()
	return nil
}

// Rules reports every catalog rule with its availability decision.
func (a *App) Rules() []lint.RuleStatus {
	linter, _ := a.current()
	return linter.Status()
}

func (a *App) SetUpdateHandler(fn func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = fn
}

func (a *App) emitUpdate(u Update) {
	a.updateMu.RLock()
	fn := a.onUpdate
	a.updateMu.RUnlock()
	if fn != nil {
		fn(u)
	}
}

// LintService exposes the app through the driving port.
func (a *App) LintService() ports.LintService {
	return &lintService{app: a}
}
