package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"baseline/internal/core/errors"
	"baseline/internal/core/ports"
	"baseline/internal/engine/lint"
	"baseline/internal/engine/parser"
	"baseline/internal/shared/observability"
	"baseline/internal/shared/util"
)

// parsedFile is a cached parse keyed by file path.
type parsedFile struct {
	sum  uint64
	file *parser.File
}

// fileResult is the outcome of linting one file.
type fileResult struct {
	path        string
	diagnostics []lint.Diagnostic
	syntaxError bool
	err         error
}

// CollectFiles walks paths and returns the lintable files in sorted order.
// Files named explicitly are subject to the same filters as walked ones.
func (a *App) CollectFiles(paths []string) ([]string, error) {
	_, filter := a.current()
	seen := make(map[string]bool)
	var files []string

	for _, root := range uniqueRoots(paths) {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "scan path"), errors.CtxPath, root)
		}
		if !info.IsDir() {
			if filter.Match(root, "", info.Size()) && !seen[root] {
				seen[root] = true
				files = append(files, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && filter.SkipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			if !filter.Match(path, util.RelativeSlash(root, path), info.Size()) || seen[path] {
				return nil
			}
			seen[path] = true
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Scan lints every file under paths, or the configured scan paths when
// paths is empty. Files are linted in parallel, bounded by scan.workers;
// each file gets its own detector state.
func (a *App) Scan(ctx context.Context, paths []string) (ports.ScanResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "app.Scan")
	defer span.End()

	started := time.Now()
	if len(paths) == 0 {
		paths = a.Paths.ScanPaths
	}
	files, err := a.CollectFiles(paths)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ports.ScanResult{}, err
	}
	span.SetAttributes(attribute.Int("files", len(files)))

	results, err := a.lintFiles(ctx, files)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ports.ScanResult{}, err
	}

	a.storeAll(results)

	result := ports.ScanResult{
		StartedAt:    started.UTC(),
		FilesScanned: len(files),
	}
	for _, r := range results {
		if r.err != nil {
			result.Failed = append(result.Failed, ports.FileError{Path: a.displayPath(r.path), Error: r.err.Error()})
			continue
		}
		if r.syntaxError {
			result.SyntaxErrors++
		}
		result.Diagnostics = append(result.Diagnostics, r.diagnostics...)
	}
	sortDiagnostics(result.Diagnostics)
	result.Duration = time.Since(started)

	observability.ScanDuration.Observe(result.Duration.Seconds())
	observability.LastScanFindings.Set(float64(len(result.Diagnostics)))
	span.SetAttributes(attribute.Int("diagnostics", len(result.Diagnostics)))

	if id, err := a.recordRun(ctx, result); err == nil {
		result.RunID = id
	}

	slog.Info("scan complete",
		"files", result.FilesScanned,
		"diagnostics", len(result.Diagnostics),
		"failed", len(result.Failed),
		"duration", result.Duration)
	slog.Debug("memory after scan", "heap_mb", util.GetHeapAllocMB())
	return result, nil
}

func (a *App) lintFiles(ctx context.Context, files []string) ([]fileResult, error) {
	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := a.lintFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *App) workers() int {
	if a.Config.Scan.Workers > 0 {
		return a.Config.Scan.Workers
	}
	return 1
}

// lintFile parses and lints path. Unreadable or unparsable files are
// reported in the result; only linter failures abort the scan.
func (a *App) lintFile(ctx context.Context, path string) (fileResult, error) {
	_, span := observability.Tracer().Start(ctx, "app.lintFile",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	result := fileResult{path: path}
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read file", "path", path, "error", err)
		result.err = err
		return result, nil
	}

	lang := a.codeParser.GetLanguage(path)
	span.SetAttributes(attribute.String("language", lang))

	sum := xxhash.Sum64(content)
	file, cached := a.cachedFile(path, sum)
	span.SetAttributes(attribute.Bool("cached", cached))
	if !cached {
		parseStart := time.Now()
		file, err = a.codeParser.ParseFile(path, content)
		observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(parseStart).Seconds())
		if err != nil {
			observability.ParseErrorsTotal.WithLabelValues(lang).Inc()
			slog.Warn("failed to parse file", "path", path, "error", err)
			result.err = err
			return result, nil
		}
		if len(file.SyntaxErrors) > 0 {
			observability.ParseErrorsTotal.WithLabelValues(lang).Inc()
		}
		a.parsed.Put(path, parsedFile{sum: sum, file: file})
	}
	result.syntaxError = len(file.SyntaxErrors) > 0

	linter, _ := a.current()
	lintStart := time.Now()
	diags, err := linter.Lint(file)
	observability.LintDuration.WithLabelValues(lang).Observe(time.Since(lintStart).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, errors.AddContext(err, errors.CtxPath, path)
	}
	observability.FilesLintedTotal.WithLabelValues(lang).Inc()

	display := a.displayPath(path)
	for i := range diags {
		diags[i].Path = display
		observability.FindingsTotal.WithLabelValues(diags[i].RuleID).Inc()
	}
	span.SetAttributes(attribute.Int("diagnostics", len(diags)))
	result.diagnostics = diags
	return result, nil
}

// cachedFile returns the parse of path when its content hash is unchanged.
// Linting never mutates a parsed file, so reuse across rescans is safe.
func (a *App) cachedFile(path string, sum uint64) (*parser.File, bool) {
	entry, ok := a.parsed.Get(path)
	if !ok || entry.sum != sum {
		return nil, false
	}
	return entry.file, true
}

// displayPath reports path relative to the project root when it lies
// inside it.
func (a *App) displayPath(path string) string {
	return util.RelativeSlash(a.Paths.ProjectRoot, path)
}

func sortDiagnostics(diags []lint.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Path != diags[j].Path {
			return diags[i].Path < diags[j].Path
		}
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		if diags[i].Column != diags[j].Column {
			return diags[i].Column < diags[j].Column
		}
		return diags[i].RuleID < diags[j].RuleID
	})
}

func uniqueRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(p)
		if abs, err := filepath.Abs(clean); err == nil {
			clean = abs
		}
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	sort.Strings(out)
	return out
}
