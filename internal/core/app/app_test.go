package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"baseline/internal/core/config"
	"baseline/internal/core/ports"
	"baseline/internal/data/history"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixtureProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "package.json", "{}\n")
	writeFile(t, root, "src/app.js", "[1, 2].at(-1);\n")
	writeFile(t, root, "src/ok.js", "const x = 1;\n")
	writeFile(t, root, "src/util.ts", "const s: string = \"abc\";\ns.replaceAll(\"a\", \"b\");\n")
	writeFile(t, root, "src/types.d.ts", "declare const y: number;\n")
	writeFile(t, root, "node_modules/dep/index.js", "[1].at(0);\n")
	writeFile(t, root, "README.md", "# fixture\n")
	return root
}

func newTestApp(t *testing.T, root string, opts ...Option) *App {
	t.Helper()
	cfg, err := config.Parse([]byte("[baseline]\nas_of = \"2021-01-01\"\n[scan]\nworkers = 2\n"))
	require.NoError(t, err)
	a, err := New(cfg, root, opts...)
	require.NoError(t, err)
	return a
}

func TestCollectFiles(t *testing.T) {
	root := fixtureProject(t)
	a := newTestApp(t, root)

	files, err := a.CollectFiles([]string{root})
	require.NoError(t, err)

	rel := make([]string, 0, len(files))
	for _, f := range files {
		rel = append(rel, a.displayPath(f))
	}
	assert.Equal(t, []string{"src/app.js", "src/ok.js", "src/util.ts"}, rel)

	single, err := a.CollectFiles([]string{filepath.Join(root, "src", "app.js"), filepath.Join(root, "src")})
	require.NoError(t, err)
	assert.Len(t, single, 3, "explicit files are not collected twice")

	_, err = a.CollectFiles([]string{filepath.Join(root, "missing")})
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	root := fixtureProject(t)
	a := newTestApp(t, root)

	result, err := a.Scan(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.FilesScanned)
	assert.Empty(t, result.Failed)
	require.Len(t, result.Diagnostics, 2)

	first := result.Diagnostics[0]
	assert.Equal(t, "src/app.js", first.Path)
	assert.Equal(t, "array-at", first.RuleID)
	assert.Equal(t, 1, first.Line)

	second := result.Diagnostics[1]
	assert.Equal(t, "src/util.ts", second.Path)
	assert.Equal(t, "string-replaceall", second.RuleID)
	assert.Equal(t, 2, second.Line)
	assert.Contains(t, second.Message, "2021-01-01")
	assert.Empty(t, result.RunID, "no history store configured")
	assert.Equal(t, 3, a.parsed.Len(), "parsed files are cached for rescans")

	again, err := a.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, result.Diagnostics, again.Diagnostics)
}

func TestScan_HistoryRecordsRun(t *testing.T) {
	root := fixtureProject(t)
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), time.Second)
	require.NoError(t, err)
	adapter := history.NewAdapter(store, 10)
	t.Cleanup(func() { _ = adapter.Close() })

	a := newTestApp(t, root, WithHistory(adapter))
	ctx := context.Background()

	result, err := a.Scan(ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	runs, err := a.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.Equal(t, filepath.Base(root), runs[0].Project)
	assert.Equal(t, 2, runs[0].DiagnosticCount)
	assert.Equal(t, 1, runs[0].RuleCounts["array-at"])
	assert.Equal(t, "2021-01-01", runs[0].AsOf)

	records, err := a.RunRecords(ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "src/app.js", records[0].Path)

	_, err = a.Scan(ctx, nil)
	require.NoError(t, err)
	report, err := a.Trends(ctx, 10, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, report.RunCount)
}

func TestRecentRuns_HistoryDisabled(t *testing.T) {
	a := newTestApp(t, fixtureProject(t))
	_, err := a.RecentRuns(context.Background(), 1)
	assert.Error(t, err)
}

func TestScan_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	a := newTestApp(t, fixtureProject(t))
	_, err := a.LintService().RunScan(context.Background(), ports.ScanRequest{})
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, span := range exporter.GetSpans() {
		counts[span.Name]++
	}
	assert.Equal(t, 1, counts["lintService.RunScan"])
	assert.Equal(t, 1, counts["app.Scan"])
	assert.Equal(t, 3, counts["app.lintFile"])
}

func TestRulesAndHealth(t *testing.T) {
	a := newTestApp(t, fixtureProject(t))

	statuses := a.Rules()
	require.NotEmpty(t, statuses)
	var atReportable bool
	for _, s := range statuses {
		if s.Rule.ID == "array-at" {
			atReportable = s.Decision.Reportable()
		}
	}
	assert.True(t, atReportable)

	status, up := a.Health(context.Background())
	assert.True(t, up)
	hs, ok := status.(HealthStatus)
	require.True(t, ok)
	assert.Equal(t, "up", hs.Status)
	assert.Contains(t, hs.Components, "linter")
}

func TestReload(t *testing.T) {
	root := fixtureProject(t)
	a := newTestApp(t, root)

	cfg, err := config.Parse([]byte("[baseline]\nas_of = \"2030-01-01\"\n"))
	require.NoError(t, err)
	require.NoError(t, a.Reload(cfg))

	result, err := a.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics, "every built-in feature is available by 2030")
}

func TestWatch(t *testing.T) {
	root := fixtureProject(t)
	a := newTestApp(t, root)

	updates := make(chan Update, 8)
	a.SetUpdateHandler(func(u Update) { updates <- u })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, nil) }()
	defer func() {
		cancel()
		<-done
	}()

	select {
	case u := <-updates:
		assert.Len(t, u.Diagnostics, 2)
		assert.Equal(t, 3, u.Files)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for initial update")
	}

	time.Sleep(200 * time.Millisecond)
	writeFile(t, root, "src/new.js", "[3].at(0);\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-updates:
			if len(u.Changed) == 0 {
				continue
			}
			assert.Contains(t, u.Changed, "src/new.js")
			assert.Len(t, u.Diagnostics, 3)
			return
		case <-deadline:
			t.Fatal("timed out waiting for change update")
		}
	}
}
