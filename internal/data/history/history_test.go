package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), time.Second)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndLoadRuns(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first := Run{
		Project:         "web",
		StartedAt:       base,
		Duration:        1500 * time.Millisecond,
		AsOf:            "2026-02-13",
		Support:         "widely",
		FileCount:       8,
		DiagnosticCount: 3,
		RuleCounts:      map[string]int{"array-at": 2, "weakref": 1},
	}
	records := []Record{
		{RuleID: "weakref", FeatureID: "weak-references", Path: "src/b.js", Line: 4, Column: 1, Message: "m3"},
		{RuleID: "array-at", FeatureID: "array-at", Path: "src/a.js", Line: 9, Column: 3, Message: "m2"},
		{RuleID: "array-at", FeatureID: "array-at", Path: "src/a.js", Line: 2, Column: 5, Message: "m1"},
	}

	id, err := store.SaveRun(ctx, first, records)
	if err != nil {
		t.Fatalf("save run: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid run id, got %q", id)
	}

	second := Run{Project: "web", StartedAt: base.Add(time.Hour), AsOf: "2026-02-13", Support: "widely", FileCount: 9}
	if _, err := store.SaveRun(ctx, second, nil); err != nil {
		t.Fatalf("save second run: %v", err)
	}

	runs, err := store.LoadRuns(ctx, "web", 0)
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].StartedAt.Equal(second.StartedAt) {
		t.Fatalf("expected newest run first, got %v", runs[0].StartedAt)
	}
	got := runs[1]
	if got.ID != id || got.Duration != 1500*time.Millisecond || got.RuleCounts["array-at"] != 2 {
		t.Fatalf("unexpected run roundtrip: %+v", got)
	}

	limited, err := store.LoadRuns(ctx, "web", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d runs", len(limited))
	}

	loaded, err := store.LoadRecords(ctx, id)
	if err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 records, got %d", len(loaded))
	}
	if loaded[0].Message != "m1" || loaded[1].Message != "m2" || loaded[2].Message != "m3" {
		t.Fatalf("expected records in source order, got %+v", loaded)
	}
}

func TestStore_ProjectIsolationAndPrune(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if _, err := store.SaveRun(ctx, Run{Project: "a", StartedAt: base.Add(time.Duration(i) * time.Minute), DiagnosticCount: i}, nil); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.SaveRun(ctx, Run{StartedAt: base}, nil); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.Prune(ctx, "a", 2)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 pruned runs, got %d", deleted)
	}

	aRuns, err := store.LoadRuns(ctx, "a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(aRuns) != 2 || aRuns[0].DiagnosticCount != 3 {
		t.Fatalf("unexpected project a runs: %+v", aRuns)
	}

	defaults, err := store.LoadRuns(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(defaults) != 1 || defaults[0].Project != "default" {
		t.Fatalf("unexpected default project runs: %+v", defaults)
	}
}

func TestAdapter_PrunesAfterSave(t *testing.T) {
	ctx := context.Background()
	adapter := NewAdapter(openStore(t), 1)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	if _, err := adapter.SaveRun(ctx, Run{Project: "p", StartedAt: base}, nil); err != nil {
		t.Fatal(err)
	}
	id, err := adapter.SaveRun(ctx, Run{Project: "p", StartedAt: base.Add(time.Second)}, []Record{{RuleID: "r", Path: "x.js", Line: 1, Column: 1}})
	if err != nil {
		t.Fatal(err)
	}

	runs, err := adapter.LoadRuns(ctx, "p", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("expected only the newest run, got %+v", runs)
	}
	recs, err := adapter.LoadRecords(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir(), 0)
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, 0)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildTrendReport(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	runs := []Run{
		{ID: "c", StartedAt: base.Add(25 * time.Hour), FileCount: 9, DiagnosticCount: 1, RuleCounts: map[string]int{"weakref": 1}},
		{ID: "a", StartedAt: base, FileCount: 5, DiagnosticCount: 4, RuleCounts: map[string]int{"array-at": 4}},
		{ID: "b", StartedAt: base.Add(2 * time.Hour), FileCount: 8, DiagnosticCount: 2, RuleCounts: map[string]int{"array-at": 2}},
	}

	report, err := BuildTrendReport("web", runs, 24*time.Hour)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.RunCount != 3 || report.Points[0].RunID != "a" {
		t.Fatalf("expected 3 points oldest first, got %+v", report.Points)
	}
	if report.Points[1].DeltaFindings != -2 || report.Points[1].DeltaFiles != 3 {
		t.Fatalf("unexpected deltas: %+v", report.Points[1])
	}
	if report.Points[1].AvgFindings != 3 {
		t.Fatalf("expected moving average 3, got %v", report.Points[1].AvgFindings)
	}
	deltas := report.Points[2].RuleDeltas
	if deltas["array-at"] != -2 || deltas["weakref"] != 1 {
		t.Fatalf("unexpected rule deltas: %+v", deltas)
	}

	if _, err := BuildTrendReport("web", nil, time.Hour); err == nil {
		t.Fatal("expected error for empty history")
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
}
