package report

import (
	"strings"
	"testing"
	"time"

	"baseline/internal/data/history"
)

func TestRenderTrendTSV(t *testing.T) {
	report := history.TrendReport{
		SchemaVersion: 1,
		Project:       "web",
		Since:         time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC),
		Until:         time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC),
		Window:        "24h0m0s",
		RunCount:      1,
		Points: []history.TrendPoint{
			{
				RunID:           "abc123",
				StartedAt:       time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC),
				FileCount:       15,
				DiagnosticCount: 4,
				DeltaFiles:      2,
				DeltaFindings:   -1,
				RuleDeltas:      map[string]int{"weakref": 1, "array-at": -2},
				AvgFindings:     4.5,
				WindowHours:     24,
			},
		},
	}

	out, err := RenderTrendTSV(report)
	if err != nil {
		t.Fatalf("render tsv: %v", err)
	}

	body := string(out)
	if !strings.Contains(body, "Timestamp\tRun\tFiles") {
		t.Fatalf("missing header in output: %s", body)
	}
	if !strings.Contains(body, "2026-02-13T00:00:00Z\tabc123\t15\t4\t2\t-1\t4.50\t24.00\tarray-at:-2,weakref:+1") {
		t.Fatalf("missing row values in output: %s", body)
	}
}

func TestRenderTrendJSON(t *testing.T) {
	report := history.TrendReport{
		SchemaVersion: 1,
		RunCount:      2,
	}

	out, err := RenderTrendJSON(report)
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	if !strings.Contains(string(out), "\"run_count\": 2") {
		t.Fatalf("missing run_count in json: %s", string(out))
	}
}

func TestRenderRuns(t *testing.T) {
	runs := []history.Run{{
		ID:              "0123456789abcdef",
		StartedAt:       time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC),
		Duration:        1234 * time.Millisecond,
		AsOf:            "2026-02-13",
		Support:         "widely",
		FileCount:       8,
		DiagnosticCount: 3,
	}}
	out, err := RenderRuns(runs)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "STARTED") || !strings.Contains(lines[1], "01234567") || !strings.Contains(lines[1], "1.234s") {
		t.Fatalf("unexpected table: %q", out)
	}
}

func TestRenderAndWrite(t *testing.T) {
	r := Report{Tool: "baseline", AsOf: "2023-01-01", Support: "widely"}
	for _, format := range Formats {
		if _, err := Render(format, "", r, false); err != nil {
			t.Errorf("render %s: %v", format, err)
		}
	}
	if _, err := Render("xml", "", r, false); err == nil {
		t.Error("expected error for unknown format")
	}

	var sb strings.Builder
	if err := Write(&sb, "", "json", "", r, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), `"as_of": "2023-01-01"`) {
		t.Errorf("unexpected json: %s", sb.String())
	}

	path := t.TempDir() + "/out/report.sarif"
	if err := Write(&sb, path, "sarif", "", r, true); err != nil {
		t.Fatal(err)
	}
}
