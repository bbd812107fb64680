package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"baseline/internal/core/errors"
	"baseline/internal/engine/availability"
	"baseline/internal/engine/lint"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[baseline]
as_of = "2024-01-01"
support = "Newly"
only = ["weakref", "array-at"]

[baseline.features.array-at]
enabled = false

[baseline.features.weak-references]
support = "widely"

[scan]
paths = ["src", "lib"]
exclude_files = ["**/*.min.js"]
workers = 3

[languages.tsx]
enabled = false

[output]
format = "SARIF"
color = false

[history]
enabled = true
project = "web"

[watch]
debounce = "1s"
rate = 2.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Baseline.Support != "newly" {
		t.Errorf("expected support newly, got %q", cfg.Baseline.Support)
	}
	if got := strings.Join(cfg.Baseline.Only, ","); got != "array-at,weakref" {
		t.Errorf("unexpected only: %s", got)
	}
	if cfg.Scan.Workers != 3 || len(cfg.Scan.Paths) != 2 {
		t.Errorf("unexpected scan section: %+v", cfg.Scan)
	}
	if cfg.Output.Format != "sarif" || cfg.Output.UseColor() {
		t.Errorf("unexpected output section: %+v", cfg.Output)
	}
	if cfg.Watch.Debounce != time.Second || cfg.Watch.Rate != 2.5 || cfg.Watch.Burst != 8 {
		t.Errorf("unexpected watch section: %+v", cfg.Watch)
	}
	if cfg.History.Path != ".baseline/history.db" || !cfg.History.Enabled {
		t.Errorf("unexpected history section: %+v", cfg.History)
	}

	policy, err := cfg.Policy()
	if err != nil {
		t.Fatal(err)
	}
	if policy.AsOf.String() != "2024-01-01" || policy.SupportTier != availability.Newly {
		t.Errorf("unexpected policy: %+v", policy)
	}
	if o := policy.Overrides["array-at"]; o.Enabled == nil || *o.Enabled {
		t.Errorf("expected array-at disabled, got %+v", o)
	}
	if o := policy.Overrides["weak-references"]; o.SupportTier == nil || *o.SupportTier != availability.Widely {
		t.Errorf("expected weak-references widely, got %+v", o)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	if catalog.Len() != 2 {
		t.Errorf("expected 2 selected rules, got %d", catalog.Len())
	}

	overrides := cfg.LanguageOverrides()
	if o, ok := overrides["tsx"]; !ok || o.Enabled == nil || *o.Enabled {
		t.Errorf("expected tsx disabled, got %+v", overrides)
	}
}

func TestDefault(t *testing.T) {
	prev := now
	now = func() time.Time { return time.Date(2025, time.March, 4, 15, 0, 0, 0, time.UTC) }
	defer func() { now = prev }()

	cfg, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Baseline.AsOf != "2025-03-04" {
		t.Errorf("expected as_of to default to today, got %q", cfg.Baseline.AsOf)
	}
	if cfg.Baseline.Support != "widely" || cfg.Baseline.Message != lint.DefaultMessage {
		t.Errorf("unexpected baseline defaults: %+v", cfg.Baseline)
	}
	if cfg.Scan.Workers != runtime.NumCPU() || !cfg.Scan.Tests() {
		t.Errorf("unexpected scan defaults: %+v", cfg.Scan)
	}
	if cfg.Watch.Debounce != 300*time.Millisecond {
		t.Errorf("expected default debounce 300ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected text output, got %q", cfg.Output.Format)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BASELINE_AS_OF", "2022-06-30")
	t.Setenv("BASELINE_SUPPORT", "newly")
	t.Setenv("BASELINE_SCAN_WORKERS", "2")

	cfg, err := Parse([]byte("[baseline]\nas_of = \"2020-01-01\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Baseline.AsOf != "2022-06-30" || cfg.Baseline.Support != "newly" || cfg.Scan.Workers != 2 {
		t.Errorf("env overrides not applied: %+v %+v", cfg.Baseline, cfg.Scan)
	}
}

func TestUserRules(t *testing.T) {
	cfg, err := Parse([]byte(`
[baseline]
as_of = "2024-01-01"

[[rules]]
id = "set-union"
concern = "Set.prototype.union()"
global = "Set"
newly_available = "2024-06-11"

[[rules.match]]
kind = "instance_member"
member = "union"

[[rules]]
id = "array-at"
global = "Array"
newly_available = "2022-03-14"

[[rules.match]]
kind = "instance_member"
member = "at"
`))
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	union, ok := catalog.Get("set-union")
	if !ok || union.Builtin {
		t.Fatalf("expected user rule set-union, got %+v", union)
	}
	at, _ := catalog.Get("array-at")
	if at.Builtin {
		t.Errorf("user rule should replace built-in array-at")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed", content: "bad = toml = format"},
		{name: "unknown key", content: "[scan]\nworkerz = 2\n"},
		{name: "bad date", content: "[baseline]\nas_of = \"01/02/2024\"\n"},
		{name: "bad tier", content: "[baseline]\nsupport = \"limited\"\n"},
		{name: "bad feature tier", content: "[baseline.features.array-at]\nsupport = \"soon\"\n"},
		{name: "bad format", content: "[output]\nformat = \"xml\"\n"},
		{name: "unknown language", content: "[languages.python]\nenabled = true\n"},
		{name: "unknown only", content: "[baseline]\nonly = [\"nope\"]\n"},
		{name: "bad rule", content: "[[rules]]\nid = \"x\"\nglobal = \"Array\"\n"},
		{name: "bad metrics addr", content: "[observability]\nmetrics_addr = \"9090\"\n"},
		{name: "bad version", content: "version = 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, errors.CodeConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}

	if _, err := Load("nonexistent.toml"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}
