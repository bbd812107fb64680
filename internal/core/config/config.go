package config

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"baseline/internal/core/errors"
	"baseline/internal/engine/availability"
	"baseline/internal/engine/lint"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "baseline.toml"

type Config struct {
	Version       int                 `toml:"version"`
	Baseline      Baseline            `toml:"baseline"`
	Scan          Scan                `toml:"scan"`
	Languages     map[string]Language `toml:"languages"`
	Output        Output              `toml:"output"`
	History       History             `toml:"history"`
	Watch         Watch               `toml:"watch"`
	Observability Observability       `toml:"observability"`
	Rules         []RuleEntry         `toml:"rules"`
}

type Baseline struct {
	AsOf     string                     `toml:"as_of"`
	Support  string                     `toml:"support"`
	Message  string                     `toml:"message"`
	Only     []string                   `toml:"only"` // Rule ids to run; empty runs the whole catalog.
	Features map[string]FeatureOverride `toml:"features"`
}

type FeatureOverride struct {
	Support string `toml:"support"`
	Enabled *bool  `toml:"enabled"`
}

type Scan struct {
	Paths        []string `toml:"paths"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
	Workers      int      `toml:"workers"`
	IncludeTests *bool    `toml:"include_tests"`
	MaxFileSize  int64    `toml:"max_file_size"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled"`
	Extensions []string `toml:"extensions"`
}

type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
	Color  *bool  `toml:"color"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	Project     string        `toml:"project"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	Keep        int           `toml:"keep"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Rate     float64       `toml:"rate"`
	Burst    int           `toml:"burst"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// RuleEntry is a [[rules]] table.
type RuleEntry struct {
	ID          string       `toml:"id"`
	Concern     string       `toml:"concern"`
	FeatureIDs  []string     `toml:"feature_ids"`
	Global      string       `toml:"global"`
	Instance    string       `toml:"instance"`
	Constructor string       `toml:"constructor"`
	Newly       string       `toml:"newly_available"`
	Widely      string       `toml:"widely_available"`
	Docs        string       `toml:"docs"`
	SpecURL     string       `toml:"spec_url"`
	Message     string       `toml:"message"`
	Match       []MatchEntry `toml:"match"`
}

type MatchEntry struct {
	Kind           string `toml:"kind"`
	Member         string `toml:"member"`
	DetectBareCall bool   `toml:"detect_bare_call"`
	Call           string `toml:"call"`
	ArgIndex       int    `toml:"arg_index"`
	Property       string `toml:"property"`
	Type           string `toml:"type"`
	Pattern        string `toml:"pattern"`
}

// now is replaced in tests.
var now = time.Now

// Load reads, defaults and validates a configuration file. Environment
// overrides are applied between decoding and defaulting.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeConfiguration, "read config"), errors.CtxPath, path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return cfg, nil
}

// Parse decodes TOML data. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Configuration(keys[0], fmt.Sprintf("unknown configuration keys: %s", strings.Join(keys, ", ")))
	}

	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	return Parse(nil)
}

// LoadOrDefault loads path, or DefaultFile when path is empty. A missing
// DefaultFile is not an error.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}
	return Default()
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Baseline.AsOf) == "" {
		cfg.Baseline.AsOf = availability.DateOf(now()).String()
	}
	if strings.TrimSpace(cfg.Baseline.Support) == "" {
		cfg.Baseline.Support = availability.Widely.String()
	}
	if strings.TrimSpace(cfg.Baseline.Message) == "" {
		cfg.Baseline.Message = lint.DefaultMessage
	}

	if len(cfg.Scan.Paths) == 0 {
		cfg.Scan.Paths = []string{"."}
	}
	if cfg.Scan.ExcludeDirs == nil {
		cfg.Scan.ExcludeDirs = []string{".git", "node_modules", "dist", "build", "coverage"}
	}
	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = runtime.NumCPU()
	}
	if cfg.Scan.IncludeTests == nil {
		include := true
		cfg.Scan.IncludeTests = &include
	}
	if cfg.Scan.MaxFileSize <= 0 {
		cfg.Scan.MaxFileSize = 2 << 20
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}
	if cfg.Output.Color == nil {
		color := true
		cfg.Output.Color = &color
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".baseline/history.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}
	if cfg.History.Keep <= 0 {
		cfg.History.Keep = 200
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.Rate <= 0 {
		cfg.Watch.Rate = 4
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 8
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "baseline"
	}
}

func normalize(cfg *Config) {
	cfg.Baseline.AsOf = strings.TrimSpace(cfg.Baseline.AsOf)
	cfg.Baseline.Support = strings.ToLower(strings.TrimSpace(cfg.Baseline.Support))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.History.Project = strings.TrimSpace(cfg.History.Project)
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)

	only := make([]string, 0, len(cfg.Baseline.Only))
	for _, id := range cfg.Baseline.Only {
		if id = strings.TrimSpace(id); id != "" {
			only = append(only, id)
		}
	}
	sort.Strings(only)
	cfg.Baseline.Only = only
}

// UseColor reports whether text output should be styled.
func (o Output) UseColor() bool {
	return o.Color == nil || *o.Color
}

func (s Scan) Tests() bool {
	return s.IncludeTests == nil || *s.IncludeTests
}
