package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// BASELINE_AS_OF and BASELINE_SUPPORT set the policy; the rest follow
// BASELINE_[SECTION]_[KEY] (e.g., BASELINE_OUTPUT_FORMAT).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Baseline.AsOf, "BASELINE_AS_OF")
	setEnvString(&cfg.Baseline.Support, "BASELINE_SUPPORT")
	setEnvString(&cfg.Baseline.Message, "BASELINE_MESSAGE")

	setEnvInt(&cfg.Scan.Workers, "BASELINE_SCAN_WORKERS")

	setEnvString(&cfg.Output.Format, "BASELINE_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "BASELINE_OUTPUT_PATH")
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		off := false
		cfg.Output.Color = &off
	}

	setEnvBool(&cfg.History.Enabled, "BASELINE_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "BASELINE_HISTORY_PATH")
	setEnvString(&cfg.History.Project, "BASELINE_HISTORY_PROJECT")

	setEnvDuration(&cfg.Watch.Debounce, "BASELINE_WATCH_DEBOUNCE")

	setEnvString(&cfg.Observability.MetricsAddr, "BASELINE_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "BASELINE_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
