package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "baseline_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	LintDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "baseline_lint_seconds",
		Help:    "Time spent running the active rules over one parsed file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesLintedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baseline_files_linted_total",
		Help: "Total number of files linted.",
	}, []string{"language"})

	ParseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baseline_parse_errors_total",
		Help: "Total number of files whose syntax tree contained recovered errors.",
	}, []string{"language"})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baseline_findings_total",
		Help: "Total number of diagnostics reported, by rule.",
	}, []string{"rule"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "baseline_scan_seconds",
		Help:    "Wall time of a complete scan.",
		Buckets: prometheus.DefBuckets,
	})

	LastScanFindings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "baseline_last_scan_findings",
		Help: "Number of diagnostics in the most recent scan.",
	})

	ActiveRules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "baseline_active_rules",
		Help: "Number of rules reportable under the current policy.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "baseline_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "baseline_watcher_throttled_total",
		Help: "Total number of changed files skipped by the re-lint rate limit.",
	})

	HistoryWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "baseline_history_write_errors_total",
		Help: "Total number of runs that could not be persisted.",
	})
)
