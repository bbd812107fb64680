package history

import "time"

const SchemaVersion = 1

// Run summarizes one lint invocation.
type Run struct {
	ID              string         `json:"id"`
	Project         string         `json:"project"`
	SchemaVersion   int            `json:"schema_version"`
	StartedAt       time.Time      `json:"started_at"`
	Duration        time.Duration  `json:"duration_ns"`
	AsOf            string         `json:"as_of"`
	Support         string         `json:"support"`
	FileCount       int            `json:"file_count"`
	ParseErrorCount int            `json:"parse_error_count"`
	DiagnosticCount int            `json:"diagnostic_count"`
	RuleCounts      map[string]int `json:"rule_counts,omitempty"`
}

// Record is one persisted diagnostic.
type Record struct {
	RunID     string `json:"run_id"`
	RuleID    string `json:"rule_id"`
	FeatureID string `json:"feature_id"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Message   string `json:"message"`
}

type TrendPoint struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	FileCount       int            `json:"file_count"`
	DiagnosticCount int            `json:"diagnostic_count"`
	DeltaFiles      int            `json:"delta_files"`
	DeltaFindings   int            `json:"delta_findings"`
	RuleDeltas      map[string]int `json:"rule_deltas,omitempty"`
	AvgFindings     float64        `json:"avg_findings"`
	WindowHours     float64        `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Project       string       `json:"project"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
