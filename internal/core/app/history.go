package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"baseline/internal/core/ports"
	"baseline/internal/data/history"
	"baseline/internal/shared/observability"
)

// recordRun persists result when a history store is configured. Write
// failures are logged and counted; they never fail the scan.
func (a *App) recordRun(ctx context.Context, result ports.ScanResult) (string, error) {
	if a.history == nil {
		return "", fmt.Errorf("history disabled")
	}

	linter, _ := a.current()
	policy := linter.Config()
	run := history.Run{
		Project:         a.Paths.Project,
		StartedAt:       result.StartedAt,
		Duration:        result.Duration,
		AsOf:            policy.AsOf.String(),
		Support:         policy.SupportTier.String(),
		FileCount:       result.FilesScanned,
		ParseErrorCount: result.SyntaxErrors + len(result.Failed),
		DiagnosticCount: len(result.Diagnostics),
		RuleCounts:      make(map[string]int),
	}
	records := make([]history.Record, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		run.RuleCounts[d.RuleID]++
		records = append(records, history.Record{
			RuleID:    d.RuleID,
			FeatureID: d.FeatureID,
			Path:      d.Path,
			Line:      d.Line,
			Column:    d.Column,
			Message:   d.Message,
		})
	}

	id, err := a.history.SaveRun(ctx, run, records)
	if err != nil {
		observability.HistoryWriteErrorsTotal.Inc()
		slog.Warn("failed to save run history", "project", run.Project, "error", err)
		return "", err
	}
	slog.Debug("run history saved", "run_id", id, "project", run.Project)
	return id, nil
}

// RecentRuns returns up to limit runs of the current project, newest first.
func (a *App) RecentRuns(ctx context.Context, limit int) ([]history.Run, error) {
	if a.history == nil {
		return nil, fmt.Errorf("history is disabled; set [history] enabled = true")
	}
	return a.history.LoadRuns(ctx, a.Paths.Project, limit)
}

// RunRecords returns the diagnostics stored for one run.
func (a *App) RunRecords(ctx context.Context, runID string) ([]history.Record, error) {
	if a.history == nil {
		return nil, fmt.Errorf("history is disabled; set [history] enabled = true")
	}
	return a.history.LoadRecords(ctx, runID)
}

// Trends builds a trend report over up to limit recent runs.
func (a *App) Trends(ctx context.Context, limit int, window time.Duration) (history.TrendReport, error) {
	runs, err := a.RecentRuns(ctx, limit)
	if err != nil {
		return history.TrendReport{}, err
	}
	return history.BuildTrendReport(a.Paths.Project, runs, window)
}
