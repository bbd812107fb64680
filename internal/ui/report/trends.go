package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"baseline/internal/data/history"
	"baseline/internal/shared/util"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tFiles\tFindings\tDeltaFiles\tDeltaFindings\tAvgFindings\tWindowHours\tRuleDeltas\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%s\n",
			point.StartedAt.Format(time.RFC3339),
			point.RunID,
			point.FileCount,
			point.DiagnosticCount,
			point.DeltaFiles,
			point.DeltaFindings,
			point.AvgFindings,
			point.WindowHours,
			formatRuleDeltas(point.RuleDeltas),
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// RenderRuns prints recent runs as an aligned table, newest first.
func RenderRuns(runs []history.Run) ([]byte, error) {
	var buf strings.Builder
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tAS OF\tSUPPORT\tFILES\tFINDINGS\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			shortID(run.ID),
			run.AsOf,
			run.Support,
			run.FileCount,
			run.DiagnosticCount,
			run.Duration.Round(time.Millisecond),
		)
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

func formatRuleDeltas(deltas map[string]int) string {
	parts := make([]string, 0, len(deltas))
	for _, rule := range util.SortedStringKeys(deltas) {
		parts = append(parts, fmt.Sprintf("%s:%+d", rule, deltas[rule]))
	}
	return strings.Join(parts, ",")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
