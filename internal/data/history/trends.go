package history

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// BuildTrendReport orders runs oldest first and computes deltas between
// consecutive runs plus a moving average of findings over window.
func BuildTrendReport(project string, runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs recorded for project %q", projectKey(project))
	}

	ordered := append([]Run(nil), runs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartedAt.Before(ordered[j].StartedAt)
	})

	points := make([]TrendPoint, 0, len(ordered))
	for i, current := range ordered {
		point := TrendPoint{
			RunID:           current.ID,
			StartedAt:       current.StartedAt,
			FileCount:       current.FileCount,
			DiagnosticCount: current.DiagnosticCount,
		}
		if i > 0 {
			prev := ordered[i-1]
			point.DeltaFiles = current.FileCount - prev.FileCount
			point.DeltaFindings = current.DiagnosticCount - prev.DiagnosticCount
			point.RuleDeltas = ruleDeltas(prev.RuleCounts, current.RuleCounts)
		}
		point.AvgFindings = round2(movingAverage(ordered, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Project:       projectKey(project),
		Since:         ordered[0].StartedAt,
		Until:         ordered[len(ordered)-1].StartedAt,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func ruleDeltas(prev, current map[string]int) map[string]int {
	out := make(map[string]int)
	for rule, n := range current {
		if d := n - prev[rule]; d != 0 {
			out[rule] = d
		}
	}
	for rule, n := range prev {
		if _, ok := current[rule]; !ok {
			out[rule] = -n
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func movingAverage(runs []Run, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(runs[index].DiagnosticCount)
	}

	cutoff := runs[index].StartedAt.Add(-window)
	total := 0
	count := 0
	for i := index; i >= 0; i-- {
		if runs[i].StartedAt.Before(cutoff) {
			break
		}
		total += runs[i].DiagnosticCount
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
