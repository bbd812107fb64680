package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// Health reports component status for the observability server.
func (a *App) Health(ctx context.Context) (any, bool) {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if a.codeParser != nil {
		status.Components["parser"] = fmt.Sprintf("ok (%d extensions)", len(a.codeParser.SupportedExtensions()))
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	if linter, _ := a.current(); linter != nil {
		status.Components["linter"] = fmt.Sprintf("ok (%d active rules)", len(linter.Active()))
	} else {
		status.Status = "degraded"
		status.Components["linter"] = "missing"
	}

	switch {
	case a.history != nil:
		status.Components["history"] = "ok"
	case a.Config.History.Enabled:
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	}

	a.resultsMu.RLock()
	status.Components["files"] = fmt.Sprintf("%d tracked", len(a.results)+len(a.failed))
	a.resultsMu.RUnlock()

	return status, status.Status == "up"
}
