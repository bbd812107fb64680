package app

import (
	"context"
	"fmt"

	"baseline/internal/core/errors"
	"baseline/internal/core/ports"
	"baseline/internal/data/history"
	"baseline/internal/engine/lint"
	"baseline/internal/shared/observability"
)

type lintService struct {
	app *App
}

var _ ports.LintService = (*lintService)(nil)

func (s *lintService) RunScan(ctx context.Context, req ports.ScanRequest) (ports.ScanResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "lintService.RunScan")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.ScanResult{}, err
	}
	if s.app == nil {
		return ports.ScanResult{}, fmt.Errorf("app is required")
	}
	result, err := s.app.Scan(ctx, req.Paths)
	if err != nil {
		return ports.ScanResult{}, errors.AddContext(err, "operation", "scan")
	}
	return result, nil
}

func (s *lintService) Rules() []lint.RuleStatus {
	return s.app.Rules()
}

func (s *lintService) RecentRuns(ctx context.Context, limit int) ([]history.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.app.RecentRuns(ctx, limit)
}
