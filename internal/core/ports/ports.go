package ports

import (
	"context"
	"time"

	"baseline/internal/data/history"
	"baseline/internal/engine/lint"
	"baseline/internal/engine/parser"
)

// CodeParser abstracts source parsing and language-file support checks.
type CodeParser interface {
	ParseFile(path string, content []byte) (*parser.File, error)
	GetLanguage(path string) string
	IsSupportedPath(filePath string) bool
	SupportedExtensions() []string
}

// FileLinter reports the diagnostics of one parsed file.
type FileLinter interface {
	Lint(file *parser.File) ([]lint.Diagnostic, error)
}

// HistoryStore abstracts run persistence for history and trend workflows.
type HistoryStore interface {
	SaveRun(ctx context.Context, run history.Run, records []history.Record) (string, error)
	LoadRuns(ctx context.Context, project string, limit int) ([]history.Run, error)
	LoadRecords(ctx context.Context, runID string) ([]history.Record, error)
}

// ScanRequest defines a scan operation request for driving adapters. Empty
// Paths scans the configured paths.
type ScanRequest struct {
	Paths []string
}

// FileError is a file that could not be read or parsed at all.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanResult summarizes a completed scan operation.
type ScanResult struct {
	RunID        string
	StartedAt    time.Time
	Duration     time.Duration
	FilesScanned int
	// SyntaxErrors counts files linted on a recovered tree.
	SyntaxErrors int
	Failed       []FileError
	Diagnostics  []lint.Diagnostic
}

// LintService is the driving-port surface used by the CLI.
type LintService interface {
	RunScan(ctx context.Context, req ScanRequest) (ScanResult, error)
	Rules() []lint.RuleStatus
	RecentRuns(ctx context.Context, limit int) ([]history.Run, error)
}
