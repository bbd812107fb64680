// Package formats renders lint results as text, JSON, SARIF or TSV.
package formats

import (
	"path/filepath"
	"time"

	"baseline/internal/core/ports"
	"baseline/internal/engine/lint"
)

// Report is the renderer-neutral view of one scan.
type Report struct {
	Tool         string            `json:"tool"`
	Version      string            `json:"version"`
	AsOf         string            `json:"as_of"`
	Support      string            `json:"support"`
	RunID        string            `json:"run_id,omitempty"`
	Duration     time.Duration     `json:"-"`
	FilesScanned int               `json:"files_scanned"`
	Diagnostics  []lint.Diagnostic `json:"diagnostics"`
	Failed       []ports.FileError `json:"failed,omitempty"`
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. Relative paths are returned with forward slashes.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}

// groupByPath splits diagnostics into per-file runs, keeping their order.
func groupByPath(diags []lint.Diagnostic) ([]string, map[string][]lint.Diagnostic) {
	var order []string
	groups := make(map[string][]lint.Diagnostic)
	for _, d := range diags {
		if _, ok := groups[d.Path]; !ok {
			order = append(order, d.Path)
		}
		groups[d.Path] = append(groups[d.Path], d)
	}
	return order, groups
}
