package formats

import (
	"encoding/json"

	"baseline/internal/engine/lint"
)

// GenerateJSON renders r as an indented JSON document. Diagnostics is
// always an array, never null.
func GenerateJSON(r Report) ([]byte, error) {
	if r.Diagnostics == nil {
		r.Diagnostics = []lint.Diagnostic{}
	}
	return json.MarshalIndent(r, "", "  ")
}
