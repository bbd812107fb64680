// Package report selects and writes the output format of a scan.
package report

import (
	"bytes"
	"fmt"
	"io"

	"baseline/internal/shared/util"
	"baseline/internal/ui/report/formats"
)

type Report = formats.Report

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "sarif", "tsv"}

// Render encodes r in format. projectRoot anchors SARIF URIs.
func Render(format, projectRoot string, r Report, color bool) ([]byte, error) {
	switch format {
	case "", "text":
		var buf bytes.Buffer
		if err := formats.WriteText(&buf, r, color); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "json":
		return formats.GenerateJSON(r)
	case "sarif":
		return formats.GenerateSARIF(projectRoot, r)
	case "tsv":
		out, err := formats.GenerateTSV(r)
		return []byte(out), err
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// Write renders r to path when set, otherwise to w. Colors are only used
// for terminal output.
func Write(w io.Writer, path, format, projectRoot string, r Report, color bool) error {
	data, err := Render(format, projectRoot, r, color && path == "")
	if err != nil {
		return err
	}
	if path != "" {
		return util.WriteFileWithDirs(path, data, 0o644)
	}
	_, err = w.Write(data)
	return err
}
