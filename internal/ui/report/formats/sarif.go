package formats

import (
	"encoding/json"
	"sort"

	"baseline/internal/engine/lint"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
	srcRoot      = "%SRCROOT%"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Results     []sarifResult     `json:"results"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	HelpURI          string                 `json:"helpUri,omitempty"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

type sarifInvocation struct {
	ExecutionSuccessful        bool                `json:"executionSuccessful"`
	ToolExecutionNotifications []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from r. All file URIs are
// made relative to projectRoot; absolute paths are never included so that
// reports are safe to share.
func GenerateSARIF(projectRoot string, r Report) ([]byte, error) {
	rules, index := buildSARIFRules(r)

	results := make([]sarifResult, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		results = append(results, sarifResult{
			RuleID:    d.RuleID,
			RuleIndex: index[d.RuleID],
			Level:     "warning",
			Message:   sarifMessage{Text: d.Message},
			Locations: []sarifLocation{fileLocation(projectRoot, d.Path, &sarifRegion{
				StartLine:   d.Line,
				StartColumn: d.Column,
				EndLine:     d.EndLine,
				EndColumn:   d.EndColumn,
			})},
		})
	}

	invocation := sarifInvocation{ExecutionSuccessful: true}
	for _, f := range r.Failed {
		invocation.ToolExecutionNotifications = append(invocation.ToolExecutionNotifications, sarifNotification{
			Level:     "error",
			Message:   sarifMessage{Text: f.Error},
			Locations: []sarifLocation{fileLocation(projectRoot, f.Path, nil)},
		})
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    r.Tool,
						Version: r.Version,
						Rules:   rules,
					},
				},
				Results:     results,
				Invocations: []sarifInvocation{invocation},
				Properties: map[string]string{
					"asOf":    r.AsOf,
					"support": r.Support,
				},
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules describes the rules that produced at least one
// diagnostic, sorted by id, and returns their index positions.
func buildSARIFRules(r Report) ([]sarifRule, map[string]int) {
	meta := make(map[string]lint.Diagnostic)
	for _, d := range r.Diagnostics {
		if _, ok := meta[d.RuleID]; !ok {
			meta[d.RuleID] = d
		}
	}
	ids := make([]string, 0, len(meta))
	for id := range meta {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rules := make([]sarifRule, 0, len(ids))
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		d := meta[id]
		index[id] = i
		rules = append(rules, sarifRule{
			ID:               id,
			Name:             d.FeatureID,
			ShortDescription: sarifMessage{Text: d.Concern},
			HelpURI:          d.Docs,
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	return rules, index
}

func fileLocation(projectRoot, path string, region *sarifRegion) sarifLocation {
	return sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       relativeURI(projectRoot, path),
				URIBaseID: srcRoot,
			},
			Region: region,
		},
	}
}
