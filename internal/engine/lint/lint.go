// Package lint turns detector findings into diagnostics under an
// availability policy.
package lint

import (
	"log/slog"
	"sort"
	"strings"

	"baseline/internal/engine/availability"
	"baseline/internal/engine/detector"
	"baseline/internal/engine/jsast"
	"baseline/internal/engine/oracle"
	"baseline/internal/engine/parser"
	"baseline/internal/engine/rules"
	"baseline/internal/engine/types"
)

// DefaultMessage is the diagnostic template used when neither the linter
// nor the rule sets one.
const DefaultMessage = "{concern} is not Baseline {supportTier} available as of {asOf}"

type Diagnostic struct {
	RuleID    string                   `json:"rule_id"`
	FeatureID string                   `json:"feature_id"`
	Concern   string                   `json:"concern"`
	Path      string                   `json:"path"`
	Line      int                      `json:"line"`
	Column    int                      `json:"column"`
	EndLine   int                      `json:"end_line"`
	EndColumn int                      `json:"end_column"`
	Message   string                   `json:"message"`
	Docs      string                   `json:"docs,omitempty"`
	Tier      availability.SupportTier `json:"support_tier"`
}

// activeRule is a rule whose usages are reported under the current policy.
type activeRule struct {
	rule     rules.Rule
	decision availability.Decision
}

type Linter struct {
	cfg     availability.RuleConfig
	message string
	lib     *types.Lib
	catalog *rules.Catalog
	active  []activeRule
}

type Option func(*Linter)

// WithMessage replaces DefaultMessage. Rules with their own message keep it.
func WithMessage(tpl string) Option {
	return func(l *Linter) {
		if strings.TrimSpace(tpl) != "" {
			l.message = tpl
		}
	}
}

// WithLib sets the declaration table globals resolve against.
func WithLib(lib *types.Lib) Option {
	return func(l *Linter) { l.lib = lib }
}

// New validates cfg before anything is analysed and selects the rules that
// are reportable under it.
func New(catalog *rules.Catalog, cfg availability.RuleConfig, opts ...Option) (*Linter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Linter{cfg: cfg, message: DefaultMessage, catalog: catalog}
	for _, opt := range opts {
		opt(l)
	}
	if l.lib == nil {
		l.lib = types.DefaultLib()
	}
	for _, r := range catalog.Rules() {
		d := availability.Evaluate(cfg, r.Descriptor)
		if !d.Reportable() {
			slog.Debug("rule inactive", "rule", r.ID, "enabled", d.Enabled, "available", d.Available, "tier", d.Tier)
			continue
		}
		l.active = append(l.active, activeRule{rule: r, decision: d})
	}
	return l, nil
}

// Active returns the rules that produce diagnostics.
func (l *Linter) Active() []rules.Rule {
	out := make([]rules.Rule, len(l.active))
	for i, a := range l.active {
		out[i] = a.rule
	}
	return out
}

// Status reports the availability decision of every catalog rule.
func (l *Linter) Status() []RuleStatus {
	out := make([]RuleStatus, 0, l.catalog.Len())
	for _, r := range l.catalog.Rules() {
		out = append(out, RuleStatus{Rule: r, Decision: availability.Evaluate(l.cfg, r.Descriptor)})
	}
	return out
}

type RuleStatus struct {
	Rule     rules.Rule
	Decision availability.Decision
}

func (l *Linter) Config() availability.RuleConfig { return l.cfg }

// Lint analyses one parsed file.
func (l *Linter) Lint(file *parser.File) ([]Diagnostic, error) {
	return l.LintProgram(file.Program)
}

// LintProgram runs every active rule over prog. Each rule gets its own
// detector, so alias tracking and deduplication are per rule. Diagnostics
// come back in source order.
func (l *Linter) LintProgram(prog *jsast.Program) ([]Diagnostic, error) {
	if prog == nil || len(l.active) == 0 {
		return nil, nil
	}
	scopes := jsast.BuildScopes(prog)
	o := oracle.New(scopes, l.lib)

	var out []Diagnostic
	for _, a := range l.active {
		det, err := detector.New(o, scopes, a.rule.Checks()...)
		if err != nil {
			return nil, err
		}
		det.Run(prog, func(f detector.Finding) {
			out = append(out, l.diagnostic(prog.Path, a, f))
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		if out[i].Column != out[j].Column {
			return out[i].Column < out[j].Column
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out, nil
}

func (l *Linter) diagnostic(path string, a activeRule, f detector.Finding) Diagnostic {
	desc := a.rule.Descriptor
	span := f.Node.Span()
	tpl := l.message
	if a.rule.Message != "" {
		tpl = a.rule.Message
	}
	return Diagnostic{
		RuleID:    a.rule.ID,
		FeatureID: f.FeatureID,
		Concern:   desc.Concern(),
		Path:      path,
		Line:      span.Start.Line,
		Column:    span.Start.Column,
		EndLine:   span.End.Line,
		EndColumn: span.End.Column,
		Message:   Format(tpl, desc.Concern(), l.cfg.AsOf, a.decision.Tier),
		Docs:      desc.Docs().Primary,
		Tier:      a.decision.Tier,
	}
}

// Format interpolates {concern}, {asOf} and {supportTier} into tpl.
func Format(tpl, concern string, asOf availability.Date, tier availability.SupportTier) string {
	return strings.NewReplacer(
		"{concern}", concern,
		"{asOf}", asOf.String(),
		"{supportTier}", tier.String(),
	).Replace(tpl)
}
