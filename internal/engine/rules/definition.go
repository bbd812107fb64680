package rules

import (
	"fmt"
	"regexp"
	"strings"

	"baseline/internal/core/errors"
	"baseline/internal/engine/availability"
	"baseline/internal/engine/detector"
)

// Definition is a rule as written in a configuration file.
type Definition struct {
	ID          string
	Concern     string
	FeatureIDs  []string
	Global      string
	Instance    string
	Constructor string
	Newly       string
	Widely      string
	Docs        string
	SpecURL     string
	Message     string
	Matches     []MatchDefinition
}

// MatchDefinition describes one detector spec. Argument kinds select their
// call with Call and Member.
type MatchDefinition struct {
	Kind           string
	Member         string
	DetectBareCall bool
	Call           string
	ArgIndex       int
	Property       string
	Type           string
	Pattern        string
}

// Compile validates d and builds the Rule it describes. Target names default
// from Global: Instance to Global and Constructor to Global+"Constructor".
func Compile(d Definition) (Rule, error) {
	fail := func(err error) (Rule, error) {
		return Rule{}, errors.AddContext(err, errors.CtxRule, d.ID)
	}
	if strings.TrimSpace(d.ID) == "" {
		return Rule{}, errors.Configuration("rules.id", "rule definition has no id")
	}

	opts := availability.DescriptorOptions{
		Concern:    d.Concern,
		FeatureIDs: d.FeatureIDs,
		Docs:       availability.Docs{Primary: d.Docs, Spec: d.SpecURL},
	}
	if opts.Concern == "" {
		opts.Concern = d.ID
	}
	if len(opts.FeatureIDs) == 0 {
		opts.FeatureIDs = []string{d.ID}
	}
	var err error
	if d.Newly != "" {
		if opts.NewlyDate, err = availability.ParseDate(d.Newly); err != nil {
			return fail(errors.Configuration("rules.newly", err.Error()))
		}
	}
	if d.Widely != "" {
		if opts.WidelyDate, err = availability.ParseDate(d.Widely); err != nil {
			return fail(errors.Configuration("rules.widely", err.Error()))
		}
	}
	desc, err := availability.NewFeatureDescriptor(opts)
	if err != nil {
		return fail(err)
	}

	t := detector.Target{Global: d.Global, Instance: d.Instance, Constructor: d.Constructor}
	if t.Instance == "" {
		t.Instance = d.Global
	}
	if t.Constructor == "" && d.Global != "" {
		t.Constructor = d.Global + "Constructor"
	}

	r := Rule{ID: d.ID, Descriptor: desc, Target: t, Message: d.Message}
	for i, m := range d.Matches {
		spec, err := compileMatch(m)
		if err != nil {
			return fail(errors.AddContext(err, "match", i))
		}
		r.Specs = append(r.Specs, spec)
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// CompileAll compiles every definition, stopping at the first error.
func CompileAll(defs []Definition) ([]Rule, error) {
	out := make([]Rule, 0, len(defs))
	for _, d := range defs {
		r, err := Compile(d)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func compileMatch(m MatchDefinition) (detector.Spec, error) {
	kind, ok := detector.ParseSpecKind(m.Kind)
	if !ok {
		return detector.Spec{}, errors.Configuration("rules.match.kind", fmt.Sprintf("unknown match kind %q", m.Kind))
	}
	switch kind {
	case detector.SpecInstanceMember:
		return detector.InstanceMember(m.Member), nil
	case detector.SpecStaticMember:
		return detector.StaticMember(m.Member), nil
	case detector.SpecConstructor:
		return detector.ConstructorUsage(m.DetectBareCall), nil
	}

	call, err := compileMatch(MatchDefinition{Kind: m.Call, Member: m.Member, DetectBareCall: m.DetectBareCall})
	if err != nil {
		return detector.Spec{}, errors.Configuration("rules.match.call", fmt.Sprintf("%s needs call = instance_member, static_member or constructor", kind))
	}
	switch kind {
	case detector.SpecArgumentHasProperty:
		return detector.ArgumentHasProperty(call, m.ArgIndex, m.Property), nil
	case detector.SpecArgumentExists:
		return detector.ArgumentExists(call, m.ArgIndex), nil
	case detector.SpecArgumentOfType:
		return detector.ArgumentOfType(call, m.ArgIndex, m.Type), nil
	case detector.SpecArgumentMatchesPattern:
		re, err := regexp.Compile(m.Pattern)
		if err != nil || m.Pattern == "" {
			return detector.Spec{}, errors.Configuration("rules.match.pattern", fmt.Sprintf("invalid pattern %q", m.Pattern))
		}
		return detector.ArgumentMatchesPattern(call, m.ArgIndex, re), nil
	}
	return detector.Spec{}, errors.Configuration("rules.match.kind", fmt.Sprintf("unsupported match kind %q", m.Kind))
}
