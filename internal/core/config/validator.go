package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/gobwas/glob"

	"baseline/internal/core/errors"
	"baseline/internal/engine/availability"
	"baseline/internal/engine/parser"
	"baseline/internal/engine/rules"
)

// Validate runs every section check and returns the first failure as a
// CodeConfiguration error.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateVersion,
		validateBaseline,
		validateScan,
		validateLanguages,
		validateOutput,
		validateHistory,
		validateWatch,
		validateObservability,
		validateRules,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return errors.Configuration("version", fmt.Sprintf("unsupported config version %d; supported version is 1", cfg.Version))
	}
	return nil
}

func validateBaseline(cfg *Config) error {
	_, err := cfg.Policy()
	return err
}

// Policy builds the availability policy from [baseline].
func (c *Config) Policy() (availability.RuleConfig, error) {
	asOf, err := availability.ParseDate(c.Baseline.AsOf)
	if err != nil {
		return availability.RuleConfig{}, errors.Configuration("baseline.as_of", err.Error())
	}
	tier, err := availability.ParseSupportTier(c.Baseline.Support)
	if err != nil {
		return availability.RuleConfig{}, errors.Configuration("baseline.support", err.Error())
	}
	policy := availability.RuleConfig{AsOf: asOf, SupportTier: tier}
	if len(c.Baseline.Features) > 0 {
		policy.Overrides = make(map[string]availability.Override, len(c.Baseline.Features))
	}
	for id, f := range c.Baseline.Features {
		if strings.TrimSpace(id) == "" {
			return availability.RuleConfig{}, errors.Configuration("baseline.features", "feature id must not be empty")
		}
		o := availability.Override{Enabled: f.Enabled}
		if strings.TrimSpace(f.Support) != "" {
			t, err := availability.ParseSupportTier(f.Support)
			if err != nil {
				return availability.RuleConfig{}, errors.Configuration("baseline.features."+id+".support", err.Error())
			}
			o.SupportTier = &t
		}
		policy.Overrides[id] = o
	}
	if err := policy.Validate(); err != nil {
		return availability.RuleConfig{}, err
	}
	return policy, nil
}

func validateScan(cfg *Config) error {
	for i, p := range cfg.Scan.Paths {
		if strings.TrimSpace(p) == "" {
			return errors.Configuration(fmt.Sprintf("scan.paths[%d]", i), "path must not be empty")
		}
	}
	for i, pattern := range cfg.Scan.ExcludeFiles {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return errors.Configuration(fmt.Sprintf("scan.exclude_files[%d]", i), fmt.Sprintf("invalid glob %q: %v", pattern, err))
		}
	}
	for i, pattern := range cfg.Scan.ExcludeDirs {
		if strings.TrimSpace(pattern) == "" {
			return errors.Configuration(fmt.Sprintf("scan.exclude_dirs[%d]", i), "pattern must not be empty")
		}
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return errors.Configuration(fmt.Sprintf("scan.exclude_dirs[%d]", i), fmt.Sprintf("invalid glob %q: %v", pattern, err))
		}
	}
	if cfg.Scan.Workers > 256 {
		return errors.Configuration("scan.workers", fmt.Sprintf("workers must be <= 256, got %d", cfg.Scan.Workers))
	}
	return nil
}

func validateLanguages(cfg *Config) error {
	for language, settings := range cfg.Languages {
		for _, ext := range settings.Extensions {
			if strings.TrimSpace(ext) == "" {
				return errors.Configuration("languages."+language+".extensions", "extensions must not include empty values")
			}
		}
	}
	_, err := parser.BuildLanguageRegistry(cfg.LanguageOverrides())
	return err
}

// LanguageOverrides converts [languages.<id>] tables for the grammar loader.
func (c *Config) LanguageOverrides() map[string]parser.LanguageOverride {
	if len(c.Languages) == 0 {
		return nil
	}
	out := make(map[string]parser.LanguageOverride, len(c.Languages))
	for id, l := range c.Languages {
		out[strings.ToLower(strings.TrimSpace(id))] = parser.LanguageOverride{Enabled: l.Enabled, Extensions: l.Extensions}
	}
	return out
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Format {
	case "text", "json", "sarif", "tsv":
		return nil
	}
	return errors.Configuration("output.format", fmt.Sprintf("output.format must be one of: text, json, sarif, tsv; got %q", cfg.Output.Format))
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		return errors.Configuration("history.path", "history.path must not be empty when history is enabled")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return errors.Configuration("watch.debounce", "debounce must not be negative")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return errors.Configuration("observability.metrics_addr", fmt.Sprintf("invalid address %q: %v", addr, err))
		}
	}
	return nil
}

func validateRules(cfg *Config) error {
	_, err := cfg.Catalog()
	return err
}

// Definitions converts [[rules]] tables into rule definitions.
func (c *Config) Definitions() []rules.Definition {
	out := make([]rules.Definition, 0, len(c.Rules))
	for _, r := range c.Rules {
		d := rules.Definition{
			ID:          strings.TrimSpace(r.ID),
			Concern:     r.Concern,
			FeatureIDs:  r.FeatureIDs,
			Global:      r.Global,
			Instance:    r.Instance,
			Constructor: r.Constructor,
			Newly:       r.Newly,
			Widely:      r.Widely,
			Docs:        r.Docs,
			SpecURL:     r.SpecURL,
			Message:     r.Message,
		}
		for _, m := range r.Match {
			d.Matches = append(d.Matches, rules.MatchDefinition{
				Kind:           m.Kind,
				Member:         m.Member,
				DetectBareCall: m.DetectBareCall,
				Call:           m.Call,
				ArgIndex:       m.ArgIndex,
				Property:       m.Property,
				Type:           m.Type,
				Pattern:        m.Pattern,
			})
		}
		out = append(out, d)
	}
	return out
}

// Catalog merges user rules over the built-in catalog and applies
// baseline.only.
func (c *Config) Catalog() (*rules.Catalog, error) {
	user, err := rules.CompileAll(c.Definitions())
	if err != nil {
		return nil, err
	}
	catalog, err := rules.BuiltinCatalog().Merge(user...)
	if err != nil {
		return nil, err
	}
	if len(c.Baseline.Only) == 0 {
		return catalog, nil
	}
	selected, err := catalog.Select(c.Baseline.Only...)
	if err != nil {
		return nil, errors.Configuration("baseline.only", err.Error())
	}
	return selected, nil
}
