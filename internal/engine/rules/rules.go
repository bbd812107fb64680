// Package rules holds the catalog of platform features the linter knows
// how to detect. A Rule binds an availability descriptor to the detector
// checks that find usages of the feature.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"baseline/internal/core/errors"
	"baseline/internal/engine/availability"
	"baseline/internal/engine/detector"
)

// Rule is pure data: building one has no side effects and a Rule is never
// mutated after it enters a Catalog.
type Rule struct {
	ID         string
	Descriptor *availability.FeatureDescriptor
	Target     detector.Target
	Specs      []detector.Spec
	// Message overrides the linter's default template for this rule.
	Message string
	// Builtin is false for rules loaded from configuration.
	Builtin bool
}

// FeatureID is the id findings of this rule carry.
func (r Rule) FeatureID() string {
	if r.Descriptor == nil {
		return ""
	}
	return r.Descriptor.PrimaryFeatureID()
}

// Checks pairs every spec of the rule with its target and feature id.
func (r Rule) Checks() []detector.Check {
	out := make([]detector.Check, 0, len(r.Specs))
	for _, s := range r.Specs {
		out = append(out, detector.Check{Target: r.Target, Spec: s, FeatureID: r.FeatureID()})
	}
	return out
}

func (r Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.Configuration("id", "rule has no id")
	}
	if r.Descriptor == nil {
		return errors.AddContext(errors.Configuration("descriptor", "rule has no feature descriptor"), errors.CtxRule, r.ID)
	}
	if len(r.Specs) == 0 {
		return errors.AddContext(errors.Configuration("match", "rule has no match specifications"), errors.CtxRule, r.ID)
	}
	for _, c := range r.Checks() {
		if err := c.Validate(); err != nil {
			return errors.AddContext(err, errors.CtxRule, r.ID)
		}
	}
	return nil
}

// Catalog is an ordered, validated rule set keyed by rule id.
type Catalog struct {
	rules []Rule
	index map[string]int
}

// NewCatalog validates rules and rejects duplicate ids. Rules are kept in
// id order.
func NewCatalog(rules ...Rule) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(rules))}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[r.ID]; dup {
			return nil, errors.AddContext(errors.Configuration("id", fmt.Sprintf("duplicate rule id %q", r.ID)), errors.CtxRule, r.ID)
		}
		c.index[r.ID] = len(c.rules)
		c.rules = append(c.rules, r)
	}
	sort.SliceStable(c.rules, func(i, j int) bool { return c.rules[i].ID < c.rules[j].ID })
	for i, r := range c.rules {
		c.index[r.ID] = i
	}
	return c, nil
}

// Merge returns a catalog holding c's rules plus extra. An extra rule with
// the id of an existing rule replaces it.
func (c *Catalog) Merge(extra ...Rule) (*Catalog, error) {
	replaced := make(map[string]bool, len(extra))
	for _, r := range extra {
		replaced[r.ID] = true
	}
	all := make([]Rule, 0, len(c.rules)+len(extra))
	for _, r := range c.rules {
		if !replaced[r.ID] {
			all = append(all, r)
		}
	}
	return NewCatalog(append(all, extra...)...)
}

func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

func (c *Catalog) Get(id string) (Rule, bool) {
	i, ok := c.index[id]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

func (c *Catalog) Len() int { return len(c.rules) }

// Select keeps the rules whose id is listed. An empty list keeps all.
func (c *Catalog) Select(ids ...string) (*Catalog, error) {
	if len(ids) == 0 {
		return c, nil
	}
	out := make([]Rule, 0, len(ids))
	for _, id := range ids {
		r, ok := c.Get(id)
		if !ok {
			return nil, errors.AddContext(errors.New(errors.CodeNotFound, fmt.Sprintf("unknown rule %q", id)), errors.CtxRule, id)
		}
		out = append(out, r)
	}
	return NewCatalog(out...)
}
