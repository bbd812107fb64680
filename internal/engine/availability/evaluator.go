package availability

import (
	"fmt"

	"baseline/internal/core/errors"
)

// Override adjusts the policy for one feature id. Nil fields inherit the
// rule-wide setting.
type Override struct {
	SupportTier *SupportTier
	Enabled     *bool
}

// RuleConfig is the availability policy of one analysis invocation.
type RuleConfig struct {
	AsOf        Date
	SupportTier SupportTier
	Overrides   map[string]Override
}

// Validate rejects configurations that cannot be evaluated. It runs before
// any traversal so a bad policy aborts the unit once instead of per site.
func (c RuleConfig) Validate() error {
	if c.AsOf.IsZero() {
		return errors.Configuration("as_of", "availability cutoff date is not set")
	}
	if c.SupportTier != Newly && c.SupportTier != Widely {
		return errors.Configuration("support", fmt.Sprintf("unknown support tier %q", c.SupportTier))
	}
	for id, o := range c.Overrides {
		if o.SupportTier != nil && *o.SupportTier != Newly && *o.SupportTier != Widely {
			return errors.Configuration("features."+id+".support", fmt.Sprintf("unknown support tier %q", *o.SupportTier))
		}
	}
	return nil
}

// IsAvailable reports whether d is permitted under cfg: the milestone picked
// by the tier must exist and must not be later than the cutoff.
func IsAvailable(cfg RuleConfig, d *FeatureDescriptor) bool {
	if d == nil {
		return false
	}
	milestone := d.Milestone(cfg.SupportTier)
	if milestone.IsZero() {
		return false
	}
	return cfg.AsOf.AtLeast(milestone)
}

// Decision is the outcome of Evaluate for one descriptor.
type Decision struct {
	// Enabled is false when the override of the first overridden feature id,
	// in sorted order, switches the feature off.
	Enabled   bool
	Available bool
	Tier      SupportTier
}

// Reportable is true when usages of the feature must be flagged.
func (d Decision) Reportable() bool { return d.Enabled && !d.Available }

// Evaluate applies per-feature overrides on top of IsAvailable. When a
// descriptor carries several ids, the first override in sorted id order
// wins.
func Evaluate(cfg RuleConfig, d *FeatureDescriptor) Decision {
	effective := cfg
	enabled := true
	if d != nil {
		for _, id := range d.featureIDs {
			o, ok := cfg.Overrides[id]
			if !ok {
				continue
			}
			if o.SupportTier != nil {
				effective.SupportTier = *o.SupportTier
			}
			if o.Enabled != nil {
				enabled = *o.Enabled
			}
			break
		}
	}
	return Decision{
		Enabled:   enabled,
		Available: IsAvailable(effective, d),
		Tier:      effective.SupportTier,
	}
}
