package availability

import (
	"fmt"
	"sort"
	"strings"

	"baseline/internal/core/errors"
)

// SupportTier is the breadth of support a feature must have reached.
type SupportTier uint8

const (
	TierUnknown SupportTier = iota
	// Newly available: shipped in every core browser.
	Newly
	// Widely available: shipped long enough to be considered safe.
	Widely
)

func (t SupportTier) String() string {
	switch t {
	case Newly:
		return "newly"
	case Widely:
		return "widely"
	}
	return "unknown"
}

// ParseSupportTier accepts "newly" or "widely" in any case.
func ParseSupportTier(s string) (SupportTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "newly":
		return Newly, nil
	case "widely":
		return Widely, nil
	}
	return TierUnknown, fmt.Errorf("unknown support tier %q, expected newly or widely", s)
}

func (t SupportTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *SupportTier) UnmarshalText(text []byte) error {
	tier, err := ParseSupportTier(string(text))
	if err != nil {
		return err
	}
	*t = tier
	return nil
}

// Docs are optional documentation links of a feature.
type Docs struct {
	Primary string
	Spec    string
}

// FeatureDescriptor binds a concern to its availability milestones. It is
// built once at configuration time and never mutated; all fields are read
// through accessors.
type FeatureDescriptor struct {
	concern    string
	featureIDs []string
	docs       Docs
	newly      Date
	widely     Date
}

// DescriptorOptions are the inputs of NewFeatureDescriptor.
type DescriptorOptions struct {
	Concern    string
	FeatureIDs []string
	Docs       Docs
	NewlyDate  Date
	WidelyDate Date
}

// NewFeatureDescriptor validates and freezes a descriptor. At least one
// feature id is required; duplicate ids are collapsed.
func NewFeatureDescriptor(opts DescriptorOptions) (*FeatureDescriptor, error) {
	if strings.TrimSpace(opts.Concern) == "" {
		return nil, errors.Configuration("concern", "feature descriptor needs a concern label")
	}

	seen := make(map[string]bool, len(opts.FeatureIDs))
	ids := make([]string, 0, len(opts.FeatureIDs))
	for _, id := range opts.FeatureIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.Configuration("feature_ids", fmt.Sprintf("feature descriptor %q has no feature ids", opts.Concern))
	}
	sort.Strings(ids)

	if !opts.NewlyDate.IsZero() && !opts.WidelyDate.IsZero() && opts.WidelyDate.Before(opts.NewlyDate) {
		return nil, errors.Configuration("widely_available", fmt.Sprintf("feature %q is widely available before it is newly available", opts.Concern))
	}

	return &FeatureDescriptor{
		concern:    opts.Concern,
		featureIDs: ids,
		docs:       opts.Docs,
		newly:      opts.NewlyDate,
		widely:     opts.WidelyDate,
	}, nil
}

// MustFeatureDescriptor is NewFeatureDescriptor for static tables.
func MustFeatureDescriptor(opts DescriptorOptions) *FeatureDescriptor {
	d, err := NewFeatureDescriptor(opts)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *FeatureDescriptor) Concern() string { return d.concern }

// FeatureIDs returns a copy of the sorted feature id set.
func (d *FeatureDescriptor) FeatureIDs() []string {
	return append([]string(nil), d.featureIDs...)
}

// PrimaryFeatureID is the first id in sorted order.
func (d *FeatureDescriptor) PrimaryFeatureID() string { return d.featureIDs[0] }

func (d *FeatureDescriptor) HasFeatureID(id string) bool {
	for _, f := range d.featureIDs {
		if f == id {
			return true
		}
	}
	return false
}

func (d *FeatureDescriptor) Docs() Docs { return d.docs }

func (d *FeatureDescriptor) NewlyAvailableDate() Date { return d.newly }

func (d *FeatureDescriptor) WidelyAvailableDate() Date { return d.widely }

// Milestone returns the date selected by tier, zero when absent.
func (d *FeatureDescriptor) Milestone(tier SupportTier) Date {
	switch tier {
	case Newly:
		return d.newly
	case Widely:
		return d.widely
	}
	return Date{}
}
