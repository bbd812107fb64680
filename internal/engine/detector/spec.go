// Package detector finds usages of platform API surface in a parsed
// program. A Detector is configured with Checks, each pairing a target type
// with a Spec describing the usage shape, and reports every matching node
// once, in source order.
package detector

import (
	"fmt"
	"regexp"
	"strings"

	"baseline/internal/core/errors"
)

// SpecKind tags the variant held by a Spec.
type SpecKind uint8

const (
	SpecInvalid SpecKind = iota
	SpecInstanceMember
	SpecStaticMember
	SpecConstructor
	SpecArgumentHasProperty
	SpecArgumentExists
	SpecArgumentOfType
	SpecArgumentMatchesPattern
)

var specKindNames = [...]string{
	SpecInvalid:                "invalid",
	SpecInstanceMember:         "instance_member",
	SpecStaticMember:           "static_member",
	SpecConstructor:            "constructor",
	SpecArgumentHasProperty:    "argument_has_property",
	SpecArgumentExists:         "argument_exists",
	SpecArgumentOfType:         "argument_of_type",
	SpecArgumentMatchesPattern: "argument_matches_pattern",
}

func (k SpecKind) String() string {
	if int(k) < len(specKindNames) {
		return specKindNames[k]
	}
	return specKindNames[SpecInvalid]
}

// ParseSpecKind maps the names used in rule files back to kinds.
func ParseSpecKind(s string) (SpecKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range specKindNames {
		if k != int(SpecInvalid) && name == s {
			return SpecKind(k), true
		}
	}
	return SpecInvalid, false
}

// Spec is an immutable description of one usage shape. Build it with the
// constructor functions; the zero Spec is invalid.
type Spec struct {
	kind           SpecKind
	name           string
	detectBareCall bool
	call           *Spec
	argIndex       int
	property       string
	expectedType   string
	pattern        *regexp.Regexp
}

// InstanceMember matches `x.name` where x is an instance of the target,
// including `Target.prototype.name`.
func InstanceMember(name string) Spec {
	return Spec{kind: SpecInstanceMember, name: name}
}

// StaticMember matches `Target.name`.
func StaticMember(name string) Spec {
	return Spec{kind: SpecStaticMember, name: name}
}

// ConstructorUsage matches `new Target()`, `class X extends Target` and, when
// detectBareCall is set, `Target()`.
func ConstructorUsage(detectBareCall bool) Spec {
	return Spec{kind: SpecConstructor, detectBareCall: detectBareCall}
}

// ArgumentHasProperty matches calls selected by call whose argument at
// argIndex is an object carrying property.
func ArgumentHasProperty(call Spec, argIndex int, property string) Spec {
	return Spec{kind: SpecArgumentHasProperty, call: &call, argIndex: argIndex, property: property}
}

// ArgumentExists matches calls selected by call that pass an argument at
// argIndex.
func ArgumentExists(call Spec, argIndex int) Spec {
	return Spec{kind: SpecArgumentExists, call: &call, argIndex: argIndex}
}

// ArgumentOfType matches calls whose argument at argIndex is of
// expectedType: a primitive name (string, number, boolean, bigint) or a
// nominal type name.
func ArgumentOfType(call Spec, argIndex int, expectedType string) Spec {
	return Spec{kind: SpecArgumentOfType, call: &call, argIndex: argIndex, expectedType: expectedType}
}

// ArgumentMatchesPattern matches calls whose argument at argIndex is a
// string matching pattern.
func ArgumentMatchesPattern(call Spec, argIndex int, pattern *regexp.Regexp) Spec {
	return Spec{kind: SpecArgumentMatchesPattern, call: &call, argIndex: argIndex, pattern: pattern}
}

func (s Spec) Kind() SpecKind          { return s.kind }
func (s Spec) Name() string            { return s.name }
func (s Spec) DetectBareCall() bool    { return s.detectBareCall }
func (s Spec) ArgIndex() int           { return s.argIndex }
func (s Spec) Property() string        { return s.property }
func (s Spec) ExpectedType() string    { return s.expectedType }
func (s Spec) Pattern() *regexp.Regexp { return s.pattern }

// Call returns the call-selecting spec of an argument spec.
func (s Spec) Call() (Spec, bool) {
	if s.call == nil {
		return Spec{}, false
	}
	return *s.call, true
}

// IsMember reports whether s matches member accesses.
func (s Spec) IsMember() bool {
	return s.kind == SpecInstanceMember || s.kind == SpecStaticMember
}

// IsArgument reports whether s inspects call arguments.
func (s Spec) IsArgument() bool { return s.call != nil }

// Validate rejects specs that cannot be matched.
func (s Spec) Validate() error {
	switch s.kind {
	case SpecInstanceMember, SpecStaticMember:
		if strings.TrimSpace(s.name) == "" {
			return errors.Configuration("member", s.kind.String()+" needs a member name")
		}
		return nil
	case SpecConstructor:
		return nil
	case SpecArgumentHasProperty, SpecArgumentExists, SpecArgumentOfType, SpecArgumentMatchesPattern:
	default:
		return errors.Configuration("kind", "unknown match specification")
	}

	if s.call == nil || !(s.call.IsMember() || s.call.kind == SpecConstructor) {
		return errors.Configuration("call", s.kind.String()+" must select a member or constructor call")
	}
	if err := s.call.Validate(); err != nil {
		return err
	}
	if s.argIndex < 0 {
		return errors.Configuration("arg_index", fmt.Sprintf("negative argument index %d", s.argIndex))
	}
	switch s.kind {
	case SpecArgumentHasProperty:
		if s.property == "" {
			return errors.Configuration("property", "argument_has_property needs a property name")
		}
	case SpecArgumentOfType:
		if s.expectedType == "" {
			return errors.Configuration("type", "argument_of_type needs a type name")
		}
	case SpecArgumentMatchesPattern:
		if s.pattern == nil {
			return errors.Configuration("pattern", "argument_matches_pattern needs a pattern")
		}
	}
	return nil
}

func (s Spec) String() string {
	switch s.kind {
	case SpecInstanceMember, SpecStaticMember:
		return fmt.Sprintf("%s(%s)", s.kind, s.name)
	case SpecConstructor:
		return fmt.Sprintf("%s(bare=%t)", s.kind, s.detectBareCall)
	case SpecArgumentHasProperty:
		return fmt.Sprintf("%s(%s, %d, %s)", s.kind, s.call, s.argIndex, s.property)
	case SpecArgumentExists:
		return fmt.Sprintf("%s(%s, %d)", s.kind, s.call, s.argIndex)
	case SpecArgumentOfType:
		return fmt.Sprintf("%s(%s, %d, %s)", s.kind, s.call, s.argIndex, s.expectedType)
	case SpecArgumentMatchesPattern:
		return fmt.Sprintf("%s(%s, %d, /%s/)", s.kind, s.call, s.argIndex, s.pattern)
	}
	return s.kind.String()
}

// Target names the platform type a Check is about.
type Target struct {
	// Global is the global value name, such as "Array".
	Global string
	// Instance is the nominal instance type, such as "Array".
	Instance string
	// Constructor is the nominal type of the global value, such as
	// "ArrayConstructor".
	Constructor string
}

// Check pairs a target and a spec with the feature id its Findings carry.
type Check struct {
	Target    Target
	Spec      Spec
	FeatureID string
}

func (c Check) Validate() error {
	if err := c.Spec.Validate(); err != nil {
		return errors.AddContext(err, errors.CtxFeature, c.FeatureID)
	}
	if c.FeatureID == "" {
		return errors.Configuration("feature_id", "check has no feature id")
	}
	needs := c.Spec
	if call, ok := c.Spec.Call(); ok {
		needs = call
	}
	switch needs.kind {
	case SpecInstanceMember:
		if c.Target.Instance == "" {
			return errors.AddContext(errors.Configuration("target.instance", needs.String()+" needs an instance type"), errors.CtxFeature, c.FeatureID)
		}
	case SpecStaticMember:
		if c.Target.Constructor == "" {
			return errors.AddContext(errors.Configuration("target.constructor", needs.String()+" needs a constructor type"), errors.CtxFeature, c.FeatureID)
		}
	case SpecConstructor:
		if c.Target.Global == "" && c.Target.Constructor == "" {
			return errors.AddContext(errors.Configuration("target.global", "constructor usage needs a global or constructor type"), errors.CtxFeature, c.FeatureID)
		}
	}
	return nil
}
