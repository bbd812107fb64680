package detector

import (
	"baseline/internal/core/errors"
	"baseline/internal/engine/jsast"
)

// OriginKind records how an alias captured a matched member.
type OriginKind uint8

const (
	// OriginInstanceMember: `const f = arr.at`.
	OriginInstanceMember OriginKind = iota + 1
	// OriginPrototypeMember: `const f = Array.prototype.at`.
	OriginPrototypeMember
	// OriginDestructured: `const { at } = arr`.
	OriginDestructured
	// OriginArrayLiteralMember: `const [f] = [arr.at]`.
	OriginArrayLiteralMember
)

func (k OriginKind) String() string {
	switch k {
	case OriginInstanceMember:
		return "instance_member"
	case OriginPrototypeMember:
		return "prototype_member"
	case OriginDestructured:
		return "destructured"
	case OriginArrayLiteralMember:
		return "array_literal_member"
	}
	return "unknown"
}

// AliasBinding is a variable known to hold a matched member. Origin is the
// node of the Finding the binding was created for.
type AliasBinding struct {
	Name   string
	Origin jsast.Node
	Kind   OriginKind
	// Decl is the declaring identifier, when known. Uses whose scope lookup
	// lands on another declaration do not resolve to this binding.
	Decl *jsast.Identifier
}

// AliasTracker maps declared names to the matched member they alias. It is
// filled in declaration order during a single traversal: no reassignment or
// branch sensitivity.
type AliasTracker struct {
	bindings map[string]AliasBinding
}

func NewAliasTracker() *AliasTracker {
	return &AliasTracker{bindings: make(map[string]AliasBinding)}
}

// Track binds name to origin. A later Track of the same name replaces the
// binding.
func (t *AliasTracker) Track(name string, origin jsast.Node, kind OriginKind) {
	t.track(AliasBinding{Name: name, Origin: origin, Kind: kind})
}

// TrackDeclaration binds the name declared by decl.
func (t *AliasTracker) TrackDeclaration(decl *jsast.Identifier, origin jsast.Node, kind OriginKind) {
	if decl == nil {
		return
	}
	t.track(AliasBinding{Name: decl.Name, Origin: origin, Kind: kind, Decl: decl})
}

func (t *AliasTracker) track(b AliasBinding) {
	if b.Origin == nil {
		errors.Invariantf("alias %q tracked without an origin finding", b.Name)
	}
	if b.Name == "" {
		return
	}
	t.bindings[b.Name] = b
}

func (t *AliasTracker) IsTracked(name string) bool {
	_, ok := t.bindings[name]
	return ok
}

func (t *AliasTracker) Resolve(name string) (AliasBinding, bool) {
	b, ok := t.bindings[name]
	return b, ok
}

// Len is the number of live bindings.
func (t *AliasTracker) Len() int { return len(t.bindings) }
