package detector

import (
	"baseline/internal/engine/jsast"
	"baseline/internal/engine/types"
)

// MemberName returns the statically known property name of m: `o.name`,
// `o["name"]`, or `o[k]` where k has the string-literal type "name".
func MemberName(o types.Oracle, m *jsast.MemberExpression) (string, bool) {
	if m == nil {
		return "", false
	}
	if !m.Computed {
		id, ok := m.Property.(*jsast.Identifier)
		if !ok {
			return "", false
		}
		return id.Name, true
	}
	if s, ok := jsast.StringValue(jsast.Unparen(m.Property)); ok {
		return s, true
	}
	t := o.ResolveType(m.Property)
	if !o.IsLiteralType(t) {
		return "", false
	}
	v, _ := o.LiteralValue(t)
	s, ok := v.(string)
	return s, ok
}

// IsMemberNamed reports whether n is a member access of name in any of its
// equivalent forms.
func IsMemberNamed(o types.Oracle, n jsast.Node, name string) bool {
	m, ok := jsast.Unparen(n).(*jsast.MemberExpression)
	if !ok {
		return false
	}
	got, ok := MemberName(o, m)
	return ok && got == name
}

// IsPrototypeAccessOf reports whether n is `Ctor.prototype` with Ctor
// assignable to constructorType.
func IsPrototypeAccessOf(o types.Oracle, n jsast.Node, constructorType string) bool {
	if constructorType == "" || !IsMemberNamed(o, n, "prototype") {
		return false
	}
	m := jsast.Unparen(n).(*jsast.MemberExpression)
	return o.IsAssignableTo(o.ResolveType(m.Object), constructorType)
}

// IsGlobalIdentifier reports whether n names the global typeName: an
// identifier with that name and no declaration in any enclosing scope.
func IsGlobalIdentifier(scopes *jsast.Scopes, n jsast.Node, typeName string) bool {
	id, ok := jsast.Unparen(n).(*jsast.Identifier)
	if !ok || typeName == "" || id.Name != typeName {
		return false
	}
	return !scopes.IsDeclared(id, typeName)
}

// matchMember applies a member spec of target to m.
func matchMember(o types.Oracle, target Target, spec Spec, m *jsast.MemberExpression) bool {
	name, ok := MemberName(o, m)
	if !ok || name != spec.name {
		return false
	}
	switch spec.kind {
	case SpecInstanceMember:
		if o.IsAssignableTo(o.ResolveType(m.Object), target.Instance) {
			return true
		}
		return IsPrototypeAccessOf(o, m.Object, target.Constructor)
	case SpecStaticMember:
		return o.IsAssignableTo(o.ResolveType(m.Object), target.Constructor)
	}
	return false
}

// isConstructorRef reports whether callee refers to the target constructor,
// either as the unshadowed global or through its type. A user class is never
// the target itself, even when it extends it; the subclass is reported once
// at its extends clause.
func isConstructorRef(o types.Oracle, scopes *jsast.Scopes, target Target, callee jsast.Node) bool {
	if IsGlobalIdentifier(scopes, callee, target.Global) {
		return true
	}
	if target.Constructor == "" {
		return false
	}
	t := o.ResolveType(callee)
	if t.IsClassConstructor() {
		return false
	}
	return o.IsAssignableTo(t, target.Constructor)
}

// callApplyOf returns the function expression X of a `X.call` or `X.apply`
// callee together with the method name.
func callApplyOf(o types.Oracle, callee jsast.Node) (jsast.Node, string, bool) {
	m, ok := jsast.Unparen(callee).(*jsast.MemberExpression)
	if !ok {
		return nil, "", false
	}
	name, ok := MemberName(o, m)
	if !ok || (name != "call" && name != "apply") {
		return nil, "", false
	}
	return m.Object, name, true
}

// isCallApplyReceiver reports whether m is X in a `X.call(...)` or
// `X.apply(...)` invocation; such accesses are attributed from the call.
func isCallApplyReceiver(o types.Oracle, m *jsast.MemberExpression) bool {
	var child jsast.Node = m
	parent := m.Parent()
	for parent != nil && jsast.Unparen(parent) != parent {
		child, parent = parent, parent.Parent()
	}
	outer, ok := parent.(*jsast.MemberExpression)
	if !ok || outer.Object != child {
		return false
	}
	up := outer.Parent()
	for up != nil && jsast.Unparen(up) != up {
		up = up.Parent()
	}
	call, ok := up.(*jsast.CallExpression)
	if !ok || jsast.Unparen(call.Callee) != jsast.Node(outer) {
		return false
	}
	_, _, ok = callApplyOf(o, call.Callee)
	return ok
}
