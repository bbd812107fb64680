package detector

import (
	"baseline/internal/core/errors"
	"baseline/internal/engine/jsast"
	"baseline/internal/engine/types"
)

// Finding is one detected usage site.
type Finding struct {
	Node      jsast.Node
	FeatureID string
}

// Detector matches a fixed set of Checks against programs. It holds no
// per-traversal state, so one Detector may serve many programs, but the
// oracle and scopes it is built with belong to a single program.
type Detector struct {
	oracle types.Oracle
	scopes *jsast.Scopes
	checks []Check
}

// New validates checks and binds them to one program's oracle and scopes.
func New(oracle types.Oracle, scopes *jsast.Scopes, checks ...Check) (*Detector, error) {
	for _, c := range checks {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return &Detector{oracle: oracle, scopes: scopes, checks: checks}, nil
}

// Run traverses root once in pre-order and calls report for each Finding,
// in source order. Each node is reported at most once per Run.
func (d *Detector) Run(root jsast.Node, report func(Finding)) {
	r := &run{
		Detector: d,
		report:   report,
		seen:     make(map[jsast.Node]string),
		aliases:  NewAliasTracker(),
	}
	jsast.Inspect(root, r.visit)
}

// Findings collects the Findings of one Run.
func (d *Detector) Findings(root jsast.Node) []Finding {
	var out []Finding
	d.Run(root, func(f Finding) { out = append(out, f) })
	return out
}

// run is the state of one traversal.
type run struct {
	*Detector
	report func(Finding)
	// seen maps each reported node to the feature id it was reported with.
	seen    map[jsast.Node]string
	aliases *AliasTracker
}

func (r *run) emit(n jsast.Node, featureID string) bool {
	if _, dup := r.seen[n]; dup {
		return false
	}
	r.seen[n] = featureID
	r.report(Finding{Node: n, FeatureID: featureID})
	return true
}

func (r *run) visit(n jsast.Node) bool {
	switch n := n.(type) {
	case *jsast.VariableDeclarator:
		if n.Init != nil {
			r.bindPattern(n.ID, n.Init)
		}
	case *jsast.AssignmentExpression:
		if n.Operator == "=" {
			if _, ok := n.Left.(*jsast.ObjectPattern); ok {
				r.bindPattern(n.Left, n.Right)
			}
		}
	case *jsast.MemberExpression:
		r.visitMember(n)
	case *jsast.CallExpression:
		r.visitCall(n, n.Callee, n.Arguments, false)
		r.visitCallApply(n)
	case *jsast.NewExpression:
		r.visitCall(n, n.Callee, n.Arguments, true)
	case *jsast.Class:
		if n.SuperClass != nil {
			r.visitSuperclass(n)
		}
	}
	return true
}

// bindPattern handles declarations and destructuring that capture a matched
// member: the origin access is reported and the declared name tracked.
func (r *run) bindPattern(pattern, init jsast.Node) {
	switch p := pattern.(type) {
	case *jsast.Identifier:
		m, ok := jsast.Unparen(init).(*jsast.MemberExpression)
		if !ok {
			return
		}
		if c, ok := r.memberCheck(m); ok {
			r.emit(m, c.FeatureID)
			kind := OriginInstanceMember
			if IsPrototypeAccessOf(r.oracle, m.Object, c.Target.Constructor) {
				kind = OriginPrototypeMember
			}
			r.aliases.TrackDeclaration(p, m, kind)
		}

	case *jsast.ObjectPattern:
		recv := r.oracle.ResolveType(init)
		for _, prop := range p.Properties {
			prop, ok := prop.(*jsast.Property)
			if !ok {
				continue
			}
			key, ok := propertyName(r.oracle, prop)
			if !ok {
				continue
			}
			c, ok := r.destructuredCheck(recv, init, key)
			if !ok {
				continue
			}
			r.emit(prop, c.FeatureID)
			if local := boundIdentifier(prop.Value); local != nil {
				r.aliases.TrackDeclaration(local, prop, OriginDestructured)
			}
		}

	case *jsast.ArrayPattern:
		lit, ok := jsast.Unparen(init).(*jsast.ArrayExpression)
		if !ok {
			return
		}
		for i, el := range p.Elements {
			if el == nil || i >= len(lit.Elements) {
				continue
			}
			if _, rest := el.(*jsast.RestElement); rest {
				break
			}
			m, ok := jsast.Unparen(lit.Elements[i]).(*jsast.MemberExpression)
			if !ok {
				continue
			}
			if c, ok := r.memberCheck(m); ok {
				r.emit(m, c.FeatureID)
				if local := boundIdentifier(el); local != nil {
					r.aliases.TrackDeclaration(local, m, OriginArrayLiteralMember)
				}
			}
		}
	}
}

// boundIdentifier returns the identifier a pattern element binds, looking
// through a default value.
func boundIdentifier(n jsast.Node) *jsast.Identifier {
	switch v := n.(type) {
	case *jsast.Identifier:
		return v
	case *jsast.AssignmentPattern:
		return boundIdentifier(v.Left)
	}
	return nil
}

// memberCheck returns the first member check m satisfies.
func (r *run) memberCheck(m *jsast.MemberExpression) (Check, bool) {
	for _, c := range r.checks {
		if c.Spec.IsMember() && matchMember(r.oracle, c.Target, c.Spec, m) {
			return c, true
		}
	}
	return Check{}, false
}

// destructuredCheck matches `{ key } = init` against member checks.
func (r *run) destructuredCheck(recv *types.Type, init jsast.Node, key string) (Check, bool) {
	for _, c := range r.checks {
		if !c.Spec.IsMember() || c.Spec.name != key {
			continue
		}
		switch c.Spec.kind {
		case SpecInstanceMember:
			if r.oracle.IsAssignableTo(recv, c.Target.Instance) || IsPrototypeAccessOf(r.oracle, init, c.Target.Constructor) {
				return c, true
			}
		case SpecStaticMember:
			if r.oracle.IsAssignableTo(recv, c.Target.Constructor) {
				return c, true
			}
		}
	}
	return Check{}, false
}

func (r *run) visitMember(m *jsast.MemberExpression) {
	if isCallApplyReceiver(r.oracle, m) {
		return
	}
	if c, ok := r.memberCheck(m); ok {
		r.emit(m, c.FeatureID)
	}
}

// visitCallApply attributes `X.call(...)` and `X.apply(...)` to the access
// X came from, either directly or through a tracked alias.
func (r *run) visitCallApply(call *jsast.CallExpression) {
	fn, _, ok := callApplyOf(r.oracle, call.Callee)
	if !ok {
		return
	}
	switch x := jsast.Unparen(fn).(type) {
	case *jsast.MemberExpression:
		if c, ok := r.memberCheck(x); ok {
			r.emit(x, c.FeatureID)
		}
	case *jsast.Identifier:
		if b, ok := r.alias(x); ok {
			// The origin was reported when the alias was bound.
			r.emit(b.Origin, r.seen[b.Origin])
		}
	}
}

// alias resolves id to a tracked binding when its scope lookup lands on the
// tracked declaration.
func (r *run) alias(id *jsast.Identifier) (AliasBinding, bool) {
	b, ok := r.aliases.Resolve(id.Name)
	if !ok {
		return AliasBinding{}, false
	}
	if b.Decl != nil && r.scopes != nil {
		decl, found := r.scopes.Lookup(id, id.Name)
		if !found || decl != b.Decl {
			return AliasBinding{}, false
		}
	}
	return b, true
}

// visitCall handles constructor usage and argument specs at a call or new
// expression.
func (r *run) visitCall(node, callee jsast.Node, args []jsast.Node, isNew bool) {
	for _, c := range r.checks {
		switch {
		case c.Spec.kind == SpecConstructor:
			if (isNew || c.Spec.detectBareCall) && isConstructorRef(r.oracle, r.scopes, c.Target, callee) {
				r.emit(node, c.FeatureID)
			}
		case c.Spec.IsArgument():
			logical, ok := r.selectCall(c, callee, args, isNew)
			if ok && evalArgument(r.oracle, c.Spec, logical) {
				r.emit(node, c.FeatureID)
			}
		}
	}
}

// selectCall reports whether the call matches the call-selecting spec of an
// argument check and returns its logical arguments.
func (r *run) selectCall(c Check, callee jsast.Node, args []jsast.Node, isNew bool) ([]jsast.Node, bool) {
	sel := *c.Spec.call
	if sel.kind == SpecConstructor {
		if (isNew || sel.detectBareCall) && isConstructorRef(r.oracle, r.scopes, c.Target, callee) {
			return args, true
		}
		return nil, false
	}
	if isNew {
		return nil, false
	}
	if m, ok := jsast.Unparen(callee).(*jsast.MemberExpression); ok && matchMember(r.oracle, c.Target, sel, m) {
		return args, true
	}
	fn, via, ok := callApplyOf(r.oracle, callee)
	if !ok {
		return nil, false
	}
	m, ok := jsast.Unparen(fn).(*jsast.MemberExpression)
	if !ok || !matchMember(r.oracle, c.Target, sel, m) {
		return nil, false
	}
	return callArguments(args, via)
}

// visitSuperclass reports `class X extends Target` once per class.
func (r *run) visitSuperclass(cls *jsast.Class) {
	if cls.SuperClass == nil {
		errors.Invariantf("superclass handling reached for class %s without a superclass", className(cls))
	}
	for _, c := range r.checks {
		if c.Spec.kind != SpecConstructor {
			continue
		}
		if isConstructorRef(r.oracle, r.scopes, c.Target, cls.SuperClass) {
			r.emit(cls, c.FeatureID)
			return
		}
	}
}

func className(cls *jsast.Class) string {
	if cls.ID != nil {
		return cls.ID.Name
	}
	return "(anonymous)"
}
