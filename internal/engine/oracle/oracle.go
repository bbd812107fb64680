// Package oracle resolves the declared types of JavaScript and TypeScript
// expressions from annotations, literals and the lib declaration table. It is
// not a type checker: anything it cannot see syntactically resolves to the
// unknown type.
package oracle

import (
	"strconv"

	"baseline/internal/engine/jsast"
	"baseline/internal/engine/types"
)

// Oracle is a types.Oracle bound to one program. It caches resolutions and
// is not safe for concurrent use; build one per analysis unit.
type Oracle struct {
	*types.Checker
	scopes    *jsast.Scopes
	cache     map[jsast.Node]*types.Type
	resolving map[jsast.Node]bool
	classes   map[*jsast.Class]*types.Type
}

var _ types.Oracle = (*Oracle)(nil)

// New binds an oracle to a program's scope chain. A nil lib selects
// types.DefaultLib.
func New(scopes *jsast.Scopes, lib *types.Lib) *Oracle {
	return &Oracle{
		Checker:   types.NewChecker(lib),
		scopes:    scopes,
		cache:     make(map[jsast.Node]*types.Type),
		resolving: make(map[jsast.Node]bool),
		classes:   make(map[*jsast.Class]*types.Type),
	}
}

// ResolveType returns the declared type of expr, or the unknown type.
func (o *Oracle) ResolveType(expr jsast.Node) *types.Type {
	if expr == nil {
		return types.UnknownType()
	}
	if t, ok := o.cache[expr]; ok {
		return t
	}
	if o.resolving[expr] {
		return types.UnknownType()
	}
	o.resolving[expr] = true
	t := o.resolve(expr)
	delete(o.resolving, expr)
	if t == nil {
		t = types.UnknownType()
	}
	o.cache[expr] = t
	return t
}

func (o *Oracle) resolve(expr jsast.Node) *types.Type {
	switch n := expr.(type) {
	case *jsast.Identifier:
		return o.identifier(n)
	case *jsast.Literal:
		if n.Value == nil && n.Raw != "null" {
			return types.UnknownType()
		}
		return literal(n.Value)
	case *jsast.TemplateLiteral:
		if s, ok := jsast.StringValue(n); ok {
			return types.LiteralType(s)
		}
		return types.PrimitiveType("string")
	case *jsast.ArrayExpression:
		return o.arrayLiteral(n)
	case *jsast.ObjectExpression:
		return o.objectLiteral(n, false)
	case *jsast.AsExpression:
		if n.Const {
			return o.constType(n.Expression)
		}
		return o.FromTypeNode(n.Type, n)
	case *jsast.MemberExpression:
		return o.member(n)
	case *jsast.ThisExpression:
		return o.this(n)
	case *jsast.CallExpression:
		return o.call(n)
	case *jsast.NewExpression:
		if inst := o.ResolveType(n.Callee).Instance(); inst != nil {
			return inst
		}
	case *jsast.Function:
		return types.FunctionType()
	case *jsast.Class:
		return o.classType(n)
	case *jsast.AssignmentExpression:
		if n.Operator == "=" {
			return o.ResolveType(n.Right)
		}
	case *jsast.Generic:
		if inner := jsast.Unparen(n); inner != expr {
			return o.ResolveType(inner)
		}
	}
	return types.UnknownType()
}

func literal(v any) *types.Type {
	if v == nil {
		return types.PrimitiveType("null")
	}
	return types.LiteralType(v)
}

func (o *Oracle) identifier(id *jsast.Identifier) *types.Type {
	decl, ok := o.scopes.Lookup(id, id.Name)
	if !ok {
		if id.Name == "undefined" {
			return types.PrimitiveType("undefined")
		}
		if g, ok := o.Lib().Global(id.Name); ok {
			return g
		}
		return types.UnknownType()
	}
	if decl != id {
		return o.ResolveType(decl)
	}
	return o.declared(decl)
}

// declared computes the type of a binding from its declaration site.
func (o *Oracle) declared(decl *jsast.Identifier) *types.Type {
	if decl.Type != nil {
		return o.FromTypeNode(decl.Type, decl)
	}
	switch p := decl.Parent().(type) {
	case *jsast.Function:
		if p.ID == decl {
			return types.FunctionType()
		}
		return types.UnknownType()
	case *jsast.Class:
		return o.classType(p)
	case *jsast.ImportDeclaration:
		return types.UnknownType()
	}
	return o.slot(decl)
}

// slot is the type of the value bound at a pattern position: a declarator
// id, a destructured property, or an array pattern element.
func (o *Oracle) slot(n jsast.Node) *types.Type {
	switch p := n.Parent().(type) {
	case *jsast.VariableDeclarator:
		if p.ID != n {
			return types.UnknownType()
		}
		if p.Type != nil {
			return o.FromTypeNode(p.Type, p)
		}
		t := o.ResolveType(p.Init)
		if decl, ok := p.Parent().(*jsast.VariableDeclaration); ok && decl.DeclKind != "const" {
			t = t.Widen()
		}
		return t
	case *jsast.Property:
		if p.Value != n {
			return types.UnknownType()
		}
		key, ok := propertyKey(p)
		if !ok {
			return types.UnknownType()
		}
		return o.propertyOf(o.slot(p.Parent()), key)
	case *jsast.ArrayPattern:
		for i, el := range p.Elements {
			if el == n {
				return o.elementAt(o.slot(p), i)
			}
		}
	case *jsast.AssignmentPattern:
		if p.Left == n {
			return o.slot(p)
		}
	}
	return types.UnknownType()
}

func (o *Oracle) elementAt(t *types.Type, i int) *types.Type {
	if e, ok := o.TupleElementAt(t, i); ok {
		return e
	}
	if t.Kind() == types.Array {
		return t.Elem()
	}
	return types.UnknownType()
}

func (o *Oracle) propertyOf(t *types.Type, name string) *types.Type {
	if name == "prototype" {
		if inst := t.Instance(); inst != nil {
			return inst
		}
	}
	if p, ok := t.Prop(name); ok {
		return p
	}
	if i, err := strconv.Atoi(name); err == nil {
		return o.elementAt(t, i)
	}
	if name == "length" && (t.Kind() == types.Array || t.Kind() == types.Tuple || o.IsAssignableTo(t, "String")) {
		return types.PrimitiveType("number")
	}
	for _, b := range t.Bases() {
		if bp := o.propertyOf(b, name); bp.Kind() != types.Unknown {
			return bp
		}
	}
	return types.UnknownType()
}

func (o *Oracle) member(m *jsast.MemberExpression) *types.Type {
	obj := o.ResolveType(m.Object)
	if !m.Computed {
		if id, ok := m.Property.(*jsast.Identifier); ok {
			return o.propertyOf(obj, id.Name)
		}
		return types.UnknownType()
	}
	if s, ok := jsast.StringValue(m.Property); ok {
		return o.propertyOf(obj, s)
	}
	key := o.ResolveType(m.Property)
	if v, ok := o.LiteralValue(key); ok {
		switch v := v.(type) {
		case string:
			return o.propertyOf(obj, v)
		case float64:
			return o.elementAt(obj, int(v))
		}
	}
	if obj.Kind() == types.Array {
		return obj.Elem()
	}
	return types.UnknownType()
}

// call types the result of a method call from the lib declaration table.
// Calls of plain functions and user methods stay unknown.
func (o *Oracle) call(c *jsast.CallExpression) *types.Type {
	m, ok := jsast.Unparen(c.Callee).(*jsast.MemberExpression)
	if !ok {
		return types.UnknownType()
	}
	name, ok := o.memberName(m)
	if !ok {
		return types.UnknownType()
	}
	return o.ReturnType(o.ResolveType(m.Object), name)
}

func (o *Oracle) memberName(m *jsast.MemberExpression) (string, bool) {
	if !m.Computed {
		id, ok := m.Property.(*jsast.Identifier)
		if !ok {
			return "", false
		}
		return id.Name, true
	}
	if s, ok := jsast.StringValue(m.Property); ok {
		return s, true
	}
	v, ok := o.LiteralValue(o.ResolveType(m.Property))
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// this resolves `this` inside a class body: the instance type in methods,
// accessors and field initializers, the constructor type in static ones.
// Arrow functions see the `this` of their enclosing code; any other
// function rebinds it, so `this` there is unknown.
func (o *Oracle) this(n *jsast.ThisExpression) *types.Type {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		switch p := cur.(type) {
		case *jsast.Function:
			if p.Arrow {
				continue
			}
			if _, ok := p.Parent().(*jsast.MethodDefinition); !ok {
				return types.UnknownType()
			}
		case *jsast.MethodDefinition:
			cls, ok := p.Parent().(*jsast.Class)
			if !ok {
				return types.UnknownType()
			}
			ctor := o.classType(cls)
			if p.Static {
				return ctor
			}
			if inst := ctor.Instance(); inst != nil {
				return inst
			}
			return types.UnknownType()
		case *jsast.Class, *jsast.Program:
			return types.UnknownType()
		}
	}
	return types.UnknownType()
}

func (o *Oracle) arrayLiteral(a *jsast.ArrayExpression) *types.Type {
	var elems []*types.Type
	for _, el := range a.Elements {
		if el == nil {
			elems = append(elems, types.PrimitiveType("undefined"))
			continue
		}
		if s, ok := el.(*jsast.SpreadElement); ok {
			src := o.ResolveType(s.Argument)
			switch src.Kind() {
			case types.Tuple:
				for _, e := range src.Elems() {
					elems = append(elems, e.Widen())
				}
			case types.Array:
				elems = append(elems, src.Elem())
			default:
				elems = append(elems, types.UnknownType())
			}
			continue
		}
		elems = append(elems, o.ResolveType(el).Widen())
	}
	if len(elems) == 0 {
		return types.ArrayType(nil, false)
	}
	return types.ArrayType(types.UnionType(elems...), false)
}

// objectLiteral collects statically named properties. Spreads of resolvable
// object shapes are merged in source order.
func (o *Oracle) objectLiteral(obj *jsast.ObjectExpression, asConst bool) *types.Type {
	props := make(map[string]*types.Type)
	for _, p := range obj.Properties {
		switch p := p.(type) {
		case *jsast.Property:
			key, ok := propertyKey(p)
			if !ok {
				continue
			}
			switch {
			case p.Method:
				props[key] = types.FunctionType()
			case asConst:
				props[key] = o.constType(p.Value)
			default:
				props[key] = o.ResolveType(p.Value).Widen()
			}
		case *jsast.SpreadElement:
			src := o.ResolveType(p.Argument)
			for _, name := range src.PropNames() {
				v, _ := src.Prop(name)
				props[name] = v
			}
		}
	}
	return types.ObjectType(props)
}

// constType resolves an expression in an `as const` context: array
// literals become readonly tuples and literals keep their precision.
func (o *Oracle) constType(expr jsast.Node) *types.Type {
	switch n := jsast.Unparen(expr).(type) {
	case *jsast.ArrayExpression:
		var elems []*types.Type
		for _, el := range n.Elements {
			if s, ok := el.(*jsast.SpreadElement); ok {
				src := o.ResolveType(s.Argument)
				if src.Kind() != types.Tuple {
					return types.ArrayType(types.UnknownType(), true)
				}
				elems = append(elems, src.Elems()...)
				continue
			}
			if el == nil {
				elems = append(elems, types.PrimitiveType("undefined"))
				continue
			}
			elems = append(elems, o.constType(el))
		}
		return types.TupleType(true, elems...)
	case *jsast.ObjectExpression:
		return o.objectLiteral(n, true)
	}
	return o.ResolveType(expr)
}

func (o *Oracle) classType(c *jsast.Class) *types.Type {
	if t, ok := o.classes[c]; ok {
		return t
	}
	// Guard self-references inside the class body.
	o.classes[c] = types.UnknownType()

	name := "(anonymous)"
	if c.ID != nil {
		name = c.ID.Name
	}
	members := make(map[string]*types.Type)
	statics := make(map[string]*types.Type)
	var fields []jsast.Node
	for _, m := range c.Body {
		md, ok := m.(*jsast.MethodDefinition)
		if !ok || md.Computed {
			continue
		}
		key, ok := keyName(md.Key)
		if !ok {
			continue
		}
		t := types.FunctionType()
		if md.Field {
			t = o.ResolveType(md.Value).Widen()
			fields = append(fields, md.Value)
		}
		if md.Static {
			statics[key] = t
		} else {
			members[key] = t
		}
	}

	var instBases, ctorBases []*types.Type
	if c.SuperClass != nil {
		base := o.ResolveType(c.SuperClass)
		if base.Kind() != types.Unknown {
			ctorBases = append(ctorBases, base)
			if inst := base.Instance(); inst != nil {
				instBases = append(instBases, inst)
			}
		}
	}
	instance := types.ClassInstanceType(name, members, instBases...)
	ctor := types.ClassConstructorType("typeof "+name, instance, statics, ctorBases...)
	o.classes[c] = ctor
	// Initializers were resolved against the placeholder; forget them so
	// `this` inside them sees the finished class.
	for _, f := range fields {
		jsast.Inspect(f, func(n jsast.Node) bool {
			delete(o.cache, n)
			return true
		})
	}
	return ctor
}

func propertyKey(p *jsast.Property) (string, bool) {
	if p.Computed {
		return jsast.StringValue(p.Key)
	}
	return keyName(p.Key)
}

func keyName(n jsast.Node) (string, bool) {
	switch k := n.(type) {
	case *jsast.Identifier:
		return k.Name, true
	case *jsast.Literal:
		switch v := k.Value.(type) {
		case string:
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}
	return "", false
}
