package detector

import (
	"baseline/internal/engine/jsast"
	"baseline/internal/engine/types"
)

type argStatus uint8

const (
	// argMissing: the position is provably not passed.
	argMissing argStatus = iota
	// argResolved: the argument is an expression node or a tuple element type.
	argResolved
	// argOpaque: a preceding spread of a non-tuple array hides the position.
	argOpaque
	// argUnresolvable: a preceding spread has no usable type.
	argUnresolvable
)

// argument is the logical argument at one position of a call.
type argument struct {
	status argStatus
	node   jsast.Node
	typ    *types.Type
}

// argumentAt resolves logical position index of args, following spread
// elements through array literals and tuple types.
func argumentAt(o types.Oracle, args []jsast.Node, index int) argument {
	if index < 0 {
		return argument{status: argMissing}
	}
	arg, found, _ := locate(o, args, index)
	if !found {
		return argument{status: argMissing}
	}
	return arg
}

// locate returns the argument at index when it lies within args; otherwise
// width is the number of logical positions args covers.
func locate(o types.Oracle, args []jsast.Node, index int) (arg argument, found bool, width int) {
	pos := 0
	for _, a := range args {
		spread, ok := a.(*jsast.SpreadElement)
		if !ok {
			if pos == index {
				if a == nil {
					return argument{status: argResolved, typ: types.PrimitiveType("undefined")}, true, 0
				}
				return argument{status: argResolved, node: a}, true, 0
			}
			pos++
			continue
		}

		if lit, ok := jsast.Unparen(spread.Argument).(*jsast.ArrayExpression); ok {
			inner, found, w := locate(o, lit.Elements, index-pos)
			if found {
				return inner, true, 0
			}
			pos += w
			continue
		}

		src := o.ResolveType(spread.Argument)
		if n, ok := o.TupleLength(src); ok {
			if index-pos < n {
				elem, _ := o.TupleElementAt(src, index-pos)
				return argument{status: argResolved, typ: elem}, true, 0
			}
			pos += n
			continue
		}
		if o.IsArrayType(src) {
			return argument{status: argOpaque}, true, 0
		}
		return argument{status: argUnresolvable}, true, 0
	}
	return argument{}, false, pos
}

// callArguments returns the logical argument list of a call, re-based for
// `.call(thisArg, ...)` and `.apply(thisArg, list)` indirection.
func callArguments(args []jsast.Node, via string) ([]jsast.Node, bool) {
	switch via {
	case "call":
		if len(args) == 0 {
			return nil, true
		}
		if _, spread := args[0].(*jsast.SpreadElement); spread {
			return nil, false
		}
		return args[1:], true
	case "apply":
		if len(args) < 2 {
			return nil, true
		}
		if _, spread := args[0].(*jsast.SpreadElement); spread {
			return nil, false
		}
		if lit, ok := jsast.Unparen(args[1]).(*jsast.ArrayExpression); ok {
			return lit.Elements, true
		}
		return []jsast.Node{&jsast.SpreadElement{Argument: args[1]}}, true
	}
	return args, true
}

// evalArgument applies an argument spec to the logical arguments of a call.
func evalArgument(o types.Oracle, spec Spec, args []jsast.Node) bool {
	arg := argumentAt(o, args, spec.argIndex)
	switch arg.status {
	case argMissing, argUnresolvable:
		return false
	case argOpaque:
		return true
	}

	switch spec.kind {
	case SpecArgumentExists:
		return true
	case SpecArgumentHasProperty:
		if arg.node != nil {
			return nodeHasProperty(o, arg.node, spec.property, 0)
		}
		return o.HasProperty(arg.typ, spec.property)
	case SpecArgumentOfType:
		if arg.node != nil {
			if kind, ok := literalKind(arg.node); ok && primitiveNames[spec.expectedType] {
				return kind == spec.expectedType
			}
			return typeIs(o, o.ResolveType(arg.node), spec.expectedType)
		}
		return typeIs(o, arg.typ, spec.expectedType)
	case SpecArgumentMatchesPattern:
		if arg.node != nil {
			if s, ok := jsast.StringValue(jsast.Unparen(arg.node)); ok {
				return spec.pattern.MatchString(s)
			}
			return typeMatchesPattern(o, o.ResolveType(arg.node), spec)
		}
		return typeMatchesPattern(o, arg.typ, spec)
	}
	return false
}

const maxSpreadDepth = 16

// nodeHasProperty checks object literals syntactically, following nested
// object spreads, and falls back to the oracle for anything else.
func nodeHasProperty(o types.Oracle, n jsast.Node, name string, depth int) bool {
	obj, ok := jsast.Unparen(n).(*jsast.ObjectExpression)
	if !ok || depth > maxSpreadDepth {
		return o.HasProperty(o.ResolveType(n), name)
	}
	for _, p := range obj.Properties {
		switch p := p.(type) {
		case *jsast.Property:
			if key, ok := propertyName(o, p); ok && key == name {
				return true
			}
		case *jsast.SpreadElement:
			if nodeHasProperty(o, p.Argument, name, depth+1) {
				return true
			}
		}
	}
	return false
}

func propertyName(o types.Oracle, p *jsast.Property) (string, bool) {
	if !p.Computed {
		switch k := p.Key.(type) {
		case *jsast.Identifier:
			return k.Name, true
		case *jsast.Literal:
			s, ok := k.Value.(string)
			return s, ok
		}
		return "", false
	}
	if s, ok := jsast.StringValue(jsast.Unparen(p.Key)); ok {
		return s, true
	}
	v, ok := o.LiteralValue(o.ResolveType(p.Key))
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// literalKind classifies literal arguments without consulting the oracle.
func literalKind(n jsast.Node) (string, bool) {
	switch l := jsast.Unparen(n).(type) {
	case *jsast.Literal:
		switch l.Value.(type) {
		case string:
			return "string", true
		case float64:
			return "number", true
		case bool:
			return "boolean", true
		case nil:
			if l.Raw == "null" {
				return "null", true
			}
		}
	case *jsast.TemplateLiteral:
		if len(l.Expressions) == 0 {
			return "string", true
		}
	}
	return "", false
}

var primitiveNames = map[string]bool{
	"string": true, "number": true, "boolean": true, "bigint": true,
	"symbol": true, "null": true, "undefined": true,
}

func typeIs(o types.Oracle, t *types.Type, expected string) bool {
	if !primitiveNames[expected] {
		return o.IsAssignableTo(t, expected)
	}
	switch t.Kind() {
	case types.Primitive, types.Literal:
		return t.Name() == expected
	case types.Union:
		for _, m := range t.Elems() {
			if typeIs(o, m, expected) {
				return true
			}
		}
	}
	return false
}

func typeMatchesPattern(o types.Oracle, t *types.Type, spec Spec) bool {
	if t.Kind() == types.Union {
		for _, m := range t.Elems() {
			if typeMatchesPattern(o, m, spec) {
				return true
			}
		}
		return false
	}
	v, ok := o.LiteralValue(t)
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && spec.pattern.MatchString(s)
}
