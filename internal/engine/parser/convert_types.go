// # internal/engine/parser/convert_types.go
package parser

import (
	"baseline/internal/engine/jsast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var unknownType = &jsast.KeywordTypeNode{Name: "unknown"}

// typeNode converts a TypeScript type, or the type_annotation wrapping one.
// Types the oracle cannot use become `unknown`.
func (c *converter) typeNode(n *sitter.Node) jsast.TypeNode {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "type_annotation", "parenthesized_type", "opting_type_annotation", "omitting_type_annotation":
		kids := named(n)
		if len(kids) == 0 {
			return unknownType
		}
		return c.typeNode(kids[0])
	case "predefined_type", "undefined", "null":
		return &jsast.KeywordTypeNode{Name: c.text(n)}
	case "type_identifier", "nested_type_identifier":
		return &jsast.TypeRef{Name: c.text(n)}
	case "generic_type":
		ref := &jsast.TypeRef{Name: c.text(n.ChildByFieldName("name"))}
		args := n.ChildByFieldName("type_arguments")
		if args == nil {
			for _, child := range named(n) {
				if child.Kind() == "type_arguments" {
					args = child
				}
			}
		}
		for _, arg := range named(args) {
			ref.Args = append(ref.Args, c.typeNode(arg))
		}
		if ref.Name == "" {
			return unknownType
		}
		return ref
	case "array_type":
		kids := named(n)
		if len(kids) == 0 {
			return unknownType
		}
		return &jsast.ArrayTypeNode{Elem: c.typeNode(kids[0])}
	case "readonly_type":
		kids := named(n)
		if len(kids) == 0 {
			return unknownType
		}
		switch inner := c.typeNode(kids[0]).(type) {
		case *jsast.ArrayTypeNode:
			inner.Readonly = true
			return inner
		case *jsast.TupleTypeNode:
			inner.Readonly = true
			return inner
		default:
			return inner
		}
	case "tuple_type":
		return c.tupleType(n)
	case "union_type":
		u := &jsast.UnionTypeNode{}
		for _, member := range named(n) {
			switch t := c.typeNode(member).(type) {
			case *jsast.UnionTypeNode:
				u.Types = append(u.Types, t.Types...)
			default:
				u.Types = append(u.Types, t)
			}
		}
		return u
	case "literal_type":
		return c.literalType(n)
	case "object_type":
		return c.objectType(n)
	case "function_type", "constructor_type":
		return &jsast.TypeRef{Name: "Function"}
	}
	return unknownType
}

func (c *converter) tupleType(n *sitter.Node) jsast.TypeNode {
	tuple := &jsast.TupleTypeNode{}
	for _, member := range named(n) {
		switch member.Kind() {
		case "tuple_parameter", "optional_tuple_parameter", "required_parameter", "optional_parameter":
			t := member.ChildByFieldName("type")
			if t == nil {
				for _, child := range named(member) {
					if child.Kind() == "type_annotation" {
						t = child
					}
				}
			}
			tuple.Elems = append(tuple.Elems, c.typeNode(t))
		case "optional_type":
			kids := named(member)
			if len(kids) == 0 {
				return unknownType
			}
			tuple.Elems = append(tuple.Elems, c.typeNode(kids[0]))
		case "rest_type":
			// A rest element makes the length open-ended.
			return unknownType
		default:
			tuple.Elems = append(tuple.Elems, c.typeNode(member))
		}
	}
	for i, e := range tuple.Elems {
		if e == nil {
			tuple.Elems[i] = unknownType
		}
	}
	return tuple
}

func (c *converter) literalType(n *sitter.Node) jsast.TypeNode {
	kids := named(n)
	if len(kids) == 0 {
		return unknownType
	}
	lit := kids[0]
	switch lit.Kind() {
	case "string":
		return &jsast.LiteralTypeNode{Value: c.stringValue(lit)}
	case "number", "unary_expression":
		if v, ok := parseNumber(c.text(lit)); ok {
			return &jsast.LiteralTypeNode{Value: v}
		}
	case "true", "false":
		return &jsast.LiteralTypeNode{Value: lit.Kind() == "true"}
	case "null", "undefined":
		return &jsast.KeywordTypeNode{Name: lit.Kind()}
	}
	return unknownType
}

func (c *converter) objectType(n *sitter.Node) jsast.TypeNode {
	obj := &jsast.ObjectTypeNode{Members: make(map[string]jsast.TypeNode)}
	for _, member := range named(n) {
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := c.text(nameNode)
		if nameNode.Kind() == "string" {
			name = c.stringValue(nameNode)
		}
		switch member.Kind() {
		case "property_signature":
			if t := c.typeNode(member.ChildByFieldName("type")); t != nil {
				obj.Members[name] = t
			} else {
				obj.Members[name] = unknownType
			}
		case "method_signature":
			obj.Members[name] = &jsast.TypeRef{Name: "Function"}
		}
	}
	return obj
}
