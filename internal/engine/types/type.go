// Package types holds the type model the usage detector queries and the
// assignability rules that answer those queries. It does not compute types
// for source code; an Oracle implementation supplies them.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// TypeKind classifies a Type.
type TypeKind uint8

const (
	// Unknown is the answer for anything that could not be resolved. Every
	// query on it is false.
	Unknown TypeKind = iota
	Any
	Primitive
	Literal
	Nominal
	Array
	Tuple
	Union
	Object
	Function
)

// Type is an immutable type handle. Types are values built by the
// constructors below; a nil *Type behaves like Unknown.
type Type struct {
	kind TypeKind
	// name is the primitive name, the nominal symbol, or the class name.
	name    string
	literal any
	// elems are tuple elements, union members, or the single array element.
	elems []*Type
	props map[string]*Type
	// bases are declared supertypes of a nominal (class) type.
	bases    []*Type
	readonly bool
	// instance is the type constructed by `new` for constructor types.
	instance *Type
	// class marks the static side of a user class.
	class bool
}

var (
	unknownType = &Type{kind: Unknown}
	anyType     = &Type{kind: Any}
)

func UnknownType() *Type { return unknownType }
func AnyType() *Type     { return anyType }

// PrimitiveType is one of string, number, boolean, bigint, symbol, null,
// undefined.
func PrimitiveType(name string) *Type { return &Type{kind: Primitive, name: name} }

// LiteralType is the type of exactly one string, number or boolean value.
func LiteralType(v any) *Type {
	switch v.(type) {
	case string:
		return &Type{kind: Literal, name: "string", literal: v}
	case float64:
		return &Type{kind: Literal, name: "number", literal: v}
	case int:
		return &Type{kind: Literal, name: "number", literal: float64(v.(int))}
	case bool:
		return &Type{kind: Literal, name: "boolean", literal: v}
	}
	return unknownType
}

// NominalType references a declared interface or class by name. bases are
// the declared supertypes (`class Foo extends Array`).
func NominalType(name string, bases ...*Type) *Type {
	return &Type{kind: Nominal, name: name, bases: bases}
}

// ClassInstanceType is the instance side of a user class: a nominal type
// carrying its own members and its declared supertypes.
func ClassInstanceType(name string, props map[string]*Type, bases ...*Type) *Type {
	t := ObjectType(props)
	t.kind = Nominal
	t.name = name
	t.bases = bases
	return t
}

// ConstructorType is the static side of a class: the value `Foo` in
// `class Foo {}`. name is the nominal constructor interface, when one is
// declared (ArrayConstructor), or "typeof Foo" for user classes.
func ConstructorType(name string, instance *Type, bases ...*Type) *Type {
	return &Type{kind: Nominal, name: name, instance: instance, bases: bases}
}

// ClassConstructorType is the static side of a user class, carrying its
// static members.
func ClassConstructorType(name string, instance *Type, statics map[string]*Type, bases ...*Type) *Type {
	t := ObjectType(statics)
	t.kind = Nominal
	t.name = name
	t.instance = instance
	t.bases = bases
	t.class = true
	return t
}

// ArrayType is T[] (or readonly T[]); a nil elem means unknown[].
func ArrayType(elem *Type, readonly bool) *Type {
	if elem == nil {
		elem = unknownType
	}
	return &Type{kind: Array, name: "Array", elems: []*Type{elem}, readonly: readonly}
}

func TupleType(readonly bool, elems ...*Type) *Type {
	return &Type{kind: Tuple, name: "Array", elems: elems, readonly: readonly}
}

// UnionType flattens nested unions; a single member is returned as is.
func UnionType(members ...*Type) *Type {
	var flat []*Type
	for _, m := range members {
		if m == nil {
			continue
		}
		if m.kind == Union {
			flat = append(flat, m.elems...)
			continue
		}
		flat = append(flat, m)
	}
	switch len(flat) {
	case 0:
		return unknownType
	case 1:
		return flat[0]
	}
	return &Type{kind: Union, elems: flat}
}

// ObjectType is an anonymous object shape such as an object literal.
func ObjectType(props map[string]*Type) *Type {
	cp := make(map[string]*Type, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return &Type{kind: Object, props: cp}
}

func FunctionType() *Type { return &Type{kind: Function, name: "Function"} }

// Kind returns the classification; nil is Unknown.
func (t *Type) Kind() TypeKind {
	if t == nil {
		return Unknown
	}
	return t.kind
}

func (t *Type) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

func (t *Type) Bases() []*Type {
	if t == nil {
		return nil
	}
	return t.bases
}

// Instance is the type produced by `new` on a constructor type.
func (t *Type) Instance() *Type {
	if t == nil {
		return nil
	}
	return t.instance
}

// Elems returns tuple elements or union members.
func (t *Type) Elems() []*Type {
	if t == nil {
		return nil
	}
	return t.elems
}

// Elem returns the element type of an array.
func (t *Type) Elem() *Type {
	if t == nil || t.kind != Array || len(t.elems) == 0 {
		return unknownType
	}
	return t.elems[0]
}

// Prop returns the declared type of an object-shape property.
func (t *Type) Prop(name string) (*Type, bool) {
	if t == nil || t.props == nil {
		return nil, false
	}
	p, ok := t.props[name]
	return p, ok
}

// PropNames lists object-shape properties in sorted order.
func (t *Type) PropNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.props))
	for k := range t.props {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (t *Type) Readonly() bool { return t != nil && t.readonly }

// IsClassConstructor reports whether t is the value of a user class
// declaration or expression.
func (t *Type) IsClassConstructor() bool { return t != nil && t.class }

// Widen drops literal precision: "a" becomes string. Tuples keep their
// shape.
func (t *Type) Widen() *Type {
	if t == nil || t.kind != Literal {
		return t
	}
	return PrimitiveType(t.name)
}

func (t *Type) String() string {
	if t == nil {
		return "unknown"
	}
	switch t.kind {
	case Unknown:
		return "unknown"
	case Any:
		return "any"
	case Primitive:
		return t.name
	case Literal:
		if s, ok := t.literal.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprint(t.literal)
	case Nominal:
		return t.name
	case Array:
		return t.Elem().String() + "[]"
	case Tuple:
		parts := make([]string, len(t.elems))
		for i, e := range t.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Union:
		parts := make([]string, len(t.elems))
		for i, e := range t.elems {
			parts[i] = e.String()
		}
		return strings.Join(parts, " | ")
	case Object:
		names := t.PropNames()
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = n + ": " + t.props[n].String()
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	case Function:
		return "Function"
	}
	return "unknown"
}
