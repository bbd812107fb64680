package types

import (
	"strconv"

	"baseline/internal/engine/jsast"
)

// Oracle answers type questions about expressions of one parsed program.
// Every query on a type it could not resolve returns false.
type Oracle interface {
	ResolveType(expr jsast.Node) *Type
	IsAssignableTo(t *Type, nominal string) bool
	HasProperty(t *Type, name string) bool
	TupleElementAt(t *Type, index int) (*Type, bool)
	IsTupleType(t *Type) bool
	IsArrayType(t *Type) bool
	TupleLength(t *Type) (int, bool)
	IsLiteralType(t *Type) bool
	LiteralValue(t *Type) (any, bool)
}

// maxDepth bounds base-type walks over cyclic or very deep hierarchies.
const maxDepth = 32

// Checker implements every Oracle query except ResolveType. Oracles embed
// it and supply resolution.
type Checker struct {
	lib *Lib
}

// NewChecker binds a checker to lib; nil selects DefaultLib.
func NewChecker(lib *Lib) *Checker {
	if lib == nil {
		lib = DefaultLib()
	}
	return &Checker{lib: lib}
}

func (c *Checker) Lib() *Lib { return c.lib }

// IsAssignableTo runs, in order: nominal symbol match, union member match,
// declared base walk, then a structural check against the declared shape of
// nominal.
func (c *Checker) IsAssignableTo(t *Type, nominal string) bool {
	return c.assignable(t, nominal, 0)
}

func (c *Checker) assignable(t *Type, nominal string, depth int) bool {
	if nominal == "" || depth > maxDepth {
		return false
	}
	switch t.Kind() {
	case Unknown, Any:
		return false
	case Union:
		for _, m := range t.elems {
			if c.assignable(m, nominal, depth+1) {
				return true
			}
		}
		return false
	}

	name := apparentName(t)
	if name == nominal {
		return true
	}

	for _, b := range t.bases {
		if c.assignable(b, nominal, depth+1) {
			return true
		}
	}
	if iface, ok := c.lib.Interface(name); ok {
		for _, b := range iface.Bases {
			if b == nominal || c.assignable(NominalType(b), nominal, depth+1) {
				return true
			}
		}
	}

	return c.structural(t, nominal)
}

// structural reports whether t carries every member declared by nominal.
// An undeclared or empty shape never matches.
func (c *Checker) structural(t *Type, nominal string) bool {
	members := c.lib.Members(nominal)
	if len(members) == 0 {
		return false
	}
	for _, m := range members {
		if !c.HasProperty(t, m) {
			return false
		}
	}
	return true
}

// HasProperty reports whether name is a known member of t. For unions any
// member declaring it is enough.
func (c *Checker) HasProperty(t *Type, name string) bool {
	return c.hasProperty(t, name, 0)
}

func (c *Checker) hasProperty(t *Type, name string, depth int) bool {
	if depth > maxDepth {
		return false
	}
	switch t.Kind() {
	case Unknown, Any:
		return false
	case Union:
		for _, m := range t.elems {
			if c.hasProperty(m, name, depth+1) {
				return true
			}
		}
		return false
	case Tuple:
		if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < len(t.elems) {
			return true
		}
	}

	if _, ok := t.props[name]; ok {
		return true
	}
	if t.instance != nil && name == "prototype" {
		return true
	}
	if c.lib.HasMember(apparentName(t), name) {
		return true
	}
	for _, b := range t.bases {
		if c.hasProperty(b, name, depth+1) {
			return true
		}
	}
	switch t.Kind() {
	case Object, Nominal:
		return c.lib.HasMember("Object", name)
	}
	return false
}

func (c *Checker) TupleElementAt(t *Type, index int) (*Type, bool) {
	if t.Kind() != Tuple || index < 0 || index >= len(t.elems) {
		return nil, false
	}
	return t.elems[index], true
}

func (c *Checker) IsTupleType(t *Type) bool { return t.Kind() == Tuple }

// IsArrayType is true for non-tuple array types, including subclasses of
// Array.
func (c *Checker) IsArrayType(t *Type) bool {
	switch t.Kind() {
	case Array:
		return true
	case Tuple, Unknown, Any:
		return false
	case Union:
		for _, m := range t.elems {
			if !c.IsArrayType(m) && !c.IsTupleType(m) {
				return false
			}
		}
		return true
	}
	return c.IsAssignableTo(t, "Array")
}

func (c *Checker) TupleLength(t *Type) (int, bool) {
	if t.Kind() != Tuple {
		return 0, false
	}
	return len(t.elems), true
}

func (c *Checker) IsLiteralType(t *Type) bool { return t.Kind() == Literal }

func (c *Checker) LiteralValue(t *Type) (any, bool) {
	if t.Kind() != Literal {
		return nil, false
	}
	return t.literal, true
}

// ReturnType is the declared result of calling member on a value of t.
// Own members of user types shadow the lib and yield unknown, as do
// undeclared members and unions.
func (c *Checker) ReturnType(t *Type, member string) *Type {
	return c.returnType(t, member, 0)
}

func (c *Checker) returnType(t *Type, member string, depth int) *Type {
	if depth > maxDepth {
		return unknownType
	}
	switch t.Kind() {
	case Unknown, Any, Union:
		return unknownType
	}
	if _, own := t.props[member]; own {
		return unknownType
	}
	if result, ok := c.lib.Returns(apparentName(t), member); ok {
		return c.result(t, result)
	}
	for _, b := range t.bases {
		if r := c.returnType(b, member, depth+1); r.Kind() != Unknown {
			return r
		}
	}
	return unknownType
}

func (c *Checker) result(recv *Type, name string) *Type {
	switch name {
	case "self":
		switch recv.Kind() {
		case Array:
			return ArrayType(recv.Elem(), false)
		case Tuple:
			return ArrayType(widenAll(recv.elems), false)
		case Literal:
			return recv.Widen()
		}
		return recv
	case "elem":
		switch recv.Kind() {
		case Array:
			return recv.Elem()
		case Tuple:
			return widenAll(recv.elems)
		}
		return unknownType
	case "string[]":
		return ArrayType(PrimitiveType("string"), false)
	case "string", "number", "boolean", "bigint", "symbol", "undefined":
		return PrimitiveType(name)
	}
	return c.lib.InstanceOf(name)
}

func widenAll(elems []*Type) *Type {
	widened := make([]*Type, len(elems))
	for i, e := range elems {
		widened[i] = e.Widen()
	}
	return UnionType(widened...)
}

// apparentName is the nominal interface a value of t is looked up on:
// "hello" reads members from String, tuples from Array.
func apparentName(t *Type) string {
	switch t.Kind() {
	case Nominal:
		return t.name
	case Array, Tuple:
		return "Array"
	case Primitive, Literal:
		switch t.name {
		case "string":
			return "String"
		case "number":
			return "Number"
		case "boolean":
			return "Boolean"
		}
	case Function:
		return "Function"
	}
	return ""
}
