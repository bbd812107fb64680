package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecker_IsAssignableTo(t *testing.T) {
	c := NewChecker(nil)
	arrayCtor, _ := c.Lib().Global("Array")
	fooInstance := ClassInstanceType("Foo", map[string]*Type{"extra": FunctionType()}, ArrayType(nil, false))
	duck := map[string]*Type{}
	for _, m := range c.Lib().Members("Promise") {
		duck[m] = FunctionType()
	}

	tests := []struct {
		name    string
		typ     *Type
		nominal string
		want    bool
	}{
		{"array is Array", ArrayType(PrimitiveType("number"), false), "Array", true},
		{"tuple is Array", TupleType(true, PrimitiveType("number")), "Array", true},
		{"array is ReadonlyArray through its base", ArrayType(nil, false), "ReadonlyArray", true},
		{"constructor", arrayCtor, "ArrayConstructor", true},
		{"constructor is not the instance", arrayCtor, "Array", false},
		{"union with one array member", UnionType(PrimitiveType("string"), ArrayType(nil, false)), "Array", true},
		{"union without array", UnionType(PrimitiveType("string"), PrimitiveType("number")), "Array", false},
		{"subclass walks declared bases", fooInstance, "Array", true},
		{"thenable object is structurally a Promise", ObjectType(duck), "Promise", true},
		{"object with one array member is not an Array", ObjectType(map[string]*Type{"map": FunctionType()}), "Array", false},
		{"string literal is String", LiteralType("x"), "String", true},
		{"unknown answers false", UnknownType(), "Array", false},
		{"nil answers false", nil, "Array", false},
		{"any answers false", AnyType(), "Array", false},
		{"undeclared nominal never matches structurally", ObjectType(nil), "Nope", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsAssignableTo(tt.typ, tt.nominal))
		})
	}
}

func TestChecker_HasProperty(t *testing.T) {
	c := NewChecker(nil)
	opts := ObjectType(map[string]*Type{"maxByteLength": LiteralType(8)})

	assert.True(t, c.HasProperty(opts, "maxByteLength"))
	assert.False(t, c.HasProperty(opts, "length"))
	assert.True(t, c.HasProperty(opts, "toString"), "objects expose Object members")
	assert.True(t, c.HasProperty(ArrayType(nil, false), "at"))
	assert.True(t, c.HasProperty(TupleType(false, opts, opts), "1"))
	assert.False(t, c.HasProperty(TupleType(false, opts), "1"))
	assert.True(t, c.HasProperty(UnionType(PrimitiveType("number"), opts), "maxByteLength"))
	assert.False(t, c.HasProperty(UnknownType(), "maxByteLength"))

	ctor, ok := c.Lib().Global("WeakRef")
	assert.True(t, ok)
	assert.True(t, c.HasProperty(ctor, "prototype"))
	assert.Equal(t, "WeakRef", ctor.Instance().Name())
}

func TestChecker_TupleQueries(t *testing.T) {
	c := NewChecker(nil)
	tuple := TupleType(true, PrimitiveType("number"), LiteralType("a"))

	n, ok := c.TupleLength(tuple)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	elem, ok := c.TupleElementAt(tuple, 1)
	assert.True(t, ok)
	assert.True(t, c.IsLiteralType(elem))
	v, ok := c.LiteralValue(elem)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = c.TupleElementAt(tuple, 2)
	assert.False(t, ok)
	_, ok = c.TupleElementAt(ArrayType(nil, false), 0)
	assert.False(t, ok)

	assert.True(t, c.IsTupleType(tuple))
	assert.False(t, c.IsArrayType(tuple))
	assert.True(t, c.IsArrayType(ArrayType(nil, false)))
	assert.True(t, c.IsArrayType(ClassInstanceType("Stack", nil, ArrayType(nil, false))))
	assert.False(t, c.IsArrayType(UnknownType()))
	_, ok = c.LiteralValue(PrimitiveType("string"))
	assert.False(t, ok)
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "number[]", ArrayType(PrimitiveType("number"), false).String())
	assert.Equal(t, `[number, "a"]`, TupleType(false, PrimitiveType("number"), LiteralType("a")).String())
	assert.Equal(t, "string | unknown", UnionType(PrimitiveType("string"), UnknownType()).String())
	assert.Equal(t, "{ a: 1 }", ObjectType(map[string]*Type{"a": LiteralType(1)}).String())
	assert.Equal(t, "string", LiteralType("x").Widen().String())
}

func TestUnionType_Flattens(t *testing.T) {
	inner := UnionType(PrimitiveType("string"), PrimitiveType("number"))
	outer := UnionType(inner, PrimitiveType("boolean"))
	assert.Len(t, outer.Elems(), 3)
	assert.Equal(t, Unknown, UnionType().Kind())
	assert.Same(t, inner, UnionType(inner))
}

func TestChecker_ReturnType(t *testing.T) {
	c := NewChecker(nil)
	arrayCtor, _ := c.Lib().Global("Array")
	buffer := c.Lib().InstanceOf("ArrayBuffer")
	sub := ClassInstanceType("Stack", nil, ArrayType(PrimitiveType("number"), false))
	shadowing := ClassInstanceType("Stack", map[string]*Type{"filter": FunctionType()}, ArrayType(nil, false))

	tests := []struct {
		name   string
		recv   *Type
		member string
		want   string
	}{
		{"static array factory", arrayCtor, "of", "unknown[]"},
		{"readonly base is consulted", ArrayType(PrimitiveType("string"), true), "toSorted", "string[]"},
		{"mutating methods return the array", ArrayType(PrimitiveType("number"), false), "sort", "number[]"},
		{"element", ArrayType(PrimitiveType("number"), false), "pop", "number"},
		{"tuple element widens", TupleType(true, LiteralType("a"), LiteralType(1.0)), "at", "string | number"},
		{"string literal", LiteralType("x"), "padStart", "string"},
		{"boolean", PrimitiveType("string"), "startsWith", "boolean"},
		{"nominal self", buffer, "transfer", "ArrayBuffer"},
		{"through declared bases", sub, "with", "number[]"},
		{"own member shadows", shadowing, "filter", "unknown"},
		{"undeclared member", ArrayType(nil, false), "nope", "unknown"},
		{"union", UnionType(PrimitiveType("string"), ArrayType(nil, false)), "at", "unknown"},
		{"unknown", UnknownType(), "at", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ReturnType(tt.recv, tt.member).String())
		})
	}
}

func TestType_IsClassConstructor(t *testing.T) {
	arrayCtor, _ := NewChecker(nil).Lib().Global("Array")
	class := ClassConstructorType("typeof Stack", ClassInstanceType("Stack", nil), nil, arrayCtor)

	assert.True(t, class.IsClassConstructor())
	assert.False(t, arrayCtor.IsClassConstructor())
	assert.False(t, (*Type)(nil).IsClassConstructor())
}
