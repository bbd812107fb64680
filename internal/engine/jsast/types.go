package jsast

// TypeNode is a TypeScript type annotation as written in source. The
// annotations are kept apart from the expression tree; the traversal never
// visits them.
type TypeNode interface {
	typeNode()
}

// TypeRef is a named type, optionally generic: `Foo`, `Array<number>`.
type TypeRef struct {
	Name string
	Args []TypeNode
}

// ArrayTypeNode is `T[]` or `readonly T[]`.
type ArrayTypeNode struct {
	Elem     TypeNode
	Readonly bool
}

// TupleTypeNode is `[A, B]` or `readonly [A, B]`.
type TupleTypeNode struct {
	Elems    []TypeNode
	Readonly bool
}

type UnionTypeNode struct {
	Types []TypeNode
}

// LiteralTypeNode is a literal type such as `"map"`, `1` or `true`.
type LiteralTypeNode struct {
	Value any
}

// KeywordTypeNode is a predefined type: string, number, unknown, any, ...
type KeywordTypeNode struct {
	Name string
}

// ObjectTypeNode is an inline object type `{ a: T; b?: U }`.
type ObjectTypeNode struct {
	Members map[string]TypeNode
}

func (*TypeRef) typeNode()         {}
func (*ArrayTypeNode) typeNode()   {}
func (*TupleTypeNode) typeNode()   {}
func (*UnionTypeNode) typeNode()   {}
func (*LiteralTypeNode) typeNode() {}
func (*KeywordTypeNode) typeNode() {}
func (*ObjectTypeNode) typeNode()  {}
