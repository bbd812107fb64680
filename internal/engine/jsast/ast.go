// # internal/engine/jsast/ast.go
package jsast

// Position is a 1-based line/column pair plus the 0-based byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Span is the source range covered by a node.
type Span struct {
	Start Position
	End   Position
}

// Node is implemented by every syntax node. Nodes are compared by pointer
// identity; two distinct nodes never share an identity even if they print
// the same.
type Node interface {
	Kind() Kind
	Span() Span
	Parent() Node
	setParent(Node)
}

// NodeBase carries the location and parent link shared by all nodes.
type NodeBase struct {
	Loc    Span
	parent Node
}

func (b *NodeBase) Span() Span       { return b.Loc }
func (b *NodeBase) Parent() Node     { return b.parent }
func (b *NodeBase) setParent(p Node) { b.parent = p }

type Program struct {
	NodeBase
	Path string
	Body []Node
}

// Function covers declarations, expressions, arrows and method bodies.
// Body is a *Block, or any expression for concise arrows.
type Function struct {
	NodeBase
	ID          *Identifier
	Params      []Node
	Body        Node
	ReturnType  TypeNode
	Declaration bool
	Arrow       bool
	Async       bool
	Generator   bool
}

type Block struct {
	NodeBase
	Body []Node
}

type VariableDeclaration struct {
	NodeBase
	DeclKind     string // var, let, const, using
	Declarations []*VariableDeclarator
}

type VariableDeclarator struct {
	NodeBase
	ID   Node // *Identifier, *ObjectPattern or *ArrayPattern
	Init Node
	Type TypeNode
}

type ObjectPattern struct {
	NodeBase
	Properties []Node // *Property or *RestElement
}

type ArrayPattern struct {
	NodeBase
	Elements []Node // nil for holes
}

// Property is a key/value entry of an object literal or an object pattern.
type Property struct {
	NodeBase
	Key       Node
	Value     Node
	Computed  bool
	Shorthand bool
	Method    bool
}

type RestElement struct {
	NodeBase
	Argument Node
}

type AssignmentPattern struct {
	NodeBase
	Left  Node
	Right Node
}

type ObjectExpression struct {
	NodeBase
	Properties []Node // *Property or *SpreadElement
}

type ArrayExpression struct {
	NodeBase
	Elements []Node // nil for holes
}

type MemberExpression struct {
	NodeBase
	Object   Node
	Property Node
	Computed bool
	Optional bool
}

type CallExpression struct {
	NodeBase
	Callee    Node
	Arguments []Node
	Optional  bool
}

type NewExpression struct {
	NodeBase
	Callee    Node
	Arguments []Node
}

// Class is a class declaration, or a class expression when Expression is set.
type Class struct {
	NodeBase
	ID         *Identifier
	SuperClass Node
	Body       []Node
	Expression bool
}

// MethodDefinition is a class member: a method, accessor or field.
type MethodDefinition struct {
	NodeBase
	Key      Node
	Value    Node
	Computed bool
	Static   bool
	Field    bool
}

type SpreadElement struct {
	NodeBase
	Argument Node
}

// Identifier is a name reference or binding. Type holds the annotation of a
// typed parameter.
type Identifier struct {
	NodeBase
	Name string
	Type TypeNode
}

// Literal holds a string, float64, bool or nil value. Regular expressions and
// bigints keep a nil Value and only their Raw text.
type Literal struct {
	NodeBase
	Value any
	Raw   string
}

type TemplateLiteral struct {
	NodeBase
	Quasis      []string
	Expressions []Node
}

// AsExpression is a TypeScript `expr as T` or `expr as const`.
type AsExpression struct {
	NodeBase
	Expression Node
	Type       TypeNode
	Const      bool
}

type ImportDeclaration struct {
	NodeBase
	Source string
	Locals []*Identifier
}

type AssignmentExpression struct {
	NodeBase
	Operator string
	Left     Node
	Right    Node
}

type ExpressionStatement struct {
	NodeBase
	Expression Node
}

type ThisExpression struct {
	NodeBase
}

// Generic stands in for syntax the analysis has no dedicated shape for.
// Its children are still visited.
type Generic struct {
	NodeBase
	Type     string
	Children []Node
}

func (*Program) Kind() Kind              { return KindProgram }
func (*Block) Kind() Kind                { return KindBlock }
func (*VariableDeclaration) Kind() Kind  { return KindVariableDeclaration }
func (*VariableDeclarator) Kind() Kind   { return KindVariableDeclarator }
func (*ObjectPattern) Kind() Kind        { return KindObjectPattern }
func (*ArrayPattern) Kind() Kind         { return KindArrayPattern }
func (*Property) Kind() Kind             { return KindProperty }
func (*RestElement) Kind() Kind          { return KindRestElement }
func (*AssignmentPattern) Kind() Kind    { return KindAssignmentPattern }
func (*ObjectExpression) Kind() Kind     { return KindObjectExpression }
func (*ArrayExpression) Kind() Kind      { return KindArrayExpression }
func (*MemberExpression) Kind() Kind     { return KindMemberExpression }
func (*CallExpression) Kind() Kind       { return KindCallExpression }
func (*NewExpression) Kind() Kind        { return KindNewExpression }
func (*MethodDefinition) Kind() Kind     { return KindMethodDefinition }
func (*SpreadElement) Kind() Kind        { return KindSpreadElement }
func (*Identifier) Kind() Kind           { return KindIdentifier }
func (*Literal) Kind() Kind              { return KindLiteral }
func (*TemplateLiteral) Kind() Kind      { return KindTemplateLiteral }
func (*AsExpression) Kind() Kind         { return KindAsExpression }
func (*ImportDeclaration) Kind() Kind    { return KindImportDeclaration }
func (*AssignmentExpression) Kind() Kind { return KindAssignmentExpression }
func (*ExpressionStatement) Kind() Kind  { return KindExpressionStatement }
func (*ThisExpression) Kind() Kind       { return KindThisExpression }
func (*Generic) Kind() Kind              { return KindGeneric }

func (f *Function) Kind() Kind {
	if f.Declaration {
		return KindFunctionDecl
	}
	return KindFunctionExpr
}

func (c *Class) Kind() Kind {
	if c.Expression {
		return KindClassExpression
	}
	return KindClassDeclaration
}

// StringValue reports the string a literal or an interpolation-free template
// literal evaluates to.
func StringValue(n Node) (string, bool) {
	switch n := n.(type) {
	case *Literal:
		s, ok := n.Value.(string)
		return s, ok
	case *TemplateLiteral:
		if len(n.Expressions) == 0 && len(n.Quasis) <= 1 {
			if len(n.Quasis) == 0 {
				return "", true
			}
			return n.Quasis[0], true
		}
	}
	return "", false
}

// Unparen strips expression wrappers that do not change the value:
// TypeScript `as T` (but not `as const`, which changes the inferred type)
// and generic wrappers such as parenthesized or non-null expressions.
func Unparen(n Node) Node {
	for {
		switch x := n.(type) {
		case *AsExpression:
			if x.Const {
				return n
			}
			n = x.Expression
		case *Generic:
			if !transparentGeneric[x.Type] || len(x.Children) != 1 {
				return n
			}
			n = x.Children[0]
		default:
			return n
		}
	}
}

var transparentGeneric = map[string]bool{
	"parenthesized_expression": true,
	"non_null_expression":      true,
	"satisfies_expression":     true,
	"type_assertion":           true,
}
