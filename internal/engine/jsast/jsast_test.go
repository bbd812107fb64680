package jsast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ident(name string) *Identifier { return &Identifier{Name: name} }

func constDecl(name string, init Node) *VariableDeclaration {
	return &VariableDeclaration{
		DeclKind:     "const",
		Declarations: []*VariableDeclarator{{ID: ident(name), Init: init}},
	}
}

func TestInspect_PreOrderAndParents(t *testing.T) {
	// const xs = [1]; xs.map(f)
	member := &MemberExpression{Object: ident("xs"), Property: ident("map")}
	call := &CallExpression{Callee: member, Arguments: []Node{ident("f")}}
	prog := NewProgram("a.js",
		constDecl("xs", &ArrayExpression{Elements: []Node{&Literal{Value: 1.0, Raw: "1"}}}),
		&ExpressionStatement{Expression: call},
	)

	var kinds []Kind
	Inspect(prog, func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})

	assert.Equal(t, []Kind{
		KindProgram,
		KindVariableDeclaration, KindVariableDeclarator, KindIdentifier, KindArrayExpression, KindLiteral,
		KindExpressionStatement, KindCallExpression, KindMemberExpression, KindIdentifier, KindIdentifier, KindIdentifier,
	}, kinds)

	assert.Same(t, call, member.Parent())
	assert.Same(t, member, member.Object.Parent())
}

func TestInspect_SkipsChildrenWhenFalse(t *testing.T) {
	prog := NewProgram("a.js", &ExpressionStatement{
		Expression: &CallExpression{Callee: ident("f"), Arguments: []Node{ident("x")}},
	})

	count := 0
	Inspect(prog, func(n Node) bool {
		count++
		return n.Kind() != KindExpressionStatement
	})
	assert.Equal(t, 2, count)
}

func TestChildren_SkipsHolesAndNilIdentifiers(t *testing.T) {
	arr := &ArrayExpression{Elements: []Node{nil, ident("a"), nil}}
	assert.Len(t, Children(arr), 1)

	var noName *Identifier
	cls := &Class{ID: noName, Expression: true}
	assert.Empty(t, Children(cls))
}

func TestStringValue(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
		ok   bool
	}{
		{"string literal", &Literal{Value: "map"}, "map", true},
		{"number literal", &Literal{Value: 1.0}, "", false},
		{"plain template", &TemplateLiteral{Quasis: []string{"map"}}, "map", true},
		{"empty template", &TemplateLiteral{}, "", true},
		{"interpolated template", &TemplateLiteral{Quasis: []string{"a", "b"}, Expressions: []Node{ident("x")}}, "", false},
		{"identifier", ident("map"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StringValue(tt.node)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnparen(t *testing.T) {
	inner := ident("x")
	wrapped := &Generic{Type: "parenthesized_expression", Children: []Node{
		&AsExpression{Expression: inner, Type: &TypeRef{Name: "Foo"}},
	}}
	assert.Same(t, inner, Unparen(wrapped))

	asConst := &AsExpression{Expression: &ArrayExpression{}, Const: true}
	assert.Same(t, asConst, Unparen(asConst))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "MemberExpression", KindMemberExpression.String())
	assert.Equal(t, "ClassDeclaration", (&Class{}).Kind().String())
	assert.Equal(t, "ClassExpression", (&Class{Expression: true}).Kind().String())
	assert.Equal(t, "ThisExpression", (&ThisExpression{}).Kind().String())
	assert.Equal(t, "Invalid", Kind(250).String())
}

func TestScopes_LookupWalksOutward(t *testing.T) {
	// const Array = 1; function f(p) { { let inner; use } }
	use := ident("use")
	inner := &Block{Body: []Node{
		&VariableDeclaration{DeclKind: "let", Declarations: []*VariableDeclarator{{ID: ident("inner")}}},
		&ExpressionStatement{Expression: use},
	}}
	fn := &Function{
		ID:          ident("f"),
		Declaration: true,
		Params:      []Node{ident("p")},
		Body:        &Block{Body: []Node{inner}},
	}
	prog := NewProgram("a.js", constDecl("Array", &Literal{Value: 1.0}), fn)
	scopes := BuildScopes(prog)

	for _, name := range []string{"Array", "f", "p", "inner"} {
		decl, ok := scopes.Lookup(use, name)
		require.True(t, ok, name)
		assert.Equal(t, name, decl.Name)
	}
	assert.False(t, scopes.IsDeclared(use, "Map"))

	top := &ExpressionStatement{Expression: ident("top")}
	prog.Body = append(prog.Body, top)
	Link(prog)
	assert.False(t, scopes.IsDeclared(top, "p"), "parameters are not visible outside the function")
	assert.False(t, scopes.IsDeclared(top, "inner"))
}

func TestScopes_VarHoistsToFunction(t *testing.T) {
	use := ident("use")
	fn := &Function{
		Declaration: true,
		ID:          ident("f"),
		Body: &Block{Body: []Node{
			&Block{Body: []Node{&VariableDeclaration{DeclKind: "var", Declarations: []*VariableDeclarator{{ID: ident("v")}}}}},
			&ExpressionStatement{Expression: use},
		}},
	}
	prog := NewProgram("a.js", fn)
	scopes := BuildScopes(prog)

	assert.True(t, scopes.IsDeclared(use, "v"))
}

func TestScopes_PatternsAndImports(t *testing.T) {
	use := ident("use")
	pattern := &ObjectPattern{Properties: []Node{
		&Property{Key: ident("a"), Value: ident("a"), Shorthand: true},
		&Property{Key: ident("b"), Value: &AssignmentPattern{Left: ident("c"), Right: &Literal{Value: 1.0}}},
		&RestElement{Argument: ident("rest")},
	}}
	prog := NewProgram("a.ts",
		&ImportDeclaration{Source: "lib", Locals: []*Identifier{ident("Segmenter")}},
		&VariableDeclaration{DeclKind: "const", Declarations: []*VariableDeclarator{{ID: pattern, Init: ident("obj")}}},
		&VariableDeclaration{DeclKind: "let", Declarations: []*VariableDeclarator{{ID: &ArrayPattern{Elements: []Node{nil, ident("second")}}}}},
		&Class{ID: ident("Local"), SuperClass: ident("Array")},
		&ExpressionStatement{Expression: use},
	)
	scopes := BuildScopes(prog)

	for _, name := range []string{"Segmenter", "a", "c", "rest", "second", "Local"} {
		assert.True(t, scopes.IsDeclared(use, name), name)
	}
	assert.False(t, scopes.IsDeclared(use, "b"), "renamed keys do not bind")

	frame := scopes.Frame(scopes.Enclosing(use))
	require.NotNil(t, frame)
	assert.Equal(t, NoScope, frame.Parent)
	assert.Nil(t, scopes.Frame(42))
}
