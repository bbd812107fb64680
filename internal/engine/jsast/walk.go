package jsast

// Children returns the direct child nodes of n in source order. Holes and
// absent optional parts are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if !isNil(c) {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *Program:
		add(n.Body...)
	case *Function:
		if n.ID != nil {
			add(n.ID)
		}
		add(n.Params...)
		add(n.Body)
	case *Block:
		add(n.Body...)
	case *VariableDeclaration:
		for _, d := range n.Declarations {
			if d != nil {
				add(d)
			}
		}
	case *VariableDeclarator:
		add(n.ID, n.Init)
	case *ObjectPattern:
		add(n.Properties...)
	case *ArrayPattern:
		add(n.Elements...)
	case *Property:
		// Shorthand properties share one identifier for key and value.
		if n.Shorthand {
			add(n.Value)
		} else {
			add(n.Key, n.Value)
		}
	case *RestElement:
		add(n.Argument)
	case *AssignmentPattern:
		add(n.Left, n.Right)
	case *ObjectExpression:
		add(n.Properties...)
	case *ArrayExpression:
		add(n.Elements...)
	case *MemberExpression:
		add(n.Object, n.Property)
	case *CallExpression:
		add(n.Callee)
		add(n.Arguments...)
	case *NewExpression:
		add(n.Callee)
		add(n.Arguments...)
	case *Class:
		if n.ID != nil {
			add(n.ID)
		}
		add(n.SuperClass)
		add(n.Body...)
	case *MethodDefinition:
		add(n.Key, n.Value)
	case *SpreadElement:
		add(n.Argument)
	case *TemplateLiteral:
		add(n.Expressions...)
	case *AsExpression:
		add(n.Expression)
	case *ImportDeclaration:
		for _, id := range n.Locals {
			if id != nil {
				add(id)
			}
		}
	case *AssignmentExpression:
		add(n.Left, n.Right)
	case *ExpressionStatement:
		add(n.Expression)
	case *Generic:
		add(n.Children...)
	}
	return out
}

// Inspect traverses the tree rooted at n in depth-first pre-order, calling
// f for each node. Children are skipped when f returns false.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// Link sets the parent pointer of every node below root. Trees built by hand
// or by a converter must be linked before analysis.
func Link(root Node) {
	if isNil(root) {
		return
	}
	for _, c := range Children(root) {
		c.setParent(root)
		Link(c)
	}
}

// NewProgram builds and links a program from its statements.
func NewProgram(path string, body ...Node) *Program {
	p := &Program{Path: path, Body: body}
	Link(p)
	return p
}

// isNil catches typed nil pointers stored in a Node interface, such as an
// absent *Identifier.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Identifier:
		return v == nil
	case *Block:
		return v == nil
	case *Function:
		return v == nil
	case *VariableDeclarator:
		return v == nil
	}
	return false
}
