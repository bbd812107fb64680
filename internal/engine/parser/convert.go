// # internal/engine/parser/convert.go
package parser

import (
	"baseline/internal/engine/jsast"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Convert turns a tree-sitter JavaScript or TypeScript tree into a linked
// jsast.Program. Syntax without a dedicated jsast shape becomes a Generic
// node so that the expressions below it are still reachable. Type-only
// declarations are dropped.
func Convert(root *sitter.Node, source []byte, path string) *jsast.Program {
	c := &converter{src: source}
	prog := &jsast.Program{Path: path}
	if root != nil {
		prog.Loc = c.span(root)
		prog.Body = c.nodes(root)
	}
	jsast.Link(prog)
	return prog
}

type converter struct {
	src []byte
}

// dropped lists CST kinds that carry no runtime values.
var dropped = map[string]bool{
	"comment":                   true,
	"hash_bang_line":            true,
	"type_annotation":           true,
	"type_arguments":            true,
	"type_parameters":           true,
	"type_predicate_annotation": true,
	"asserts_annotation":        true,
	"accessibility_modifier":    true,
	"override_modifier":         true,
	"interface_declaration":     true,
	"type_alias_declaration":    true,
	"function_signature":        true,
	"empty_statement":           true,
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(c.src[n.StartByte():n.EndByte()])
}

func (c *converter) span(n *sitter.Node) jsast.Span {
	start, end := n.StartPosition(), n.EndPosition()
	return jsast.Span{
		Start: jsast.Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1, Offset: int(n.StartByte())},
		End:   jsast.Position{Line: int(end.Row) + 1, Column: int(end.Column) + 1, Offset: int(n.EndByte())},
	}
}

func (c *converter) base(n *sitter.Node) jsast.NodeBase {
	return jsast.NodeBase{Loc: c.span(n)}
}

// named returns the named children of n without comments.
func named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// hasToken reports whether n has a direct anonymous child with the given
// kind, such as "static" or "async".
func hasToken(n *sitter.Node, kind string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == kind {
			return true
		}
	}
	return false
}

func isOptional(n *sitter.Node) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil && (child.Kind() == "optional_chain" || child.Kind() == "?.") {
			return true
		}
	}
	return false
}

// nodes converts the named children of n, skipping dropped kinds.
func (c *converter) nodes(n *sitter.Node) []jsast.Node {
	var out []jsast.Node
	for _, child := range named(n) {
		if conv := c.node(child); conv != nil {
			out = append(out, conv)
		}
	}
	return out
}

func (c *converter) generic(n *sitter.Node) jsast.Node {
	return &jsast.Generic{NodeBase: c.base(n), Type: n.Kind(), Children: c.nodes(n)}
}

// node converts one statement or expression. It returns nil for dropped
// syntax.
func (c *converter) node(n *sitter.Node) jsast.Node {
	if n == nil || dropped[n.Kind()] {
		return nil
	}
	switch n.Kind() {
	case "expression_statement":
		exprs := c.nodes(n)
		if len(exprs) != 1 {
			return &jsast.Generic{NodeBase: c.base(n), Type: n.Kind(), Children: exprs}
		}
		return &jsast.ExpressionStatement{NodeBase: c.base(n), Expression: exprs[0]}
	case "statement_block":
		return c.block(n)
	case "lexical_declaration", "variable_declaration", "using_declaration":
		return c.declaration(n)
	case "function_declaration", "generator_function_declaration":
		return c.function(n, true)
	case "function_expression", "function", "generator_function", "arrow_function":
		return c.function(n, false)
	case "class_declaration", "abstract_class_declaration":
		return c.class(n, false)
	case "class":
		return c.class(n, true)
	case "import_statement":
		return c.importDecl(n)
	case "for_in_statement":
		return c.forIn(n)
	case "catch_clause":
		return c.catchClause(n)
	case "enum_declaration":
		return &jsast.VariableDeclaration{
			NodeBase:     c.base(n),
			DeclKind:     "const",
			Declarations: []*jsast.VariableDeclarator{{NodeBase: c.base(n), ID: c.ident(n.ChildByFieldName("name"))}},
		}

	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "private_property_identifier":
		return c.ident(n)
	case "undefined":
		return &jsast.Identifier{NodeBase: c.base(n), Name: "undefined"}
	case "this":
		return &jsast.ThisExpression{NodeBase: c.base(n)}
	case "null":
		return &jsast.Literal{NodeBase: c.base(n), Raw: "null"}
	case "true", "false":
		return &jsast.Literal{NodeBase: c.base(n), Value: n.Kind() == "true", Raw: n.Kind()}
	case "number":
		lit := &jsast.Literal{NodeBase: c.base(n), Raw: c.text(n)}
		if v, ok := parseNumber(lit.Raw); ok {
			lit.Value = v
		}
		return lit
	case "string":
		return &jsast.Literal{NodeBase: c.base(n), Value: c.stringValue(n), Raw: c.text(n)}
	case "regex":
		return &jsast.Literal{NodeBase: c.base(n), Raw: c.text(n)}
	case "template_string":
		return c.template(n)
	case "array":
		return &jsast.ArrayExpression{NodeBase: c.base(n), Elements: c.elements(n, c.node)}
	case "object":
		return c.object(n)
	case "member_expression":
		return &jsast.MemberExpression{
			NodeBase: c.base(n),
			Object:   c.node(n.ChildByFieldName("object")),
			Property: c.node(n.ChildByFieldName("property")),
			Optional: isOptional(n),
		}
	case "subscript_expression":
		return &jsast.MemberExpression{
			NodeBase: c.base(n),
			Object:   c.node(n.ChildByFieldName("object")),
			Property: c.node(n.ChildByFieldName("index")),
			Computed: true,
			Optional: isOptional(n),
		}
	case "call_expression":
		return c.call(n)
	case "new_expression":
		return &jsast.NewExpression{
			NodeBase:  c.base(n),
			Callee:    c.node(n.ChildByFieldName("constructor")),
			Arguments: c.nodes(n.ChildByFieldName("arguments")),
		}
	case "spread_element":
		return &jsast.SpreadElement{NodeBase: c.base(n), Argument: c.first(n)}
	case "assignment_expression":
		return &jsast.AssignmentExpression{
			NodeBase: c.base(n),
			Operator: "=",
			Left:     c.pattern(n.ChildByFieldName("left")),
			Right:    c.node(n.ChildByFieldName("right")),
		}
	case "augmented_assignment_expression":
		return &jsast.AssignmentExpression{
			NodeBase: c.base(n),
			Operator: c.text(n.ChildByFieldName("operator")),
			Left:     c.node(n.ChildByFieldName("left")),
			Right:    c.node(n.ChildByFieldName("right")),
		}
	case "as_expression":
		return c.asExpression(n)
	case "parenthesized_expression", "non_null_expression", "satisfies_expression", "type_assertion":
		// Keep only the wrapped value so the wrapper stays transparent.
		var inner jsast.Node
		for _, child := range named(n) {
			if isTypeKind(child.Kind()) {
				continue
			}
			if conv := c.node(child); conv != nil {
				inner = conv
				if n.Kind() != "type_assertion" {
					break
				}
			}
		}
		if inner == nil {
			return c.generic(n)
		}
		return &jsast.Generic{NodeBase: c.base(n), Type: n.Kind(), Children: []jsast.Node{inner}}
	case "object_pattern", "array_pattern", "assignment_pattern", "rest_pattern":
		return c.pattern(n)
	}
	return c.generic(n)
}

// isTypeKind matches the type nodes that can sit next to an expression
// inside a wrapper.
func isTypeKind(kind string) bool {
	return strings.HasSuffix(kind, "_type") || kind == "type_identifier" || kind == "type_arguments"
}

// first converts the first convertible named child of n.
func (c *converter) first(n *sitter.Node) jsast.Node {
	for _, child := range named(n) {
		if conv := c.node(child); conv != nil {
			return conv
		}
	}
	return nil
}

func (c *converter) ident(n *sitter.Node) *jsast.Identifier {
	if n == nil {
		return nil
	}
	return &jsast.Identifier{NodeBase: c.base(n), Name: c.text(n)}
}

func (c *converter) block(n *sitter.Node) *jsast.Block {
	return &jsast.Block{NodeBase: c.base(n), Body: c.nodes(n)}
}

func (c *converter) declaration(n *sitter.Node) jsast.Node {
	kind := "var"
	if k := n.ChildByFieldName("kind"); k != nil {
		kind = c.text(k)
	} else if n.ChildCount() > 0 {
		kind = c.text(n.Child(0))
	}
	decl := &jsast.VariableDeclaration{NodeBase: c.base(n), DeclKind: kind}
	for _, child := range named(n) {
		if child.Kind() != "variable_declarator" {
			continue
		}
		decl.Declarations = append(decl.Declarations, &jsast.VariableDeclarator{
			NodeBase: c.base(child),
			ID:       c.pattern(child.ChildByFieldName("name")),
			Init:     c.node(child.ChildByFieldName("value")),
			Type:     c.typeNode(child.ChildByFieldName("type")),
		})
	}
	return decl
}

func (c *converter) function(n *sitter.Node, declaration bool) *jsast.Function {
	fn := &jsast.Function{
		NodeBase:    c.base(n),
		ID:          c.ident(n.ChildByFieldName("name")),
		Declaration: declaration,
		Arrow:       n.Kind() == "arrow_function",
		Async:       hasToken(n, "async"),
		Generator:   hasToken(n, "*"),
		ReturnType:  c.typeNode(n.ChildByFieldName("return_type")),
	}
	if p := n.ChildByFieldName("parameter"); p != nil {
		fn.Params = []jsast.Node{c.pattern(p)}
	} else {
		fn.Params = c.params(n.ChildByFieldName("parameters"))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		if body.Kind() == "statement_block" {
			fn.Body = c.block(body)
		} else {
			fn.Body = c.node(body)
		}
	}
	return fn
}

func (c *converter) params(n *sitter.Node) []jsast.Node {
	var out []jsast.Node
	for _, child := range named(n) {
		switch child.Kind() {
		case "required_parameter", "optional_parameter":
			pat := child.ChildByFieldName("pattern")
			if pat == nil || pat.Kind() == "this" {
				continue
			}
			p := c.pattern(pat)
			if id, ok := p.(*jsast.Identifier); ok {
				id.Type = c.typeNode(child.ChildByFieldName("type"))
			}
			if v := child.ChildByFieldName("value"); v != nil {
				p = &jsast.AssignmentPattern{NodeBase: c.base(child), Left: p, Right: c.node(v)}
			}
			out = append(out, p)
		default:
			if p := c.pattern(child); p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *converter) class(n *sitter.Node, expression bool) *jsast.Class {
	cls := &jsast.Class{
		NodeBase:   c.base(n),
		ID:         c.ident(n.ChildByFieldName("name")),
		Expression: expression,
	}
	for _, child := range named(n) {
		if child.Kind() != "class_heritage" {
			continue
		}
		cls.SuperClass = c.superClass(child)
	}
	for _, member := range named(n.ChildByFieldName("body")) {
		if m := c.classMember(member); m != nil {
			cls.Body = append(cls.Body, m)
		}
	}
	return cls
}

func (c *converter) superClass(heritage *sitter.Node) jsast.Node {
	for _, child := range named(heritage) {
		switch child.Kind() {
		case "extends_clause":
			if v := child.ChildByFieldName("value"); v != nil {
				return c.node(v)
			}
			return c.first(child)
		case "implements_clause":
			continue
		default:
			return c.node(child)
		}
	}
	return nil
}

func (c *converter) classMember(n *sitter.Node) jsast.Node {
	switch n.Kind() {
	case "method_definition":
		key, computed := c.propertyKey(n.ChildByFieldName("name"))
		return &jsast.MethodDefinition{
			NodeBase: c.base(n),
			Key:      key,
			Value:    c.method(n),
			Computed: computed,
			Static:   hasToken(n, "static"),
		}
	case "field_definition", "public_field_definition":
		nameNode := n.ChildByFieldName("property")
		if nameNode == nil {
			nameNode = n.ChildByFieldName("name")
		}
		key, computed := c.propertyKey(nameNode)
		return &jsast.MethodDefinition{
			NodeBase: c.base(n),
			Key:      key,
			Value:    c.node(n.ChildByFieldName("value")),
			Computed: computed,
			Static:   hasToken(n, "static"),
			Field:    true,
		}
	case "class_static_block":
		return c.generic(n)
	}
	return nil
}

// method builds the function value of a method definition.
func (c *converter) method(n *sitter.Node) *jsast.Function {
	fn := &jsast.Function{
		NodeBase:   c.base(n),
		Params:     c.params(n.ChildByFieldName("parameters")),
		Async:      hasToken(n, "async"),
		Generator:  hasToken(n, "*"),
		ReturnType: c.typeNode(n.ChildByFieldName("return_type")),
	}
	if body := n.ChildByFieldName("body"); body != nil {
		fn.Body = c.block(body)
	}
	return fn
}

// propertyKey converts a property or member name. Computed keys return the
// key expression.
func (c *converter) propertyKey(n *sitter.Node) (jsast.Node, bool) {
	if n == nil {
		return nil, false
	}
	if n.Kind() == "computed_property_name" {
		return c.first(n), true
	}
	return c.node(n), false
}

func (c *converter) object(n *sitter.Node) jsast.Node {
	obj := &jsast.ObjectExpression{NodeBase: c.base(n)}
	for _, child := range named(n) {
		switch child.Kind() {
		case "pair":
			key, computed := c.propertyKey(child.ChildByFieldName("key"))
			obj.Properties = append(obj.Properties, &jsast.Property{
				NodeBase: c.base(child),
				Key:      key,
				Value:    c.node(child.ChildByFieldName("value")),
				Computed: computed,
			})
		case "method_definition":
			key, computed := c.propertyKey(child.ChildByFieldName("name"))
			obj.Properties = append(obj.Properties, &jsast.Property{
				NodeBase: c.base(child),
				Key:      key,
				Value:    c.method(child),
				Computed: computed,
				Method:   true,
			})
		case "shorthand_property_identifier":
			id := c.ident(child)
			obj.Properties = append(obj.Properties, &jsast.Property{
				NodeBase:  c.base(child),
				Key:       id,
				Value:     id,
				Shorthand: true,
			})
		default:
			if conv := c.node(child); conv != nil {
				obj.Properties = append(obj.Properties, conv)
			}
		}
	}
	return obj
}

// pattern converts a binding or assignment target.
func (c *converter) pattern(n *sitter.Node) jsast.Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "object_pattern":
		pat := &jsast.ObjectPattern{NodeBase: c.base(n)}
		for _, child := range named(n) {
			if p := c.patternProperty(child); p != nil {
				pat.Properties = append(pat.Properties, p)
			}
		}
		return pat
	case "array_pattern":
		return &jsast.ArrayPattern{NodeBase: c.base(n), Elements: c.elements(n, c.pattern)}
	case "assignment_pattern":
		return &jsast.AssignmentPattern{
			NodeBase: c.base(n),
			Left:     c.pattern(n.ChildByFieldName("left")),
			Right:    c.node(n.ChildByFieldName("right")),
		}
	case "rest_pattern":
		var arg jsast.Node
		if inner := named(n); len(inner) > 0 {
			arg = c.pattern(inner[0])
		}
		return &jsast.RestElement{NodeBase: c.base(n), Argument: arg}
	case "identifier", "shorthand_property_identifier_pattern":
		return c.ident(n)
	}
	return c.node(n)
}

func (c *converter) patternProperty(n *sitter.Node) jsast.Node {
	switch n.Kind() {
	case "pair_pattern":
		key, computed := c.propertyKey(n.ChildByFieldName("key"))
		return &jsast.Property{
			NodeBase: c.base(n),
			Key:      key,
			Value:    c.pattern(n.ChildByFieldName("value")),
			Computed: computed,
		}
	case "shorthand_property_identifier_pattern":
		id := c.ident(n)
		return &jsast.Property{NodeBase: c.base(n), Key: id, Value: id, Shorthand: true}
	case "object_assignment_pattern":
		left := c.pattern(n.ChildByFieldName("left"))
		prop := &jsast.Property{
			NodeBase: c.base(n),
			Key:      left,
			Value: &jsast.AssignmentPattern{
				NodeBase: c.base(n),
				Left:     left,
				Right:    c.node(n.ChildByFieldName("right")),
			},
			Shorthand: true,
		}
		return prop
	case "rest_pattern":
		return c.pattern(n)
	}
	return nil
}

// elements converts the entries of an array literal or pattern, keeping
// holes as nil entries: `[a, , b]` has three elements.
func (c *converter) elements(n *sitter.Node, conv func(*sitter.Node) jsast.Node) []jsast.Node {
	out := []jsast.Node{}
	filled := false
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch {
		case child.Kind() == ",":
			if !filled {
				out = append(out, nil)
			}
			filled = false
		case child.IsNamed() && child.Kind() != "comment":
			if e := conv(child); e != nil {
				out = append(out, e)
				filled = true
			}
		}
	}
	return out
}

func (c *converter) call(n *sitter.Node) jsast.Node {
	callee := c.node(n.ChildByFieldName("function"))
	args := n.ChildByFieldName("arguments")
	if args != nil && args.Kind() == "template_string" {
		// Tagged templates pass a strings array, not the template value.
		return &jsast.Generic{NodeBase: c.base(n), Type: "tagged_template", Children: []jsast.Node{callee, c.template(args)}}
	}
	return &jsast.CallExpression{
		NodeBase:  c.base(n),
		Callee:    callee,
		Arguments: c.nodes(args),
		Optional:  isOptional(n),
	}
}

func (c *converter) template(n *sitter.Node) *jsast.TemplateLiteral {
	tpl := &jsast.TemplateLiteral{NodeBase: c.base(n)}
	var cur strings.Builder
	for _, child := range named(n) {
		switch child.Kind() {
		case "string_fragment":
			cur.WriteString(c.text(child))
		case "escape_sequence":
			cur.WriteString(unescape(c.text(child)))
		case "template_substitution":
			tpl.Quasis = append(tpl.Quasis, cur.String())
			cur.Reset()
			if e := c.first(child); e != nil {
				tpl.Expressions = append(tpl.Expressions, e)
			}
		}
	}
	tpl.Quasis = append(tpl.Quasis, cur.String())
	return tpl
}

func (c *converter) asExpression(n *sitter.Node) jsast.Node {
	kids := named(n)
	if len(kids) == 0 {
		return c.generic(n)
	}
	as := &jsast.AsExpression{NodeBase: c.base(n), Expression: c.node(kids[0])}
	last := n.Child(n.ChildCount() - 1)
	if last != nil && last.Kind() == "const" {
		as.Const = true
	} else if len(kids) > 1 {
		as.Type = c.typeNode(kids[len(kids)-1])
	}
	return as
}

func (c *converter) importDecl(n *sitter.Node) jsast.Node {
	decl := &jsast.ImportDeclaration{NodeBase: c.base(n)}
	if src := n.ChildByFieldName("source"); src != nil {
		decl.Source = c.stringValue(src)
	}
	for _, child := range named(n) {
		if child.Kind() != "import_clause" {
			continue
		}
		for _, part := range named(child) {
			switch part.Kind() {
			case "identifier":
				decl.Locals = append(decl.Locals, c.ident(part))
			case "namespace_import":
				for _, id := range named(part) {
					decl.Locals = append(decl.Locals, c.ident(id))
				}
			case "named_imports":
				for _, spec := range named(part) {
					if spec.Kind() != "import_specifier" {
						continue
					}
					local := spec.ChildByFieldName("alias")
					if local == nil {
						local = spec.ChildByFieldName("name")
					}
					if local != nil {
						decl.Locals = append(decl.Locals, c.ident(local))
					}
				}
			}
		}
	}
	return decl
}

// forIn converts for-in and for-of loops. A declared loop variable becomes
// a VariableDeclaration without initializer.
func (c *converter) forIn(n *sitter.Node) jsast.Node {
	g := &jsast.Generic{NodeBase: c.base(n), Type: n.Kind()}
	leftNode := n.ChildByFieldName("left")
	left := c.pattern(leftNode)
	if kind := n.ChildByFieldName("kind"); kind != nil && left != nil {
		left = &jsast.VariableDeclaration{
			NodeBase:     c.base(leftNode),
			DeclKind:     c.text(kind),
			Declarations: []*jsast.VariableDeclarator{{NodeBase: c.base(leftNode), ID: left}},
		}
	}
	for _, part := range []jsast.Node{left, c.node(n.ChildByFieldName("right")), c.node(n.ChildByFieldName("body"))} {
		if part != nil {
			g.Children = append(g.Children, part)
		}
	}
	return g
}

// catchClause scopes the caught binding to the handler block.
func (c *converter) catchClause(n *sitter.Node) jsast.Node {
	body := n.ChildByFieldName("body")
	if body == nil {
		return c.generic(n)
	}
	blk := c.block(body)
	if param := n.ChildByFieldName("parameter"); param != nil {
		decl := &jsast.VariableDeclaration{
			NodeBase:     c.base(param),
			DeclKind:     "let",
			Declarations: []*jsast.VariableDeclarator{{NodeBase: c.base(param), ID: c.pattern(param)}},
		}
		blk.Body = append([]jsast.Node{decl}, blk.Body...)
	}
	return &jsast.Generic{NodeBase: c.base(n), Type: n.Kind(), Children: []jsast.Node{blk}}
}

// stringValue decodes a string literal node from its fragments.
func (c *converter) stringValue(n *sitter.Node) string {
	var b strings.Builder
	for _, child := range named(n) {
		switch child.Kind() {
		case "escape_sequence":
			b.WriteString(unescape(c.text(child)))
		default:
			b.WriteString(c.text(child))
		}
	}
	return b.String()
}

func unescape(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '\n', '\r':
		return ""
	case '0':
		if len(seq) == 2 {
			return "\x00"
		}
	case 'x', 'u':
		hex := strings.Trim(seq[2:], "{}")
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return string(rune(v))
		}
		return seq
	}
	return seq[1:]
}

// parseNumber evaluates a numeric literal. BigInt literals have no float
// value.
func parseNumber(raw string) (float64, bool) {
	s := strings.ReplaceAll(raw, "_", "")
	if s == "" || strings.HasSuffix(s, "n") {
		return 0, false
	}
	if len(s) > 2 && s[0] == '0' && strings.ContainsRune("xXoObB", rune(s[1])) {
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return 0, false
		}
		return float64(v), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
