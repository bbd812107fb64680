package jsast

// Kind discriminates node shapes without a type switch.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindProgram
	KindFunctionDecl
	KindFunctionExpr
	KindBlock
	KindVariableDeclaration
	KindVariableDeclarator
	KindObjectPattern
	KindArrayPattern
	KindProperty
	KindRestElement
	KindAssignmentPattern
	KindObjectExpression
	KindArrayExpression
	KindMemberExpression
	KindCallExpression
	KindNewExpression
	KindClassDeclaration
	KindClassExpression
	KindMethodDefinition
	KindSpreadElement
	KindIdentifier
	KindLiteral
	KindTemplateLiteral
	KindAsExpression
	KindImportDeclaration
	KindAssignmentExpression
	KindExpressionStatement
	KindThisExpression
	KindGeneric
)

var kindNames = [...]string{
	KindInvalid:              "Invalid",
	KindProgram:              "Program",
	KindFunctionDecl:         "FunctionDeclaration",
	KindFunctionExpr:         "FunctionExpression",
	KindBlock:                "BlockStatement",
	KindVariableDeclaration:  "VariableDeclaration",
	KindVariableDeclarator:   "VariableDeclarator",
	KindObjectPattern:        "ObjectPattern",
	KindArrayPattern:         "ArrayPattern",
	KindProperty:             "Property",
	KindRestElement:          "RestElement",
	KindAssignmentPattern:    "AssignmentPattern",
	KindObjectExpression:     "ObjectExpression",
	KindArrayExpression:      "ArrayExpression",
	KindMemberExpression:     "MemberExpression",
	KindCallExpression:       "CallExpression",
	KindNewExpression:        "NewExpression",
	KindClassDeclaration:     "ClassDeclaration",
	KindClassExpression:      "ClassExpression",
	KindMethodDefinition:     "MethodDefinition",
	KindSpreadElement:        "SpreadElement",
	KindIdentifier:           "Identifier",
	KindLiteral:              "Literal",
	KindTemplateLiteral:      "TemplateLiteral",
	KindAsExpression:         "AsExpression",
	KindImportDeclaration:    "ImportDeclaration",
	KindAssignmentExpression: "AssignmentExpression",
	KindExpressionStatement:  "ExpressionStatement",
	KindThisExpression:       "ThisExpression",
	KindGeneric:              "Generic",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Invalid"
}
