package oracle

import (
	"baseline/internal/engine/jsast"
	"baseline/internal/engine/types"
)

var keywordTypes = map[string]bool{
	"string":    true,
	"number":    true,
	"boolean":   true,
	"bigint":    true,
	"symbol":    true,
	"null":      true,
	"undefined": true,
}

// FromTypeNode converts a TypeScript annotation to a type. at is the node
// carrying the annotation; type references to local classes are resolved
// from its scope.
func (o *Oracle) FromTypeNode(tn jsast.TypeNode, at jsast.Node) *types.Type {
	switch n := tn.(type) {
	case nil:
		return types.UnknownType()
	case *jsast.KeywordTypeNode:
		if keywordTypes[n.Name] {
			return types.PrimitiveType(n.Name)
		}
		if n.Name == "any" {
			return types.AnyType()
		}
		return types.UnknownType()
	case *jsast.LiteralTypeNode:
		return literal(n.Value)
	case *jsast.ArrayTypeNode:
		return types.ArrayType(o.FromTypeNode(n.Elem, at), n.Readonly)
	case *jsast.TupleTypeNode:
		elems := make([]*types.Type, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = o.FromTypeNode(e, at)
		}
		return types.TupleType(n.Readonly, elems...)
	case *jsast.UnionTypeNode:
		members := make([]*types.Type, len(n.Types))
		for i, m := range n.Types {
			members[i] = o.FromTypeNode(m, at)
		}
		return types.UnionType(members...)
	case *jsast.ObjectTypeNode:
		props := make(map[string]*types.Type, len(n.Members))
		for k, v := range n.Members {
			props[k] = o.FromTypeNode(v, at)
		}
		return types.ObjectType(props)
	case *jsast.TypeRef:
		return o.typeRef(n, at)
	}
	return types.UnknownType()
}

func (o *Oracle) typeRef(ref *jsast.TypeRef, at jsast.Node) *types.Type {
	if decl, ok := o.scopes.Lookup(at, ref.Name); ok {
		if c, ok := decl.Parent().(*jsast.Class); ok && c.ID == decl {
			if inst := o.classType(c).Instance(); inst != nil {
				return inst
			}
		}
		return types.UnknownType()
	}

	switch ref.Name {
	case "Array", "ReadonlyArray":
		var elem *types.Type
		if len(ref.Args) > 0 {
			elem = o.FromTypeNode(ref.Args[0], at)
		}
		return types.ArrayType(elem, ref.Name == "ReadonlyArray")
	case "Function":
		return types.FunctionType()
	case "String", "Number", "Boolean":
		return types.NominalType(ref.Name)
	}

	lib := o.Lib()
	iface, ok := lib.Interface(ref.Name)
	if !ok {
		return types.UnknownType()
	}
	if iface.Instance != "" {
		return types.ConstructorType(iface.Name, lib.InstanceOf(iface.Instance))
	}
	return lib.InstanceOf(iface.Name)
}
