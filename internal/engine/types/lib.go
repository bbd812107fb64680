package types

import (
	"sort"
	"sync"
)

// Interface is a declared nominal shape from the lib declaration table.
type Interface struct {
	Name    string
	Bases   []string
	Members []string
	// Instance names the interface produced by `new` when this interface
	// describes a constructor.
	Instance string
	// Returns maps methods to the name of their result: a primitive, a lib
	// interface, "string[]", "self" for the receiver's own type or "elem"
	// for its element type.
	Returns map[string]string
}

// Lib is a table of declared interfaces plus the global values bound to
// them. It is read-only once built and safe for concurrent use.
type Lib struct {
	interfaces map[string]*Interface
	members    map[string]map[string]bool
	globals    map[string]string
}

// NewLib indexes ifaces. globals maps a global value name to the interface
// describing its static side ("Array" -> "ArrayConstructor").
func NewLib(ifaces []*Interface, globals map[string]string) *Lib {
	l := &Lib{
		interfaces: make(map[string]*Interface, len(ifaces)),
		members:    make(map[string]map[string]bool, len(ifaces)),
		globals:    make(map[string]string, len(globals)),
	}
	for _, iface := range ifaces {
		l.interfaces[iface.Name] = iface
	}
	for name := range l.interfaces {
		l.members[name] = l.collect(name, make(map[string]bool))
	}
	for k, v := range globals {
		l.globals[k] = v
	}
	return l
}

func (l *Lib) collect(name string, seen map[string]bool) map[string]bool {
	out := make(map[string]bool)
	if seen[name] {
		return out
	}
	seen[name] = true
	iface, ok := l.interfaces[name]
	if !ok {
		return out
	}
	for _, m := range iface.Members {
		out[m] = true
	}
	for _, b := range iface.Bases {
		for m := range l.collect(b, seen) {
			out[m] = true
		}
	}
	return out
}

// Returns looks up the declared result of member on iface or its bases.
func (l *Lib) Returns(iface, member string) (string, bool) {
	return l.returns(iface, member, make(map[string]bool))
}

func (l *Lib) returns(iface, member string, seen map[string]bool) (string, bool) {
	if seen[iface] {
		return "", false
	}
	seen[iface] = true
	decl, ok := l.interfaces[iface]
	if !ok {
		return "", false
	}
	if r, ok := decl.Returns[member]; ok {
		return r, true
	}
	for _, b := range decl.Bases {
		if r, ok := l.returns(b, member, seen); ok {
			return r, true
		}
	}
	return "", false
}

func (l *Lib) Interface(name string) (*Interface, bool) {
	iface, ok := l.interfaces[name]
	return iface, ok
}

// HasMember reports whether the interface, or one of its declared bases,
// declares member.
func (l *Lib) HasMember(iface, member string) bool {
	return l.members[iface][member]
}

// Members lists the full member set of iface, bases included, sorted.
func (l *Lib) Members(iface string) []string {
	set := l.members[iface]
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Global returns the type of a global value such as `Array` or `Promise`.
func (l *Lib) Global(name string) (*Type, bool) {
	ifaceName, ok := l.globals[name]
	if !ok {
		return nil, false
	}
	iface := l.interfaces[ifaceName]
	var instance *Type
	if iface != nil && iface.Instance != "" {
		instance = l.InstanceOf(iface.Instance)
	}
	return ConstructorType(ifaceName, instance), true
}

// InstanceOf returns the instance-side type for a lib interface name. Array
// is modelled as unknown[] so array queries apply to it.
func (l *Lib) InstanceOf(name string) *Type {
	switch name {
	case "Array":
		return ArrayType(nil, false)
	case "ReadonlyArray":
		return ArrayType(nil, true)
	}
	return NominalType(name)
}

// GlobalNames lists every declared global value, sorted.
func (l *Lib) GlobalNames() []string {
	out := make([]string, 0, len(l.globals))
	for k := range l.globals {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var readonlyArrayMembers = []string{
	"length", "at", "concat", "entries", "every", "filter", "find", "findIndex",
	"findLast", "findLastIndex", "flat", "flatMap", "forEach", "includes",
	"indexOf", "join", "keys", "lastIndexOf", "map", "reduce", "reduceRight",
	"slice", "some", "toLocaleString", "toReversed", "toSorted", "toSpliced",
	"toString", "values", "with",
}

func returning(result string, methods ...string) map[string]string {
	out := make(map[string]string, len(methods))
	for _, m := range methods {
		out[m] = result
	}
	return out
}

func merge(tables ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, t := range tables {
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}

var readonlyArrayReturns = merge(
	returning("self", "concat", "filter", "slice", "toReversed", "toSorted", "toSpliced", "with"),
	returning("elem", "at", "find", "findLast"),
	returning("Array", "flat", "flatMap", "map"),
	returning("string", "join", "toLocaleString", "toString"),
	returning("number", "findIndex", "findLastIndex", "indexOf", "lastIndexOf"),
	returning("boolean", "every", "includes", "some"),
)

var stringReturns = merge(
	returning("string", "at", "charAt", "concat", "normalize", "padEnd", "padStart",
		"repeat", "replace", "replaceAll", "slice", "substring", "toLowerCase",
		"toString", "toUpperCase", "toWellFormed", "trim", "trimEnd", "trimStart",
		"valueOf"),
	returning("string[]", "split"),
	returning("number", "charCodeAt", "codePointAt", "indexOf", "lastIndexOf", "localeCompare", "search"),
	returning("boolean", "endsWith", "includes", "isWellFormed", "startsWith"),
)

var objectMembers = []string{
	"constructor", "hasOwnProperty", "isPrototypeOf", "propertyIsEnumerable",
	"toLocaleString", "toString", "valueOf",
}

// DefaultLib is the built-in declaration table covering the platform types
// the rule catalog targets.
var DefaultLib = sync.OnceValue(func() *Lib {
	return NewLib([]*Interface{
		{Name: "Object", Members: objectMembers},
		{Name: "ObjectConstructor", Instance: "Object", Returns: merge(
			returning("Array", "entries", "values"),
			returning("string[]", "getOwnPropertyNames", "keys"),
			returning("boolean", "hasOwn", "is", "isExtensible", "isFrozen", "isSealed"),
		), Members: []string{
			"assign", "create", "defineProperties", "defineProperty", "entries",
			"freeze", "fromEntries", "getOwnPropertyDescriptor",
			"getOwnPropertyDescriptors", "getOwnPropertyNames",
			"getOwnPropertySymbols", "getPrototypeOf", "groupBy", "hasOwn", "is",
			"isExtensible", "isFrozen", "isSealed", "keys", "preventExtensions",
			"prototype", "seal", "setPrototypeOf", "values",
		}},
		{Name: "Function", Members: []string{"apply", "bind", "call", "length", "name", "prototype"}},
		{Name: "ReadonlyArray", Members: readonlyArrayMembers, Returns: readonlyArrayReturns},
		{Name: "Array", Bases: []string{"ReadonlyArray"}, Members: []string{
			"copyWithin", "fill", "pop", "push", "reverse", "shift", "sort",
			"splice", "unshift",
		}, Returns: merge(
			returning("self", "copyWithin", "fill", "reverse", "sort", "splice"),
			returning("elem", "pop", "shift"),
			returning("number", "push", "unshift"),
		)},
		{Name: "ArrayConstructor", Instance: "Array", Members: []string{
			"from", "fromAsync", "isArray", "of", "prototype",
		}, Returns: merge(
			returning("Array", "from", "of"),
			returning("Promise", "fromAsync"),
			returning("boolean", "isArray"),
		)},
		{Name: "ArrayBuffer", Members: []string{
			"byteLength", "detached", "maxByteLength", "resizable", "resize",
			"slice", "transfer", "transferToFixedLength",
		}, Returns: returning("self", "slice", "transfer", "transferToFixedLength")},
		{Name: "ArrayBufferConstructor", Instance: "ArrayBuffer", Members: []string{"isView", "prototype"}},
		{Name: "SharedArrayBuffer", Members: []string{"byteLength", "grow", "growable", "maxByteLength", "slice"}},
		{Name: "SharedArrayBufferConstructor", Instance: "SharedArrayBuffer", Members: []string{"prototype"}},
		{Name: "String", Members: []string{
			"at", "charAt", "charCodeAt", "codePointAt", "concat", "endsWith",
			"includes", "indexOf", "isWellFormed", "lastIndexOf", "length",
			"localeCompare", "match", "matchAll", "normalize", "padEnd",
			"padStart", "repeat", "replace", "replaceAll", "search", "slice",
			"split", "startsWith", "substring", "toLowerCase", "toString",
			"toUpperCase", "toWellFormed", "trim", "trimEnd", "trimStart",
			"valueOf",
		}, Returns: stringReturns},
		{Name: "StringConstructor", Instance: "String", Members: []string{"fromCharCode", "fromCodePoint", "prototype", "raw"},
			Returns: returning("string", "fromCharCode", "fromCodePoint", "raw")},
		{Name: "Number", Members: []string{"toExponential", "toFixed", "toLocaleString", "toPrecision", "toString", "valueOf"}},
		{Name: "Boolean", Members: []string{"valueOf"}},
		{Name: "Promise", Members: []string{"catch", "finally", "then"}, Returns: returning("Promise", "catch", "finally", "then")},
		{Name: "PromiseConstructor", Instance: "Promise", Members: []string{
			"all", "allSettled", "any", "prototype", "race", "reject", "resolve",
			"try", "withResolvers",
		}, Returns: returning("Promise", "all", "allSettled", "any", "race", "reject", "resolve", "try")},
		{Name: "Map", Members: []string{"clear", "delete", "entries", "forEach", "get", "has", "keys", "set", "size", "values"}},
		{Name: "MapConstructor", Instance: "Map", Members: []string{"groupBy", "prototype"}},
		{Name: "Set", Members: []string{
			"add", "clear", "delete", "difference", "entries", "forEach", "has",
			"intersection", "isDisjointFrom", "isSubsetOf", "isSupersetOf", "keys",
			"size", "symmetricDifference", "union", "values",
		}, Returns: merge(
			returning("self", "add", "difference", "intersection", "symmetricDifference", "union"),
			returning("boolean", "delete", "has", "isDisjointFrom", "isSubsetOf", "isSupersetOf"),
		)},
		{Name: "SetConstructor", Instance: "Set", Members: []string{"prototype"}},
		{Name: "WeakRef", Members: []string{"deref"}},
		{Name: "WeakRefConstructor", Instance: "WeakRef", Members: []string{"prototype"}},
		{Name: "FinalizationRegistry", Members: []string{"register", "unregister"}},
		{Name: "FinalizationRegistryConstructor", Instance: "FinalizationRegistry", Members: []string{"prototype"}},
		{Name: "Error", Members: []string{"cause", "message", "name", "stack"}},
		{Name: "ErrorConstructor", Instance: "Error", Members: []string{"captureStackTrace", "prototype"}},
		{Name: "AggregateError", Bases: []string{"Error"}, Members: []string{"errors"}},
		{Name: "AggregateErrorConstructor", Instance: "AggregateError", Members: []string{"prototype"}},
	}, map[string]string{
		"Object":               "ObjectConstructor",
		"Array":                "ArrayConstructor",
		"ArrayBuffer":          "ArrayBufferConstructor",
		"SharedArrayBuffer":    "SharedArrayBufferConstructor",
		"String":               "StringConstructor",
		"Promise":              "PromiseConstructor",
		"Map":                  "MapConstructor",
		"Set":                  "SetConstructor",
		"WeakRef":              "WeakRefConstructor",
		"FinalizationRegistry": "FinalizationRegistryConstructor",
		"Error":                "ErrorConstructor",
		"AggregateError":       "AggregateErrorConstructor",
	})
})
