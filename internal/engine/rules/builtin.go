package rules

import (
	"sync"

	"baseline/internal/engine/availability"
	"baseline/internal/engine/detector"
)

const mdn = "https://developer.mozilla.org/docs/Web/JavaScript/Reference/Global_Objects/"

func target(name string) detector.Target {
	return detector.Target{Global: name, Instance: name, Constructor: name + "Constructor"}
}

type feature struct {
	concern string
	ids     []string
	docs    string
	spec    string
	newly   string
	widely  string
}

func (f feature) descriptor() *availability.FeatureDescriptor {
	opts := availability.DescriptorOptions{
		Concern:    f.concern,
		FeatureIDs: f.ids,
		Docs:       availability.Docs{Primary: f.docs, Spec: f.spec},
	}
	if f.newly != "" {
		opts.NewlyDate = availability.MustParseDate(f.newly)
	}
	if f.widely != "" {
		opts.WidelyDate = availability.MustParseDate(f.widely)
	}
	return availability.MustFeatureDescriptor(opts)
}

func builtin(id string, f feature, t detector.Target, specs ...detector.Spec) Rule {
	return Rule{ID: id, Descriptor: f.descriptor(), Target: t, Specs: specs, Builtin: true}
}

var (
	arrayAt = feature{
		concern: "Array.prototype.at()",
		ids:     []string{"array-at"},
		docs:    mdn + "Array/at",
		spec:    "https://tc39.es/ecma262/#sec-array.prototype.at",
		newly:   "2022-03-14",
		widely:  "2024-09-14",
	}
	stringAt = feature{
		concern: "String.prototype.at()",
		ids:     []string{"array-at"},
		docs:    mdn + "String/at",
		spec:    "https://tc39.es/ecma262/#sec-string.prototype.at",
		newly:   "2022-03-14",
		widely:  "2024-09-14",
	}
	findLast = feature{
		concern: "Array.prototype.findLast()",
		ids:     []string{"array-findlast"},
		docs:    mdn + "Array/findLast",
		newly:   "2022-08-23",
		widely:  "2025-02-23",
	}
	byCopy = feature{
		concern: "Array by copy",
		ids:     []string{"array-by-copy"},
		docs:    mdn + "Array/toSorted",
		newly:   "2023-07-04",
		widely:  "2026-01-04",
	}
	fromAsync = feature{
		concern: "Array.fromAsync()",
		ids:     []string{"array-fromasync"},
		docs:    mdn + "Array/fromAsync",
		newly:   "2024-01-25",
		widely:  "2026-07-25",
	}
	hasOwn = feature{
		concern: "Object.hasOwn()",
		ids:     []string{"object-hasown"},
		docs:    mdn + "Object/hasOwn",
		newly:   "2021-12-13",
		widely:  "2024-06-13",
	}
	arrayGroup = feature{
		concern: "Array grouping",
		ids:     []string{"array-group"},
		docs:    mdn + "Object/groupBy",
		newly:   "2024-03-05",
		widely:  "2026-09-05",
	}
	replaceAll = feature{
		concern: "String.prototype.replaceAll()",
		ids:     []string{"string-replaceall"},
		docs:    mdn + "String/replaceAll",
		newly:   "2020-08-27",
		widely:  "2023-02-27",
	}
	promiseAny = feature{
		concern: "Promise.any()",
		ids:     []string{"promise-any"},
		docs:    mdn + "Promise/any",
		newly:   "2020-09-16",
		widely:  "2023-03-16",
	}
	withResolvers = feature{
		concern: "Promise.withResolvers()",
		ids:     []string{"promise-withresolvers"},
		docs:    mdn + "Promise/withResolvers",
		newly:   "2024-03-05",
		widely:  "2026-09-05",
	}
	promiseTry = feature{
		concern: "Promise.try()",
		ids:     []string{"promise-try"},
		docs:    mdn + "Promise/try",
		newly:   "2025-01-07",
	}
	resizable = feature{
		concern: "Resizable ArrayBuffer",
		ids:     []string{"resizable-buffers"},
		docs:    mdn + "ArrayBuffer/resize",
		newly:   "2024-07-09",
		widely:  "2027-01-09",
	}
	weakRefs = feature{
		concern: "WeakRef",
		ids:     []string{"weak-references"},
		docs:    mdn + "WeakRef",
		newly:   "2021-04-26",
		widely:  "2023-10-26",
	}
	errorCause = feature{
		concern: "Error cause",
		ids:     []string{"error-cause"},
		docs:    mdn + "Error/cause",
		newly:   "2021-09-20",
		widely:  "2024-03-20",
	}
	aggregateError = feature{
		concern: "AggregateError",
		ids:     []string{"promise-any"},
		docs:    mdn + "AggregateError",
		newly:   "2020-09-16",
		widely:  "2023-03-16",
	}
)

// Builtin returns the built-in rules. The slice is shared; callers must not
// modify it.
var Builtin = sync.OnceValue(func() []Rule {
	array := target("Array")
	str := target("String")
	object := target("Object")
	promise := target("Promise")
	buffer := target("ArrayBuffer")
	mapT := target("Map")

	return []Rule{
		builtin("array-at", arrayAt, array, detector.InstanceMember("at")),
		builtin("string-at", stringAt, str, detector.InstanceMember("at")),
		builtin("array-findlast", findLast, array,
			detector.InstanceMember("findLast"),
			detector.InstanceMember("findLastIndex")),
		builtin("array-by-copy", byCopy, array,
			detector.InstanceMember("toReversed"),
			detector.InstanceMember("toSorted"),
			detector.InstanceMember("toSpliced"),
			detector.InstanceMember("with")),
		builtin("array-fromasync", fromAsync, array, detector.StaticMember("fromAsync")),
		builtin("object-hasown", hasOwn, object, detector.StaticMember("hasOwn")),
		builtin("object-groupby", arrayGroup, object, detector.StaticMember("groupBy")),
		builtin("map-groupby", arrayGroup, mapT, detector.StaticMember("groupBy")),
		builtin("string-replaceall", replaceAll, str, detector.InstanceMember("replaceAll")),
		builtin("promise-any", promiseAny, promise, detector.StaticMember("any")),
		builtin("promise-withresolvers", withResolvers, promise, detector.StaticMember("withResolvers")),
		builtin("promise-try", promiseTry, promise, detector.StaticMember("try")),
		builtin("arraybuffer-resizable", resizable, buffer,
			detector.ArgumentHasProperty(detector.ConstructorUsage(false), 1, "maxByteLength"),
			detector.InstanceMember("resize"),
			detector.InstanceMember("resizable")),
		builtin("weakref", weakRefs, target("WeakRef"), detector.ConstructorUsage(false)),
		builtin("finalization-registry", weakRefs, target("FinalizationRegistry"), detector.ConstructorUsage(false)),
		builtin("error-cause", errorCause, target("Error"),
			detector.ArgumentHasProperty(detector.ConstructorUsage(true), 1, "cause")),
		builtin("aggregate-error", aggregateError, target("AggregateError"), detector.ConstructorUsage(true)),
	}
})

// BuiltinCatalog returns the built-in rules as a catalog.
func BuiltinCatalog() *Catalog {
	c, err := NewCatalog(Builtin()...)
	if err != nil {
		panic(err)
	}
	return c
}
