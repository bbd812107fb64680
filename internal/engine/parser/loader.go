// # internal/engine/parser/loader.go
package parser

import (
	"baseline/internal/core/errors"
	"baseline/internal/shared/util"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
)

// LanguageSpec describes one grammar and the files routed to it.
type LanguageSpec struct {
	Name       string
	Extensions []string
	Enabled    bool
	// TypeScript grammars carry type annotations into the tree.
	TypeScript bool
}

// LanguageOverride changes a built-in LanguageSpec from configuration.
type LanguageOverride struct {
	Enabled    *bool
	Extensions []string
}

func DefaultLanguageRegistry() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		LangJavaScript: {
			Name:       LangJavaScript,
			Extensions: []string{".js", ".mjs", ".cjs", ".jsx"},
			Enabled:    true,
		},
		LangTypeScript: {
			Name:       LangTypeScript,
			Extensions: []string{".ts", ".mts", ".cts"},
			Enabled:    true,
			TypeScript: true,
		},
		LangTSX: {
			Name:       LangTSX,
			Extensions: []string{".tsx"},
			Enabled:    true,
			TypeScript: true,
		},
	}
}

// BuildLanguageRegistry applies overrides to the default registry and
// rejects extensions claimed by two enabled languages.
func BuildLanguageRegistry(overrides map[string]LanguageOverride) (map[string]LanguageSpec, error) {
	registry := DefaultLanguageRegistry()
	for _, language := range util.SortedStringKeys(overrides) {
		override := overrides[language]
		spec, ok := registry[language]
		if !ok {
			return nil, errors.AddContext(
				errors.Configuration("languages", fmt.Sprintf("unknown language %q", language)),
				errors.CtxLanguage, language)
		}
		if override.Enabled != nil {
			spec.Enabled = *override.Enabled
		}
		if len(override.Extensions) > 0 {
			spec.Extensions = normalizeExtensions(override.Extensions)
		}
		registry[language] = spec
	}

	owner := make(map[string]string)
	for _, id := range util.SortedStringKeys(registry) {
		spec := registry[id]
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			if existing, ok := owner[ext]; ok {
				return nil, errors.Configuration("languages",
					fmt.Sprintf("duplicate extension %q owned by %q and %q", ext, existing, id))
			}
			owner[ext] = id
		}
	}
	return registry, nil
}

func normalizeExtensions(values []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(values))
	for _, value := range values {
		raw := strings.TrimSpace(strings.ToLower(value))
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, ".") {
			raw = "." + raw
		}
		if seen[raw] {
			continue
		}
		seen[raw] = true
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}

// GrammarLoader owns the compiled grammars of the enabled languages and one
// parser pool per grammar.
type GrammarLoader struct {
	languages map[string]*sitter.Language
	pools     map[string]*ParserPool
	registry  map[string]LanguageSpec
}

func NewGrammarLoader() (*GrammarLoader, error) {
	return NewGrammarLoaderWithRegistry(nil)
}

func NewGrammarLoaderWithRegistry(registry map[string]LanguageSpec) (*GrammarLoader, error) {
	if registry == nil {
		registry = DefaultLanguageRegistry()
	}
	gl := &GrammarLoader{
		languages: make(map[string]*sitter.Language),
		pools:     make(map[string]*ParserPool),
		registry:  registry,
	}
	for _, id := range util.SortedStringKeys(registry) {
		if !registry[id].Enabled {
			continue
		}
		var lang *sitter.Language
		switch id {
		case LangJavaScript:
			lang = sitter.NewLanguage(tree_sitter_javascript.Language())
		case LangTypeScript:
			lang = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		case LangTSX:
			lang = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		default:
			return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("no grammar for language: %s", id))
		}
		gl.languages[id] = lang
		gl.pools[id] = NewParserPool(lang)
	}
	return gl, nil
}

// Language returns the compiled grammar for id, or nil when it is disabled.
func (gl *GrammarLoader) Language(id string) *sitter.Language {
	return gl.languages[id]
}

// Pool returns the parser pool for id, or nil when it is disabled.
func (gl *GrammarLoader) Pool(id string) *ParserPool {
	return gl.pools[id]
}

func (gl *GrammarLoader) LanguageRegistry() map[string]LanguageSpec {
	out := make(map[string]LanguageSpec, len(gl.registry))
	for id, spec := range gl.registry {
		spec.Extensions = append([]string(nil), spec.Extensions...)
		out[id] = spec
	}
	return out
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	set := make(map[string]bool)
	for _, spec := range gl.registry {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			set[ext] = true
		}
	}
	return util.SortedStringKeys(set)
}
