// # internal/engine/parser/parser.go
package parser

import (
	"baseline/internal/core/errors"
	"baseline/internal/engine/jsast"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// File is one parsed source file.
type File struct {
	Path     string
	Language string
	Program  *jsast.Program
	// SyntaxErrors lists the ERROR and MISSING nodes the grammar recovered
	// from. The Program still covers the rest of the file.
	SyntaxErrors []SyntaxError
	ParsedAt     time.Time
}

type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

type Parser struct {
	loader     *GrammarLoader
	extensions map[string]string
	typed      map[string]bool
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		extensions: make(map[string]string),
		typed:      make(map[string]bool),
	}
	for lang, spec := range loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			p.extensions[strings.ToLower(ext)] = lang
		}
		p.typed[lang] = spec.TypeScript
	}
	return p
}

// ParseFile parses content as the language selected by the path extension
// and converts the tree. Syntax errors are logged and do not fail the parse.
func (p *Parser) ParseFile(path string, content []byte) (*File, error) {
	lang := p.GetLanguage(path)
	if lang == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported language"), errors.CtxPath, path)
	}
	pool := p.loader.Pool(lang)
	if pool == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParse, "parse failed"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	file := &File{
		Path:     path,
		Language: lang,
		Program:  Convert(root, content, path),
		ParsedAt: time.Now(),
	}
	if root.HasError() {
		file.SyntaxErrors = collectSyntaxErrors(root)
		first := file.SyntaxErrors[0]
		slog.Warn("syntax errors, continuing on recovered tree",
			"path", path,
			"count", len(file.SyntaxErrors),
			"line", first.Line,
			"column", first.Column)
	}
	return file, nil
}

func collectSyntaxErrors(root *sitter.Node) []SyntaxError {
	var out []SyntaxError
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || !n.HasError() && !n.IsMissing() {
			return
		}
		pos := n.StartPosition()
		switch {
		case n.IsError():
			out = append(out, SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Message: "unexpected syntax"})
			return
		case n.IsMissing():
			out = append(out, SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Message: fmt.Sprintf("missing %s", n.Kind())})
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	if len(out) == 0 {
		pos := root.StartPosition()
		out = append(out, SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Message: "unexpected syntax"})
	}
	return out
}

func (p *Parser) IsSupportedPath(filePath string) bool {
	return p.GetLanguage(filePath) != ""
}

func (p *Parser) GetLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return p.extensions[ext]
}

// IsTyped reports whether files of lang carry TypeScript annotations.
func (p *Parser) IsTyped(lang string) bool {
	return p.typed[lang]
}

func (p *Parser) SupportedExtensions() []string {
	return p.loader.SupportedExtensions()
}
