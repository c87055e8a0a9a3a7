package parser

import (
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// JavaScriptExtractor collects ES named-import bindings and direct
// calls. One instance serves a single dialect; the javascript,
// typescript and tsx grammars share the relevant node kinds.
//
// Default and namespace imports bind whole-module identifiers, the ES
// analogue of a bare "import x", and produce no bindings. Side-effect
// imports ("import './polyfill'") have no clause at all.
type JavaScriptExtractor struct {
	language string
	engine   *ExtractorEngine
}

func NewJavaScriptExtractor(language string) *JavaScriptExtractor {
	e := &JavaScriptExtractor{language: language}
	e.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_statement": e.handleImport,
		"call_expression":  e.handleCall,
	})
	return e
}

func (e *JavaScriptExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:     filePath,
		Language: e.language,
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	e.engine.Walk(ctx, root)

	return file, nil
}

func (e *JavaScriptExtractor) handleImport(ctx *ExtractionContext, node *sitter.Node) {
	source := node.ChildByFieldName("source")
	if source == nil {
		return
	}
	module := stripQuotes(ctx.Text(source))
	if module == "" {
		return
	}
	e.collectSpecifiers(ctx, node, module)
}

func (e *JavaScriptExtractor) collectSpecifiers(ctx *ExtractionContext, node *sitter.Node, module string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import_clause", "named_imports":
			e.collectSpecifiers(ctx, child, module)
		case "import_specifier":
			name := child.ChildByFieldName("name")
			if name == nil {
				continue
			}
			ctx.File.FromImports = append(ctx.File.FromImports, FromImport{
				Module: module,
				// `import {"a-b" as ab}` carries a string name node.
				Name:     stripQuotes(ctx.Text(name)),
				Alias:    ctx.Text(child.ChildByFieldName("alias")),
				Location: ctx.Location(child),
			})
		}
	}
}

func (e *JavaScriptExtractor) handleCall(ctx *ExtractionContext, node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return
	}
	ctx.File.Calls = append(ctx.File.Calls, Call{
		Callee:   ctx.Text(fn),
		Location: ctx.Location(fn),
	})
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
