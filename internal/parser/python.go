package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonExtractor collects from-import bindings and direct calls.
//
// Bare "import x" statements and "from x import *" bind module objects
// or unknowable names, never a traceable per-name identifier, so they
// produce no bindings. Calls are recorded only when the callee is a
// plain identifier: obj.method() and friends are invisible here.
type PythonExtractor struct {
	engine *ExtractorEngine
}

func NewPythonExtractor() *PythonExtractor {
	e := &PythonExtractor{}
	e.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_from_statement": e.handleFromImport,
		"call":                  e.handleCall,
	})
	return e
}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:     filePath,
		Language: "python",
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	e.engine.Walk(ctx, root)

	return file, nil
}

func (e *PythonExtractor) handleFromImport(ctx *ExtractionContext, node *sitter.Node) {
	var module string
	isRelative := false

	if mod := node.ChildByFieldName("module_name"); mod != nil {
		switch mod.Kind() {
		case "relative_import":
			// "from ..pkg import x" keeps module "pkg";
			// "from . import x" has no module text at all.
			isRelative = true
			module = strings.TrimLeft(ctx.Text(mod), ".")
		case "dotted_name", "identifier":
			module = ctx.Text(mod)
		}
	}

	// Names follow the "import" keyword: plain dotted_name, aliased_import
	// or wildcard_import. Anything before it belongs to the module clause.
	seenImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		kind := child.Kind()
		if kind == "import" {
			seenImport = true
			continue
		}
		if !seenImport {
			continue
		}

		switch kind {
		case "dotted_name", "identifier":
			ctx.File.FromImports = append(ctx.File.FromImports, FromImport{
				Module:     module,
				Name:       ctx.Text(child),
				IsRelative: isRelative,
				Location:   ctx.Location(child),
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			if name == nil {
				continue
			}
			ctx.File.FromImports = append(ctx.File.FromImports, FromImport{
				Module:     module,
				Name:       ctx.Text(name),
				Alias:      ctx.Text(child.ChildByFieldName("alias")),
				IsRelative: isRelative,
				Location:   ctx.Location(child),
			})
		}
	}
}

func (e *PythonExtractor) handleCall(ctx *ExtractionContext, node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return
	}
	ctx.File.Calls = append(ctx.File.Calls, Call{
		Callee:   ctx.Text(fn),
		Location: ctx.Location(fn),
	})
}
