package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Extractor turns a parsed syntax tree into per-file facts.
type Extractor interface {
	Extract(root *sitter.Node, source []byte, filePath string) (*File, error)
}

// Parser parses source files and extracts from-import bindings and
// direct calls. Safe for concurrent use: parser instances are pooled
// per language.
type Parser struct {
	loader     *GrammarLoader
	pools      map[string]*ParserPool
	extractors map[string]Extractor
}

func NewParser(loader *GrammarLoader) *Parser {
	return &Parser{
		loader:     loader,
		pools:      make(map[string]*ParserPool),
		extractors: make(map[string]Extractor),
	}
}

// New returns a parser with every built-in language registered.
func New() *Parser {
	p := NewParser(NewGrammarLoader())
	p.RegisterExtractor("python", NewPythonExtractor())
	p.RegisterExtractor("javascript", NewJavaScriptExtractor("javascript"))
	p.RegisterExtractor("typescript", NewJavaScriptExtractor("typescript"))
	p.RegisterExtractor("tsx", NewJavaScriptExtractor("tsx"))
	return p
}

func (p *Parser) RegisterExtractor(lang string, e Extractor) {
	p.extractors[lang] = e
	if grammar := p.loader.Language(lang); grammar != nil {
		p.pools[lang] = NewParserPool(grammar)
	}
}

func (p *Parser) SupportedExtensions() []string {
	return p.loader.SupportedExtensions()
}

// LanguageForPath exposes the loader's extension mapping.
func (p *Parser) LanguageForPath(path string) string {
	return p.loader.LanguageForPath(path)
}

// ParseFile parses content as the language inferred from the path
// extension. tree-sitter tolerates broken input by inserting error
// nodes; a root whose subtree contains any is reported as a parse
// failure rather than silently mined for partial facts.
func (p *Parser) ParseFile(path string, content []byte) (*File, error) {
	lang := p.loader.LanguageForPath(path)
	if lang == "" {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	pool := p.pools[lang]
	extractor := p.extractors[lang]
	if pool == nil || extractor == nil {
		return nil, fmt.Errorf("no extractor registered for %s", lang)
	}

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed: %s", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax error in %s", path)
	}

	return extractor.Extract(root, content, path)
}
