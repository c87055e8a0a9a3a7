package parser

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// LanguageSpec describes one supported dialect: the file extensions it
// claims and the basename patterns that mark its test files.
type LanguageSpec struct {
	ID               string
	Extensions       []string
	TestFilePatterns []string
}

// BuildLanguageRegistry returns the built-in language registry.
// Extensions are lowercase and include the leading dot.
func BuildLanguageRegistry() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		"python": {
			ID:               "python",
			Extensions:       []string{".py"},
			TestFilePatterns: []string{"test_*.py", "*_test.py", "conftest.py"},
		},
		"javascript": {
			ID:               "javascript",
			Extensions:       []string{".js", ".mjs", ".cjs", ".jsx"},
			TestFilePatterns: []string{"*.test.js", "*.spec.js", "*.test.jsx", "*.spec.jsx", "*.test.mjs", "*.spec.mjs"},
		},
		"typescript": {
			ID:               "typescript",
			Extensions:       []string{".ts", ".mts", ".cts"},
			TestFilePatterns: []string{"*.test.ts", "*.spec.ts"},
		},
		"tsx": {
			ID:               "tsx",
			Extensions:       []string{".tsx"},
			TestFilePatterns: []string{"*.test.tsx", "*.spec.tsx"},
		},
	}
}

var defaultRegistry = BuildLanguageRegistry()

// IsTestFile reports whether the basename of path matches any language's
// test file pattern.
func IsTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, spec := range defaultRegistry {
		for _, pattern := range spec.TestFilePatterns {
			if ok, _ := filepath.Match(pattern, base); ok {
				return true
			}
		}
	}
	return false
}

type GrammarLoader struct {
	languages map[string]*sitter.Language
	registry  map[string]LanguageSpec
	byExt     map[string]string
}

func NewGrammarLoader() *GrammarLoader {
	gl := &GrammarLoader{
		languages: make(map[string]*sitter.Language),
		registry:  BuildLanguageRegistry(),
		byExt:     make(map[string]string),
	}

	gl.languages["python"] = sitter.NewLanguage(tree_sitter_python.Language())
	gl.languages["javascript"] = sitter.NewLanguage(tree_sitter_javascript.Language())
	gl.languages["typescript"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	gl.languages["tsx"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())

	for id, spec := range gl.registry {
		for _, ext := range spec.Extensions {
			gl.byExt[strings.ToLower(ext)] = id
		}
	}
	return gl
}

func (gl *GrammarLoader) Language(id string) *sitter.Language {
	return gl.languages[id]
}

// LanguageForPath maps a file path to a language ID by extension, or ""
// when the extension is not claimed by any registered language.
func (gl *GrammarLoader) LanguageForPath(path string) string {
	return gl.byExt[strings.ToLower(filepath.Ext(path))]
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	extensions := make([]string, 0, len(gl.byExt))
	for ext := range gl.byExt {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
