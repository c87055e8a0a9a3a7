package parser

import (
	"testing"
)

func TestLanguageForPath(t *testing.T) {
	gl := NewGrammarLoader()

	cases := map[string]string{
		"pkg/mod.py":    "python",
		"PKG/MOD.PY":    "python",
		"src/app.jsx":   "javascript",
		"src/app.cjs":   "javascript",
		"src/index.ts":  "typescript",
		"src/index.tsx": "tsx",
		"README.md":     "",
		"Makefile":      "",
	}
	for path, want := range cases {
		if got := gl.LanguageForPath(path); got != want {
			t.Errorf("LanguageForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestSupportedExtensions(t *testing.T) {
	gl := NewGrammarLoader()

	extensions := gl.SupportedExtensions()
	seen := make(map[string]bool)
	for _, ext := range extensions {
		seen[ext] = true
	}
	for _, ext := range []string{".py", ".js", ".ts", ".tsx"} {
		if !seen[ext] {
			t.Errorf("expected %s in supported extensions %v", ext, extensions)
		}
	}
}

func TestIsTestFile(t *testing.T) {
	cases := map[string]bool{
		"pkg/test_api.py":     true,
		"pkg/api_test.py":     true,
		"pkg/conftest.py":     true,
		"src/app.test.js":     true,
		"src/app.spec.tsx":    true,
		"pkg/api.py":          false,
		"tests/helper.py":     false,
		"src/contest.py":      false,
		"src/latest_spec.txt": false,
	}
	for path, want := range cases {
		if got := IsTestFile(path); got != want {
			t.Errorf("IsTestFile(%q) = %v, want %v", path, got, want)
		}
	}
}
