package parser

import (
	"testing"
)

func TestPythonFromImports(t *testing.T) {
	p := New()

	code := `
import os
import sys as system
from acme.mod import foo
from acme.mod import bar as b
from auth.utils import login as auth_login, logout
from ..parent import helper
from . import sibling
from acme.everything import *

def run(x):
    foo()
    b(x)
    os.path.join(x, "y")
`
	file, err := p.ParseFile("svc.py", []byte(code))
	if err != nil {
		t.Fatal(err)
	}

	if file.Language != "python" {
		t.Errorf("expected python, got %s", file.Language)
	}

	// Bare imports and the wildcard bind nothing; six names remain.
	if len(file.FromImports) != 6 {
		t.Errorf("expected 6 bindings, got %d", len(file.FromImports))
		for i, fi := range file.FromImports {
			t.Logf("binding %d: %s -> %s (alias %q)", i, fi.Module, fi.Name, fi.Alias)
		}
	}

	want := map[string]FromImport{
		"acme.mod.foo":      {Module: "acme.mod", Name: "foo"},
		"acme.mod.bar":      {Module: "acme.mod", Name: "bar", Alias: "b"},
		"auth.utils.login":  {Module: "auth.utils", Name: "login", Alias: "auth_login"},
		"auth.utils.logout": {Module: "auth.utils", Name: "logout"},
		"parent.helper":     {Module: "parent", Name: "helper", IsRelative: true},
		".sibling":          {Module: "", Name: "sibling", IsRelative: true},
	}
	for _, fi := range file.FromImports {
		exp, ok := want[fi.QualifiedName()]
		if !ok {
			t.Errorf("unexpected binding %s", fi.QualifiedName())
			continue
		}
		if fi.Module != exp.Module || fi.Name != exp.Name || fi.Alias != exp.Alias || fi.IsRelative != exp.IsRelative {
			t.Errorf("binding %s = %+v, want %+v", fi.QualifiedName(), fi, exp)
		}
		delete(want, fi.QualifiedName())
	}
	for key := range want {
		t.Errorf("missing binding %s", key)
	}
}

func TestPythonLocalName(t *testing.T) {
	plain := FromImport{Module: "acme.mod", Name: "foo"}
	if plain.LocalName() != "foo" {
		t.Errorf("expected foo, got %s", plain.LocalName())
	}

	aliased := FromImport{Module: "acme.mod", Name: "foo", Alias: "f"}
	if aliased.LocalName() != "f" {
		t.Errorf("expected f, got %s", aliased.LocalName())
	}
	if aliased.QualifiedName() != "acme.mod.foo" {
		t.Errorf("expected acme.mod.foo, got %s", aliased.QualifiedName())
	}
}

func TestPythonCallExtraction(t *testing.T) {
	p := New()

	code := `
from m import f, g as h

@f
def deco():
    pass

def outer():
    def inner():
        return h(f(1))
    items = [f(i) for i in range(3)]
    obj.method()
    (lambda: f())()
    return inner
`
	file, err := p.ParseFile("calls.py", []byte(code))
	if err != nil {
		t.Fatal(err)
	}

	counts := make(map[string]int)
	for _, call := range file.Calls {
		counts[call.Callee]++
	}

	if counts["f"] != 3 {
		t.Errorf("expected 3 calls to f, got %d", counts["f"])
	}
	if counts["h"] != 1 {
		t.Errorf("expected 1 call to h, got %d", counts["h"])
	}
	if counts["range"] != 1 {
		t.Errorf("expected 1 call to range, got %d", counts["range"])
	}
	// Attribute callees are never recorded, not even by their last segment.
	if counts["method"] != 0 {
		t.Errorf("attribute call leaked into calls: %v", counts)
	}
	if counts["obj.method"] != 0 {
		t.Errorf("attribute call recorded verbatim: %v", counts)
	}
}

func TestPythonDecoratorCall(t *testing.T) {
	p := New()

	code := `
from flask_like import route

@route("/index")
def index():
    return "ok"
`
	file, err := p.ParseFile("app.py", []byte(code))
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, call := range file.Calls {
		if call.Callee == "route" {
			found = true
			if call.Location.Line != 4 {
				t.Errorf("expected decorator call on line 4, got %d", call.Location.Line)
			}
		}
	}
	if !found {
		t.Error("decorator call not extracted")
	}
}

func TestPythonParenthesizedImportList(t *testing.T) {
	p := New()

	code := `
from acme.mod import (
    alpha,
    beta as b,
)
`
	file, err := p.ParseFile("multi.py", []byte(code))
	if err != nil {
		t.Fatal(err)
	}

	if len(file.FromImports) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(file.FromImports))
	}
	if file.FromImports[0].Name != "alpha" || file.FromImports[1].Alias != "b" {
		t.Errorf("unexpected bindings: %+v", file.FromImports)
	}
}

func TestPythonNoBindingsFromBareImports(t *testing.T) {
	p := New()

	code := `
import os
import a.b.c
from acme.mod import *
`
	file, err := p.ParseFile("bare.py", []byte(code))
	if err != nil {
		t.Fatal(err)
	}

	if len(file.FromImports) != 0 {
		t.Errorf("expected no bindings, got %+v", file.FromImports)
	}
}
