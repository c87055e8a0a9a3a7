package parser

import (
	"time"
)

// File holds the syntax facts extracted from a single source file.
type File struct {
	Path        string
	Language    string
	FromImports []FromImport
	Calls       []Call
	ParsedAt    time.Time
}

// FromImport is one name bound by a from-style import statement, e.g.
// Python "from pkg.mod import name as alias" or an ES named import
// "import {name as alias} from 'pkg/mod'". A statement binding several
// names yields one FromImport per name. Wildcard imports and bare
// module imports bind no per-name identifier and yield nothing.
type FromImport struct {
	Module     string // module path as written, relative dots stripped
	Name       string // exported name as written in the source module
	Alias      string // optional local rename
	IsRelative bool   // statement used a relative module path
	Location   Location
}

// LocalName is the identifier the import binds into file scope.
func (fi FromImport) LocalName() string {
	if fi.Alias != "" {
		return fi.Alias
	}
	return fi.Name
}

// QualifiedName identifies the imported name independent of any alias.
func (fi FromImport) QualifiedName() string {
	return fi.Module + "." + fi.Name
}

// Call is a call expression whose callee is a bare identifier.
// Attribute and computed callees (obj.fn(), table[k]()) are not
// recorded at all.
type Call struct {
	Callee   string
	Location Location
}

type Location struct {
	File   string
	Line   int
	Column int
}
