package analysis

import (
	"log/slog"
	"strings"

	"musage/internal/parser"
)

// BoundaryMode controls how a module path is matched against the target
// module prefix.
type BoundaryMode string

const (
	// BoundaryPrefix is plain string-prefix matching: target "foo" also
	// claims "foobar". Loose, but it is the established behavior and
	// stays the default.
	BoundaryPrefix BoundaryMode = "prefix"
	// BoundaryDotted additionally requires the prefix to end on a path
	// segment, so "foo" claims "foo.bar" and "foo/bar" but not "foobar".
	BoundaryDotted BoundaryMode = "dotted"
)

func (m BoundaryMode) Valid() bool {
	return m == BoundaryPrefix || m == BoundaryDotted
}

// Matches reports whether module falls under the target prefix. Empty
// modules never match: "from . import x" has no module text to claim.
func (m BoundaryMode) Matches(module, target string) bool {
	if module == "" || target == "" {
		return false
	}
	if !strings.HasPrefix(module, target) {
		return false
	}
	if m == BoundaryDotted && len(module) > len(target) {
		next := module[len(target)]
		return next == '.' || next == '/'
	}
	return true
}

// AliasMap maps a locally bound identifier to the fully qualified name
// it stands for. An AliasMap is scoped to a single file and is never
// merged across files.
type AliasMap map[string]string

// Resolver filters a file's bindings by the target module and matches
// calls against the resulting alias map.
type Resolver struct {
	module   string
	boundary BoundaryMode
}

func NewResolver(module string, boundary BoundaryMode) *Resolver {
	if !boundary.Valid() {
		boundary = BoundaryPrefix
	}
	return &Resolver{module: module, boundary: boundary}
}

func (r *Resolver) Module() string { return r.module }

// BuildAliasMap folds the file's surviving bindings in source order.
// A later binding for the same local identifier overwrites the earlier
// one: only the final meaning counts, which matches how rebinding
// behaves at runtime. The overwrite is logged since it usually points
// at a confusing import block.
func (r *Resolver) BuildAliasMap(file *parser.File) AliasMap {
	aliases := make(AliasMap)
	for _, fi := range file.FromImports {
		if !r.boundary.Matches(fi.Module, r.module) {
			continue
		}
		local := fi.LocalName()
		qualified := fi.QualifiedName()
		if prev, ok := aliases[local]; ok && prev != qualified {
			slog.Warn("import rebinds identifier",
				"file", file.Path,
				"identifier", local,
				"previous", prev,
				"now", qualified,
				"line", fi.Location.Line)
		}
		aliases[local] = qualified
	}
	return aliases
}

// MatchCalls returns one fully qualified hit per call whose callee is
// bound in the alias map. Callees are matched as whole identifiers;
// shadowing by local definitions is intentionally not modeled.
func MatchCalls(file *parser.File, aliases AliasMap) []string {
	if len(aliases) == 0 {
		return nil
	}
	var hits []string
	for _, call := range file.Calls {
		if qualified, ok := aliases[call.Callee]; ok {
			hits = append(hits, qualified)
		}
	}
	return hits
}

// Analyze resolves and matches one parsed file. The alias map is fully
// built before any call is matched, so call/import order within the
// file does not change the outcome.
func (r *Resolver) Analyze(file *parser.File) []string {
	return MatchCalls(file, r.BuildAliasMap(file))
}
