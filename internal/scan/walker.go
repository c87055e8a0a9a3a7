package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	apperrors "musage/internal/errors"
	"musage/internal/parser"
)

// Walker selects the files one scan will process: everything under the
// root whose extension belongs to a registered language, minus excluded
// directories, excluded file patterns and (optionally) test files.
type Walker struct {
	extensions   map[string]bool
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	skipTests    bool
}

func NewWalker(extensions, excludeDirs, excludeFiles []string, skipTests bool) (*Walker, error) {
	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(excludeFiles))
	for _, p := range excludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	extFilter := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		extFilter[normalized] = true
	}

	return &Walker{
		extensions:   extFilter,
		excludeDirs:  dirGlobs,
		excludeFiles: fileGlobs,
		skipTests:    skipTests,
	}, nil
}

// ValidateRoot rejects scan roots that are not directories. This runs
// before any file is touched so a bad invocation never starts a scan.
func ValidateRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return apperrors.AddContext(
			apperrors.New(apperrors.CodeInvalidRoot, "given path is not a directory"),
			apperrors.CtxPath, root)
	}
	return nil
}

// Matches reports whether a single file path would be selected by this
// walker. Directory exclusions are not consulted here; they apply only
// while walking.
func (w *Walker) Matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if !w.extensions[ext] {
		return false
	}
	if w.skipTests && parser.IsTestFile(path) {
		return false
	}
	base := filepath.Base(path)
	for _, g := range w.excludeFiles {
		if g.Match(base) {
			return false
		}
	}
	return true
}

// FindFiles walks root depth-first and returns the matching file paths
// in sorted order, so job ordering is deterministic regardless of
// filesystem iteration order.
func (w *Walker) FindFiles(root string) ([]string, error) {
	if err := ValidateRoot(root); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			base := filepath.Base(path)
			for _, g := range w.excludeDirs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if w.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
