// Package discovery finds first-party Python source files under a set of
// declared roots, adapted from the teacher's source-tree walker: same
// skip-dir list and .gitignore handling, retargeted from multi-language
// classification to Python-only module discovery feeding the scanner.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// skipDirs lists directory names the walker never descends into, carried
// over from the teacher's walker.go verbatim -- these are conventionally
// non-source regardless of language.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	".venv":        true,
	"venv":         true,
	"env":          true,
	".mypy_cache":  true,
	".pytest_cache": true,
}

// SourceFile is one discovered `.py` file under a declared root.
type SourceFile struct {
	Path       string // absolute or root-relative path, as given by the caller's root
	Root       string // the declared root it was found under
	DottedName string // dotted module name relative to Root
	IsPackage  bool   // true when Path is a package's __init__.py
}

// Walker discovers `.py` files under one or more declared source roots.
type Walker struct{}

// NewWalker creates a Walker.
func NewWalker() *Walker { return &Walker{} }

// Discover walks every root and returns every `.py` file found, in
// deterministic (root order, then lexicographic path) order.
func (w *Walker) Discover(roots []string) ([]SourceFile, error) {
	var out []SourceFile
	for _, root := range roots {
		files, err := w.discoverRoot(root)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

func (w *Walker) discoverRoot(root string) ([]SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var gitIgnore *ignore.GitIgnore
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		gitIgnore, err = ignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse .gitignore: %w", err)
		}
	}

	var files []SourceFile
	err = filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if fi.IsDir() {
			if rel != "." && (skipDirs[fi.Name()] || strings.HasPrefix(fi.Name(), ".")) {
				return filepath.SkipDir
			}
			if gitIgnore != nil && rel != "." && gitIgnore.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != ".py" {
			return nil
		}
		if gitIgnore != nil && gitIgnore.MatchesPath(rel) {
			return nil
		}

		files = append(files, SourceFile{
			Path:       path,
			Root:       root,
			DottedName: dottedNameFor(rel),
			IsPackage:  filepath.Base(path) == "__init__.py",
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk error: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// dottedNameFor converts a root-relative file path into its dotted module
// name, e.g. "pkg/sub/mod.py" -> "pkg.sub.mod", "pkg/__init__.py" -> "pkg".
func dottedNameFor(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, ".py")
	if strings.HasSuffix(rel, "/__init__") {
		rel = strings.TrimSuffix(rel, "/__init__")
	} else if rel == "__init__" {
		rel = ""
	}
	return strings.ReplaceAll(rel, "/", ".")
}
