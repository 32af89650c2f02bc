package classify

import (
	"fmt"
	"strings"

	"github.com/go-cribo/cribo/internal/fsys"
)

// Default is the classifier cribo-go ships: it resolves dotted names
// against a set of first-party source roots, recognizes a fixed table of
// standard-library modules, and otherwise assumes third-party. Prefix
// hints loaded from .cribo.yml (spec §6.4) override both checks.
type Default struct {
	fs    fsys.FileSystem
	roots []string // absolute-ish source roots, first match wins

	firstPartyPrefixes []string
	thirdPartyPrefixes []string
}

// NewDefault creates a classifier over the given source roots.
func NewDefault(fs fsys.FileSystem, roots []string) *Default {
	return &Default{fs: fs, roots: append([]string(nil), roots...)}
}

// AddFirstPartyHint declares dottedPrefix (and any submodule of it) as
// first-party even if it can't be resolved under a source root yet.
func (d *Default) AddFirstPartyHint(dottedPrefix string) {
	d.firstPartyPrefixes = append(d.firstPartyPrefixes, dottedPrefix)
}

// AddThirdPartyHint declares dottedPrefix as third-party, overriding any
// source-root match (used to exclude a vendored first-party-looking tree).
func (d *Default) AddThirdPartyHint(dottedPrefix string) {
	d.thirdPartyPrefixes = append(d.thirdPartyPrefixes, dottedPrefix)
}

func hasPrefix(dotted string, prefixes []string) bool {
	for _, p := range prefixes {
		if dotted == p || strings.HasPrefix(dotted, p+".") {
			return true
		}
	}
	return false
}

// Classify implements Classifier.
func (d *Default) Classify(dottedName, referringPath string) Classification {
	if hasPrefix(dottedName, d.thirdPartyPrefixes) {
		return Classification{Kind: ThirdParty}
	}

	if path, ok := d.resolveUnderRoots(dottedName); ok {
		return Classification{Kind: FirstParty, Path: path}
	}

	if hasPrefix(dottedName, d.firstPartyPrefixes) {
		return Classification{Kind: Unresolved}
	}

	if isStdlib(dottedName) {
		return Classification{Kind: Stdlib}
	}

	return Classification{Kind: ThirdParty}
}

// resolveUnderRoots tries every declared root for dottedName.py or
// dottedName/__init__.py, first match wins.
func (d *Default) resolveUnderRoots(dottedName string) (string, bool) {
	rel := strings.ReplaceAll(dottedName, ".", "/")
	for _, root := range d.roots {
		modPath := joinPath(root, rel+".py")
		if d.fs.Exists(modPath) {
			return modPath, true
		}
		pkgPath := joinPath(root, rel, "__init__.py")
		if d.fs.Exists(pkgPath) {
			return pkgPath, true
		}
	}
	return "", false
}

func joinPath(parts ...string) string {
	return strings.Join(parts, "/")
}

// pathToDotted computes the dotted module name of path relative to
// whichever declared root contains it.
func (d *Default) pathToDotted(path string) (string, bool) {
	for _, root := range d.roots {
		prefix := strings.TrimSuffix(root, "/") + "/"
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rel := strings.TrimPrefix(path, prefix)
		rel = strings.TrimSuffix(rel, ".py")
		rel = strings.TrimSuffix(rel, "/__init__")
		return strings.ReplaceAll(rel, "/", "."), true
	}
	return "", false
}

// ResolveRelative implements Classifier.
func (d *Default) ResolveRelative(fromPath string, level int, name string) (string, error) {
	if level <= 0 {
		return name, nil
	}

	dotted, ok := d.pathToDotted(fromPath)
	if !ok {
		return "", fmt.Errorf("classify: cannot resolve relative import: %s is not under any declared source root", fromPath)
	}

	parts := strings.Split(dotted, ".")
	isPackageInit := strings.HasSuffix(fromPath, "__init__.py")

	// A level-1 relative import in a regular module resolves against its
	// own containing package; in an __init__ module it resolves against
	// itself (level 1 == the package it defines).
	upCount := level - 1
	if !isPackageInit {
		upCount = level
	}

	if upCount > len(parts) {
		return "", fmt.Errorf("classify: relative import climbs above source root from %s (level %d)", fromPath, level)
	}

	base := parts[:len(parts)-upCount]
	if name != "" {
		base = append(base, name)
	}
	return strings.Join(base, "."), nil
}

// ExportsOf implements Classifier with a lightweight textual scan for a
// top-level `__all__ = [...]` assignment. Callers that already hold a
// scanned Module should prefer Module.Exports(); this exists to satisfy
// the external-collaborator contract of spec §6.3 for cases (e.g. `from M
// import *` where M has not yet been scanned) where only a path is known.
func (d *Default) ExportsOf(firstPartyModulePath string) ([]string, error) {
	data, err := d.fs.Read(firstPartyModulePath)
	if err != nil {
		return nil, err
	}
	return extractAllLiteral(string(data)), nil
}

func extractAllLiteral(src string) []string {
	idx := strings.Index(src, "__all__")
	if idx < 0 {
		return nil
	}
	rest := src[idx:]
	open := strings.IndexAny(rest, "[(")
	if open < 0 {
		return nil
	}
	closeCh := byte(']')
	if rest[open] == '(' {
		closeCh = ')'
	}
	end := strings.IndexByte(rest[open:], closeCh)
	if end < 0 {
		return nil
	}
	body := rest[open+1 : open+end]

	var names []string
	for _, tok := range strings.Split(body, ",") {
		tok = strings.TrimSpace(tok)
		tok = strings.Trim(tok, "'\"")
		if tok != "" {
			names = append(names, tok)
		}
	}
	return names
}
