// Package symbols implements the Symbol Registry (spec §4.5): deterministic
// final-name assignment across every module chosen for inlining.
package symbols

import (
	"sort"
	"strings"

	"github.com/go-cribo/cribo/pkg/types"
)

// WarnFunc receives a non-fatal note, mirroring the diagnostics bag's New
// call without creating an import cycle between symbols and diag.
type WarnFunc func(moduleID types.ModuleId, detail string)

// Build assigns final names for every module-level symbol across modules
// (already restricted by the caller to the inline-strategy subset), in
// insertion order of modules then of each module's own definitions.
//
// Names bound by a first-party from-import are not symbols of their own:
// they resolve to the source module's definition and share its final name
// (spec §4.5 point 4, generalized to non-exported aliases so that every
// reference through an elided import still lands on the right top-level
// name). Among genuinely colliding definitions, the first module in
// iteration order keeps the original name and later ones take a
// stable_suffix.
func Build(modules []*types.Module, warn WarnFunc) *types.SymbolTable {
	if warn == nil {
		warn = func(types.ModuleId, string) {}
	}

	redirects := collectReexportRedirects(modules, warn)
	redirected := map[types.SymbolKey]bool{}
	for _, r := range redirects {
		redirected[types.SymbolKey{Module: r.Module, Original: r.Alias}] = true
	}

	table := types.NewSymbolTable()
	owners := map[string][]types.SymbolKey{} // original name -> owning keys, insertion order
	var orderedNames []string
	seenName := map[string]bool{}

	for _, m := range modules {
		for _, name := range orderedModuleLevelNames(m) {
			key := types.SymbolKey{Module: m.ID, Original: name}
			if redirected[key] {
				continue
			}
			if !seenName[name] {
				seenName[name] = true
				orderedNames = append(orderedNames, name)
			}
			owners[name] = append(owners[name], key)
		}
	}

	assigned := map[types.SymbolKey]string{}
	taken := map[string]bool{}

	for _, name := range orderedNames {
		keys := owners[name]
		for i, key := range keys {
			var final string
			if i == 0 {
				final = disambiguateReserved(name, taken)
			} else {
				module := moduleByID(modules, key.Module)
				final = assignCollidingName(name, module, taken)
			}
			assigned[key] = final
			taken[final] = true
		}
	}

	for _, m := range modules {
		for _, name := range orderedModuleLevelNames(m) {
			key := types.SymbolKey{Module: m.ID, Original: name}
			if redirected[key] {
				continue
			}
			table.Set(key, assigned[key])
		}
	}

	// Re-export collapse (spec §4.5 point 4): both (A,X) and (B,X) map to
	// B's final name. Chains (A re-exports from B, which re-exports from C)
	// resolve over multiple passes until no redirect makes progress.
	pending := append([]reexportRedirect(nil), redirects...)
	for pass := 0; pass < len(redirects)+1 && len(pending) > 0; pass++ {
		var next []reexportRedirect
		for _, r := range pending {
			sourceFinal, ok := table.Lookup(r.SourceModule, r.SourceName)
			if !ok {
				next = append(next, r)
				continue
			}
			table.Set(types.SymbolKey{Module: r.Module, Original: r.Alias}, sourceFinal)
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}

	return table
}

func moduleByID(modules []*types.Module, id types.ModuleId) *types.Module {
	for _, m := range modules {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// orderedModuleLevelNames returns module's module-level defined names in
// first-definition order, matching the scanner's item order.
func orderedModuleLevelNames(m *types.Module) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range m.Items {
		if len(item.Scope) != 0 || item.Moved {
			continue
		}
		var batch []string
		for name := range item.Defines {
			if !seen[name] {
				seen[name] = true
				batch = append(batch, name)
			}
		}
		sort.Strings(batch)
		out = append(out, batch...)
	}
	return out
}

func disambiguateReserved(name string, taken map[string]bool) string {
	if !isReserved(name) && !taken[name] {
		return name
	}
	n := 2
	candidate := name + "_" + itoa(n)
	for taken[candidate] {
		n++
		candidate = name + "_" + itoa(n)
	}
	return candidate
}

// assignCollidingName computes the shortest stable_suffix(module) variant
// of name that is not yet taken, ties broken lexicographically by trying
// increasing suffix depths in order (spec §4.5 point 2), then applies the
// reserved-name numeric-suffix fallback (point 3).
func assignCollidingName(name string, module *types.Module, taken map[string]bool) string {
	max := segmentCount(module.DottedName)
	for depth := 1; depth <= max; depth++ {
		suffix := stableSuffix(module.DottedName, depth)
		candidate := name + "_" + suffix
		if !taken[candidate] && !isReserved(candidate) {
			return candidate
		}
	}
	// Degenerate: even the fully-qualified suffix collides (two modules
	// with the same dotted name, which the scanner's discovery layer
	// should prevent); fall back to a numeric suffix.
	base := name + "_" + stableSuffix(module.DottedName, max)
	n := 2
	candidate := base
	for taken[candidate] {
		candidate = base + "_" + itoa(n)
		n++
	}
	return candidate
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

// reexportRedirect captures an "(A, alias) resolves to B's final name for
// original" relationship.
type reexportRedirect struct {
	Module       types.ModuleId // A
	Alias        string         // name visible in A
	SourceModule types.ModuleId // B
	SourceName   string         // original name in B
}

// collectReexportRedirects finds, for every module, every module-scope
// from-import of another inlined module whose bound name survives unchanged
// (spec §4.5 point 4), skipping names later rebound to a different value
// (the "X = X + 1" corner case), which is logged as a non-fatal warning and
// left as a fresh definition instead of a redirect.
func collectReexportRedirects(modules []*types.Module, warn WarnFunc) []reexportRedirect {
	byName := map[string]*types.Module{}
	for _, m := range modules {
		byName[m.DottedName] = m
	}

	var out []reexportRedirect
	for _, m := range modules {
		for _, item := range m.Items {
			if len(item.Scope) != 0 || item.Moved || item.Kind != types.ItemFromImport {
				continue
			}
			for _, imp := range item.Imports {
				if imp.OriginalName == "*" {
					continue
				}
				source := resolveImportModule(byName, m, imp)
				if source == nil || source.ID == m.ID {
					continue
				}
				if rebindChangesValue(m, item, imp.Alias) {
					warn(m.ID, "re-exported name '"+imp.Alias+"' is rebound after import; treating as a fresh definition")
					continue
				}
				out = append(out, reexportRedirect{
					Module:       m.ID,
					Alias:        imp.Alias,
					SourceModule: source.ID,
					SourceName:   imp.OriginalName,
				})
			}
		}
	}
	return out
}

// resolveImportModule looks up the first-party module an import clause
// refers to by dotted name. Only symbol imports redirect: a from-import
// whose imported name is itself a submodule ("from pkg import sub") binds
// a namespace object, handled by the emitter, not the registry.
func resolveImportModule(byName map[string]*types.Module, referrer *types.Module, imp *types.ImportInfo) *types.Module {
	if imp.Level != 0 {
		return nil
	}
	if _, isSubmodule := byName[imp.Module+"."+imp.OriginalName]; isSubmodule {
		return nil
	}
	return byName[imp.Module]
}

// rebindChangesValue reports whether, after the from-import item, some
// later module-level assignment rebinds alias to something other than a
// bare self-reference.
func rebindChangesValue(m *types.Module, importItem *types.Item, alias string) bool {
	for _, item := range m.Items {
		if len(item.Scope) != 0 || item.StartByte <= importItem.StartByte {
			continue
		}
		if item.Kind != types.ItemAssign || !item.Defines[alias] {
			continue
		}
		text := strings.TrimSpace(string(m.Source[item.StartByte:item.EndByte]))
		if text == alias+" = "+alias {
			continue
		}
		return true
	}
	return false
}
