// Package emit implements the Emitter (spec §4.6): it turns the ordered,
// cycle-resolved module set into one flat Python statement list.
package emit

import (
	"sort"
	"strings"

	"github.com/go-cribo/cribo/internal/classify"
	"github.com/go-cribo/cribo/internal/pyparse"
	"github.com/go-cribo/cribo/internal/pyprint"
	"github.com/go-cribo/cribo/internal/semantic"
	"github.com/go-cribo/cribo/pkg/types"
)

// Input bundles everything Emit needs for one bundling run.
type Input struct {
	Graph      *types.DependencyGraph
	Order      []types.ModuleId // condensation order, leaves first, entry last
	Entry      types.ModuleId
	Trees      map[types.ModuleId]*pyparse.Tree
	Table      *types.SymbolTable
	Analyses   map[types.ModuleId]*semantic.Analysis
	Namespaces map[types.ModuleId][]*types.Namespace // namespaces synthesized per referring module
	Classifier classify.Classifier

	// Resolve maps an import clause of referrer to the first-party module
	// it refers to, or nil for third-party/stdlib targets. Provided by the
	// orchestrator, which owns dotted-name resolution.
	Resolve func(referrer *types.Module, imp *types.ImportInfo) *types.Module
}

// Emit renders the final bundle source (spec §4.6.7: byte-deterministic
// given the same inputs, since Order, Table and Namespaces are themselves
// deterministic by construction in the earlier phases).
func Emit(in Input) []byte {
	DecideStrategies(in.Graph.Modules)
	if in.Resolve == nil {
		in.Resolve = func(*types.Module, *types.ImportInfo) *types.Module { return nil }
	}

	ordered := make([]*types.Module, 0, len(in.Order))
	for _, mid := range in.Order {
		ordered = append(ordered, in.Graph.Modules[mid])
	}

	p := pyprint.New()

	preserved, futures := CollectPreserved(ordered, in.Classifier)
	if header := RenderFutureImports(futures); header != "" {
		p.Text(header)
	}
	for _, imp := range preserved {
		p.Text(RenderPreservedImport(imp))
	}

	if bundleNeedsNamespaceHelper(in, ordered) {
		p.TextBlank(namespaceHelperDefinition)
	}

	for _, mid := range in.Order {
		if mid == in.Entry {
			continue
		}
		emitModule(p, in, mid)
	}
	emitModule(p, in, in.Entry)

	return p.Render()
}

func bundleNeedsNamespaceHelper(in Input, ordered []*types.Module) bool {
	for _, m := range ordered {
		if len(in.Namespaces[m.ID]) > 0 {
			return true
		}
		// Wrapped dotted imports synthesize intermediate namespaces too.
		if m.Strategy != types.StrategyWrapped {
			for _, item := range m.Items {
				if len(item.Scope) != 0 || item.Moved {
					continue
				}
				for _, imp := range item.Imports {
					target := in.Resolve(m, imp)
					if target != nil && target.Strategy == types.StrategyWrapped &&
						imp.Form == types.FormImportModule && strings.Contains(imp.Module, ".") {
						return true
					}
				}
			}
		}
	}
	return false
}

// emitModule renders one module at its position in the bundle order:
// namespace objects synthesized for its whole-module imports first (they
// stand in for import statements, which textually precede the body), then
// the module body -- flat at top level for Inline modules, enclosed in an
// idempotent init function plus an eager call for Wrapped ones.
func emitModule(p *pyprint.Printer, in Input, mid types.ModuleId) {
	module := in.Graph.Modules[mid]

	for _, ns := range in.Namespaces[mid] {
		p.TextBlank(RenderNamespace(ns))
	}

	if module.Strategy == types.StrategyWrapped {
		emitWrappedModule(p, in, module)
		return
	}
	emitInlineModule(p, in, module)
}

func emitInlineModule(p *pyprint.Printer, in Input, module *types.Module) {
	tree := in.Trees[module.ID]
	renames := moduleRenameMap(module, in.Table)
	functionGlobals := functionGlobalNames(in.Analyses[module.ID])
	nsLocals := namespaceLocalNames(in.Namespaces[module.ID])

	first := true
	for _, item := range module.Items {
		if len(item.Scope) != 0 || item.Moved {
			continue // nested items render as part of their owning def's span
		}
		if item.Kind == types.ItemImport || item.Kind == types.ItemFromImport {
			// Module-level imports never render verbatim: first-party ones
			// are elided or bound (spec §4.6.5, §4.6.6), stdlib/third-party
			// ones were hoisted into the de-duplicated preserved set.
			for _, line := range importBindings(in, module, item, nsLocals) {
				p.Text(line)
			}
			continue
		}

		subs := collectIdentifierSubs(tree, item.StartByte, item.EndByte, renames)
		if item.Kind == types.ItemFunctionDef {
			if names, ok := functionGlobals[item.Name]; ok {
				subs = append(subs, RewriteFunctionForGlobals(tree, item, names, renames)...)
			}
		}

		if first {
			p.SpanBlank(module.Source, item.StartByte, item.EndByte, subs)
		} else {
			p.Span(module.Source, item.StartByte, item.EndByte, subs)
		}
		first = false
	}
}

// importBindings renders the replacement statements for one module-level
// import item: nothing for an import fully resolved by inlining or by a
// synthesized namespace, binding assignments for imports of Wrapped
// modules (spec §4.6.1), nothing for preserved third-party imports.
func importBindings(in Input, module *types.Module, item *types.Item, nsLocals map[string]bool) []string {
	var out []string
	for _, imp := range item.Imports {
		target := in.Resolve(module, imp)
		if target == nil || target.ID == module.ID {
			continue // preserved import, already hoisted
		}
		if nsLocals[imp.Alias] {
			continue // a synthesized namespace object stands in for this binding
		}
		if target.Strategy == types.StrategyWrapped {
			out = append(out, wrappedBindings(imp, target)...)
			continue
		}
		// Inlined target: the symbol registry's re-export redirect makes
		// every reference land on the final top-level name; nothing to emit.
	}
	return out
}

// wrappedBindings renders the assignments standing in for an import of a
// Wrapped module: the init function returns the cached module object, so a
// plain attribute access recovers any symbol.
func wrappedBindings(imp *types.ImportInfo, target *types.Module) []string {
	call := initFuncName(target.DottedName) + "()"
	switch imp.Form {
	case types.FormImportModuleAs:
		return []string{imp.Alias + " = " + call}
	case types.FormImportModule:
		if !strings.Contains(imp.Module, ".") {
			return []string{imp.Module + " = " + call}
		}
		return dottedWrappedChain(imp.Module, call)
	default:
		if target.DottedName == imp.Module+"."+imp.OriginalName {
			// "from pkg import sub" where sub is the wrapped module itself.
			return []string{imp.Alias + " = " + call}
		}
		return []string{imp.Alias + " = " + call + "." + imp.OriginalName}
	}
}

// dottedWrappedChain renders "import p.s.t" over a wrapped t: intermediate
// namespace objects for p and p.s, then the module object as the deepest
// attribute (spec §4.6.4's chain shape).
func dottedWrappedChain(dotted, call string) []string {
	segs := strings.Split(dotted, ".")
	var out []string
	for i := 0; i < len(segs)-1; i++ {
		path := strings.Join(segs[:i+1], ".")
		out = append(out, path+" = _BundledNamespace("+quotePy(path)+")")
	}
	out = append(out, dotted+" = "+call)
	return out
}

func namespaceLocalNames(namespaces []*types.Namespace) map[string]bool {
	out := map[string]bool{}
	for _, ns := range namespaces {
		out[ns.LocalName] = true
	}
	return out
}

// moduleRenameMap projects the symbol table down to the subset relevant to
// one module: original name -> final name, for every module-level symbol
// this module defines or imports from an inlined sibling.
func moduleRenameMap(module *types.Module, table *types.SymbolTable) RenameMap {
	out := RenameMap{}
	for _, item := range module.Items {
		if len(item.Scope) != 0 || item.Moved {
			continue
		}
		for name := range item.Defines {
			if final, ok := table.Lookup(module.ID, name); ok {
				out[name] = final
			}
		}
	}
	return out
}

// functionGlobalNames inverts an Analysis.Globals map (name -> functions)
// into (function -> names), the shape RewriteFunctionForGlobals wants.
func functionGlobalNames(a *semantic.Analysis) map[string][]string {
	out := map[string][]string{}
	if a == nil {
		return out
	}
	for name, usage := range a.Globals {
		for _, fn := range usage.Functions {
			out[fn] = append(out[fn], name)
		}
	}
	for fn := range out {
		sort.Strings(out[fn])
	}
	return out
}
