// Package semantic implements the Semantic Analyzer (spec §4.4): per-module
// facts the emitter and symbol registry need that go beyond the raw item
// graph -- module-level name visibility, `global` declarations, annotation
// references, and namespace-import usage.
package semantic

import "github.com/go-cribo/cribo/pkg/types"

// Analysis holds the per-module facts computed by Analyze.
type Analysis struct {
	// ModuleLevelNames is every name bound at module scope: defs, classes,
	// assignments, and imported aliases.
	ModuleLevelNames map[string]bool

	// Globals maps name -> the names of the innermost functions that
	// declare it `global` (spec §4.4 bullet 2).
	Globals map[string]*types.GlobalUsage

	// AnnotationNames is every ImmediateReads name of an annotated
	// assignment or function definition at any depth (spec §4.4 bullet 3):
	// annotation and return-type names, and also value, default and
	// decorator reads. No other stage reads it.
	AnnotationNames map[string]bool

	// NamespaceUsage maps a locally-bound name to the first-party module it
	// refers to as a whole object (spec §4.4 bullet 4): "from P import S"
	// or "import P.S" where S is first-party.
	NamespaceUsage map[string]NamespaceRef
}

// NamespaceRef pairs the resolved first-party module with the import
// clause that bound it, so the emitter can distinguish "from P import S"
// (bind S directly) from "import P.S" (synthesize the P -> S chain).
type NamespaceRef struct {
	Module types.ModuleId
	Import *types.ImportInfo
}

// Analyze computes Analysis for module. resolveFirstParty resolves an
// import's (module name, imported original name) to a first-party
// ModuleId when that import refers to a first-party submodule rather than
// a plain symbol; it returns (0, false) otherwise.
func Analyze(module *types.Module, resolveFirstParty func(imp *types.ImportInfo) (types.ModuleId, bool)) *Analysis {
	a := &Analysis{
		ModuleLevelNames: map[string]bool{},
		Globals:          map[string]*types.GlobalUsage{},
		AnnotationNames:  map[string]bool{},
		NamespaceUsage:   map[string]NamespaceRef{},
	}

	for _, item := range module.Items {
		if len(item.Scope) == 0 {
			for name := range item.Defines {
				a.ModuleLevelNames[name] = true
			}
		}

		if item.Kind == types.ItemGlobal && len(item.Scope) > 0 {
			fn := enclosingFunction(item.Scope)
			for _, name := range item.GlobalNames {
				gu, ok := a.Globals[name]
				if !ok {
					gu = &types.GlobalUsage{Name: name}
					a.Globals[name] = gu
				}
				gu.Functions = append(gu.Functions, fn)
			}
		}

		if !item.Moved && len(item.Scope) == 0 {
			for _, imp := range item.Imports {
				if mid, ok := resolveFirstParty(imp); ok {
					a.NamespaceUsage[imp.Alias] = NamespaceRef{Module: mid, Import: imp}
				}
			}
		}

		// Annotated assignments and function signatures are the only item
		// kinds whose ImmediateReads can include a type expression; the
		// scanner folds annotation/return-type reads into ImmediateReads
		// alongside value reads, so both contribute to AnnotationNames.
		if item.Kind == types.ItemAnnotatedAssign || item.Kind == types.ItemFunctionDef {
			for name := range item.ImmediateReads {
				a.AnnotationNames[name] = true
			}
		}
	}

	return a
}

func enclosingFunction(scope []types.ScopePathEntry) string {
	for i := len(scope) - 1; i >= 0; i-- {
		if scope[i].Kind == types.ItemFunctionDef {
			return scope[i].Name
		}
	}
	return ""
}
