package emit

import (
	"sort"
	"strings"

	"github.com/go-cribo/cribo/internal/classify"
	"github.com/go-cribo/cribo/pkg/types"
)

// PreservedImport is one third-party or stdlib import statement surviving
// into the bundle, already de-duplicated by (module, alias, original).
type PreservedImport struct {
	Form         types.ImportForm
	Module       string
	OriginalName string
	Alias        string
}

// key identifies a preserved import for de-duplication purposes.
func (p PreservedImport) key() string {
	return string(rune(p.Form)) + "\x00" + p.Module + "\x00" + p.OriginalName + "\x00" + p.Alias
}

// CollectPreserved walks the bundled modules' imports, classifies each, and
// returns the de-duplicated set of third-party/stdlib imports to hoist to
// the top of the bundle (spec §4.6.5), plus the union of `from __future__
// import ...` names across every source module. Only unconditional
// module-level imports of Inline modules hoist: function-scoped and
// conditional imports stay where they are, and a Wrapped module keeps its
// imports inside its init function.
func CollectPreserved(modules []*types.Module, classifier classify.Classifier) (preserved []PreservedImport, futures []string) {
	seen := map[string]bool{}
	futureSeen := map[string]bool{}

	for _, m := range modules {
		for _, item := range m.Items {
			if item.Moved {
				continue
			}
			for _, imp := range item.Imports {
				if imp.Level > 0 {
					continue // relative imports are always first-party
				}
				if imp.Module == "__future__" {
					if !futureSeen[imp.OriginalName] {
						futureSeen[imp.OriginalName] = true
						futures = append(futures, imp.OriginalName)
					}
					continue
				}
				if m.Strategy == types.StrategyWrapped || imp.Placement != types.PlacementModule {
					continue
				}
				cls := classifier.Classify(imp.Module, m.Path)
				if cls.Kind == classify.FirstParty {
					continue // elided: resolved by inlining/wrapping
				}
				p := PreservedImport{Form: imp.Form, Module: imp.Module, OriginalName: imp.OriginalName, Alias: imp.Alias}
				if !seen[p.key()] {
					seen[p.key()] = true
					preserved = append(preserved, p)
				}
			}
		}
	}

	sort.Strings(futures)
	sort.Slice(preserved, func(i, j int) bool {
		if preserved[i].Module != preserved[j].Module {
			return preserved[i].Module < preserved[j].Module
		}
		return preserved[i].Alias < preserved[j].Alias
	})
	return preserved, futures
}

// RenderFutureImports renders the bundle's single `from __future__ import
// ...` header line, or "" if there are none.
func RenderFutureImports(futures []string) string {
	if len(futures) == 0 {
		return ""
	}
	return "from __future__ import " + strings.Join(futures, ", ")
}

// RenderPreservedImport renders one preserved import statement in its
// original syntactic form.
func RenderPreservedImport(p PreservedImport) string {
	switch p.Form {
	case types.FormImportModule:
		return "import " + p.Module
	case types.FormImportModuleAs:
		return "import " + p.Module + " as " + p.Alias
	case types.FormFromImportName:
		return "from " + p.Module + " import " + p.OriginalName
	case types.FormFromImportNameAs:
		return "from " + p.Module + " import " + p.OriginalName + " as " + p.Alias
	case types.FormFromImportStar:
		return "from " + p.Module + " import *"
	default:
		return ""
	}
}
