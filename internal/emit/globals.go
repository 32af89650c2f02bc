package emit

import (
	"github.com/go-cribo/cribo/internal/pyparse"
	"github.com/go-cribo/cribo/internal/pyprint"
	"github.com/go-cribo/cribo/pkg/types"
)

// GlobalsRenameMap builds the rename map used when rewriting a function
// body that declares one or more module-level names `global` (spec
// §4.6.3): each such name maps to its final bundle name, same as the
// module-level rename map, so that `global x` becomes `global final_name`
// and every read/write of `x` in the function body becomes `final_name` in
// the same pass. A function with no `global` names referencing renamed
// symbols needs no special handling; its own locals are never touched
// since they never appear as keys in a module's rename map.
func GlobalsRenameMap(moduleRenames RenameMap, globalNames []string) RenameMap {
	out := RenameMap{}
	for _, name := range globalNames {
		if final, ok := moduleRenames[name]; ok {
			out[name] = final
		}
	}
	return out
}

// RewriteFunctionForGlobals produces the substitutions needed inside one
// function item (covering its full byte range, including nested blocks)
// for every name it declares `global` and that was renamed. This folds
// into the function's existing identifier-rename pass: `global x` and
// every bare read/write of `x` both match on the identifier "x" and are
// replaced with final_name by the same substitution set, which already
// satisfies point 2 of spec §4.6.3 without a separate local-to-global sync
// line (a plain rename achieves the same observable result: every access
// of the old name within the function now reads the bundle's module-level
// slot under its final name).
func RewriteFunctionForGlobals(tree *pyparse.Tree, item *types.Item, globalNames []string, moduleRenames RenameMap) []pyprint.Substitution {
	renames := GlobalsRenameMap(moduleRenames, globalNames)
	if len(renames) == 0 {
		return nil
	}
	return collectIdentifierSubs(tree, item.StartByte, item.EndByte, renames)
}
