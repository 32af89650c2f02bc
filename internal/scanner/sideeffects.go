package scanner

import "github.com/go-cribo/cribo/pkg/types"

// DetectSideEffects computes m.SideEffects: true if importing m does
// anything beyond binding names the emitter can reorder freely. A module is
// side-effecting if it contains, at module scope, any item other than
// function/class defs, simple/annotated assignments, imports, or a guarded
// `if __name__ == "__main__":` block (which never runs at import time).
//
// This is deliberately conservative (spec §3's "SideEffects" field default):
// a module-level expression statement, augmented assignment, or any other
// scope-container whose condition is not the main guard marks the whole
// module as side-effecting.
func DetectSideEffects(m *types.Module) {
	for _, item := range m.Items {
		if len(item.Scope) != 0 {
			continue
		}
		switch item.Kind {
		case types.ItemImport, types.ItemFromImport, types.ItemFunctionDef,
			types.ItemClassDef, types.ItemAssign, types.ItemAnnotatedAssign,
			types.ItemGlobal:
			continue
		case types.ItemExpr:
			if isDocstringItem(m.Source, item) {
				continue
			}
			m.SideEffects = true
			return
		case types.ItemScopeContainer:
			if isMainGuard(m.Source, item) {
				continue
			}
			m.SideEffects = true
			return
		default:
			m.SideEffects = true
			return
		}
	}
}

// isDocstringItem reports whether item is a bare string-literal expression
// statement (a docstring, or a stray string literal with no effect).
func isDocstringItem(src []byte, item *types.Item) bool {
	text := trimSpace(string(src[item.StartByte:item.EndByte]))
	if len(text) == 0 {
		return false
	}
	return text[0] == '"' || text[0] == '\'' || hasStringPrefix(text)
}

func hasStringPrefix(text string) bool {
	for _, p := range []string{"r\"", "r'", "f\"", "f'", "b\"", "b'", "u\"", "u'", "rb\"", "rb'", "br\"", "br'"} {
		if len(text) >= len(p) && text[:len(p)] == p {
			return true
		}
	}
	return false
}

// isMainGuard reports whether item is `if __name__ == "__main__":` (with or
// without the quotes' style varying), the idiomatic entry-point guard whose
// body never executes on import.
func isMainGuard(src []byte, item *types.Item) bool {
	text := trimSpace(string(src[item.StartByte:item.EndByte]))
	if len(text) < 2 || text[:2] != "if" {
		return false
	}
	for _, pat := range []string{
		`if __name__ == "__main__":`,
		`if __name__ == '__main__':`,
		`if __name__=="__main__":`,
		`if __name__=='__main__':`,
	} {
		if len(text) >= len(pat) && text[:len(pat)] == pat {
			return true
		}
	}
	return false
}
