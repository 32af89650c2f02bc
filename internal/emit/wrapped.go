package emit

import (
	"sort"
	"strings"

	"github.com/go-cribo/cribo/internal/pyprint"
	"github.com/go-cribo/cribo/pkg/types"
)

// initFuncName derives the wrapper init function's identifier from the
// module's dotted name ("pkg.sub" -> "_cribo_init_pkg_sub").
func initFuncName(dotted string) string {
	return "_cribo_init_" + strings.ReplaceAll(dotted, ".", "_")
}

// emitWrappedModule renders a Wrapped module (spec §4.6.1): an init
// function that builds a real module object, executes the module body
// against it, registers it in sys.modules, and returns the cached object on
// re-entry -- followed by an eager call so the module's import-time
// behavior happens at its position in the bundle order. The sys.modules
// registration is what lets imports the rewriter moved into function bodies
// (spec §4.3) resolve at call time.
func emitWrappedModule(p *pyprint.Printer, in Input, module *types.Module) {
	name := initFuncName(module.DottedName)
	quoted := quotePy(module.DottedName)

	var b strings.Builder
	b.WriteString("def " + name + "():\n")
	b.WriteString("    import sys\n")
	b.WriteString("    if " + quoted + " in sys.modules:\n")
	b.WriteString("        return sys.modules[" + quoted + "]\n")
	b.WriteString("    import types as _bundled_types\n")
	b.WriteString("    _mod = _bundled_types.ModuleType(" + quoted + ")\n")
	b.WriteString("    sys.modules[" + quoted + "] = _mod\n")

	nsLocals := namespaceLocalNames(in.Namespaces[module.ID])

	for _, item := range module.Items {
		if len(item.Scope) != 0 || item.Moved {
			continue
		}
		if item.Kind == types.ItemImport || item.Kind == types.ItemFromImport {
			lines := wrappedModuleImport(in, module, item, nsLocals)
			for _, line := range lines {
				b.WriteString("    " + line + "\n")
			}
			continue
		}

		subs := movedImportSubs(module, item)
		text := pyprint.Splice(module.Source, item.StartByte, item.EndByte, subs)
		b.WriteString(indentBlock(text, "    "))
	}

	for _, n := range wrappedAttributeNames(module) {
		b.WriteString("    _mod." + n + " = " + n + "\n")
	}
	b.WriteString("    return _mod\n")

	p.TextBlank(b.String())
	p.Text(name + "()")
}

// wrappedModuleImport renders one module-level import inside a wrapper
// body. Unlike the inline path, stdlib/third-party imports stay in place
// (they bind locals of the init function and were not hoisted), while
// first-party imports become direct bindings against the bundle's top
// level.
func wrappedModuleImport(in Input, module *types.Module, item *types.Item, nsLocals map[string]bool) []string {
	anyFirstParty := false
	for _, imp := range item.Imports {
		if t := in.Resolve(module, imp); t != nil && t.ID != module.ID {
			anyFirstParty = true
		}
	}
	if !anyFirstParty {
		return []string{strings.TrimRight(string(module.Source[item.StartByte:item.EndByte]), "\n")}
	}

	var out []string
	for _, imp := range item.Imports {
		target := in.Resolve(module, imp)
		if target == nil || target.ID == module.ID {
			// A preserved clause sharing the statement with first-party ones.
			out = append(out, RenderPreservedImport(PreservedImport{
				Form: imp.Form, Module: imp.Module, OriginalName: imp.OriginalName, Alias: imp.Alias,
			}))
			continue
		}
		if nsLocals[imp.Alias] {
			continue
		}
		if target.Strategy == types.StrategyWrapped {
			out = append(out, wrappedBindings(imp, target)...)
			continue
		}
		// Inlined target: bind the alias to the symbol's final bundle name.
		switch imp.Form {
		case types.FormFromImportName, types.FormFromImportNameAs:
			if final, ok := in.Table.Lookup(target.ID, imp.OriginalName); ok {
				out = append(out, imp.Alias+" = "+final)
			}
		}
	}
	return out
}

// wrappedAttributeNames lists the module-level names to copy onto the
// module object after the body ran, in first-definition order.
func wrappedAttributeNames(module *types.Module) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range module.Items {
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

// movedImportSubs builds the insertion substitutions that place rewriter-
// moved import statements (spec §4.3) at the top of the function bodies
// that need them.
func movedImportSubs(module *types.Module, item *types.Item) []pyprint.Substitution {
	if item.Kind != types.ItemFunctionDef || len(module.MovedImports) == 0 {
		return nil
	}
	var stmts []string
	for _, mv := range module.MovedImports {
		if mv.FunctionName == item.Name {
			stmts = append(stmts, mv.Statement)
		}
	}
	if len(stmts) == 0 {
		return nil
	}

	pos, ok := functionBodyStart(module, item)
	if !ok {
		return nil
	}
	indent := lineIndentAt(module.Source, pos)
	text := strings.Join(stmts, "\n"+indent) + "\n" + indent
	return []pyprint.Substitution{{Start: pos, End: pos, Replacement: text}}
}

// functionBodyStart finds the byte offset of the first statement in the
// body of the top-level function item, via the scanner's nested items.
func functionBodyStart(module *types.Module, fn *types.Item) (uint, bool) {
	for _, item := range module.Items {
		if len(item.Scope) == 0 || item.Moved {
			continue
		}
		if item.Scope[0].Kind != types.ItemFunctionDef || item.Scope[0].Name != fn.Name {
			continue
		}
		if item.StartByte > fn.StartByte && item.EndByte <= fn.EndByte {
			return item.StartByte, true
		}
	}
	return 0, false
}

// lineIndentAt returns the whitespace prefix of the line containing pos.
func lineIndentAt(src []byte, pos uint) string {
	start := pos
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < pos && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

// indentBlock prefixes every non-blank line of text with indent and
// guarantees a trailing newline.
func indentBlock(text, indent string) string {
	text = strings.TrimRight(text, "\n")
	lines := strings.Split(text, "\n")
	var b strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(indent + line + "\n")
	}
	return b.String()
}
