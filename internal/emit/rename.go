package emit

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/go-cribo/cribo/internal/pyparse"
	"github.com/go-cribo/cribo/internal/pyprint"
)

// RenameMap maps an original module-level identifier to its final bundle
// name; only names actually present in the map are ever touched.
type RenameMap map[string]string

// collectIdentifierSubs walks every identifier node inside [start, end) of
// tree, skipping attribute-access and keyword-argument names (those are
// not free-variable reads per spec §4.6.2), and emits one Substitution per
// occurrence whose text has a rename entry. String-literal forward
// references are intentionally left untouched -- only identifier nodes
// that the grammar itself resolves as names participate.
//
// Scope handling follows LEGB: descending into a function or lambda whose
// parameters or body-local bindings shadow a renamed name removes that
// name from the map for the subtree. A `global` declaration inside the
// function restores it, so globals lifting (spec §4.6.3) falls out of the
// same pass.
func collectIdentifierSubs(tree *pyparse.Tree, start, end uint, renames RenameMap) []pyprint.Substitution {
	if len(renames) == 0 {
		return nil
	}
	var subs []pyprint.Substitution

	var walk func(n *tree_sitter.Node, renames RenameMap)
	walk = func(n *tree_sitter.Node, renames RenameMap) {
		if n == nil || len(renames) == 0 || n.EndByte() <= start || n.StartByte() >= end {
			return
		}
		switch n.Kind() {
		case "identifier":
			name := pyparse.Text(n, tree.Content)
			if final, ok := renames[name]; ok && final != name {
				subs = append(subs, pyprint.Substitution{Start: n.StartByte(), End: n.EndByte(), Replacement: final})
			}
			return
		case "attribute":
			if obj := n.ChildByFieldName("object"); obj != nil {
				walk(obj, renames)
			}
			return
		case "keyword_argument":
			if v := n.ChildByFieldName("value"); v != nil {
				walk(v, renames)
			}
			return
		case "string", "string_literal":
			return
		case "function_definition":
			// The def name binds in the enclosing scope; default values,
			// annotations and decorators evaluate there too.
			if nm := n.ChildByFieldName("name"); nm != nil {
				walk(nm, renames)
			}
			if params := n.ChildByFieldName("parameters"); params != nil {
				walkParameterExprs(params, renames, walk)
			}
			if ret := n.ChildByFieldName("return_type"); ret != nil {
				walk(ret, renames)
			}
			if body := n.ChildByFieldName("body"); body != nil {
				walk(body, subtract(renames, functionLocalBindings(n, tree.Content)))
			}
			return
		case "lambda":
			if params := n.ChildByFieldName("parameters"); params != nil {
				walkParameterExprs(params, renames, walk)
			}
			if body := n.ChildByFieldName("body"); body != nil {
				walk(body, subtract(renames, functionLocalBindings(n, tree.Content)))
			}
			return
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i), renames)
		}
	}

	root := tree.Root()
	for i := uint(0); i < root.ChildCount(); i++ {
		c := root.Child(i)
		if c == nil || c.EndByte() <= start || c.StartByte() >= end {
			continue
		}
		walk(c, renames)
	}
	return subs
}

// walkParameterExprs visits only the value-position expressions of a
// parameter list (defaults and annotations); parameter names themselves
// bind locals and are never rename targets.
func walkParameterExprs(params *tree_sitter.Node, renames RenameMap, walk func(*tree_sitter.Node, RenameMap)) {
	for i := uint(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}
		switch p.Kind() {
		case "default_parameter", "typed_default_parameter":
			if v := p.ChildByFieldName("value"); v != nil {
				walk(v, renames)
			}
			if typ := p.ChildByFieldName("type"); typ != nil {
				walk(typ, renames)
			}
		case "typed_parameter":
			if typ := p.ChildByFieldName("type"); typ != nil {
				walk(typ, renames)
			}
		}
	}
}

func subtract(renames RenameMap, locals map[string]bool) RenameMap {
	if len(locals) == 0 {
		return renames
	}
	out := RenameMap{}
	for k, v := range renames {
		if !locals[k] {
			out[k] = v
		}
	}
	return out
}

// functionLocalBindings computes the set of names a function (or lambda)
// binds locally: parameters, assignment and loop targets, with/except
// aliases, local imports, and nested def/class names -- minus anything the
// function declares `global` or `nonlocal`.
func functionLocalBindings(def *tree_sitter.Node, src []byte) map[string]bool {
	out := map[string]bool{}
	declared := map[string]bool{}

	if params := def.ChildByFieldName("parameters"); params != nil {
		collectParameterNames(params, src, out)
	}

	body := def.ChildByFieldName("body")
	if body == nil {
		return out
	}

	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "function_definition", "class_definition":
			if nm := n.ChildByFieldName("name"); nm != nil {
				out[pyparse.Text(nm, src)] = true
			}
			return // nested scopes bind their own locals
		case "lambda":
			return
		case "global_statement", "nonlocal_statement":
			for i := uint(0); i < n.NamedChildCount(); i++ {
				if c := n.NamedChild(i); c != nil && c.Kind() == "identifier" {
					declared[pyparse.Text(c, src)] = true
				}
			}
			return
		case "assignment", "augmented_assignment":
			collectTargetIdents(n.ChildByFieldName("left"), src, out)
			walk(n.ChildByFieldName("right"))
			return
		case "named_expression":
			collectTargetIdents(n.ChildByFieldName("name"), src, out)
			walk(n.ChildByFieldName("value"))
			return
		case "for_statement":
			collectTargetIdents(n.ChildByFieldName("left"), src, out)
		case "as_pattern":
			if alias := n.ChildByFieldName("alias"); alias != nil {
				collectTargetIdents(alias, src, out)
			}
		case "import_statement", "import_from_statement":
			collectImportAliases(n, src, out)
			return
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)

	for name := range declared {
		delete(out, name)
	}
	return out
}

func collectParameterNames(params *tree_sitter.Node, src []byte, into map[string]bool) {
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "identifier":
			into[pyparse.Text(n, src)] = true
			return
		case "default_parameter", "typed_default_parameter":
			// Only the name binds; the default/annotation reads outer scope.
			walk(n.ChildByFieldName("name"))
			return
		case "typed_parameter":
			if n.NamedChildCount() > 0 {
				walk(n.NamedChild(0))
			}
			return
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(params)
}

func collectTargetIdents(n *tree_sitter.Node, src []byte, into map[string]bool) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "identifier":
		into[pyparse.Text(n, src)] = true
	case "attribute", "subscript":
		// Not a new binding.
	default:
		for i := uint(0); i < n.NamedChildCount(); i++ {
			collectTargetIdents(n.NamedChild(i), src, into)
		}
	}
}

func collectImportAliases(n *tree_sitter.Node, src []byte, into map[string]bool) {
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "aliased_import":
			if alias := n.ChildByFieldName("alias"); alias != nil {
				into[pyparse.Text(alias, src)] = true
			}
			return
		case "dotted_name":
			if n.NamedChildCount() > 0 {
				if first := n.NamedChild(0); first != nil && first.Kind() == "identifier" {
					into[pyparse.Text(first, src)] = true
				}
			}
			return
		case "identifier":
			into[pyparse.Text(n, src)] = true
			return
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	// Skip the statement keyword-level module_name field for from-imports:
	// "from M import x" binds x, not M.
	if n.Kind() == "import_from_statement" {
		moduleName := n.ChildByFieldName("module_name")
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c == nil || (moduleName != nil && c.StartByte() == moduleName.StartByte() && c.EndByte() == moduleName.EndByte()) {
				continue
			}
			walk(c)
		}
		return
	}
	walk(n)
}
