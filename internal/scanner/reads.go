package scanner

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/go-cribo/cribo/internal/pyparse"
	"github.com/go-cribo/cribo/pkg/types"
)

// collectReads walks node for free-variable reads, classifying them as
// immediate or deferred on item depending on whether we're already inside a
// nested function scope. Reads inside lambda bodies and comprehensions land
// in the same set as the rest of node's reads; they are not separated out
// as deferred.
func collectReads(node *tree_sitter.Node, src []byte, item *types.Item, inFunctionScope bool) {
	if inFunctionScope {
		collectReadsInto(node, src, item.DeferredReads)
	} else {
		collectReadsInto(node, src, item.ImmediateReads)
	}
}

// deferredBoundaryKinds are node kinds that introduce their own execution
// frame. collectReadsInto tracks when it is beneath one, but records the
// identifiers there in the same set as every other read.
var deferredBoundaryKinds = map[string]bool{
	"lambda": true, "list_comprehension": true, "set_comprehension": true,
	"dictionary_comprehension": true, "generator_expression": true,
}

// collectReadsInto records into every identifier read beneath node.
// Attribute names and keyword-argument names are not free-variable reads
// and are skipped, as are string literals and comments.
func collectReadsInto(node *tree_sitter.Node, src []byte, into map[string]bool) {
	if node == nil {
		return
	}
	var walk func(n *tree_sitter.Node, deferred bool)
	walk = func(n *tree_sitter.Node, deferred bool) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "identifier":
			into[pyparse.Text(n, src)] = true
			return
		case "attribute":
			// Only the object expression is a read; the attribute name is
			// not a free variable.
			if obj := n.ChildByFieldName("object"); obj != nil {
				walk(obj, deferred)
			}
			return
		case "keyword_argument":
			if v := n.ChildByFieldName("value"); v != nil {
				walk(v, deferred)
			}
			return
		case "string", "string_literal", "comment":
			return
		}

		nextDeferred := deferred || deferredBoundaryKinds[n.Kind()]
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i), nextDeferred)
		}
	}
	walk(node, false)
}

// collectAssignTargets extracts the set of names bound by an assignment
// target, handling plain identifiers, tuple/list unpacking, and starred
// targets. Attribute and subscript targets ("a.b = 1", "a[0] = 1") bind no
// new name -- they read "a".
func collectAssignTargets(node *tree_sitter.Node, src []byte, into map[string]bool) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		into[pyparse.Text(node, src)] = true
	case "pattern_list", "tuple_pattern", "list_pattern", "list_splat_pattern":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			collectAssignTargets(node.NamedChild(i), src, into)
		}
	case "tuple", "list":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			collectAssignTargets(node.NamedChild(i), src, into)
		}
	case "attribute", "subscript":
		// Not a new binding.
	default:
		for i := uint(0); i < node.NamedChildCount(); i++ {
			collectAssignTargets(node.NamedChild(i), src, into)
		}
	}
}
