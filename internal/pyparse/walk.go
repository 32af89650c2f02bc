package pyparse

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// Walk visits node and every descendant depth-first, pre-order.
func Walk(node *tree_sitter.Node, fn func(*tree_sitter.Node)) {
	if node == nil {
		return
	}
	fn(node)
	for i := uint(0); i < node.ChildCount(); i++ {
		Walk(node.Child(i), fn)
	}
}

// Text extracts the verbatim source text spanned by node.
func Text(node *tree_sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

// NamedChildren returns a node's named children as a slice.
func NamedChildren(node *tree_sitter.Node) []*tree_sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*tree_sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}

// Line returns the 1-based source line of node's first byte.
func Line(node *tree_sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPosition().Row) + 1
}

// Column returns the 1-based source column of node's first byte.
func Column(node *tree_sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPosition().Column) + 1
}
