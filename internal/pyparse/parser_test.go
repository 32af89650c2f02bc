package pyparse

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/stretchr/testify/require"
)

func TestParseSimple(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	src := []byte("def add(a, b):\n    return a + b\n")
	tree, err := p.Parse(src, "util.py")
	require.NoError(t, err)
	defer tree.Close()

	require.Equal(t, "module", tree.Root().Kind())
}

func TestWalkCountsFunctionDefs(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	src := []byte("def a():\n    pass\n\n\ndef b():\n    pass\n")
	tree, err := p.Parse(src, "m.py")
	require.NoError(t, err)
	defer tree.Close()

	count := 0
	Walk(tree.Root(), func(n *tree_sitter.Node) {
		if n.Kind() == "function_definition" {
			count++
		}
	})
	require.Equal(t, 2, count)
}
