package pyprint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpliceReplacesRange(t *testing.T) {
	src := []byte("x = old_name + 1\n")
	out := Splice(src, 0, uint(len(src)), []Substitution{
		{Start: 4, End: 12, Replacement: "new_name"},
	})
	require.Equal(t, "x = new_name + 1\n", out)
}

func TestSpliceMultipleNonOverlapping(t *testing.T) {
	src := []byte("a, b = b, a\n")
	out := Splice(src, 0, uint(len(src)), []Substitution{
		{Start: 0, End: 1, Replacement: "x"},
		{Start: 7, End: 8, Replacement: "y"},
	})
	require.Equal(t, "x, b = y, a\n", out)
}

func TestPrinterRendersInOrderWithBlanks(t *testing.T) {
	p := New()
	src := []byte("def f():\n    pass\n")
	p.Span(src, 0, uint(len(src)), nil)
	p.TextBlank("def g():\n    pass")

	out := string(p.Render())
	require.Equal(t, "def f():\n    pass\n\ndef g():\n    pass\n", out)
}
