package diag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBagFatal(t *testing.T) {
	b := NewBag()
	require.False(t, b.HasFatal())

	b.New(ClassificationError, false, "unused import")
	require.False(t, b.HasFatal())

	fatal := b.New(CyclicDependency, true, "a -> b -> a")
	require.True(t, b.HasFatal())
	require.Same(t, fatal, b.FirstFatal())
}

func TestDiagnosticError(t *testing.T) {
	d := &Diagnostic{Kind: ParseError, File: "a.py", Pos: Position{Line: 3, Column: 5}, Detail: "unexpected token"}
	require.Equal(t, "a.py:3:5: ParseError: unexpected token", d.Error())
}

func TestBagJSON(t *testing.T) {
	b := NewBag()
	b.New(StarImportWithoutAll, true, "from m import * without __all__")
	data, err := b.JSON()
	require.NoError(t, err)
	require.Contains(t, string(data), "StarImportWithoutAll")
	require.Contains(t, string(data), b.RunID)
}
