package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-cribo/cribo/internal/fsys"
)

func newFixture() (*fsys.Memory, *Default) {
	fs := fsys.NewMemory()
	fs.AddFile("/proj/main.py", "import util\n")
	fs.AddFile("/proj/util.py", "def add(a, b):\n    return a + b\n")
	fs.AddFile("/proj/pkg/__init__.py", "")
	fs.AddFile("/proj/pkg/sub.py", "def foo():\n    return 42\n")
	c := NewDefault(fs, []string{"/proj"})
	return fs, c
}

func TestClassifyFirstParty(t *testing.T) {
	_, c := newFixture()
	got := c.Classify("util", "/proj/main.py")
	require.Equal(t, FirstParty, got.Kind)
	require.Equal(t, "/proj/util.py", got.Path)
}

func TestClassifyPackage(t *testing.T) {
	_, c := newFixture()
	got := c.Classify("pkg.sub", "/proj/main.py")
	require.Equal(t, FirstParty, got.Kind)
	require.Equal(t, "/proj/pkg/sub.py", got.Path)
}

func TestClassifyStdlib(t *testing.T) {
	_, c := newFixture()
	require.Equal(t, Stdlib, c.Classify("os.path", "/proj/main.py").Kind)
	require.Equal(t, Stdlib, c.Classify("json", "/proj/main.py").Kind)
}

func TestClassifyThirdParty(t *testing.T) {
	_, c := newFixture()
	require.Equal(t, ThirdParty, c.Classify("requests", "/proj/main.py").Kind)
}

func TestClassifyHints(t *testing.T) {
	_, c := newFixture()
	c.AddThirdPartyHint("pkg")
	require.Equal(t, ThirdParty, c.Classify("pkg.sub", "/proj/main.py").Kind)

	c2 := NewDefault(fsys.NewMemory(), nil)
	c2.AddFirstPartyHint("mylib")
	require.Equal(t, Unresolved, c2.Classify("mylib.core", "/proj/main.py").Kind)
}

func TestResolveRelative(t *testing.T) {
	_, c := newFixture()

	got, err := c.ResolveRelative("/proj/pkg/sub.py", 1, "sibling")
	require.NoError(t, err)
	require.Equal(t, "pkg.sibling", got)

	got, err = c.ResolveRelative("/proj/pkg/__init__.py", 1, "sub")
	require.NoError(t, err)
	require.Equal(t, "pkg.sub", got)
}

func TestExportsOf(t *testing.T) {
	fs := fsys.NewMemory()
	fs.AddFile("/proj/api.py", "__all__ = ['a', 'b']\n")
	c := NewDefault(fs, []string{"/proj"})
	names, err := c.ExportsOf("/proj/api.py")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
}
