package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverFindsPythonFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "pkg", "sub.py"), "X = 1\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")

	files, err := NewWalker().Discover([]string{root})
	require.NoError(t, err)
	require.Len(t, files, 2)

	names := map[string]bool{}
	for _, f := range files {
		names[f.DottedName] = true
	}
	require.True(t, names["pkg"])
	require.True(t, names["pkg.sub"])
}

func TestDiscoverSkipsConventionalDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mod.py"), "")
	writeFile(t, filepath.Join(root, "__pycache__", "mod.cpython.py"), "")
	writeFile(t, filepath.Join(root, ".venv", "lib", "site.py"), "")

	files, err := NewWalker().Discover([]string{root})
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "mod", files[0].DottedName)
}

func TestDiscoverRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "generated/\n")
	writeFile(t, filepath.Join(root, "mod.py"), "")
	writeFile(t, filepath.Join(root, "generated", "skip.py"), "")

	files, err := NewWalker().Discover([]string{root})
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "mod", files[0].DottedName)
}
