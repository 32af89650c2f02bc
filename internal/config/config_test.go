package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadProjectConfigValidYml(t *testing.T) {
	dir := t.TempDir()
	content := "version: 1\nsrc_roots:\n  - src\n  - vendor/first_party\nentry: myapp.main\noutput: dist/bundle.py\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cribo.yml"), []byte(content), 0o644))

	cfg, err := LoadProjectConfig(dir, "")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, 1, cfg.Version)
	require.Equal(t, []string{"src", "vendor/first_party"}, cfg.SrcRoots)
	require.Equal(t, "myapp.main", cfg.Entry)
}

func TestLoadProjectConfigMissingFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadProjectConfig(dir, "")
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestLoadProjectConfigDefaultsSrcRoots(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cribo.yml"), []byte("version: 1\n"), 0o644))

	cfg, err := LoadProjectConfig(dir, "")
	require.NoError(t, err)
	require.Equal(t, []string{"."}, cfg.SrcRoots)
}

func TestLoadProjectConfigInvalidVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cribo.yml"), []byte("version: 99\n"), 0o644))

	_, err := LoadProjectConfig(dir, "")
	require.Error(t, err)
}

func TestResolveSrcRoots(t *testing.T) {
	cfg := &ProjectConfig{SrcRoots: []string{"src", "/abs/path"}}
	resolved := cfg.ResolveSrcRoots("/proj")
	require.Equal(t, []string{"/proj/src", "/abs/path"}, resolved)
}
