package fsys

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Memory is an in-memory FileSystem used by tests so the whole bundler can
// run deterministically with no real I/O (spec §6.2).
type Memory struct {
	files map[string][]byte
}

// NewMemory creates an empty in-memory filesystem.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// AddFile registers a file's content, creating parent directories
// implicitly. Paths are normalized with path.Clean using forward slashes.
func (m *Memory) AddFile(p string, content string) {
	m.files[clean(p)] = []byte(content)
}

func clean(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

func (m *Memory) Exists(p string) bool {
	p = clean(p)
	if _, ok := m.files[p]; ok {
		return true
	}
	prefix := p + "/"
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}

func (m *Memory) Read(p string) ([]byte, error) {
	p = clean(p)
	data, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return data, nil
}

func (m *Memory) ListDir(p string) ([]DirEntry, error) {
	p = clean(p)
	if p == "." {
		p = ""
	}
	prefix := p
	if prefix != "" {
		prefix += "/"
	}

	seen := make(map[string]bool)
	var entries []DirEntry
	found := false
	for f := range m.files {
		if !strings.HasPrefix(f, prefix) {
			continue
		}
		found = true
		rest := strings.TrimPrefix(f, prefix)
		parts := strings.SplitN(rest, "/", 2)
		name := parts[0]
		if seen[name] {
			continue
		}
		seen[name] = true
		entries = append(entries, DirEntry{Name: name, IsDir: len(parts) > 1})
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *Memory) Canonicalize(p string) (string, error) {
	return "/" + strings.TrimPrefix(clean(p), "/"), nil
}
