// Package pyparse wraps tree-sitter's Python grammar (spec §6.1's external
// Parser interface). Tree-sitter parsers require CGO_ENABLED=1; a single
// pooled *tree_sitter.Parser is reused across files and guarded by a mutex
// since tree-sitter parsers are not safe for concurrent use -- trees
// returned from parsing are safe to read concurrently afterwards.
package pyparse

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// Tree wraps a parsed syntax tree together with the source bytes it was
// parsed from, so callers never need to thread content and tree together
// by hand. Close must be called when done to release tree-sitter memory.
type Tree struct {
	Path    string
	Content []byte
	inner   *tree_sitter.Tree
}

// Root returns the tree's root node.
func (t *Tree) Root() *tree_sitter.Node {
	return t.inner.RootNode()
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.inner != nil {
		t.inner.Close()
	}
}

// Parser holds a pooled tree-sitter parser for Python source.
type Parser struct {
	mu     sync.Mutex
	python *tree_sitter.Parser
}

// New creates a Parser with the Python grammar loaded.
func New() (*Parser, error) {
	p := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_python.Language())
	if err := p.SetLanguage(lang); err != nil {
		p.Close()
		return nil, fmt.Errorf("set python language: %w", err)
	}
	return &Parser{python: p}, nil
}

// Close releases the pooled parser.
func (p *Parser) Close() {
	if p.python != nil {
		p.python.Close()
	}
}

// Parse parses source content from path. The caller must call Tree.Close
// when done. Safe to call concurrently; parsing itself is serialized.
func (p *Parser) Parse(content []byte, path string) (*Tree, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree := p.python.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("%s: tree-sitter parse returned nil", path)
	}
	return &Tree{Path: path, Content: content, inner: tree}, nil
}
