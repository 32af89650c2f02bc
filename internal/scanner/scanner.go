// Package scanner implements the Module Scanner (spec §4.1): it parses one
// first-party module with pyparse and walks its syntax tree once, emitting
// the item graph that every later stage (dependency graph, rewriter,
// semantic analyzer, symbol registry, emitter) consumes.
package scanner

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/go-cribo/cribo/internal/pyparse"
	"github.com/go-cribo/cribo/pkg/types"
)

// scopeContainerKinds lists the tree-sitter node kinds the scanner treats
// as scope containers (if/while/for/try/with) and recurses into.
var scopeContainerKinds = map[string]bool{
	"if_statement": true, "while_statement": true, "for_statement": true,
	"try_statement": true, "with_statement": true,
}

// Scanner builds an item graph for one module at a time. It holds no
// per-module state between calls, so a single Scanner can be shared across
// the worker pool described in spec §5.
type Scanner struct{}

// New creates a Scanner.
func New() *Scanner { return &Scanner{} }

// Scan walks tree's root module node and returns a populated Module
// (without Path/DottedName/ID set -- the caller fills those in, since the
// scanner has no notion of module identity or classification). The returned
// item list contains every statement of interest at every scope depth, in
// pre-order: a top-level def precedes its own nested statements, which carry
// the def in their scope path. Nested items are what make function-scoped
// imports and `global` statements visible to the dependency graph and the
// semantic analyzer (spec §4.1: "must include all scopes").
func (s *Scanner) Scan(tree *pyparse.Tree) *types.Module {
	m := &types.Module{Source: tree.Content}

	root := tree.Root()
	nextID := 0
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		s.scanStatement(child, tree.Content, &nextID, nil, &m.Items)
	}
	return m
}

// scanStatement converts one module-or-nested-scope statement node into an
// Item, appends it to items, and recurses into function/class bodies.
func (s *Scanner) scanStatement(node *tree_sitter.Node, src []byte, nextID *int, scope []types.ScopePathEntry, items *[]*types.Item) *types.Item {
	item := &types.Item{
		ID:             *nextID,
		Scope:          append([]types.ScopePathEntry(nil), scope...),
		StartByte:      node.StartByte(),
		EndByte:        node.EndByte(),
		Defines:        map[string]bool{},
		ImmediateReads: map[string]bool{},
		DeferredReads:  map[string]bool{},
	}
	*nextID++
	*items = append(*items, item)

	kind := node.Kind()
	inFunctionScope := withinFunctionScope(scope)

	switch kind {
	case "import_statement":
		item.Kind = types.ItemImport
		item.Imports = parseImportStatement(node, src, item.ID, placementFor(scope))
		for _, imp := range item.Imports {
			item.Defines[imp.Alias] = true
		}

	case "import_from_statement":
		item.Kind = types.ItemFromImport
		item.Imports = parseImportFromStatement(node, src, item.ID, placementFor(scope))
		for _, imp := range item.Imports {
			if imp.OriginalName != "*" {
				item.Defines[imp.Alias] = true
			}
		}

	case "future_import_statement":
		// tree-sitter gives `from __future__ import x` its own node kind,
		// with no module_name field.
		item.Kind = types.ItemFromImport
		item.Imports = parseImportFromStatement(node, src, item.ID, placementFor(scope))
		for _, imp := range item.Imports {
			imp.Module = "__future__"
			item.Defines[imp.Alias] = true
		}

	case "function_definition", "decorated_definition":
		if def := node.ChildByFieldName("definition"); kind == "decorated_definition" && def != nil && def.Kind() == "class_definition" {
			s.scanClassDef(def, src, item, nextID, scope, items)
			for i := uint(0); i < node.NamedChildCount(); i++ {
				if c := node.NamedChild(i); c != nil && c.Kind() == "decorator" {
					collectReadsInto(c, src, item.ClassLevelReads)
				}
			}
			break
		}
		s.scanFunctionDef(node, src, item, nextID, scope, items)

	case "class_definition":
		s.scanClassDef(node, src, item, nextID, scope, items)

	case "global_statement", "nonlocal_statement":
		item.Kind = types.ItemGlobal
		item.GlobalNames = identifierList(node, src)

	case "expression_statement":
		s.scanExpressionStatement(node, src, item)

	default:
		if scopeContainerKinds[kind] {
			item.Kind = types.ItemScopeContainer
			s.scanScopeContainerBody(node, src, item, nextID, scope, inFunctionScope, items)
		} else {
			item.Kind = types.ItemExpr
			collectReads(node, src, item, inFunctionScope)
		}
	}

	return item
}

func withinFunctionScope(scope []types.ScopePathEntry) bool {
	for _, e := range scope {
		if e.Kind == types.ItemFunctionDef {
			return true
		}
	}
	return false
}

func placementFor(scope []types.ScopePathEntry) types.ImportPlacement {
	if len(scope) == 0 {
		return types.PlacementModule
	}
	last := scope[len(scope)-1]
	switch last.Kind {
	case types.ItemFunctionDef:
		return types.PlacementFunction
	case types.ItemClassDef:
		return types.PlacementClass
	default:
		return types.PlacementConditional
	}
}

// scanFunctionDef records the function's name as a definition in the
// enclosing scope and recurses into its body with reads classified as
// deferred.
func (s *Scanner) scanFunctionDef(node *tree_sitter.Node, src []byte, item *types.Item, nextID *int, scope []types.ScopePathEntry, items *[]*types.Item) {
	item.Kind = types.ItemFunctionDef

	def := node
	if node.Kind() == "decorated_definition" {
		if d := node.ChildByFieldName("definition"); d != nil {
			def = d
		}
		// Decorators and their arguments are evaluated immediately, at
		// definition time, in the enclosing scope.
		for i := uint(0); i < node.NamedChildCount(); i++ {
			c := node.NamedChild(i)
			if c != nil && c.Kind() == "decorator" {
				collectReads(c, src, item, false)
			}
		}
	}

	nameNode := def.ChildByFieldName("name")
	name := pyparse.Text(nameNode, src)
	item.Name = name
	item.Defines[name] = true

	// Default parameter values and annotations evaluate immediately.
	if params := def.ChildByFieldName("parameters"); params != nil {
		collectReads(params, src, item, false)
	}
	if retType := def.ChildByFieldName("return_type"); retType != nil {
		collectReads(retType, src, item, false)
	}

	childScope := append(append([]types.ScopePathEntry(nil), scope...), types.ScopePathEntry{Kind: types.ItemFunctionDef, Name: name})

	body := def.ChildByFieldName("body")
	if body != nil {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			stmt := body.NamedChild(i)
			if stmt == nil || stmt.Kind() == "comment" {
				continue
			}
			nested := s.scanStatement(stmt, src, nextID, childScope, items)
			// Everything a function body reads -- even what its own nested
			// items classified as immediate relative to themselves -- is
			// deferred from the module's point of view.
			mergeAllAsDeferred(item, nested)
		}
	}
}

// scanClassDef records immediate reads from the base-class list (a
// decorated class's decorators are added by scanStatement) (spec §4.1: "a name read inside a class body at
// class-definition time ... is immediate"), then recurses into the body
// with class-level statements still treated as immediate (their RHS runs
// once, at class-definition time) while nested method bodies are deferred.
func (s *Scanner) scanClassDef(node *tree_sitter.Node, src []byte, item *types.Item, nextID *int, scope []types.ScopePathEntry, items *[]*types.Item) {
	item.Kind = types.ItemClassDef
	item.ClassLevelReads = map[string]bool{}

	nameNode := node.ChildByFieldName("name")
	name := pyparse.Text(nameNode, src)
	item.Name = name
	item.Defines[name] = true

	if bases := node.ChildByFieldName("superclasses"); bases != nil {
		collectReadsInto(bases, src, item.ClassLevelReads)
	}

	childScope := append(append([]types.ScopePathEntry(nil), scope...), types.ScopePathEntry{Kind: types.ItemClassDef, Name: name})

	body := node.ChildByFieldName("body")
	if body != nil {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			stmt := body.NamedChild(i)
			if stmt == nil || stmt.Kind() == "comment" {
				continue
			}
			if stmt.Kind() == "function_definition" || stmt.Kind() == "decorated_definition" {
				nested := s.scanStatement(stmt, src, nextID, childScope, items)
				mergeAllAsDeferred(item, nested)
				continue
			}
			// Non-def class-body statements (class attributes, nested
			// classes at class scope) execute at class-definition time.
			nested := s.scanStatement(stmt, src, nextID, childScope, items)
			for n := range nested.ImmediateReads {
				item.ClassLevelReads[n] = true
			}
			mergeDeferred(item, nested)
		}
	}
}

// scanScopeContainerBody recurses into if/for/while/try/with bodies at
// module (or function) level. Reads inside stay at the same deferred-ness
// as the enclosing scope: immediate if we're still at module level,
// deferred if we're already inside a function.
func (s *Scanner) scanScopeContainerBody(node *tree_sitter.Node, src []byte, item *types.Item, nextID *int, scope []types.ScopePathEntry, inFunctionScope bool, items *[]*types.Item) {
	containerScope := append(append([]types.ScopePathEntry(nil), scope...), types.ScopePathEntry{Kind: types.ItemScopeContainer, Name: node.Kind()})

	tree_sitter_walk_blocks(node, func(stmt *tree_sitter.Node) {
		if stmt == nil || stmt.Kind() == "comment" {
			return
		}
		nested := s.scanStatement(stmt, src, nextID, containerScope, items)
		if inFunctionScope {
			mergeAllAsDeferred(item, nested)
		} else {
			mergeImmediate(item, nested)
			mergeDeferred(item, nested)
		}
	})

	// Non-body expressions (if/while condition, for's iterable, with
	// items) are evaluated immediately regardless of nesting depth inside
	// the container, relative to when the container itself runs.
	for _, field := range []string{"condition", "left", "right"} {
		if n := node.ChildByFieldName(field); n != nil {
			if inFunctionScope {
				collectReadsInto(n, src, item.DeferredReads)
			} else {
				collectReadsInto(n, src, item.ImmediateReads)
			}
		}
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if c := node.NamedChild(i); c != nil && c.Kind() == "with_clause" {
			if inFunctionScope {
				collectReadsInto(c, src, item.DeferredReads)
			} else {
				collectReadsInto(c, src, item.ImmediateReads)
			}
		}
	}
}

// tree_sitter_walk_blocks visits every statement inside every "block"
// descendant of a scope-container node (if/elif/else/for/while/try/
// except/finally/with bodies), without descending into nested function or
// class definitions (those are visited by the recursive call that created
// them as their own items).
func tree_sitter_walk_blocks(node *tree_sitter.Node, visit func(*tree_sitter.Node)) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Kind() == "block" {
			for j := uint(0); j < child.NamedChildCount(); j++ {
				visit(child.NamedChild(j))
			}
			continue
		}
		switch child.Kind() {
		case "elif_clause", "else_clause", "except_clause", "except_group_clause", "finally_clause":
			tree_sitter_walk_blocks(child, visit)
		}
	}
}

// scanExpressionStatement handles the common case of a bare expression,
// assignment, or augmented assignment living directly at this scope.
func (s *Scanner) scanExpressionStatement(node *tree_sitter.Node, src []byte, item *types.Item) {
	inner := node
	if node.NamedChildCount() == 1 {
		inner = node.NamedChild(0)
	}

	switch inner.Kind() {
	case "assignment":
		left := inner.ChildByFieldName("left")
		right := inner.ChildByFieldName("right")
		typ := inner.ChildByFieldName("type")
		if typ != nil {
			item.Kind = types.ItemAnnotatedAssign
		} else {
			item.Kind = types.ItemAssign
		}
		collectAssignTargets(left, src, item.Defines)
		if len(item.Defines) == 1 {
			for n := range item.Defines {
				item.Name = n
			}
		}
		if right != nil {
			collectReadsInto(right, src, item.ImmediateReads)
		}
		if typ != nil {
			collectReadsInto(typ, src, item.ImmediateReads)
		}
	case "augmented_assignment":
		left := inner.ChildByFieldName("left")
		right := inner.ChildByFieldName("right")
		item.Kind = types.ItemAugAssign
		// An augmented target is both read and written.
		collectReadsInto(left, src, item.ImmediateReads)
		collectAssignTargets(left, src, item.Defines)
		if right != nil {
			collectReadsInto(right, src, item.ImmediateReads)
		}
	default:
		item.Kind = types.ItemExpr
		collectReadsInto(inner, src, item.ImmediateReads)
	}
}

func mergeDeferred(into, from *types.Item) {
	for n := range from.DeferredReads {
		into.DeferredReads[n] = true
	}
}

func mergeImmediate(into, from *types.Item) {
	for n := range from.ImmediateReads {
		into.ImmediateReads[n] = true
	}
}

func mergeAllAsDeferred(into, from *types.Item) {
	for n := range from.ImmediateReads {
		into.DeferredReads[n] = true
	}
	for n := range from.DeferredReads {
		into.DeferredReads[n] = true
	}
}

func identifierList(node *tree_sitter.Node, src []byte) []string {
	var out []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c != nil && c.Kind() == "identifier" {
			out = append(out, pyparse.Text(c, src))
		}
	}
	return out
}
