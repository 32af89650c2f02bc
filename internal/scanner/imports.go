package scanner

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/go-cribo/cribo/internal/pyparse"
	"github.com/go-cribo/cribo/pkg/types"
)

// parseImportStatement handles "import a.b.c", "import a as x", and
// "import a, b as y" -- one ImportInfo per comma-separated clause.
func parseImportStatement(node *tree_sitter.Node, src []byte, itemID int, placement types.ImportPlacement) []*types.ImportInfo {
	var out []*types.ImportInfo
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "dotted_name":
			dotted := pyparse.Text(c, src)
			out = append(out, &types.ImportInfo{
				Form:            types.FormImportModule,
				Module:          dotted,
				Alias:           firstSegment(dotted),
				Placement:       placement,
				SideEffecting:   true,
				ReferringItemID: itemID,
			})
		case "aliased_import":
			nameNode := c.ChildByFieldName("name")
			aliasNode := c.ChildByFieldName("alias")
			dotted := pyparse.Text(nameNode, src)
			out = append(out, &types.ImportInfo{
				Form:            types.FormImportModuleAs,
				Module:          dotted,
				Alias:           pyparse.Text(aliasNode, src),
				Placement:       placement,
				SideEffecting:   true,
				ReferringItemID: itemID,
			})
		}
	}
	return out
}

// parseImportFromStatement handles "from m import a, b as c", "from . import
// x", "from ..pkg import *", producing one ImportInfo per imported name (a
// star import yields a single ImportInfo with OriginalName "*").
func parseImportFromStatement(node *tree_sitter.Node, src []byte, itemID int, placement types.ImportPlacement) []*types.ImportInfo {
	moduleNode := node.ChildByFieldName("module_name")
	level, module := relativeModuleParts(moduleNode, src)

	var out []*types.ImportInfo
	sawWildcard := false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c == nil || (moduleNode != nil && c.StartByte() == moduleNode.StartByte() && c.EndByte() == moduleNode.EndByte()) {
			continue
		}
		switch c.Kind() {
		case "wildcard_import":
			sawWildcard = true
			out = append(out, &types.ImportInfo{
				Form:            types.FormFromImportStar,
				Level:           level,
				Module:          module,
				OriginalName:    "*",
				Alias:           "*",
				Placement:       placement,
				SideEffecting:   true,
				ReferringItemID: itemID,
			})
		case "dotted_name", "identifier":
			name := pyparse.Text(c, src)
			out = append(out, &types.ImportInfo{
				Form:            types.FormFromImportName,
				Level:           level,
				Module:          module,
				OriginalName:    name,
				Alias:           name,
				Placement:       placement,
				SideEffecting:   true,
				ReferringItemID: itemID,
			})
		case "aliased_import":
			nameNode := c.ChildByFieldName("name")
			aliasNode := c.ChildByFieldName("alias")
			out = append(out, &types.ImportInfo{
				Form:            types.FormFromImportNameAs,
				Level:           level,
				Module:          module,
				OriginalName:    pyparse.Text(nameNode, src),
				Alias:           pyparse.Text(aliasNode, src),
				Placement:       placement,
				SideEffecting:   true,
				ReferringItemID: itemID,
			})
		}
	}
	if sawWildcard {
		return out[len(out)-1:]
	}
	return out
}

// relativeModuleParts splits a from-import's module clause into its leading
// dot count and the dotted name following the dots. moduleNode may be a
// plain dotted_name, a relative_import node, or nil ("from . import x" with
// no trailing module at all, handled by the caller via node text).
func relativeModuleParts(moduleNode *tree_sitter.Node, src []byte) (int, string) {
	if moduleNode == nil {
		return 0, ""
	}
	switch moduleNode.Kind() {
	case "dotted_name":
		return 0, pyparse.Text(moduleNode, src)
	case "relative_import":
		level := 0
		var dotted string
		for i := uint(0); i < moduleNode.NamedChildCount(); i++ {
			c := moduleNode.NamedChild(i)
			if c == nil {
				continue
			}
			if c.Kind() == "dotted_name" {
				dotted = pyparse.Text(c, src)
			}
		}
		text := pyparse.Text(moduleNode, src)
		for _, r := range text {
			if r == '.' {
				level++
			} else {
				break
			}
		}
		return level, dotted
	default:
		// import_prefix alone ("." or "..") with no following dotted_name.
		text := pyparse.Text(moduleNode, src)
		level := 0
		for _, r := range text {
			if r == '.' {
				level++
			}
		}
		return level, ""
	}
}

func firstSegment(dotted string) string {
	for i, r := range dotted {
		if r == '.' {
			return dotted[:i]
		}
	}
	return dotted
}
