package emit

import (
	"sort"
	"strings"

	"github.com/go-cribo/cribo/pkg/types"
)

// namespaceHelperDefinition is the tiny runtime shim every bundle that uses
// whole-module imports needs: a bare attribute container, synthesized once
// near the top of the bundle. Its attributes are bound to direct
// references to final names (spec §4.6.4: "direct references ... not
// dynamic lookups"), so this class only exists to give the namespace
// object an identity and a readable repr; it holds no behavior of its own.
const namespaceHelperDefinition = `class _BundledNamespace:
    def __init__(self, _name):
        self.__name__ = _name

    def __repr__(self):
        return "<module '" + self.__name__ + "'>"
`

// RenderNamespace renders a Namespace (spec §4.6.4) as source text: one
// "name = _BundledNamespace('dotted')" construction line, followed by one
// attribute assignment per export, each referencing the symbol's final
// bundle name directly. An "import p.s.t" chain renders depth-first so a
// parent namespace exists before a child is assigned onto it.
func RenderNamespace(ns *types.Namespace) string {
	var b strings.Builder
	writeNamespace(&b, ns, "")
	return b.String()
}

func writeNamespace(b *strings.Builder, ns *types.Namespace, parentPath string) {
	path := ns.LocalName
	if parentPath != "" {
		path = parentPath + "." + ns.LocalName
	}

	b.WriteString(path)
	b.WriteString(" = _BundledNamespace(")
	b.WriteString(quotePy(ns.Dotted))
	b.WriteString(")\n")

	for _, attr := range ns.AttrOrder {
		b.WriteString(path)
		b.WriteString(".")
		b.WriteString(attr)
		b.WriteString(" = ")
		b.WriteString(ns.Attrs[attr])
		b.WriteString("\n")
	}

	children := make([]string, 0, len(ns.Children))
	for seg := range ns.Children {
		children = append(children, seg)
	}
	sort.Strings(children)
	for _, seg := range children {
		writeNamespace(b, ns.Children[seg], path)
	}
}

func quotePy(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}
