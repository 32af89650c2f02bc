package symbols

import (
	"strings"

	"github.com/fatih/camelcase"
)

// stableSuffix computes the shortest non-empty dotted-name suffix of
// module (e.g. "mod", "sub_mod", "pkg_sub_mod") used to disambiguate a
// colliding symbol (spec §4.5 point 2). Each dotted segment is itself
// word-split on camelCase/PascalCase boundaries and rejoined with
// underscores, so "myPkg.subMod" yields candidate suffixes "sub_mod",
// "my_pkg_sub_mod".
func stableSuffix(dottedModule string, depth int) string {
	segments := strings.Split(dottedModule, ".")
	if depth > len(segments) {
		depth = len(segments)
	}
	tail := segments[len(segments)-depth:]

	var words []string
	for _, seg := range tail {
		words = append(words, splitWords(seg)...)
	}
	return strings.ToLower(strings.Join(words, "_"))
}

func splitWords(segment string) []string {
	var out []string
	for _, part := range strings.Split(segment, "_") {
		if part == "" {
			continue
		}
		out = append(out, camelcase.Split(part)...)
	}
	if len(out) == 0 {
		return []string{segment}
	}
	return out
}

// segmentCount returns the number of dotted segments in module, used as the
// upper bound on how many suffix lengths the registry will try.
func segmentCount(dottedModule string) int {
	return len(strings.Split(dottedModule, "."))
}
