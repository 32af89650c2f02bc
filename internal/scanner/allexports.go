package scanner

import "github.com/go-cribo/cribo/pkg/types"

// DetectAllExports scans m's top-level items for an `__all__` assignment and
// populates HasExplicitAll/AllExports. Only a list/tuple/set literal of
// string literals is honored (spec §4.1); anything else returns false and
// leaves the module on InferExports' names. No note is recorded for it.
func DetectAllExports(m *types.Module) (ok bool) {
	for _, item := range m.Items {
		if len(item.Scope) != 0 {
			continue
		}
		if item.Kind != types.ItemAssign || item.Name != "__all__" {
			continue
		}
		names, literal := stringLiteralElements(m.Source, item)
		if !literal {
			return false
		}
		m.HasExplicitAll = true
		m.AllExports = names
		return true
	}
	return false
}

// stringLiteralElements re-parses the `__all__` item's own source span for
// quoted string elements. This is a lightweight textual scan rather than a
// second tree-sitter pass, consistent with the span-splice printer's own
// textual approach elsewhere in this codebase.
func stringLiteralElements(src []byte, item *types.Item) ([]string, bool) {
	text := string(src[item.StartByte:item.EndByte])
	eq := indexByte(text, '=')
	if eq < 0 {
		return nil, false
	}
	rhs := trimSpace(text[eq+1:])
	if len(rhs) == 0 {
		return nil, false
	}
	open, close := rhs[0], byte(0)
	switch open {
	case '[':
		close = ']'
	case '(':
		close = ')'
	case '{':
		close = '}'
	default:
		return nil, false
	}
	end := lastIndexByte(rhs, close)
	if end < 0 {
		return nil, false
	}
	inner := rhs[1:end]
	var names []string
	for _, part := range splitTopLevelComma(inner) {
		part = trimSpace(part)
		if part == "" {
			continue
		}
		name, ok := unquote(part)
		if !ok {
			return nil, false
		}
		names = append(names, name)
	}
	if open == '{' {
		names = sortedCopy(names)
	}
	return names, true
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && isSpace(s[i]) {
		i++
	}
	for j > i && isSpace(s[j-1]) {
		j--
	}
	return s[i:j]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func splitTopLevelComma(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return "", false
	}
	return s[1 : len(s)-1], true
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// InferExports computes the fallback export set when no valid `__all__` was
// found: every module-level name not prefixed with a single underscore,
// in first-definition order (spec §3's Module.InferredExports).
func InferExports(m *types.Module) {
	seen := map[string]bool{}
	var names []string
	for _, item := range m.Items {
		if len(item.Scope) != 0 {
			continue
		}
		var batch []string
		for name := range item.Defines {
			if seen[name] || isUnderscorePrefixed(name) {
				continue
			}
			seen[name] = true
			batch = append(batch, name)
		}
		// A single item can bind several names ("import a, b", tuple
		// unpacking); order them deterministically since map iteration
		// isn't stable.
		batch = sortedCopy(batch)
		names = append(names, batch...)
	}
	m.InferredExports = names
}

func isUnderscorePrefixed(name string) bool {
	return len(name) > 0 && name[0] == '_'
}
