package emit

import (
	"bytes"

	"github.com/go-cribo/cribo/pkg/types"
)

// DecideStrategies assigns each module's Strategy field (spec §4.6.1).
// Wrapped applies to modules that hold function-scoped first-party imports
// (original or rewriter-moved, §4.3), to the targets of such imports
// (they must be registered in sys.modules when the deferred import runs),
// and to modules calling the `globals()`/`locals()` builtins; everything
// else inlines. A cycle that could not be resolved to FunctionLevel has
// already aborted the pipeline by this point (spec §4.7), so the
// "rescued by wrapping" trigger spec.md §4.6.1 mentions never applies here.
func DecideStrategies(modules []*types.Module) {
	for _, m := range modules {
		if m.HasFunctionScopedImports || m.NeedsModuleObject || usesGlobalsBuiltin(m.Source) {
			m.Strategy = types.StrategyWrapped
			continue
		}
		m.Strategy = types.StrategyInline
	}
}

// usesGlobalsBuiltin is a conservative textual scan for the `globals(` or
// `locals(` call forms, which require a real module `__dict__` object and
// so disqualify a module from inlining (spec §4.6.1).
func usesGlobalsBuiltin(src []byte) bool {
	return bytes.Contains(src, []byte("globals(")) || bytes.Contains(src, []byte("locals("))
}
