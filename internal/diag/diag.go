// Package diag implements the bundler's error taxonomy (spec §7): a closed
// set of diagnostic kinds, each carrying enough context (module, position,
// involved names) to act on without reading the bundler's own source.
package diag

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind is the closed set of error kinds from spec §7.
type Kind int

const (
	ConfigurationError Kind = iota
	ParseError
	ClassificationError
	CyclicDependency
	StarImportWithoutAll
	SymbolAssignmentFailure
	GlobalsLiftingFailure
	InternalInvariantViolation
)

func (k Kind) String() string {
	switch k {
	case ConfigurationError:
		return "ConfigurationError"
	case ParseError:
		return "ParseError"
	case ClassificationError:
		return "ClassificationError"
	case CyclicDependency:
		return "CyclicDependency"
	case StarImportWithoutAll:
		return "StarImportWithoutAll"
	case SymbolAssignmentFailure:
		return "SymbolAssignmentFailure"
	case GlobalsLiftingFailure:
		return "GlobalsLiftingFailure"
	case InternalInvariantViolation:
		return "InternalInvariantViolation"
	default:
		return "Unknown"
	}
}

// Position is a 1-based line/column within a source file.
type Position struct {
	Line   int
	Column int
}

// Diagnostic is one fatal or non-fatal condition surfaced by the bundler.
// It implements the error interface so it can be returned and wrapped like
// any other Go error.
type Diagnostic struct {
	RunID  string // correlates diagnostics from one bundler invocation
	Kind   Kind
	Module string // dotted module name, empty if not module-specific
	File   string
	Pos    Position
	Detail string
	Names  []string // involved identifiers, e.g. a cycle path or a symbol
	Fatal  bool
}

func (d *Diagnostic) Error() string {
	loc := d.File
	if d.Pos.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", d.File, d.Pos.Line, d.Pos.Column)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Kind, d.Detail)
}

// Bag collects diagnostics over the course of a bundler run. Fatal
// diagnostics halt the pipeline; non-fatal ones are merely recorded.
type Bag struct {
	RunID string
	Items []*Diagnostic
}

// NewBag creates a diagnostic bag tagged with a fresh run id.
func NewBag() *Bag {
	return &Bag{RunID: uuid.NewString()}
}

// New builds a Diagnostic stamped with the bag's run id and appends it.
func (b *Bag) New(kind Kind, fatal bool, detail string) *Diagnostic {
	d := &Diagnostic{RunID: b.RunID, Kind: kind, Detail: detail, Fatal: fatal}
	b.Items = append(b.Items, d)
	return d
}

// HasFatal reports whether any recorded diagnostic is fatal.
func (b *Bag) HasFatal() bool {
	for _, d := range b.Items {
		if d.Fatal {
			return true
		}
	}
	return false
}

// FirstFatal returns the first fatal diagnostic, or nil.
func (b *Bag) FirstFatal() *Diagnostic {
	for _, d := range b.Items {
		if d.Fatal {
			return d
		}
	}
	return nil
}
