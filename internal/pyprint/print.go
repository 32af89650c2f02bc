// Package pyprint is the span-splice printer (spec §6.1's external Printer
// interface). There is no Python code-generation library in the retrieval
// pack to drive from a structured AST, so the emitter instead hands this
// package verbatim source byte ranges plus a sorted list of substitutions,
// and pyprint splices them together. This keeps every untouched byte of a
// bundled statement identical to the author's own source, including
// comments and formatting quirks tree-sitter's CST would otherwise discard.
package pyprint

import (
	"sort"
	"strings"
)

// Substitution replaces source[Start:End] with Replacement. Start == End is
// a pure insertion (used for placing moved import statements at the top of
// a function body, for instance). Substitutions of one Unit must not overlap.
type Substitution struct {
	Start       uint
	End         uint
	Replacement string
}

// Splice renders source[start:end] with subs (which must lie within
// [start, end] and be given in any order) applied.
func Splice(source []byte, start, end uint, subs []Substitution) string {
	ordered := append([]Substitution(nil), subs...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	var b strings.Builder
	cursor := start
	for _, s := range ordered {
		if s.Start < cursor || s.End > end {
			continue
		}
		b.Write(source[cursor:s.Start])
		b.WriteString(s.Replacement)
		cursor = s.End
	}
	b.Write(source[cursor:end])
	return b.String()
}

// Unit is one renderable piece of bundle output: either a spliced source
// span (Start < End) or synthesized text with no source span (Start ==
// End == 0, Synthesized set directly).
type Unit struct {
	Source      []byte
	Start, End  uint
	Subs        []Substitution
	Synthesized string
	BlankBefore bool
}

// Printer accumulates Units in final emission order and renders the bundle.
type Printer struct {
	units []Unit
}

// New creates an empty Printer.
func New() *Printer { return &Printer{} }

// Span appends a spliced verbatim source range.
func (p *Printer) Span(source []byte, start, end uint, subs []Substitution) {
	p.units = append(p.units, Unit{Source: source, Start: start, End: end, Subs: subs})
}

// Text appends synthesized text (namespace construction, preserved imports,
// wrapper init functions) that has no corresponding source span.
func (p *Printer) Text(text string) {
	p.units = append(p.units, Unit{Synthesized: text})
}

// SpanBlank is Span preceded by a blank line.
func (p *Printer) SpanBlank(source []byte, start, end uint, subs []Substitution) {
	p.units = append(p.units, Unit{Source: source, Start: start, End: end, Subs: subs, BlankBefore: true})
}

// TextBlank is Text preceded by a blank line.
func (p *Printer) TextBlank(text string) {
	p.units = append(p.units, Unit{Synthesized: text, BlankBefore: true})
}

// Render concatenates every unit into the final bundle source, one
// statement (or synthesized block) per line group, separated by blank
// lines where requested. Byte-deterministic given the same unit sequence
// (spec §4.6.7).
func (p *Printer) Render() []byte {
	var b strings.Builder
	for i, u := range p.units {
		if i > 0 && u.BlankBefore {
			b.WriteString("\n")
		}
		var text string
		if u.Synthesized != "" || (u.Source == nil) {
			text = u.Synthesized
		} else {
			text = Splice(u.Source, u.Start, u.End, u.Subs)
		}
		text = strings.TrimRight(text, "\n")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return []byte(b.String())
}
