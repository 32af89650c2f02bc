package diag

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/pretty"
)

type jsonDiagnostic struct {
	RunID  string   `json:"run_id"`
	Kind   string   `json:"kind"`
	Module string   `json:"module,omitempty"`
	File   string   `json:"file,omitempty"`
	Line   int      `json:"line,omitempty"`
	Column int      `json:"column,omitempty"`
	Detail string   `json:"detail"`
	Names  []string `json:"names,omitempty"`
	Fatal  bool     `json:"fatal"`
}

// JSON renders the bag as a pretty-printed JSON array, one object per
// diagnostic, suitable for `cribo bundle --json`.
func (b *Bag) JSON() ([]byte, error) {
	out := make([]jsonDiagnostic, len(b.Items))
	for i, d := range b.Items {
		out[i] = jsonDiagnostic{
			RunID:  d.RunID,
			Kind:   d.Kind.String(),
			Module: d.Module,
			File:   d.File,
			Line:   d.Pos.Line,
			Column: d.Pos.Column,
			Detail: d.Detail,
			Names:  d.Names,
			Fatal:  d.Fatal,
		}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal diagnostics: %w", err)
	}
	return pretty.Pretty(raw), nil
}
