package analyzer

import (
	"fmt"

	"github.com/pnacl-run/pnexec/pnmodule"
)

// Analyze runs every analyzer pass over every non-prototype function in m
// (type inference, use sets, predecessors, phi assigns, liveness) and
// lowers the result to each function's runtime instruction stream.
// dedupePhi controls ComputePhiAssigns' dedup-vs-conflict behavior
// (exposed to the CLI as dedupe_phi, §6).
func Analyze(m *pnmodule.Module, dedupePhi bool) error {
	for i := range m.Funcs {
		fn := &m.Funcs[i]
		if fn.IsProto {
			continue
		}
		if err := InferResultTypes(m, fn); err != nil {
			return fmt.Errorf("analyzer: function %q: %w", fn.Name, err)
		}
		ComputeUseSets(fn)
		ComputePredecessors(fn)
		if err := ComputePhiAssigns(fn, dedupePhi); err != nil {
			return fmt.Errorf("analyzer: function %q: %w", fn.Name, err)
		}
		ComputeLiveness(fn)
		if err := LowerFunction(m, fn); err != nil {
			return fmt.Errorf("analyzer: function %q: %w", fn.Name, err)
		}
	}
	return nil
}
