package analyzer

import (
	"fmt"

	"github.com/pnacl-run/pnexec/pnmodule"
)

// ComputePhiAssigns inverts every phi's incoming pairs into per-
// predecessor phi-assign lists (§4.4.3): each predecessor block gets a
// PhiAssigns[successor] list of (dest, src) writes to perform on that
// edge. When dedupe is true, identical (predecessor, dest, src) triples
// are folded; a predecessor naming the same dest with two different
// sources within one target block's phis is a fatal error.
func ComputePhiAssigns(fn *pnmodule.Function, dedupe bool) error {
	for bi := range fn.BBs {
		fn.BBs[bi].PhiAssigns = make(map[int32][]pnmodule.PhiAssign)
	}

	for bi := range fn.BBs {
		bb := &fn.BBs[bi]
		for _, inst := range bb.Instructions {
			if inst.Kind != pnmodule.InstPhi {
				continue
			}
			for _, in := range inst.Incoming {
				pred := &fn.BBs[in.BB]
				assign := pnmodule.PhiAssign{Dest: inst.ResultID, Src: in.Value}
				existing := pred.PhiAssigns[int32(bi)]

				if dedupe {
					dup := false
					for _, e := range existing {
						if e.Dest == assign.Dest {
							if e.Src != assign.Src {
								return fmt.Errorf("pnmodule: predecessor bb=%d writes both %d and %d to phi dest %d in bb=%d: %w",
									in.BB, e.Src, assign.Src, assign.Dest, bi, ErrPhiConflict)
							}
							dup = true
							break
						}
					}
					if dup {
						continue
					}
				}
				pred.PhiAssigns[int32(bi)] = append(existing, assign)
			}
		}
	}
	return nil
}

// ComputePredecessors derives Predecessors from every block's Successors
// (§4.4.4, optional but always run here since the executor's edge-walk
// and the testable-property checks both rely on it).
func ComputePredecessors(fn *pnmodule.Function) {
	for bi := range fn.BBs {
		fn.BBs[bi].Predecessors = nil
	}
	for bi := range fn.BBs {
		for _, s := range fn.BBs[bi].Successors {
			fn.BBs[s].Predecessors = append(fn.BBs[s].Predecessors, int32(bi))
		}
	}
}
