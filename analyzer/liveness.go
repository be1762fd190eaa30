package analyzer

import "github.com/pnacl-run/pnexec/pnmodule"

// ComputeLiveness runs backward liveness propagation from each block's
// uses and phi-assign writes to its predecessors (§4.4.5, optional). It
// must run after ComputeUseSets and ComputePhiAssigns.
func ComputeLiveness(fn *pnmodule.Function) {
	n := len(fn.BBs)
	for i := 0; i < n; i++ {
		fn.BBs[i].LiveIn = make(map[pnmodule.ValueID]bool)
		fn.BBs[i].LiveOut = make(map[pnmodule.ValueID]bool)
	}

	changed := true
	for changed {
		changed = false
		for bi := n - 1; bi >= 0; bi-- {
			bb := &fn.BBs[bi]
			liveOut := make(map[pnmodule.ValueID]bool)
			for _, s := range bb.Successors {
				for v := range fn.BBs[s].LiveIn {
					liveOut[v] = true
				}
			}
			// values a phi-assign writes on the edge to s are live-out
			// of bb even if bb itself never uses them.
			for _, assigns := range bb.PhiAssigns {
				for _, a := range assigns {
					liveOut[a.Src] = true
				}
			}

			liveIn := make(map[pnmodule.ValueID]bool, len(bb.Uses))
			for v := range bb.Uses {
				liveIn[v] = true
			}
			for v := range liveOut {
				if !definedIn(fn, bi, v) {
					liveIn[v] = true
				}
			}

			if !setsEqual(liveIn, bb.LiveIn) || !setsEqual(liveOut, bb.LiveOut) {
				bb.LiveIn = liveIn
				bb.LiveOut = liveOut
				changed = true
			}
		}
	}
}

func definedIn(fn *pnmodule.Function, bi int, v pnmodule.ValueID) bool {
	for _, inst := range fn.BBs[bi].Instructions {
		if inst.ResultID == v {
			return true
		}
	}
	return false
}

func setsEqual(a, b map[pnmodule.ValueID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
