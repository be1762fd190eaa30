// Package analyzer runs the post-parse passes over a freshly parsed
// function: result-type inference, use-set and phi-assign computation,
// optional liveness, and opcode lowering to the runtime instruction
// stream.
package analyzer

import (
	"fmt"

	"github.com/pnacl-run/pnexec/pnmodule"
)

// valueType returns the type of id within fn, and whether it is known yet.
func valueType(fn *pnmodule.Function, id pnmodule.ValueID) (pnmodule.TypeID, bool) {
	idx := int(id)
	if idx < 0 || idx >= len(fn.Values) {
		return pnmodule.InvalidTypeID, false
	}
	t := fn.Values[idx].TypeID
	return t, t != pnmodule.InvalidTypeID
}

func setValueType(fn *pnmodule.Function, id pnmodule.ValueID, t pnmodule.TypeID) {
	fn.Values[int(id)].TypeID = t
}

// unify implements the binop/vselect operand-type unifier: identical types
// unify trivially; a function-pointer type unifies with i32 (both have
// basic type i32, §3).
func unify(m *pnmodule.Module, a, b pnmodule.TypeID) (pnmodule.TypeID, bool) {
	if a == b {
		return a, true
	}
	ta, err := m.Types.Get(a)
	if err != nil {
		return 0, false
	}
	tb, err := m.Types.Get(b)
	if err != nil {
		return 0, false
	}
	if ta.Basic() == tb.Basic() {
		// Prefer a concrete (non-function) type when one side is a
		// function pointer coerced to/from i32.
		if ta.Kind == pnmodule.TypeFunction {
			return b, true
		}
		return a, true
	}
	return 0, false
}

func i32TypeID(m *pnmodule.Module) pnmodule.TypeID {
	for i := 0; i < m.Types.Len(); i++ {
		t, _ := m.Types.Get(pnmodule.TypeID(i))
		if t.Kind == pnmodule.TypeInteger && t.Width == 32 {
			return pnmodule.TypeID(i)
		}
	}
	return m.Types.Append(pnmodule.Type{Kind: pnmodule.TypeInteger, Width: 32})
}

// InferResultTypes runs the fixed-point worklist described in §4.4.1:
// binop and vselect result types are the unified type of their operands;
// alloca results are always i32. Remaining unresolved instructions after
// the fixed point is reached are a fatal error.
func InferResultTypes(m *pnmodule.Module, fn *pnmodule.Function) error {
	i32 := i32TypeID(m)

	// Alloca results never depend on anything else; resolve immediately.
	for bi := range fn.BBs {
		bb := &fn.BBs[bi]
		for ii := range bb.Instructions {
			inst := &bb.Instructions[ii]
			if inst.Kind == pnmodule.InstAlloca && inst.ResultType == pnmodule.InvalidTypeID {
				inst.ResultType = i32
				setValueType(fn, inst.ResultID, i32)
			}
		}
	}

	type pending struct {
		bb, ii int
	}
	var worklist []pending
	for bi := range fn.BBs {
		for ii, inst := range fn.BBs[bi].Instructions {
			if (inst.Kind == pnmodule.InstBinOp || inst.Kind == pnmodule.InstVSelect) && inst.ResultType == pnmodule.InvalidTypeID {
				worklist = append(worklist, pending{bi, ii})
			}
		}
	}

	for progress := true; progress && len(worklist) > 0; {
		progress = false
		var remaining []pending
		for _, p := range worklist {
			inst := &fn.BBs[p.bb].Instructions[p.ii]
			var a, b pnmodule.ValueID
			switch inst.Kind {
			case pnmodule.InstBinOp:
				a, b = inst.LHS, inst.RHS
			case pnmodule.InstVSelect:
				a, b = inst.TrueVal, inst.FalseVal
			}
			ta, okA := valueType(fn, a)
			tb, okB := valueType(fn, b)
			if !okA || !okB {
				remaining = append(remaining, p)
				continue
			}
			unified, ok := unify(m, ta, tb)
			if !ok {
				return fmt.Errorf("pnmodule: type inference failed for instruction bb=%d idx=%d (operand types %v, %v don't unify): %w", p.bb, p.ii, ta, tb, ErrTypeInfer)
			}
			inst.ResultType = unified
			setValueType(fn, inst.ResultID, unified)
			progress = true
		}
		worklist = remaining
	}
	if len(worklist) > 0 {
		p := worklist[0]
		return fmt.Errorf("pnmodule: type inference did not converge for bb=%d idx=%d: %w", p.bb, p.ii, ErrTypeInfer)
	}
	return nil
}
