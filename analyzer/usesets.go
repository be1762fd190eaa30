package analyzer

import "github.com/pnacl-run/pnexec/pnmodule"

const noBlock = int32(-1)

// defBlocks maps every value id defined by an instruction to the block
// that defines it; args and constants map to noBlock since they are
// function-scope, not block-scope, and therefore always count as an
// external use wherever referenced.
func defBlocks(fn *pnmodule.Function) map[pnmodule.ValueID]int32 {
	m := make(map[pnmodule.ValueID]int32, len(fn.Values))
	for i, v := range fn.Values {
		if v.Kind != pnmodule.ValueLocalVar {
			m[pnmodule.ValueID(i)] = noBlock
		}
	}
	for bi := range fn.BBs {
		for _, inst := range fn.BBs[bi].Instructions {
			if inst.ResultID != pnmodule.InvalidValueID {
				m[inst.ResultID] = int32(bi)
			}
		}
	}
	return m
}

func operandsOf(inst *pnmodule.Instruction) []pnmodule.ValueID {
	var ids []pnmodule.ValueID
	add := func(v pnmodule.ValueID) {
		if v != pnmodule.InvalidValueID {
			ids = append(ids, v)
		}
	}
	switch inst.Kind {
	case pnmodule.InstBinOp:
		add(inst.LHS)
		add(inst.RHS)
	case pnmodule.InstCast:
		add(inst.Operand)
	case pnmodule.InstRet:
		add(inst.RetValue)
	case pnmodule.InstBr:
		add(inst.Cond)
	case pnmodule.InstSwitch:
		add(inst.SwitchValue)
	case pnmodule.InstAlloca:
		add(inst.Size)
	case pnmodule.InstLoad:
		add(inst.Addr)
	case pnmodule.InstStore:
		add(inst.Addr)
		add(inst.StoreValue)
	case pnmodule.InstCmp2:
		add(inst.LHS)
		add(inst.RHS)
	case pnmodule.InstVSelect:
		add(inst.Cond)
		add(inst.TrueVal)
		add(inst.FalseVal)
	case pnmodule.InstCall:
		add(inst.Callee)
		for _, a := range inst.CallArgs {
			add(a)
		}
	case pnmodule.InstForwardTypeRef:
		add(inst.ForwardID)
	}
	return ids
}

// ComputeUseSets fills bb.Uses (external uses) and bb.PhiUses (this
// block's phis' incoming pairs) for every block in fn (§4.4.2).
func ComputeUseSets(fn *pnmodule.Function) {
	defs := defBlocks(fn)
	for bi := range fn.BBs {
		bb := &fn.BBs[bi]
		bb.Uses = make(map[pnmodule.ValueID]bool)
		for _, inst := range bb.Instructions {
			for _, operand := range operandsOf(&inst) {
				if defs[operand] != int32(bi) {
					bb.Uses[operand] = true
				}
			}
			if inst.Kind == pnmodule.InstPhi {
				bb.PhiUses = append(bb.PhiUses, inst.Incoming...)
			}
		}
	}
}
