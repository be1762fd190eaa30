package analyzer

import (
	"encoding/binary"
	"fmt"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/rtcode"
)

// LowerFunction specializes fn's instructions into the dense runtime
// instruction stream the executor dispatches over (§4.4.6). It must run
// after InferResultTypes, ComputeUseSets, ComputePhiAssigns and
// ComputePredecessors: result types must be final, and phi-assign writes
// are consulted directly from bb.PhiAssigns at edge-walk time rather than
// serialized into the stream (a documented simplification of the literal
// "phi_assigns trailer" wording — see design notes; the executor performs
// the identical two-phase read-then-write protocol, just driven from the
// in-memory table instead of a re-parsed trailer).
//
// Lowering is two passes: the first computes each basic block's stream
// offset (every instruction is whole words, so blocks start word-aligned
// for free); the second emits bytes with branch operands resolved to the
// target block's now-known offset.
func LowerFunction(m *pnmodule.Module, fn *pnmodule.Function) error {
	offsets := make([]uint32, len(fn.BBs))
	cursor := uint32(0)
	for bi := range fn.BBs {
		offsets[bi] = cursor
		for ii := range fn.BBs[bi].Instructions {
			words, err := instructionWords(m, fn, &fn.BBs[bi].Instructions[ii])
			if err != nil {
				return err
			}
			cursor += words * 4
		}
	}

	buf := make([]byte, 0, cursor)
	byOffset := make(map[uint32]int32, len(fn.BBs))
	for bi := range fn.BBs {
		byOffset[offsets[bi]] = int32(bi)
		fn.BBs[bi].StreamOffset = offsets[bi]
		for ii := range fn.BBs[bi].Instructions {
			var err error
			buf, err = emitInstruction(m, fn, &fn.BBs[bi].Instructions[ii], offsets, buf)
			if err != nil {
				return err
			}
		}
	}

	fn.RuntimeStream = buf
	fn.BBByOffset = byOffset
	return nil
}

func basicOf(m *pnmodule.Module, id pnmodule.TypeID) pnmodule.BasicType {
	t, err := m.Types.Get(id)
	if err != nil {
		return pnmodule.BasicInvalid
	}
	return t.Basic()
}

func valueBasic(m *pnmodule.Module, fn *pnmodule.Function, v pnmodule.ValueID) pnmodule.BasicType {
	if v == pnmodule.InvalidValueID {
		return pnmodule.BasicVoid
	}
	return basicOf(m, fn.Values[int(v)].TypeID)
}

// instructionWords returns inst's encoded length in 4-byte words without
// resolving branch targets (target resolution never changes length).
func instructionWords(m *pnmodule.Module, fn *pnmodule.Function, inst *pnmodule.Instruction) (uint32, error) {
	switch inst.Kind {
	case pnmodule.InstBinOp:
		if !rtcode.ValidateBinOp(inst.BinOp, basicOf(m, inst.ResultType)) {
			return 0, fmt.Errorf("pnmodule: binop %d not specialized for type %v: %w", inst.BinOp, basicOf(m, inst.ResultType), ErrSpecialize)
		}
		return 4, nil
	case pnmodule.InstCast:
		return 3, nil
	case pnmodule.InstRet:
		return 2, nil
	case pnmodule.InstBr:
		if inst.Cond == pnmodule.InvalidValueID {
			return 2, nil
		}
		return 4, nil
	case pnmodule.InstSwitch:
		return 4 + uint32(len(inst.Cases))*3, nil
	case pnmodule.InstUnreachable:
		return 1, nil
	case pnmodule.InstPhi:
		return 0, nil // phis carry no runtime footprint; see LowerFunction doc
	case pnmodule.InstAlloca:
		return 4, nil
	case pnmodule.InstLoad:
		return 3, nil
	case pnmodule.InstStore:
		return 3, nil
	case pnmodule.InstCmp2:
		return 4, nil
	case pnmodule.InstVSelect:
		return 5, nil
	case pnmodule.InstCall, pnmodule.InstCallIndirect:
		return 5 + uint32(len(inst.CallArgs)), nil
	case pnmodule.InstForwardTypeRef:
		return 0, nil
	}
	return 0, fmt.Errorf("pnmodule: unrecognized instruction kind %d", inst.Kind)
}

func putWord(buf []byte, w uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], w)
	return append(buf, tmp[:]...)
}

func emitInstruction(m *pnmodule.Module, fn *pnmodule.Function, inst *pnmodule.Instruction, bbOffsets []uint32, buf []byte) ([]byte, error) {
	words, err := instructionWords(m, fn, inst)
	if err != nil {
		return nil, err
	}
	hdr := func(op rtcode.Op, t pnmodule.BasicType, tag byte) uint32 {
		if words > 255 {
			words = 255 // NumWords is one byte; switch, which always branches, never advances by it
		}
		return rtcode.Header{Op: op, Type: t, Tag: tag, NumWords: byte(words)}.Pack()
	}
	operand := func(v pnmodule.ValueID) uint32 {
		if v == pnmodule.InvalidValueID {
			return rtcode.InvalidOperand
		}
		return uint32(v)
	}

	switch inst.Kind {
	case pnmodule.InstBinOp:
		buf = putWord(buf, hdr(rtcode.OpBinOp, basicOf(m, inst.ResultType), byte(inst.BinOp)))
		buf = putWord(buf, operand(inst.ResultID))
		buf = putWord(buf, operand(inst.LHS))
		buf = putWord(buf, operand(inst.RHS))

	case pnmodule.InstCast:
		buf = putWord(buf, hdr(rtcode.OpCast, basicOf(m, inst.ResultType), byte(inst.CastOp)))
		buf = putWord(buf, operand(inst.ResultID))
		buf = putWord(buf, operand(inst.Operand))

	case pnmodule.InstRet:
		buf = putWord(buf, hdr(rtcode.OpRet, valueBasic(m, fn, inst.RetValue), 0))
		buf = putWord(buf, operand(inst.RetValue))

	case pnmodule.InstBr:
		if inst.Cond == pnmodule.InvalidValueID {
			buf = putWord(buf, hdr(rtcode.OpBr, pnmodule.BasicVoid, 0))
			buf = putWord(buf, bbOffsets[inst.TrueTarget])
		} else {
			buf = putWord(buf, hdr(rtcode.OpBrCond, pnmodule.BasicI1, 0))
			buf = putWord(buf, operand(inst.Cond))
			buf = putWord(buf, bbOffsets[inst.TrueTarget])
			buf = putWord(buf, bbOffsets[inst.FalseTarget])
		}

	case pnmodule.InstSwitch:
		buf = putWord(buf, hdr(rtcode.OpSwitch, valueBasic(m, fn, inst.SwitchValue), 0))
		buf = putWord(buf, operand(inst.SwitchValue))
		buf = putWord(buf, bbOffsets[inst.DefaultTarget])
		buf = putWord(buf, uint32(len(inst.Cases)))
		for _, c := range inst.Cases {
			buf = putWord(buf, uint32(uint64(c.Value)))
			buf = putWord(buf, uint32(uint64(c.Value)>>32))
			buf = putWord(buf, bbOffsets[c.Target])
		}

	case pnmodule.InstUnreachable:
		buf = putWord(buf, hdr(rtcode.OpUnreachable, pnmodule.BasicVoid, 0))

	case pnmodule.InstPhi, pnmodule.InstForwardTypeRef:
		// no runtime footprint

	case pnmodule.InstAlloca:
		buf = putWord(buf, hdr(rtcode.OpAlloca, basicOf(m, inst.ResultType), 0))
		buf = putWord(buf, operand(inst.ResultID))
		buf = putWord(buf, operand(inst.Size))
		buf = putWord(buf, inst.Alignment)

	case pnmodule.InstLoad:
		buf = putWord(buf, hdr(rtcode.OpLoad, basicOf(m, inst.ResultType), 0))
		buf = putWord(buf, operand(inst.ResultID))
		buf = putWord(buf, operand(inst.Addr))

	case pnmodule.InstStore:
		buf = putWord(buf, hdr(rtcode.OpStore, valueBasic(m, fn, inst.StoreValue), 0))
		buf = putWord(buf, operand(inst.Addr))
		buf = putWord(buf, operand(inst.StoreValue))

	case pnmodule.InstCmp2:
		buf = putWord(buf, hdr(rtcode.OpCmp2, valueBasic(m, fn, inst.LHS), byte(inst.Pred)))
		buf = putWord(buf, operand(inst.ResultID))
		buf = putWord(buf, operand(inst.LHS))
		buf = putWord(buf, operand(inst.RHS))

	case pnmodule.InstVSelect:
		buf = putWord(buf, hdr(rtcode.OpVSelect, basicOf(m, inst.ResultType), 0))
		buf = putWord(buf, operand(inst.ResultID))
		buf = putWord(buf, operand(inst.Cond))
		buf = putWord(buf, operand(inst.TrueVal))
		buf = putWord(buf, operand(inst.FalseVal))

	case pnmodule.InstCall, pnmodule.InstCallIndirect:
		op := rtcode.OpCall
		if inst.IsIndirect {
			op = rtcode.OpCallIndirect
		}
		buf = putWord(buf, hdr(op, basicOf(m, inst.ResultType), 0))
		buf = putWord(buf, operand(inst.ResultID))
		buf = putWord(buf, uint32(inst.CalleeFunctionID))
		buf = putWord(buf, operand(inst.Callee))
		buf = putWord(buf, uint32(len(inst.CallArgs)))
		for _, a := range inst.CallArgs {
			buf = putWord(buf, operand(a))
		}

	default:
		return nil, fmt.Errorf("pnmodule: unrecognized instruction kind %d", inst.Kind)
	}
	return buf, nil
}

// LowerModule runs LowerFunction over every non-prototype function.
func LowerModule(m *pnmodule.Module) error {
	for i := range m.Funcs {
		fn := &m.Funcs[i]
		if fn.IsProto {
			continue
		}
		if err := LowerFunction(m, fn); err != nil {
			return fmt.Errorf("pnmodule: lowering function %q: %w", fn.Name, err)
		}
	}
	return nil
}
