package runtime

import (
	"encoding/binary"
	"fmt"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/rtcode"
)

func readWord(stream []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(stream[off : off+4])
}

// Step executes exactly one runtime instruction on th's current frame
// (§4.5). It returns done=true when th has died (its root frame returned)
// or the process has exited.
func (ex *Executor) Step(th *Thread) (done bool, err error) {
	frame := th.CurrentFrame()
	if frame == nil {
		th.State = ThreadDead
		return true, nil
	}
	stream := frame.Func.RuntimeStream
	if frame.IP >= uint32(len(stream)) {
		return false, fmt.Errorf("pnmodule: instruction pointer %d past end of stream (len %d)", frame.IP, len(stream))
	}
	hdr := rtcode.UnpackHeader(readWord(stream, frame.IP))
	base := frame.IP

	word := func(n uint32) uint32 { return readWord(stream, base+4*n) }
	vid := func(n uint32) pnmodule.ValueID {
		w := word(n)
		if w == rtcode.InvalidOperand {
			return pnmodule.InvalidValueID
		}
		return pnmodule.ValueID(w)
	}
	local := func(v pnmodule.ValueID) pnmodule.RuntimeValue {
		if v == pnmodule.InvalidValueID {
			return 0
		}
		return frame.Locals[int(v)]
	}
	setLocal := func(v pnmodule.ValueID, val pnmodule.RuntimeValue) {
		if v != pnmodule.InvalidValueID {
			frame.Locals[int(v)] = val
		}
	}

	ex.trace(TraceInstructions, "tid=%d ip=%d op=%d", th.ID, frame.IP, hdr.Op)

	switch hdr.Op {
	case rtcode.OpBinOp:
		dst, lhs, rhs := vid(1), vid(2), vid(3)
		r, e := evalBinOp(pnmodule.BinOp(hdr.Tag), hdr.Type, local(lhs), local(rhs))
		if e != nil {
			return false, e
		}
		setLocal(dst, r)
		frame.IP += uint32(hdr.NumWords) * 4

	case rtcode.OpCast:
		dst, src := vid(1), vid(2)
		srcType := frame.Func.Values[int(src)].TypeID
		srcBasic, _ := ex.basicOf(srcType)
		r, e := evalCast(pnmodule.CastOp(hdr.Tag), srcBasic, hdr.Type, local(src))
		if e != nil {
			return false, e
		}
		setLocal(dst, r)
		frame.IP += uint32(hdr.NumWords) * 4

	case rtcode.OpCmp2:
		dst, lhs, rhs := vid(1), vid(2), vid(3)
		r, e := evalCmp2(pnmodule.Cmp2Pred(hdr.Tag), hdr.Type, local(lhs), local(rhs))
		if e != nil {
			return false, e
		}
		setLocal(dst, r)
		frame.IP += uint32(hdr.NumWords) * 4

	case rtcode.OpVSelect:
		dst, cond, tv, fv := vid(1), vid(2), vid(3), vid(4)
		if local(cond).Bool() {
			setLocal(dst, local(tv))
		} else {
			setLocal(dst, local(fv))
		}
		frame.IP += uint32(hdr.NumWords) * 4

	case rtcode.OpAlloca:
		dst, size := vid(1), vid(2)
		align := word(3)
		addr, e := th.Arena.Alloc(uint32(local(size).U64()), align)
		if e != nil {
			return false, e
		}
		setLocal(dst, pnmodule.RuntimeValue(addr))
		frame.IP += uint32(hdr.NumWords) * 4

	case rtcode.OpLoad:
		dst, addr := vid(1), vid(2)
		v, e := ex.Mem.Load(uint32(local(addr).U64()), WidthOf(hdr.Type))
		if e != nil {
			return false, e
		}
		setLocal(dst, v)
		frame.IP += uint32(hdr.NumWords) * 4

	case rtcode.OpStore:
		addr, val := vid(1), vid(2)
		if e := ex.Mem.Store(uint32(local(addr).U64()), WidthOf(hdr.Type), local(val)); e != nil {
			return false, e
		}
		frame.IP += uint32(hdr.NumWords) * 4

	case rtcode.OpBr:
		target := word(1)
		if e := ex.takeEdge(th, frame, target); e != nil {
			return false, e
		}

	case rtcode.OpBrCond:
		cond, trueT, falseT := vid(1), word(2), word(3)
		target := falseT
		if local(cond).Bool() {
			target = trueT
		}
		if e := ex.takeEdge(th, frame, target); e != nil {
			return false, e
		}

	case rtcode.OpSwitch:
		val := local(vid(1))
		defaultTarget := word(2)
		numCases := word(3)
		target := defaultTarget
		for i := uint32(0); i < numCases; i++ {
			lo := word(4 + i*3)
			hi := word(4 + i*3 + 1)
			tgt := word(4 + i*3 + 2)
			caseVal := uint64(lo) | uint64(hi)<<32
			if val.U64() == caseVal {
				target = tgt
				break
			}
		}
		if e := ex.takeEdge(th, frame, target); e != nil {
			return false, e
		}

	case rtcode.OpUnreachable:
		return false, fmt.Errorf("pnmodule: UNREACHABLE reached in %q at ip=%d", frame.Func.Name, frame.IP)

	case rtcode.OpRet:
		retVal := local(vid(1))
		return ex.doReturn(th, retVal)

	case rtcode.OpCall, rtcode.OpCallIndirect:
		return ex.doCall(th, frame, hdr, base, word, vid, local, setLocal)

	default:
		return false, fmt.Errorf("pnmodule: unrecognized runtime opcode %d", hdr.Op)
	}
	return false, nil
}

func (ex *Executor) basicOf(t pnmodule.TypeID) (pnmodule.BasicType, error) {
	ty, err := ex.Module.Types.Get(t)
	if err != nil {
		return pnmodule.BasicInvalid, err
	}
	return ty.Basic(), nil
}

// takeEdge applies the two-phase phi-assign protocol for the edge from
// frame's current block to the block starting at target, then jumps.
func (ex *Executor) takeEdge(th *Thread, frame *CallFrame, target uint32) error {
	fn := frame.Func
	targetBB, ok := fn.BBByOffset[target]
	if !ok {
		return fmt.Errorf("pnmodule: branch target %d is not a basic-block start in %q", target, fn.Name)
	}
	assigns := fn.BBs[frame.CurrentBB].PhiAssigns[targetBB]
	if len(assigns) > 0 {
		tmp := make([]pnmodule.RuntimeValue, len(assigns))
		for i, a := range assigns {
			tmp[i] = frame.Locals[int(a.Src)]
		}
		for i, a := range assigns {
			frame.Locals[int(a.Dest)] = tmp[i]
		}
	}
	frame.IP = target
	frame.CurrentBB = targetBB
	return nil
}

// doReturn pops th's current frame, propagating retVal into the caller's
// return slot, or ending the thread (and, for the main thread, the
// process) if the popped frame was a thread root.
func (ex *Executor) doReturn(th *Thread, retVal pnmodule.RuntimeValue) (done bool, err error) {
	popped := th.PopFrame()
	if popped.IsThreadRoot {
		th.State = ThreadDead
		th.ExitCode = int32(retVal.U64())
		if th.IsMain {
			ex.Exited = true
			ex.ExitCode = th.ExitCode
		}
		return true, nil
	}
	caller := th.CurrentFrame()
	if caller == nil {
		return false, fmt.Errorf("pnmodule: return with no caller frame and no thread-root marker")
	}
	if popped.ReturnSlot != pnmodule.InvalidValueID {
		caller.Locals[int(popped.ReturnSlot)] = retVal
	}
	return false, nil
}
