package runtime

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/pnacl-run/pnexec/pnmodule"
)

// Index into pnmodule.KnownIntrinsics.
const (
	intrinsicMemcpy = iota
	intrinsicMemmove
	intrinsicMemset
	intrinsicBswap16
	intrinsicBswap32
	intrinsicBswap64
	intrinsicCtlz32
	intrinsicCtlz64
	intrinsicCttz32
	intrinsicCttz64
	intrinsicFabs32
	intrinsicFabs64
	intrinsicSqrt32
	intrinsicSqrt64
	intrinsicTrap
	intrinsicStacksave
	intrinsicStackrestore
	intrinsicSetjmp
	intrinsicLongjmp
	intrinsicAtomicLoad32
	intrinsicAtomicStore32
	intrinsicAtomicRMW32
	intrinsicAtomicCmpxchg32
	intrinsicAtomicFence
	intrinsicReadTP
)

// Atomic RMW operation codes, carried in the third argument of
// llvm.nacl.atomic.rmw.i32 the way the parser materializes it.
const (
	AtomicRMWAdd = iota
	AtomicRMWSub
	AtomicRMWAnd
	AtomicRMWOr
	AtomicRMWXor
	AtomicRMWXchg
)

// callIntrinsic executes one recognized LLVM intrinsic inline, with no
// frame push (§4.5). Atomic operations run to completion within a single
// dispatch step, which is sufficient for correctness given the model's
// single-thread-advances-at-a-time scheduling (§5).
//
// done reports a process exit triggered by the intrinsic itself (llvm.trap):
// the caller must not write dst in that case, the same way a RET unwinding
// the thread root writes no result.
func (ex *Executor) callIntrinsic(th *Thread, idx int, args []pnmodule.RuntimeValue, dst pnmodule.ValueID) (val pnmodule.RuntimeValue, done bool, err error) {
	switch idx {
	case intrinsicMemcpy, intrinsicMemmove:
		dst, src, n := uint32(args[0].U64()), uint32(args[1].U64()), uint32(args[2].U64())
		data, err := ex.Mem.CopyOut(src, n)
		if err != nil {
			return 0, false, err
		}
		if err := ex.Mem.CopyIn(dst, data); err != nil {
			return 0, false, err
		}
		return args[0], false, nil

	case intrinsicMemset:
		dst, val, n := uint32(args[0].U64()), byte(args[1].U64()), uint32(args[2].U64())
		if err := ex.Mem.Fill(dst, val, n); err != nil {
			return 0, false, err
		}
		return args[0], false, nil

	case intrinsicBswap16:
		return pnmodule.RuntimeValue(bits.ReverseBytes16(args[0].U16())), false, nil
	case intrinsicBswap32:
		return pnmodule.RuntimeValue(bits.ReverseBytes32(args[0].U32())), false, nil
	case intrinsicBswap64:
		return pnmodule.RuntimeValue(bits.ReverseBytes64(args[0].U64())), false, nil

	case intrinsicCtlz32:
		return pnmodule.RuntimeValue(bits.LeadingZeros32(args[0].U32())), false, nil
	case intrinsicCtlz64:
		return pnmodule.RuntimeValue(bits.LeadingZeros64(args[0].U64())), false, nil
	case intrinsicCttz32:
		return pnmodule.RuntimeValue(bits.TrailingZeros32(args[0].U32())), false, nil
	case intrinsicCttz64:
		return pnmodule.RuntimeValue(bits.TrailingZeros64(args[0].U64())), false, nil

	case intrinsicFabs32:
		return pnmodule.RuntimeValueFromF32(float32(math.Abs(float64(args[0].F32())))), false, nil
	case intrinsicFabs64:
		return pnmodule.RuntimeValueFromF64(math.Abs(args[0].F64())), false, nil
	case intrinsicSqrt32:
		return pnmodule.RuntimeValueFromF32(float32(math.Sqrt(float64(args[0].F32())))), false, nil
	case intrinsicSqrt64:
		return pnmodule.RuntimeValueFromF64(math.Sqrt(args[0].F64())), false, nil

	case intrinsicTrap:
		th.State = ThreadDead
		ex.Exited = true
		ex.ExitCode = -1
		return 0, true, nil

	case intrinsicStacksave:
		return pnmodule.RuntimeValue(th.Arena.Mark()), false, nil
	case intrinsicStackrestore:
		th.Arena.Reset(uint32(args[0].U64()))
		return 0, false, nil

	case intrinsicSetjmp:
		v, err := ex.doSetjmp(th, uint32(args[0].U64()), dst)
		return v, false, err
	case intrinsicLongjmp:
		return 0, false, ex.doLongjmp(th, uint32(args[0].U64()), args[1])

	case intrinsicAtomicLoad32:
		v, err := ex.Mem.Load(uint32(args[0].U64()), 4)
		return v, false, err
	case intrinsicAtomicStore32:
		return 0, false, ex.Mem.Store(uint32(args[0].U64()), 4, args[1])
	case intrinsicAtomicRMW32:
		v, err := ex.doAtomicRMW(uint32(args[0].U64()), args[1], int(args[2].U64()))
		return v, false, err
	case intrinsicAtomicCmpxchg32:
		v, err := ex.doAtomicCmpxchg(uint32(args[0].U64()), args[1], args[2])
		return v, false, err
	case intrinsicAtomicFence:
		return 0, false, nil

	case intrinsicReadTP:
		return pnmodule.RuntimeValue(th.TLS), false, nil
	}
	return 0, false, fmt.Errorf("pnmodule: unrecognized intrinsic index %d", idx)
}

func (ex *Executor) doAtomicRMW(addr uint32, operand pnmodule.RuntimeValue, op int) (pnmodule.RuntimeValue, error) {
	old, err := ex.Mem.Load(addr, 4)
	if err != nil {
		return 0, err
	}
	var next uint32
	o, v := old.U32(), operand.U32()
	switch op {
	case AtomicRMWAdd:
		next = o + v
	case AtomicRMWSub:
		next = o - v
	case AtomicRMWAnd:
		next = o & v
	case AtomicRMWOr:
		next = o | v
	case AtomicRMWXor:
		next = o ^ v
	case AtomicRMWXchg:
		next = v
	default:
		return 0, fmt.Errorf("pnmodule: unrecognized atomic rmw op %d", op)
	}
	if err := ex.Mem.Store(addr, 4, pnmodule.RuntimeValue(next)); err != nil {
		return 0, err
	}
	return old, nil
}

func (ex *Executor) doAtomicCmpxchg(addr uint32, expected, desired pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	old, err := ex.Mem.Load(addr, 4)
	if err != nil {
		return 0, err
	}
	if old.U32() == expected.U32() {
		if err := ex.Mem.Store(addr, 4, desired); err != nil {
			return 0, err
		}
	}
	return old, nil
}

// doSetjmp allocates a jmpbuf id, records the current frame's resume point
// (IP/CurrentBB, already advanced past this call) and arena mark, and
// writes the id to bufAddr. Returns 0, the direct-call return value.
func (ex *Executor) doSetjmp(th *Thread, bufAddr uint32, dst pnmodule.ValueID) (pnmodule.RuntimeValue, error) {
	frame := th.CurrentFrame()
	id := ex.NextJmpbufID()
	frame.Jmpbufs = append(frame.Jmpbufs, jmpbufEntry{
		id: id, dest: dst, returnIP: frame.IP, returnBB: frame.CurrentBB, arenaMark: th.Arena.Mark(),
	})
	if err := ex.Mem.Store(bufAddr, 8, pnmodule.RuntimeValue(id)); err != nil {
		return 0, err
	}
	return 0, nil
}

// doLongjmp reads the jmpbuf id from bufAddr and walks th's frame stack
// (most recent first) for the frame that registered it, restoring that
// frame's resume point, arena mark, and writing value to the setjmp call's
// original destination local. An unmatched id is fatal (§4.5).
func (ex *Executor) doLongjmp(th *Thread, bufAddr uint32, value pnmodule.RuntimeValue) error {
	idVal, err := ex.Mem.Load(bufAddr, 8)
	if err != nil {
		return err
	}
	id := idVal.U64()

	for fi := len(th.Frames) - 1; fi >= 0; fi-- {
		f := th.Frames[fi]
		for _, e := range f.Jmpbufs {
			if e.id != id {
				continue
			}
			th.Frames = th.Frames[:fi+1]
			f.IP = e.returnIP
			f.CurrentBB = e.returnBB
			th.Arena.Reset(e.arenaMark)
			if e.dest != pnmodule.InvalidValueID {
				f.Locals[int(e.dest)] = value
			}
			return nil
		}
	}
	return fmt.Errorf("pnmodule: longjmp to unregistered jmpbuf id %d", id)
}
