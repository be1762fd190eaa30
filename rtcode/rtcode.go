// Package rtcode defines the dense, typed runtime instruction encoding
// produced by the analyzer's opcode-lowering pass (spec §4.4.6) and
// consumed by the executor's dispatch loop (§4.5).
//
// Each runtime instruction specializes an abstract operation by result and
// operand type the way the source's PN_FOREACH_OPCODE table does, but
// instead of enumerating one named constant per (op, type) pair, the
// specialization key is a packed (Op, Type) byte pair. Binary ops are
// validated at lowering time by ValidateBinOp; the key is a Go struct
// instead of an exploded constant list.
package rtcode

import "github.com/pnacl-run/pnexec/pnmodule"

// Op is the coarse operation identifier; combined with a BasicType (and,
// for Cmp2, a predicate byte) it forms the full specialization key.
type Op byte

const (
	OpNop Op = iota
	OpBinOp
	OpCast
	OpRet
	OpBr
	OpBrCond
	OpSwitch
	OpUnreachable
	OpPhiCopy // no-op marker; phi results are written by the edge's phi-assign pass, not fetched
	OpAlloca
	OpLoad
	OpStore
	OpCmp2
	OpVSelect
	OpCall
	OpCallIndirect
	OpIntrinsicMemcpy
	OpIntrinsicMemset
	OpIntrinsicMemmove
	OpIntrinsicBswap
	OpIntrinsicCtlz
	OpIntrinsicCttz
	OpIntrinsicFabs
	OpIntrinsicSqrt
	OpIntrinsicTrap
	OpIntrinsicStackSave
	OpIntrinsicStackRestore
	OpIntrinsicSetjmp
	OpIntrinsicLongjmp
	OpIntrinsicAtomicLoad
	OpIntrinsicAtomicStore
	OpIntrinsicAtomicRMW
	OpIntrinsicAtomicCmpxchg
	OpIntrinsicAtomicFence
	OpIntrinsicReadTP
)

// Header is the fixed 4-byte leading word of every runtime instruction:
// opcode, specialized type, a secondary tag (binop kind / cast kind / cmp
// predicate / atomic rmw kind, depending on Op), and a length-in-words byte
// letting the dispatcher skip variable-length instructions (switch,
// call) without decoding their payload.
type Header struct {
	Op      Op
	Type    pnmodule.BasicType
	Tag     byte
	NumWords byte // total instruction length, in 4-byte words, including this header
}

// Pack/Unpack keep the header as a single uint32 in the byte stream.
func (h Header) Pack() uint32 {
	return uint32(h.Op) | uint32(h.Type)<<8 | uint32(h.Tag)<<16 | uint32(h.NumWords)<<24
}

func UnpackHeader(w uint32) Header {
	return Header{
		Op:      Op(w & 0xFF),
		Type:    pnmodule.BasicType((w >> 8) & 0xFF),
		Tag:     byte((w >> 16) & 0xFF),
		NumWords: byte((w >> 24) & 0xFF),
	}
}

// InvalidOperand marks an absent optional operand slot (e.g. `ret void`).
const InvalidOperand uint32 = 0xFFFFFFFF

// legalBinOpTypes enumerates, per spec §4.4 "specialization tables are
// exhaustive over the legal (op, type) pairs", which basic types a given
// BinOp may specialize over.
func legalBinOpTypes(op pnmodule.BinOp) []pnmodule.BasicType {
	ints := []pnmodule.BasicType{pnmodule.BasicI8, pnmodule.BasicI16, pnmodule.BasicI32, pnmodule.BasicI64}
	floats := []pnmodule.BasicType{pnmodule.BasicF32, pnmodule.BasicF64}
	switch op {
	case pnmodule.BinOpAdd, pnmodule.BinOpSub, pnmodule.BinOpMul:
		return append(append([]pnmodule.BasicType{}, ints...), floats...)
	case pnmodule.BinOpUDiv, pnmodule.BinOpSDiv, pnmodule.BinOpURem, pnmodule.BinOpSRem:
		return append(append([]pnmodule.BasicType{}, ints...), floats...)
	case pnmodule.BinOpShl, pnmodule.BinOpLShr, pnmodule.BinOpAShr, pnmodule.BinOpAnd, pnmodule.BinOpOr, pnmodule.BinOpXor:
		return ints
	}
	return nil
}

// ValidateBinOp reports whether (op, t) is a legal specialization.
func ValidateBinOp(op pnmodule.BinOp, t pnmodule.BasicType) bool {
	for _, lt := range legalBinOpTypes(op) {
		if lt == t {
			return true
		}
	}
	return false
}
