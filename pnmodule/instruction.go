package pnmodule

// InstKind tags the pre-lowering instruction variants, one per opcode
// group named in the record grammar.
type InstKind int

const (
	InstBinOp InstKind = iota
	InstCast
	InstRet
	InstBr
	InstSwitch
	InstUnreachable
	InstPhi
	InstAlloca
	InstLoad
	InstStore
	InstCmp2
	InstVSelect
	InstCall
	InstCallIndirect
	InstForwardTypeRef
)

// BinOp enumerates the PNaCl binary operators.
type BinOp int

const (
	BinOpAdd BinOp = iota
	BinOpSub
	BinOpMul
	BinOpUDiv
	BinOpSDiv
	BinOpURem
	BinOpSRem
	BinOpShl
	BinOpLShr
	BinOpAShr
	BinOpAnd
	BinOpOr
	BinOpXor
)

// Cmp2Pred enumerates the two-way integer/float comparison predicates.
type Cmp2Pred int

const (
	CmpEQ Cmp2Pred = iota
	CmpNE
	CmpSGT
	CmpSGE
	CmpSLT
	CmpSLE
	CmpUGT
	CmpUGE
	CmpULT
	CmpULE
	// float-only predicates
	CmpFOEQ
	CmpFONE
	CmpFOGT
	CmpFOGE
	CmpFOLT
	CmpFOLE
)

// CastOp enumerates the PNaCl cast opcodes relevant to opcode lowering.
type CastOp int

const (
	CastTrunc CastOp = iota
	CastZExt
	CastSExt
	CastFPToUI
	CastFPToSI
	CastUIToFP
	CastSIToFP
	CastFPTrunc
	CastFPExt
	CastBitcast
)

// PhiIncoming is one (predecessor-block, source-value) pair feeding a phi.
type PhiIncoming struct {
	BB    int32
	Value ValueID
}

// SwitchCase is one (sign-rotated case value, target block) pair.
type SwitchCase struct {
	Value  int64
	Target int32
}

// Instruction is a tagged variant over the pre-lowering instruction
// grammar. Not every field applies to every Kind; see the per-kind
// comments. ResultType starts as InvalidTypeID and is filled in by the
// analyzer's result-type inference pass where the record doesn't carry an
// explicit type.
type Instruction struct {
	Kind       InstKind
	ResultType TypeID
	ResultID   ValueID // value id this instruction defines, or InvalidValueID for void-typed

	// BinOp
	BinOp   BinOp
	Flags   uint32 // parsed, never branched on (see design notes)
	LHS, RHS ValueID

	// Cast
	CastOp  CastOp
	Operand ValueID

	// Ret
	RetValue ValueID // InvalidValueID for `ret void`

	// Br
	Cond        ValueID // InvalidValueID for unconditional
	TrueTarget  int32
	FalseTarget int32

	// Switch
	SwitchValue ValueID
	DefaultTarget int32
	Cases       []SwitchCase

	// Phi
	Incoming []PhiIncoming

	// Alloca
	Size      ValueID
	Alignment uint32

	// Load / Store
	Addr    ValueID
	StoreValue ValueID

	// Cmp2
	Pred Cmp2Pred

	// VSelect
	TrueVal, FalseVal ValueID

	// Call / CallIndirect. Direct calls name their target by module-scope
	// function index (CalleeFunctionID); indirect calls instead carry a
	// function-local value holding a computed function-pointer address
	// (Callee) to be decoded via pnmodule.DecodeFunctionPointer at call
	// time. Exactly one of the two applies, selected by IsIndirect.
	CalleeFunctionID int32 // module-scope function index; -1 for indirect calls
	Callee      ValueID // computed callee address value id; InvalidValueID for direct calls
	IsIndirect  bool
	IsTail      bool
	CallArgs    []ValueID
	CallingConv uint32 // parsed, never branched on

	// ForwardTypeRef
	ForwardID ValueID
}
