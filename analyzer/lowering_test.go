package analyzer

import (
	"testing"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/rtcode"
)

func i32Module() (*pnmodule.Module, pnmodule.TypeID) {
	m := pnmodule.NewModule()
	i32 := m.Types.Append(pnmodule.Type{Kind: pnmodule.TypeInteger, Width: 32})
	return m, i32
}

// buildAddFunc builds `define i32 @f(i32 %a, i32 %b) { %r = add %a, %b; ret %r }`
func buildAddFunc(i32 pnmodule.TypeID) *pnmodule.Function {
	fn := &pnmodule.Function{Name: "f", TypeID: i32, NumArgs: 2}
	fn.Values = []pnmodule.Value{
		{Kind: pnmodule.ValueFunctionArg, Index: 0, TypeID: i32},
		{Kind: pnmodule.ValueFunctionArg, Index: 1, TypeID: i32},
		{Kind: pnmodule.ValueLocalVar, Index: 0, TypeID: pnmodule.InvalidTypeID},
	}
	add := pnmodule.Instruction{
		Kind: pnmodule.InstBinOp, BinOp: pnmodule.BinOpAdd,
		ResultID: 2, LHS: 0, RHS: 1, ResultType: pnmodule.InvalidTypeID,
	}
	ret := pnmodule.Instruction{Kind: pnmodule.InstRet, RetValue: 2}
	fn.BBs = []pnmodule.BasicBlock{{Instructions: []pnmodule.Instruction{add, ret}}}
	return fn
}

func TestLowerFunctionBinOpAndRet(t *testing.T) {
	m, i32 := i32Module()
	fn := buildAddFunc(i32)

	if err := InferResultTypes(m, fn); err != nil {
		t.Fatalf("InferResultTypes: %v", err)
	}
	ComputeUseSets(fn)
	ComputePredecessors(fn)
	if err := ComputePhiAssigns(fn, true); err != nil {
		t.Fatalf("ComputePhiAssigns: %v", err)
	}
	if err := LowerFunction(m, fn); err != nil {
		t.Fatalf("LowerFunction: %v", err)
	}

	if fn.Values[2].TypeID != i32 {
		t.Fatalf("inferred result type = %v, want i32 (%v)", fn.Values[2].TypeID, i32)
	}
	if len(fn.RuntimeStream) != 16+8 {
		t.Fatalf("stream length = %d, want %d (binop 4 words + ret 2 words)", len(fn.RuntimeStream), 16+8)
	}
	if bb, ok := fn.BBByOffset[0]; !ok || bb != 0 {
		t.Fatalf("BBByOffset[0] = (%d,%v), want (0,true)", bb, ok)
	}

	hdr := rtcode.UnpackHeader(leWord(fn.RuntimeStream[0:4]))
	if hdr.Op != rtcode.OpBinOp || hdr.Type != pnmodule.BasicI32 || rtcode.Op(hdr.Tag) != 0 {
		t.Fatalf("unexpected binop header: %+v", hdr)
	}
	retHdr := rtcode.UnpackHeader(leWord(fn.RuntimeStream[16:20]))
	if retHdr.Op != rtcode.OpRet || retHdr.Type != pnmodule.BasicI32 {
		t.Fatalf("unexpected ret header: %+v", retHdr)
	}
}

func TestLowerFunctionBranchTargetsResolveToBlockStarts(t *testing.T) {
	m, i32 := i32Module()
	fn := &pnmodule.Function{Name: "g", TypeID: i32}
	fn.Values = []pnmodule.Value{{Kind: pnmodule.ValueLocalVar, TypeID: i32}}
	fn.BBs = []pnmodule.BasicBlock{
		{Instructions: []pnmodule.Instruction{{Kind: pnmodule.InstBr, Cond: pnmodule.InvalidValueID, TrueTarget: 1}}, Successors: []int32{1}},
		{Instructions: []pnmodule.Instruction{{Kind: pnmodule.InstUnreachable}}},
	}

	if err := InferResultTypes(m, fn); err != nil {
		t.Fatalf("InferResultTypes: %v", err)
	}
	ComputeUseSets(fn)
	ComputePredecessors(fn)
	if err := ComputePhiAssigns(fn, true); err != nil {
		t.Fatalf("ComputePhiAssigns: %v", err)
	}
	if err := LowerFunction(m, fn); err != nil {
		t.Fatalf("LowerFunction: %v", err)
	}

	target := leWord(fn.RuntimeStream[4:8])
	if _, ok := fn.BBByOffset[target]; !ok {
		t.Fatalf("branch target %d does not resolve to a known block start", target)
	}
	if target != fn.BBs[1].StreamOffset {
		t.Fatalf("branch target %d != bb1 offset %d", target, fn.BBs[1].StreamOffset)
	}
}

func leWord(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
