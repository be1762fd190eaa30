package pnmodule

import (
	"testing"

	"github.com/pnacl-run/pnexec/abbrev"
)

// TestPhiDecodesValueBBPairsWithoutCountField exercises the wire format
// pn_read.h actually uses: [type_id, value0, bb0, value1, bb1, ...], with
// no explicit incoming-count operand — the record simply runs out.
func TestPhiDecodesValueBBPairsWithoutCountField(t *testing.T) {
	fn := &Function{BBs: []BasicBlock{{}}}
	fb := newFuncBuilder(fn, false)
	ctx := &parseCtx{}

	rec := &abbrev.Record{
		Code: FunctionCodePhi,
		Operands: []uint64{
			7,    // result type id
			100, 1, // (value=100, bb=1)
			200, 2, // (value=200, bb=2)
		},
	}
	if err := ctx.applyFunctionRecord(fb, rec); err != nil {
		t.Fatal(err)
	}
	if len(fn.BBs[0].Instructions) != 1 {
		t.Fatalf("expected one instruction, got %d", len(fn.BBs[0].Instructions))
	}
	inst := fn.BBs[0].Instructions[0]
	if inst.Kind != InstPhi {
		t.Fatalf("kind = %v, want InstPhi", inst.Kind)
	}
	want := []PhiIncoming{
		{BB: 1, Value: ValueID(100)},
		{BB: 2, Value: ValueID(200)},
	}
	if len(inst.Incoming) != len(want) {
		t.Fatalf("incoming = %v, want %v", inst.Incoming, want)
	}
	for i, w := range want {
		if inst.Incoming[i] != w {
			t.Fatalf("incoming[%d] = %+v, want %+v", i, inst.Incoming[i], w)
		}
	}
}

func TestPhiRejectsOddOperandCount(t *testing.T) {
	fn := &Function{BBs: []BasicBlock{{}}}
	fb := newFuncBuilder(fn, false)
	ctx := &parseCtx{}

	rec := &abbrev.Record{
		Code:     FunctionCodePhi,
		Operands: []uint64{7, 100, 1, 200}, // trailing bb is missing
	}
	if err := ctx.applyFunctionRecord(fb, rec); err == nil {
		t.Fatal("expected an error for a truncated incoming pair")
	}
}
