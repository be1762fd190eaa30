package pnmodule

import "testing"

func TestFunctionPointerEncodingRoundTrip(t *testing.T) {
	for _, id := range []int32{0, 1, 40, 63} {
		addr := BuiltinAddress(id)
		slot, isBuiltin, ok := DecodeFunctionPointer(addr)
		if !ok || !isBuiltin || slot != id {
			t.Fatalf("BuiltinAddress(%d): decode = (%d,%v,%v)", id, slot, isBuiltin, ok)
		}
	}
	for _, id := range []int32{0, 1, 5, 200} {
		addr := FunctionAddress(id)
		slot, isBuiltin, ok := DecodeFunctionPointer(addr)
		if !ok || isBuiltin || slot != id {
			t.Fatalf("FunctionAddress(%d): decode = (%d,%v,%v)", id, slot, isBuiltin, ok)
		}
	}
}

func TestDecodeFunctionPointerRejectsMisaligned(t *testing.T) {
	if _, _, ok := DecodeFunctionPointer(1); ok {
		t.Fatal("expected misaligned address to be rejected")
	}
}

func TestFunctionAndBuiltinSpacesDoNotOverlap(t *testing.T) {
	if FunctionAddress(0) <= BuiltinAddress(NumBuiltins-1) {
		t.Fatal("lowest function address must exceed the highest builtin address")
	}
}
