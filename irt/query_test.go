package irt

import (
	"testing"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
)

func newTestExecutor(t *testing.T) *runtime.Executor {
	t.Helper()
	globalData := make([]byte, pnmodule.GuardSize+16)
	mem, err := runtime.NewMemory(globalData, 1<<20, 256, 4096)
	if err != nil {
		t.Fatal(err)
	}
	ex := runtime.NewExecutor(&pnmodule.Module{}, mem)
	Register(ex)
	return ex
}

func TestQueryKnownInterface(t *testing.T) {
	ex := newTestExecutor(t)
	nameP := ex.Mem.HeapStart
	if _, err := ex.Mem.WriteCString(nameP, "nacl-irt-basic-0.1"); err != nil {
		t.Fatal(err)
	}
	tableP := nameP + 64
	entries := tableEntries["nacl-irt-basic-0.1"]
	size, err := query(ex, nil, []pnmodule.RuntimeValue{
		pnmodule.RuntimeValue(nameP),
		pnmodule.RuntimeValue(tableP),
		pnmodule.RuntimeValue(len(entries) * 4),
	})
	if err != nil {
		t.Fatal(err)
	}
	if int(size) != len(entries)*4 {
		t.Fatalf("got size %d want %d", size, len(entries)*4)
	}
	for i, slot := range entries {
		got, err := ex.Mem.Load(tableP+uint32(i)*4, 4)
		if err != nil {
			t.Fatal(err)
		}
		want := pnmodule.RuntimeValue(pnmodule.BuiltinAddress(int32(slot)))
		if got != want {
			t.Fatalf("entry %d: got %#x want %#x", i, got, want)
		}
	}
}

func TestQueryUnknownInterfaceReturnsZero(t *testing.T) {
	ex := newTestExecutor(t)
	nameP := ex.Mem.HeapStart
	if _, err := ex.Mem.WriteCString(nameP, "nacl-irt-does-not-exist"); err != nil {
		t.Fatal(err)
	}
	size, err := query(ex, nil, []pnmodule.RuntimeValue{
		pnmodule.RuntimeValue(nameP),
		pnmodule.RuntimeValue(nameP + 64),
		pnmodule.RuntimeValue(1024),
	})
	if err != nil {
		t.Fatal(err)
	}
	if size != 0 {
		t.Fatalf("got size %d want 0", size)
	}
}

func TestQuerySizeMismatchReturnsZero(t *testing.T) {
	ex := newTestExecutor(t)
	nameP := ex.Mem.HeapStart
	if _, err := ex.Mem.WriteCString(nameP, "nacl-irt-basic-0.1"); err != nil {
		t.Fatal(err)
	}
	size, err := query(ex, nil, []pnmodule.RuntimeValue{
		pnmodule.RuntimeValue(nameP),
		pnmodule.RuntimeValue(nameP + 64),
		pnmodule.RuntimeValue(4), // wrong: basic-0.1 has 6 entries
	})
	if err != nil {
		t.Fatal(err)
	}
	if size != 0 {
		t.Fatalf("got size %d want 0", size)
	}
}
