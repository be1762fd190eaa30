package irt

import (
	"testing"

	"github.com/pnacl-run/pnexec/pnmodule"
)

func TestThreadCreateRejectsBuiltinEntry(t *testing.T) {
	ex := newTestExecutor(t)
	startFuncP := pnmodule.BuiltinAddress(BasicExit)
	errno, err := threadCreate(ex, nil, []pnmodule.RuntimeValue{
		pnmodule.RuntimeValue(startFuncP), pnmodule.RuntimeValue(ex.Mem.Size()), 0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if errno != pnmodule.RuntimeValue(EINVAL) {
		t.Fatalf("got errno %d want EINVAL", errno)
	}
}

func TestThreadCreateSpawnsThread(t *testing.T) {
	ex := newTestExecutor(t)
	fn := pnmodule.Function{NumArgs: 0}
	ex.Module.Funcs = append(ex.Module.Funcs, fn)
	startFuncP := pnmodule.FunctionAddress(0)

	before := len(ex.Threads)
	errno, err := threadCreate(ex, nil, []pnmodule.RuntimeValue{
		pnmodule.RuntimeValue(startFuncP), pnmodule.RuntimeValue(ex.Mem.Size()), 0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if errno != 0 {
		t.Fatalf("got errno %d want 0", errno)
	}
	if len(ex.Threads) != before+1 {
		t.Fatalf("thread count = %d want %d", len(ex.Threads), before+1)
	}
}
