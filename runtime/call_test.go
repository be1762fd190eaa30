package runtime

import (
	"testing"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/rtcode"
)

// TestDoCallDefersCommitForParkingBuiltin exercises the real call dispatch
// site (doCall) with a built-in that parks the thread on its first call,
// the way futex_wait_abs does. It must not advance frame.IP or write dst
// until the built-in actually completes, so that rescheduling the thread
// re-executes this exact CALL instruction instead of resuming past it with
// a result latched in at park time.
func TestDoCallDefersCommitForParkingBuiltin(t *testing.T) {
	const builtinSlot = 3
	const dstSlot = pnmodule.ValueID(0)
	const calleeSlot = pnmodule.ValueID(1)

	calls := 0
	ex := &Executor{}
	ex.Builtins[builtinSlot] = func(ex *Executor, th *Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
		calls++
		if calls == 1 {
			th.State = ThreadBlocked
			return 0, nil
		}
		return 42, nil
	}

	th := &Thread{State: ThreadRunning}
	frame := &CallFrame{
		Locals: []pnmodule.RuntimeValue{0, pnmodule.RuntimeValue(pnmodule.BuiltinAddress(builtinSlot))},
	}

	hdr := rtcode.Header{Op: rtcode.OpCallIndirect, NumWords: 6}
	words := map[uint32]uint32{
		2: rtcode.InvalidOperand, // direct-call function id unused for CALL_INDIRECT
		3: uint32(calleeSlot),
		4: 0, // numArgs
	}
	word := func(n uint32) uint32 { return words[n] }
	vid := func(n uint32) pnmodule.ValueID {
		w := word(n)
		if w == rtcode.InvalidOperand {
			return pnmodule.InvalidValueID
		}
		return pnmodule.ValueID(w)
	}
	local := func(v pnmodule.ValueID) pnmodule.RuntimeValue { return frame.Locals[int(v)] }
	setLocal := func(v pnmodule.ValueID, val pnmodule.RuntimeValue) { frame.Locals[int(v)] = val }
	_ = dstSlot

	done, err := ex.doCall(th, frame, hdr, 0, word, vid, local, setLocal)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("doCall reported done for a park, want false")
	}
	if frame.IP != 0 {
		t.Fatalf("frame.IP = %d, want 0 (unadvanced) after park", frame.IP)
	}
	if frame.Locals[0] != 0 {
		t.Fatalf("dst committed to %v before the parked built-in resumed", frame.Locals[0])
	}
	if th.State != ThreadBlocked {
		t.Fatalf("thread state = %v, want Blocked", th.State)
	}

	// Scheduler wakes th and re-dispatches the same CALL instruction
	// (frame.IP is unchanged, so Step would read the identical header).
	th.State = ThreadRunning
	done, err = ex.doCall(th, frame, hdr, 0, word, vid, local, setLocal)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("doCall reported done on resume, want false")
	}
	if calls != 2 {
		t.Fatalf("builtin invoked %d times, want 2 (re-dispatch on resume)", calls)
	}
	if frame.IP != uint32(hdr.NumWords)*4 {
		t.Fatalf("frame.IP = %d, want %d after commit", frame.IP, uint32(hdr.NumWords)*4)
	}
	if frame.Locals[0] != 42 {
		t.Fatalf("dst = %v, want 42 after resume", frame.Locals[0])
	}
}
