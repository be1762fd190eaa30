package irt

import (
	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
)

// futexWaitAbs implements NACL_IRT_FUTEX_WAIT_ABS(addr, value, abstime):
// compares memory at addr to value; if unequal returns EAGAIN immediately.
// Otherwise, on first entry it parks th (Blocked, recording wait_addr and
// the optional absolute deadline) for the scheduler to resume later; on
// re-entry (th.Futex already Woken or TimedOut) it reports that outcome
// and clears it (§4.6, §5).
func futexWaitAbs(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	addr, value := uint32(args[0].U64()), args[1].U32()
	abstimeP := uint32(args[2].U64())

	switch th.Futex {
	case runtime.FutexWoken:
		th.Futex = runtime.FutexNone
		return pnmodule.RuntimeValue(0), nil
	case runtime.FutexTimedOut:
		th.Futex = runtime.FutexNone
		return pnmodule.RuntimeValue(ETIMEDOUT), nil
	}

	current, err := ex.Mem.Load(addr, 4)
	if err != nil {
		return 0, err
	}
	if current.U32() != value {
		return pnmodule.RuntimeValue(EAGAIN), nil
	}

	th.WaitAddr = addr
	th.WaitValue = value
	th.HasDeadline = false
	if abstimeP != 0 {
		sec, err := ex.Mem.Load(abstimeP, 8)
		if err != nil {
			return 0, err
		}
		nsec, err := ex.Mem.Load(abstimeP+8, 8)
		if err != nil {
			return 0, err
		}
		th.Deadline = int64(sec.U64())*1e9 + int64(nsec.U64())
		th.HasDeadline = true
	}
	th.State = runtime.ThreadBlocked
	return pnmodule.RuntimeValue(0), nil
}

// futexWake implements NACL_IRT_FUTEX_WAKE(addr, count, count_out): wakes
// up to count Blocked threads parked on addr, writing the number woken.
func futexWake(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	addr, count, countOutP := uint32(args[0].U64()), args[1].U32(), uint32(args[2].U64())
	woken := uint32(0)
	for _, t := range ex.Threads {
		if woken >= count {
			break
		}
		if t.State == runtime.ThreadBlocked && t.WaitAddr == addr {
			t.State = runtime.ThreadRunning
			t.Futex = runtime.FutexWoken
			woken++
		}
	}
	if err := ex.Mem.Store(countOutP, 4, pnmodule.RuntimeValue(woken)); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}
