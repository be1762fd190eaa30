package irt

import (
	"time"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
	"golang.org/x/sys/unix"
)

const pageSize = 0x10000

// scPagesize mirrors the single sysconf name the interpreter recognizes
// (_SC_PAGESIZE = 2).
const scPagesize = 2

func basicExit(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	ex.Exited = true
	ex.ExitCode = args[0].I32()
	th.State = runtime.ThreadDead
	return pnmodule.RuntimeValue(0), nil
}

// basicGettod writes a 16-byte timeval (tv_sec:8, tv_usec:4, padding:4) at
// args[0], read from the host's CLOCK_REALTIME via unix.ClockGettime
// rather than plain time.Now().
func basicGettod(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err != nil {
		return pnmodule.RuntimeValue(EFAULT), nil
	}
	tvP := uint32(args[0].U64())
	if err := ex.Mem.Store(tvP, 8, pnmodule.RuntimeValue(ts.Sec)); err != nil {
		return 0, err
	}
	if err := ex.Mem.Store(tvP+8, 4, pnmodule.RuntimeValue(ts.Nsec/1000)); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}

// basicClock returns ticks of CLOCKS_PER_SEC (100) via an out-pointer,
// following the NaCl ABI's clock() shim.
func basicClock(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return pnmodule.RuntimeValue(EFAULT), nil
	}
	ticks := ts.Sec*100 + ts.Nsec/10000000
	if err := ex.Mem.Store(uint32(args[0].U64()), 4, pnmodule.RuntimeValue(uint32(ticks))); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}

func basicNanosleep(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	reqP := uint32(args[0].U64())
	sec, err := ex.Mem.Load(reqP, 8)
	if err != nil {
		return 0, err
	}
	nsec, err := ex.Mem.Load(reqP+8, 8)
	if err != nil {
		return 0, err
	}
	time.Sleep(time.Duration(sec.U64())*time.Second + time.Duration(nsec.U64()))
	return pnmodule.RuntimeValue(0), nil
}

func basicSchedYield(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	return pnmodule.RuntimeValue(0), nil
}

func basicSysconf(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	name, valueP := args[0].U32(), uint32(args[1].U64())
	if name != scPagesize {
		return pnmodule.RuntimeValue(EINVAL), nil
	}
	if err := ex.Mem.Store(valueP, 4, pnmodule.RuntimeValue(pageSize)); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}
