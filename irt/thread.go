package irt

import (
	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
)

// threadCreate implements NACL_IRT_THREAD_CREATE(start_func, stack_top,
// thread_ptr): decodes the entry function pointer, spawns a new thread
// with its own stack carved below stack_top, and inserts it into the
// executor's live ring (§4.6).
func threadCreate(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	startFuncP, stackTop, threadP := uint32(args[0].U64()), uint32(args[1].U64()), uint32(args[2].U64())
	slot, isBuiltin, ok := pnmodule.DecodeFunctionPointer(startFuncP)
	if isBuiltin || !ok || int(slot) >= len(ex.Module.Funcs) {
		return pnmodule.RuntimeValue(EINVAL), nil
	}
	entry := &ex.Module.Funcs[slot]
	const threadStackSize = 1 << 20
	stackBase := stackTop - threadStackSize
	ex.SpawnThread(entry, nil, stackBase, stackTop, threadP, false)
	return pnmodule.RuntimeValue(0), nil
}

// threadExit implements NACL_IRT_THREAD_EXIT(stack_flag): marks th dead
// and, if requested, clears the caller-provided "thread is live" flag so a
// joiner polling it observes completion.
func threadExit(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	th.State = runtime.ThreadDead
	if flagP := uint32(args[0].U64()); flagP != 0 {
		if err := ex.Mem.Store(flagP, 4, pnmodule.RuntimeValue(0)); err != nil {
			return 0, err
		}
	}
	return pnmodule.RuntimeValue(0), nil
}
