package irt

import (
	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
)

const mmapAnonymous = 0x20

// memoryMmap implements NACL_IRT_MEMORY_MMAP(addr_out, len, prot, flags,
// fd, off): only the anonymous case is meaningful inside the simulated
// address space (§4.6); a non-anonymous request is rejected.
func memoryMmap(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	addrOutP, length, flags := uint32(args[0].U64()), args[1].U32(), args[3].U32()
	if flags&mmapAnonymous == 0 {
		return pnmodule.RuntimeValue(EINVAL), nil
	}
	npages := (length + pageSize - 1) / pageSize
	if npages == 0 {
		npages = 1
	}
	addr, err := ex.Mem.Mmap(npages, pageSize)
	if err != nil {
		return pnmodule.RuntimeValue(ENOMEM), nil
	}
	if err := ex.Mem.Store(addrOutP, 4, pnmodule.RuntimeValue(addr)); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}

func memoryMunmap(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	ex.Mem.Munmap(uint32(args[0].U64()))
	return pnmodule.RuntimeValue(0), nil
}

// memoryMprotect is a no-op: the simulated address space has no page
// protection bits to change.
func memoryMprotect(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	return pnmodule.RuntimeValue(0), nil
}
