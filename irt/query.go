package irt

import (
	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
)

// query implements NACL_IRT_QUERY(name_p, table_p, table_size): it reads
// the interface name string at name_p, and if recognized and table_size
// matches exactly 4*len(entries), writes each entry's builtin function
// pointer into the caller's table and returns the table size. An unknown
// name, or a size mismatch, returns 0 (§6).
func query(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	nameP := uint32(args[0].U64())
	tableP := uint32(args[1].U64())
	tableSize := uint32(args[2].U64())

	name, err := ex.Mem.ReadCString(nameP)
	if err != nil {
		return 0, err
	}
	entries, ok := tableEntries[name]
	if !ok {
		return pnmodule.RuntimeValue(0), nil
	}
	if tableSize != uint32(len(entries))*4 {
		return pnmodule.RuntimeValue(0), nil
	}
	for i, slot := range entries {
		addr := pnmodule.BuiltinAddress(int32(slot))
		if err := ex.Mem.Store(tableP+uint32(i)*4, 4, pnmodule.RuntimeValue(addr)); err != nil {
			return 0, err
		}
	}
	return pnmodule.RuntimeValue(len(entries) * 4), nil
}

// Register binds every IRT builtin, including Query itself, into ex's
// builtin table at the slot ids assigned in ids.go.
func Register(ex *runtime.Executor) {
	ex.Builtins[Query] = query

	ex.Builtins[BasicExit] = basicExit
	ex.Builtins[BasicGettod] = basicGettod
	ex.Builtins[BasicClock] = basicClock
	ex.Builtins[BasicNanosleep] = basicNanosleep
	ex.Builtins[BasicSchedYield] = basicSchedYield
	ex.Builtins[BasicSysconf] = basicSysconf

	ex.Builtins[FdioClose] = fdioClose
	ex.Builtins[FdioDup] = fdioDup
	ex.Builtins[FdioDup2] = fdioDup2
	ex.Builtins[FdioRead] = fdioRead
	ex.Builtins[FdioWrite] = fdioWrite
	ex.Builtins[FdioSeek] = fdioSeek
	ex.Builtins[FdioFstat] = fdioFstat
	ex.Builtins[FdioIsatty] = fdioIsatty

	ex.Builtins[FilenameOpen] = filenameOpen
	ex.Builtins[FilenameStat] = filenameStat
	ex.Builtins[FilenameMkdir] = stubENOSYS
	ex.Builtins[FilenameRmdir] = stubENOSYS
	ex.Builtins[FilenameChdir] = stubENOSYS
	ex.Builtins[FilenameGetcwd] = filenameGetcwd
	ex.Builtins[FilenameUnlink] = stubENOSYS
	ex.Builtins[FilenameTruncate] = stubENOSYS
	ex.Builtins[FilenameLstat] = filenameStat
	ex.Builtins[FilenameLink] = stubENOSYS
	ex.Builtins[FilenameRename] = stubENOSYS
	ex.Builtins[FilenameSymlink] = stubENOSYS
	ex.Builtins[FilenameChmod] = stubENOSYS
	ex.Builtins[FilenameAccess] = filenameAccess
	ex.Builtins[FilenameReadlink] = filenameReadlink
	ex.Builtins[FilenameUtimes] = stubENOSYS

	ex.Builtins[MemoryMmap] = memoryMmap
	ex.Builtins[MemoryMunmap] = memoryMunmap
	ex.Builtins[MemoryMprotect] = memoryMprotect

	ex.Builtins[TlsInit] = tlsInit
	ex.Builtins[TlsGet] = tlsGet

	ex.Builtins[ThreadCreate] = threadCreate
	ex.Builtins[ThreadExit] = threadExit
	ex.Builtins[ThreadNice] = stubOK

	ex.Builtins[FutexWaitAbs] = futexWaitAbs
	ex.Builtins[FutexWake] = futexWake
}

func stubENOSYS(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	return pnmodule.RuntimeValue(ENOSYS), nil
}

func stubOK(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	return pnmodule.RuntimeValue(0), nil
}
