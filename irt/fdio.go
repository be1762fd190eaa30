package irt

import (
	"io"
	"os"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
)

func fdioClose(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	fd := int32(args[0].U64())
	if fd <= 2 {
		return pnmodule.RuntimeValue(0), nil
	}
	if err := ex.CloseFD(fd); err != nil {
		return pnmodule.RuntimeValue(EBADF), nil
	}
	return pnmodule.RuntimeValue(0), nil
}

func fdioDup(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	return pnmodule.RuntimeValue(ENOSYS), nil
}

func fdioDup2(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	return pnmodule.RuntimeValue(ENOSYS), nil
}

func fdioRead(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	fd, bufP, count, nreadP := int32(args[0].U64()), uint32(args[1].U64()), uint32(args[2].U64()), uint32(args[3].U64())
	f, ok := ex.HostFile(fd)
	if !ok {
		return pnmodule.RuntimeValue(EBADF), nil
	}
	buf := make([]byte, count)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return pnmodule.RuntimeValue(EIO), nil
	}
	if err := ex.Mem.CopyIn(bufP, buf[:n]); err != nil {
		return 0, err
	}
	if err := ex.Mem.Store(nreadP, 4, pnmodule.RuntimeValue(uint32(n))); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}

func fdioWrite(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	fd, bufP, count, nwroteP := int32(args[0].U64()), uint32(args[1].U64()), uint32(args[2].U64()), uint32(args[3].U64())
	f, ok := ex.HostFile(fd)
	if !ok {
		return pnmodule.RuntimeValue(EBADF), nil
	}
	data, err := ex.Mem.CopyOut(bufP, count)
	if err != nil {
		return 0, err
	}
	n, werr := f.Write(data)
	if werr != nil {
		return pnmodule.RuntimeValue(EIO), nil
	}
	if err := ex.Mem.Store(nwroteP, 4, pnmodule.RuntimeValue(uint32(n))); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}

func fdioSeek(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	fd, offset, whence, newOffsetP := int32(args[0].U64()), args[1].I64(), int(args[2].U64()), uint32(args[3].U64())
	f, ok := ex.HostFile(fd)
	if !ok {
		return pnmodule.RuntimeValue(EBADF), nil
	}
	newOff, err := f.Seek(offset, whence)
	if err != nil {
		return pnmodule.RuntimeValue(ESPIPE), nil
	}
	if err := ex.Mem.Store(newOffsetP, 8, pnmodule.RuntimeValue(uint64(newOff))); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}

func fdioFstat(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	fd, statP := int32(args[0].U64()), uint32(args[1].U64())
	f, ok := ex.HostFile(fd)
	if !ok {
		return pnmodule.RuntimeValue(EBADF), nil
	}
	fi, err := f.Stat()
	if err != nil {
		return pnmodule.RuntimeValue(EIO), nil
	}
	if err := writeStat(ex.Mem, statP, fi); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}

func fdioIsatty(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	fd, resultP := int32(args[0].U64()), uint32(args[1].U64())
	f, ok := ex.HostFile(fd)
	if !ok {
		return pnmodule.RuntimeValue(EBADF), nil
	}
	isTTY := uint32(0)
	if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		isTTY = 1
	}
	if err := ex.Mem.Store(resultP, 4, pnmodule.RuntimeValue(isTTY)); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}
