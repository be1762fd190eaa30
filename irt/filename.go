package irt

import (
	"os"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
)

// filenameOpen passes the guest's open() flag bits to os.OpenFile
// untranslated, relying on the host and NaCl bit layouts agreeing on
// O_RDONLY/O_WRONLY/O_RDWR/O_CREAT/O_TRUNC/O_APPEND/O_EXCL.
func filenameOpen(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	pathnameP, flags, mode, newfdP := uint32(args[0].U64()), int(args[1].U64()), os.FileMode(args[2].U64()), uint32(args[3].U64())
	name, err := ex.Mem.ReadCString(pathnameP)
	if err != nil {
		return 0, err
	}
	full, ok := ex.SanitizePath(name)
	if !ok {
		return pnmodule.RuntimeValue(EACCES), nil
	}
	f, oerr := os.OpenFile(full, flags, mode&0777)
	if oerr != nil {
		if os.IsNotExist(oerr) {
			return pnmodule.RuntimeValue(ENOENT), nil
		}
		return pnmodule.RuntimeValue(EACCES), nil
	}
	fd := ex.OpenFD(f)
	if err := ex.Mem.Store(newfdP, 4, pnmodule.RuntimeValue(uint32(fd))); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}

func statPath(ex *runtime.Executor, pathnameP, statP uint32) (pnmodule.RuntimeValue, error) {
	name, err := ex.Mem.ReadCString(pathnameP)
	if err != nil {
		return 0, err
	}
	full, ok := ex.SanitizePath(name)
	if !ok {
		return pnmodule.RuntimeValue(EACCES), nil
	}
	fi, serr := os.Stat(full)
	if serr != nil {
		return pnmodule.RuntimeValue(ENOENT), nil
	}
	if err := writeStat(ex.Mem, statP, fi); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}

func filenameStat(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	return statPath(ex, uint32(args[0].U64()), uint32(args[1].U64()))
}

func filenameAccess(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	pathnameP := uint32(args[0].U64())
	name, err := ex.Mem.ReadCString(pathnameP)
	if err != nil {
		return 0, err
	}
	full, ok := ex.SanitizePath(name)
	if !ok {
		return pnmodule.RuntimeValue(EACCES), nil
	}
	if _, serr := os.Stat(full); serr != nil {
		return pnmodule.RuntimeValue(ENOENT), nil
	}
	return pnmodule.RuntimeValue(0), nil
}

func filenameReadlink(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	pathnameP, buf, count, nreadP := uint32(args[0].U64()), uint32(args[1].U64()), uint32(args[2].U64()), uint32(args[3].U64())
	name, err := ex.Mem.ReadCString(pathnameP)
	if err != nil {
		return 0, err
	}
	full, ok := ex.SanitizePath(name)
	if !ok {
		return pnmodule.RuntimeValue(EACCES), nil
	}
	target, rerr := os.Readlink(full)
	if rerr != nil {
		return pnmodule.RuntimeValue(EINVAL), nil
	}
	if uint32(len(target)) > count {
		target = target[:count]
	}
	if err := ex.Mem.CopyIn(buf, []byte(target)); err != nil {
		return 0, err
	}
	if err := ex.Mem.Store(nreadP, 4, pnmodule.RuntimeValue(uint32(len(target)))); err != nil {
		return 0, err
	}
	return pnmodule.RuntimeValue(0), nil
}

func filenameGetcwd(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	buf, size := uint32(args[0].U64()), uint32(args[1].U64())
	n, err := ex.Mem.WriteCString(buf, "/")
	if err != nil {
		return 0, err
	}
	if n > size {
		// ERANGE isn't in the errno subset §6 enumerates; reuse EINVAL,
		// the closest recognized code, for a too-small buffer.
		return pnmodule.RuntimeValue(EINVAL), nil
	}
	return pnmodule.RuntimeValue(0), nil
}
