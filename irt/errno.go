// Package irt implements the NACL_IRT_QUERY built-in table and the
// interface entries it hands out (§4.6): basic, fdio, filename, memory,
// tls, thread, futex. Every entry is itself a runtime.BuiltinFunc slotted
// into Executor.Builtins, addressed as a function pointer the way a
// direct or indirect CALL addresses any other callee (§3).
package irt

// Errno is the Linux-ish subset the interpreter surfaces through IRT call
// return values, never through the host's errno (§6, §7).
type Errno uint32

const (
	EPERM   Errno = 1
	ENOENT  Errno = 2
	ESRCH   Errno = 3
	EINTR   Errno = 4
	EIO     Errno = 5
	ENXIO   Errno = 6
	E2BIG   Errno = 7
	ENOEXEC Errno = 8
	EBADF   Errno = 9
	ECHILD  Errno = 10
	EAGAIN  Errno = 11
	ENOMEM  Errno = 12
	EACCES  Errno = 13
	EFAULT  Errno = 14
	EBUSY   Errno = 16
	EEXIST  Errno = 17
	EXDEV   Errno = 18
	ENODEV  Errno = 19
	ENOTDIR Errno = 20
	EISDIR  Errno = 21
	EINVAL  Errno = 22
	ENFILE  Errno = 23
	EMFILE  Errno = 24
	ENOTTY  Errno = 25
	EFBIG   Errno = 27
	ENOSPC  Errno = 28
	ESPIPE  Errno = 29
	EROFS   Errno = 30
	EMLINK  Errno = 31
	EPIPE   Errno = 32
	ENAMETOOLONG Errno = 36
	ENOSYS       Errno = 38
	EDQUOT       Errno = 122
	ETIMEDOUT    Errno = 110
)
