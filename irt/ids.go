package irt

// Builtin slot ids, dense starting at 0 (pnmodule.NumBuiltins reserves 64
// of them below every module function address, see pnmodule.FunctionAddress).
// Slot 0 is the id written into AT_SYSINFO so _start can bootstrap the
// rest of the table through NACL_IRT_QUERY.
const (
	Query = iota

	BasicExit
	BasicGettod
	BasicClock
	BasicNanosleep
	BasicSchedYield
	BasicSysconf

	FdioClose
	FdioDup
	FdioDup2
	FdioRead
	FdioWrite
	FdioSeek
	FdioFstat
	FdioIsatty

	FilenameOpen
	FilenameStat
	FilenameMkdir
	FilenameRmdir
	FilenameChdir
	FilenameGetcwd
	FilenameUnlink
	FilenameTruncate
	FilenameLstat
	FilenameLink
	FilenameRename
	FilenameSymlink
	FilenameChmod
	FilenameAccess
	FilenameReadlink
	FilenameUtimes

	MemoryMmap
	MemoryMunmap
	MemoryMprotect

	TlsInit
	TlsGet

	ThreadCreate
	ThreadExit
	ThreadNice

	FutexWaitAbs
	FutexWake

	numIRTBuiltins
)

// tableEntries lists, for each known interface name, the ordered builtin
// slot ids NACL_IRT_QUERY writes into the caller's table. An unknown name
// returns size 0 (§6).
var tableEntries = map[string][]int{
	"nacl-irt-basic-0.1": {
		BasicExit, BasicGettod, BasicClock, BasicNanosleep, BasicSchedYield, BasicSysconf,
	},
	"nacl-irt-fdio-0.1": {
		FdioClose, FdioDup, FdioDup2, FdioRead, FdioWrite, FdioSeek, FdioFstat, FdioIsatty,
	},
	"nacl-irt-filename-0.3": {
		FilenameOpen, FilenameStat, FilenameMkdir, FilenameRmdir, FilenameChdir,
		FilenameGetcwd, FilenameUnlink, FilenameTruncate, FilenameLstat, FilenameLink,
		FilenameRename, FilenameSymlink, FilenameChmod, FilenameAccess, FilenameReadlink,
		FilenameUtimes,
	},
	"nacl-irt-memory-0.3": {
		MemoryMmap, MemoryMunmap, MemoryMprotect,
	},
	"nacl-irt-tls-0.1": {
		TlsInit, TlsGet,
	},
	"nacl-irt-thread-0.1": {
		ThreadCreate, ThreadExit, ThreadNice,
	},
	"nacl-irt-futex-0.1": {
		FutexWaitAbs, FutexWake,
	},
}
