package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/pnacl-run/pnexec/pnmodule"
)

// BuiltinFunc implements one IRT built-in or entry-table accessor (irt
// package); args are already loaded RuntimeValues. Built-ins that return
// through an out-pointer write it themselves via ex.Mem.
type BuiltinFunc func(ex *Executor, th *Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error)

// TraceFlag is the ambient-stack logging bitset (§10): plain
// fmt.Fprintf(os.Stderr, ...) gated by these flags, no logging library,
// matching the teacher's boolean-flag trace style.
type TraceFlag uint32

const (
	TraceInstructions TraceFlag = 1 << iota
	TraceCalls
	TraceSyscalls
	TraceScheduler
)

// Executor owns the parsed module, linear memory, and the live thread set.
// Per §5, only the currently executing thread ever touches this state;
// the scheduler package serializes access across thread goroutines.
type Executor struct {
	Module *pnmodule.Module
	Mem    *Memory

	Threads  []*Thread
	NextTID  int32
	jmpbufID uint64

	Builtins [pnmodule.NumBuiltins]BuiltinFunc

	Exited   bool
	ExitCode int32

	TraceFlags TraceFlag

	// FileBaseDir restricts every filename IRT call (open/stat/access/
	// readlink/getcwd) to this host directory, the way the teacher's
	// FileIODevice.sanitizePath confines file I/O to a baseDir.
	FileBaseDir string
	OpenFiles   map[int32]*os.File
	nextFD      int32

	// paused backs the debug monitor's freeze/resume command (mirroring
	// debug_monitor.go's MonitorActive state): the scheduler polls it
	// between quanta instead of mid-instruction, so a freeze always lands
	// on a clean instruction boundary.
	paused atomic.Bool
}

// SetPaused implements the debug monitor's freeze/resume command.
func (ex *Executor) SetPaused(p bool) { ex.paused.Store(p) }

// Paused reports whether the scheduler should hold every thread at the
// next instruction boundary.
func (ex *Executor) Paused() bool { return ex.paused.Load() }

func NewExecutor(m *pnmodule.Module, mem *Memory) *Executor {
	return &Executor{Module: m, Mem: mem, OpenFiles: make(map[int32]*os.File), nextFD: 3}
}

// SanitizePath resolves rel against FileBaseDir, rejecting absolute paths
// and any path that climbs outside of it.
func (ex *Executor) SanitizePath(rel string) (string, bool) {
	if filepath.IsAbs(rel) || strings.Contains(rel, "..") {
		return "", false
	}
	full := filepath.Join(ex.FileBaseDir, rel)
	r, err := filepath.Rel(ex.FileBaseDir, full)
	if err != nil || strings.HasPrefix(r, "..") {
		return "", false
	}
	return full, true
}

// OpenFD records f under a fresh descriptor number (0-2 are reserved for
// stdin/stdout/stderr).
func (ex *Executor) OpenFD(f *os.File) int32 {
	fd := ex.nextFD
	ex.nextFD++
	ex.OpenFiles[fd] = f
	return fd
}

func (ex *Executor) CloseFD(fd int32) error {
	f, ok := ex.OpenFiles[fd]
	if !ok {
		return fmt.Errorf("pnmodule: close of unknown descriptor %d", fd)
	}
	delete(ex.OpenFiles, fd)
	return f.Close()
}

// HostFile resolves a descriptor to its *os.File, including the three
// standard streams which are not tracked in OpenFiles.
func (ex *Executor) HostFile(fd int32) (*os.File, bool) {
	switch fd {
	case 0:
		return os.Stdin, true
	case 1:
		return os.Stdout, true
	case 2:
		return os.Stderr, true
	}
	f, ok := ex.OpenFiles[fd]
	return f, ok
}

// NextJmpbufID returns a fresh monotonically increasing id for setjmp.
func (ex *Executor) NextJmpbufID() uint64 {
	ex.jmpbufID++
	return ex.jmpbufID
}

// SpawnThread creates a new thread with its own stack region carved from
// the arena's backing address space and pushes fn as its root frame.
func (ex *Executor) SpawnThread(fn *pnmodule.Function, args []pnmodule.RuntimeValue, stackBase, stackLimit, tls uint32, isMain bool) *Thread {
	th := NewThread(ex.NextTID, stackBase, stackLimit)
	ex.NextTID++
	th.TLS = tls
	th.IsMain = isMain
	frame := NewCallFrame(fn, args, th.Arena.Mark())
	frame.IsThreadRoot = true
	frame.ReturnSlot = pnmodule.InvalidValueID
	th.PushFrame(frame)
	ex.Threads = append(ex.Threads, th)
	return th
}

func (ex *Executor) trace(flag TraceFlag, format string, args ...any) {
	if ex.TraceFlags&flag == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
