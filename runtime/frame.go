package runtime

import (
	"fmt"

	"github.com/pnacl-run/pnexec/pnmodule"
)

// Arena is a per-thread bump allocator for frame-local storage (alloca),
// supporting the mark/reset discipline §5 requires: a call frame marks the
// cursor on entry and resets to it on return, and setjmp/longjmp restores a
// saved mark directly.
type Arena struct {
	base   uint32
	cursor uint32
	limit  uint32
}

func NewArena(base, limit uint32) *Arena {
	return &Arena{base: base, cursor: base, limit: limit}
}

func (a *Arena) Mark() uint32 { return a.cursor }

func (a *Arena) Reset(mark uint32) { a.cursor = mark }

// Alloc bumps the cursor by size, aligned to align (4 when align is 0),
// and returns the base
// address of the new allocation.
func (a *Arena) Alloc(size uint32, align uint32) (uint32, error) {
	if align == 0 {
		align = 4
	}
	addr := alignUp(a.cursor, align)
	if addr+size > a.limit {
		return 0, fmt.Errorf("pnmodule: stack overflow allocating %d bytes", size)
	}
	a.cursor = addr + size
	return addr, nil
}

// CallFrame is one activation record: the function being executed, its
// instruction pointer into RuntimeStream, its locals (one RuntimeValue per
// ValueID), and the arena mark to restore on return.
type CallFrame struct {
	Func      *pnmodule.Function
	IP        uint32
	Locals    []pnmodule.RuntimeValue
	ArenaMark uint32

	// Jmpbufs links this frame's registered setjmp ids, matching the
	// chain-walk longjmp needs (§4.5). longjmp restores IP/CurrentBB and
	// the arena mark, but never the frame's Locals — matching setjmp's C
	// semantics, where non-volatile locals are not rolled back.
	Jmpbufs []jmpbufEntry

	// IsThreadRoot marks the frame a thread began execution at: when it
	// returns, the thread dies (and, for the main thread, the process
	// exits with the returned value).
	IsThreadRoot bool

	// ReturnSlot is the caller-frame local the return value should be
	// written to, or InvalidValueID if the call was void or this is a
	// thread-root frame.
	ReturnSlot pnmodule.ValueID

	// CurrentBB is the basic block index IP currently lies within; kept up
	// to date on every branch so phi-assign lookups know the edge's
	// predecessor side.
	CurrentBB int32
}

type jmpbufEntry struct {
	id        uint64
	dest      pnmodule.ValueID
	returnIP  uint32
	returnBB  int32
	arenaMark uint32
}

// NewCallFrame allocates a frame for fn: args occupy the first NumArgs
// locals, fn's constant pool fills the next len(fn.Constants) (the
// monotonic value-id layout §3 guarantees), and instruction-defined locals
// start zeroed.
func NewCallFrame(fn *pnmodule.Function, args []pnmodule.RuntimeValue, arenaMark uint32) *CallFrame {
	locals := make([]pnmodule.RuntimeValue, len(fn.Values))
	copy(locals, args)
	for i, c := range fn.Constants {
		locals[fn.NumArgs+i] = c.Value
	}
	return &CallFrame{Func: fn, Locals: locals, ArenaMark: arenaMark, ReturnSlot: pnmodule.InvalidValueID}
}
