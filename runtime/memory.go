// Package runtime implements the executor: linear memory, call frames,
// threads, and the dispatch loop that interprets a function's runtime
// instruction stream (spec §4.5, §5, §6).
package runtime

import (
	"encoding/binary"
	"fmt"

	"github.com/pnacl-run/pnexec/pnmodule"
)

// Memory is the flat address space shared by every simulated thread. Only
// one thread ever advances at a time (§5), so Memory itself needs no
// locking; the scheduler's baton is what serializes access.
type Memory struct {
	bytes []byte

	GlobalVarStart, GlobalVarEnd uint32
	StartInfoStart, StartInfoEnd uint32
	HeapStart, HeapEnd           uint32
	StackEnd                     uint32 // stack occupies [stackEnd, len(bytes))

	heapCursor uint32
	mappedPages map[uint32]uint32 // page address -> page count, for mmap bookkeeping
}

// ErrOutOfBounds is returned by any access that lands in the guard region
// or past the end of memory.
var ErrOutOfBounds = fmt.Errorf("pnmodule: memory access out of bounds")

// NewMemory lays out a fresh address space: globalData (already including
// the guard prefix, pnmodule.GuardSize bytes) at the bottom, startInfoSize
// bytes of start-info space, then heap and stack sized to fill the
// requested total size.
func NewMemory(globalData []byte, totalSize uint32, startInfoSize uint32, stackSize uint32) (*Memory, error) {
	if uint32(len(globalData)) >= totalSize {
		return nil, fmt.Errorf("pnmodule: requested memory size %d too small for global data (%d bytes)", totalSize, len(globalData))
	}
	m := &Memory{
		bytes:         make([]byte, totalSize),
		GlobalVarStart: pnmodule.GuardSize,
		GlobalVarEnd:  uint32(len(globalData)),
		mappedPages:   make(map[uint32]uint32),
	}
	copy(m.bytes, globalData)

	m.StartInfoStart = m.GlobalVarEnd
	m.StartInfoEnd = m.StartInfoStart + startInfoSize
	m.HeapStart = m.StartInfoEnd
	m.heapCursor = m.HeapStart

	if m.HeapStart+stackSize >= totalSize {
		return nil, fmt.Errorf("pnmodule: memory size %d too small for start-info (%d) and stack (%d)", totalSize, startInfoSize, stackSize)
	}
	m.StackEnd = totalSize - stackSize
	m.HeapEnd = m.StackEnd
	return m, nil
}

func (m *Memory) Size() uint32 { return uint32(len(m.bytes)) }

func (m *Memory) checkRange(addr, n uint32) error {
	if addr < pnmodule.GuardSize {
		return fmt.Errorf("%w: address %#x in guard region", ErrOutOfBounds, addr)
	}
	if uint64(addr)+uint64(n) > uint64(len(m.bytes)) {
		return fmt.Errorf("%w: address %#x+%d past memory size %d", ErrOutOfBounds, addr, n, len(m.bytes))
	}
	return nil
}

func (m *Memory) Load(addr uint32, width int) (pnmodule.RuntimeValue, error) {
	if err := m.checkRange(addr, uint32(width)); err != nil {
		return 0, err
	}
	b := m.bytes[addr : addr+uint32(width)]
	switch width {
	case 1:
		return pnmodule.RuntimeValue(b[0]), nil
	case 2:
		return pnmodule.RuntimeValue(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return pnmodule.RuntimeValue(binary.LittleEndian.Uint32(b)), nil
	case 8:
		return pnmodule.RuntimeValue(binary.LittleEndian.Uint64(b)), nil
	}
	return 0, fmt.Errorf("pnmodule: unsupported load width %d", width)
}

func (m *Memory) Store(addr uint32, width int, v pnmodule.RuntimeValue) error {
	if err := m.checkRange(addr, uint32(width)); err != nil {
		return err
	}
	b := m.bytes[addr : addr+uint32(width)]
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, uint64(v))
	default:
		return fmt.Errorf("pnmodule: unsupported store width %d", width)
	}
	return nil
}

// WidthOf returns the load/store width in bytes for a basic type.
func WidthOf(t pnmodule.BasicType) int {
	switch t {
	case pnmodule.BasicI1, pnmodule.BasicI8:
		return 1
	case pnmodule.BasicI16:
		return 2
	case pnmodule.BasicI32, pnmodule.BasicF32:
		return 4
	case pnmodule.BasicI64, pnmodule.BasicF64:
		return 8
	}
	return 0
}

// CopyIn / CopyOut move raw bytes, used by memcpy/memmove and start-info
// construction.
func (m *Memory) CopyIn(addr uint32, data []byte) error {
	if err := m.checkRange(addr, uint32(len(data))); err != nil {
		return err
	}
	copy(m.bytes[addr:], data)
	return nil
}

func (m *Memory) CopyOut(addr uint32, n uint32) ([]byte, error) {
	if err := m.checkRange(addr, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.bytes[addr:addr+n])
	return out, nil
}

func (m *Memory) Fill(addr uint32, value byte, n uint32) error {
	if err := m.checkRange(addr, n); err != nil {
		return err
	}
	region := m.bytes[addr : addr+n]
	for i := range region {
		region[i] = value
	}
	return nil
}

// Mmap implements the anonymous-mapping scan/extend described in §4.6: find
// the first run of npages free pages starting at heap_start, else extend
// the heap (checked against the stack's current low-water mark).
func (m *Memory) Mmap(npages uint32, pageSize uint32) (uint32, error) {
	candidate := alignUp(m.HeapStart, pageSize)
	for {
		free := true
		for p := uint32(0); p < npages; p++ {
			addr := candidate + p*pageSize
			if n, mapped := m.mappedPages[addr]; mapped && n > 0 {
				free = false
				candidate = addr + n*pageSize
				break
			}
		}
		if free {
			break
		}
	}
	end := candidate + npages*pageSize
	if end > m.StackEnd {
		if end > m.HeapEnd {
			return 0, fmt.Errorf("pnmodule: mmap of %d pages would collide with stack", npages)
		}
	}
	if end > m.heapCursor {
		m.heapCursor = end
	}
	m.mappedPages[candidate] = npages
	return candidate, nil
}

// ReadCString reads a NUL-terminated string starting at addr.
func (m *Memory) ReadCString(addr uint32) (string, error) {
	var out []byte
	for a := addr; ; a++ {
		if err := m.checkRange(a, 1); err != nil {
			return "", err
		}
		b := m.bytes[a]
		if b == 0 {
			break
		}
		out = append(out, b)
		if len(out) > 1<<16 {
			return "", fmt.Errorf("pnmodule: cstring at %#x exceeds 64KiB without a NUL terminator", addr)
		}
	}
	return string(out), nil
}

// WriteCString writes s followed by a NUL terminator at addr, returning
// the number of bytes written including the terminator.
func (m *Memory) WriteCString(addr uint32, s string) (uint32, error) {
	data := append([]byte(s), 0)
	if err := m.CopyIn(addr, data); err != nil {
		return 0, err
	}
	return uint32(len(data)), nil
}

func (m *Memory) Munmap(addr uint32) {
	delete(m.mappedPages, addr)
}

func alignUp(v, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
