package runtime

import (
	"testing"

	"github.com/pnacl-run/pnexec/pnmodule"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	globalData := make([]byte, pnmodule.GuardSize+16)
	m, err := NewMemory(globalData, 1<<20, 256, 4096)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestGuardRegionRejected(t *testing.T) {
	m := newTestMemory(t)
	if _, err := m.Load(0, 4); err == nil {
		t.Fatal("expected guard-region load to fail")
	}
	if err := m.Store(pnmodule.GuardSize-4, 4, 1); err == nil {
		t.Fatal("expected guard-region store to fail")
	}
}

func TestLoadStoreRoundTrip(t *testing.T) {
	m := newTestMemory(t)
	addr := m.HeapStart
	for _, width := range []int{1, 2, 4, 8} {
		want := pnmodule.RuntimeValue(0x0102030405060708 & (1<<(8*width) - 1))
		if err := m.Store(addr, width, want); err != nil {
			t.Fatalf("width %d: %v", width, err)
		}
		got, err := m.Load(addr, width)
		if err != nil {
			t.Fatalf("width %d: %v", width, err)
		}
		if got != want {
			t.Fatalf("width %d: got %#x want %#x", width, got, want)
		}
	}
}

func TestCStringRoundTrip(t *testing.T) {
	m := newTestMemory(t)
	n, err := m.WriteCString(m.HeapStart, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("wrote %d bytes, want 3", n)
	}
	got, err := m.ReadCString(m.HeapStart)
	if err != nil {
		t.Fatal(err)
	}
	if got != "hi" {
		t.Fatalf("got %q want %q", got, "hi")
	}
}

func TestMmapFindsFreeRunThenExtends(t *testing.T) {
	m := newTestMemory(t)
	const page = 0x10000
	a1, err := m.Mmap(1, page)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := m.Mmap(1, page)
	if err != nil {
		t.Fatal(err)
	}
	if a2 == a1 {
		t.Fatal("second mmap reused the first mapping's address")
	}
	m.Munmap(a1)
	a3, err := m.Mmap(1, page)
	if err != nil {
		t.Fatal(err)
	}
	if a3 != a1 {
		t.Fatalf("freed page not reused: got %#x want %#x", a3, a1)
	}
}

func TestMmapCollidesWithStack(t *testing.T) {
	m := newTestMemory(t)
	const page = 0x10000
	npages := (m.StackEnd-m.HeapStart)/page + 4
	if _, err := m.Mmap(npages, page); err == nil {
		t.Fatal("expected mmap overrunning the stack region to fail")
	}
}

func TestOutOfBoundsPastMemoryEnd(t *testing.T) {
	m := newTestMemory(t)
	if _, err := m.Load(m.Size()-2, 4); err == nil {
		t.Fatal("expected load straddling memory end to fail")
	}
}
