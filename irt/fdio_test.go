package irt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pnacl-run/pnexec/pnmodule"
)

func TestFdioWriteThenReadRoundTrip(t *testing.T) {
	ex := newTestExecutor(t)
	path := filepath.Join(t.TempDir(), "scratch")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		t.Fatal(err)
	}
	fd := ex.OpenFD(f)

	bufP := ex.Mem.HeapStart
	if err := ex.Mem.CopyIn(bufP, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	nP := bufP + 64
	errno, err := fdioWrite(ex, nil, []pnmodule.RuntimeValue{
		pnmodule.RuntimeValue(fd), pnmodule.RuntimeValue(bufP), 5, pnmodule.RuntimeValue(nP),
	})
	if err != nil || errno != 0 {
		t.Fatalf("write: errno=%d err=%v", errno, err)
	}

	if _, err := fdioSeek(ex, nil, []pnmodule.RuntimeValue{
		pnmodule.RuntimeValue(fd), 0, 0, pnmodule.RuntimeValue(nP),
	}); err != nil {
		t.Fatal(err)
	}

	readBufP := nP + 64
	errno, err = fdioRead(ex, nil, []pnmodule.RuntimeValue{
		pnmodule.RuntimeValue(fd), pnmodule.RuntimeValue(readBufP), 5, pnmodule.RuntimeValue(nP),
	})
	if err != nil || errno != 0 {
		t.Fatalf("read: errno=%d err=%v", errno, err)
	}
	got, err := ex.Mem.CopyOut(readBufP, 5)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q want %q", got, "hello")
	}
}

func TestFdioCloseUnknownDescriptor(t *testing.T) {
	ex := newTestExecutor(t)
	errno, err := fdioClose(ex, nil, []pnmodule.RuntimeValue{999})
	if err != nil {
		t.Fatal(err)
	}
	if errno != pnmodule.RuntimeValue(EBADF) {
		t.Fatalf("got errno %d want EBADF", errno)
	}
}
