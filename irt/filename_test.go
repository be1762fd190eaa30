package irt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pnacl-run/pnexec/pnmodule"
)

func TestFilenameOpenAndStat(t *testing.T) {
	ex := newTestExecutor(t)
	ex.FileBaseDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(ex.FileBaseDir, "f.txt"), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	pathP := ex.Mem.HeapStart
	if _, err := ex.Mem.WriteCString(pathP, "f.txt"); err != nil {
		t.Fatal(err)
	}
	fdP := pathP + 64
	errno, err := filenameOpen(ex, nil, []pnmodule.RuntimeValue{
		pnmodule.RuntimeValue(pathP), pnmodule.RuntimeValue(os.O_RDONLY), 0, pnmodule.RuntimeValue(fdP),
	})
	if err != nil || errno != 0 {
		t.Fatalf("open: errno=%d err=%v", errno, err)
	}

	statP := fdP + 64
	errno, err = filenameStat(ex, nil, []pnmodule.RuntimeValue{pnmodule.RuntimeValue(pathP), pnmodule.RuntimeValue(statP)})
	if err != nil || errno != 0 {
		t.Fatalf("stat: errno=%d err=%v", errno, err)
	}
	size, err := ex.Mem.Load(statP+40, 8) // st_size offset, see stat.go
	if err != nil {
		t.Fatal(err)
	}
	if size != 4 {
		t.Fatalf("st_size = %d want 4", size)
	}
}

func TestFilenameOpenRejectsEscapingPath(t *testing.T) {
	ex := newTestExecutor(t)
	ex.FileBaseDir = t.TempDir()
	pathP := ex.Mem.HeapStart
	if _, err := ex.Mem.WriteCString(pathP, "../../etc/passwd"); err != nil {
		t.Fatal(err)
	}
	errno, err := filenameOpen(ex, nil, []pnmodule.RuntimeValue{
		pnmodule.RuntimeValue(pathP), pnmodule.RuntimeValue(os.O_RDONLY), 0, pnmodule.RuntimeValue(pathP + 64),
	})
	if err != nil {
		t.Fatal(err)
	}
	if errno != pnmodule.RuntimeValue(EACCES) {
		t.Fatalf("got errno %d want EACCES", errno)
	}
}

func TestSanitizePathRejectsAbsolute(t *testing.T) {
	ex := newTestExecutor(t)
	ex.FileBaseDir = t.TempDir()
	if _, ok := ex.SanitizePath("/etc/passwd"); ok {
		t.Fatal("expected absolute path to be rejected")
	}
}
