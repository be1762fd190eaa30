package irt

import (
	"os"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
)

// writeStat marshals fi into the 104-byte stat structure at statP, field
// offsets matching host glibc's struct stat on a 64-bit target (§6):
//
//	offset size
//	0   8  st_dev
//	8   8  st_ino
//	16  4  st_mode
//	20  4  st_nlink
//	24  4  st_uid
//	28  4  st_gid
//	32  8  st_rdev
//	40  8  st_size
//	48  4  st_blksize
//	52  4  st_blocks
//	56  8  st_atime      64  8  st_atime_nsec
//	72  8  st_mtime      80  8  st_mtime_nsec
//	88  8  st_ctime      96  8  st_ctime_nsec
func writeStat(mem *runtime.Memory, statP uint32, fi os.FileInfo) error {
	mode := uint32(fi.Mode().Perm())
	if fi.IsDir() {
		mode |= 0040000
	} else {
		mode |= 0100000
	}
	mtime := fi.ModTime().Unix()
	nlink := uint32(1)

	writes := []struct {
		off   uint32
		width int
		val   uint64
	}{
		{0, 8, 0},                   // st_dev
		{8, 8, 0},                   // st_ino
		{16, 4, uint64(mode)},       // st_mode
		{20, 4, uint64(nlink)},      // st_nlink
		{24, 4, 0},                  // st_uid
		{28, 4, 0},                  // st_gid
		{32, 8, 0},                  // st_rdev
		{40, 8, uint64(fi.Size())},  // st_size
		{48, 4, 4096},               // st_blksize
		{52, 4, uint64(fi.Size()+511) / 512}, // st_blocks
		{56, 8, uint64(mtime)},      // st_atime
		{64, 8, 0},                  // st_atime_nsec
		{72, 8, uint64(mtime)},      // st_mtime
		{80, 8, 0},                  // st_mtime_nsec
		{88, 8, uint64(mtime)},      // st_ctime
		{96, 8, 0},                  // st_ctime_nsec
	}
	for _, w := range writes {
		if err := mem.Store(statP+w.off, w.width, pnmodule.RuntimeValue(w.val)); err != nil {
			return err
		}
	}
	return nil
}
