package pnmodule

import (
	"encoding/binary"
	"fmt"

	"github.com/pnacl-run/pnexec/abbrev"
	"github.com/pnacl-run/pnexec/bitstream"
)

// ParsedModule is the result of parsing a PEXE file: the module plus the
// flat byte blob that GlobalVar.Offset indexes into (copied into linear
// memory from address 0 by the caller; its first GuardSize bytes are the
// guard region).
type ParsedModule struct {
	Module     *Module
	GlobalData []byte
}

// ParsePEXEHeader validates the "PEXE" container prefix and returns the
// byte offset at which the LLVM-style bit stream begins. The field table
// itself is a byte-level contract only (§1): this walks it just far enough
// to find where the bitcode starts.
func ParsePEXEHeader(data []byte) (int, error) {
	if len(data) < 8 || string(data[0:4]) != "PEXE" {
		return 0, fmt.Errorf("pnmodule: missing PEXE magic")
	}
	off := 4
	numFields := binary.LittleEndian.Uint16(data[off:])
	off += 2
	_ = binary.LittleEndian.Uint16(data[off:]) // num_bytes, informational
	off += 2

	for i := uint16(0); i < numFields; i++ {
		if off+4 > len(data) {
			return 0, fmt.Errorf("pnmodule: truncated PEXE field header")
		}
		packed := data[off]
		ftype := packed & 0x0F
		off++
		off++ // padding byte
		length := int(binary.LittleEndian.Uint16(data[off:]))
		off += 2
		switch ftype {
		case 0:
			off += length
		case 1:
			off += 4
		default:
			return 0, fmt.Errorf("pnmodule: unknown PEXE field type %d", ftype)
		}
		if off > len(data) {
			return 0, fmt.Errorf("pnmodule: PEXE field runs past end of file")
		}
	}
	return off, nil
}

// parseCtx threads shared, mutable parse state through every block parser.
type parseCtx struct {
	bs         *bitstream.BitStream
	blockInfo  *abbrev.BlockInfoStore
	module     *Module
	globalData []byte // globalvar region being built, offset 0 == address 0 (guard included)
	relocs     []pendingRelocEntry
}

type pendingRelocEntry struct {
	writeAt uint32 // byte offset in globalData to patch (4 bytes, LE)
	target  ValueID
	addend  int64
}

// Parse reads a complete PEXE file and returns the module plus its initial
// global-data blob.
func Parse(data []byte) (*ParsedModule, error) {
	start, err := ParsePEXEHeader(data)
	if err != nil {
		return nil, err
	}
	bs := bitstream.New(data, start)

	ctx := &parseCtx{
		bs:        bs,
		blockInfo: abbrev.NewBlockInfoStore(),
		module:    NewModule(),
	}

	// Top level: fixed 2-bit abbrev width; only ENTER_SUBBLOCK is legal.
	tag, err := bs.Read(2)
	if err != nil {
		return nil, fmt.Errorf("pnmodule: reading top-level entry: %w", err)
	}
	if tag != EntrySubBlock {
		return nil, fmt.Errorf("pnmodule: expected top-level SUBBLOCK, got tag %d", tag)
	}
	blockID, err := bs.ReadVBR(8)
	if err != nil {
		return nil, err
	}
	if blockID != BlockIDModule {
		return nil, fmt.Errorf("pnmodule: top-level block id %d, want MODULE(8)", blockID)
	}
	if err := ctx.parseModuleBlock(); err != nil {
		return nil, err
	}

	if len(ctx.relocs) != 0 {
		return nil, fmt.Errorf("pnmodule: %d unresolved relocations at end of parse", len(ctx.relocs))
	}

	return &ParsedModule{Module: ctx.module, GlobalData: ctx.globalData}, nil
}

// blockPrologue reads the codelen (VBR-4) and 32-bit word count that begin
// every block body, returning codelen.
func (ctx *parseCtx) blockPrologue() (uint, error) {
	codelen, err := ctx.bs.ReadVBR(4)
	if err != nil {
		return 0, err
	}
	if _, err := ctx.bs.Read(32); err != nil { // word count, informational
		return 0, err
	}
	return uint(codelen), nil
}

// runBlockBody drives the generic entry loop shared by every block kind:
// END_BLOCK terminates, DEFINE_ABBREV appends to the local table, SUBBLOCK
// is delegated to onSubBlock, and everything else is a record delegated to
// onRecord.
func (ctx *parseCtx) runBlockBody(blockID uint64, onRecord func(rr *abbrev.RecordReader, abbrevID uint32) error, onSubBlock func(subBlockID uint64) error) error {
	codelen, err := ctx.blockPrologue()
	if err != nil {
		return err
	}
	table := abbrev.NewTable(ctx.blockInfo.Inherited(blockID))
	rr := abbrev.NewRecordReader(ctx.bs, table)

	for {
		tag, err := ctx.bs.Read(codelen)
		if err != nil {
			return err
		}
		switch tag {
		case EntryEndBlock:
			return ctx.bs.AlignTo32()
		case EntrySubBlock:
			subID, err := ctx.bs.ReadVBR(8)
			if err != nil {
				return err
			}
			if onSubBlock == nil {
				return fmt.Errorf("pnmodule: sub-block %d illegal here", subID)
			}
			if err := onSubBlock(subID); err != nil {
				return err
			}
		case EntryDefineAbbrev:
			if err := rr.DefineAbbrev(); err != nil {
				return err
			}
		default:
			if err := onRecord(rr, tag); err != nil {
				return err
			}
		}
	}
}
