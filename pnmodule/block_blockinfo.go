package pnmodule

import (
	"fmt"

	"github.com/pnacl-run/pnexec/abbrev"
)

// parseBlockInfoBlock parses a BLOCKINFO block. Unlike every other block
// kind, its DEFINE_ABBREV entries register into the global, per-block-id
// store (keyed by the most recent SETBID record) rather than a local
// table, and sub-blocks are illegal.
func (ctx *parseCtx) parseBlockInfoBlock() error {
	codelen, err := ctx.blockPrologue()
	if err != nil {
		return err
	}
	var currentBID uint64
	haveBID := false

	for {
		tag, err := ctx.bs.Read(codelen)
		if err != nil {
			return err
		}
		switch tag {
		case EntryEndBlock:
			return ctx.bs.AlignTo32()
		case EntrySubBlock:
			return fmt.Errorf("pnmodule: BLOCKINFO may not contain sub-blocks")
		case EntryDefineAbbrev:
			if !haveBID {
				return fmt.Errorf("pnmodule: BLOCKINFO DEFINE_ABBREV before any SETBID")
			}
			a, err := abbrev.ReadAbbrevDef(ctx.bs)
			if err != nil {
				return err
			}
			ctx.blockInfo.Add(currentBID, a)
		default: // record; BLOCKINFO has no local abbreviations of its own
			rec, err := abbrev.ReadUnabbreviatedRecord(ctx.bs)
			if tag != EntryUnabbrevRecord {
				return fmt.Errorf("pnmodule: BLOCKINFO record via abbreviation id %d unsupported", tag)
			}
			if err != nil {
				return err
			}
			if rec.Code == BlockInfoCodeSetBID {
				if len(rec.Operands) < 1 {
					return fmt.Errorf("pnmodule: SETBID record missing operand")
				}
				currentBID = rec.Operands[0]
				haveBID = true
			}
		}
	}
}
