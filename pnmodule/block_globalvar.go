package pnmodule

import (
	"encoding/binary"
	"fmt"

	"github.com/pnacl-run/pnexec/abbrev"
)

// GuardSize is the size, in bytes, of the inaccessible guard region at the
// bottom of linear memory (§3, §6). Global variable offsets are absolute,
// counted from byte 0, so they already sit above this region.
const GuardSize = 0x10000

func alignUp(v uint32, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

func (ctx *parseCtx) ensureGlobalData(size uint32) {
	if uint32(len(ctx.globalData)) < size {
		grown := make([]byte, size)
		copy(grown, ctx.globalData)
		ctx.globalData = grown
	}
}

func (ctx *parseCtx) parseGlobalVarBlock() error {
	if len(ctx.globalData) < GuardSize {
		ctx.ensureGlobalData(GuardSize)
	}
	cursor := uint32(len(ctx.globalData))

	var curIndex = -1
	var curInitsRemaining = 0
	var curInitsPushed = 0

	onRecord := func(rr *abbrev.RecordReader, abbrevID uint32) error {
		rec, err := rr.Read(abbrevID)
		if err != nil {
			return err
		}
		switch rec.Code {
		case GlobalVarCodeCount:
			if len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: GLOBALVAR COUNT missing operand")
			}
			n := int(rec.Operands[0])
			if cap(ctx.module.Globals) < n {
				grown := make([]GlobalVar, len(ctx.module.Globals), n)
				copy(grown, ctx.module.Globals)
				ctx.module.Globals = grown
			}
		case GlobalVarCodeVar:
			if len(rec.Operands) < 2 {
				return fmt.Errorf("pnmodule: GLOBALVAR VAR missing operands")
			}
			alignShift := rec.Operands[0]
			var align uint32 = 1
			if alignShift != 0 {
				align = (uint32(1) << alignShift) >> 1
			}
			isConstant := rec.Operands[1] != 0
			cursor = alignUp(cursor, maxu32(align, 1))
			g := GlobalVar{Alignment: align, Offset: cursor, IsConstant: isConstant, NumInitializers: 1}
			gid := ctx.module.AddGlobalVar(g, InvalidTypeID)
			curIndex = int(gid)
			curInitsRemaining = 1
			curInitsPushed = 0
		case GlobalVarCodeCompound:
			if len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: GLOBALVAR COMPOUND missing operand")
			}
			if curIndex < 0 {
				return fmt.Errorf("pnmodule: COMPOUND with no open VAR")
			}
			n := int(rec.Operands[0])
			ctx.module.Globals[curIndex].NumInitializers = n
			curInitsRemaining = n
			curInitsPushed = 0
		case GlobalVarCodeZeroFill:
			if curIndex < 0 || len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: GLOBALVAR ZEROFILL misuse")
			}
			n := uint32(rec.Operands[0])
			ctx.ensureGlobalData(cursor + n)
			ctx.module.Globals[curIndex].Initializers = append(ctx.module.Globals[curIndex].Initializers,
				Initializer{Kind: InitZeroFill, Length: n})
			cursor += n
			curInitsPushed++
			curInitsRemaining--
		case GlobalVarCodeData:
			if curIndex < 0 {
				return fmt.Errorf("pnmodule: GLOBALVAR DATA with no open VAR")
			}
			data := make([]byte, len(rec.Operands))
			for i, v := range rec.Operands {
				data[i] = byte(v)
			}
			ctx.ensureGlobalData(cursor + uint32(len(data)))
			copy(ctx.globalData[cursor:], data)
			ctx.module.Globals[curIndex].Initializers = append(ctx.module.Globals[curIndex].Initializers,
				Initializer{Kind: InitData, Data: data})
			cursor += uint32(len(data))
			curInitsPushed++
			curInitsRemaining--
		case GlobalVarCodeReloc:
			if curIndex < 0 || len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: GLOBALVAR RELOC misuse")
			}
			target := ValueID(rec.Operands[0])
			var addend int64
			if len(rec.Operands) > 1 {
				addend = DecodeSignRotatedOperand(rec.Operands[1])
			}
			ctx.ensureGlobalData(cursor + 4)
			ctx.module.Globals[curIndex].Initializers = append(ctx.module.Globals[curIndex].Initializers,
				Initializer{Kind: InitReloc, Target: target, Addend: addend})
			ctx.relocs = append(ctx.relocs, pendingRelocEntry{writeAt: cursor, target: target, addend: addend})
			cursor += 4
			curInitsPushed++
			curInitsRemaining--
		default:
			return fmt.Errorf("pnmodule: unknown GLOBALVAR record code %d", rec.Code)
		}
		_ = curInitsRemaining
		return nil
	}

	if err := ctx.runBlockBody(BlockIDGlobalVar, onRecord, nil); err != nil {
		return err
	}

	// Resolve every relocation now that all globals' base offsets are
	// known (functions were always resolvable).
	remaining := ctx.relocs[:0]
	for _, pr := range ctx.relocs {
		addr, ok := ctx.resolveValueAddress(pr.target)
		if !ok {
			remaining = append(remaining, pr)
			continue
		}
		ctx.ensureGlobalData(pr.writeAt + 4)
		binary.LittleEndian.PutUint32(ctx.globalData[pr.writeAt:], addr+uint32(pr.addend))
	}
	ctx.relocs = remaining
	return nil
}

// resolveValueAddress computes the runtime address a module-scope value
// (function or global) would have; returns ok=false if it names something
// not yet resolvable at this point in parsing.
func (ctx *parseCtx) resolveValueAddress(id ValueID) (uint32, bool) {
	idx := int(id)
	if idx < 0 || idx >= len(ctx.module.ModuleValues) {
		return 0, false
	}
	v := ctx.module.ModuleValues[idx]
	switch v.Kind {
	case ValueFunction:
		return FunctionAddress(v.Index), true
	case ValueGlobalVar:
		if int(v.Index) >= len(ctx.module.Globals) {
			return 0, false
		}
		return ctx.module.Globals[v.Index].Offset, true
	default:
		return 0, false
	}
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// DecodeSignRotatedOperand decodes a sign-rotated record operand into a
// signed 64-bit value; the encoding 1 decodes to INT_MIN.
func DecodeSignRotatedOperand(v uint64) int64 {
	if v == 1 {
		return int64(-1 << 63)
	}
	if v&1 != 0 {
		return -int64(v >> 1)
	}
	return int64(v >> 1)
}
