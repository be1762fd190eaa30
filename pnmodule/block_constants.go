package pnmodule

import (
	"fmt"

	"github.com/pnacl-run/pnexec/abbrev"
)

func (ctx *parseCtx) parseConstantsBlock(fb *funcBuilder) error {
	onRecord := func(rr *abbrev.RecordReader, abbrevID uint32) error {
		rec, err := rr.Read(abbrevID)
		if err != nil {
			return err
		}
		switch rec.Code {
		case ConstantsCodeSetType:
			if len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: CONSTANTS SETTYPE missing operand")
			}
			fb.curConstType = TypeID(rec.Operands[0])
		case ConstantsCodeUndef:
			if fb.curConstType == InvalidTypeID {
				return fmt.Errorf("pnmodule: CONSTANTS UNDEF before SETTYPE")
			}
			t, err := ctx.module.Types.Get(fb.curConstType)
			if err != nil {
				return err
			}
			fb.addConstant(Constant{Code: rec.Code, TypeID: fb.curConstType, Basic: t.Basic()})
		case ConstantsCodeInteger:
			if fb.curConstType == InvalidTypeID || len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: CONSTANTS INTEGER misuse")
			}
			t, err := ctx.module.Types.Get(fb.curConstType)
			if err != nil {
				return err
			}
			v := DecodeSignRotatedOperand(rec.Operands[0])
			fb.addConstant(Constant{Code: rec.Code, TypeID: fb.curConstType, Basic: t.Basic(), Value: RuntimeValueFromI64(v)})
		case ConstantsCodeFloat:
			if fb.curConstType == InvalidTypeID || len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: CONSTANTS FLOAT misuse")
			}
			t, err := ctx.module.Types.Get(fb.curConstType)
			if err != nil {
				return err
			}
			var rv RuntimeValue
			switch t.Basic() {
			case BasicF64:
				// always decode a full 64-bit IEEE pattern for double (§9,
				// resolved open question).
				rv = RuntimeValue(rec.Operands[0])
			case BasicF32:
				rv = RuntimeValue(uint32(rec.Operands[0]))
			default:
				return fmt.Errorf("pnmodule: CONSTANTS FLOAT on non-float type")
			}
			fb.addConstant(Constant{Code: rec.Code, TypeID: fb.curConstType, Basic: t.Basic(), Value: rv})
		default:
			return fmt.Errorf("pnmodule: unknown CONSTANTS record code %d", rec.Code)
		}
		return nil
	}
	return ctx.runBlockBody(BlockIDConstants, onRecord, nil)
}
