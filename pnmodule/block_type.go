package pnmodule

import (
	"fmt"

	"github.com/pnacl-run/pnexec/abbrev"
)

func (ctx *parseCtx) parseTypeBlock() error {
	onRecord := func(rr *abbrev.RecordReader, abbrevID uint32) error {
		rec, err := rr.Read(abbrevID)
		if err != nil {
			return err
		}
		switch rec.Code {
		case TypeCodeNumEntry:
			if len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: TYPE NUMENTRY missing operand")
			}
			ctx.module.Types.Reserve(int(rec.Operands[0]))
		case TypeCodeVoid:
			ctx.module.Types.Append(Type{Kind: TypeVoid})
		case TypeCodeFloat:
			ctx.module.Types.Append(Type{Kind: TypeFloat})
		case TypeCodeDouble:
			ctx.module.Types.Append(Type{Kind: TypeDouble})
		case TypeCodeInteger:
			if len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: TYPE INTEGER missing width")
			}
			ctx.module.Types.Append(Type{Kind: TypeInteger, Width: int(rec.Operands[0])})
		case TypeCodeFunction:
			if len(rec.Operands) < 2 {
				return fmt.Errorf("pnmodule: TYPE FUNCTION missing operands")
			}
			isVarArgs := rec.Operands[0] != 0
			ret := TypeID(rec.Operands[1])
			args := make([]TypeID, 0, len(rec.Operands)-2)
			for _, a := range rec.Operands[2:] {
				args = append(args, TypeID(a))
			}
			ctx.module.Types.Append(Type{Kind: TypeFunction, IsVarArgs: isVarArgs, Return: ret, Args: args})
		default:
			return fmt.Errorf("pnmodule: unknown TYPE record code %d", rec.Code)
		}
		return nil
	}
	return ctx.runBlockBody(BlockIDType, onRecord, nil)
}
