package pnmodule

import (
	"fmt"

	"github.com/pnacl-run/pnexec/abbrev"
)

func (ctx *parseCtx) parseModuleBlock() error {
	var pendingBodies []int32
	var moduleSymtabs []*ValueSymtab

	onRecord := func(rr *abbrev.RecordReader, abbrevID uint32) error {
		rec, err := rr.Read(abbrevID)
		if err != nil {
			return err
		}
		switch rec.Code {
		case ModuleCodeVersion:
			if len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: MODULE VERSION missing operand")
			}
			ctx.module.UseRelativeIDs = rec.Operands[0] == 1
			return nil
		case ModuleCodeFunction:
			if len(rec.Operands) < 4 {
				return fmt.Errorf("pnmodule: MODULE FUNCTION malformed record")
			}
			typeID := TypeID(rec.Operands[0])
			callingConv := uint32(rec.Operands[1])
			isProto := rec.Operands[2] != 0
			linkage := Linkage(rec.Operands[3])

			t, err := ctx.module.Types.Get(typeID)
			if err != nil {
				return err
			}
			fn := Function{
				TypeID: typeID, CallingConv: callingConv, IsProto: isProto,
				Linkage: linkage, NumArgs: len(t.Args), IntrinsicID: -1,
				UseRelativeIDs: ctx.module.UseRelativeIDs,
			}
			id := ctx.module.AddFunction(fn)
			if !isProto {
				pendingBodies = append(pendingBodies, id)
			}
			return nil
		default:
			return fmt.Errorf("pnmodule: unknown MODULE record code %d", rec.Code)
		}
	}

	bodyCursor := 0
	onSubBlock := func(subID uint64) error {
		switch subID {
		case BlockIDBlockInfo:
			return ctx.parseBlockInfoBlock()
		case BlockIDType:
			return ctx.parseTypeBlock()
		case BlockIDGlobalVar:
			return ctx.parseGlobalVarBlock()
		case BlockIDValueSymtab:
			vs, err := ctx.parseValueSymtabBlock()
			if err != nil {
				return err
			}
			moduleSymtabs = append(moduleSymtabs, vs)
			return nil
		case BlockIDFunction:
			if bodyCursor >= len(pendingBodies) {
				return fmt.Errorf("pnmodule: more FUNCTION bodies than non-proto declarations")
			}
			fid := pendingBodies[bodyCursor]
			bodyCursor++
			fn := &ctx.module.Funcs[fid]
			t, err := ctx.module.Types.Get(fn.TypeID)
			if err != nil {
				return err
			}
			for _, argType := range t.Args {
				newFuncBuilderArgPlaceholder(fn, argType)
			}
			return ctx.parseFunctionBody(fn)
		default:
			return fmt.Errorf("pnmodule: unexpected sub-block %d inside MODULE", subID)
		}
	}

	if err := ctx.runBlockBody(BlockIDModule, onRecord, onSubBlock); err != nil {
		return err
	}

	for _, vs := range moduleSymtabs {
		ctx.applyModuleSymtab(vs)
	}
	return nil
}

// newFuncBuilderArgPlaceholder appends one FunctionArg value to fn ahead
// of body parsing, matching the monotonic args-first id ordering (§3).
func newFuncBuilderArgPlaceholder(fn *Function, typeID TypeID) {
	id := int32(len(fn.Values))
	fn.Values = append(fn.Values, Value{Kind: ValueFunctionArg, Index: id, TypeID: typeID})
}
