package pnmodule

import (
	"fmt"

	"github.com/pnacl-run/pnexec/abbrev"
)

// ValueSymtab is the decoded contents of one VALUE_SYMTAB block: value
// names and, for a symtab nested in a FUNCTION block, basic-block label
// names.
type ValueSymtab struct {
	ValueNames map[ValueID]string
	BBNames    map[int32]string
}

func (ctx *parseCtx) parseValueSymtabBlock() (*ValueSymtab, error) {
	vs := &ValueSymtab{ValueNames: make(map[ValueID]string), BBNames: make(map[int32]string)}
	onRecord := func(rr *abbrev.RecordReader, abbrevID uint32) error {
		rec, err := rr.Read(abbrevID)
		if err != nil {
			return err
		}
		switch rec.Code {
		case ValueSymtabCodeEntry:
			if len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: VALUE_SYMTAB ENTRY missing value id")
			}
			id := ValueID(rec.Operands[0])
			vs.ValueNames[id] = decodeSymtabString(rec.Operands[1:])
		case ValueSymtabCodeBBEntry:
			if len(rec.Operands) < 1 {
				return fmt.Errorf("pnmodule: VALUE_SYMTAB BBENTRY missing bb id")
			}
			bb := int32(rec.Operands[0])
			vs.BBNames[bb] = decodeSymtabString(rec.Operands[1:])
		default:
			return fmt.Errorf("pnmodule: unknown VALUE_SYMTAB record code %d", rec.Code)
		}
		return nil
	}
	if err := ctx.runBlockBody(BlockIDValueSymtab, onRecord, nil); err != nil {
		return nil, err
	}
	return vs, nil
}

func decodeSymtabString(ops []uint64) string {
	b := make([]byte, len(ops))
	for i, v := range ops {
		b[i] = byte(v)
	}
	return string(b)
}

// applyModuleSymtab names functions and globals, recording intrinsic
// linkage by exact name match (§4.3's VALUESYMTAB contract).
func (ctx *parseCtx) applyModuleSymtab(vs *ValueSymtab) {
	for id, name := range vs.ValueNames {
		idx := int(id)
		if idx < 0 || idx >= len(ctx.module.ModuleValues) {
			continue
		}
		v := ctx.module.ModuleValues[idx]
		if v.Kind != ValueFunction {
			continue
		}
		if ii := IntrinsicIndex(name); ii >= 0 {
			ctx.module.Funcs[v.Index].IntrinsicID = ii
		}
		if name == "_start" {
			ctx.module.StartFunctionID = v.Index
		}
		ctx.module.Funcs[v.Index].Name = name
	}
}
