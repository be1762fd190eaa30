package pnmodule

import (
	"fmt"

	"github.com/pnacl-run/pnexec/abbrev"
)

// parseFunctionBody parses one FUNCTION block's body into fn, which must
// already have its prototype fields (Name, TypeID, NumArgs, ...) set and
// its argument values pre-populated by the caller.
func (ctx *parseCtx) parseFunctionBody(fn *Function) error {
	fb := newFuncBuilder(fn, ctx.module.UseRelativeIDs)

	onSubBlock := func(subID uint64) error {
		switch subID {
		case BlockIDConstants:
			return ctx.parseConstantsBlock(fb)
		case BlockIDValueSymtab:
			vs, err := ctx.parseValueSymtabBlock()
			if err != nil {
				return err
			}
			fb.vs = vs
			return nil
		default:
			return fmt.Errorf("pnmodule: unexpected sub-block %d inside FUNCTION", subID)
		}
	}

	onRecord := func(rr *abbrev.RecordReader, abbrevID uint32) error {
		rec, err := rr.Read(abbrevID)
		if err != nil {
			return err
		}
		return ctx.applyFunctionRecord(fb, rec)
	}

	if err := ctx.runBlockBody(BlockIDFunction, onRecord, onSubBlock); err != nil {
		return err
	}
	if fb.vs != nil {
		for bb, name := range fb.vs.BBNames {
			_ = bb
			_ = name // basic-block labels are informational only; not needed to execute
		}
	}
	return nil
}

func (ctx *parseCtx) applyFunctionRecord(fb *funcBuilder, rec *abbrev.Record) error {
	switch rec.Code {
	case FunctionCodeDeclareBlocks:
		if len(rec.Operands) < 1 {
			return fmt.Errorf("pnmodule: DECLAREBLOCKS missing operand")
		}
		n := int(rec.Operands[0])
		fb.fn.BBs = make([]BasicBlock, n)
		fb.curBB = 0
		return nil

	case FunctionCodeBinOp:
		if len(rec.Operands) < 4 {
			return fmt.Errorf("pnmodule: BINOP malformed record")
		}
		// No explicit result type on the wire: a binop's result type is
		// the unified type of its operands, determined by the analyzer's
		// result-type inference pass (§4.4.1).
		op := BinOp(rec.Operands[0])
		lhs := fb.resolveValueID(rec.Operands[1])
		rhs := fb.resolveValueID(rec.Operands[2])
		flags := uint32(rec.Operands[3])
		result := fb.addInstructionResult(InvalidTypeID)
		fb.appendInst(Instruction{Kind: InstBinOp, ResultType: InvalidTypeID, ResultID: result, BinOp: op, LHS: lhs, RHS: rhs, Flags: flags})
		return nil

	case FunctionCodeCast:
		if len(rec.Operands) < 3 {
			return fmt.Errorf("pnmodule: CAST malformed record")
		}
		resultType := TypeID(rec.Operands[0])
		op := CastOp(rec.Operands[1])
		src := fb.resolveValueID(rec.Operands[2])
		result := fb.addInstructionResult(resultType)
		fb.appendInst(Instruction{Kind: InstCast, ResultType: resultType, ResultID: result, CastOp: op, Operand: src})
		return nil

	case FunctionCodeRet:
		inst := Instruction{Kind: InstRet, ResultID: InvalidValueID, RetValue: InvalidValueID}
		if len(rec.Operands) >= 1 {
			inst.RetValue = fb.resolveValueID(rec.Operands[0])
		}
		fb.appendInst(inst)
		fb.closeTerminator()
		return nil

	case FunctionCodeBr:
		if len(rec.Operands) == 1 {
			target := int32(rec.Operands[0])
			fb.appendInst(Instruction{Kind: InstBr, ResultID: InvalidValueID, Cond: InvalidValueID, TrueTarget: target})
			fb.closeTerminator(target)
			return nil
		}
		if len(rec.Operands) >= 3 {
			trueT := int32(rec.Operands[0])
			falseT := int32(rec.Operands[1])
			cond := fb.resolveValueID(rec.Operands[2])
			fb.appendInst(Instruction{Kind: InstBr, ResultID: InvalidValueID, Cond: cond, TrueTarget: trueT, FalseTarget: falseT})
			fb.closeTerminator(trueT, falseT)
			return nil
		}
		return fmt.Errorf("pnmodule: BR malformed record")

	case FunctionCodeSwitch:
		if len(rec.Operands) < 3 {
			return fmt.Errorf("pnmodule: SWITCH malformed record")
		}
		condType := TypeID(rec.Operands[0])
		cond := fb.resolveValueID(rec.Operands[1])
		defaultTarget := int32(rec.Operands[2])
		numCases := uint64(0)
		if len(rec.Operands) > 3 {
			numCases = rec.Operands[3]
		}
		cases := make([]SwitchCase, 0, numCases)
		succ := map[int32]bool{defaultTarget: true}
		off := 4
		for i := uint64(0); i < numCases; i++ {
			if off+1 >= len(rec.Operands) {
				return fmt.Errorf("pnmodule: SWITCH case truncated")
			}
			val := DecodeSignRotatedOperand(rec.Operands[off])
			target := int32(rec.Operands[off+1])
			cases = append(cases, SwitchCase{Value: val, Target: target})
			succ[target] = true
			off += 2
		}
		fb.appendInst(Instruction{Kind: InstSwitch, ResultID: InvalidValueID, ResultType: condType, SwitchValue: cond, DefaultTarget: defaultTarget, Cases: cases})
		successors := make([]int32, 0, len(succ))
		for t := range succ {
			successors = append(successors, t)
		}
		fb.closeTerminator(successors...)
		return nil

	case FunctionCodeUnreachable:
		fb.appendInst(Instruction{Kind: InstUnreachable, ResultID: InvalidValueID})
		fb.closeTerminator()
		return nil

	case FunctionCodePhi:
		if len(rec.Operands) < 1 {
			return fmt.Errorf("pnmodule: PHI malformed record")
		}
		resultType := TypeID(rec.Operands[0])
		// No explicit incoming-count field: operands after the type id are
		// (value, bb) pairs read until the record runs out.
		rest := rec.Operands[1:]
		if len(rest)%2 != 0 {
			return fmt.Errorf("pnmodule: PHI incoming truncated")
		}
		incoming := make([]PhiIncoming, 0, len(rest)/2)
		for off := 0; off < len(rest); off += 2 {
			v := fb.resolveValueID(rest[off])
			bb := int32(rest[off+1])
			incoming = append(incoming, PhiIncoming{BB: bb, Value: v})
		}
		result := fb.addInstructionResult(resultType)
		fb.appendInst(Instruction{Kind: InstPhi, ResultType: resultType, ResultID: result, Incoming: incoming})
		return nil

	case FunctionCodeAlloca:
		if len(rec.Operands) < 2 {
			return fmt.Errorf("pnmodule: ALLOCA malformed record")
		}
		size := fb.resolveValueID(rec.Operands[0])
		alignShift := uint32(rec.Operands[1])
		var align uint32 = 1
		if alignShift != 0 {
			align = (uint32(1) << alignShift) >> 1
		}
		// Alloca always yields an i32 pointer; the analyzer's inference
		// pass assigns the module's interned i32 type on first sight.
		result := fb.addInstructionResult(InvalidTypeID)
		fb.appendInst(Instruction{Kind: InstAlloca, ResultID: result, Size: size, Alignment: align})
		return nil

	case FunctionCodeLoad:
		if len(rec.Operands) < 3 {
			return fmt.Errorf("pnmodule: LOAD malformed record")
		}
		addr := fb.resolveValueID(rec.Operands[0])
		resultType := TypeID(rec.Operands[1])
		alignShift := uint32(rec.Operands[2])
		var align uint32 = 1
		if alignShift != 0 {
			align = (uint32(1) << alignShift) >> 1
		}
		result := fb.addInstructionResult(resultType)
		fb.appendInst(Instruction{Kind: InstLoad, ResultType: resultType, ResultID: result, Addr: addr, Alignment: align})
		return nil

	case FunctionCodeStore:
		if len(rec.Operands) < 3 {
			return fmt.Errorf("pnmodule: STORE malformed record")
		}
		addr := fb.resolveValueID(rec.Operands[0])
		val := fb.resolveValueID(rec.Operands[1])
		alignShift := uint32(rec.Operands[2])
		var align uint32 = 1
		if alignShift != 0 {
			align = (uint32(1) << alignShift) >> 1
		}
		fb.appendInst(Instruction{Kind: InstStore, ResultID: InvalidValueID, Addr: addr, StoreValue: val, Alignment: align})
		return nil

	case FunctionCodeCmp2:
		if len(rec.Operands) < 4 {
			return fmt.Errorf("pnmodule: CMP2 malformed record")
		}
		operandType := TypeID(rec.Operands[0])
		lhs := fb.resolveValueID(rec.Operands[1])
		rhs := fb.resolveValueID(rec.Operands[2])
		pred := Cmp2Pred(rec.Operands[3])
		resultType := ctx.boolTypeID()
		result := fb.addInstructionResult(resultType)
		fb.appendInst(Instruction{Kind: InstCmp2, ResultType: operandType, ResultID: result, LHS: lhs, RHS: rhs, Pred: pred})
		return nil

	case FunctionCodeVSelect:
		if len(rec.Operands) < 3 {
			return fmt.Errorf("pnmodule: VSELECT malformed record")
		}
		// Result type inferred from the unified type of true/false
		// branches (§4.4.1), same as BINOP.
		cond := fb.resolveValueID(rec.Operands[0])
		trueV := fb.resolveValueID(rec.Operands[1])
		falseV := fb.resolveValueID(rec.Operands[2])
		result := fb.addInstructionResult(InvalidTypeID)
		fb.appendInst(Instruction{Kind: InstVSelect, ResultType: InvalidTypeID, ResultID: result, Cond: cond, TrueVal: trueV, FalseVal: falseV})
		return nil

	case FunctionCodeCall, FunctionCodeCallIndirect:
		return ctx.applyCallRecord(fb, rec)

	case FunctionCodeForwardTypeRef:
		if len(rec.Operands) < 2 {
			return fmt.Errorf("pnmodule: FORWARDTYPEREF malformed record")
		}
		v := fb.resolveValueID(rec.Operands[0])
		t := TypeID(rec.Operands[1])
		fb.appendInst(Instruction{Kind: InstForwardTypeRef, ResultID: InvalidValueID, ForwardID: v, ResultType: t})
		return nil

	default:
		return fmt.Errorf("pnmodule: unknown FUNCTION record code %d", rec.Code)
	}
}

func (ctx *parseCtx) applyCallRecord(fb *funcBuilder, rec *abbrev.Record) error {
	if len(rec.Operands) < 5 {
		return fmt.Errorf("pnmodule: CALL malformed record")
	}
	isTail := rec.Operands[0] != 0
	callingConv := uint32(rec.Operands[1])
	isIndirect := rec.Code == FunctionCodeCallIndirect
	off := 2
	if isIndirect {
		off = 3 // skip an extra callee-type operand used only for signature checking
	}

	// Direct calls name their target by absolute module-scope function
	// index (functions share the lowest ids of the module value space);
	// indirect calls instead resolve the callee operand as a function-
	// local value holding a computed function-pointer address.
	calleeFunctionID := int32(-1)
	callee := ValueID(InvalidValueID)
	if isIndirect {
		callee = fb.resolveValueID(rec.Operands[off])
	} else {
		calleeFunctionID = int32(rec.Operands[off])
	}

	resultType := TypeID(rec.Operands[off+1])
	numArgs := rec.Operands[off+2]
	args := make([]ValueID, 0, numArgs)
	argOff := off + 3
	for i := uint64(0); i < numArgs; i++ {
		if argOff >= len(rec.Operands) {
			return fmt.Errorf("pnmodule: CALL args truncated")
		}
		args = append(args, fb.resolveValueID(rec.Operands[argOff]))
		argOff++
	}
	var result ValueID = InvalidValueID
	t, err := ctx.module.Types.Get(resultType)
	isVoid := err == nil && t.Kind == TypeVoid
	if !isVoid {
		result = fb.addInstructionResult(resultType)
	}
	fb.appendInst(Instruction{
		Kind: InstCall, ResultType: resultType, ResultID: result,
		CalleeFunctionID: calleeFunctionID, Callee: callee, IsIndirect: isIndirect, IsTail: isTail,
		CallArgs: args, CallingConv: callingConv,
	})
	return nil
}

// boolTypeID returns (interning if necessary) the TypeID for i1, the
// result type every CMP2 instruction yields.
func (ctx *parseCtx) boolTypeID() TypeID {
	for i := 0; i < ctx.module.Types.Len(); i++ {
		t, _ := ctx.module.Types.Get(TypeID(i))
		if t.Kind == TypeInteger && t.Width == 1 {
			return TypeID(i)
		}
	}
	return ctx.module.Types.Append(Type{Kind: TypeInteger, Width: 1})
}
