package runtime

import (
	"fmt"
	"math"

	"github.com/pnacl-run/pnexec/pnmodule"
)

// evalBinOp computes a specialized binary op in its typed payload (§4.5:
// "performed in the typed payload"). Division/remainder by zero is not
// guarded here; it follows the host's semantics for the type, exactly as
// the spec calls for.
func evalBinOp(op pnmodule.BinOp, t pnmodule.BasicType, lhs, rhs pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	switch t {
	case pnmodule.BasicF32:
		a, b := lhs.F32(), rhs.F32()
		var r float32
		switch op {
		case pnmodule.BinOpAdd:
			r = a + b
		case pnmodule.BinOpSub:
			r = a - b
		case pnmodule.BinOpMul:
			r = a * b
		case pnmodule.BinOpSDiv, pnmodule.BinOpUDiv:
			r = a / b
		case pnmodule.BinOpSRem, pnmodule.BinOpURem:
			r = float32(math.Mod(float64(a), float64(b)))
		default:
			return 0, fmt.Errorf("pnmodule: binop %d illegal on f32", op)
		}
		return pnmodule.RuntimeValueFromF32(r), nil

	case pnmodule.BasicF64:
		a, b := lhs.F64(), rhs.F64()
		var r float64
		switch op {
		case pnmodule.BinOpAdd:
			r = a + b
		case pnmodule.BinOpSub:
			r = a - b
		case pnmodule.BinOpMul:
			r = a * b
		case pnmodule.BinOpSDiv, pnmodule.BinOpUDiv:
			r = a / b
		case pnmodule.BinOpSRem, pnmodule.BinOpURem:
			r = math.Mod(a, b)
		default:
			return 0, fmt.Errorf("pnmodule: binop %d illegal on f64", op)
		}
		return pnmodule.RuntimeValueFromF64(r), nil
	}

	// Integer types: compute at 64-bit width, then narrow/mask on store.
	width := WidthOf(t) * 8
	mask := uint64(1)<<uint(width) - 1
	if width == 64 {
		mask = ^uint64(0)
	}
	au, bu := lhs.U64()&mask, rhs.U64()&mask
	as, bs := signExtend(au, width), signExtend(bu, width)

	var ru uint64
	switch op {
	case pnmodule.BinOpAdd:
		ru = au + bu
	case pnmodule.BinOpSub:
		ru = au - bu
	case pnmodule.BinOpMul:
		ru = au * bu
	case pnmodule.BinOpUDiv:
		ru = au / bu
	case pnmodule.BinOpSDiv:
		ru = uint64(as / bs)
	case pnmodule.BinOpURem:
		ru = au % bu
	case pnmodule.BinOpSRem:
		ru = uint64(as % bs)
	case pnmodule.BinOpShl:
		ru = au << (bu & uint64(width-1))
	case pnmodule.BinOpLShr:
		ru = au >> (bu & uint64(width-1))
	case pnmodule.BinOpAShr:
		ru = uint64(as >> (bu & uint64(width-1)))
	case pnmodule.BinOpAnd:
		ru = au & bu
	case pnmodule.BinOpOr:
		ru = au | bu
	case pnmodule.BinOpXor:
		ru = au ^ bu
	default:
		return 0, fmt.Errorf("pnmodule: unrecognized binop %d", op)
	}
	return pnmodule.RuntimeValue(ru & mask), nil
}

func signExtend(v uint64, width int) int64 {
	if width >= 64 {
		return int64(v)
	}
	signBit := uint64(1) << uint(width-1)
	if v&signBit != 0 {
		return int64(v | ^(signBit<<1 - 1))
	}
	return int64(v)
}

// evalCmp2 computes a two-way comparison, returning u8 0/1 (§4.5).
func evalCmp2(pred pnmodule.Cmp2Pred, t pnmodule.BasicType, lhs, rhs pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	var result bool
	switch t {
	case pnmodule.BasicF32, pnmodule.BasicF64:
		var a, b float64
		if t == pnmodule.BasicF32 {
			a, b = float64(lhs.F32()), float64(rhs.F32())
		} else {
			a, b = lhs.F64(), rhs.F64()
		}
		switch pred {
		case pnmodule.CmpFOEQ:
			result = a == b
		case pnmodule.CmpFONE:
			result = a != b
		case pnmodule.CmpFOGT:
			result = a > b
		case pnmodule.CmpFOGE:
			result = a >= b
		case pnmodule.CmpFOLT:
			result = a < b
		case pnmodule.CmpFOLE:
			result = a <= b
		default:
			return 0, fmt.Errorf("pnmodule: predicate %d illegal on float", pred)
		}
	default:
		width := WidthOf(t) * 8
		mask := uint64(1)<<uint(width) - 1
		if width == 64 {
			mask = ^uint64(0)
		}
		au, bu := lhs.U64()&mask, rhs.U64()&mask
		as, bs := signExtend(au, width), signExtend(bu, width)
		switch pred {
		case pnmodule.CmpEQ:
			result = au == bu
		case pnmodule.CmpNE:
			result = au != bu
		case pnmodule.CmpSGT:
			result = as > bs
		case pnmodule.CmpSGE:
			result = as >= bs
		case pnmodule.CmpSLT:
			result = as < bs
		case pnmodule.CmpSLE:
			result = as <= bs
		case pnmodule.CmpUGT:
			result = au > bu
		case pnmodule.CmpUGE:
			result = au >= bu
		case pnmodule.CmpULT:
			result = au < bu
		case pnmodule.CmpULE:
			result = au <= bu
		default:
			return 0, fmt.Errorf("pnmodule: predicate %d illegal on integer", pred)
		}
	}
	if result {
		return pnmodule.RuntimeValue(1), nil
	}
	return pnmodule.RuntimeValue(0), nil
}

// evalCast converts v from srcType to dstType per CastOp (§3 grammar).
func evalCast(op pnmodule.CastOp, srcType, dstType pnmodule.BasicType, v pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	switch op {
	case pnmodule.CastTrunc, pnmodule.CastZExt, pnmodule.CastBitcast:
		width := WidthOf(dstType) * 8
		mask := uint64(1)<<uint(width) - 1
		if width >= 64 {
			mask = ^uint64(0)
		}
		return pnmodule.RuntimeValue(v.U64() & mask), nil
	case pnmodule.CastSExt:
		srcWidth := WidthOf(srcType) * 8
		return pnmodule.RuntimeValue(uint64(signExtend(v.U64(), srcWidth))), nil
	case pnmodule.CastFPToUI:
		if srcType == pnmodule.BasicF32 {
			return pnmodule.RuntimeValue(uint64(v.F32())), nil
		}
		return pnmodule.RuntimeValue(uint64(v.F64())), nil
	case pnmodule.CastFPToSI:
		var f float64
		if srcType == pnmodule.BasicF32 {
			f = float64(v.F32())
		} else {
			f = v.F64()
		}
		return pnmodule.RuntimeValue(uint64(int64(f))), nil
	case pnmodule.CastUIToFP:
		if dstType == pnmodule.BasicF32 {
			return pnmodule.RuntimeValueFromF32(float32(v.U64())), nil
		}
		return pnmodule.RuntimeValueFromF64(float64(v.U64())), nil
	case pnmodule.CastSIToFP:
		srcWidth := WidthOf(srcType) * 8
		i := signExtend(v.U64(), srcWidth)
		if dstType == pnmodule.BasicF32 {
			return pnmodule.RuntimeValueFromF32(float32(i)), nil
		}
		return pnmodule.RuntimeValueFromF64(float64(i)), nil
	case pnmodule.CastFPTrunc:
		return pnmodule.RuntimeValueFromF32(float32(v.F64())), nil
	case pnmodule.CastFPExt:
		return pnmodule.RuntimeValueFromF64(float64(v.F32())), nil
	}
	return 0, fmt.Errorf("pnmodule: unrecognized cast op %d", op)
}
