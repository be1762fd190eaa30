package pnmodule

// NumBuiltins reserves address space below every module function address
// for the IRT built-in table (irt package); builtin ids are assigned
// densely starting at 0, see the slot constants in irt/ids.go.
const NumBuiltins = 64

// FunctionAddress synthesizes the "function pointer" encoding for a
// module-defined function: builtin ids occupy the low NumBuiltins slots,
// so a function's id is shifted up by that reservation before encoding.
func FunctionAddress(functionID int32) uint32 {
	return uint32(int64(functionID)+NumBuiltins) << 2
}

// BuiltinAddress synthesizes the function-pointer encoding for a built-in.
func BuiltinAddress(builtinID int32) uint32 {
	return uint32(builtinID) << 2
}

// DecodeFunctionPointer inverts FunctionAddress/BuiltinAddress: ok is false
// if addr isn't 4-byte aligned. isBuiltin reports which space slot lies in.
func DecodeFunctionPointer(addr uint32) (slot int32, isBuiltin bool, ok bool) {
	if addr&3 != 0 {
		return 0, false, false
	}
	slot = int32(addr >> 2)
	if slot < NumBuiltins {
		return slot, true, true
	}
	return slot - NumBuiltins, false, true
}
