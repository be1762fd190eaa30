package runtime

import (
	"fmt"

	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/rtcode"
)

// doCall implements CALL/CALL_INDIRECT (§4.5): direct calls name their
// target by module-scope function index; indirect calls decode a computed
// function-pointer value, dispatching in place (no frame push) when it
// names a built-in, otherwise pushing a frame exactly like a direct call.
// Calls to a recognized LLVM intrinsic likewise never push a frame.
func (ex *Executor) doCall(
	th *Thread, frame *CallFrame, hdr rtcode.Header, base uint32,
	word func(uint32) uint32, vid func(uint32) pnmodule.ValueID,
	local func(pnmodule.ValueID) pnmodule.RuntimeValue, setLocal func(pnmodule.ValueID, pnmodule.RuntimeValue),
) (bool, error) {
	dst := vid(1)
	calleeFunctionID := int32(word(2))
	calleeValue := vid(3)
	numArgs := word(4)

	args := make([]pnmodule.RuntimeValue, numArgs)
	for i := uint32(0); i < numArgs; i++ {
		args[i] = local(vid(5 + i))
	}

	var target *pnmodule.Function
	if hdr.Op == rtcode.OpCall {
		if calleeFunctionID < 0 || int(calleeFunctionID) >= len(ex.Module.Funcs) {
			return false, fmt.Errorf("pnmodule: direct call to out-of-range function id %d", calleeFunctionID)
		}
		target = &ex.Module.Funcs[calleeFunctionID]
	} else {
		addr := uint32(local(calleeValue).U64())
		slot, isBuiltin, ok := pnmodule.DecodeFunctionPointer(addr)
		if !ok {
			return false, fmt.Errorf("pnmodule: indirect call through misaligned address %#x", addr)
		}
		if isBuiltin {
			if int(slot) >= len(ex.Builtins) || ex.Builtins[slot] == nil {
				return false, fmt.Errorf("pnmodule: call to unbound built-in id %d", slot)
			}
			r, err := ex.Builtins[slot](ex, th, args)
			if err != nil {
				return false, err
			}
			if th.State == ThreadBlocked {
				// The built-in parked th (e.g. futex_wait_abs): leave IP
				// pointed at this call so the next time th is scheduled,
				// Step re-executes it and the built-in observes the
				// wake/timeout outcome instead of a result already
				// committed at park time.
				return false, nil
			}
			frame.IP += uint32(hdr.NumWords) * 4
			setLocal(dst, r)
			return false, nil
		}
		if int(slot) >= len(ex.Module.Funcs) {
			return false, fmt.Errorf("pnmodule: indirect call to out-of-range function id %d", slot)
		}
		target = &ex.Module.Funcs[slot]
	}

	// Advance the caller's IP to the instruction past this call before
	// transferring control, so RET (or a later longjmp) resumes correctly.
	frame.IP += uint32(hdr.NumWords) * 4

	if target.IntrinsicID >= 0 {
		r, done, err := ex.callIntrinsic(th, target.IntrinsicID, args, dst)
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
		setLocal(dst, r)
		return false, nil
	}

	newFrame := NewCallFrame(target, args, th.Arena.Mark())
	newFrame.ReturnSlot = dst
	th.PushFrame(newFrame)
	return false, nil
}
