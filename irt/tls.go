package irt

import (
	"github.com/pnacl-run/pnexec/pnmodule"
	"github.com/pnacl-run/pnexec/runtime"
)

func tlsInit(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	th.TLS = uint32(args[0].U64())
	return pnmodule.RuntimeValue(0), nil
}

func tlsGet(ex *runtime.Executor, th *runtime.Thread, args []pnmodule.RuntimeValue) (pnmodule.RuntimeValue, error) {
	return pnmodule.RuntimeValue(th.TLS), nil
}
