package pnmodule

// KnownIntrinsics are the PNaCl/NaCl intrinsic names the value-symtab
// parser recognizes by exact name match and records against their
// function id, so the analyzer and executor can special-case them without
// repeated string comparison.
var KnownIntrinsics = []string{
	"llvm.memcpy.p0i8.p0i8.i32",
	"llvm.memmove.p0i8.p0i8.i32",
	"llvm.memset.p0i8.i32.i32",
	"llvm.bswap.i16",
	"llvm.bswap.i32",
	"llvm.bswap.i64",
	"llvm.ctlz.i32",
	"llvm.ctlz.i64",
	"llvm.cttz.i32",
	"llvm.cttz.i64",
	"llvm.fabs.f32",
	"llvm.fabs.f64",
	"llvm.sqrt.f32",
	"llvm.sqrt.f64",
	"llvm.trap",
	"llvm.stacksave",
	"llvm.stackrestore",
	"llvm.nacl.setjmp",
	"llvm.nacl.longjmp",
	"llvm.nacl.atomic.load.i32",
	"llvm.nacl.atomic.store.i32",
	"llvm.nacl.atomic.rmw.i32",
	"llvm.nacl.atomic.cmpxchg.i32",
	"llvm.nacl.atomic.fence",
	"llvm.nacl.read.tp",
}

// IntrinsicIndex returns the index into KnownIntrinsics for name, or -1.
func IntrinsicIndex(name string) int {
	for i, n := range KnownIntrinsics {
		if n == name {
			return i
		}
	}
	return -1
}

// Module is the fully parsed, typed, SSA-form representation of a PEXE.
type Module struct {
	Types   TypeTable
	Globals []GlobalVar
	Funcs   []Function

	// ModuleValues is the module-scope flat value array: functions first
	// (in declaration order), then global variables, matching §3's
	// "module-scope array (functions and global vars)".
	ModuleValues []Value

	UseRelativeIDs bool

	// StartFunctionID names the function the executor begins the main
	// thread at (by NaCl convention, the lowest-numbered non-proto
	// function whose name is "_start", or function 0 if none is named).
	StartFunctionID int32
}

// NewModule returns an empty module ready for block parsing to populate.
func NewModule() *Module {
	return &Module{}
}

// AddFunction appends f and returns its FunctionID, also recording the
// corresponding module-scope Value.
func (m *Module) AddFunction(f Function) int32 {
	id := int32(len(m.Funcs))
	m.Funcs = append(m.Funcs, f)
	m.ModuleValues = append(m.ModuleValues, Value{Kind: ValueFunction, Index: id, TypeID: f.TypeID})
	return id
}

// AddGlobalVar appends g and returns its index, recording the module-scope
// Value.
func (m *Module) AddGlobalVar(g GlobalVar, typeID TypeID) int32 {
	id := int32(len(m.Globals))
	m.Globals = append(m.Globals, g)
	m.ModuleValues = append(m.ModuleValues, Value{Kind: ValueGlobalVar, Index: id, TypeID: typeID})
	return id
}

// ValueIDForFunction returns the module-scope ValueID of function id fid.
// Functions are recorded first in ModuleValues, so this is just fid.
func (m *Module) ValueIDForFunction(fid int32) ValueID { return ValueID(fid) }

// ValueIDForGlobal returns the module-scope ValueID of global index gid.
func (m *Module) ValueIDForGlobal(gid int32) ValueID {
	return ValueID(int32(len(m.Funcs)) + gid)
}
