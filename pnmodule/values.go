package pnmodule

// ValueKind tags the five flat arrays a Value's index can point into.
type ValueKind int

const (
	ValueFunction ValueKind = iota
	ValueGlobalVar
	ValueConstant
	ValueFunctionArg
	ValueLocalVar
)

// ValueID indexes a function's (or, for module-scope kinds, the module's)
// flat value array; see Module.ValueIDForFunction/GlobalVar and
// Function.Values.
type ValueID int32

const InvalidValueID ValueID = -1

// Value is a tagged reference: kind plus an index into the array that kind
// lives in, plus the value's static type.
type Value struct {
	Kind   ValueKind
	Index  int32
	TypeID TypeID
}

// RuntimeValue is an untagged 64-bit payload reinterpretable as any scalar
// type the executor deals with.
type RuntimeValue uint64

func RuntimeValueFromI64(v int64) RuntimeValue   { return RuntimeValue(uint64(v)) }
func RuntimeValueFromU64(v uint64) RuntimeValue  { return RuntimeValue(v) }
func RuntimeValueFromF64(v float64) RuntimeValue { return RuntimeValue(f64bits(v)) }
func RuntimeValueFromF32(v float32) RuntimeValue { return RuntimeValue(uint64(f32bits(v))) }

func (r RuntimeValue) I64() int64     { return int64(r) }
func (r RuntimeValue) U64() uint64    { return uint64(r) }
func (r RuntimeValue) I32() int32     { return int32(uint32(r)) }
func (r RuntimeValue) U32() uint32    { return uint32(r) }
func (r RuntimeValue) I16() int16     { return int16(uint16(r)) }
func (r RuntimeValue) U16() uint16    { return uint16(r) }
func (r RuntimeValue) I8() int8       { return int8(uint8(r)) }
func (r RuntimeValue) U8() uint8      { return uint8(r) }
func (r RuntimeValue) Bool() bool     { return r&1 != 0 }
func (r RuntimeValue) F64() float64   { return f64frombits(uint64(r)) }
func (r RuntimeValue) F32() float32   { return f32frombits(uint32(r)) }
