package pnmodule

import "fmt"

// BasicType is the derived tag opcode specialization switches on.
type BasicType int

const (
	BasicInvalid BasicType = iota
	BasicVoid
	BasicI1
	BasicI8
	BasicI16
	BasicI32
	BasicI64
	BasicF32
	BasicF64
)

func (b BasicType) String() string {
	switch b {
	case BasicVoid:
		return "void"
	case BasicI1:
		return "i1"
	case BasicI8:
		return "i8"
	case BasicI16:
		return "i16"
	case BasicI32:
		return "i32"
	case BasicI64:
		return "i64"
	case BasicF32:
		return "f32"
	case BasicF64:
		return "f64"
	default:
		return "invalid"
	}
}

// TypeKind distinguishes the tagged Type variants.
type TypeKind int

const (
	TypeVoid TypeKind = iota
	TypeFloat
	TypeDouble
	TypeInteger
	TypeFunction
)

// TypeID indexes into Module.Types.
type TypeID int32

const InvalidTypeID TypeID = -1

// Type is a tagged variant over the PNaCl type grammar.
type Type struct {
	Kind  TypeKind
	Width int     // for TypeInteger: 1, 8, 16, 32, or 64
	IsVarArgs bool // for TypeFunction
	Return    TypeID
	Args      []TypeID
}

// Basic returns the derived basic_type tag used by opcode specialization.
// Function types classify as BasicI32, since function pointers carry
// BasicI32 per the data model.
func (t Type) Basic() BasicType {
	switch t.Kind {
	case TypeVoid:
		return BasicVoid
	case TypeFloat:
		return BasicF32
	case TypeDouble:
		return BasicF64
	case TypeInteger:
		switch t.Width {
		case 1:
			return BasicI1
		case 8:
			return BasicI8
		case 16:
			return BasicI16
		case 32:
			return BasicI32
		case 64:
			return BasicI64
		}
	case TypeFunction:
		return BasicI32
	}
	return BasicInvalid
}

// TypeTable is the module's interned, positionally-indexed type array.
type TypeTable struct {
	types []Type
}

func (tt *TypeTable) Append(t Type) TypeID {
	tt.types = append(tt.types, t)
	return TypeID(len(tt.types) - 1)
}

func (tt *TypeTable) Get(id TypeID) (Type, error) {
	if int(id) < 0 || int(id) >= len(tt.types) {
		return Type{}, fmt.Errorf("pnmodule: type id %d out of range", id)
	}
	return tt.types[id], nil
}

func (tt *TypeTable) Len() int { return len(tt.types) }

// Reserve grows the backing array's capacity to n entries without adding
// any, for the TYPE block's NUMENTRY pre-sizing.
func (tt *TypeTable) Reserve(n int) {
	if cap(tt.types) < n {
		grown := make([]Type, len(tt.types), n)
		copy(grown, tt.types)
		tt.types = grown
	}
}
