// Package pnmodule is the typed, SSA-form in-memory module produced by
// parsing a PEXE file: types, global variables, functions, and the values
// they reference.
package pnmodule

// Block ids, per the PEXE container contract.
const (
	BlockIDBlockInfo   = 0
	BlockIDModule      = 8
	BlockIDConstants   = 11
	BlockIDFunction    = 12
	BlockIDValueSymtab = 14
	BlockIDType        = 17
	BlockIDGlobalVar   = 19
)

// Entry tags, width given by the enclosing block's codelen.
const (
	EntryEndBlock      = 0
	EntrySubBlock      = 1
	EntryDefineAbbrev  = 2
	EntryUnabbrevRecord = 3
	// ids >= 4 are abbreviation ids.
)

// BlockInfoCode record codes inside a BLOCKINFO block.
const (
	BlockInfoCodeSetBID = 1
)

// ModuleCode record codes inside the MODULE block.
const (
	ModuleCodeVersion  = 1
	ModuleCodeFunction = 8
)

// TypeCode record codes inside the TYPE block.
const (
	TypeCodeNumEntry = 1
	TypeCodeVoid     = 2
	TypeCodeFloat    = 3
	TypeCodeDouble   = 4
	TypeCodeInteger  = 7
	TypeCodeFunction = 21
)

// GlobalVarCode record codes inside the GLOBALVAR block.
const (
	GlobalVarCodeVar      = 0
	GlobalVarCodeCompound = 1
	GlobalVarCodeZeroFill = 2
	GlobalVarCodeData     = 3
	GlobalVarCodeReloc    = 4
	GlobalVarCodeCount    = 5
)

// ValueSymtabCode record codes inside a VALUE_SYMTAB block.
const (
	ValueSymtabCodeEntry = 1
	ValueSymtabCodeBBEntry = 2
)

// ConstantsCode record codes inside a CONSTANTS block.
const (
	ConstantsCodeSetType = 1
	ConstantsCodeUndef   = 3
	ConstantsCodeInteger = 4
	ConstantsCodeFloat   = 6
)

// FunctionCode record codes inside a FUNCTION block.
const (
	FunctionCodeDeclareBlocks  = 1
	FunctionCodeBinOp          = 2
	FunctionCodeCast           = 3
	FunctionCodeRet            = 10
	FunctionCodeBr             = 11
	FunctionCodeSwitch         = 12
	FunctionCodeUnreachable    = 15
	FunctionCodePhi            = 16
	FunctionCodeAlloca         = 19
	FunctionCodeLoad           = 20
	FunctionCodeStore          = 24
	FunctionCodeCall           = 34
	FunctionCodeForwardTypeRef = 43
	FunctionCodeCmp2           = 44
	FunctionCodeVSelect        = 45
	FunctionCodeCallIndirect   = 48
)
