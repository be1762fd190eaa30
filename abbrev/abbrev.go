// Package abbrev implements PNaCl bitcode abbreviations and the record
// reader built on top of a bitstream.BitStream.
package abbrev

import (
	"fmt"

	"github.com/pnacl-run/pnexec/bitstream"
)

// Encoding identifies the kind of an abbreviation operation.
type Encoding int

const (
	EncodingLiteral Encoding = iota
	EncodingFixed
	EncodingVBR
	EncodingArray
	EncodingChar6
	EncodingBlob
)

// Op is one operation within an abbreviation definition.
type Op struct {
	Encoding Encoding
	Value    uint64 // literal value, or Fixed/VBR width
}

// Abbrev is an ordered list of operations describing how to decode one
// record's code and operands.
type Abbrev struct {
	Ops []Op
}

// char6Alphabet is the PNaCl Char6 character set: a-z A-Z 0-9 . _
const char6Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._"

func char6Decode(v uint32) byte {
	return char6Alphabet[v&0x3F]
}

// ReadAbbrevDef reads a DEFINE_ABBREV entry's body (called after the
// codelen-bit DEFINE_ABBREV tag has already been consumed).
func ReadAbbrevDef(bs *bitstream.BitStream) (*Abbrev, error) {
	numOps, err := bs.ReadVBR(5)
	if err != nil {
		return nil, err
	}
	a := &Abbrev{}
	for i := uint64(0); i < numOps; i++ {
		isLiteral, err := bs.Read(1)
		if err != nil {
			return nil, err
		}
		if isLiteral != 0 {
			lit, err := bs.ReadVBR(8)
			if err != nil {
				return nil, err
			}
			a.Ops = append(a.Ops, Op{Encoding: EncodingLiteral, Value: lit})
			continue
		}
		enc, err := bs.Read(3)
		if err != nil {
			return nil, err
		}
		op := Op{}
		switch enc {
		case 1: // Fixed
			width, err := bs.ReadVBR(5)
			if err != nil {
				return nil, err
			}
			op = Op{Encoding: EncodingFixed, Value: width}
		case 2: // VBR
			width, err := bs.ReadVBR(5)
			if err != nil {
				return nil, err
			}
			op = Op{Encoding: EncodingVBR, Value: width}
		case 3:
			op = Op{Encoding: EncodingArray}
		case 4:
			op = Op{Encoding: EncodingChar6}
		case 5:
			op = Op{Encoding: EncodingBlob}
		default:
			return nil, fmt.Errorf("abbrev: unknown operand encoding %d", enc)
		}
		a.Ops = append(a.Ops, op)
	}
	if err := validate(a); err != nil {
		return nil, err
	}
	return a, nil
}

func validate(a *Abbrev) error {
	for i, op := range a.Ops {
		if op.Encoding == EncodingArray {
			if i+1 >= len(a.Ops) {
				return fmt.Errorf("abbrev: Array with no following element operation")
			}
			elem := a.Ops[i+1].Encoding
			switch elem {
			case EncodingFixed, EncodingVBR, EncodingChar6:
			default:
				return fmt.Errorf("abbrev: Array followed by illegal element encoding %v", elem)
			}
		}
	}
	return nil
}

// Table is the per-block-id abbreviation store: global (BLOCKINFO-derived)
// abbreviations inherited when a block is entered, plus any locally
// DEFINE_ABBREV'd ones appended after.
type Table struct {
	abbrevs []*Abbrev
}

// NewTable builds a local table seeded with the inherited abbreviations.
func NewTable(inherited []*Abbrev) *Table {
	t := &Table{}
	t.abbrevs = append(t.abbrevs, inherited...)
	return t
}

// Append adds a locally defined abbreviation after every abbreviation
// already in the table; its id is one past the previous highest id.
func (t *Table) Append(a *Abbrev) {
	t.abbrevs = append(t.abbrevs, a)
}

// Lookup resolves an abbreviation id (>= 4) to its Abbrev.
func (t *Table) Lookup(id uint32) (*Abbrev, error) {
	idx := int(id) - 4
	if idx < 0 || idx >= len(t.abbrevs) {
		return nil, fmt.Errorf("abbrev: id %d out of range (have %d)", id, len(t.abbrevs))
	}
	return t.abbrevs[idx], nil
}

// BlockInfoStore holds the global, per-block-id abbreviation lists defined
// inside BLOCKINFO blocks.
type BlockInfoStore struct {
	byBlockID map[uint64][]*Abbrev
}

// NewBlockInfoStore returns an empty store.
func NewBlockInfoStore() *BlockInfoStore {
	return &BlockInfoStore{byBlockID: make(map[uint64][]*Abbrev)}
}

// Add registers an abbreviation as inherited by every instance of blockID.
func (s *BlockInfoStore) Add(blockID uint64, a *Abbrev) {
	s.byBlockID[blockID] = append(s.byBlockID[blockID], a)
}

// Inherited returns the abbreviation list registered for blockID.
func (s *BlockInfoStore) Inherited(blockID uint64) []*Abbrev {
	return s.byBlockID[blockID]
}

// Record is a decoded record: its code plus operand values. Blob payloads,
// when present, are carried separately in Blob.
type Record struct {
	Code     uint64
	Operands []uint64
	Blob     []byte
}
