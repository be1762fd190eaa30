package abbrev

import (
	"fmt"

	"github.com/pnacl-run/pnexec/bitstream"
)

// ReadUnabbreviatedRecord reads a record in the "code 3" unabbreviated
// form: VBR-6 code, VBR-6 operand count, then that many VBR-6 operands.
func ReadUnabbreviatedRecord(bs *bitstream.BitStream) (*Record, error) {
	code, err := bs.ReadVBR(6)
	if err != nil {
		return nil, err
	}
	numOps, err := bs.ReadVBR(6)
	if err != nil {
		return nil, err
	}
	r := &Record{Code: code, Operands: make([]uint64, 0, numOps)}
	for i := uint64(0); i < numOps; i++ {
		v, err := bs.ReadVBR(6)
		if err != nil {
			return nil, err
		}
		r.Operands = append(r.Operands, v)
	}
	return r, nil
}

// ReadAbbreviatedRecord decodes a record driven by abbrev a. The first
// operation's decoded value is the record's Code; subsequent ones are
// Operands, except that an Array expands in place and Blob is placed in
// Record.Blob.
func ReadAbbreviatedRecord(bs *bitstream.BitStream, a *Abbrev) (*Record, error) {
	r := &Record{}
	values := make([]uint64, 0, len(a.Ops))

	i := 0
	for i < len(a.Ops) {
		op := a.Ops[i]
		switch op.Encoding {
		case EncodingLiteral:
			values = append(values, op.Value)
			i++
		case EncodingFixed:
			v, err := bs.Read(uint(op.Value))
			if err != nil {
				return nil, err
			}
			values = append(values, uint64(v))
			i++
		case EncodingVBR:
			v, err := bs.ReadVBR(uint(op.Value))
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			i++
		case EncodingChar6:
			v, err := bs.Read(6)
			if err != nil {
				return nil, err
			}
			values = append(values, uint64(char6Decode(v)))
			i++
		case EncodingArray:
			count, err := bs.ReadVBR(6)
			if err != nil {
				return nil, err
			}
			if i+1 >= len(a.Ops) {
				return nil, fmt.Errorf("record_reader: Array with no element op")
			}
			elem := a.Ops[i+1]
			for j := uint64(0); j < count; j++ {
				switch elem.Encoding {
				case EncodingFixed:
					v, err := bs.Read(uint(elem.Value))
					if err != nil {
						return nil, err
					}
					values = append(values, uint64(v))
				case EncodingVBR:
					v, err := bs.ReadVBR(uint(elem.Value))
					if err != nil {
						return nil, err
					}
					values = append(values, v)
				case EncodingChar6:
					v, err := bs.Read(6)
					if err != nil {
						return nil, err
					}
					values = append(values, uint64(char6Decode(v)))
				default:
					return nil, fmt.Errorf("record_reader: illegal array element encoding")
				}
			}
			i += 2
		case EncodingBlob:
			count, err := bs.ReadVBR(6)
			if err != nil {
				return nil, err
			}
			blob, err := bs.ReadBlob(count)
			if err != nil {
				return nil, err
			}
			r.Blob = blob
			i++
		default:
			return nil, fmt.Errorf("record_reader: unknown encoding %v", op.Encoding)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("record_reader: abbreviation produced no values")
	}
	r.Code = values[0]
	r.Operands = values[1:]
	return r, nil
}

// RecordReader decodes one entry's worth of record data given the entry's
// abbreviation id (3 = unabbreviated, >=4 = abbreviation lookup).
type RecordReader struct {
	bs    *bitstream.BitStream
	table *Table
}

// NewRecordReader binds a bit stream and the local abbreviation table for
// the current block.
func NewRecordReader(bs *bitstream.BitStream, table *Table) *RecordReader {
	return &RecordReader{bs: bs, table: table}
}

// Read decodes a record for the given codelen-bit entry value (must be 3
// or >= 4; callers dispatch END_BLOCK/SUBBLOCK/DEFINE_ABBREV themselves).
func (rr *RecordReader) Read(abbrevID uint32) (*Record, error) {
	if abbrevID == 3 {
		return ReadUnabbreviatedRecord(rr.bs)
	}
	a, err := rr.table.Lookup(abbrevID)
	if err != nil {
		return nil, err
	}
	return ReadAbbreviatedRecord(rr.bs, a)
}

// DefineAbbrev reads a DEFINE_ABBREV body and appends it to the local
// table, making it available for subsequent abbreviation ids in this block.
func (rr *RecordReader) DefineAbbrev() error {
	a, err := ReadAbbrevDef(rr.bs)
	if err != nil {
		return err
	}
	rr.table.Append(a)
	return nil
}
