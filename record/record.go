package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/sqltype"
	"github.com/minidb/miniql/value"
)

// Record is the opaque fixed-size byte buffer described in spec.md §3: a
// sys header reserved for the transaction manager, a NULL bitmap (one bit
// per user field), then fixed-offset field slots. Grounded on
// original_source/.../storage/table/table.cpp's make_record/
// set_value_to_record and the record.Record class it populates.
type Record struct {
	Data []byte
	RID  value.RID
}

// NewRecord allocates a zeroed buffer of the table's record size.
func NewRecord(m *TableMeta) Record {
	return Record{Data: make([]byte, m.RecordSize)}
}

func bitmap(m *TableMeta, data []byte) []byte {
	start := m.NullBitmapStart()
	return data[start : start+m.NullBitmapSize()]
}

// MakeRecord builds a Record from one value per user field, in declaration
// order, casting any value whose type doesn't already match the column
// (original's make_record calls Value::cast_to when types differ).
func MakeRecord(m *TableMeta, values []value.Value) (Record, error) {
	if len(values) != m.FieldNum() {
		return Record{}, fmt.Errorf("record: expected %d values, got %d", m.FieldNum(), len(values))
	}
	rec := NewRecord(m)
	for i := range m.UserFields {
		f := &m.UserFields[i]
		v := values[i]
		if !v.IsNull() && v.Tag != f.Type {
			cast, err := value.CastTo(v, f.Type)
			if err != nil {
				return Record{}, fmt.Errorf("record: field %s: %w", f.Name, err)
			}
			v = cast
		}
		if err := SetField(rec.Data, m, f, v); err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

// SetField writes a single field's value into data's fixed slot and updates
// its null bit; the inverse of GetField.
func SetField(data []byte, m *TableMeta, f *FieldMeta, v value.Value) error {
	bm := bitmap(m, data)
	bit := bitIndex(m, f)
	if v.IsNull() {
		if !f.Nullable {
			return fmt.Errorf("record: field %s is not nullable", f.Name)
		}
		setBit(bm, bit)
		return nil
	}
	clearBit(bm, bit)
	if v.Tag != f.Type {
		return fmt.Errorf("record: field %s type mismatch: column is %s, value is %s", f.Name, f.Type, v.Tag)
	}
	slot := data[f.Offset : f.Offset+f.Len]
	switch f.Type {
	case sqltype.INTS, sqltype.DATES:
		binary.LittleEndian.PutUint32(slot, uint32(v.Int()))
	case sqltype.FLOATS:
		binary.LittleEndian.PutUint32(slot, math.Float32bits(v.Float()))
	case sqltype.BOOLEANS:
		if v.Bool() {
			slot[0] = 1
		} else {
			slot[0] = 0
		}
	case sqltype.CHARS:
		for i := range slot {
			slot[i] = 0
		}
		chars := v.Chars()
		n := len(chars)
		if n > f.Len-1 {
			n = f.Len - 1 // reserve room for the NUL terminator
		}
		copy(slot, chars[:n])
	case sqltype.TEXTS:
		td := v.Text()
		binary.LittleEndian.PutUint64(slot[0:8], td.Offset)
		binary.LittleEndian.PutUint64(slot[8:16], td.Len)
	case sqltype.VECTORS:
		vd := v.Vector()
		if f.VectorDim > 0 && int(vd.Dim) != f.VectorDim {
			return rc.New(rc.INVALID_ARGUMENT, "field %s expects a vector of dimension %d, got %d", f.Name, f.VectorDim, vd.Dim)
		}
		binary.LittleEndian.PutUint64(slot[0:8], vd.Offset)
		binary.LittleEndian.PutUint64(slot[8:16], vd.Dim)
	default:
		return fmt.Errorf("record: unsupported field type %s", f.Type)
	}
	return nil
}

// GetField reads a single field back out of data, consulting the null bit
// before touching the slot bytes — spec.md §3's "the null bit is
// authoritative: readers must consult it before decoding a field".
func GetField(data []byte, m *TableMeta, f *FieldMeta) value.Value {
	bm := bitmap(m, data)
	if testBit(bm, bitIndex(m, f)) {
		return value.Null()
	}
	slot := data[f.Offset : f.Offset+f.Len]
	switch f.Type {
	case sqltype.INTS:
		return value.NewInt(int32(binary.LittleEndian.Uint32(slot)))
	case sqltype.DATES:
		return value.NewDate(int32(binary.LittleEndian.Uint32(slot)))
	case sqltype.FLOATS:
		return value.NewFloat(math.Float32frombits(binary.LittleEndian.Uint32(slot)))
	case sqltype.BOOLEANS:
		return value.NewBool(slot[0] != 0)
	case sqltype.CHARS:
		n := 0
		for n < len(slot) && slot[n] != 0 {
			n++
		}
		return value.NewChars(string(slot[:n]))
	case sqltype.TEXTS:
		off := binary.LittleEndian.Uint64(slot[0:8])
		ln := binary.LittleEndian.Uint64(slot[8:16])
		return value.NewTextRef(off, ln)
	case sqltype.VECTORS:
		off := binary.LittleEndian.Uint64(slot[0:8])
		dim := binary.LittleEndian.Uint64(slot[8:16])
		return value.NewVectorRef(off, dim)
	default:
		return value.Undefined()
	}
}

// DecodeRecord reads every user field out of data, in declaration order.
func DecodeRecord(m *TableMeta, data []byte) []value.Value {
	out := make([]value.Value, len(m.UserFields))
	for i := range m.UserFields {
		out[i] = GetField(data, m, &m.UserFields[i])
	}
	return out
}
