// Package value implements the tagged Value union of spec.md §3 and the
// per-AttrType handler table of §4.1 (compare/arithmetic/cast/to_string),
// grounded on original_source/.../common/value.cpp and
// common/type/{char,float,date,vector,text}_type.cpp. Re-architected per
// spec.md §9: one Go struct with a tag field instead of an inheritance
// hierarchy, dispatched through a small handler table built once in init().
package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/minidb/miniql/sqltype"
)

// TextData is the in-memory shadow of an out-of-line text cell: a pointer
// into the table's append-only text file, plus the materialized bytes once
// loaded (spec.md §3).
type TextData struct {
	Offset uint64
	Len    uint64
	Bytes  []byte // materialized copy, nil until loaded
}

// VectorData is the in-memory shadow of an out-of-line vector cell: a
// pointer into the paged vector blob file, plus the materialized floats.
type VectorData struct {
	Offset uint64
	Dim    uint64
	Floats []float32 // materialized copy, nil until loaded
}

// RID identifies the source row a cell was read from, carried so that
// updates/deletes routed through a view can find the right base record.
type RID struct {
	PageNo int64
	SlotNo int32
}

// Value is the tagged union every operator passes around. CHARS/TEXTS/
// VECTORS payloads that own heap memory are flagged by OwnsHeap so Clone can
// deep-copy and a bare struct copy never aliases another Value's buffer.
type Value struct {
	Tag AttrType

	intVal   int32
	floatVal float32
	boolVal  bool
	chars    []byte // CHARS payload
	text     TextData
	vector   VectorData

	OwnsHeap bool

	// Provenance for view tuples: which base record this cell came from.
	SourceTable string
	Source      RID
}

// AttrType is re-exported so callers only need to import one package for
// everyday use; sqltype remains the source of truth for the tag set.
type AttrType = sqltype.AttrType

const (
	UNDEFINED = sqltype.UNDEFINED
	CHARS     = sqltype.CHARS
	INTS      = sqltype.INTS
	FLOATS    = sqltype.FLOATS
	BOOLEANS  = sqltype.BOOLEANS
	DATES     = sqltype.DATES
	VECTORS   = sqltype.VECTORS
	NULLS     = sqltype.NULLS
	TEXTS     = sqltype.TEXTS
)

func Undefined() Value { return Value{Tag: UNDEFINED} }
func Null() Value      { return Value{Tag: NULLS} }

func NewInt(v int32) Value     { return Value{Tag: INTS, intVal: v} }
func NewFloat(v float32) Value { return Value{Tag: FLOATS, floatVal: v} }
func NewBool(v bool) Value     { return Value{Tag: BOOLEANS, boolVal: v} }
func NewDate(v int32) Value    { return Value{Tag: DATES, intVal: v} }

func NewChars(s string) Value {
	return Value{Tag: CHARS, chars: []byte(s), OwnsHeap: true}
}

func NewText(b []byte) Value {
	return Value{Tag: TEXTS, text: TextData{Len: uint64(len(b)), Bytes: append([]byte(nil), b...)}, OwnsHeap: true}
}

func NewTextRef(offset, length uint64) Value {
	return Value{Tag: TEXTS, text: TextData{Offset: offset, Len: length}}
}

func NewVector(floats []float32) Value {
	cp := append([]float32(nil), floats...)
	return Value{Tag: VECTORS, vector: VectorData{Dim: uint64(len(cp)), Floats: cp}, OwnsHeap: true}
}

func NewVectorRef(offset, dim uint64) Value {
	return Value{Tag: VECTORS, vector: VectorData{Offset: offset, Dim: dim}}
}

func (v Value) IsNull() bool      { return v.Tag == NULLS }
func (v Value) IsUndefined() bool { return v.Tag == UNDEFINED }

func (v Value) Int() int32 {
	switch v.Tag {
	case INTS, DATES:
		return v.intVal
	case FLOATS:
		return roundHalfAwayFromZero(v.floatVal)
	case BOOLEANS:
		if v.boolVal {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (v Value) Float() float32 {
	switch v.Tag {
	case FLOATS:
		return v.floatVal
	case INTS, DATES:
		return float32(v.intVal)
	case CHARS:
		f, _ := strconv.ParseFloat(strings.TrimSpace(string(v.chars)), 32)
		return float32(f)
	default:
		return 0
	}
}

func (v Value) Bool() bool {
	switch v.Tag {
	case BOOLEANS:
		return v.boolVal
	case INTS:
		return v.intVal != 0
	default:
		return false
	}
}

func (v Value) Chars() []byte { return v.chars }

func (v Value) Text() TextData     { return v.text }
func (v Value) Vector() VectorData { return v.vector }

// Clone deep-copies any heap payload so the result can outlive and be
// mutated independently of v.
func (v Value) Clone() Value {
	out := v
	if v.OwnsHeap {
		switch v.Tag {
		case CHARS:
			out.chars = append([]byte(nil), v.chars...)
		case TEXTS:
			out.text.Bytes = append([]byte(nil), v.text.Bytes...)
		case VECTORS:
			out.vector.Floats = append([]float32(nil), v.vector.Floats...)
		}
	}
	return out
}

func roundHalfAwayFromZero(f float32) int32 {
	if f >= 0 {
		return int32(math.Floor(float64(f) + 0.5))
	}
	return int32(math.Ceil(float64(f) - 0.5))
}

func (v Value) String() string {
	s, _ := ToString(v)
	return s
}
