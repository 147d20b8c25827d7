package expr

import (
	"testing"

	"github.com/minidb/miniql/value"
)

func rowTuple(values ...value.Value) *ValueListTuple {
	specs := make([]TupleCellSpec, len(values))
	for i := range values {
		specs[i] = NewFieldSpec("t", "c")
	}
	return &ValueListTuple{Values: values, Specs: specs}
}

func TestGetValueFieldLookup(t *testing.T) {
	tuple := &ValueListTuple{
		Values: []value.Value{value.NewInt(42)},
		Specs:  []TupleCellSpec{NewFieldSpec("employee", "salary")},
	}
	e := &Expr{Kind: Field, TableName: "employee", FieldName: "salary"}

	v, err := e.GetValue(tuple, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if v.Int() != 42 {
		t.Fatalf("got %v", v)
	}
}

func TestGetValueArithmeticAddIntInt(t *testing.T) {
	e := NewArithmetic(Add, NewValue(value.NewInt(2)), NewValue(value.NewInt(3)))
	v, err := e.GetValue(nil, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if v.Tag != value.INTS || v.Int() != 5 {
		t.Fatalf("got %v", v)
	}
}

func TestGetValueArithmeticDivAlwaysFloat(t *testing.T) {
	e := NewArithmetic(Div, NewValue(value.NewInt(6)), NewValue(value.NewInt(3)))
	v, err := e.GetValue(nil, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if v.Tag != value.FLOATS {
		t.Fatalf("expected FLOATS result for DIV, got %v", v.Tag)
	}
}

func TestGetValueArithmeticNullPropagates(t *testing.T) {
	e := NewArithmetic(Add, NewValue(value.Null()), NewValue(value.NewInt(3)))
	v, err := e.GetValue(nil, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !v.IsNull() {
		t.Fatalf("expected NULL, got %v", v)
	}
}

func TestGetValueConjunctionAndShortCircuits(t *testing.T) {
	e := NewConjunction(And, []*Expr{
		NewValue(value.NewBool(false)),
		NewValue(value.NewBool(true)),
	})
	v, err := e.GetValue(nil, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if v.Bool() != false {
		t.Fatalf("got %v", v)
	}
}

func TestGetValueConjunctionOrShortCircuits(t *testing.T) {
	e := NewConjunction(Or, []*Expr{
		NewValue(value.NewBool(true)),
		NewValue(value.NewBool(false)),
	})
	v, err := e.GetValue(nil, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if v.Bool() != true {
		t.Fatalf("got %v", v)
	}
}

func TestGetValueComparisonEqual(t *testing.T) {
	e := NewComparison(EQ, NewValue(value.NewInt(7)), NewValue(value.NewInt(7)))
	v, err := e.GetValue(nil, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !v.Bool() {
		t.Fatalf("expected true, got %v", v)
	}
}

func TestGetValueComparisonWithNullIsUnknown(t *testing.T) {
	e := NewComparison(EQ, NewValue(value.Null()), NewValue(value.NewInt(7)))
	v, err := e.GetValue(nil, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !v.IsNull() {
		t.Fatalf("expected NULL (UNKNOWN), got %v", v)
	}
}

func TestGetValueIsNull(t *testing.T) {
	e := NewIs(EQ, NewValue(value.Null()), NewValue(value.Null()))
	v, err := e.GetValue(nil, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !v.Bool() {
		t.Fatalf("expected IS NULL true, got %v", v)
	}
}

func TestGetValueIsTrue(t *testing.T) {
	e := NewIs(EQ, NewValue(value.NewBool(true)), NewValue(value.NewBool(true)))
	v, err := e.GetValue(nil, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !v.Bool() {
		t.Fatalf("expected IS TRUE true, got %v", v)
	}
}

func TestGetValueLikeMatch(t *testing.T) {
	e := NewLike(true, NewValue(value.NewChars("hello")), NewValue(value.NewChars("h%o")))
	v, err := e.GetValue(nil, nil)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !v.Bool() {
		t.Fatalf("expected match, got %v", v)
	}
}

func TestGetValueValueListStreamsThenEOF(t *testing.T) {
	e := NewValueList([]value.Value{value.NewInt(1), value.NewInt(2)})
	for i := 0; i < 2; i++ {
		v, err := e.GetValue(nil, nil)
		if err != nil {
			t.Fatalf("GetValue: %v", err)
		}
		if v.Int() != int32(i+1) {
			t.Fatalf("got %v", v)
		}
	}
	if _, err := e.GetValue(nil, nil); !IsRecordEOF(err) {
		t.Fatalf("expected RECORD_EOF, got %v", err)
	}
}
