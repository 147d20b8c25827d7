package value

import "testing"

func TestRoundTripStringConversion(t *testing.T) {
	cases := []Value{
		NewInt(42),
		NewInt(-7),
		NewFloat(3.5),
		NewDate(20240102),
		NewChars("hello"),
		NewVector([]float32{1, 2.5, -3}),
	}
	for _, v := range cases {
		s, err := ToString(v)
		if err != nil {
			t.Fatalf("ToString(%v): %v", v, err)
		}
		back, err := SetFromString(v.Tag, s)
		if err != nil {
			t.Fatalf("SetFromString(%s, %q): %v", v.Tag, s, err)
		}
		cmp, unknown := Compare(v, back)
		if unknown || cmp != 0 {
			t.Errorf("round trip mismatch for %s: %v -> %q -> %v", v.Tag, v, s, back)
		}
	}
}

func TestCompareAntisymmetry(t *testing.T) {
	pairs := [][2]Value{
		{NewInt(1), NewInt(2)},
		{NewFloat(1.5), NewInt(2)},
		{NewChars("abc"), NewChars("abd")},
		{NewVector([]float32{1, 2}), NewVector([]float32{1, 2, 3})},
	}
	for _, p := range pairs {
		ab, _ := Compare(p[0], p[1])
		ba, _ := Compare(p[1], p[0])
		if (ab > 0) != (ba < 0) || (ab < 0) != (ba > 0) || (ab == 0) != (ba == 0) {
			t.Errorf("antisymmetry violated for %v vs %v: %d vs %d", p[0], p[1], ab, ba)
		}
	}
}

func TestArithmeticIdentities(t *testing.T) {
	a := NewInt(5)
	sum, _ := Add(a, NewInt(0))
	if cmp, _ := Compare(sum, a); cmp != 0 {
		t.Errorf("add identity failed: %v", sum)
	}
	prod, _ := Mul(a, NewInt(1))
	if cmp, _ := Compare(prod, a); cmp != 0 {
		t.Errorf("mul identity failed: %v", prod)
	}
	div, _ := Div(a, NewInt(0))
	if !div.IsNull() {
		t.Errorf("div by zero should be NULL, got %v", div)
	}
}

func TestNullComparisonIsUnknown(t *testing.T) {
	_, unknown := Compare(Null(), NewInt(1))
	if !unknown {
		t.Error("comparison with NULL should be unknown")
	}
}

func TestOrderByNullsFirst(t *testing.T) {
	if CompareForOrderBy(Null(), NewInt(1), false) >= 0 {
		t.Error("NULL should sort before non-null ascending")
	}
	if CompareForOrderBy(Null(), NewInt(1), true) >= 0 {
		t.Error("NULL should sort before non-null descending too")
	}
}

func TestCastCostCharsTexts(t *testing.T) {
	if CastCost(CHARS, TEXTS) != 0 {
		t.Error("CHARS->TEXTS should be free")
	}
	if CastCost(TEXTS, CHARS) != 0 {
		t.Error("TEXTS->CHARS should be free (within length bound)")
	}
	if CastCost(VECTORS, INTS) == 0 {
		t.Error("VECTORS->INTS should be refused")
	}
}

func TestVectorDistance(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	d, err := VectorDistance(L2Distance, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if d != 5 {
		t.Errorf("expected L2 distance 5, got %v", d)
	}
}
