package value

// Arithmetic result types per spec.md §4.2: INT op INT -> INT (except DIV,
// which always yields FLOAT); VECTOR op VECTOR -> VECTOR elementwise;
// everything else promotes to FLOAT. Any operand NULL yields NULL.

func bothInt(l, r Value) bool {
	intLike := func(v Value) bool { return v.Tag == INTS || v.Tag == DATES }
	return intLike(l) && intLike(r)
}

func Add(l, r Value) (Value, error) {
	if l.IsNull() || r.IsNull() {
		return Null(), nil
	}
	if l.Tag == VECTORS && r.Tag == VECTORS {
		return vectorOp(l, r, func(a, b float32) float32 { return a + b })
	}
	if bothInt(l, r) {
		return NewInt(l.Int() + r.Int()), nil
	}
	return NewFloat(l.Float() + r.Float()), nil
}

func Sub(l, r Value) (Value, error) {
	if l.IsNull() || r.IsNull() {
		return Null(), nil
	}
	if l.Tag == VECTORS && r.Tag == VECTORS {
		return vectorOp(l, r, func(a, b float32) float32 { return a - b })
	}
	if bothInt(l, r) {
		return NewInt(l.Int() - r.Int()), nil
	}
	return NewFloat(l.Float() - r.Float()), nil
}

func Mul(l, r Value) (Value, error) {
	if l.IsNull() || r.IsNull() {
		return Null(), nil
	}
	if l.Tag == VECTORS && r.Tag == VECTORS {
		return vectorOp(l, r, func(a, b float32) float32 { return a * b })
	}
	if bothInt(l, r) {
		return NewInt(l.Int() * r.Int()), nil
	}
	return NewFloat(l.Float() * r.Float()), nil
}

// Div always yields FLOAT (or NULL), per spec.md §4.1/§4.2: division by
// anything within Epsilon of zero yields NULL rather than Inf/NaN.
func Div(l, r Value) (Value, error) {
	if l.IsNull() || r.IsNull() {
		return Null(), nil
	}
	rf := r.Float()
	if rf > -sqltypeEpsilon && rf < sqltypeEpsilon {
		return Null(), nil
	}
	return NewFloat(l.Float() / rf), nil
}

func Negative(v Value) (Value, error) {
	if v.IsNull() {
		return Null(), nil
	}
	switch v.Tag {
	case INTS, DATES:
		return NewInt(-v.intVal), nil
	case VECTORS:
		out := make([]float32, len(v.vector.Floats))
		for i, f := range v.vector.Floats {
			out[i] = -f
		}
		return NewVector(out), nil
	default:
		return NewFloat(-v.Float()), nil
	}
}

func vectorOp(l, r Value, op func(a, b float32) float32) (Value, error) {
	lv, rv := l.vector.Floats, r.vector.Floats
	if len(lv) != len(rv) {
		return Value{}, errVectorDim(len(lv), len(rv))
	}
	out := make([]float32, len(lv))
	for i := range lv {
		out[i] = op(lv[i], rv[i])
	}
	return NewVector(out), nil
}

func Max(l, r Value) Value {
	if l.IsNull() {
		return r
	}
	if r.IsNull() {
		return l
	}
	cmp, _ := Compare(l, r)
	if cmp >= 0 {
		return l
	}
	return r
}

func Min(l, r Value) Value {
	if l.IsNull() {
		return r
	}
	if r.IsNull() {
		return l
	}
	cmp, _ := Compare(l, r)
	if cmp <= 0 {
		return l
	}
	return r
}

const sqltypeEpsilon = 1e-5

func errVectorDim(a, b int) error {
	return mismatchErr("vector dimension mismatch: %d vs %d", a, b)
}
