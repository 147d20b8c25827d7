package value

// Compare implements spec.md §4.1's coercion rules. It returns
// (cmp, unknown): unknown is true whenever either side is NULL, in which
// case cmp is meaningless (callers fold the owning predicate to FALSE,
// except IS/IS NOT/IS TRUE/IS FALSE which never call Compare at all).
func Compare(l, r Value) (cmp int, unknown bool) {
	if l.IsNull() || r.IsNull() {
		return 0, true
	}

	switch {
	case l.Tag == CHARS && (r.Tag == INTS || r.Tag == FLOATS):
		return compareFloat(l.Float(), r.Float()), false
	case r.Tag == CHARS && (l.Tag == INTS || l.Tag == FLOATS):
		return compareFloat(l.Float(), r.Float()), false
	case l.Tag == CHARS && r.Tag == CHARS:
		return compareBytes(l.chars, r.chars), false
	case l.Tag == TEXTS || r.Tag == TEXTS:
		return compareBytes(textBytes(l), textBytes(r)), false
	case l.Tag == VECTORS && r.Tag == VECTORS:
		return compareVector(l.vector.Floats, r.vector.Floats), false
	case l.Tag == BOOLEANS && r.Tag == BOOLEANS:
		return compareInt(b2i(l.boolVal), b2i(r.boolVal)), false
	case (l.Tag == INTS || l.Tag == DATES) && (r.Tag == INTS || r.Tag == DATES):
		return compareInt(int(l.intVal), int(r.intVal)), false
	case l.Tag == FLOATS || r.Tag == FLOATS:
		return compareFloat(l.Float(), r.Float()), false
	default:
		return compareInt(int(l.Int()), int(r.Int())), false
	}
}

func textBytes(v Value) []byte {
	if v.Tag == TEXTS {
		return v.text.Bytes
	}
	return v.chars
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return compareInt(len(a), len(b))
}

// compareVector compares lexicographically on components with a
// shorter-prefix sorting before a longer one, per spec.md §4.1.
func compareVector(a, b []float32) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return compareInt(len(a), len(b))
}

// CompareForOrderBy is Compare's ORDER BY variant: NULLs sort first
// regardless of ASC/DESC (spec.md §4.1's explicit policy), so the caller's
// sort comparator should call this instead of negating Compare's result
// when desc is requested.
func CompareForOrderBy(l, r Value, desc bool) int {
	if l.IsNull() && r.IsNull() {
		return 0
	}
	if l.IsNull() {
		return -1
	}
	if r.IsNull() {
		return 1
	}
	cmp, _ := Compare(l, r)
	if desc {
		return -cmp
	}
	return cmp
}
