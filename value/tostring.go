package value

import (
	"strconv"
	"strings"

	"github.com/minidb/miniql/rc"
)

// ToString is spec.md §4.1's to_string: the inverse of SetFromString for
// INTS, FLOATS, DATES, CHARS, VECTORS (the §8 round-trip invariant covers
// exactly those five tags).
func ToString(v Value) (string, error) {
	switch v.Tag {
	case UNDEFINED:
		return "", rc.New(rc.INVALID_ARGUMENT, "cannot stringify an undefined value")
	case NULLS:
		return "NULL", nil
	case INTS:
		return strconv.FormatInt(int64(v.intVal), 10), nil
	case DATES:
		return DateToString(v.intVal), nil
	case FLOATS:
		return formatFloat(v.floatVal), nil
	case BOOLEANS:
		return strconv.FormatBool(v.boolVal), nil
	case CHARS:
		return string(v.chars), nil
	case TEXTS:
		return string(v.text.Bytes), nil
	case VECTORS:
		return formatVector(v.vector.Floats), nil
	default:
		return "", rc.New(rc.UNIMPLEMENTED, "to_string unsupported for %s", v.Tag)
	}
}

// formatFloat mirrors common::double_to_str: six decimal places with
// trailing zeros trimmed, and the decimal point dropped too when no digit
// is left after it (3.50 -> "3.5", 3.0 -> "3").
func formatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', 6, 32)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}

// formatVector mirrors VectorType::to_string: each component rounded to two
// decimal places with trailing zeros trimmed.
func formatVector(floats []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range floats {
		s := strconv.FormatFloat(float64(f), 'f', 2, 32)
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
		if s == "" || s == "-" {
			s = "0"
		}
		b.WriteString(s)
		if i != len(floats)-1 {
			b.WriteByte(',')
		}
	}
	b.WriteByte(']')
	return b.String()
}
