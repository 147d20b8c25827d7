package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/sqltype"
)

// CastCost mirrors spec.md §4.1's cast_cost table: 0 means free, IntMax
// (sqltype.IntMax) means refused. CHARS<->TEXTS is the one free widening;
// everything else cross-type is refused except the identity cast.
func CastCost(from, to AttrType) int {
	if from == to {
		return 0
	}
	switch from {
	case CHARS:
		if to == TEXTS {
			return 0
		}
	case TEXTS:
		if to == CHARS {
			return 0 // caller must additionally check length <= 65535 at cast time
		}
	}
	return sqltype.IntMax
}

// CastTo converts v to the target type, applying spec.md §4.1's rules
// (float->int rounds half-away-from-zero; CHARS<->TEXTS is free subject to
// the 65535-byte limit on TEXTS->CHARS; anything else unsupported by the
// cost table is refused).
func CastTo(v Value, target AttrType) (Value, error) {
	if v.IsNull() {
		return Null(), nil
	}
	if v.Tag == target {
		return v.Clone(), nil
	}

	switch target {
	case INTS:
		switch v.Tag {
		case FLOATS:
			return NewInt(v.Int()), nil
		case CHARS:
			f, _ := strconv.ParseFloat(strings.TrimSpace(string(v.chars)), 64)
			return NewInt(roundHalfAwayFromZero(float32(f))), nil
		}
	case FLOATS:
		switch v.Tag {
		case INTS, DATES:
			return NewFloat(float32(v.intVal)), nil
		case CHARS:
			return NewFloat(v.Float()), nil
		}
	case CHARS:
		switch v.Tag {
		case TEXTS:
			return NewChars(string(v.text.Bytes)), nil
		case INTS, FLOATS, DATES, BOOLEANS:
			s, _ := ToString(v)
			return NewChars(s), nil
		}
	case TEXTS:
		if v.Tag == CHARS {
			if len(v.chars) > 65535 {
				return Value{}, rc.New(rc.UNSUPPORTED, "text field length %d exceeds max length 65535", len(v.chars))
			}
			return NewText(v.chars), nil
		}
	}

	return Value{}, rc.New(rc.UNIMPLEMENTED, "cannot cast %s to %s", v.Tag, target)
}

func parseVectorLiteral(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("invalid vector literal %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []float32{}, nil
	}
	parts := strings.Split(inner, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector literal %q: %w", s, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// SetFromString is spec.md §4.1's set_value_from_str: parses a raw string
// into a typed Value, the inverse partner of ToString used by the §8
// round-trip invariant.
func SetFromString(t AttrType, s string) (Value, error) {
	switch t {
	case INTS:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return Value{}, rc.Wrap(rc.SCHEMA_FIELD_TYPE_MISMATCH, err, "parsing int %q", s)
		}
		return NewInt(int32(n)), nil
	case FLOATS:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if err != nil {
			return Value{}, rc.Wrap(rc.SCHEMA_FIELD_TYPE_MISMATCH, err, "parsing float %q", s)
		}
		return NewFloat(float32(f)), nil
	case DATES:
		d, err := ParseDate(s)
		if err != nil {
			return Value{}, err
		}
		return NewDate(d), nil
	case CHARS:
		return NewChars(s), nil
	case TEXTS:
		return NewText([]byte(s)), nil
	case VECTORS:
		floats, err := parseVectorLiteral(s)
		if err != nil {
			return Value{}, rc.Wrap(rc.SCHEMA_FIELD_TYPE_MISMATCH, err, "parsing vector %q", s)
		}
		return NewVector(floats), nil
	case BOOLEANS:
		return NewBool(strings.EqualFold(strings.TrimSpace(s), "true")), nil
	default:
		return Value{}, rc.New(rc.UNIMPLEMENTED, "cannot parse type %s from string", t)
	}
}
