package value

import "math"

// DistanceType names the three distance functions spec.md §4.1 defines for
// VECTORS, shared between the VectorDistance expression and the vector
// index (storage/vector), which must agree on the metric.
type DistanceType int

const (
	L2Distance DistanceType = iota
	CosineDistance
	InnerProductDistance
)

func (d DistanceType) String() string {
	switch d {
	case L2Distance:
		return "l2_distance"
	case CosineDistance:
		return "cosine_distance"
	case InnerProductDistance:
		return "inner_product_distance"
	default:
		return "unknown_distance"
	}
}

// DistanceFromString is the inverse of DistanceType.String, defaulting to
// L2Distance for an unrecognized name.
func DistanceFromString(s string) DistanceType {
	switch s {
	case "cosine_distance", "cosine":
		return CosineDistance
	case "inner_product_distance", "inner_product":
		return InnerProductDistance
	default:
		return L2Distance
	}
}

// VectorDistance computes dt(l, r); both vectors must have equal dimension.
func VectorDistance(dt DistanceType, l, r []float32) (float32, error) {
	if len(l) != len(r) {
		return 0, errVectorDim(len(l), len(r))
	}
	switch dt {
	case L2Distance:
		var sum float64
		for i := range l {
			d := float64(l[i] - r[i])
			sum += d * d
		}
		return float32(math.Sqrt(sum)), nil
	case CosineDistance:
		var dot, nl, nr float64
		for i := range l {
			dot += float64(l[i]) * float64(r[i])
			nl += float64(l[i]) * float64(l[i])
			nr += float64(r[i]) * float64(r[i])
		}
		if nl == 0 || nr == 0 {
			return 1, nil
		}
		return float32(1 - dot/(math.Sqrt(nl)*math.Sqrt(nr))), nil
	case InnerProductDistance:
		var dot float64
		for i := range l {
			dot += float64(l[i]) * float64(r[i])
		}
		return float32(dot), nil
	default:
		return 0, mismatchErr("unknown distance type %d", int(dt))
	}
}
