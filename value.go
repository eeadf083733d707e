package refract

import "math"

// Value is a parameter value. The dynamic type must be one of the comparable
// kinds used on the parameter surface: float64, bool, string, or Vec3.
// Engine intake may deliver other numeric widths; normalize first.
type Value = any

// Vec3 is a three-component vector parameter (positions, directions, RGB
// triples expressed as components rather than hex strings).
type Vec3 struct {
	X, Y, Z float64
}

// valueEqual reports whether two parameter values are identical.
// All supported kinds are comparable, so interface equality suffices.
func valueEqual(a, b Value) bool {
	return a == b
}

// normalizeValue coerces foreign numeric widths from the engine boundary
// into float64. Non-numeric kinds pass through unchanged.
func normalizeValue(v Value) Value {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	default:
		return v
	}
}

// Clamp bounds v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Quantize snaps v onto the step grid anchored at min.
func Quantize(v, min, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round((v-min)/step)*step + min
}
