package derive

import (
	"math"
	"strconv"
	"strings"
)

// Number coerces a loosely typed upstream field into a finite float64.
// Strings are parsed, empty or non-numeric input reports absence. Malformed
// input never produces an error: absence is always representable.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case float32:
		return Number(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// NumberOr coerces like Number, substituting fallback for absent values.
func NumberOr(v any, fallback float64) float64 {
	if n, ok := Number(v); ok {
		return n
	}
	return fallback
}

// Clamp bounds v to [min, max].
func Clamp(v, min, max float64) float64 {
	return math.Min(max, math.Max(min, v))
}

// Round rounds v to the given number of decimal digits.
func Round(v float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Round(v*factor) / factor
}
