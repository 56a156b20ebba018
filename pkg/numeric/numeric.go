// Package numeric provides the numeric-subkind coercion service used by the
// node hierarchy.
//
// Formula values carry one of two numeric representations at runtime: int64
// (integer) or float64 (numeric). Every numeric operation with two operands
// first coerces both to one common representation — integral when both
// operands are integral, floating otherwise — and then operates on that
// representation. Centralizing the rule here keeps the constant-folding path
// and the compiled path bit-identical.
package numeric

import (
	"math"

	"github.com/sandrolain/goformula/pkg/types"
)

// Pair is the result of coercing two numeric operands to a common
// representation.
//
// When Integral is true the AInt/BInt fields hold the operands; otherwise
// AFloat/BFloat do. The unused pair of fields is zero.
type Pair struct {
	Integral       bool
	AInt, BInt     int64
	AFloat, BFloat float64
}

// Coerce converts two runtime numeric values to one common representation.
// The result is integral iff both operands are integral.
func Coerce(a, b interface{}) (Pair, error) {
	ai, aInt, err := split(a)
	if err != nil {
		return Pair{}, err
	}
	bi, bInt, err := split(b)
	if err != nil {
		return Pair{}, err
	}
	if aInt && bInt {
		return Pair{Integral: true, AInt: ai, BInt: bi}, nil
	}
	af, err := ToFloat(a)
	if err != nil {
		return Pair{}, err
	}
	bf, err := ToFloat(b)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AFloat: af, BFloat: bf}, nil
}

// Kind classifies a runtime value as one of the numeric kinds, or Undefined
// when the value is not numeric.
func Kind(v interface{}) types.ValueType {
	switch v.(type) {
	case int64:
		return types.Integer
	case float64:
		return types.Numeric
	default:
		return types.Undefined
	}
}

// ToFloat converts a runtime numeric value to float64.
func ToFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, types.Errorf(types.ErrBadBinding, "value %v is not numeric", v)
	}
}

// ToInt converts a runtime numeric value to int64. Floating-point values are
// accepted only when they are exactly integral.
func ToInt(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, types.Errorf(types.ErrBadBinding, "value %v is not integral", v)
		}
		return int64(n), nil
	default:
		return 0, types.Errorf(types.ErrBadBinding, "value %v is not numeric", v)
	}
}

// Normalize converts any native Go numeric value to the engine's runtime
// representation: signed and unsigned integers become int64, float32 becomes
// float64. Unsigned values too large for int64 pass through unconverted, like
// any other unsupported value, and are rejected by the binding check
// downstream instead of wrapping negative.
func Normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		if uint64(n) > math.MaxInt64 {
			return v
		}
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		if n > math.MaxInt64 {
			return v
		}
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// split returns the integral form of v along with whether v was integral.
func split(v interface{}) (int64, bool, error) {
	switch n := v.(type) {
	case int64:
		return n, true, nil
	case float64:
		return 0, false, nil
	default:
		return 0, false, types.Errorf(types.ErrBadBinding, "value %v is not numeric", v)
	}
}
