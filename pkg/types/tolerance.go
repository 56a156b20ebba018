package types

import (
	"fmt"
	"math"
	"strings"
)

// StringMode selects how tolerant string comparison treats its operands.
type StringMode uint8

const (
	// StringExact compares strings byte for byte.
	StringExact StringMode = iota
	// StringIgnoreCase compares strings case-insensitively.
	StringIgnoreCase
	// StringTrimSpace ignores leading and trailing whitespace.
	StringTrimSpace
)

// String returns a short name for the mode, used in cache keys.
func (m StringMode) String() string {
	switch m {
	case StringExact:
		return "exact"
	case StringIgnoreCase:
		return "icase"
	case StringTrimSpace:
		return "trim"
	default:
		return "invalid"
	}
}

// Tolerance is an acceptable-deviation descriptor for tolerant comparison.
//
// It is an immutable value object supplied at compile time: it parameterizes
// the generated comparisons and never mutates the tree. A nil *Tolerance
// means exact comparison everywhere; all predicate methods are nil-receiver
// safe and degrade to exact semantics.
type Tolerance struct {
	// Epsilon is the half-width of the numeric acceptance window:
	// two numbers are tolerantly equal when |a-b| <= Epsilon.
	Epsilon float64
	// IntegerOnly restricts the numeric window to integral comparisons.
	// When set, floating-point operands are still compared exactly.
	IntegerOnly bool
	// Strings selects the string comparison mode.
	Strings StringMode
}

// Zero reports whether the tolerance relaxes nothing, i.e. compiling with it
// is equivalent to compiling exactly.
func (t *Tolerance) Zero() bool {
	return t == nil || (t.Epsilon == 0 && t.Strings == StringExact)
}

// EqualFloats reports whether two floating-point values are equal within the
// tolerance window.
func (t *Tolerance) EqualFloats(a, b float64) bool {
	if t == nil || t.Epsilon == 0 || t.IntegerOnly {
		return a == b
	}
	return math.Abs(a-b) <= t.Epsilon
}

// EqualInts reports whether two integral values are equal within the
// tolerance window.
func (t *Tolerance) EqualInts(a, b int64) bool {
	if t == nil || t.Epsilon == 0 {
		return a == b
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return float64(d) <= t.Epsilon
}

// EqualStrings reports whether two strings are equal under the configured
// string mode.
func (t *Tolerance) EqualStrings(a, b string) bool {
	if t == nil {
		return a == b
	}
	switch t.Strings {
	case StringIgnoreCase:
		return strings.EqualFold(a, b)
	case StringTrimSpace:
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	default:
		return a == b
	}
}

// Key returns a stable cache-key fragment identifying the tolerance.
// Distinct tolerances yield distinct keys; nil and the zero tolerance share
// the "exact" key.
func (t *Tolerance) Key() string {
	if t.Zero() {
		return "exact"
	}
	return fmt.Sprintf("eps=%g;int=%t;str=%s", t.Epsilon, t.IntegerOnly, t.Strings)
}
