package types_test

import (
	"testing"

	"github.com/sandrolain/goformula/pkg/types"
)

func TestNilToleranceIsExact(t *testing.T) {
	var tol *types.Tolerance
	if !tol.Zero() {
		t.Fatal("nil tolerance should be zero")
	}
	if tol.EqualFloats(1.0, 1.0000001) {
		t.Fatal("nil tolerance should compare floats exactly")
	}
	if !tol.EqualFloats(1.5, 1.5) {
		t.Fatal("identical floats should be equal")
	}
	if tol.EqualInts(1, 2) {
		t.Fatal("nil tolerance should compare ints exactly")
	}
	if !tol.EqualStrings("a", "a") || tol.EqualStrings("a", "A") {
		t.Fatal("nil tolerance should compare strings exactly")
	}
	if got := tol.Key(); got != "exact" {
		t.Fatalf("nil tolerance key = %q", got)
	}
}

func TestToleranceEpsilon(t *testing.T) {
	tol := &types.Tolerance{Epsilon: 0.01}
	tests := []struct {
		a, b float64
		want bool
	}{
		{1.0, 1.005, true},
		{1.0, 1.01, true}, // boundary is inclusive
		{1.0, 1.02, false},
		{-1.0, -1.005, true},
	}
	for _, tt := range tests {
		if got := tol.EqualFloats(tt.a, tt.b); got != tt.want {
			t.Fatalf("EqualFloats(%g, %g) = %t, expected %t", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestToleranceIntegerOnly(t *testing.T) {
	tol := &types.Tolerance{Epsilon: 1, IntegerOnly: true}
	if !tol.EqualInts(10, 11) {
		t.Fatal("integers within epsilon should be equal")
	}
	if tol.EqualFloats(10.0, 10.5) {
		t.Fatal("IntegerOnly must keep float comparison exact")
	}
}

func TestToleranceIntWindow(t *testing.T) {
	tol := &types.Tolerance{Epsilon: 2}
	if !tol.EqualInts(5, 7) || !tol.EqualInts(7, 5) {
		t.Fatal("distance 2 within epsilon 2 should be equal")
	}
	if tol.EqualInts(5, 8) {
		t.Fatal("distance 3 outside epsilon 2 should differ")
	}
}

func TestToleranceStringModes(t *testing.T) {
	icase := &types.Tolerance{Strings: types.StringIgnoreCase}
	if !icase.EqualStrings("Hello", "hELLO") {
		t.Fatal("ignorecase should match case-folded strings")
	}
	if icase.EqualStrings("hello", "hallo") {
		t.Fatal("ignorecase should not match different strings")
	}

	trim := &types.Tolerance{Strings: types.StringTrimSpace}
	if !trim.EqualStrings("  hello\t", "hello") {
		t.Fatal("trimspace should ignore surrounding whitespace")
	}
	if trim.EqualStrings("he llo", "hello") {
		t.Fatal("trimspace must not ignore interior whitespace")
	}
}

func TestToleranceKeyDistinguishes(t *testing.T) {
	keys := map[string]bool{}
	for _, tol := range []*types.Tolerance{
		nil,
		{},
		{Epsilon: 0.1},
		{Epsilon: 0.1, IntegerOnly: true},
		{Strings: types.StringIgnoreCase},
		{Epsilon: 0.1, Strings: types.StringTrimSpace},
	} {
		keys[tol.Key()] = true
	}
	// nil and the zero tolerance share "exact"; the other four are distinct.
	if got := len(keys); got != 5 {
		t.Fatalf("expected 5 distinct keys, got %d: %v", got, keys)
	}
}
