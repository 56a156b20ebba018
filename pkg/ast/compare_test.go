package ast_test

import (
	"testing"

	"github.com/sandrolain/goformula/pkg/ast"
	"github.com/sandrolain/goformula/pkg/types"
)

func TestExactFloatEquality(t *testing.T) {
	n := mustNode(t)(ast.NewEqual(ast.NewNumber(0.1+0.2), ast.NewNumber(0.3)))
	if got := eval(t, n, nil, nil); got != false {
		t.Fatal("0.1+0.2 = 0.3 must be false under exact comparison")
	}
}

func TestTolerantFloatEquality(t *testing.T) {
	tol := &types.Tolerance{Epsilon: 1e-9}
	n := mustNode(t)(ast.NewEqual(ast.NewNumber(0.1+0.2), ast.NewNumber(0.3)))
	if got := eval(t, n, tol, nil); got != true {
		t.Fatal("0.1+0.2 = 0.3 should hold within epsilon 1e-9")
	}
}

func TestTolerantEqualityBeatsOrdering(t *testing.T) {
	tol := &types.Tolerance{Epsilon: 1e-3}
	a, b := 1.0, 1.0000001

	tests := []struct {
		name string
		ctor func(lhs, rhs ast.Node) (ast.Node, error)
		want bool
	}{
		{"equal", ast.NewEqual, true},
		{"not equal", ast.NewNotEqual, false},
		{"less", ast.NewLess, false},
		{"less or equal", ast.NewLessOrEqual, true},
		{"greater", ast.NewGreater, false},
		{"greater or equal", ast.NewGreaterOrEqual, true},
	}
	for _, tt := range tests {
		n := mustNode(t)(tt.ctor(ast.NewNumber(a), ast.NewNumber(b)))
		if got := eval(t, n, tol, nil); got != tt.want {
			t.Fatalf("%s: got %v, expected %v", tt.name, got, tt.want)
		}
	}
}

func TestIntegerOnlyToleranceSkipsFloats(t *testing.T) {
	tol := &types.Tolerance{Epsilon: 1, IntegerOnly: true}

	ints := mustNode(t)(ast.NewEqual(ast.NewInteger(10), ast.NewInteger(11)))
	if got := eval(t, ints, tol, nil); got != true {
		t.Fatal("integers within the window should be equal")
	}

	floats := mustNode(t)(ast.NewEqual(ast.NewNumber(10.0), ast.NewNumber(10.5)))
	if got := eval(t, floats, tol, nil); got != false {
		t.Fatal("IntegerOnly must keep float comparison exact")
	}
}

func TestCrossKindComparisonCoerces(t *testing.T) {
	// 2 (integer) against 2.0 (numeric) compares equal through coercion.
	n := mustNode(t)(ast.NewEqual(ast.NewInteger(2), ast.NewNumber(2.0)))
	if got := eval(t, n, nil, nil); got != true {
		t.Fatal("2 = 2.0 should hold across numeric kinds")
	}

	m := mustNode(t)(ast.NewLess(ast.NewInteger(2), ast.NewNumber(2.5)))
	if got := eval(t, m, nil, nil); got != true {
		t.Fatal("2 < 2.5 should hold across numeric kinds")
	}
}

func TestStringComparisonModes(t *testing.T) {
	build := func() ast.Node {
		return mustNode(t)(ast.NewEqual(ast.NewString("Hello"), ast.NewString("hello")))
	}
	if got := eval(t, build(), nil, nil); got != false {
		t.Fatal("exact mode should distinguish case")
	}
	icase := &types.Tolerance{Strings: types.StringIgnoreCase}
	if got := eval(t, build(), icase, nil); got != true {
		t.Fatal("ignorecase mode should match")
	}

	trimmed := mustNode(t)(ast.NewEqual(ast.NewString(" v "), ast.NewString("v")))
	trim := &types.Tolerance{Strings: types.StringTrimSpace}
	if got := eval(t, trimmed, trim, nil); got != true {
		t.Fatal("trimspace mode should match")
	}
}

func TestStringOrdering(t *testing.T) {
	n := mustNode(t)(ast.NewLess(ast.NewString("apple"), ast.NewString("banana")))
	if got := eval(t, n, nil, nil); got != true {
		t.Fatal("apple < banana should hold")
	}
}

func TestBooleanEquality(t *testing.T) {
	n := mustNode(t)(ast.NewNotEqual(ast.NewBoolean(true), ast.NewBoolean(false)))
	if got := eval(t, n, nil, nil); got != true {
		t.Fatal("true != false should hold")
	}
}

func TestBinaryEquality(t *testing.T) {
	n := mustNode(t)(ast.NewEqual(ast.NewBinary([]byte{1, 2}), ast.NewBinary([]byte{1, 2})))
	if got := eval(t, n, nil, nil); got != true {
		t.Fatal("identical byte slices should be equal")
	}
}

func TestCompareIsAlwaysTolerant(t *testing.T) {
	n := mustNode(t)(ast.NewEqual(ast.NewInteger(1), ast.NewInteger(1)))
	if !n.IsTolerant() {
		t.Fatal("comparison nodes participate in tolerant compilation")
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	// The unbound parameter on the right is never evaluated.
	p := param(t, "flag")
	and := mustNode(t)(ast.NewAnd(ast.NewBoolean(false), p))
	if got := eval(t, and, nil, nil); got != false {
		t.Fatal("false and x should short-circuit to false")
	}

	q := param(t, "flag2")
	or := mustNode(t)(ast.NewOr(ast.NewBoolean(true), q))
	if got := eval(t, or, nil, nil); got != true {
		t.Fatal("true or x should short-circuit to true")
	}
}
