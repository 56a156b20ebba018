package ast_test

import (
	"math/rand"
	"testing"

	"github.com/sandrolain/goformula/pkg/ast"
	"github.com/sandrolain/goformula/pkg/types"
)

func TestStrongDeterminationIsFinal(t *testing.T) {
	p := param(t, "x")
	if err := p.DetermineStrongly(types.Integer); err != nil {
		t.Fatal(err)
	}
	if got := p.ReturnType(); got != types.Integer {
		t.Fatalf("ReturnType = %s, expected integer", got)
	}
	// Re-fixing to the same type is a no-op.
	if err := p.DetermineStrongly(types.Integer); err != nil {
		t.Fatalf("re-fixing to the same type should succeed: %v", err)
	}
	// Re-fixing to a different type is a conflict.
	err := p.DetermineStrongly(types.String)
	if err == nil {
		t.Fatal("re-fixing to a different type should fail")
	}
	if !types.IsTypeConflict(err) {
		t.Fatalf("expected a type-conflict error, got %v", err)
	}
}

func TestWeakDeterminationNarrows(t *testing.T) {
	p := param(t, "x")
	if err := p.DetermineWeakly(types.NumberTypes); err != nil {
		t.Fatal(err)
	}
	if got := p.Candidates(); got != types.NumberTypes {
		t.Fatalf("Candidates = %s, expected number types", got)
	}
	if got := p.ReturnType(); got != types.Undefined {
		t.Fatalf("two candidates left, type should be undefined, got %s", got)
	}
}

func TestWeakCollapseFixesStrongly(t *testing.T) {
	p := param(t, "x")
	if err := p.DetermineWeakly(types.Boolean.Set()); err != nil {
		t.Fatal(err)
	}
	if got := p.ReturnType(); got != types.Boolean {
		t.Fatalf("single candidate should fix the type, got %s", got)
	}
	// A later, wider weak constraint that includes the fixed type is fine.
	if err := p.DetermineWeakly(types.ScalarTypes); err != nil {
		t.Fatalf("compatible constraint should succeed: %v", err)
	}
}

func TestWeakDeterminationToEmptyFails(t *testing.T) {
	p := param(t, "x")
	if err := p.DetermineWeakly(types.NumberTypes); err != nil {
		t.Fatal(err)
	}
	err := p.DetermineWeakly(types.String.Set())
	if err == nil {
		t.Fatal("disjoint constraint should fail")
	}
	if !types.IsTypeConflict(err) {
		t.Fatalf("expected a type-conflict error, got %v", err)
	}
}

func TestAddOfIntegersResolvesIntegral(t *testing.T) {
	n := mustNode(t)(ast.NewAdd(ast.NewInteger(2), ast.NewInteger(3)))
	resolve(t, n)
	if got := n.ReturnType(); got != types.Integer {
		t.Fatalf("2 + 3 resolved to %s, expected integer", got)
	}
}

func TestAddOfMixedKindsResolvesFloating(t *testing.T) {
	n := mustNode(t)(ast.NewAdd(ast.NewInteger(2), ast.NewNumber(0.5)))
	resolve(t, n)
	if got := n.ReturnType(); got != types.Numeric {
		t.Fatalf("2 + 0.5 resolved to %s, expected numeric", got)
	}
}

func TestAddOfStringsConcatenates(t *testing.T) {
	n := mustNode(t)(ast.NewAdd(ast.NewString("foo"), ast.NewString("bar")))
	resolve(t, n)
	if got := n.ReturnType(); got != types.String {
		t.Fatalf("string + string resolved to %s, expected string", got)
	}
	if got := eval(t, n, nil, nil); got != "foobar" {
		t.Fatalf(`"foo" + "bar" = %v`, got)
	}
}

func TestAddNarrowsParameterAgainstString(t *testing.T) {
	p := param(t, "name")
	n := mustNode(t)(ast.NewAdd(p, ast.NewString("!")))
	resolve(t, n)
	if got := p.ReturnType(); got != types.String {
		t.Fatalf("parameter resolved to %s, expected string", got)
	}
	if got := eval(t, n, nil, map[string]interface{}{"name": "go"}); got != "go!" {
		t.Fatalf(`name + "!" = %v`, got)
	}
}

func TestAddRejectsStringNumberMix(t *testing.T) {
	n := mustNode(t)(ast.NewAdd(ast.NewString("a"), ast.NewInteger(1)))
	err := narrowErr(n)
	if err == nil {
		t.Fatal("string + integer should be a type conflict")
	}
	if !types.IsTypeConflict(err) {
		t.Fatalf("expected a type-conflict error, got %v", err)
	}
}

func TestDivisionIsAlwaysFloating(t *testing.T) {
	n := mustNode(t)(ast.NewDivide(ast.NewInteger(4), ast.NewInteger(2)))
	resolve(t, n)
	if got := n.ReturnType(); got != types.Numeric {
		t.Fatalf("4 / 2 resolved to %s, expected numeric", got)
	}
}

func TestModuloForcesIntegralOperands(t *testing.T) {
	p := param(t, "x")
	n := mustNode(t)(ast.NewModulo(p, ast.NewInteger(3)))
	resolve(t, n)
	if got := p.ReturnType(); got != types.Integer {
		t.Fatalf("modulo operand resolved to %s, expected integer", got)
	}
	if got := n.ReturnType(); got != types.Integer {
		t.Fatalf("modulo resolved to %s, expected integer", got)
	}
}

func TestModuloRejectsFloatOperand(t *testing.T) {
	n := mustNode(t)(ast.NewModulo(ast.NewNumber(1.5), ast.NewInteger(3)))
	err := narrowErr(n)
	if err == nil {
		t.Fatal("modulo of a float constant should be a type conflict")
	}
	if !types.IsTypeConflict(err) {
		t.Fatalf("expected a type-conflict error, got %v", err)
	}
}

func TestIntegralResultForcesIntegralOperands(t *testing.T) {
	p := param(t, "x")
	n := mustNode(t)(ast.NewAdd(p, ast.NewInteger(1)))
	if err := n.DetermineStrongly(types.Integer); err != nil {
		t.Fatal(err)
	}
	resolve(t, n)
	if got := p.ReturnType(); got != types.Integer {
		t.Fatalf("operand of an integral sum resolved to %s, expected integer", got)
	}
}

func TestCompareCrossNumericKinds(t *testing.T) {
	// An integer compares against a float without conflict.
	n := mustNode(t)(ast.NewLess(ast.NewInteger(1), ast.NewNumber(1.5)))
	resolve(t, n)
	if got := n.ReturnType(); got != types.Boolean {
		t.Fatalf("comparison resolved to %s, expected boolean", got)
	}
}

func TestCompareNarrowsParameterAgainstString(t *testing.T) {
	p := param(t, "name")
	n := mustNode(t)(ast.NewEqual(p, ast.NewString("go")))
	resolve(t, n)
	if got := p.ReturnType(); got != types.String {
		t.Fatalf("parameter resolved to %s, expected string", got)
	}
}

func TestOrderingRejectsBooleans(t *testing.T) {
	n := mustNode(t)(ast.NewLess(ast.NewBoolean(true), ast.NewBoolean(false)))
	err := narrowErr(n)
	if err == nil {
		t.Fatal("ordering booleans should be a type conflict")
	}
	if !types.IsTypeConflict(err) {
		t.Fatalf("expected a type-conflict error, got %v", err)
	}
}

func TestConditionalUnifiesBranches(t *testing.T) {
	p := param(t, "x")
	n := mustNode(t)(ast.NewConditional(ast.NewBoolean(true), p, ast.NewInteger(1)))
	resolve(t, n)
	if got := n.ReturnType(); got != types.Integer {
		t.Fatalf("conditional resolved to %s, expected integer", got)
	}
	if got := p.ReturnType(); got != types.Integer {
		t.Fatalf("then-branch parameter resolved to %s, expected integer", got)
	}
}

func TestConditionalBranchConflict(t *testing.T) {
	n := mustNode(t)(ast.NewConditional(ast.NewBoolean(true), ast.NewString("a"), ast.NewInteger(1)))
	err := narrowErr(n)
	if err == nil {
		t.Fatal("string and integer branches should conflict")
	}
	if !types.IsTypeConflict(err) {
		t.Fatalf("expected a type-conflict error, got %v", err)
	}
}

func TestLogicalForcesBooleanOperands(t *testing.T) {
	p := param(t, "flag")
	n := mustNode(t)(ast.NewAnd(p, ast.NewBoolean(true)))
	resolve(t, n)
	if got := p.ReturnType(); got != types.Boolean {
		t.Fatalf("logical operand resolved to %s, expected boolean", got)
	}
}

func TestConcatAcceptsScalarsOnly(t *testing.T) {
	p := param(t, "x")
	n := mustNode(t)(ast.NewConcat(ast.NewString("v="), p))
	resolve(t, n)
	if got := n.ReturnType(); got != types.String {
		t.Fatalf("concat resolved to %s, expected string", got)
	}
	if got := p.Candidates(); got != types.ScalarTypes {
		t.Fatalf("concat operand candidates = %s, expected scalar types", got)
	}
}

func TestNarrowOrderIndependence(t *testing.T) {
	// The final resolved types must not depend on the order the nodes are
	// narrowed in.
	build := func() (ast.Node, map[string]*ast.Parameter) {
		flag := param(t, "flag")
		x := param(t, "x")
		s := param(t, "s")
		mod := mustNode(t)(ast.NewModulo(x, ast.NewInteger(2)))
		length := mustNode(t)(ast.NewLength(s))
		cond := mustNode(t)(ast.NewConditional(flag, mod, length))
		return cond, map[string]*ast.Parameter{"flag": flag, "x": x, "s": s}
	}

	resolveShuffled := func(root ast.Node, rng *rand.Rand) bool {
		var nodes []ast.Node
		ast.Walk(root, func(n ast.Node) bool {
			nodes = append(nodes, n)
			return true
		})
		for i := 0; i < 100; i++ {
			rng.Shuffle(len(nodes), func(a, b int) { nodes[a], nodes[b] = nodes[b], nodes[a] })
			changed := false
			for _, n := range nodes {
				ch, err := n.Narrow()
				if err != nil {
					t.Fatalf("narrow failed: %v", err)
				}
				changed = changed || ch
			}
			if !changed {
				return true
			}
		}
		return false
	}

	var reference map[string]types.ValueType
	for seed := int64(0); seed < 20; seed++ {
		root, params := build()
		if !resolveShuffled(root, rand.New(rand.NewSource(seed))) {
			t.Fatalf("seed %d: inference did not converge", seed)
		}
		got := map[string]types.ValueType{"root": root.ReturnType()}
		for name, p := range params {
			got[name] = p.ReturnType()
		}
		if reference == nil {
			reference = got
			continue
		}
		for name, typ := range reference {
			if got[name] != typ {
				t.Fatalf("seed %d resolved %s to %s, an earlier order gave %s", seed, name, got[name], typ)
			}
		}
	}
	if reference["x"] != types.Integer || reference["s"] != types.String || reference["flag"] != types.Boolean {
		t.Fatalf("unexpected resolution %v", reference)
	}
}

func TestNarrowIsIdempotentAtFixpoint(t *testing.T) {
	n := mustNode(t)(ast.NewAdd(ast.NewInteger(2), ast.NewInteger(3)))
	resolve(t, n)
	// A second full sweep must report no change.
	changed := false
	ast.Walk(n, func(m ast.Node) bool {
		ch, err := m.Narrow()
		if err != nil {
			t.Fatalf("narrow at fixpoint failed: %v", err)
		}
		changed = changed || ch
		return true
	})
	if changed {
		t.Fatal("narrow after convergence should be a no-op")
	}
}
