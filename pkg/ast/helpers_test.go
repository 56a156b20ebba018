package ast_test

import (
	"testing"

	"github.com/sandrolain/goformula/pkg/ast"
	"github.com/sandrolain/goformula/pkg/types"
)

// resolve drives Narrow over the tree until it reaches a fixpoint. Trees used
// in these tests resolve from their constants alone.
func resolve(t *testing.T, root ast.Node) {
	t.Helper()
	for i := 0; i < 100; i++ {
		changed := false
		var failure error
		ast.Walk(root, func(n ast.Node) bool {
			ch, err := n.Narrow()
			if err != nil {
				failure = err
				return false
			}
			changed = changed || ch
			return true
		})
		if failure != nil {
			t.Fatalf("narrow failed: %v", failure)
		}
		if !changed {
			return
		}
	}
	t.Fatal("inference did not converge")
}

// narrowErr drives Narrow until it either fails or reaches a fixpoint, and
// returns the failure.
func narrowErr(root ast.Node) error {
	for i := 0; i < 100; i++ {
		changed := false
		var failure error
		ast.Walk(root, func(n ast.Node) bool {
			ch, err := n.Narrow()
			if err != nil {
				failure = err
				return false
			}
			changed = changed || ch
			return true
		})
		if failure != nil {
			return failure
		}
		if !changed {
			return nil
		}
	}
	return nil
}

// eval resolves, compiles and runs a tree with the given bindings.
func eval(t *testing.T, root ast.Node, tol *types.Tolerance, bindings map[string]interface{}) interface{} {
	t.Helper()
	resolve(t, root)
	fn, err := root.Expression(tol)
	if err != nil {
		t.Fatalf("codegen failed: %v", err)
	}
	v, err := fn(ast.NewEnv(bindings))
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	return v
}

// mustNode unwraps a constructor result.
func mustNode(t *testing.T) func(n ast.Node, err error) ast.Node {
	return func(n ast.Node, err error) ast.Node {
		t.Helper()
		if err != nil {
			t.Fatalf("constructor failed: %v", err)
		}
		return n
	}
}

// param creates a named parameter node.
func param(t *testing.T, name string) *ast.Parameter {
	t.Helper()
	p, err := ast.NewParameter(name)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
