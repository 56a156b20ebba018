package compiler

import (
	"github.com/sandrolain/goformula/pkg/ast"
	"github.com/sandrolain/goformula/pkg/types"
)

// Artifact is the compiled, executable form of one (tree, tolerance) pair.
//
// An artifact is stateless relative to the tree it was compiled from: each
// invocation reads only the bindings supplied at call time, so one artifact
// may be invoked concurrently by multiple goroutines. Call sites that need
// independent default bindings on the parameter nodes themselves must clone
// the tree per call site and compile each clone.
type Artifact struct {
	run        ast.Computation
	runString  ast.StringComputation
	returnType types.ValueType
	tolerance  *types.Tolerance
}

// Run invokes the computation with the given call-time parameter bindings.
// Bindings take precedence over the default bindings of the parameter nodes.
func (a *Artifact) Run(bindings map[string]interface{}) (interface{}, error) {
	return a.run(ast.NewEnv(bindings))
}

// RunString invokes the string-rendering computation with the given
// bindings.
func (a *Artifact) RunString(bindings map[string]interface{}) (string, error) {
	return a.runString(ast.NewEnv(bindings))
}

// ReturnType is the concrete result type of the computation.
func (a *Artifact) ReturnType() types.ValueType {
	return a.returnType
}

// Tolerance returns the tolerance descriptor the artifact was compiled
// with; nil means exact semantics.
func (a *Artifact) Tolerance() *types.Tolerance {
	return a.tolerance
}
