// Package parser implements the formula surface syntax.
//
// The parser uses a hand-written recursive descent approach. It produces a
// Raw node tree (types possibly undetermined); the compiler package performs
// type inference, simplification and codegen.
//
// # Grammar
//
//	expr     := or ("?" expr ":" expr)?
//	or       := and ("or" and)*
//	and      := cmp ("and" cmp)*
//	cmp      := concat (("="|"!="|"<"|"<="|">"|">=") concat)?
//	concat   := additive ("&" additive)*
//	additive := multi (("+"|"-") multi)*
//	multi    := unary (("*"|"/"|"%") unary)*
//	unary    := ("-"|"not") unary | primary
//	primary  := number | string | boolean | name | name "(" args ")" | "(" expr ")"
//
// Identifiers that are not followed by "(" become parameters; one Parameter
// node is shared by all occurrences of the same name, so rebinding it is
// visible at every usage site. Identifiers followed by "(" are resolved
// through the function registry.
package parser

import (
	"github.com/sandrolain/goformula/pkg/ast"
)

// Result is the outcome of parsing one formula: the raw root node and the
// table of parameters encountered, keyed by name.
type Result struct {
	Root       ast.Node
	Source     string
	Parameters map[string]*ast.Parameter
}

// Parse parses a formula and returns the Raw node tree.
//
// The returned tree has not been type-resolved yet; feed it to the compiler
// package. If parsing fails, the error carries the source position.
//
// Example:
//
//	res, err := parser.Parse("round(x, 2)")
//	if err != nil {
//	    return err
//	}
//	root := res.Root
func Parse(source string, opts ...CompileOption) (*Result, error) {
	p := NewParser(source, opts...)
	return p.Parse()
}

// CompileOption configures parsing behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits recursion depth to prevent stack overflow.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
