// Package compiler turns a Resolved, simplified node tree into an
// executable artifact.
//
// The pipeline is a three-state machine:
//
//	Raw ──Resolve──▶ Resolved ──Simplify+Compile──▶ Compiled
//
// Resolve drives the bidirectional inference protocol of the ast package to
// a fixpoint and fails with a type-conflict error naming the offending node.
// Compile generates the value-producing and string-rendering computations
// for one tolerance. A correctly Resolved tree never fails compilation for
// type reasons — only for resource limits.
package compiler

import (
	"log/slog"

	"github.com/sandrolain/goformula/pkg/ast"
	"github.com/sandrolain/goformula/pkg/types"
)

// defaultMaxDepth bounds the tree height accepted by codegen. Expression
// closures recurse per level, so the bound keeps pathological inputs from
// exhausting the stack.
const defaultMaxDepth = 1000

// Compiler runs the Raw -> Resolved -> Compiled pipeline.
type Compiler struct {
	logger   *slog.Logger
	maxDepth int
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the structured logger used for pipeline debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithMaxDepth sets the maximum tree height accepted by codegen.
func WithMaxDepth(depth int) Option {
	return func(c *Compiler) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// New creates a Compiler with default options.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Resolve performs the Raw -> Resolved transition: it repeatedly narrows
// every node until no further narrowing occurs, then defaults the nodes
// whose candidate sets did not collapse on their own. After a successful
// Resolve every reachable node has a concrete return type.
//
// The tree is mutated; run Resolve single-threaded to completion before any
// sharing.
func (c *Compiler) Resolve(root ast.Node) error {
	if root == nil {
		return types.Errorf(types.ErrNilOperand, "cannot resolve a nil tree")
	}
	passes := 0
	for {
		changed, err := c.narrowOnce(root)
		if err != nil {
			return err
		}
		passes++
		if changed {
			continue
		}
		node := firstUnresolved(root)
		if node == nil {
			break
		}
		if err := defaultType(node); err != nil {
			return err
		}
	}
	c.logger.Debug("type inference converged", "passes", passes)
	return nil
}

// narrowOnce runs one Narrow sweep over the whole tree.
func (c *Compiler) narrowOnce(root ast.Node) (bool, error) {
	changed := false
	var failure error
	ast.Walk(root, func(n ast.Node) bool {
		if failure != nil {
			return false
		}
		ch, err := n.Narrow()
		if err != nil {
			failure = err
			return false
		}
		changed = changed || ch
		return true
	})
	return changed, failure
}

// firstUnresolved returns a node whose type is still undetermined, or nil.
func firstUnresolved(root ast.Node) ast.Node {
	var found ast.Node
	ast.Walk(root, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		if n.ReturnType() == types.Undefined {
			found = n
			return false
		}
		return true
	})
	return found
}

// defaultType fixes a node whose candidates never collapsed. Numeric wins
// when available (a bare `a + b` becomes floating arithmetic), then String.
// Anything else is genuinely ambiguous and reported as unresolved.
func defaultType(n ast.Node) error {
	candidates := n.Candidates()
	switch {
	case candidates.Has(types.Numeric):
		return n.DetermineStrongly(types.Numeric)
	case candidates.Has(types.String):
		return n.DetermineStrongly(types.String)
	default:
		return types.Errorf(types.ErrUnresolvedType,
			"type could not be resolved, candidates %s remain", candidates).WithNode(n.Label())
	}
}

// Simplify folds every fully constant subtree into a literal and returns
// the (possibly replaced) root. The tree must be Resolved. Simplify is
// idempotent; the recursion reaches a fixed point in one pass because
// folding is bottom-up.
func (c *Compiler) Simplify(root ast.Node) (ast.Node, error) {
	if root == nil {
		return nil, types.Errorf(types.ErrNilOperand, "cannot simplify a nil tree")
	}
	return root.Simplify(), nil
}

// Compile performs the Resolved -> Compiled transition for one tolerance
// descriptor. A nil tolerance compiles exact semantics.
func (c *Compiler) Compile(root ast.Node, tol *types.Tolerance) (*Artifact, error) {
	if root == nil {
		return nil, types.Errorf(types.ErrNilOperand, "cannot compile a nil tree")
	}
	if depth := ast.Depth(root); depth > c.maxDepth {
		return nil, types.Errorf(types.ErrDepthExceeded,
			"tree depth %d exceeds limit %d", depth, c.maxDepth)
	}
	run, err := root.Expression(tol)
	if err != nil {
		return nil, err
	}
	runString, err := root.StringExpression(tol)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("compiled", "type", root.ReturnType(), "tolerance", tol.Key())
	return &Artifact{
		run:        run,
		runString:  runString,
		returnType: root.ReturnType(),
		tolerance:  tol,
	}, nil
}

// Build runs the whole pipeline on a Raw tree: Resolve, Simplify, Compile.
// It returns the simplified root alongside the artifact so the caller can
// keep it for cloning or further compilations.
func (c *Compiler) Build(root ast.Node, tol *types.Tolerance) (ast.Node, *Artifact, error) {
	if err := c.Resolve(root); err != nil {
		return nil, nil, err
	}
	root, err := c.Simplify(root)
	if err != nil {
		return nil, nil, err
	}
	artifact, err := c.Compile(root, tol)
	if err != nil {
		return nil, nil, err
	}
	return root, artifact, nil
}
