// Package ast implements the node hierarchy of the formula engine.
//
// A parsed formula is a tree of [Node] values. The tree moves through three
// states:
//
//   - Raw: fresh from the parser, types possibly undetermined
//   - Resolved: type inference has converged; every reachable node carries a
//     concrete [types.ValueType]
//   - Compiled: an executable [Computation] has been generated from the tree
//
// Type inference is bidirectional and monotonic. Leaves propose candidate
// sets upward; operators and functions push constraints downward through
// DetermineStrongly and DetermineWeakly. A strong determination never changes
// once fixed; a weak determination only removes candidates. When a candidate
// set collapses to a single type the node is implicitly fixed strongly; when
// it becomes empty the node raises a type conflict.
//
// A tree is mutable only during inference and the one-time Simplify pass.
// Compiled computations are stateless with respect to the tree and are safe
// for concurrent invocation. Call sites that need independent parameter
// bindings must DeepClone the tree per call site before compiling.
package ast

import (
	"encoding/base64"
	"strconv"

	"github.com/sandrolain/goformula/pkg/types"
)

// Computation is the executable form of a node: invoking it with an
// environment produces the node's runtime value (int64, float64, bool,
// string or []byte).
type Computation func(env *Env) (interface{}, error)

// StringComputation is the executable form whose result is always a textual
// rendering of the node's value.
type StringComputation func(env *Env) (string, error)

// Node is the contract every AST variant implements.
type Node interface {
	// Label identifies the node in error messages ("min", "+", `parameter "x"`).
	Label() string

	// IsConstant reports whether the node is computable with no external
	// input.
	IsConstant() bool

	// IsTolerant reports whether the compiled form meaningfully participates
	// in tolerant comparison. Most nodes delegate to their operands.
	IsTolerant() bool

	// ReturnType is the concrete result classification, or types.Undefined
	// while inference has not converged for this node.
	ReturnType() types.ValueType

	// Candidates is the set of types the node could still resolve to.
	Candidates() types.TypeSet

	// Operands returns the node's children. The returned slice must not be
	// mutated by the caller.
	Operands() []Node

	// DetermineStrongly fixes the node's type. Fixing an already-fixed node
	// to the same type is a no-op; to a different type it is a type
	// conflict.
	DetermineStrongly(t types.ValueType) error

	// DetermineWeakly intersects the node's candidate set with set. A
	// collapse to one candidate behaves as an implicit DetermineStrongly;
	// an empty intersection is a type conflict.
	DetermineWeakly(set types.TypeSet) error

	// Narrow performs one local inference step: it pushes constraints into
	// the operands and pulls the operand types back into the node. It
	// reports whether anything narrowed. The compiler drives Narrow to a
	// fixpoint.
	Narrow() (bool, error)

	// DeepClone returns a structurally identical, independently owned copy
	// of the subtree. Operands are cloned through the same context so that
	// parameters aliased within one tree stay aliased in the clone. It
	// never mutates the receiver.
	DeepClone(ctx *CloneContext) Node

	// Simplify returns the receiver or a strictly simpler replacement: when
	// every operand is constant the node is evaluated eagerly and replaced
	// by a constant. Simplify is idempotent.
	Simplify() Node

	// Expression generates the executable form. A nil tolerance selects
	// exact semantics; nodes without tolerant semantics ignore it.
	Expression(tol *types.Tolerance) (Computation, error)

	// StringExpression generates the executable form whose result is the
	// textual rendering of the node's value.
	StringExpression(tol *types.Tolerance) (StringComputation, error)
}

// Walk traverses the subtree rooted at n in preorder. If fn returns false
// the operands of the current node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, op := range n.Operands() {
		Walk(op, fn)
	}
}

// Depth returns the height of the subtree rooted at n.
func Depth(n Node) int {
	if n == nil {
		return 0
	}
	max := 0
	for _, op := range n.Operands() {
		if d := Depth(op); d > max {
			max = d
		}
	}
	return max + 1
}

// Env holds the call-time parameter bindings of one invocation. Bindings
// passed here take precedence over the default bindings held by the
// parameter nodes themselves.
type Env struct {
	vars map[string]interface{}
}

// NewEnv creates an environment from a bindings map. A nil map yields an
// empty environment.
func NewEnv(bindings map[string]interface{}) *Env {
	return &Env{vars: bindings}
}

// Lookup returns the call-time binding for name.
func (e *Env) Lookup(name string) (interface{}, bool) {
	if e == nil || e.vars == nil {
		return nil, false
	}
	v, ok := e.vars[name]
	return v, ok
}

// emptyEnv is used by constant folding, which by definition needs no
// external input.
var emptyEnv = &Env{}

// CloneContext is the transient state of one DeepClone traversal. It maps
// original parameter identity to cloned identity so that two references to
// the same parameter remain references to the same (cloned) parameter.
//
// A context is single-use: create a fresh one per traversal.
type CloneContext struct {
	params map[*Parameter]*Parameter
}

// NewCloneContext creates an empty cloning context.
func NewCloneContext() *CloneContext {
	return &CloneContext{params: make(map[*Parameter]*Parameter)}
}

// cloneOf returns the clone registered for p, creating it via make on first
// sight.
func (c *CloneContext) cloneOf(p *Parameter, make func() *Parameter) *Parameter {
	if clone, ok := c.params[p]; ok {
		return clone
	}
	clone := make()
	c.params[p] = clone
	return clone
}

// typed is the shared typing state embedded by every node variant. It
// implements the monotonic strong/weak determination protocol.
type typed struct {
	candidates types.TypeSet
	fixed      types.ValueType
}

func newTyped(candidates types.TypeSet) typed {
	t := typed{candidates: candidates}
	if v, ok := candidates.Single(); ok {
		t.fixed = v
	}
	return t
}

// ReturnType implements Node.
func (t *typed) ReturnType() types.ValueType {
	return t.fixed
}

// Candidates implements Node.
func (t *typed) Candidates() types.TypeSet {
	if t.fixed != types.Undefined {
		return t.fixed.Set()
	}
	return t.candidates
}

// fixStrongly fixes the type, reporting whether the state changed. label is
// used for error attribution.
func (t *typed) fixStrongly(label string, v types.ValueType) (bool, error) {
	if v == types.Undefined {
		return false, types.Errorf(types.ErrTypeConflict, "cannot fix type to undefined").WithNode(label)
	}
	if t.fixed != types.Undefined {
		if t.fixed == v {
			return false, nil
		}
		return false, types.Errorf(types.ErrTypeConflict,
			"type already fixed to %s, cannot re-fix to %s", t.fixed, v).WithNode(label)
	}
	if !t.candidates.Has(v) {
		return false, types.Errorf(types.ErrTypeConflict,
			"type %s is not among candidates %s", v, t.candidates).WithNode(label)
	}
	t.fixed = v
	t.candidates = v.Set()
	return true, nil
}

// narrowWeakly intersects the candidate set, collapsing to a strong fix when
// a single candidate remains.
func (t *typed) narrowWeakly(label string, set types.TypeSet) (bool, error) {
	if t.fixed != types.Undefined {
		if set.Has(t.fixed) {
			return false, nil
		}
		return false, types.Errorf(types.ErrEmptyCandidates,
			"fixed type %s excluded by constraint %s", t.fixed, set).WithNode(label)
	}
	next := t.candidates.Intersect(set)
	if next.Empty() {
		return false, types.Errorf(types.ErrEmptyCandidates,
			"candidates %s and constraint %s have no common type", t.candidates, set).WithNode(label)
	}
	changed := next != t.candidates
	t.candidates = next
	if v, ok := next.Single(); ok && t.fixed == types.Undefined {
		t.fixed = v
		changed = true
	}
	return changed, nil
}

// determineOperandWeakly pushes a weak constraint into an operand and
// reports whether the operand narrowed.
func determineOperandWeakly(op Node, set types.TypeSet) (bool, error) {
	before := op.Candidates()
	if err := op.DetermineWeakly(set); err != nil {
		return false, err
	}
	return op.Candidates() != before, nil
}

// determineOperandStrongly pushes a strong constraint into an operand and
// reports whether the operand narrowed.
func determineOperandStrongly(op Node, v types.ValueType) (bool, error) {
	before := op.Candidates()
	if err := op.DetermineStrongly(v); err != nil {
		return false, err
	}
	return op.Candidates() != before, nil
}

// anyTolerant reports whether any of the nodes participates in tolerant
// comparison.
func anyTolerant(nodes ...Node) bool {
	for _, n := range nodes {
		if n.IsTolerant() {
			return true
		}
	}
	return false
}

// allConstant reports whether every node is compile-time constant.
func allConstant(nodes ...Node) bool {
	for _, n := range nodes {
		if !n.IsConstant() {
			return false
		}
	}
	return true
}

// fold evaluates a fully constant, fully typed node through its own compiled
// form and replaces it with the resulting constant. Nodes that are not
// constant, not yet typed, or whose evaluation fails (for instance a
// division by zero, which stays a run-time concern) are returned unchanged.
//
// Routing the fold through Expression keeps the folded value bit-identical
// to what the compiled artifact would have produced.
func fold(n Node) Node {
	if !n.IsConstant() || n.ReturnType() == types.Undefined {
		return n
	}
	fn, err := n.Expression(nil)
	if err != nil {
		return n
	}
	v, err := fn(emptyEnv)
	if err != nil {
		return n
	}
	c, err := NewTypedConstant(n.ReturnType(), v)
	if err != nil {
		return n
	}
	return c
}

// renderString produces the canonical textual rendering of a runtime value.
func renderString(v interface{}) (string, error) {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case string:
		return x, nil
	case []byte:
		return base64.StdEncoding.EncodeToString(x), nil
	default:
		return "", types.Errorf(types.ErrUnsupportedOperands, "value %v has no textual rendering", v)
	}
}

// stringFromExpression derives a StringComputation from a node's value
// computation. Variants without a native textual form use this.
func stringFromExpression(n Node, tol *types.Tolerance) (StringComputation, error) {
	fn, err := n.Expression(tol)
	if err != nil {
		return nil, err
	}
	return func(env *Env) (string, error) {
		v, err := fn(env)
		if err != nil {
			return "", err
		}
		return renderString(v)
	}, nil
}

// requireResolved guards codegen: a correctly Resolved tree never trips it.
func requireResolved(n Node) error {
	if n.ReturnType() == types.Undefined {
		return types.Errorf(types.ErrNotResolved,
			"cannot generate an expression for a node with undetermined type").WithNode(n.Label())
	}
	return nil
}

// asKind converts a freshly computed numeric value to the representation the
// node resolved to. A subtree can compute integrally while the node itself
// resolved to numeric (for instance when a parent fixed it), so the final
// representation follows the resolved type, not the operand kinds.
func asKind(v interface{}, kind types.ValueType) interface{} {
	switch kind {
	case types.Numeric:
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	case types.Integer:
		if f, ok := v.(float64); ok {
			return int64(f)
		}
	}
	return v
}
