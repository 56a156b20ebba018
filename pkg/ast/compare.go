package ast

import (
	"bytes"
	"strings"

	"github.com/sandrolain/goformula/pkg/guard"
	"github.com/sandrolain/goformula/pkg/numeric"
	"github.com/sandrolain/goformula/pkg/types"
)

// compareKind distinguishes the six comparison operators.
type compareKind uint8

const (
	compareEqual compareKind = iota
	compareNotEqual
	compareLess
	compareLessOrEqual
	compareGreater
	compareGreaterOrEqual
)

func (k compareKind) symbol() string {
	switch k {
	case compareEqual:
		return "="
	case compareNotEqual:
		return "!="
	case compareLess:
		return "<"
	case compareLessOrEqual:
		return "<="
	case compareGreater:
		return ">"
	default:
		return ">="
	}
}

// ordering reports whether the operator needs ordered operands (numbers or
// strings) rather than mere equality.
func (k compareKind) ordering() bool {
	return k >= compareLess
}

// Compare is the comparison operator family. It is the node kind that gives
// tolerant compilation its meaning: under a tolerance, numeric operands are
// equal within the epsilon window and strings are compared under the
// configured string mode. Tolerantly equal values are never Less/Greater,
// and always LessOrEqual/GreaterOrEqual.
type Compare struct {
	typed
	kind     compareKind
	lhs, rhs Node
}

func newCompare(kind compareKind, lhs, rhs Node) (Node, error) {
	if err := guard.NotNil("lhs", lhs); err != nil {
		return nil, err
	}
	if err := guard.NotNil("rhs", rhs); err != nil {
		return nil, err
	}
	return &Compare{typed: newTyped(types.Boolean.Set()), kind: kind, lhs: lhs, rhs: rhs}, nil
}

// NewEqual creates an equality comparison node.
func NewEqual(lhs, rhs Node) (Node, error) { return newCompare(compareEqual, lhs, rhs) }

// NewNotEqual creates an inequality comparison node.
func NewNotEqual(lhs, rhs Node) (Node, error) { return newCompare(compareNotEqual, lhs, rhs) }

// NewLess creates a strict less-than comparison node.
func NewLess(lhs, rhs Node) (Node, error) { return newCompare(compareLess, lhs, rhs) }

// NewLessOrEqual creates a less-or-equal comparison node.
func NewLessOrEqual(lhs, rhs Node) (Node, error) { return newCompare(compareLessOrEqual, lhs, rhs) }

// NewGreater creates a strict greater-than comparison node.
func NewGreater(lhs, rhs Node) (Node, error) { return newCompare(compareGreater, lhs, rhs) }

// NewGreaterOrEqual creates a greater-or-equal comparison node.
func NewGreaterOrEqual(lhs, rhs Node) (Node, error) {
	return newCompare(compareGreaterOrEqual, lhs, rhs)
}

func (c *Compare) Label() string { return c.kind.symbol() }

// IsConstant implements Node. A comparison never reports constant even over
// constant operands: its verdict depends on the tolerance each artifact is
// compiled with, and one simplified tree serves every artifact, so it must
// not be folded.
func (c *Compare) IsConstant() bool { return false }

// IsTolerant implements Node. A comparison is where tolerant semantics
// actually land, so it reports true regardless of its operands.
func (c *Compare) IsTolerant() bool { return true }

func (c *Compare) Operands() []Node { return []Node{c.lhs, c.rhs} }

func (c *Compare) DetermineStrongly(t types.ValueType) error {
	_, err := c.fixStrongly(c.Label(), t)
	return err
}

func (c *Compare) DetermineWeakly(set types.TypeSet) error {
	_, err := c.narrowWeakly(c.Label(), set)
	return err
}

// Narrow unifies the operand candidate sets. The two numeric kinds stay
// cross-comparable (an integer compares against a float through the coercion
// service), so when both sides can still be numbers the constraint pushed is
// the whole numeric set, not the plain intersection.
func (c *Compare) Narrow() (bool, error) {
	ls, rs := c.lhs.Candidates(), c.rhs.Candidates()
	var constraint types.TypeSet
	switch {
	case !ls.Intersect(types.NumberTypes).Empty() && !rs.Intersect(types.NumberTypes).Empty():
		constraint = ls.Intersect(rs).Union(types.NumberTypes.Intersect(ls.Union(rs)))
	default:
		constraint = ls.Intersect(rs)
	}
	if c.kind.ordering() {
		constraint = constraint.Intersect(types.NumberTypes.Union(types.String.Set()))
	}
	if constraint.Empty() {
		return false, types.Errorf(types.ErrEmptyCandidates,
			"operands %s and %s are not comparable", ls, rs).WithNode(c.Label())
	}
	changed := false
	for _, op := range c.Operands() {
		ch, err := determineOperandWeakly(op, constraint)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}
	return changed, nil
}

func (c *Compare) DeepClone(ctx *CloneContext) Node {
	clone := *c
	clone.lhs = c.lhs.DeepClone(ctx)
	clone.rhs = c.rhs.DeepClone(ctx)
	return &clone
}

// Simplify folds the operands but keeps the comparison itself in the tree;
// see IsConstant.
func (c *Compare) Simplify() Node {
	c.lhs = c.lhs.Simplify()
	c.rhs = c.rhs.Simplify()
	return c
}

func (c *Compare) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(c); err != nil {
		return nil, err
	}
	lt, rt := c.lhs.ReturnType(), c.rhs.ReturnType()
	lhs, err := c.lhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	rhs, err := c.rhs.Expression(tol)
	if err != nil {
		return nil, err
	}

	switch {
	case lt.IsNumber() && rt.IsNumber():
		return c.numericComparison(lhs, rhs, tol), nil
	case lt == types.String && rt == types.String:
		return c.stringComparison(lhs, rhs, tol), nil
	case lt == types.Boolean && rt == types.Boolean && !c.kind.ordering():
		return c.booleanComparison(lhs, rhs), nil
	case lt == types.Binary && rt == types.Binary && !c.kind.ordering():
		return c.binaryComparison(lhs, rhs), nil
	default:
		return nil, types.Errorf(types.ErrUnsupportedOperands,
			"cannot compare %s with %s", lt, rt).WithNode(c.Label())
	}
}

func (c *Compare) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(c, tol)
}

func (c *Compare) numericComparison(lhs, rhs Computation, tol *types.Tolerance) Computation {
	kind := c.kind
	return func(env *Env) (interface{}, error) {
		a, err := lhs(env)
		if err != nil {
			return nil, err
		}
		b, err := rhs(env)
		if err != nil {
			return nil, err
		}
		pair, err := numeric.Coerce(a, b)
		if err != nil {
			return nil, err
		}
		var equal, less bool
		if pair.Integral {
			equal = tol.EqualInts(pair.AInt, pair.BInt)
			less = pair.AInt < pair.BInt
		} else {
			equal = tol.EqualFloats(pair.AFloat, pair.BFloat)
			less = pair.AFloat < pair.BFloat
		}
		return verdict(kind, equal, less), nil
	}
}

func (c *Compare) stringComparison(lhs, rhs Computation, tol *types.Tolerance) Computation {
	kind := c.kind
	return func(env *Env) (interface{}, error) {
		a, err := lhs(env)
		if err != nil {
			return nil, err
		}
		b, err := rhs(env)
		if err != nil {
			return nil, err
		}
		as, aok := a.(string)
		bs, bok := b.(string)
		if !aok || !bok {
			return nil, types.Errorf(types.ErrUnsupportedOperands, "string comparison on non-string operands")
		}
		equal := tol.EqualStrings(as, bs)
		less := canonicalString(as, tol) < canonicalString(bs, tol)
		return verdict(kind, equal, less), nil
	}
}

func (c *Compare) booleanComparison(lhs, rhs Computation) Computation {
	kind := c.kind
	return func(env *Env) (interface{}, error) {
		a, err := lhs(env)
		if err != nil {
			return nil, err
		}
		b, err := rhs(env)
		if err != nil {
			return nil, err
		}
		equal := a == b
		return verdict(kind, equal, false), nil
	}
}

func (c *Compare) binaryComparison(lhs, rhs Computation) Computation {
	kind := c.kind
	return func(env *Env) (interface{}, error) {
		a, err := lhs(env)
		if err != nil {
			return nil, err
		}
		b, err := rhs(env)
		if err != nil {
			return nil, err
		}
		ab, aok := a.([]byte)
		bb, bok := b.([]byte)
		if !aok || !bok {
			return nil, types.Errorf(types.ErrUnsupportedOperands, "binary comparison on non-binary operands")
		}
		equal := bytes.Equal(ab, bb)
		return verdict(kind, equal, false), nil
	}
}

// canonicalString maps a string to the form the tolerance considers
// canonical, so that ordering agrees with tolerant equality.
func canonicalString(s string, tol *types.Tolerance) string {
	if tol == nil {
		return s
	}
	switch tol.Strings {
	case types.StringIgnoreCase:
		return strings.ToLower(s)
	case types.StringTrimSpace:
		return strings.TrimSpace(s)
	default:
		return s
	}
}

// verdict turns the (equal, less) pair into the operator's boolean result.
// Tolerant equality wins over strict ordering.
func verdict(kind compareKind, equal, less bool) bool {
	switch kind {
	case compareEqual:
		return equal
	case compareNotEqual:
		return !equal
	case compareLess:
		return less && !equal
	case compareLessOrEqual:
		return less || equal
	case compareGreater:
		return !less && !equal
	default: // compareGreaterOrEqual
		return !less || equal
	}
}
