package ast

import (
	"github.com/sandrolain/goformula/pkg/guard"
	"github.com/sandrolain/goformula/pkg/types"
)

// Logical is the boolean conjunction/disjunction operator. The compiled
// form short-circuits: the right operand is not evaluated when the left one
// already decides the result.
type Logical struct {
	typed
	conjunction bool // true for "and", false for "or"
	lhs, rhs    Node
}

// NewAnd creates a boolean conjunction node.
func NewAnd(lhs, rhs Node) (Node, error) { return newLogical(true, lhs, rhs) }

// NewOr creates a boolean disjunction node.
func NewOr(lhs, rhs Node) (Node, error) { return newLogical(false, lhs, rhs) }

func newLogical(conjunction bool, lhs, rhs Node) (Node, error) {
	if err := guard.NotNil("lhs", lhs); err != nil {
		return nil, err
	}
	if err := guard.NotNil("rhs", rhs); err != nil {
		return nil, err
	}
	return &Logical{
		typed:       newTyped(types.Boolean.Set()),
		conjunction: conjunction,
		lhs:         lhs,
		rhs:         rhs,
	}, nil
}

func (l *Logical) Label() string {
	if l.conjunction {
		return "and"
	}
	return "or"
}

func (l *Logical) IsConstant() bool { return allConstant(l.lhs, l.rhs) }
func (l *Logical) IsTolerant() bool { return anyTolerant(l.lhs, l.rhs) }
func (l *Logical) Operands() []Node { return []Node{l.lhs, l.rhs} }

func (l *Logical) DetermineStrongly(t types.ValueType) error {
	_, err := l.fixStrongly(l.Label(), t)
	return err
}

func (l *Logical) DetermineWeakly(set types.TypeSet) error {
	_, err := l.narrowWeakly(l.Label(), set)
	return err
}

func (l *Logical) Narrow() (bool, error) {
	changed := false
	for _, op := range l.Operands() {
		ch, err := determineOperandStrongly(op, types.Boolean)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}
	return changed, nil
}

func (l *Logical) DeepClone(ctx *CloneContext) Node {
	clone := *l
	clone.lhs = l.lhs.DeepClone(ctx)
	clone.rhs = l.rhs.DeepClone(ctx)
	return &clone
}

func (l *Logical) Simplify() Node {
	l.lhs = l.lhs.Simplify()
	l.rhs = l.rhs.Simplify()
	return fold(l)
}

func (l *Logical) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(l); err != nil {
		return nil, err
	}
	lhs, err := l.lhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	rhs, err := l.rhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	conjunction := l.conjunction
	return func(env *Env) (interface{}, error) {
		a, err := lhs(env)
		if err != nil {
			return nil, err
		}
		ab, ok := a.(bool)
		if !ok {
			return nil, types.Errorf(types.ErrUnsupportedOperands, "logical operand %v is not boolean", a)
		}
		// Short-circuit
		if conjunction && !ab {
			return false, nil
		}
		if !conjunction && ab {
			return true, nil
		}
		b, err := rhs(env)
		if err != nil {
			return nil, err
		}
		bb, ok := b.(bool)
		if !ok {
			return nil, types.Errorf(types.ErrUnsupportedOperands, "logical operand %v is not boolean", b)
		}
		return bb, nil
	}, nil
}

func (l *Logical) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(l, tol)
}

// Conditional is the ternary if-then-else node. Its two branches are weakly
// unified so that the whole node has a single concrete result type.
type Conditional struct {
	typed
	cond, then, els Node
}

// NewConditional creates an if-then-else node.
func NewConditional(cond, then, els Node) (Node, error) {
	if err := guard.NotNil("condition", cond); err != nil {
		return nil, err
	}
	if err := guard.NotNil("then", then); err != nil {
		return nil, err
	}
	if err := guard.NotNil("else", els); err != nil {
		return nil, err
	}
	return &Conditional{typed: newTyped(types.AnyType), cond: cond, then: then, els: els}, nil
}

func (c *Conditional) Label() string    { return "if" }
func (c *Conditional) IsConstant() bool { return allConstant(c.cond, c.then, c.els) }
func (c *Conditional) IsTolerant() bool { return anyTolerant(c.cond, c.then, c.els) }
func (c *Conditional) Operands() []Node { return []Node{c.cond, c.then, c.els} }

func (c *Conditional) DetermineStrongly(t types.ValueType) error {
	_, err := c.fixStrongly(c.Label(), t)
	return err
}

func (c *Conditional) DetermineWeakly(set types.TypeSet) error {
	_, err := c.narrowWeakly(c.Label(), set)
	return err
}

// Narrow fixes the condition to boolean and unifies the branches with the
// node itself: the three candidate sets are intersected and pushed to all.
func (c *Conditional) Narrow() (bool, error) {
	changed, err := determineOperandStrongly(c.cond, types.Boolean)
	if err != nil {
		return false, err
	}
	common := c.Candidates().Intersect(c.then.Candidates()).Intersect(c.els.Candidates())
	if common.Empty() {
		return false, types.Errorf(types.ErrEmptyCandidates,
			"branches %s and %s have no common type", c.then.Candidates(), c.els.Candidates()).WithNode(c.Label())
	}
	for _, op := range []Node{c.then, c.els} {
		ch, err := determineOperandWeakly(op, common)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}
	ch, err := c.narrowWeakly(c.Label(), common)
	if err != nil {
		return false, err
	}
	return changed || ch, nil
}

func (c *Conditional) DeepClone(ctx *CloneContext) Node {
	clone := *c
	clone.cond = c.cond.DeepClone(ctx)
	clone.then = c.then.DeepClone(ctx)
	clone.els = c.els.DeepClone(ctx)
	return &clone
}

// Simplify folds the whole node when everything is constant, and prunes the
// dead branch when only the condition is.
func (c *Conditional) Simplify() Node {
	c.cond = c.cond.Simplify()
	c.then = c.then.Simplify()
	c.els = c.els.Simplify()
	if cond, ok := c.cond.(*Constant); ok {
		if b, ok := cond.Value().(bool); ok {
			if b {
				return c.then
			}
			return c.els
		}
	}
	return fold(c)
}

func (c *Conditional) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(c); err != nil {
		return nil, err
	}
	cond, err := c.cond.Expression(tol)
	if err != nil {
		return nil, err
	}
	then, err := c.then.Expression(tol)
	if err != nil {
		return nil, err
	}
	els, err := c.els.Expression(tol)
	if err != nil {
		return nil, err
	}
	kind := c.ReturnType()
	return func(env *Env) (interface{}, error) {
		v, err := cond(env)
		if err != nil {
			return nil, err
		}
		b, ok := v.(bool)
		if !ok {
			return nil, types.Errorf(types.ErrUnsupportedOperands, "condition %v is not boolean", v)
		}
		var r interface{}
		if b {
			r, err = then(env)
		} else {
			r, err = els(env)
		}
		if err != nil {
			return nil, err
		}
		return asKind(r, kind), nil
	}, nil
}

func (c *Conditional) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(c, tol)
}
