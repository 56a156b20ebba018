package ast

import (
	"github.com/sandrolain/goformula/pkg/guard"
	"github.com/sandrolain/goformula/pkg/types"
)

// Concat is the string concatenation operator (&). Its operands may be any
// scalar kind; each is rendered through its string expression, so
// `"x = " & x` works for a numeric x.
type Concat struct {
	typed
	lhs, rhs Node
}

// NewConcat creates a concatenation node.
func NewConcat(lhs, rhs Node) (Node, error) {
	if err := guard.NotNil("lhs", lhs); err != nil {
		return nil, err
	}
	if err := guard.NotNil("rhs", rhs); err != nil {
		return nil, err
	}
	return &Concat{typed: newTyped(types.String.Set()), lhs: lhs, rhs: rhs}, nil
}

func (c *Concat) Label() string    { return "&" }
func (c *Concat) IsConstant() bool { return allConstant(c.lhs, c.rhs) }
func (c *Concat) IsTolerant() bool { return anyTolerant(c.lhs, c.rhs) }
func (c *Concat) Operands() []Node { return []Node{c.lhs, c.rhs} }

func (c *Concat) DetermineStrongly(t types.ValueType) error {
	_, err := c.fixStrongly(c.Label(), t)
	return err
}

func (c *Concat) DetermineWeakly(set types.TypeSet) error {
	_, err := c.narrowWeakly(c.Label(), set)
	return err
}

// Narrow restricts the operands to kinds that have a textual rendering.
func (c *Concat) Narrow() (bool, error) {
	changed := false
	for _, op := range c.Operands() {
		ch, err := determineOperandWeakly(op, types.ScalarTypes)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}
	return changed, nil
}

func (c *Concat) DeepClone(ctx *CloneContext) Node {
	clone := *c
	clone.lhs = c.lhs.DeepClone(ctx)
	clone.rhs = c.rhs.DeepClone(ctx)
	return &clone
}

func (c *Concat) Simplify() Node {
	c.lhs = c.lhs.Simplify()
	c.rhs = c.rhs.Simplify()
	return fold(c)
}

func (c *Concat) Expression(tol *types.Tolerance) (Computation, error) {
	fn, err := c.StringExpression(tol)
	if err != nil {
		return nil, err
	}
	return func(env *Env) (interface{}, error) {
		return fn(env)
	}, nil
}

func (c *Concat) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	if err := requireResolved(c); err != nil {
		return nil, err
	}
	lhs, err := c.lhs.StringExpression(tol)
	if err != nil {
		return nil, err
	}
	rhs, err := c.rhs.StringExpression(tol)
	if err != nil {
		return nil, err
	}
	return func(env *Env) (string, error) {
		a, err := lhs(env)
		if err != nil {
			return "", err
		}
		b, err := rhs(env)
		if err != nil {
			return "", err
		}
		return a + b, nil
	}, nil
}
