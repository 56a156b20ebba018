package ast

import (
	"github.com/sandrolain/goformula/pkg/guard"
	"github.com/sandrolain/goformula/pkg/numeric"
	"github.com/sandrolain/goformula/pkg/types"
)

// Negate is the numeric sign-inversion operator. It preserves the numeric
// kind of its operand.
type Negate struct {
	typed
	operand Node
}

// NewNegate creates a numeric negation node.
func NewNegate(operand Node) (Node, error) {
	if err := guard.NotNil("operand", operand); err != nil {
		return nil, err
	}
	return &Negate{typed: newTyped(types.NumberTypes), operand: operand}, nil
}

func (n *Negate) Label() string    { return "unary -" }
func (n *Negate) IsConstant() bool { return n.operand.IsConstant() }
func (n *Negate) IsTolerant() bool { return n.operand.IsTolerant() }
func (n *Negate) Operands() []Node { return []Node{n.operand} }

func (n *Negate) DetermineStrongly(t types.ValueType) error {
	_, err := n.fixStrongly(n.Label(), t)
	return err
}

func (n *Negate) DetermineWeakly(set types.TypeSet) error {
	_, err := n.narrowWeakly(n.Label(), set)
	return err
}

// Narrow keeps the node's kind locked to its operand's kind, in both
// directions.
func (n *Negate) Narrow() (bool, error) {
	changed, err := determineOperandWeakly(n.operand, n.Candidates().Intersect(types.NumberTypes))
	if err != nil {
		return false, err
	}
	ch, err := n.narrowWeakly(n.Label(), n.operand.Candidates())
	if err != nil {
		return false, err
	}
	return changed || ch, nil
}

func (n *Negate) DeepClone(ctx *CloneContext) Node {
	clone := *n
	clone.operand = n.operand.DeepClone(ctx)
	return &clone
}

func (n *Negate) Simplify() Node {
	n.operand = n.operand.Simplify()
	return fold(n)
}

func (n *Negate) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(n); err != nil {
		return nil, err
	}
	operand, err := n.operand.Expression(tol)
	if err != nil {
		return nil, err
	}
	kind := n.ReturnType()
	return func(env *Env) (interface{}, error) {
		v, err := operand(env)
		if err != nil {
			return nil, err
		}
		switch kind {
		case types.Integer:
			i, err := numeric.ToInt(v)
			if err != nil {
				return nil, err
			}
			return -i, nil
		default:
			f, err := numeric.ToFloat(v)
			if err != nil {
				return nil, err
			}
			return -f, nil
		}
	}, nil
}

func (n *Negate) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(n, tol)
}

// Not is the boolean complement operator.
type Not struct {
	typed
	operand Node
}

// NewNot creates a boolean negation node.
func NewNot(operand Node) (Node, error) {
	if err := guard.NotNil("operand", operand); err != nil {
		return nil, err
	}
	return &Not{typed: newTyped(types.Boolean.Set()), operand: operand}, nil
}

func (n *Not) Label() string    { return "not" }
func (n *Not) IsConstant() bool { return n.operand.IsConstant() }
func (n *Not) IsTolerant() bool { return n.operand.IsTolerant() }
func (n *Not) Operands() []Node { return []Node{n.operand} }

func (n *Not) DetermineStrongly(t types.ValueType) error {
	_, err := n.fixStrongly(n.Label(), t)
	return err
}

func (n *Not) DetermineWeakly(set types.TypeSet) error {
	_, err := n.narrowWeakly(n.Label(), set)
	return err
}

func (n *Not) Narrow() (bool, error) {
	return determineOperandStrongly(n.operand, types.Boolean)
}

func (n *Not) DeepClone(ctx *CloneContext) Node {
	clone := *n
	clone.operand = n.operand.DeepClone(ctx)
	return &clone
}

func (n *Not) Simplify() Node {
	n.operand = n.operand.Simplify()
	return fold(n)
}

func (n *Not) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(n); err != nil {
		return nil, err
	}
	operand, err := n.operand.Expression(tol)
	if err != nil {
		return nil, err
	}
	return func(env *Env) (interface{}, error) {
		v, err := operand(env)
		if err != nil {
			return nil, err
		}
		b, ok := v.(bool)
		if !ok {
			return nil, types.Errorf(types.ErrUnsupportedOperands, "not: operand %v is not boolean", v)
		}
		return !b, nil
	}, nil
}

func (n *Not) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(n, tol)
}
