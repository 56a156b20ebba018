package ast

import (
	"github.com/sandrolain/goformula/pkg/guard"
	"github.com/sandrolain/goformula/pkg/numeric"
	"github.com/sandrolain/goformula/pkg/types"
)

// arithOp describes one binary arithmetic operator. The boilerplate —
// constructor validation, inference, cloning, folding, codegen dispatch —
// is written once on binaryArith and specialized per operator here.
type arithOp struct {
	symbol     string
	intOnly    bool // operands and result are Integer (modulo)
	floatOnly  bool // result is always Numeric (divide)
	stringable bool // operands may resolve to strings (addition concatenates)
	intFn      func(a, b int64) (int64, error)
	floatFn    func(a, b float64) (float64, error)
}

var (
	addOp = arithOp{
		symbol:     "+",
		stringable: true,
		intFn:      func(a, b int64) (int64, error) { return a + b, nil },
		floatFn:    func(a, b float64) (float64, error) { return a + b, nil },
	}
	subtractOp = arithOp{
		symbol:  "-",
		intFn:   func(a, b int64) (int64, error) { return a - b, nil },
		floatFn: func(a, b float64) (float64, error) { return a - b, nil },
	}
	multiplyOp = arithOp{
		symbol:  "*",
		intFn:   func(a, b int64) (int64, error) { return a * b, nil },
		floatFn: func(a, b float64) (float64, error) { return a * b, nil },
	}
	divideOp = arithOp{
		symbol:    "/",
		floatOnly: true,
		floatFn: func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, types.Errorf(types.ErrDivisionByZero, "division by zero")
			}
			return a / b, nil
		},
	}
	moduloOp = arithOp{
		symbol:  "%",
		intOnly: true,
		intFn: func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, types.Errorf(types.ErrDivisionByZero, "modulo by zero")
			}
			return a % b, nil
		},
	}
)

// binaryArith is the shared implementation of the binary arithmetic
// operators.
type binaryArith struct {
	typed
	op       arithOp
	lhs, rhs Node
}

func newBinaryArith(op arithOp, lhs, rhs Node) (*binaryArith, error) {
	if err := guard.NotNil("lhs", lhs); err != nil {
		return nil, err
	}
	if err := guard.NotNil("rhs", rhs); err != nil {
		return nil, err
	}
	candidates := types.NumberTypes
	if op.intOnly {
		candidates = types.Integer.Set()
	} else if op.floatOnly {
		candidates = types.Numeric.Set()
	}
	if op.stringable {
		candidates = candidates.Union(types.String.Set())
	}
	return &binaryArith{typed: newTyped(candidates), op: op, lhs: lhs, rhs: rhs}, nil
}

// NewAdd creates an addition node. Addition doubles as string concatenation:
// when the operands resolve to strings the node concatenates them instead.
func NewAdd(lhs, rhs Node) (Node, error) { return newBinaryArith(addOp, lhs, rhs) }

// NewSubtract creates a subtraction node.
func NewSubtract(lhs, rhs Node) (Node, error) { return newBinaryArith(subtractOp, lhs, rhs) }

// NewMultiply creates a multiplication node.
func NewMultiply(lhs, rhs Node) (Node, error) { return newBinaryArith(multiplyOp, lhs, rhs) }

// NewDivide creates a division node. Division is always floating.
func NewDivide(lhs, rhs Node) (Node, error) { return newBinaryArith(divideOp, lhs, rhs) }

// NewModulo creates a modulo node. Modulo is integral only.
func NewModulo(lhs, rhs Node) (Node, error) { return newBinaryArith(moduloOp, lhs, rhs) }

func (b *binaryArith) Label() string    { return b.op.symbol }
func (b *binaryArith) IsConstant() bool { return allConstant(b.lhs, b.rhs) }
func (b *binaryArith) IsTolerant() bool { return anyTolerant(b.lhs, b.rhs) }
func (b *binaryArith) Operands() []Node { return []Node{b.lhs, b.rhs} }

func (b *binaryArith) DetermineStrongly(t types.ValueType) error {
	_, err := b.fixStrongly(b.Label(), t)
	return err
}

func (b *binaryArith) DetermineWeakly(set types.TypeSet) error {
	_, err := b.narrowWeakly(b.Label(), set)
	return err
}

// Narrow pushes the operator's constraint into the operands and pulls the
// common kind back up: integral when both operands are integral, floating
// when either side is. Addition keeps String among its candidates until an
// operand commits to a numeric kind; one string operand turns the whole node
// into a concatenation.
func (b *binaryArith) Narrow() (bool, error) {
	changed := false
	opSet := types.NumberTypes
	if b.op.stringable && b.Candidates().Has(types.String) {
		opSet = opSet.Union(types.String.Set())
	}
	for _, op := range b.Operands() {
		var (
			ch  bool
			err error
		)
		if b.op.intOnly {
			ch, err = determineOperandStrongly(op, types.Integer)
		} else {
			ch, err = determineOperandWeakly(op, opSet)
		}
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}

	if b.op.intOnly || b.op.floatOnly {
		return changed, nil // own type fixed at construction
	}

	lt, rt := b.lhs.ReturnType(), b.rhs.ReturnType()
	switch {
	case lt == types.String || rt == types.String:
		ch, err := b.fixStrongly(b.Label(), types.String)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	case lt == types.Integer && rt == types.Integer:
		ch, err := b.fixStrongly(b.Label(), types.Integer)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	case lt == types.Numeric || rt == types.Numeric:
		ch, err := b.fixStrongly(b.Label(), types.Numeric)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	default:
		// Once an operand has dropped String from its candidates the node
		// cannot concatenate anymore.
		if b.op.stringable && b.Candidates().Has(types.String) &&
			(!b.lhs.Candidates().Has(types.String) || !b.rhs.Candidates().Has(types.String)) {
			ch, err := b.narrowWeakly(b.Label(), types.NumberTypes)
			if err != nil {
				return false, err
			}
			changed = changed || ch
		}
	}

	// The resolved result constrains the operands in turn: an integral sum
	// has integral operands, a concatenation has string operands.
	switch b.ReturnType() {
	case types.Integer:
		for _, op := range b.Operands() {
			ch, err := determineOperandStrongly(op, types.Integer)
			if err != nil {
				return false, err
			}
			changed = changed || ch
		}
	case types.String:
		for _, op := range b.Operands() {
			ch, err := determineOperandStrongly(op, types.String)
			if err != nil {
				return false, err
			}
			changed = changed || ch
		}
	}
	return changed, nil
}

func (b *binaryArith) DeepClone(ctx *CloneContext) Node {
	clone := *b
	clone.lhs = b.lhs.DeepClone(ctx)
	clone.rhs = b.rhs.DeepClone(ctx)
	return &clone
}

func (b *binaryArith) Simplify() Node {
	b.lhs = b.lhs.Simplify()
	b.rhs = b.rhs.Simplify()
	return fold(b)
}

func (b *binaryArith) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(b); err != nil {
		return nil, err
	}
	if b.ReturnType() == types.String {
		return b.concatExpression(tol)
	}
	lhs, err := b.lhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	rhs, err := b.rhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	op := b.op
	kind := b.ReturnType()
	return func(env *Env) (interface{}, error) {
		a, err := lhs(env)
		if err != nil {
			return nil, err
		}
		c, err := rhs(env)
		if err != nil {
			return nil, err
		}
		if op.floatOnly {
			af, err := numeric.ToFloat(a)
			if err != nil {
				return nil, err
			}
			bf, err := numeric.ToFloat(c)
			if err != nil {
				return nil, err
			}
			return op.floatFn(af, bf)
		}
		pair, err := numeric.Coerce(a, c)
		if err != nil {
			return nil, err
		}
		var v interface{}
		if pair.Integral {
			v, err = op.intFn(pair.AInt, pair.BInt)
		} else {
			v, err = op.floatFn(pair.AFloat, pair.BFloat)
		}
		if err != nil {
			return nil, err
		}
		return asKind(v, kind), nil
	}, nil
}

// concatExpression is the codegen path for an addition that resolved to
// string concatenation.
func (b *binaryArith) concatExpression(tol *types.Tolerance) (Computation, error) {
	lhs, err := b.lhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	rhs, err := b.rhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	return func(env *Env) (interface{}, error) {
		a, err := lhs(env)
		if err != nil {
			return nil, err
		}
		c, err := rhs(env)
		if err != nil {
			return nil, err
		}
		as, aok := a.(string)
		cs, cok := c.(string)
		if !aok || !cok {
			return nil, types.Errorf(types.ErrUnsupportedOperands,
				"concatenation on non-string operands").WithNode(b.Label())
		}
		return as + cs, nil
	}, nil
}

func (b *binaryArith) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(b, tol)
}
