package ast

import (
	"math"
	"strings"

	"github.com/sandrolain/goformula/pkg/guard"
	"github.com/sandrolain/goformula/pkg/numeric"
	"github.com/sandrolain/goformula/pkg/types"
)

// The function node family is organized per arity/operand-type shape: the
// constructor validation, inference, cloning and dispatch boilerplate is
// written once per shape struct, and an op table entry specializes it per
// operation. Every numeric shape routes through the coercion service on both
// the folding path and the compiled path, so the two never diverge in
// precision.

// ── Numeric unary: Abs, Sqrt, Floor, Ceiling ───────────────────────────────

// numericUnaryOp specializes the (numeric)->numeric shape. Kind-preserving
// operations provide both an integral and a floating implementation;
// floatOnly operations (such as Sqrt) always resolve to Numeric.
type numericUnaryOp struct {
	name      string
	floatOnly bool
	intFn     func(int64) (int64, error)
	floatFn   func(float64) (float64, error)
}

var (
	absOp = numericUnaryOp{
		name: "abs",
		intFn: func(v int64) (int64, error) {
			if v < 0 {
				return -v, nil
			}
			return v, nil
		},
		floatFn: func(v float64) (float64, error) { return math.Abs(v), nil },
	}
	sqrtOp = numericUnaryOp{
		name:      "sqrt",
		floatOnly: true,
		floatFn: func(v float64) (float64, error) {
			if v < 0 {
				return 0, types.Errorf(types.ErrDomain, "sqrt of negative value %g", v)
			}
			return math.Sqrt(v), nil
		},
	}
	floorOp = numericUnaryOp{
		name:    "floor",
		intFn:   func(v int64) (int64, error) { return v, nil },
		floatFn: func(v float64) (float64, error) { return math.Floor(v), nil },
	}
	ceilingOp = numericUnaryOp{
		name:    "ceiling",
		intFn:   func(v int64) (int64, error) { return v, nil },
		floatFn: func(v float64) (float64, error) { return math.Ceil(v), nil },
	}
)

// NumericUnary is the (numeric)->numeric function node shape.
type NumericUnary struct {
	typed
	op      numericUnaryOp
	operand Node
}

func newNumericUnary(op numericUnaryOp, operand Node) (Node, error) {
	if err := guard.NotNil("operand", operand); err != nil {
		return nil, err
	}
	candidates := types.NumberTypes
	if op.floatOnly {
		candidates = types.Numeric.Set()
	}
	return &NumericUnary{typed: newTyped(candidates), op: op, operand: operand}, nil
}

// NewAbs creates an absolute-value node.
func NewAbs(operand Node) (Node, error) { return newNumericUnary(absOp, operand) }

// NewSqrt creates a square-root node. The result is always floating.
func NewSqrt(operand Node) (Node, error) { return newNumericUnary(sqrtOp, operand) }

// NewFloor creates a floor node.
func NewFloor(operand Node) (Node, error) { return newNumericUnary(floorOp, operand) }

// NewCeiling creates a ceiling node.
func NewCeiling(operand Node) (Node, error) { return newNumericUnary(ceilingOp, operand) }

func (n *NumericUnary) Label() string    { return n.op.name }
func (n *NumericUnary) IsConstant() bool { return n.operand.IsConstant() }
func (n *NumericUnary) IsTolerant() bool { return n.operand.IsTolerant() }
func (n *NumericUnary) Operands() []Node { return []Node{n.operand} }

func (n *NumericUnary) DetermineStrongly(t types.ValueType) error {
	_, err := n.fixStrongly(n.Label(), t)
	return err
}

func (n *NumericUnary) DetermineWeakly(set types.TypeSet) error {
	_, err := n.narrowWeakly(n.Label(), set)
	return err
}

func (n *NumericUnary) Narrow() (bool, error) {
	changed, err := determineOperandWeakly(n.operand, types.NumberTypes)
	if err != nil {
		return false, err
	}
	if n.op.floatOnly {
		return changed, nil // result kind fixed at construction
	}
	// Kind-preserving: node and operand mirror each other.
	ch, err := determineOperandWeakly(n.operand, n.Candidates())
	if err != nil {
		return false, err
	}
	changed = changed || ch
	ch, err = n.narrowWeakly(n.Label(), n.operand.Candidates())
	if err != nil {
		return false, err
	}
	return changed || ch, nil
}

func (n *NumericUnary) DeepClone(ctx *CloneContext) Node {
	clone := *n
	clone.operand = n.operand.DeepClone(ctx)
	return &clone
}

func (n *NumericUnary) Simplify() Node {
	n.operand = n.operand.Simplify()
	return fold(n)
}

func (n *NumericUnary) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(n); err != nil {
		return nil, err
	}
	operand, err := n.operand.Expression(tol)
	if err != nil {
		return nil, err
	}
	op := n.op
	kind := n.ReturnType()
	return func(env *Env) (interface{}, error) {
		v, err := operand(env)
		if err != nil {
			return nil, err
		}
		if kind == types.Integer {
			i, err := numeric.ToInt(v)
			if err != nil {
				return nil, err
			}
			r, err := op.intFn(i)
			if err != nil {
				return nil, err
			}
			return r, nil
		}
		f, err := numeric.ToFloat(v)
		if err != nil {
			return nil, err
		}
		r, err := op.floatFn(f)
		if err != nil {
			return nil, err
		}
		return r, nil
	}, nil
}

func (n *NumericUnary) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(n, tol)
}

// ── Numeric binary: Min, Max, Power ────────────────────────────────────────

// numericBinaryOp specializes the (numeric, numeric)->numeric shape. Both
// operands are coerced to one common representation first — integral when
// both are integral, floating otherwise — and the matching implementation
// runs against that representation.
type numericBinaryOp struct {
	name    string
	intFn   func(a, b int64) (int64, error)
	floatFn func(a, b float64) (float64, error)
}

var (
	minOp = numericBinaryOp{
		name: "min",
		intFn: func(a, b int64) (int64, error) {
			if a < b {
				return a, nil
			}
			return b, nil
		},
		floatFn: func(a, b float64) (float64, error) { return math.Min(a, b), nil },
	}
	maxOp = numericBinaryOp{
		name: "max",
		intFn: func(a, b int64) (int64, error) {
			if a > b {
				return a, nil
			}
			return b, nil
		},
		floatFn: func(a, b float64) (float64, error) { return math.Max(a, b), nil },
	}
	powerOp = numericBinaryOp{
		name: "power",
		intFn: func(a, b int64) (int64, error) {
			if b < 0 {
				return 0, types.Errorf(types.ErrDomain, "integral power with negative exponent %d", b)
			}
			r := int64(1)
			for ; b > 0; b-- {
				r *= a
			}
			return r, nil
		},
		floatFn: func(a, b float64) (float64, error) { return math.Pow(a, b), nil },
	}
)

// NumericBinary is the (numeric, numeric)->numeric function node shape.
type NumericBinary struct {
	typed
	op       numericBinaryOp
	lhs, rhs Node
}

func newNumericBinary(op numericBinaryOp, lhs, rhs Node) (Node, error) {
	if err := guard.NotNil("lhs", lhs); err != nil {
		return nil, err
	}
	if err := guard.NotNil("rhs", rhs); err != nil {
		return nil, err
	}
	return &NumericBinary{typed: newTyped(types.NumberTypes), op: op, lhs: lhs, rhs: rhs}, nil
}

// NewMin creates a minimum node.
func NewMin(lhs, rhs Node) (Node, error) { return newNumericBinary(minOp, lhs, rhs) }

// NewMax creates a maximum node.
func NewMax(lhs, rhs Node) (Node, error) { return newNumericBinary(maxOp, lhs, rhs) }

// NewPower creates an exponentiation node.
func NewPower(lhs, rhs Node) (Node, error) { return newNumericBinary(powerOp, lhs, rhs) }

func (n *NumericBinary) Label() string    { return n.op.name }
func (n *NumericBinary) IsConstant() bool { return allConstant(n.lhs, n.rhs) }
func (n *NumericBinary) IsTolerant() bool { return anyTolerant(n.lhs, n.rhs) }
func (n *NumericBinary) Operands() []Node { return []Node{n.lhs, n.rhs} }

func (n *NumericBinary) DetermineStrongly(t types.ValueType) error {
	_, err := n.fixStrongly(n.Label(), t)
	return err
}

func (n *NumericBinary) DetermineWeakly(set types.TypeSet) error {
	_, err := n.narrowWeakly(n.Label(), set)
	return err
}

func (n *NumericBinary) Narrow() (bool, error) {
	changed := false
	for _, op := range n.Operands() {
		ch, err := determineOperandWeakly(op, types.NumberTypes)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}
	lt, rt := n.lhs.ReturnType(), n.rhs.ReturnType()
	switch {
	case lt == types.Integer && rt == types.Integer:
		ch, err := n.fixStrongly(n.Label(), types.Integer)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	case lt == types.Numeric || rt == types.Numeric:
		ch, err := n.fixStrongly(n.Label(), types.Numeric)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}
	if n.ReturnType() == types.Integer {
		for _, op := range n.Operands() {
			ch, err := determineOperandStrongly(op, types.Integer)
			if err != nil {
				return false, err
			}
			changed = changed || ch
		}
	}
	return changed, nil
}

func (n *NumericBinary) DeepClone(ctx *CloneContext) Node {
	clone := *n
	clone.lhs = n.lhs.DeepClone(ctx)
	clone.rhs = n.rhs.DeepClone(ctx)
	return &clone
}

func (n *NumericBinary) Simplify() Node {
	n.lhs = n.lhs.Simplify()
	n.rhs = n.rhs.Simplify()
	return fold(n)
}

func (n *NumericBinary) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(n); err != nil {
		return nil, err
	}
	lhs, err := n.lhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	rhs, err := n.rhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	op := n.op
	kind := n.ReturnType()
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

func (n *NumericBinary) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(n, tol)
}

// ── Rounding: Round, Truncate ──────────────────────────────────────────────

// roundOp specializes the (numeric, integer)->numeric shape: a value and a
// digit count.
type roundOp struct {
	name string
	fn   func(v float64) float64 // applied after scaling by 10^digits
}

var (
	roundRoundOp = roundOp{name: "round", fn: math.Round}
	truncateOp   = roundOp{name: "truncate", fn: math.Trunc}
)

// Rounding is the (numeric, integer)->numeric function node shape: the
// first operand is the value, the second the number of decimal digits.
type Rounding struct {
	typed
	op            roundOp
	value, digits Node
}

func newRounding(op roundOp, value, digits Node) (Node, error) {
	if err := guard.NotNil("value", value); err != nil {
		return nil, err
	}
	if err := guard.NotNil("digits", digits); err != nil {
		return nil, err
	}
	return &Rounding{typed: newTyped(types.Numeric.Set()), op: op, value: value, digits: digits}, nil
}

// NewRound creates a node rounding its first operand to the number of
// decimal digits given by its second operand, half away from zero.
func NewRound(value, digits Node) (Node, error) { return newRounding(roundRoundOp, value, digits) }

// NewTruncate creates a node truncating its first operand to the number of
// decimal digits given by its second operand.
func NewTruncate(value, digits Node) (Node, error) { return newRounding(truncateOp, value, digits) }

func (r *Rounding) Label() string    { return r.op.name }
func (r *Rounding) IsConstant() bool { return allConstant(r.value, r.digits) }
func (r *Rounding) IsTolerant() bool { return anyTolerant(r.value, r.digits) }
func (r *Rounding) Operands() []Node { return []Node{r.value, r.digits} }

func (r *Rounding) DetermineStrongly(t types.ValueType) error {
	_, err := r.fixStrongly(r.Label(), t)
	return err
}

func (r *Rounding) DetermineWeakly(set types.TypeSet) error {
	_, err := r.narrowWeakly(r.Label(), set)
	return err
}

func (r *Rounding) Narrow() (bool, error) {
	changed, err := determineOperandWeakly(r.value, types.NumberTypes)
	if err != nil {
		return false, err
	}
	ch, err := determineOperandStrongly(r.digits, types.Integer)
	if err != nil {
		return false, err
	}
	return changed || ch, nil
}

func (r *Rounding) DeepClone(ctx *CloneContext) Node {
	clone := *r
	clone.value = r.value.DeepClone(ctx)
	clone.digits = r.digits.DeepClone(ctx)
	return &clone
}

func (r *Rounding) Simplify() Node {
	r.value = r.value.Simplify()
	r.digits = r.digits.Simplify()
	return fold(r)
}

func (r *Rounding) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(r); err != nil {
		return nil, err
	}
	value, err := r.value.Expression(tol)
	if err != nil {
		return nil, err
	}
	digits, err := r.digits.Expression(tol)
	if err != nil {
		return nil, err
	}
	op := r.op
	return func(env *Env) (interface{}, error) {
		v, err := value(env)
		if err != nil {
			return nil, err
		}
		d, err := digits(env)
		if err != nil {
			return nil, err
		}
		f, err := numeric.ToFloat(v)
		if err != nil {
			return nil, err
		}
		n, err := numeric.ToInt(d)
		if err != nil {
			return nil, err
		}
		scale := math.Pow(10, float64(n))
		return op.fn(f*scale) / scale, nil
	}, nil
}

func (r *Rounding) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(r, tol)
}

// ── String unary: Upper, Lower, Trim, Length ───────────────────────────────

// stringUnaryOp specializes the (string)->T shape.
type stringUnaryOp struct {
	name   string
	result types.ValueType
	fn     func(string) interface{}
}

var (
	upperOp = stringUnaryOp{
		name:   "upper",
		result: types.String,
		fn:     func(s string) interface{} { return strings.ToUpper(s) },
	}
	lowerOp = stringUnaryOp{
		name:   "lower",
		result: types.String,
		fn:     func(s string) interface{} { return strings.ToLower(s) },
	}
	trimOp = stringUnaryOp{
		name:   "trim",
		result: types.String,
		fn:     func(s string) interface{} { return strings.TrimSpace(s) },
	}
	lengthOp = stringUnaryOp{
		name:   "length",
		result: types.Integer,
		fn:     func(s string) interface{} { return int64(len([]rune(s))) },
	}
)

// StringUnary is the (string)->T function node shape.
type StringUnary struct {
	typed
	op      stringUnaryOp
	operand Node
}

func newStringUnary(op stringUnaryOp, operand Node) (Node, error) {
	if err := guard.NotNil("operand", operand); err != nil {
		return nil, err
	}
	return &StringUnary{typed: newTyped(op.result.Set()), op: op, operand: operand}, nil
}

// NewUpper creates an uppercasing node.
func NewUpper(operand Node) (Node, error) { return newStringUnary(upperOp, operand) }

// NewLower creates a lowercasing node.
func NewLower(operand Node) (Node, error) { return newStringUnary(lowerOp, operand) }

// NewTrim creates a whitespace-trimming node.
func NewTrim(operand Node) (Node, error) { return newStringUnary(trimOp, operand) }

// NewLength creates a node counting the characters of its operand.
func NewLength(operand Node) (Node, error) { return newStringUnary(lengthOp, operand) }

func (s *StringUnary) Label() string    { return s.op.name }
func (s *StringUnary) IsConstant() bool { return s.operand.IsConstant() }
func (s *StringUnary) IsTolerant() bool { return s.operand.IsTolerant() }
func (s *StringUnary) Operands() []Node { return []Node{s.operand} }

func (s *StringUnary) DetermineStrongly(t types.ValueType) error {
	_, err := s.fixStrongly(s.Label(), t)
	return err
}

func (s *StringUnary) DetermineWeakly(set types.TypeSet) error {
	_, err := s.narrowWeakly(s.Label(), set)
	return err
}

func (s *StringUnary) Narrow() (bool, error) {
	return determineOperandStrongly(s.operand, types.String)
}

func (s *StringUnary) DeepClone(ctx *CloneContext) Node {
	clone := *s
	clone.operand = s.operand.DeepClone(ctx)
	return &clone
}

func (s *StringUnary) Simplify() Node {
	s.operand = s.operand.Simplify()
	return fold(s)
}

func (s *StringUnary) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(s); err != nil {
		return nil, err
	}
	operand, err := s.operand.Expression(tol)
	if err != nil {
		return nil, err
	}
	op := s.op
	return func(env *Env) (interface{}, error) {
		v, err := operand(env)
		if err != nil {
			return nil, err
		}
		str, ok := v.(string)
		if !ok {
			return nil, types.Errorf(types.ErrUnsupportedOperands, "%s: operand %v is not a string", op.name, v)
		}
		return op.fn(str), nil
	}, nil
}

func (s *StringUnary) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(s, tol)
}

// ── String binary: Contains, StartsWith, EndsWith ──────────────────────────

// stringBinaryOp specializes the (string, string)->boolean shape.
type stringBinaryOp struct {
	name string
	fn   func(a, b string) bool
}

var (
	containsOp   = stringBinaryOp{name: "contains", fn: strings.Contains}
	startsWithOp = stringBinaryOp{name: "startswith", fn: strings.HasPrefix}
	endsWithOp   = stringBinaryOp{name: "endswith", fn: strings.HasSuffix}
)

// StringBinary is the (string, string)->boolean function node shape.
type StringBinary struct {
	typed
	op       stringBinaryOp
	lhs, rhs Node
}

func newStringBinary(op stringBinaryOp, lhs, rhs Node) (Node, error) {
	if err := guard.NotNil("lhs", lhs); err != nil {
		return nil, err
	}
	if err := guard.NotNil("rhs", rhs); err != nil {
		return nil, err
	}
	return &StringBinary{typed: newTyped(types.Boolean.Set()), op: op, lhs: lhs, rhs: rhs}, nil
}

// NewContains creates a substring-test node.
func NewContains(lhs, rhs Node) (Node, error) { return newStringBinary(containsOp, lhs, rhs) }

// NewStartsWith creates a prefix-test node.
func NewStartsWith(lhs, rhs Node) (Node, error) { return newStringBinary(startsWithOp, lhs, rhs) }

// NewEndsWith creates a suffix-test node.
func NewEndsWith(lhs, rhs Node) (Node, error) { return newStringBinary(endsWithOp, lhs, rhs) }

func (s *StringBinary) Label() string    { return s.op.name }
func (s *StringBinary) IsConstant() bool { return allConstant(s.lhs, s.rhs) }
func (s *StringBinary) IsTolerant() bool { return anyTolerant(s.lhs, s.rhs) }
func (s *StringBinary) Operands() []Node { return []Node{s.lhs, s.rhs} }

func (s *StringBinary) DetermineStrongly(t types.ValueType) error {
	_, err := s.fixStrongly(s.Label(), t)
	return err
}

func (s *StringBinary) DetermineWeakly(set types.TypeSet) error {
	_, err := s.narrowWeakly(s.Label(), set)
	return err
}

func (s *StringBinary) Narrow() (bool, error) {
	changed := false
	for _, op := range s.Operands() {
		ch, err := determineOperandStrongly(op, types.String)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}
	return changed, nil
}

func (s *StringBinary) DeepClone(ctx *CloneContext) Node {
	clone := *s
	clone.lhs = s.lhs.DeepClone(ctx)
	clone.rhs = s.rhs.DeepClone(ctx)
	return &clone
}

func (s *StringBinary) Simplify() Node {
	s.lhs = s.lhs.Simplify()
	s.rhs = s.rhs.Simplify()
	return fold(s)
}

func (s *StringBinary) Expression(tol *types.Tolerance) (Computation, error) {
	if err := requireResolved(s); err != nil {
		return nil, err
	}
	lhs, err := s.lhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	rhs, err := s.rhs.Expression(tol)
	if err != nil {
		return nil, err
	}
	op := s.op
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
			return nil, types.Errorf(types.ErrUnsupportedOperands, "%s: operands must be strings", op.name)
		}
		return op.fn(as, bs), nil
	}, nil
}

func (s *StringBinary) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(s, tol)
}
