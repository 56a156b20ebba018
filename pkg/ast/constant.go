package ast

import (
	"fmt"

	"github.com/sandrolain/goformula/pkg/types"
)

// Constant is a typed literal: the only node kind constant folding can
// produce, and the leaf every fully known subtree eventually collapses to.
type Constant struct {
	typed
	value interface{}
}

// NewInteger creates an integer constant.
func NewInteger(v int64) *Constant {
	return &Constant{typed: newTyped(types.Integer.Set()), value: v}
}

// NewNumber creates a floating-point constant.
func NewNumber(v float64) *Constant {
	return &Constant{typed: newTyped(types.Numeric.Set()), value: v}
}

// NewBoolean creates a boolean constant.
func NewBoolean(v bool) *Constant {
	return &Constant{typed: newTyped(types.Boolean.Set()), value: v}
}

// NewString creates a string constant.
func NewString(v string) *Constant {
	return &Constant{typed: newTyped(types.String.Set()), value: v}
}

// NewBinary creates a binary constant. The byte slice is not copied; the
// caller must not mutate it afterwards.
func NewBinary(v []byte) *Constant {
	return &Constant{typed: newTyped(types.Binary.Set()), value: v}
}

// NewTypedConstant creates a constant of an explicit type, validating that
// the runtime value matches the type's representation.
func NewTypedConstant(t types.ValueType, v interface{}) (*Constant, error) {
	ok := false
	switch t {
	case types.Integer:
		_, ok = v.(int64)
	case types.Numeric:
		_, ok = v.(float64)
	case types.Boolean:
		_, ok = v.(bool)
	case types.String:
		_, ok = v.(string)
	case types.Binary:
		_, ok = v.([]byte)
	}
	if !ok {
		return nil, types.Errorf(types.ErrInvalidArgument,
			"value %v (%T) is not a valid %s constant", v, v, t)
	}
	return &Constant{typed: newTyped(t.Set()), value: v}, nil
}

// Value returns the constant's runtime value.
func (c *Constant) Value() interface{} {
	return c.value
}

// Label implements Node.
func (c *Constant) Label() string {
	return fmt.Sprintf("constant %v", c.value)
}

// IsConstant implements Node.
func (c *Constant) IsConstant() bool { return true }

// IsTolerant implements Node. A lone constant never participates in tolerant
// comparison.
func (c *Constant) IsTolerant() bool { return false }

// Operands implements Node.
func (c *Constant) Operands() []Node { return nil }

// DetermineStrongly implements Node. A constant's type is fixed at
// construction, so only a confirmation of that type succeeds.
func (c *Constant) DetermineStrongly(t types.ValueType) error {
	_, err := c.fixStrongly(c.Label(), t)
	return err
}

// DetermineWeakly implements Node.
func (c *Constant) DetermineWeakly(set types.TypeSet) error {
	_, err := c.narrowWeakly(c.Label(), set)
	return err
}

// Narrow implements Node. A constant is a leaf with nothing to propagate.
func (c *Constant) Narrow() (bool, error) { return false, nil }

// DeepClone implements Node.
func (c *Constant) DeepClone(_ *CloneContext) Node {
	clone := *c
	return &clone
}

// Simplify implements Node. A constant is already in simplest form.
func (c *Constant) Simplify() Node { return c }

// Expression implements Node.
func (c *Constant) Expression(_ *types.Tolerance) (Computation, error) {
	v := c.value
	return func(*Env) (interface{}, error) { return v, nil }, nil
}

// StringExpression implements Node.
func (c *Constant) StringExpression(_ *types.Tolerance) (StringComputation, error) {
	s, err := renderString(c.value)
	if err != nil {
		return nil, err
	}
	return func(*Env) (string, error) { return s, nil }, nil
}
