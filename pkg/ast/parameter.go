package ast

import (
	"fmt"

	"github.com/sandrolain/goformula/pkg/guard"
	"github.com/sandrolain/goformula/pkg/numeric"
	"github.com/sandrolain/goformula/pkg/types"
)

// Parameter is a named input slot. It is the one node kind that may
// legitimately be referenced from multiple sites within a single tree:
// the parser reuses one Parameter per distinct name, so rebinding it is
// visible at every usage site. DeepClone preserves that aliasing through
// the cloning context.
//
// A parameter may carry a default binding (set with Bind); call-time
// bindings passed through the environment take precedence.
type Parameter struct {
	typed
	name  string
	value interface{}
	bound bool
}

// NewParameter creates an unbound parameter with the full candidate set.
func NewParameter(name string) (*Parameter, error) {
	if err := guard.Require(name != "", "parameter", "name must not be empty"); err != nil {
		return nil, err
	}
	return &Parameter{typed: newTyped(types.AnyType), name: name}, nil
}

// Name returns the parameter's name.
func (p *Parameter) Name() string { return p.name }

// Bind sets the parameter's default binding. The value is normalized to the
// engine's runtime representation but not type-checked until invocation, so
// a Raw tree can be bound before inference runs.
func (p *Parameter) Bind(v interface{}) {
	p.value = numeric.Normalize(v)
	p.bound = true
}

// Unbind removes the default binding.
func (p *Parameter) Unbind() {
	p.value = nil
	p.bound = false
}

// Binding returns the default binding, if any.
func (p *Parameter) Binding() (interface{}, bool) {
	return p.value, p.bound
}

// Label implements Node.
func (p *Parameter) Label() string {
	return fmt.Sprintf("parameter %q", p.name)
}

// IsConstant implements Node. A parameter always needs external input; a
// default binding is a default, not a compile-time constant.
func (p *Parameter) IsConstant() bool { return false }

// IsTolerant implements Node.
func (p *Parameter) IsTolerant() bool { return false }

// Operands implements Node.
func (p *Parameter) Operands() []Node { return nil }

// DetermineStrongly implements Node.
func (p *Parameter) DetermineStrongly(t types.ValueType) error {
	_, err := p.fixStrongly(p.Label(), t)
	return err
}

// DetermineWeakly implements Node.
func (p *Parameter) DetermineWeakly(set types.TypeSet) error {
	_, err := p.narrowWeakly(p.Label(), set)
	return err
}

// Narrow implements Node. A parameter is a leaf; its type is narrowed only
// by the operators referencing it.
func (p *Parameter) Narrow() (bool, error) { return false, nil }

// DeepClone implements Node. All references to one parameter resolve to the
// same clone through the context.
func (p *Parameter) DeepClone(ctx *CloneContext) Node {
	return ctx.cloneOf(p, func() *Parameter {
		clone := *p
		return &clone
	})
}

// Simplify implements Node.
func (p *Parameter) Simplify() Node { return p }

// Expression implements Node. The generated computation reads the call-time
// binding first, falls back to the default binding, and converts the value
// to the representation of the parameter's resolved type.
func (p *Parameter) Expression(_ *types.Tolerance) (Computation, error) {
	if err := requireResolved(p); err != nil {
		return nil, err
	}
	kind := p.ReturnType()
	return func(env *Env) (interface{}, error) {
		v, ok := env.Lookup(p.name)
		if ok {
			v = numeric.Normalize(v)
		} else {
			v, ok = p.value, p.bound
		}
		if !ok {
			return nil, types.Errorf(types.ErrUnboundParameter,
				"parameter %q has no binding", p.name)
		}
		return convertBinding(p.name, kind, v)
	}, nil
}

// StringExpression implements Node.
func (p *Parameter) StringExpression(tol *types.Tolerance) (StringComputation, error) {
	return stringFromExpression(p, tol)
}

// convertBinding converts a bound value to the runtime representation of the
// parameter's resolved type.
func convertBinding(name string, kind types.ValueType, v interface{}) (interface{}, error) {
	switch kind {
	case types.Numeric:
		f, err := numeric.ToFloat(v)
		if err != nil {
			return nil, badBinding(name, kind, v)
		}
		return f, nil
	case types.Integer:
		i, err := numeric.ToInt(v)
		if err != nil {
			return nil, badBinding(name, kind, v)
		}
		return i, nil
	case types.Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case types.String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case types.Binary:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	}
	return nil, badBinding(name, kind, v)
}

func badBinding(name string, kind types.ValueType, v interface{}) error {
	return types.Errorf(types.ErrBadBinding,
		"parameter %q resolved to %s, binding %v (%T) does not fit", name, kind, v, v)
}
