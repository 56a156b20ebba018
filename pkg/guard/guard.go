// Package guard provides shared guard-clause validation for node
// constructors.
//
// Every failure is an A1xxx invalid-argument error: a caller programming
// error that is surfaced immediately and never recovered from.
package guard

import "github.com/sandrolain/goformula/pkg/types"

// NotNil fails when v is nil. name is the argument name used in the error
// message.
func NotNil(name string, v interface{}) error {
	if v == nil {
		return types.Errorf(types.ErrNilOperand, "argument %q must not be nil", name)
	}
	return nil
}

// ArgCount fails when got does not match the arity want of the named
// operation.
func ArgCount(name string, want, got int) error {
	if want != got {
		return types.Errorf(types.ErrArgumentCount, "%s expects %d argument(s), got %d", name, want, got)
	}
	return nil
}

// Require fails with an invalid-argument error when cond is false.
func Require(cond bool, name, msg string) error {
	if !cond {
		return types.Errorf(types.ErrInvalidArgument, "%s: %s", name, msg)
	}
	return nil
}
