package types_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sandrolain/goformula/pkg/types"
)

func TestErrorMessageCarriesCodeAndPosition(t *testing.T) {
	err := types.NewError(types.ErrSyntaxError, "unexpected token", 12)
	msg := err.Error()
	if !strings.Contains(msg, "S0201") {
		t.Fatalf("message %q is missing the code", msg)
	}
	if !strings.Contains(msg, "position 12") {
		t.Fatalf("message %q is missing the position", msg)
	}
}

func TestErrorWithNode(t *testing.T) {
	err := types.Errorf(types.ErrTypeConflict, "boom").WithNode("min")
	if !strings.Contains(err.Error(), "(min)") {
		t.Fatalf("message %q is missing the node label", err.Error())
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := types.Errorf(types.ErrBadBinding, "wrapper").WithCause(cause)
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause should be reachable through errors.Is")
	}
}

func TestErrorClassPredicates(t *testing.T) {
	tests := []struct {
		err  error
		pred func(error) bool
		want bool
	}{
		{types.Errorf(types.ErrTypeConflict, "x"), types.IsTypeConflict, true},
		{types.Errorf(types.ErrEmptyCandidates, "x"), types.IsTypeConflict, true},
		{types.Errorf(types.ErrSyntaxError, "x"), types.IsTypeConflict, false},
		{types.Errorf(types.ErrSyntaxError, "x"), types.IsSyntaxError, true},
		{types.Errorf(types.ErrNilOperand, "x"), types.IsInvalidArgument, true},
		{types.Errorf(types.ErrNotResolved, "x"), types.IsCompileError, true},
		{errors.New("plain"), types.IsTypeConflict, false},
	}
	for i, tt := range tests {
		if got := tt.pred(tt.err); got != tt.want {
			t.Fatalf("case %d: predicate = %t, expected %t for %v", i, got, tt.want, tt.err)
		}
	}
}

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", types.Errorf(types.ErrTypeConflict, "inner"))
	if !types.IsTypeConflict(err) {
		t.Fatal("predicate should unwrap fmt-wrapped errors")
	}
}
