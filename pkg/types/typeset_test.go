package types_test

import (
	"testing"

	"github.com/sandrolain/goformula/pkg/types"
)

func TestValueTypeSet(t *testing.T) {
	all := []types.ValueType{
		types.Numeric, types.Integer, types.Boolean, types.String, types.Binary,
	}
	for _, vt := range all {
		set := vt.Set()
		if !set.Has(vt) {
			t.Fatalf("%s.Set() does not contain %s", vt, vt)
		}
		if got := set.Count(); got != 1 {
			t.Fatalf("%s.Set() has %d members, expected 1", vt, got)
		}
		single, ok := set.Single()
		if !ok || single != vt {
			t.Fatalf("%s.Set().Single() = %s, %t", vt, single, ok)
		}
	}
	if got := types.Undefined.Set(); got != types.NoTypes {
		t.Fatalf("Undefined.Set() = %s, expected empty", got)
	}
}

func TestValueTypeIsNumber(t *testing.T) {
	tests := []struct {
		vt   types.ValueType
		want bool
	}{
		{types.Numeric, true},
		{types.Integer, true},
		{types.Boolean, false},
		{types.String, false},
		{types.Binary, false},
		{types.Undefined, false},
	}
	for _, tt := range tests {
		if got := tt.vt.IsNumber(); got != tt.want {
			t.Fatalf("%s.IsNumber() = %t, expected %t", tt.vt, got, tt.want)
		}
	}
}

func TestTypeSetIntersect(t *testing.T) {
	got := types.NumberTypes.Intersect(types.Integer.Set())
	if got != types.Integer.Set() {
		t.Fatalf("NumberTypes ∩ {Integer} = %s", got)
	}
	if !types.NumberTypes.Intersect(types.String.Set()).Empty() {
		t.Fatal("NumberTypes ∩ {String} should be empty")
	}
}

func TestTypeSetUnion(t *testing.T) {
	got := types.Integer.Set().Union(types.Numeric.Set())
	if got != types.NumberTypes {
		t.Fatalf("{Integer} ∪ {Numeric} = %s, expected NumberTypes", got)
	}
	if got.Count() != 2 {
		t.Fatalf("expected 2 members, got %d", got.Count())
	}
}

func TestTypeSetSingleOnMultiple(t *testing.T) {
	if _, ok := types.NumberTypes.Single(); ok {
		t.Fatal("NumberTypes.Single() should report false")
	}
	if _, ok := types.NoTypes.Single(); ok {
		t.Fatal("NoTypes.Single() should report false")
	}
}

func TestAnyTypeCoversAll(t *testing.T) {
	for _, vt := range []types.ValueType{
		types.Numeric, types.Integer, types.Boolean, types.String, types.Binary,
	} {
		if !types.AnyType.Has(vt) {
			t.Fatalf("AnyType is missing %s", vt)
		}
	}
	if types.AnyType.Has(types.Undefined) {
		t.Fatal("AnyType should not contain Undefined")
	}
}
