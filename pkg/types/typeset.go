package types

import "strings"

// TypeSet is a candidate-set classification used while type inference is
// still in progress: the set of concrete [ValueType] values a node could
// still legally resolve to.
//
// The inference protocol only ever removes candidates (see the ast
// package), so TypeSet values shrink monotonically until they collapse to a
// single type or become empty (a type conflict).
type TypeSet uint8

const (
	// NoTypes is the empty candidate set. Reaching it during inference is a
	// type conflict.
	NoTypes TypeSet = 0

	// NumberTypes contains both numeric kinds.
	NumberTypes = TypeSet(1<<(Numeric-1)) | TypeSet(1<<(Integer-1))

	// ScalarTypes contains every kind that has a textual rendering.
	ScalarTypes = NumberTypes | TypeSet(1<<(Boolean-1)) | TypeSet(1<<(String-1))

	// AnyType contains every concrete kind.
	AnyType = ScalarTypes | TypeSet(1<<(Binary-1))
)

// Has reports whether t is a member of the set.
func (s TypeSet) Has(t ValueType) bool {
	return s&t.Set() != 0
}

// Intersect returns the candidates present in both sets.
func (s TypeSet) Intersect(other TypeSet) TypeSet {
	return s & other
}

// Union returns the candidates present in either set.
func (s TypeSet) Union(other TypeSet) TypeSet {
	return s | other
}

// Count returns the number of candidates in the set.
func (s TypeSet) Count() int {
	n := 0
	for b := s; b != 0; b &= b - 1 {
		n++
	}
	return n
}

// Empty reports whether the set has no candidates left.
func (s TypeSet) Empty() bool {
	return s == NoTypes
}

// Single returns the sole candidate and true when exactly one remains.
func (s TypeSet) Single() (ValueType, bool) {
	if s.Count() != 1 {
		return Undefined, false
	}
	for t := Numeric; t < numValueTypes; t++ {
		if s.Has(t) {
			return t, true
		}
	}
	return Undefined, false
}

// String returns a "{numeric|integer}" style rendering of the set.
func (s TypeSet) String() string {
	if s.Empty() {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for t := Numeric; t < numValueTypes; t++ {
		if !s.Has(t) {
			continue
		}
		if !first {
			b.WriteByte('|')
		}
		b.WriteString(t.String())
		first = false
	}
	b.WriteByte('}')
	return b.String()
}
