// Package types defines the core type system for GoFormula.
//
// This package contains the leaf-level definitions shared by every other
// engine package:
//   - ValueType: concrete result classification of a node
//   - TypeSet: candidate-set classification used mid-inference
//   - Tolerance: acceptable-deviation descriptor for tolerant comparison
//   - Error types: structured errors with codes
package types

// ValueType is the concrete result classification of a formula node.
//
// Numeric always denotes a floating-point quantity; Integer is kept as a
// separate kind so that purely integral subtrees evaluate without rounding
// drift. Undefined is the state of a node whose type inference has not
// converged yet — a tree that still contains Undefined nodes cannot be
// compiled.
type ValueType uint8

const (
	// Undefined marks a node whose type has not been determined yet.
	Undefined ValueType = iota
	// Numeric is a floating-point number (float64 at runtime).
	Numeric
	// Integer is a whole number (int64 at runtime).
	Integer
	// Boolean is a truth value.
	Boolean
	// String is a text value.
	String
	// Binary is an opaque byte sequence.
	Binary

	numValueTypes
)

// String returns a human-readable name for the value type.
func (t ValueType) String() string {
	switch t {
	case Undefined:
		return "undefined"
	case Numeric:
		return "numeric"
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	case String:
		return "string"
	case Binary:
		return "binary"
	default:
		return "invalid"
	}
}

// IsNumber reports whether the type is one of the numeric kinds.
func (t ValueType) IsNumber() bool {
	return t == Numeric || t == Integer
}

// Set returns the singleton candidate set containing only this type.
// Undefined has no corresponding candidate bit and yields the empty set.
func (t ValueType) Set() TypeSet {
	if t == Undefined || t >= numValueTypes {
		return NoTypes
	}
	return 1 << (t - 1)
}
