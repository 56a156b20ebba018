package types

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an engine error.
type ErrorCode string

// Error codes, grouped by the pipeline phase that raises them.
const (
	// S0xxx: Lexer/Parser errors
	ErrStringNotClosed ErrorCode = "S0101"
	ErrNumberFormat    ErrorCode = "S0102"
	ErrUnexpectedEnd   ErrorCode = "S0104"
	ErrSyntaxError     ErrorCode = "S0201"
	ErrExpectedToken   ErrorCode = "S0202"
	ErrUnknownFunction ErrorCode = "S0203"

	// T1xxx: Type-conflict errors (Raw -> Resolved)
	ErrTypeConflict    ErrorCode = "T1001"
	ErrEmptyCandidates ErrorCode = "T1002"
	ErrUnresolvedType  ErrorCode = "T1003"

	// A1xxx: Invalid-argument errors (node construction)
	ErrNilOperand      ErrorCode = "A1001"
	ErrArgumentCount   ErrorCode = "A1002"
	ErrInvalidArgument ErrorCode = "A1003"

	// C1xxx: Compilation errors (Resolved -> Compiled)
	ErrNotResolved         ErrorCode = "C1001"
	ErrUnsupportedOperands ErrorCode = "C1002"
	ErrDepthExceeded       ErrorCode = "C1003"

	// U1xxx: Invocation errors
	ErrUnboundParameter ErrorCode = "U1001"
	ErrDivisionByZero   ErrorCode = "U1002"
	ErrBadBinding       ErrorCode = "U1003"
	ErrDomain           ErrorCode = "U1004"
)

// Error is a structured engine error carrying the code of the failure, the
// source position (when known) and the label of the offending node.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Node     string
	Err      error
}

// NewError creates a new engine error. Pass position -1 when the failure is
// not attributable to a source location.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Errorf creates a new engine error with a formatted message and no source
// position.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Position: -1,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Node != "" && e.Position >= 0:
		return fmt.Sprintf("%s at position %d (%s): %s", e.Code, e.Position, e.Node, e.Message)
	case e.Node != "":
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Node, e.Message)
	case e.Position >= 0:
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// At attributes the error to a source position.
func (e *Error) At(position int) *Error {
	e.Position = position
	return e
}

// WithNode attributes the error to a node label.
func (e *Error) WithNode(label string) *Error {
	e.Node = label
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// codeClass returns the leading letter of the engine error code inside err,
// or 0 when err carries no *Error.
func codeClass(err error) byte {
	var ee *Error
	if !errors.As(err, &ee) || len(ee.Code) == 0 {
		return 0
	}
	return ee.Code[0]
}

// IsTypeConflict reports whether err is a type-conflict error raised during
// inference.
func IsTypeConflict(err error) bool {
	return codeClass(err) == 'T'
}

// IsInvalidArgument reports whether err is a construction-time
// invalid-argument error.
func IsInvalidArgument(err error) bool {
	return codeClass(err) == 'A'
}

// IsCompileError reports whether err was raised while generating the
// executable form.
func IsCompileError(err error) bool {
	return codeClass(err) == 'C'
}

// IsSyntaxError reports whether err was raised by the lexer or parser.
func IsSyntaxError(err error) bool {
	return codeClass(err) == 'S'
}
