// Package issueenvelope is a typed error propagation protocol for HTTP
// services.
//
// A server classifies a failure into one or more named issue types and
// writes it as a JSON envelope (status code, type names, messages,
// timestamp). A calling service reconstructs an equivalent typed error from
// that envelope. Type names are the only shared contract; names a client does
// not know degrade into custom issue types instead of failing.
package issueenvelope

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is returned when an Error is built without issue types
	// or with a blank issue type name.
	ErrInvalidArgument = errors.New("issueenvelope: invalid argument")

	// ErrProtocolViolation matches every envelope that cannot be classified.
	ErrProtocolViolation = errors.New("issueenvelope: protocol violation")
)

// Error is a classified failure: one or more issue types, an optional message
// and an optional cause. The first issue type is the reporting issue type and
// selects the transport status code.
//
// Errors are immutable once built.
type Error struct {
	types   []IssueType
	message string
	cause   error
}

// New creates an Error. It fails with ErrInvalidArgument when types is empty
// or contains a blank name. An empty msg means no message.
func New(types []IssueType, msg string) (*Error, error) {
	return Wrap(types, msg, nil)
}

// Wrap creates an Error that wraps an underlying cause.
func Wrap(types []IssueType, msg string, cause error) (*Error, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: issue types cannot be nil and must contain at least one issue type", ErrInvalidArgument)
	}
	for i, t := range types {
		if t.blank() {
			return nil, fmt.Errorf("%w: issue type at index %d has a blank name", ErrInvalidArgument, i)
		}
	}
	cp := make([]IssueType, len(types))
	copy(cp, types)
	return &Error{types: cp, message: msg, cause: cause}, nil
}

// Of creates a single-type Error. It panics if t has a blank name.
func Of(t IssueType, msg string) *Error {
	return WrapOf(t, msg, nil)
}

// WrapOf creates a single-type Error with a cause. It panics if t has a blank name.
func WrapOf(t IssueType, msg string, cause error) *Error {
	e, err := Wrap([]IssueType{t}, msg, cause)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.typeNames())
	if e.message != "" {
		b.WriteString(": ")
		b.WriteString(e.message)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, " (%v)", e.cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause() }

// Cause returns the wrapped error, if any.
func (e *Error) Cause() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// ReportingIssueType returns the first issue type.
func (e *Error) ReportingIssueType() IssueType { return e.types[0] }

// IssueTypes returns a copy of the issue types in order.
func (e *Error) IssueTypes() []IssueType {
	out := make([]IssueType, len(e.types))
	copy(out, e.types)
	return out
}

// Message returns the message, or "" when there is none.
func (e *Error) Message() string { return e.message }

// HasMessage reports whether the error carries a message.
func (e *Error) HasMessage() bool { return e.message != "" }

// StatusCode is the status code of the reporting issue type.
func (e *Error) StatusCode() int { return e.types[0].status }

// IsCustom reports whether any issue type is outside the built-in vocabulary.
func (e *Error) IsCustom() bool {
	for _, t := range e.types {
		if t.custom {
			return true
		}
	}
	return false
}

// Equal compares the reporting issue type and the issue type list by name.
// Message and cause are ignored so independently raised failures of the same
// classification compare equal.
func (e *Error) Equal(other *Error) bool {
	if e == nil || other == nil {
		return e == other
	}
	if len(e.types) != len(other.types) {
		return false
	}
	for i := range e.types {
		if !e.types[i].Equal(other.types[i]) {
			return false
		}
	}
	return true
}

// Is lets errors.Is match two Errors of the same classification.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Equal(t)
}

// Has reports whether t is one of the error's issue types.
func (e *Error) Has(t IssueType) bool {
	if e == nil {
		return false
	}
	for _, it := range e.types {
		if it.Equal(t) {
			return true
		}
	}
	return false
}

// Is checks if err carries an Error whose reporting issue type is t.
func Is(err error, t IssueType) bool {
	var e *Error
	if errors.As(err, &e) && e != nil && len(e.types) > 0 {
		return e.ReportingIssueType().Equal(t)
	}
	return false
}

// Has checks if err carries an Error with t among its issue types.
func Has(err error, t IssueType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Has(t)
	}
	return false
}

func (e *Error) typeNames() string {
	names := make([]string, len(e.types))
	for i, t := range e.types {
		names[i] = t.name
	}
	return strings.Join(names, ",")
}
