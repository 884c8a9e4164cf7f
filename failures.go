package issueenvelope

import (
	"fmt"
	"mime/multipart"
	"strings"
)

// FieldViolation is one failed binding rule. An empty Field marks an
// object-level violation.
type FieldViolation struct {
	Object string
	Field  string
	Detail string
}

func (v FieldViolation) String() string {
	if v.Field == "" {
		return fmt.Sprintf("%s: %s", v.Object, v.Detail)
	}
	return fmt.Sprintf("%s.%s: %s", v.Object, v.Field, v.Detail)
}

// BindingError reports a request payload that failed field validation.
type BindingError struct {
	Violations []FieldViolation
}

func (e *BindingError) Error() string {
	return "binding failed: " + joinStrings(e.messages())
}

func (e *BindingError) messages() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.String())
	}
	return out
}

// ConstraintViolation is one failed parameter or method-level constraint.
type ConstraintViolation struct {
	PropertyPath string
	Detail       string
	InvalidValue any
}

// ConstraintViolationError reports parameter-level constraint violations.
type ConstraintViolationError struct {
	Violations []ConstraintViolation
}

func (e *ConstraintViolationError) Error() string {
	return "constraint violation: " + joinStrings(e.messages())
}

// messages skips violations on uploaded files.
func (e *ConstraintViolationError) messages() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if isUpload(v.InvalidValue) {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", v.PropertyPath, v.Detail))
	}
	return out
}

func isUpload(v any) bool {
	switch v.(type) {
	case *multipart.FileHeader, []*multipart.FileHeader, multipart.File:
		return true
	}
	return false
}

// UnreadableBodyError reports a payload that cannot be parsed.
type UnreadableBodyError struct {
	Cause error
}

func (e *UnreadableBodyError) Error() string {
	if e.Cause == nil {
		return "request body is not readable"
	}
	return e.Cause.Error()
}

func (e *UnreadableBodyError) Unwrap() error { return e.Cause }

// MethodNotSupportedError reports a route invoked with the wrong method.
type MethodNotSupportedError struct {
	Method  string
	Allowed []string
}

func (e *MethodNotSupportedError) Error() string {
	msg := fmt.Sprintf("Request method '%s' is not supported", e.Method)
	if len(e.Allowed) > 0 {
		msg += ", supported methods are " + strings.Join(e.Allowed, ", ")
	}
	return msg
}

// TypeMismatchError reports a request parameter that cannot convert to its
// declared type. An empty Type renders as "unknown".
type TypeMismatchError struct {
	Param string
	Type  string
	Value any
	Cause error
}

func (e *TypeMismatchError) Error() string {
	typ := e.Type
	if typ == "" {
		typ = "unknown"
	}
	return fmt.Sprintf("'%s' of type '%s' cannot accept value '%v'", e.Param, typ, e.Value)
}

func (e *TypeMismatchError) Unwrap() error { return e.Cause }

// MissingPathVariableError reports an absent routing parameter.
type MissingPathVariableError struct {
	Variable string
}

func (e *MissingPathVariableError) Error() string {
	return e.Variable + ": parameter is missing"
}

// MediaTypeNotAcceptableError reports a failed Accept negotiation.
type MediaTypeNotAcceptableError struct {
	Accept    string
	Supported []string
}

func (e *MediaTypeNotAcceptableError) Error() string {
	msg := "Could not find acceptable representation"
	if e.Accept != "" {
		msg += " for '" + e.Accept + "'"
	}
	return msg
}

// MediaTypeNotSupportedError reports an unsupported Content-Type.
type MediaTypeNotSupportedError struct {
	ContentType string
	Supported   []string
}

func (e *MediaTypeNotSupportedError) Error() string {
	ct := e.ContentType
	if ct == "" {
		ct = "none"
	}
	return fmt.Sprintf("Content type '%s' not supported", ct)
}

// HandlerMissingError reports a request no route matches.
type HandlerMissingError struct {
	Method string
	Path   string
}

func (e *HandlerMissingError) Error() string {
	return fmt.Sprintf("No handler found for %s %s", e.Method, e.Path)
}

func joinStrings(s []string) string {
	return strings.Join(s, "; ")
}
