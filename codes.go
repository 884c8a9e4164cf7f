package issueenvelope

import "strings"

// NoStatus is the status code of an issue type that has no HTTP mapping.
const NoStatus = -1

// IssueType is a stable, named failure classification.
//
// The name is the only part of an issue type that crosses the wire. Two issue
// types are equal when their names are equal.
type IssueType struct {
	name   string
	status int
	custom bool
}

// Built-in issue types.
var (
	ResourceNotFound                = builtin("RESOURCE_NOT_FOUND", 404)
	ResourceAlreadyExists           = builtin("RESOURCE_ALREADY_EXISTS", 409)
	ResourceNotViable               = builtin("RESOURCE_NOT_VIABLE", 410)
	PreconditionViolated            = builtin("PRECONDITION_VIOLATED", 412)
	DataIntegrityConstraintViolated = builtin("DATA_INTEGRITY_CONSTRAINT_VIOLATED", 400)
	NotReadableRequestBody          = builtin("NOT_READABLE_REQUEST_BODY", 400)
	RequestMethodNotSupported       = builtin("REQUEST_METHOD_NOT_SUPPORTED", 405)
	RequestDataTypeMismatch         = builtin("REQUEST_DATA_TYPE_MISMATCH", 400)
	MediaTypeNotAcceptable          = builtin("MEDIA_TYPE_NOT_ACCEPTABLE", 406)
	MediaTypeNotSupported           = builtin("MEDIA_TYPE_NOT_SUPPORTED", 415)
	RequestHandlerMissing           = builtin("REQUEST_HANDLER_MISSING", 404)
	Unknown                         = builtin("UNKNOWN", 500)
)

// builtinIssueTypes is ordered; BuiltinIssueTypes hands out copies.
var builtinIssueTypes = []IssueType{
	ResourceNotFound,
	ResourceAlreadyExists,
	ResourceNotViable,
	PreconditionViolated,
	DataIntegrityConstraintViolated,
	NotReadableRequestBody,
	RequestMethodNotSupported,
	RequestDataTypeMismatch,
	MediaTypeNotAcceptable,
	MediaTypeNotSupported,
	RequestHandlerMissing,
	Unknown,
}

var builtinByName = func() map[string]IssueType {
	m := make(map[string]IssueType, len(builtinIssueTypes))
	for _, t := range builtinIssueTypes {
		m[t.name] = t
	}
	return m
}()

func builtin(name string, status int) IssueType {
	return IssueType{name: name, status: status}
}

// NewIssueType defines a service-specific issue type.
// Names must be unique across the services that exchange them.
func NewIssueType(name string, status int) IssueType {
	return IssueType{name: name, status: status, custom: true}
}

// NewIssueTypeNoStatus defines a service-specific issue type without an HTTP status.
func NewIssueTypeNoStatus(name string) IssueType {
	return NewIssueType(name, NoStatus)
}

// Resolve looks up a built-in issue type by exact, case-sensitive name.
func Resolve(name string) (IssueType, bool) {
	t, ok := builtinByName[name]
	return t, ok
}

// IsBuiltin reports whether name belongs to the built-in vocabulary.
func IsBuiltin(name string) bool {
	_, ok := builtinByName[name]
	return ok
}

// BuiltinIssueTypes returns the built-in issue types in declaration order.
func BuiltinIssueTypes() []IssueType {
	out := make([]IssueType, len(builtinIssueTypes))
	copy(out, builtinIssueTypes)
	return out
}

func (t IssueType) Name() string { return t.name }

// StatusCode returns the HTTP status for the issue type, or NoStatus.
func (t IssueType) StatusCode() int { return t.status }

// IsCustom reports whether the issue type lives outside the built-in vocabulary.
func (t IssueType) IsCustom() bool { return t.custom }

func (t IssueType) String() string { return t.name }

// Equal compares issue types by name.
func (t IssueType) Equal(other IssueType) bool { return t.name == other.name }

func (t IssueType) MarshalText() ([]byte, error) { return []byte(t.name), nil }

func (t IssueType) blank() bool { return strings.TrimSpace(t.name) == "" }
