package issueenvelope

import (
	"fmt"
	"sort"
	"strings"
)

// NotFound creates a RESOURCE_NOT_FOUND error (404):
// "No <resource> can be found by given <identifier>."
func NotFound(resource, identifier string) *Error {
	return Of(ResourceNotFound, fmt.Sprintf("No %s can be found by given %s.", resource, identifier))
}

// NotFoundByField creates a RESOURCE_NOT_FOUND error identified by one field.
func NotFoundByField(resource, field string, value any) *Error {
	return NotFound(resource, fieldValue(field, value))
}

// NotFoundByFields creates a RESOURCE_NOT_FOUND error identified by several fields.
func NotFoundByFields(resource string, fields map[string]any) *Error {
	return NotFound(resource, fieldValues(fields))
}

// AlreadyExists creates a RESOURCE_ALREADY_EXISTS error (409):
// "<resource> already exists by <identifier>."
func AlreadyExists(resource, identifier string) *Error {
	return Of(ResourceAlreadyExists, fmt.Sprintf("%s already exists by %s.", resource, identifier))
}

// AlreadyExistsByField creates a RESOURCE_ALREADY_EXISTS error identified by one field.
func AlreadyExistsByField(resource, field string, value any) *Error {
	return AlreadyExists(resource, fieldValue(field, value))
}

// AlreadyExistsByFields creates a RESOURCE_ALREADY_EXISTS error identified by several fields.
func AlreadyExistsByFields(resource string, fields map[string]any) *Error {
	return AlreadyExists(resource, fieldValues(fields))
}

// NotViable creates a RESOURCE_NOT_VIABLE error (410):
// "<resource> by given <identifier> is not viable."
func NotViable(resource, identifier string) *Error {
	return Of(ResourceNotViable, fmt.Sprintf("%s by given %s is not viable.", resource, identifier))
}

// NotViableByField creates a RESOURCE_NOT_VIABLE error identified by one field.
func NotViableByField(resource, field string, value any) *Error {
	return NotViable(resource, fieldValue(field, value))
}

// NotViableByFields creates a RESOURCE_NOT_VIABLE error identified by several fields.
func NotViableByFields(resource string, fields map[string]any) *Error {
	return NotViable(resource, fieldValues(fields))
}

// Precondition creates a PRECONDITION_VIOLATED error (412):
// "'<precondition>' precondition is violated."
func Precondition(precondition string) *Error {
	return Of(PreconditionViolated, fmt.Sprintf("'%s' precondition is violated.", precondition))
}

// Custom creates an Error from a service-defined vocabulary.
func Custom(types []IssueType, msg string) (*Error, error) {
	return New(types, msg)
}

// fieldValue renders "field: value", quoting string values.
func fieldValue(field string, value any) string {
	if s, ok := value.(string); ok {
		return fmt.Sprintf("%s: '%s'", field, s)
	}
	return fmt.Sprintf("%s: %v", field, value)
}

func fieldValues(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fieldValue(k, fields[k]))
	}
	return strings.Join(parts, ", ")
}
