package issueenvelope

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// FromValidation converts validator errors into a BindingError. The object
// name is the root struct name with a lower-case first letter ("Order" ->
// "order"); the field is the namespace below the root.
func FromValidation(errs validator.ValidationErrors) *BindingError {
	be := &BindingError{Violations: make([]FieldViolation, 0, len(errs))}
	for _, fe := range errs {
		object, field := splitNamespace(fe.Namespace())
		be.Violations = append(be.Violations, FieldViolation{
			Object: object,
			Field:  field,
			Detail: ValidationDetail(fe),
		})
	}
	return be
}

// TranslateBindError maps the error of a JSON bind-and-validate call onto a
// dispatchable failure: validator errors become a BindingError and anything
// else an UnreadableBodyError.
func TranslateBindError(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return FromValidation(ve)
	}
	var ive *validator.InvalidValidationError
	if errors.As(err, &ive) {
		return err
	}
	return &UnreadableBodyError{Cause: err}
}

// UseJSONFieldNames makes v report fields by their json tag.
func UseJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
}

// ValidationDetail renders a human detail for one failed rule.
func ValidationDetail(fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return "must not be null"
	case "gt":
		if p == "0" {
			return "must be positive"
		}
		return "must be greater than " + p
	case "gte":
		if p == "0" {
			return "must be positive or zero"
		}
		return "must be greater than or equal to " + p
	case "lt":
		if p == "0" {
			return "must be negative"
		}
		return "must be less than " + p
	case "lte":
		return "must be less than or equal to " + p
	case "min":
		if isSized(fe.Kind()) {
			return fmt.Sprintf("size must be at least %s", p)
		}
		return "must be greater than or equal to " + p
	case "max":
		if isSized(fe.Kind()) {
			return fmt.Sprintf("size must be at most %s", p)
		}
		return "must be less than or equal to " + p
	case "len":
		return "size must be " + p
	case "email":
		return "must be a well-formed email address"
	case "oneof":
		return "must be one of [" + strings.Join(strings.Fields(p), ", ") + "]"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "url", "uri":
		return "must be a valid URL"
	}
	if p != "" {
		return fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), p)
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}

func isSized(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

func splitNamespace(ns string) (object, field string) {
	root, rest, found := strings.Cut(ns, ".")
	if !found {
		return lowerFirst(root), ""
	}
	return lowerFirst(root), rest
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
