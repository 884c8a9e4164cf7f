// Package echo provides adapters for using issue-envelope with the Echo framework.
package echo

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	echofw "github.com/labstack/echo/v4"

	issueenvelope "github.com/blackwell-systems/issue-envelope"
)

// Trace adapts issue-envelope trace middleware to Echo's middleware interface.
//
// Example:
//
//	e := echo.New()
//	e.Use(Trace)
func Trace(next echofw.HandlerFunc) echofw.HandlerFunc {
	return func(c echofw.Context) error {
		var err error
		handler := issueenvelope.TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.SetRequest(r)
			err = next(c)
		}))

		handler.ServeHTTP(c.Response(), c.Request())
		return err
	}
}

// Write dispatches err through d and writes the envelope.
//
// Example:
//
//	e.GET("/orders/:id", func(c echo.Context) error {
//	    order, err := store.Get(c.Param("id"))
//	    if err != nil {
//	        return Write(c, d, err)
//	    }
//	    return c.JSON(http.StatusOK, order)
//	})
func Write(c echofw.Context, d *issueenvelope.Dispatcher, err error) error {
	d.Write(c.Response(), c.Request(), err)
	return nil
}

// HTTPErrorHandler answers errors returned from handlers with envelopes.
//
// Echo's own routing, binding and media type errors are translated into the
// matching failures first. HTTP errors with no counterpart in the issue
// taxonomy, such as 401, are left to Echo's default handler.
//
// Example:
//
//	e.HTTPErrorHandler = HTTPErrorHandler(d)
func HTTPErrorHandler(d *issueenvelope.Dispatcher) echofw.HTTPErrorHandler {
	return func(err error, c echofw.Context) {
		if c.Response().Committed {
			return
		}
		failure := translate(c, err)
		if failure == nil {
			c.Echo().DefaultHTTPErrorHandler(err, c)
			return
		}
		d.Write(c.Response(), c.Request(), failure)
	}
}

// translate returns nil for HTTP errors that have no issue type.
func translate(c echofw.Context, err error) error {
	var be *echofw.BindingError
	if errors.As(err, &be) {
		var value string
		if len(be.Values) > 0 {
			value = be.Values[0]
		}
		return &issueenvelope.TypeMismatchError{Param: be.Field, Value: value, Cause: err}
	}

	var he *echofw.HTTPError
	if !errors.As(err, &he) {
		return err
	}

	req := c.Request()
	switch he.Code {
	case http.StatusNotFound:
		return &issueenvelope.HandlerMissingError{Method: req.Method, Path: req.URL.Path}
	case http.StatusMethodNotAllowed:
		return &issueenvelope.MethodNotSupportedError{Method: req.Method, Allowed: allowedMethods(c)}
	case http.StatusUnsupportedMediaType:
		return &issueenvelope.MediaTypeNotSupportedError{ContentType: req.Header.Get(echofw.HeaderContentType)}
	case http.StatusNotAcceptable:
		return &issueenvelope.MediaTypeNotAcceptableError{Accept: req.Header.Get(echofw.HeaderAccept)}
	case http.StatusBadRequest:
		if he.Internal != nil {
			return &issueenvelope.UnreadableBodyError{Cause: he.Internal}
		}
	}
	return nil
}

func allowedMethods(c echofw.Context) []string {
	allow := c.Response().Header().Get(echofw.HeaderAllow)
	if allow == "" {
		return nil
	}
	var out []string
	for _, m := range strings.Split(allow, ",") {
		out = append(out, strings.TrimSpace(m))
	}
	return out
}

// Validator implements echo.Validator with go-playground/validator. Failed
// rules come back as *issueenvelope.BindingError.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator that reports fields by their json tag.
//
// Example:
//
//	e.Validator = NewValidator()
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	issueenvelope.UseJSONFieldNames(v)
	return &Validator{validate: v}
}

// Validate validates i.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return issueenvelope.FromValidation(ve)
	}
	return err
}
