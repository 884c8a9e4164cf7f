// Package chi wires issue-envelope into chi routers.
//
// Chi uses standard net/http handlers, so Dispatcher.Handle, Dispatcher.Write
// and the root middlewares work directly. This package adds the router hooks
// and typed URL parameter helpers.
package chi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	issueenvelope "github.com/blackwell-systems/issue-envelope"
)

// Trace is issueenvelope.TraceMiddleware as a chi middleware.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(chi.Trace)
func Trace(next http.Handler) http.Handler {
	return issueenvelope.TraceMiddleware(next)
}

// Install routes unmatched paths and methods through d, so they answer with
// REQUEST_HANDLER_MISSING and REQUEST_METHOD_NOT_SUPPORTED envelopes.
func Install(r chi.Router, d *issueenvelope.Dispatcher) {
	r.NotFound(d.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(d.MethodNotAllowedHandler().ServeHTTP)
}

// URLParam returns the named route parameter, or a MissingPathVariableError
// when it is empty.
func URLParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if v == "" {
		return "", &issueenvelope.MissingPathVariableError{Variable: name}
	}
	return v, nil
}

// URLParamInt64 parses the named route parameter as an int64. A value that
// does not parse yields a TypeMismatchError.
func URLParamInt64(r *http.Request, name string) (int64, error) {
	v, err := URLParam(r, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &issueenvelope.TypeMismatchError{Param: name, Type: "int64", Value: v, Cause: err}
	}
	return n, nil
}
