package issueenvelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/elnormous/contenttype"
)

const (
	// HeaderTraceID is the standard header name for trace/request IDs.
	HeaderTraceID = "X-Request-Id"
)

// Write dispatches err and writes the envelope as the response.
// A nil err writes 204 No Content.
func (d *Dispatcher) Write(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	env, ok := d.Dispatch(r, err)

	if id := TraceIDFromRequest(r); id != "" {
		w.Header().Set(HeaderTraceID, id)
	}

	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var mns *MethodNotSupportedError
	if errors.As(err, &mns) && len(mns.Allowed) > 0 && env.Types[0] == RequestMethodNotSupported.name {
		w.Header().Set("Allow", strings.Join(mns.Allowed, ", "))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)

	_ = json.NewEncoder(w).Encode(env)
}

// HandlerFunc is an http.HandlerFunc that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts h so returned errors are written as envelopes.
func (d *Dispatcher) Handle(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			d.Write(w, r, err)
		}
	})
}

// Recover turns panics in next into UNKNOWN envelopes. A panic after the
// response has started is only logged.
func (d *Dispatcher) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		defer func() {
			if rvr := recover(); rvr != nil {
				//nolint:errorlint // sentinel must be compared directly
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				err := &panicError{value: rvr, stack: debug.Stack()}
				if tw.wrote {
					d.logger.WithFields(requestFields(r)).WithError(err).
						Error("panic after response was written")
					return
				}
				d.Write(w, r, err)
			}
		}()
		next.ServeHTTP(tw, r)
	})
}

// trackingWriter records whether the response has started.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// NotFoundHandler answers unmatched routes with REQUEST_HANDLER_MISSING.
func (d *Dispatcher) NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.Write(w, r, &HandlerMissingError{Method: r.Method, Path: r.URL.Path})
	})
}

// MethodNotAllowedHandler answers with REQUEST_METHOD_NOT_SUPPORTED.
func (d *Dispatcher) MethodNotAllowedHandler(allowed ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.Write(w, r, &MethodNotSupportedError{Method: r.Method, Allowed: allowed})
	})
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v\n%s", e.value, e.stack)
}

func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}

// CheckContentType returns a MediaTypeNotSupportedError when r carries a
// body whose Content-Type is not one of supported. Parameters such as
// charset are ignored.
func CheckContentType(r *http.Request, supported ...string) error {
	if r.ContentLength == 0 || len(supported) == 0 {
		return nil
	}
	raw := r.Header.Get("Content-Type")
	if raw != "" {
		got := contenttype.NewMediaType(raw)
		for _, s := range supported {
			want := contenttype.NewMediaType(s)
			if got.Type != "" && strings.EqualFold(got.Type, want.Type) && strings.EqualFold(got.Subtype, want.Subtype) {
				return nil
			}
		}
	}
	return &MediaTypeNotSupportedError{ContentType: raw, Supported: supported}
}

// CheckAccept returns a MediaTypeNotAcceptableError when the Accept header
// of r admits none of produced. Quality values are honoured, so q=0 refuses
// a type. A missing Accept header accepts anything.
func CheckAccept(r *http.Request, produced ...string) error {
	accept := r.Header.Get("Accept")
	if accept == "" || len(produced) == 0 {
		return nil
	}
	available := make([]contenttype.MediaType, len(produced))
	for i, p := range produced {
		available[i] = contenttype.NewMediaType(p)
	}
	if _, _, err := contenttype.GetAcceptableMediaType(r, available); err != nil {
		return &MediaTypeNotAcceptableError{Accept: accept, Supported: produced}
	}
	return nil
}

// Consumes rejects request bodies whose Content-Type is not supported.
func (d *Dispatcher) Consumes(supported ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := CheckContentType(r, supported...); err != nil {
				d.Write(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Produces rejects requests that accept none of the produced media types.
func (d *Dispatcher) Produces(produced ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := CheckAccept(r, produced...); err != nil {
				d.Write(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
