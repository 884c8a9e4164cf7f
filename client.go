package issueenvelope

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrNotErrorResponse is returned when the factory is handed a response
// that does not carry an error status.
var ErrNotErrorResponse = errors.New("issueenvelope: response status is not an error")

// InfrastructureError reports a 5xx response. Its body is never decoded.
type InfrastructureError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("Failed to process HTTP %s %s request. Resource returned %d", e.Method, e.URL, e.StatusCode)
}

// ReconstructObserver is notified after every successful reconstruction.
type ReconstructObserver interface {
	ObserveReconstruct(ctx context.Context, e *Error)
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithFactoryLogger sets the factory logger. The default discards everything.
func WithFactoryLogger(l logrus.FieldLogger) FactoryOption {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithReconstructObserver sets a reconstruction observer.
func WithReconstructObserver(o ReconstructObserver) FactoryOption {
	return func(f *Factory) { f.observer = o }
}

// Factory rebuilds typed errors from received envelopes. It holds no
// mutable state and is safe for concurrent use.
type Factory struct {
	logger   logrus.FieldLogger
	observer ReconstructObserver
}

// NewFactory creates a Factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{logger: discardLogger()}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Reconstruct decodes body and rebuilds the Error it describes.
//
// A single built-in type name yields that built-in issue type. Several names,
// or a single unknown name, yield custom issue types that all carry status.
// An envelope with no types is a protocol violation.
func (f *Factory) Reconstruct(status int, body []byte) (*Error, error) {
	return f.reconstruct(context.Background(), status, body)
}

// ReconstructReader is Reconstruct over a stream.
func (f *Factory) ReconstructReader(status int, r io.Reader) (*Error, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &MalformedEnvelopeError{Reason: "read body", Cause: err}
	}
	return f.Reconstruct(status, data)
}

func (f *Factory) reconstruct(ctx context.Context, status int, body []byte) (*Error, error) {
	env, err := Decode(body)
	if err != nil {
		f.logger.WithError(err).WithField("status", status).Warn("unable to decode error envelope")
		return nil, err
	}
	if len(env.Types) == 0 {
		err := &MalformedEnvelopeError{Reason: "envelope carries no issue types"}
		f.logger.WithField("status", status).Warn(err.Error())
		return nil, err
	}

	if env.Timestamp.IsZero() {
		f.logger.WithField("status", status).Debug("error envelope carries no readable timestamp")
	}

	var msg string
	if len(env.Messages) > 0 {
		msg = env.Messages[0]
	}

	var e *Error
	if t, ok := Resolve(env.Types[0]); ok && len(env.Types) == 1 {
		e = Of(t, msg)
	} else {
		types := make([]IssueType, len(env.Types))
		for i, name := range env.Types {
			types[i] = NewIssueType(name, status)
		}
		// Decode rejects blank names, so this cannot fail.
		e, err = New(types, msg)
		if err != nil {
			return nil, &MalformedEnvelopeError{Reason: "invalid issue types", Cause: err}
		}
	}

	f.logger.WithFields(logrus.Fields{
		"status": status,
		"types":  env.Types,
		"custom": e.IsCustom(),
	}).Debug("reconstructed error from envelope")
	if f.observer != nil {
		f.observer.ObserveReconstruct(ctx, e)
	}
	return e, nil
}

// FromResponse classifies an error response. Statuses below 400 yield
// ErrNotErrorResponse, 5xx statuses an InfrastructureError without reading
// the body, and 4xx statuses the reconstructed Error. The body is closed.
func (f *Factory) FromResponse(resp *http.Response) (*Error, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", ErrNotErrorResponse)
	}
	body := resp.Body
	if body == nil {
		body = http.NoBody
	}
	defer body.Close()

	if resp.StatusCode < http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %d", ErrNotErrorResponse, resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		ie := &InfrastructureError{StatusCode: resp.StatusCode}
		if resp.Request != nil {
			ie.Method = resp.Request.Method
			if resp.Request.URL != nil {
				ie.URL = resp.Request.URL.String()
			}
		}
		f.logger.WithFields(logrus.Fields{
			"method": ie.Method,
			"url":    ie.URL,
			"status": ie.StatusCode,
		}).Warn("downstream infrastructure failure")
		return nil, ie
	}

	ctx := context.Background()
	if resp.Request != nil {
		ctx = resp.Request.Context()
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &MalformedEnvelopeError{Reason: "read body", Cause: err}
	}
	return f.reconstruct(ctx, resp.StatusCode, data)
}

// Check returns nil for successful responses and otherwise the classified
// failure: an *Error, an *InfrastructureError or a protocol violation.
// The body of a failed response is closed.
func (f *Factory) Check(resp *http.Response) error {
	if resp != nil && resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	e, err := f.FromResponse(resp)
	if err != nil {
		return err
	}
	return e
}
