package issueenvelope

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// unknownMessage is the only message an unanticipated failure ever returns.
const unknownMessage = "Unknown Error"

// Observer is notified after every dispatch. Implementations must be safe
// for concurrent use.
type Observer interface {
	ObserveDispatch(ctx context.Context, category Category, status int)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver sets a dispatch observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// WithClock overrides the envelope timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// outcome is what a handler extracts from a matched failure.
type outcome struct {
	category Category
	types    []IssueType
	messages []string
}

type handler struct {
	// category is empty for handlers whose category depends on the failure.
	category Category
	match    func(err error) (outcome, bool)
}

// Dispatcher maps raised failures onto exactly one envelope.
//
// The handler table is fixed at construction and the Dispatcher is safe for
// concurrent use.
type Dispatcher struct {
	handlers       []handler
	enabled        map[Category]bool
	unknownEnabled bool
	logger         logrus.FieldLogger
	observer       Observer
	now            func() time.Time
}

// NewDispatcher builds the handler table from cfg.
func NewDispatcher(cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		enabled: make(map[Category]bool),
		logger:  discardLogger(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(d)
	}

	for _, c := range Categories() {
		d.enabled[c] = cfg.Enabled(c)
	}
	d.unknownEnabled = d.enabled[CategoryUnknown]

	for _, h := range defaultHandlers() {
		if h.category != "" && !d.enabled[h.category] {
			continue
		}
		d.handlers = append(d.handlers, h)
	}
	return d
}

func defaultHandlers() []handler {
	dataIntegrity := Category(DataIntegrityConstraintViolated.name)
	return []handler{
		{match: matchDomain},
		{category: dataIntegrity, match: matchBinding},
		{category: dataIntegrity, match: matchConstraint},
		{category: Category(NotReadableRequestBody.name), match: matchUnreadable},
		{category: Category(RequestMethodNotSupported.name), match: single[*MethodNotSupportedError](RequestMethodNotSupported)},
		{category: Category(RequestDataTypeMismatch.name), match: single[*TypeMismatchError](RequestDataTypeMismatch)},
		{category: dataIntegrity, match: single[*MissingPathVariableError](DataIntegrityConstraintViolated)},
		{category: Category(MediaTypeNotAcceptable.name), match: single[*MediaTypeNotAcceptableError](MediaTypeNotAcceptable)},
		{category: Category(MediaTypeNotSupported.name), match: single[*MediaTypeNotSupportedError](MediaTypeNotSupported)},
		{category: Category(RequestHandlerMissing.name), match: single[*HandlerMissingError](RequestHandlerMissing)},
	}
}

// Dispatch classifies err and builds its envelope. The first matching
// handler wins; failures no enabled handler matches become UNKNOWN. ok is
// false only when the UNKNOWN handler is disabled and nothing else matched.
func (d *Dispatcher) Dispatch(r *http.Request, err error) (env *Envelope, ok bool) {
	entry := d.logger.WithFields(requestFields(r)).WithField("failure", fmt.Sprintf("%T", err))
	entry.WithField("detail", errString(err)).Trace("handling failure")

	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}

	for _, h := range d.handlers {
		out, matched := h.match(err)
		if !matched {
			continue
		}
		if !d.enabled[out.category] {
			break
		}
		status := out.types[0].status
		if status < 100 || status > 599 {
			entry.WithFields(logrus.Fields{
				"issue_type": out.types[0].name,
				"status":     status,
			}).Warn("reporting issue type has no usable status code, responding 500")
			status = http.StatusInternalServerError
		}
		env = newEnvelope(status, out.types, out.messages, d.now())
		entry.WithFields(logrus.Fields{
			"category": out.category,
			"status":   env.StatusCode,
			"types":    env.Types,
			"messages": env.Messages,
		}).Info("done handling failure")
		d.observe(ctx, out.category, env.StatusCode)
		return env, true
	}

	if !d.unknownEnabled {
		entry.WithError(err).Error("unanticipated failure left unhandled")
		return nil, false
	}
	env = newEnvelope(Unknown.status, []IssueType{Unknown}, []string{unknownMessage}, d.now())
	entry.WithError(err).WithFields(logrus.Fields{
		"category": CategoryUnknown,
		"status":   env.StatusCode,
	}).Error("done handling unanticipated failure")
	d.observe(ctx, CategoryUnknown, env.StatusCode)
	return env, true
}

func (d *Dispatcher) observe(ctx context.Context, c Category, status int) {
	if d.observer != nil {
		d.observer.ObserveDispatch(ctx, c, status)
	}
}

func matchDomain(err error) (outcome, bool) {
	var e *Error
	if !errors.As(err, &e) || e == nil || len(e.types) == 0 {
		return outcome{}, false
	}
	rep := e.types[0]
	category := CategoryCustom
	if !rep.custom && IsBuiltin(rep.name) {
		category = Category(rep.name)
	}
	var messages []string
	if e.message != "" {
		messages = []string{e.message}
	}
	return outcome{category: category, types: e.types, messages: messages}, true
}

func matchBinding(err error) (outcome, bool) {
	var be *BindingError
	if !errors.As(err, &be) {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return outcome{}, false
		}
		be = FromValidation(ve)
	}
	return outcome{
		category: Category(DataIntegrityConstraintViolated.name),
		types:    []IssueType{DataIntegrityConstraintViolated},
		messages: be.messages(),
	}, true
}

func matchConstraint(err error) (outcome, bool) {
	var ce *ConstraintViolationError
	if !errors.As(err, &ce) {
		return outcome{}, false
	}
	return outcome{
		category: Category(DataIntegrityConstraintViolated.name),
		types:    []IssueType{DataIntegrityConstraintViolated},
		messages: ce.messages(),
	}, true
}

// matchUnreadable only accepts failures raised while reading the request
// body. A downstream envelope that failed to decode is a protocol violation
// of the callee and must not be blamed on the caller.
func matchUnreadable(err error) (outcome, bool) {
	var ue *UnreadableBodyError
	if !errors.As(err, &ue) || errors.Is(err, ErrProtocolViolation) {
		return outcome{}, false
	}
	return outcome{
		category: Category(NotReadableRequestBody.name),
		types:    []IssueType{NotReadableRequestBody},
		messages: []string{ue.Error()},
	}, true
}

// single matches failures of type T and reports their text as the only message.
func single[T error](t IssueType) func(error) (outcome, bool) {
	return func(err error) (outcome, bool) {
		var target T
		if !errors.As(err, &target) {
			return outcome{}, false
		}
		return outcome{
			category: Category(t.name),
			types:    []IssueType{t},
			messages: []string{target.Error()},
		}, true
	}
}

func requestFields(r *http.Request) logrus.Fields {
	if r == nil {
		return logrus.Fields{}
	}
	uri := r.URL.Path
	if r.URL.RawQuery != "" {
		uri += "?" + r.URL.RawQuery
	}
	f := logrus.Fields{
		"method": r.Method,
		"uri":    uri,
	}
	if id := TraceIDFromRequest(r); id != "" {
		f["request_id"] = id
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		f["trace_id"] = sc.TraceID().String()
		f["span_id"] = sc.SpanID().String()
	}
	return f
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
