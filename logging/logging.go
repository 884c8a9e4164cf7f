// Package logging builds the logrus logger injected into dispatchers and
// factories.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/blackwell-systems/issue-envelope/config"
)

// Options tune logger construction.
type Options struct {
	Output  io.Writer     // default os.Stdout
	Service string        // added as "service" to every entry when set
	Hooks   []logrus.Hook // extra hooks
}

// New creates a logger from cfg. Unknown formats fall back to JSON and
// invalid levels to info. With cfg.File enabled, entries also go to a
// daily rotated file.
func New(cfg config.LogConfig, opts Options) (*logrus.Logger, error) {
	l := logrus.New()

	switch cfg.Format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.File.Enabled {
		w, err := fileWriter(cfg.File, opts.Service)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(out, w)
	}
	l.SetOutput(out)

	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(logrus.InfoLevel)
		l.Warnf("invalid log level %q, fallback to info", cfg.Level)
	}

	l.SetReportCaller(cfg.ReportCaller)

	if opts.Service != "" {
		l.AddHook(&serviceHook{service: opts.Service})
	}
	for _, h := range opts.Hooks {
		l.AddHook(h)
	}
	return l, nil
}

func fileWriter(cfg config.LogFileConfig, service string) (io.Writer, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir failed: %w", err)
	}

	name := cfg.Filename
	if name == "" {
		name = service
	}
	if name == "" {
		name = "app"
	}

	maxAge := cfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 7
	}
	rotation := cfg.RotationDays
	if rotation <= 0 {
		rotation = 1
	}

	w, err := rotatelogs.New(
		filepath.Join(dir, name+".%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(dir, name+".log")),
		rotatelogs.WithMaxAge(time.Duration(maxAge)*24*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(rotation)*24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("set up log file failed: %w", err)
	}
	return w, nil
}

// WithTrace binds ctx and adds "trace_id" and "span_id" when an
// OpenTelemetry span context is present.
func WithTrace(ctx context.Context, l logrus.FieldLogger) *logrus.Entry {
	e := l.WithFields(logrus.Fields{})
	if ctx == nil {
		return e
	}
	e = e.WithContext(ctx)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		e = e.WithFields(logrus.Fields{
			"trace_id": sc.TraceID().String(),
			"span_id":  sc.SpanID().String(),
		})
	}
	return e
}

type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = h.service
	return nil
}
