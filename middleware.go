package issueenvelope

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey string

const traceKey ctxKey = "issueenvelope.trace_id"

// TraceIDFromRequest extracts the trace ID from the request header or context.
func TraceIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	// Prefer header
	if id := r.Header.Get(HeaderTraceID); id != "" {
		return id
	}
	return TraceIDFromContext(r.Context())
}

// TraceIDFromContext returns the trace ID stored by WithTraceID.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(traceKey).(string); ok {
		return s
	}
	return ""
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey, id)
}

// TraceMiddleware generates or propagates a request ID for each request and
// echoes it on the response, success or failure.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderTraceID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderTraceID, id)
		next.ServeHTTP(w, r.WithContext(WithTraceID(r.Context(), id)))
	})
}

// PropagateTraceID copies the request ID carried by ctx onto an outgoing
// request, so the downstream service logs under the same ID.
func PropagateTraceID(ctx context.Context, out *http.Request) {
	if id := TraceIDFromContext(ctx); id != "" && out.Header.Get(HeaderTraceID) == "" {
		out.Header.Set(HeaderTraceID, id)
	}
}
