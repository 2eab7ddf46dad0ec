package observability

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// Audit emits one structured log line per admin-facing mutation. Identity
// tokens and hashes must never appear in the attrs.
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(r.Context()),
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		base = append(base,
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
		)
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), "audit", base...)
}
