package observability

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Audit emits one structured line per security-relevant action. All lines
// share the "audit" message so downstream filters can pick them out of the
// request log stream.
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(r.Context()),
		"remote", r.RemoteAddr,
	}
	slog.InfoContext(r.Context(), "audit", append(base, attrs...)...)
}
