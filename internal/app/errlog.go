package app

import (
	"context"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tradepost-erp/tradepost/internal/syslog"
)

// ErrorSink records unexpected request failures for later inspection.
type ErrorSink interface {
	Record(ctx context.Context, level, logType, message string, meta map[string]any) error
}

// ErrorLogMiddleware writes a system log entry for every response that ends in
// a server error, so 500s leave a trace beyond the process log.
func ErrorLogMiddleware(sink ErrorSink, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sink == nil {
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status < http.StatusInternalServerError {
				return
			}
			err := sink.Record(r.Context(), syslog.LevelError, "http",
				r.Method+" "+r.URL.Path+" failed", map[string]any{
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     rec.status,
					"request_id": chimw.GetReqID(r.Context()),
				})
			if err != nil {
				logger.Warn("record request failure", slog.Any("error", err))
			}
		})
	}
}

type statusCapture struct {
	http.ResponseWriter
	status int
}

func (c *statusCapture) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}
