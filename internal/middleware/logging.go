// Package middleware holds the portal's custom HTTP middleware. Identity
// resolution lives in internal/auth, next to the token code it depends on;
// what's here is purely cross-cutting plumbing.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// statusRecorder wraps http.ResponseWriter to remember the status code and
// body size, which the standard interface doesn't expose after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += int64(n)
	return n, err
}

// RequestLogger logs one structured line per completed request: method,
// path, status, duration, response size, and the chi request id so a log
// line can be tied back to an X-Request-ID header.
//
// Request BODIES are never logged — login and signup bodies carry
// plaintext passwords.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				// Handlers that never call WriteHeader implicitly send 200.
				status: http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			logger.Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rec.bytes),
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
