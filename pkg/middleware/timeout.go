package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	apperrors "cabins/pkg/errors"
	"cabins/pkg/logger"
)

// guardedWriter drops writes from the handler once the deadline has fired,
// so the timeout response and a late handler response never interleave.
type guardedWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	expired  bool
	answered bool
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired || g.answered {
		return
	}
	g.answered = true
	g.ResponseWriter.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired {
		return 0, http.ErrHandlerTimeout
	}
	g.answered = true
	return g.ResponseWriter.Write(b)
}

// expire marks the writer dead and reports whether the handler had not
// answered yet.
func (g *guardedWriter) expire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expired = true
	return !g.answered
}

// RequestTimeout bounds how long a client waits for a response. Reservation
// writes run detached from this deadline, so a timed-out response does not
// imply the write was abandoned.
func RequestTimeout(timeout time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			gw := &guardedWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if gw.expire() {
					log.Warn("Request timed out",
						"request_id", RequestID(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout,
					)
					writeRejection(w, apperrors.Transient("Request timeout", ctx.Err()))
				}
			}
		})
	}
}
