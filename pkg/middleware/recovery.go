package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "cabins/pkg/errors"
	"cabins/pkg/logger"
)

func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("Panic recovered",
						"request_id", RequestID(r.Context()),
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeRejection(w, apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", rec)))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeRejection answers for the middleware chain in the same body shape the
// handlers use.
func writeRejection(w http.ResponseWriter, err *apperrors.AppError) {
	_ = apperrors.WriteError(w, err)
}
