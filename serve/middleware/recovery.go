package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/logger"
)

// Recovery returns middleware that recovers from handler panics, logs the
// stack, and responds with a generic internal error.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered", logger.Fields(
						logger.FieldError, fmt.Sprintf("%v", rec),
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
						"method", r.Method,
					))
					writeError(w, errors.Internal(fmt.Errorf("panic: %v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
