package middleware

import (
	"net/http"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/resilience"
)

// AdmissionConfig bounds the work a server takes on. Limiter turns away
// callers above the sustained request rate; Bulkhead caps concurrent
// in-flight requests. Either may be nil to skip that check.
type AdmissionConfig struct {
	Limiter  *resilience.RateLimiter
	Bulkhead *resilience.Bulkhead
	// GuardPaths limits admission control to these paths. Empty guards
	// every path.
	GuardPaths []string
}

// Admission rejects requests the server cannot take on: 429 above the
// rate limit, 503 when every concurrency slot is held.
func Admission(cfg AdmissionConfig) Middleware {
	guarded := func(path string) bool {
		if len(cfg.GuardPaths) == 0 {
			return true
		}
		for _, p := range cfg.GuardPaths {
			if p == path {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !guarded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if cfg.Limiter != nil && !cfg.Limiter.Allow() {
				writeError(w, errors.RateLimited())
				return
			}
			if cfg.Bulkhead != nil {
				if err := cfg.Bulkhead.Execute(r.Context(), func() error {
					next.ServeHTTP(w, r)
					return nil
				}); err != nil {
					writeError(w, errors.ServiceUnavailable("server"))
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
