package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID is the request ID header propagated on every request and
// response.
const HeaderRequestID = "X-Request-Id"

// RequestID injects a unique request ID header into every request and
// response, keeping an ID the caller already supplied.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.New().String()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r)
		})
	}
}
