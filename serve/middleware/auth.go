package middleware

import (
	"net/http"
	"strings"

	"github.com/docpack/pipekit/auth"
	"github.com/docpack/pipekit/auth/authctx"
	"github.com/docpack/pipekit/errors"
)

// AuthConfig configures the bearer-token authentication middleware.
type AuthConfig struct {
	// Validator validates a token string and returns the parsed claims.
	Validator auth.TokenValidator
	// SkipPaths are URL path prefixes that bypass authentication, such as
	// the handshake and health routes.
	SkipPaths []string
}

// Auth returns middleware that validates Bearer tokens using the
// configured validator. Rejections are rendered through the standard
// error envelope.
func Auth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.SkipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, errors.Unauthorized("authorization header required"))
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, errors.Unauthorized("invalid authorization header format"))
				return
			}
			claims, err := cfg.Validator.ValidateToken(parts[1])
			if err != nil {
				writeError(w, errors.InvalidToken().WithCause(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(authctx.Set(r.Context(), claims)))
		})
	}
}
