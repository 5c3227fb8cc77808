package httpclient

import (
	"fmt"
	"net/http"

	"github.com/docpack/pipekit/errors"
)

// ClassifyStatus converts a non-2xx HTTP status into a structured error,
// with the status and a body snippet attached for diagnosis. Returns nil
// for 2xx status codes.
func ClassifyStatus(status int, body []byte) *errors.AppError {
	var e *errors.AppError
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		e = errors.Unauthorized(fmt.Sprintf("remote returned HTTP %d", status))
	case status == http.StatusForbidden:
		e = errors.Forbidden(fmt.Sprintf("remote returned HTTP %d", status))
	case status == http.StatusNotFound:
		e = errors.NotFound("remote endpoint", "")
	case status == http.StatusTooManyRequests || status >= 500:
		e = errors.ServiceUnavailable("remote service")
	default:
		e = errors.Validation(fmt.Sprintf("remote rejected the request with HTTP %d", status))
	}
	e = e.WithDetail("status", status)
	if len(body) > 0 {
		e = e.WithDetail("response", bodySnippet(body))
	}
	return e
}

// bodySnippet keeps error details readable when a remote returns a
// large or binary body.
func bodySnippet(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// IsRetryable reports whether err carries a retryable classification:
// timeouts, connection failures, rate limiting and 5xx responses
// qualify; validation and auth failures do not.
func IsRetryable(err error) bool {
	appErr, ok := errors.AsAppError(err)
	return ok && appErr.Retryable
}
