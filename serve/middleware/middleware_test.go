package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docpack/pipekit/auth"
	"github.com/docpack/pipekit/auth/authctx"
	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/logger"
	"github.com/docpack/pipekit/resilience"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mw("outer"), mw("inner"))(okHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("order = %v, want [outer inner]", order)
	}
}

func TestRequestIDGeneratesAndKeeps(t *testing.T) {
	h := RequestID()(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("no request ID generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "caller-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != "caller-id" {
		t.Errorf("request ID = %q, want caller-id", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := &CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}
	h := CORS(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("allow-origin = %q, want the request origin", got)
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	cfg := &CORSConfig{AllowedOrigins: []string{"http://allowed.example"}}
	h := CORS(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://other.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q, want empty for disallowed origin", got)
	}
}

func TestBodySizeLimit(t *testing.T) {
	h := BodySizeLimit("10B")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	if rec.Code != http.StatusOK {
		t.Errorf("small body status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body status = %d, want 413", rec.Code)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10MB", 10 * 1024 * 1024},
		{"512KB", 512 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"64", 64},
		{"64B", 64},
		{"", defaultMaxBodySize},
		{"nonsense", defaultMaxBodySize},
		{"-5MB", defaultMaxBodySize},
	}
	for _, tt := range tests {
		if got := parseSize(tt.in, defaultMaxBodySize); got != tt.want {
			t.Errorf("parseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	h := Recovery(logger.NewDefault("mw-test"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp errors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error.Code != errors.ErrCodeInternal {
		t.Errorf("error code = %s, want %s", resp.Error.Code, errors.ErrCodeInternal)
	}
}

func TestAuthBearerFlow(t *testing.T) {
	tokens, err := auth.ServiceTokens(&auth.Config{Secret: "mw-secret"})
	if err != nil {
		t.Fatalf("ServiceTokens() error = %v", err)
	}
	h := Auth(AuthConfig{
		Validator: auth.NewValidator(tokens.ValidatorFunc()),
		SkipPaths: []string{"/open"},
	})(okHandler())

	// Skipped path needs no token.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("skip path status = %d, want 200", rec.Code)
	}

	// Missing header.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header status = %d, want 401", rec.Code)
	}

	// Malformed header.
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("malformed header status = %d, want 401", rec.Code)
	}

	// Bad token.
	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}

	// Valid token: request passes and claims land in the context.
	var gotClaims *auth.ServiceClaims
	claimsCheck := Auth(AuthConfig{
		Validator: auth.NewValidator(tokens.ValidatorFunc()),
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = authctx.Get[*auth.ServiceClaims](r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, err := tokens.Issue(&auth.ServiceClaims{Service: "caller"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	claimsCheck.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", rec.Code)
	}
	if gotClaims == nil || gotClaims.Service != "caller" {
		t.Errorf("context claims = %+v, want svc caller", gotClaims)
	}
}

func TestAdmissionRateLimit(t *testing.T) {
	h := Admission(AdmissionConfig{
		Limiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{Name: "test", Rate: 0.01, Burst: 1}),
	})(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	var resp errors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error.Code != errors.ErrCodeRateLimited {
		t.Errorf("error code = %s, want %s", resp.Error.Code, errors.ErrCodeRateLimited)
	}
}

func TestAdmissionGuardPaths(t *testing.T) {
	h := Admission(AdmissionConfig{
		Limiter:    resilience.NewRateLimiter(resilience.RateLimiterConfig{Name: "test", Rate: 0.01, Burst: 1}),
		GuardPaths: []string{"/process"},
	})(okHandler())

	// Exhaust the single-token bucket with one guarded request.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first guarded request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("guarded path status = %d, want 429", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/service", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("unguarded path status = %d, want 200", rec.Code)
	}
}

func TestAdmissionBulkheadFull(t *testing.T) {
	h := Admission(AdmissionConfig{
		Bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{Name: "test", MaxConcurrent: 1}),
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		w.WriteHeader(http.StatusOK)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodPost, "/process", nil).WithContext(ctx)
		close(started)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}()
	<-started
	// Give the holder a moment to take the only slot.
	time.Sleep(10 * time.Millisecond)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("second request status = %d, want 503", rec.Code)
	}
	var resp errors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error.Code != errors.ErrCodeServiceUnavailable {
		t.Errorf("error code = %s, want %s", resp.Error.Code, errors.ErrCodeServiceUnavailable)
	}

	cancel()
	<-done
}
