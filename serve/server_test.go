package serve_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/docpack/pipekit/auth"
	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/logger"
	"github.com/docpack/pipekit/serve"
	"github.com/docpack/pipekit/wire"
)

func testServer(t *testing.T, cfg serve.Config) *serve.Server {
	t.Helper()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	srv, err := serve.NewServer(cfg, textEndpoint(t), logger.NewDefault("serve-test"))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return srv
}

func TestServerServesHandshake(t *testing.T) {
	srv := testServer(t, serve.Config{})

	resp, err := http.Get("http://" + srv.Addr() + wire.PathService)
	if err != nil {
		t.Fatalf("GET /service error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if id := resp.Header.Get("X-Request-Id"); id == "" {
		t.Error("response missing X-Request-Id header")
	}

	body, _ := io.ReadAll(resp.Body)
	var env wire.DataEnvelope[wire.ServiceInfo]
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode handshake: %v", err)
	}
	if env.Data.ServiceName != "chat_service" {
		t.Errorf("service name = %q, want chat_service", env.Data.ServiceName)
	}
}

func TestServerDoubleStartFails(t *testing.T) {
	srv := testServer(t, serve.Config{})
	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("second Start() succeeded, want error")
	}
}

func TestServerStopIsGracefulAndIdempotent(t *testing.T) {
	srv := testServer(t, serve.Config{})
	addr := srv.Addr()

	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}

	if _, err := http.Get("http://" + addr + wire.PathService); err == nil {
		t.Error("server still accepting requests after Stop")
	}
}

func TestServerAuthGuardsProcessRoute(t *testing.T) {
	srv := testServer(t, serve.Config{
		Auth: serve.AuthConfig{Enabled: true, Secret: "test-secret", Issuer: "pipekit-test"},
	})
	base := "http://" + srv.Addr()

	// Handshake stays open.
	resp, err := http.Get(base + wire.PathService)
	if err != nil {
		t.Fatalf("GET /service error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unauthenticated handshake status = %d, want 200", resp.StatusCode)
	}

	body := `{"payload": "hi"}`

	// Process without a token is rejected.
	resp, err = http.Post(base+wire.PathProcess, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /process error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated process status = %d, want 401", resp.StatusCode)
	}

	// A minted service token opens it.
	tokens, err := auth.ServiceTokens(&auth.Config{Secret: "test-secret", Issuer: "pipekit-test"})
	if err != nil {
		t.Fatalf("ServiceTokens() error = %v", err)
	}
	token, err := tokens.Issue(&auth.ServiceClaims{Service: "caller"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, base+wire.PathProcess, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authenticated POST error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		t.Errorf("authenticated process status = %d, body = %s", resp.StatusCode, out)
	}
}

func TestServeRunsUntilCanceled(t *testing.T) {
	srv, err := serve.NewServer(serve.Config{Host: "127.0.0.1", Port: 0}, textEndpoint(t), logger.NewDefault("serve-test"))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	// Give Serve a moment to start the components, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
}

func TestServerRateLimitsProcessRoute(t *testing.T) {
	srv := testServer(t, serve.Config{
		Limits: serve.LimitsConfig{Enabled: true, Rate: 0.01, Burst: 1},
	})

	post := func() *http.Response {
		t.Helper()
		body := strings.NewReader(`{"payload": "hi"}`)
		resp, err := http.Post("http://"+srv.Addr()+wire.PathProcess, "application/json", body)
		if err != nil {
			t.Fatalf("POST /process error = %v", err)
		}
		return resp
	}

	resp := post()
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first call status = %d, want 200", resp.StatusCode)
	}

	resp = post()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second call status = %d, want 429", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	var errResp errors.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if errResp.Error.Code != errors.ErrCodeRateLimited {
		t.Errorf("error code = %s, want %s", errResp.Error.Code, errors.ErrCodeRateLimited)
	}

	// Only the process route is guarded; the handshake stays open.
	hresp, err := http.Get("http://" + srv.Addr() + wire.PathService)
	if err != nil {
		t.Fatalf("GET /service error = %v", err)
	}
	hresp.Body.Close()
	if hresp.StatusCode != http.StatusOK {
		t.Errorf("handshake status = %d, want 200", hresp.StatusCode)
	}
}

func TestServerStartupSummary(t *testing.T) {
	srv := testServer(t, serve.Config{})

	reg := srv.Components()
	if got := len(reg.Stages()); got != 2 {
		t.Errorf("registered stages = %d, want 2", got)
	}
	if len(reg.Readers()) != 1 {
		t.Errorf("registered readers = %d, want 1", len(reg.Readers()))
	}
	if len(reg.Handlers()) == 0 {
		t.Error("no routes registered at startup")
	}
	var foundHTTP bool
	for _, ic := range reg.Infrastructure() {
		if ic.Type == "server" && ic.Details == srv.Addr() {
			foundHTTP = true
		}
	}
	if !foundHTTP {
		t.Errorf("http server not registered with bound address %s", srv.Addr())
	}
}
