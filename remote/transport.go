package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/httpclient"
	"github.com/docpack/pipekit/security"
	"github.com/docpack/pipekit/wire"
)

// Transport carries wire messages to a serving endpoint. Both
// implementations speak the same protocol; only the medium differs.
type Transport interface {
	// ServiceInfo performs the handshake query against the endpoint.
	ServiceInfo(ctx context.Context) (*wire.ServiceInfo, error)
	// Process submits one input unit and returns the processed result.
	Process(ctx context.Context, req *wire.ProcessRequest) (*wire.ProcessResponse, error)
}

// TransportConfig configures an HTTP transport to a serving endpoint.
type TransportConfig struct {
	// Address is the endpoint base URL.
	Address string
	// Timeout bounds each call. Zero applies the client default.
	Timeout time.Duration
	// Token enables bearer authentication when non-empty.
	Token string
	// TLS configures transport security.
	TLS *security.TLSConfig
}

// HTTPTransport reaches a serving endpoint over the network. Calls honor
// the configured timeout and non-2xx statuses come back as classified
// errors; retry policy is the caller's concern.
type HTTPTransport struct {
	client *httpclient.Client
}

// NewHTTPTransport creates a transport dialing the given endpoint.
func NewHTTPTransport(cfg TransportConfig) (*HTTPTransport, error) {
	if cfg.Address == "" {
		return nil, errors.Configuration("remote transport", "address is required")
	}
	clientCfg := httpclient.Config{
		BaseURL: cfg.Address,
		Timeout: cfg.Timeout,
		TLS:     cfg.TLS,
	}
	if cfg.Token != "" {
		clientCfg.Auth = httpclient.BearerAuth(cfg.Token)
	}
	client, err := httpclient.New(clientCfg)
	if err != nil {
		return nil, err
	}
	return &HTTPTransport{client: client}, nil
}

func (t *HTTPTransport) ServiceInfo(ctx context.Context) (*wire.ServiceInfo, error) {
	resp, err := t.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   wire.PathService,
	})
	if err != nil {
		return nil, err
	}
	var env wire.DataEnvelope[wire.ServiceInfo]
	if err := resp.DecodeJSON(&env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (t *HTTPTransport) Process(ctx context.Context, req *wire.ProcessRequest) (*wire.ProcessResponse, error) {
	resp, err := t.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   wire.PathProcess,
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	var env wire.DataEnvelope[wire.ProcessResponse]
	if err := resp.DecodeJSON(&env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// LoopbackTransport dispatches wire calls directly into an in-process
// handler: full marshalling and status classification, no socket. The
// handler runs synchronously, so call timeouts are not enforced.
type LoopbackTransport struct {
	handler http.Handler
}

// NewLoopbackTransport wraps an endpoint handler for in-process dispatch.
func NewLoopbackTransport(h http.Handler) *LoopbackTransport {
	return &LoopbackTransport{handler: h}
}

func (t *LoopbackTransport) ServiceInfo(ctx context.Context) (*wire.ServiceInfo, error) {
	var env wire.DataEnvelope[wire.ServiceInfo]
	if err := t.roundTrip(ctx, http.MethodGet, wire.PathService, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (t *LoopbackTransport) Process(ctx context.Context, req *wire.ProcessRequest) (*wire.ProcessResponse, error) {
	var env wire.DataEnvelope[wire.ProcessResponse]
	if err := t.roundTrip(ctx, http.MethodPost, wire.PathProcess, req, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (t *LoopbackTransport) roundTrip(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.InvalidInput("body", err.Error()).WithCause(err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return errors.InvalidInput("request", err.Error()).WithCause(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	buf := newResponseBuffer()
	t.handler.ServeHTTP(buf, req)

	if err := httpclient.ClassifyStatus(buf.status, buf.body.Bytes()); err != nil {
		return err
	}
	if err := json.Unmarshal(buf.body.Bytes(), out); err != nil {
		return errors.InvalidFormat("response body", "JSON").WithCause(err)
	}
	return nil
}

// responseBuffer captures a handler's response in memory.
type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header), status: http.StatusOK}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *responseBuffer) WriteHeader(status int) { b.status = status }
