package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/pack"
	"github.com/docpack/pipekit/wire"
)

func TestHTTPTransportHandshake(t *testing.T) {
	fake := newFakeEndpoint()
	fake.expect = pack.NewSchema().Add("Token", "pos")
	fake.output = pack.NewSchema().Add(pack.TypeUtterance, pack.AttrSpeaker)

	server := httptest.NewServer(fake)
	defer server.Close()

	tr, err := NewHTTPTransport(TransportConfig{Address: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	info, err := tr.ServiceInfo(context.Background())
	if err != nil {
		t.Fatalf("ServiceInfo() error = %v", err)
	}
	if info.ServiceName != fake.name {
		t.Errorf("service name = %q, want %q", info.ServiceName, fake.name)
	}
	if info.InputFormat != wire.FormatPack {
		t.Errorf("input format = %q, want %q", info.InputFormat, wire.FormatPack)
	}
	if !info.Expectation.Equal(fake.expect) {
		t.Errorf("expectation = %v, want %v", info.Expectation, fake.expect)
	}
	if !info.Output.Equal(fake.output) {
		t.Errorf("output = %v, want %v", info.Output, fake.output)
	}
}

func TestHTTPTransportProcess(t *testing.T) {
	fake := newFakeEndpoint()
	server := httptest.NewServer(fake)
	defer server.Close()

	tr, err := NewHTTPTransport(TransportConfig{Address: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	in := pack.New()
	in.SetText("hello")
	payload, err := in.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	resp, err := tr.Process(context.Background(), &wire.ProcessRequest{Payload: payload})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	out, err := pack.Deserialize(resp.Result)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if out.ID() != in.ID() {
		t.Error("processed pack should keep the input pack's ID")
	}
	if _, ok := pack.LastUtterance(out, pack.SpeakerAI); !ok {
		t.Error("processed pack should carry the endpoint's reply")
	}
}

func TestHTTPTransportSendsBearerToken(t *testing.T) {
	fake := newFakeEndpoint()
	server := httptest.NewServer(fake)
	defer server.Close()

	tr, err := NewHTTPTransport(TransportConfig{Address: server.URL, Token: "svc-token"})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}
	if _, err := tr.ServiceInfo(context.Background()); err != nil {
		t.Fatalf("ServiceInfo() error = %v", err)
	}
	if fake.lastAuth != "Bearer svc-token" {
		t.Errorf("Authorization = %q, want bearer token", fake.lastAuth)
	}
}

func TestHTTPTransportClassifiesStatus(t *testing.T) {
	fake := newFakeEndpoint()
	fake.processStatus = http.StatusInternalServerError
	server := httptest.NewServer(fake)
	defer server.Close()

	tr, err := NewHTTPTransport(TransportConfig{Address: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	_, err = tr.Process(context.Background(), &wire.ProcessRequest{Payload: "{}"})
	assertErrorCode(t, err, errors.ErrCodeServiceUnavailable)
}

func TestHTTPTransportRequiresAddress(t *testing.T) {
	_, err := NewHTTPTransport(TransportConfig{})
	assertErrorCode(t, err, errors.ErrCodeConfiguration)
}

func TestLoopbackTransportHandshake(t *testing.T) {
	fake := newFakeEndpoint()
	tr := NewLoopbackTransport(fake)

	info, err := tr.ServiceInfo(context.Background())
	if err != nil {
		t.Fatalf("ServiceInfo() error = %v", err)
	}
	if info.ServiceName != fake.name {
		t.Errorf("service name = %q, want %q", info.ServiceName, fake.name)
	}
	if fake.serviceCalls.Load() != 1 {
		t.Errorf("service calls = %d, want 1", fake.serviceCalls.Load())
	}
}

func TestLoopbackTransportProcess(t *testing.T) {
	fake := newFakeEndpoint()
	tr := NewLoopbackTransport(fake)

	in := pack.New()
	in.SetText("hi")
	payload, err := in.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	resp, err := tr.Process(context.Background(), &wire.ProcessRequest{Payload: payload})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	out, err := pack.Deserialize(resp.Result)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := pack.LastUtterance(out, pack.SpeakerAI); !ok {
		t.Error("processed pack should carry the endpoint's reply")
	}
}

func TestLoopbackTransportClassifiesStatus(t *testing.T) {
	fake := newFakeEndpoint()
	fake.serviceStatus = http.StatusNotFound
	tr := NewLoopbackTransport(fake)

	_, err := tr.ServiceInfo(context.Background())
	assertErrorCode(t, err, errors.ErrCodeNotFound)
}

func TestLoopbackTransportMalformedResponse(t *testing.T) {
	tr := NewLoopbackTransport(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))

	_, err := tr.ServiceInfo(context.Background())
	assertErrorCode(t, err, errors.ErrCodeInvalidFormat)
}
