// Package servetest provides helpers for testing against serving
// endpoints: an in-process handler for socketless test-mode calls and an
// httptest-backed server for socket-level tests.
package servetest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/docpack/pipekit/pipeline"
	"github.com/docpack/pipekit/processor"
	"github.com/docpack/pipekit/reader"
	"github.com/docpack/pipekit/serve"
	"github.com/docpack/pipekit/wire"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Stage pairs a processor with its configuration for Pipeline.
type Stage struct {
	Proc   processor.Processor
	Config processor.Config
}

// Pipeline assembles and initializes a pipeline from the given reader and
// stages, failing the test on any error.
func Pipeline(t *testing.T, r reader.Reader, rcfg processor.Config, stages ...Stage) *pipeline.Pipeline {
	t.Helper()
	p := pipeline.New()
	if err := p.SetReader(r, rcfg); err != nil {
		t.Fatalf("SetReader() error = %v", err)
	}
	for _, st := range stages {
		if err := p.Add(st.Proc, st.Config); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if err := p.Initialize(t.Context()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return p
}

// Endpoint wraps the pipeline in a serving endpoint, failing the test on
// any error.
func Endpoint(t *testing.T, pipe *pipeline.Pipeline, name string, format wire.InputFormat, opts ...serve.EndpointOption) *serve.Endpoint {
	t.Helper()
	ep, err := serve.NewEndpoint(pipe, name, format, opts...)
	if err != nil {
		t.Fatalf("NewEndpoint() error = %v", err)
	}
	return ep
}

// Handle returns an in-process handler for the served pipeline, the value
// a remote processor's SetTestHandle expects.
func Handle(t *testing.T, pipe *pipeline.Pipeline, name string, format wire.InputFormat, opts ...serve.EndpointOption) http.Handler {
	t.Helper()
	return Endpoint(t, pipe, name, format, opts...).Handler()
}

// Start serves the endpoint over a real socket on a random local port and
// closes it when the test finishes. Use it for transport-level tests; use
// Handle for everything else.
func Start(t *testing.T, ep *serve.Endpoint) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(ep.Handler())
	t.Cleanup(ts.Close)
	return ts
}
