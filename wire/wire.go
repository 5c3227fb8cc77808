// Package wire defines the messages exchanged between a remote processor
// and a serving endpoint: the identity/schema handshake and the process
// call. Both sides share these types so the protocol cannot drift.
package wire

import (
	"fmt"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/pack"
)

// InputFormat says how a process payload is marshalled on the wire.
type InputFormat string

const (
	// FormatPack sends the fully serialized pack; the endpoint restores
	// it, processes it and returns the result in the same form.
	FormatPack InputFormat = "pack"
	// FormatText sends raw text the endpoint wraps into a fresh pack.
	FormatText InputFormat = "text"
)

// ParseFormat validates a wire format identifier.
func ParseFormat(s string) (InputFormat, error) {
	switch f := InputFormat(s); f {
	case FormatPack, FormatText:
		return f, nil
	}
	return "", errors.InvalidInput("input_format",
		fmt.Sprintf("unknown input format %q, want %q or %q", s, FormatPack, FormatText))
}

// Valid reports whether the format is a known wire format.
func (f InputFormat) Valid() bool {
	return f == FormatPack || f == FormatText
}

// ServiceInfo is the handshake payload: the endpoint's identity plus the
// wrapped pipeline's effective input and output schemas.
type ServiceInfo struct {
	ServiceName string      `json:"service_name"`
	InputFormat InputFormat `json:"input_format"`
	Expectation pack.Schema `json:"expectation"`
	Output      pack.Schema `json:"output"`
}

// ProcessRequest carries one input unit to an endpoint: a serialized
// pack or raw text, per the endpoint's input format.
type ProcessRequest struct {
	Payload string `json:"payload"`
}

// ProcessResponse carries the processed pack back in serialized form.
type ProcessResponse struct {
	Result string `json:"result"`
}

// DataEnvelope mirrors the endpoint's success wrapper. Clients decode
// response bodies through it.
type DataEnvelope[T any] struct {
	Data T `json:"data"`
}

// Routes served by an endpoint and dialed by remote processors.
const (
	PathService = "/service"
	PathProcess = "/process"
)
