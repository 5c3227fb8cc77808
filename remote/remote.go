package remote

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/httpclient"
	"github.com/docpack/pipekit/logger"
	"github.com/docpack/pipekit/pack"
	"github.com/docpack/pipekit/processor"
	"github.com/docpack/pipekit/resilience"
	"github.com/docpack/pipekit/security"
	"github.com/docpack/pipekit/wire"
)

// Kind is the registry identifier for remote processors.
const Kind = "remote"

// State is the processor's lifecycle state. Failed is terminal: a
// processor that failed its handshake or a dispatch never accepts
// another pack.
type State string

const (
	StateUnconfigured State = "unconfigured"
	StateInitializing State = "initializing"
	StateReady        State = "ready"
	StateDispatching  State = "dispatching"
	StateFailed       State = "failed"
)

// ValidationOptions gates handshake-time schema adoption.
type ValidationOptions struct {
	// TypeCheck adopts the endpoint's declared schemas as this stage's
	// expected and output schemas, so the enclosing pipeline validates
	// the remote stage exactly like a local one.
	TypeCheck bool `mapstructure:"type_check"`
}

// RetryOptions is the opt-in handshake retry budget. Dispatch calls are
// never retried.
type RetryOptions struct {
	// Attempts is the total attempt budget. Zero or one means a single
	// attempt.
	Attempts int `mapstructure:"attempts"`
	// Backoff is the initial delay between attempts. Defaults to 500ms.
	Backoff time.Duration `mapstructure:"backoff"`
}

// Options configures a remote processor stage.
type Options struct {
	// Address is the serving endpoint base URL. Required unless a test
	// handle is set.
	Address string `mapstructure:"address"`
	// ExpectedName is the service name the endpoint must advertise.
	// Empty skips the identity check.
	ExpectedName string `mapstructure:"expected_name"`
	// InputFormat is the wire format the endpoint must accept ("pack" or
	// "text"). Empty adopts whatever the endpoint advertises.
	InputFormat string `mapstructure:"input_format"`
	// Timeout bounds each endpoint call. Defaults to the HTTP client's 30s.
	Timeout time.Duration `mapstructure:"timeout"`
	// Token enables bearer authentication against the endpoint.
	Token string `mapstructure:"token"`
	// TLS configures transport security.
	TLS *security.TLSConfig `mapstructure:"tls"`

	Validation     ValidationOptions `mapstructure:"validation"`
	HandshakeRetry RetryOptions      `mapstructure:"handshake_retry"`
}

// Processor delegates its work to a serving endpoint. Initialize
// performs the identity/schema handshake; Process marshals the pack per
// the negotiated format, dispatches it, and replaces the local pack with
// the returned result. A transport failure fails the stage permanently
// and leaves the in-flight pack untouched.
type Processor struct {
	mu         sync.Mutex
	state      State
	inFlight   int
	opts       Options
	wantFormat wire.InputFormat
	transport  Transport
	testHandle http.Handler

	// negotiated during the handshake
	serviceName string
	format      wire.InputFormat
	expected    pack.Schema
	output      pack.Schema

	log *logger.Logger
}

// New creates an unconfigured remote processor.
func New() *Processor {
	return &Processor{
		state: StateUnconfigured,
		log:   logger.WithComponent("remote"),
	}
}

// Kind returns the registry identifier.
func (p *Processor) Kind() string { return Kind }

// Name identifies the stage by the service it fronts.
func (p *Processor) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opts.ExpectedName != "" {
		return p.opts.ExpectedName
	}
	return Kind
}

// State reports the processor's lifecycle state.
func (p *Processor) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetTestHandle routes all calls through the given endpoint handler
// in-process instead of the network. Full handshake, validation and
// marshalling still run. Must be set before the pipeline initializes.
func (p *Processor) SetTestHandle(h http.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.testHandle = h
}

// Configure decodes options and builds the transport. The handshake
// itself happens in Initialize.
func (p *Processor) Configure(cfg processor.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateUnconfigured {
		return errors.InvalidState("configure remote processor", string(p.state))
	}

	opts := Options{}
	if err := processor.Decode(Kind, cfg, &opts); err != nil {
		return err
	}

	if opts.InputFormat != "" {
		f, err := wire.ParseFormat(opts.InputFormat)
		if err != nil {
			return errors.Configuration(Kind, err.Error()).WithCause(err)
		}
		p.wantFormat = f
	}
	if opts.HandshakeRetry.Attempts < 0 {
		return errors.Configuration(Kind, "handshake_retry.attempts must not be negative")
	}
	if opts.HandshakeRetry.Backoff == 0 {
		opts.HandshakeRetry.Backoff = 500 * time.Millisecond
	}

	if p.testHandle != nil {
		p.transport = NewLoopbackTransport(p.testHandle)
	} else {
		if opts.Address == "" {
			return errors.Configuration(Kind, "address is required unless a test handle is set")
		}
		t, err := NewHTTPTransport(TransportConfig{
			Address: opts.Address,
			Timeout: opts.Timeout,
			Token:   opts.Token,
			TLS:     opts.TLS,
		})
		if err != nil {
			return err
		}
		p.transport = t
	}

	p.opts = opts
	return nil
}

// Initialize performs the handshake: queries the endpoint's identity and
// schemas, verifies them against expectations, and adopts the advertised
// schemas when type checking is on. Any failure is fatal; no pack is
// ever dispatched after a failed handshake.
func (p *Processor) Initialize(ctx context.Context) error {
	p.mu.Lock()
	if p.transport == nil {
		p.mu.Unlock()
		return errors.Configuration(Kind, "not configured")
	}
	if p.state != StateUnconfigured {
		p.mu.Unlock()
		return errors.InvalidState("initialize remote processor", string(p.state))
	}
	p.state = StateInitializing
	p.mu.Unlock()

	info, err := p.handshake(ctx)
	if err != nil {
		p.fail()
		return handshakeFailure(err)
	}

	if p.opts.ExpectedName != "" && info.ServiceName != p.opts.ExpectedName {
		p.fail()
		return errors.RemoteValidation("service_name", p.opts.ExpectedName, info.ServiceName)
	}
	if !info.InputFormat.Valid() {
		p.fail()
		return errors.RemoteValidation("input_format", "pack or text", string(info.InputFormat))
	}
	if p.wantFormat != "" && info.InputFormat != p.wantFormat {
		p.fail()
		return errors.RemoteValidation("input_format", string(p.wantFormat), string(info.InputFormat))
	}

	p.mu.Lock()
	p.serviceName = info.ServiceName
	p.format = info.InputFormat
	if p.opts.Validation.TypeCheck {
		p.expected = info.Expectation.Clone()
		p.output = info.Output.Clone()
	}
	p.state = StateReady
	p.mu.Unlock()

	p.log.Info("handshake complete", logger.Fields(
		logger.FieldService, info.ServiceName,
		"input_format", string(info.InputFormat),
		"type_check", p.opts.Validation.TypeCheck,
	))
	return nil
}

// handshake queries the endpoint, retrying per the opt-in budget. Only
// retryable failures, such as a service still coming up, are attempted
// again.
func (p *Processor) handshake(ctx context.Context) (*wire.ServiceInfo, error) {
	if p.opts.HandshakeRetry.Attempts <= 1 {
		return p.transport.ServiceInfo(ctx)
	}
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = p.opts.HandshakeRetry.Attempts
	cfg.InitialBackoff = p.opts.HandshakeRetry.Backoff
	cfg.RetryIf = httpclient.IsRetryable
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		p.log.Warn("handshake attempt failed, retrying", logger.MergeWithError(logger.Fields(
			"attempt", attempt,
			"backoff", backoff.String(),
		), err))
	}
	return resilience.Retry(ctx, cfg, func() (*wire.ServiceInfo, error) {
		return p.transport.ServiceInfo(ctx)
	})
}

// handshakeFailure maps endpoint rejections to remote validation errors.
// Connection-level failures keep their transport classification.
func handshakeFailure(err error) error {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return err
	}
	switch appErr.Code {
	case errors.ErrCodeTimeout, errors.ErrCodeConnectionFailed:
		return err
	case errors.ErrCodeInvalidFormat:
		return errors.RemoteValidation("handshake", "service info", "malformed response").WithCause(appErr)
	}
	if status, hasStatus := appErr.Details["status"]; hasStatus {
		return errors.RemoteValidation("handshake", "service info", fmt.Sprintf("HTTP %v", status)).WithCause(appErr)
	}
	return err
}

// ExpectedSchema is the endpoint's declared expectation, adopted during
// the handshake when type checking is on.
func (p *Processor) ExpectedSchema() pack.Schema {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.expected == nil {
		return pack.NewSchema()
	}
	return p.expected
}

// OutputSchema is the endpoint's declared output, adopted during the
// handshake when type checking is on.
func (p *Processor) OutputSchema() pack.Schema {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.output == nil {
		return pack.NewSchema()
	}
	return p.output
}

// Process dispatches the pack to the endpoint and replaces it in place
// with the processed result. On any transport or serialization failure
// the pack keeps its pre-call state and the stage fails permanently.
func (p *Processor) Process(ctx context.Context, pk *pack.Pack) error {
	if err := p.beginDispatch(); err != nil {
		return err
	}
	err := p.dispatch(ctx, pk)
	p.endDispatch(err)
	return err
}

func (p *Processor) dispatch(ctx context.Context, pk *pack.Pack) error {
	payload, err := p.marshalPack(pk)
	if err != nil {
		return errors.Transport("encode pack", err)
	}

	resp, err := p.transport.Process(ctx, &wire.ProcessRequest{Payload: payload})
	if err != nil {
		return errors.Transport("process call", err)
	}

	result, err := pack.Deserialize(resp.Result)
	if err != nil {
		return errors.Transport("decode result pack", err)
	}

	pk.Replace(result)
	return nil
}

// marshalPack renders the pack per the negotiated wire format.
func (p *Processor) marshalPack(pk *pack.Pack) (string, error) {
	if p.format == wire.FormatText {
		return pk.Text(), nil
	}
	return pk.Serialize()
}

// beginDispatch moves ready to dispatching. Concurrent packs share the
// dispatching state through an in-flight count.
func (p *Processor) beginDispatch() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateReady, StateDispatching:
		p.inFlight++
		p.state = StateDispatching
		return nil
	default:
		return errors.InvalidState("dispatch pack", string(p.state))
	}
}

// endDispatch returns to ready, or to failed when the dispatch errored.
func (p *Processor) endDispatch(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight--
	if err != nil {
		p.state = StateFailed
		return
	}
	if p.state == StateDispatching && p.inFlight == 0 {
		p.state = StateReady
	}
}

func (p *Processor) fail() {
	p.mu.Lock()
	p.state = StateFailed
	p.mu.Unlock()
}
