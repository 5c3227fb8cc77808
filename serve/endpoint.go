package serve

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/docpack/pipekit/cache"
	"github.com/docpack/pipekit/component"
	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/logger"
	"github.com/docpack/pipekit/observability"
	"github.com/docpack/pipekit/pipeline"
	"github.com/docpack/pipekit/serve/middleware"
	"github.com/docpack/pipekit/validation"
	"github.com/docpack/pipekit/version"
	"github.com/docpack/pipekit/wire"
)

// Endpoint answers the wire protocol for exactly one initialized pipeline.
// The pipeline is bound for the endpoint's lifetime and is never
// reinitialized or reassembled while serving. Process calls are safe to
// run concurrently: each pulls its own pack from the pipeline's reader.
type Endpoint struct {
	name    string
	format  wire.InputFormat
	pipe    *pipeline.Pipeline
	store   *cache.ResultStore
	metrics *observability.Metrics
	engine  *gin.Engine
	log     *logger.Logger
}

// EndpointOption customizes an Endpoint at construction time.
type EndpointOption func(*Endpoint)

// WithResultCache caches process results keyed by (service, format,
// payload). Safe only when every stage is deterministic for a given input.
func WithResultCache(store *cache.ResultStore) EndpointOption {
	return func(e *Endpoint) {
		e.store = store
	}
}

// WithEndpointMetrics attaches request metric instruments.
func WithEndpointMetrics(m *observability.Metrics) EndpointOption {
	return func(e *Endpoint) {
		e.metrics = m
	}
}

// NewEndpoint wraps an initialized pipeline behind the wire protocol under
// the given service name and input format. The pipeline must already be
// initialized; an endpoint never drives initialization itself.
func NewEndpoint(pipe *pipeline.Pipeline, name string, format wire.InputFormat, opts ...EndpointOption) (*Endpoint, error) {
	if name == "" {
		return nil, errors.Configuration("endpoint", "service name is required")
	}
	if !format.Valid() {
		return nil, errors.Configuration("endpoint",
			"input format must be \"pack\" or \"text\" (got: "+string(format)+")")
	}
	if pipe == nil || !pipe.Initialized() {
		return nil, errors.InvalidState("create endpoint", "pipeline is not initialized")
	}

	e := &Endpoint{
		name:   name,
		format: format,
		pipe:   pipe,
		log:    logger.WithComponent("endpoint"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	e.engine = gin.New()
	e.engine.GET(wire.PathService, e.handleService)
	e.engine.POST(wire.PathProcess, e.handleProcess)
	e.engine.GET("/health", e.handleHealth)
	e.engine.GET("/info", e.handleInfo)
	return e, nil
}

// Name returns the advertised service name.
func (e *Endpoint) Name() string { return e.name }

// InputFormat returns the accepted wire format.
func (e *Endpoint) InputFormat() wire.InputFormat { return e.format }

// Handler returns the endpoint's HTTP handler. Hand it to a remote
// processor's SetTestHandle for socketless in-process calls, or to a
// Server for network serving.
func (e *Endpoint) Handler() http.Handler { return e.engine }

// handleService answers the identity/schema handshake with the service
// name, accepted input format, and the wrapped pipeline's effective
// schemas.
func (e *Endpoint) handleService(c *gin.Context) {
	in, out, err := e.pipe.EffectiveSchemas()
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, wire.ServiceInfo{
		ServiceName: e.name,
		InputFormat: e.format,
		Expectation: in,
		Output:      out,
	})
}

// handleProcess runs one payload through the wrapped pipeline and returns
// the serialized result pack. The whole call is bracketed by one
// operation context: span, request-start and request-end metrics.
func (e *Endpoint) handleProcess(c *gin.Context) {
	oc := observability.NewOperationContext(e.name, c.Request.Method+" "+c.FullPath(),
		c.Writer.Header().Get(middleware.HeaderRequestID), e.metrics)
	ctx, span := oc.StartSpanForOperation(c.Request.Context(), observability.SpanHTTPRequest)
	ctx = observability.WithOperationContext(ctx, oc)

	var req wire.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.InvalidInput("payload", "malformed process request").WithCause(err)
		oc.EndOperation(ctx, span, "invalid", appErr)
		RespondWithError(c, appErr)
		return
	}
	if err := validation.New().Required("payload", req.Payload).Validate(); err != nil {
		oc.EndOperation(ctx, span, "invalid", err)
		RespondWithError(c, err)
		return
	}

	if e.store != nil {
		key := e.store.Key(e.name, string(e.format), req.Payload)
		if cached, ok := e.store.Lookup(ctx, key); ok {
			oc.EndOperation(ctx, span, "cached", nil)
			RespondOK(c, wire.ProcessResponse{Result: cached})
			return
		}
	}

	pk, err := e.pipe.Process(ctx, req.Payload)
	if err != nil {
		oc.EndOperation(ctx, span, "error", err)
		e.log.Error("process call failed", logger.MergeWithError(logger.Fields(
			logger.FieldService, e.name,
		), err))
		RespondWithError(c, err)
		return
	}
	oc.PackID = pk.ID()

	result, err := pk.Serialize()
	if err != nil {
		oc.EndOperation(ctx, span, "error", err)
		RespondWithError(c, errors.Internal(err))
		return
	}

	if e.store != nil {
		e.store.Save(ctx, e.store.Key(e.name, string(e.format), req.Payload), result)
	}
	oc.EndOperation(ctx, span, "ok", nil)
	RespondOK(c, wire.ProcessResponse{Result: result})
}

// handleHealth reports the endpoint's health, folding in the wrapped
// pipeline and, when configured, the result cache.
func (e *Endpoint) handleHealth(c *gin.Context) {
	checkers := []observability.HealthChecker{e.pipe}
	sh := observability.CollectHealth(c.Request.Context(), e.name, version.GetShortVersion(), checkers...)
	if e.store != nil {
		ch := e.store.Health(c.Request.Context())
		h := observability.Health{Name: ch.Name, Status: observability.HealthStatusUp, Message: ch.Message}
		if ch.Status != component.StatusHealthy {
			// cache failures degrade to misses, never to downtime
			h.Status = observability.HealthStatusDegraded
		}
		sh.AddComponent(h)
	}
	httpStatus := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, sh)
}

// startTime records when the process started for uptime reporting.
var startTime = time.Now()

// handleInfo reports service identity and build information.
func (e *Endpoint) handleInfo(c *gin.Context) {
	v := version.GetVersionInfo()
	c.JSON(http.StatusOK, gin.H{
		"service":      e.name,
		"input_format": e.format,
		"stages":       e.pipe.Stages(),
		"version":      v.Version,
		"git_commit":   v.GitCommit,
		"go_version":   v.GoVersion,
		"uptime":       time.Since(startTime).String(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}
