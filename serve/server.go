package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/docpack/pipekit/auth"
	"github.com/docpack/pipekit/cache"
	"github.com/docpack/pipekit/component"
	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/logger"
	"github.com/docpack/pipekit/resilience"
	"github.com/docpack/pipekit/serve/middleware"
	"github.com/docpack/pipekit/wire"
)

// Server runs an Endpoint behind an h2c-capable HTTP server with the
// standard middleware stack. It implements component.Component so the
// endpoint and its result cache can share one lifecycle registry.
type Server struct {
	httpServer *http.Server
	endpoint   *Endpoint
	config     Config
	log        *logger.Logger
	components *logger.ComponentRegistry

	mu        sync.Mutex
	started   bool
	boundAddr string
}

var _ component.Component = (*Server)(nil)

// NewServer wraps the endpoint's handler with middleware and builds the
// HTTP server. The config should have ApplyDefaults and Validate run by
// the caller; NewServer applies defaults itself as a safety net.
func NewServer(cfg Config, ep *Endpoint, log *logger.Logger) (*Server, error) {
	if ep == nil {
		return nil, errors.Configuration("server", "endpoint is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Configuration("server", err.Error()).WithCause(err)
	}
	if log == nil {
		log = logger.WithComponent("server")
	} else {
		log = log.WithComponent("server")
	}

	if cfg.Cache.Enabled && ep.store == nil {
		store, err := cache.NewResultStore(cfg.Cache, log)
		if err != nil {
			return nil, errors.Configuration("server", "cache setup failed").WithCause(err)
		}
		ep.store = store
	}

	handler, err := buildHandler(cfg, ep, log)
	if err != nil {
		return nil, err
	}

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      h2c.NewHandler(handler, h2s),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		endpoint:   ep,
		config:     cfg,
		log:        log,
		components: logger.NewComponentRegistry(),
	}, nil
}

// buildHandler applies the middleware chain to the endpoint handler:
// recovery outermost, then request ID, CORS, body limit, request logging,
// and bearer auth innermost so rejected requests are still logged.
func buildHandler(cfg Config, ep *Endpoint, log *logger.Logger) (http.Handler, error) {
	chain := []middleware.Middleware{
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.CORS(&cfg.CORS),
		middleware.BodySizeLimit(cfg.MaxBodySize),
		middleware.RequestLogger(log),
	}
	if cfg.Limits.Enabled {
		onLimit := func(name string) {
			log.Warn("request rejected at admission", logger.Fields(logger.FieldComponent, name))
		}
		chain = append(chain, middleware.Admission(middleware.AdmissionConfig{
			Limiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
				Name:    "process-rate",
				Rate:    cfg.Limits.Rate,
				Burst:   cfg.Limits.Burst,
				OnLimit: onLimit,
			}),
			Bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
				Name:          "process-concurrency",
				MaxConcurrent: cfg.Limits.MaxConcurrent,
				OnReject:      onLimit,
			}),
			GuardPaths: []string{wire.PathProcess},
		}))
	}
	if cfg.Auth.Enabled {
		tokens, err := auth.ServiceTokens(&auth.Config{Secret: cfg.Auth.Secret, Issuer: cfg.Auth.Issuer})
		if err != nil {
			return nil, errors.Configuration("server", "auth setup failed").WithCause(err)
		}
		chain = append(chain, middleware.Auth(middleware.AuthConfig{
			Validator: auth.NewValidator(tokens.ValidatorFunc()),
			SkipPaths: []string{wire.PathService, "/health", "/info"},
		}))
	}
	return middleware.Chain(chain...)(ep.Handler()), nil
}

// Endpoint returns the wrapped endpoint.
func (s *Server) Endpoint() *Endpoint { return s.endpoint }

// Addr returns the bound listen address once started, otherwise the
// configured one. With port 0 the bound address carries the actual port.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boundAddr != "" {
		return s.boundAddr
	}
	return s.httpServer.Addr
}

// Name returns the component name used for registration.
func (s *Server) Name() string { return "serve" }

// Start binds the port and begins serving. It returns once the listener
// is bound so the caller knows the port is ready; serving continues in a
// goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.InvalidState("start server", "already started")
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.started = true
	s.boundAddr = listener.Addr().String()
	s.logStartup()
	s.log.Info("serving endpoint started", logger.Fields(
		logger.FieldAddress, s.boundAddr,
		logger.FieldService, s.endpoint.Name(),
		logger.FieldFormat, string(s.endpoint.InputFormat()),
	))
	return nil
}

// logStartup fills the component registry with everything this
// deployment assembled and logs the summary. Callers hold s.mu.
func (s *Server) logStartup() {
	reg := s.components
	reg.RegisterInfrastructure("http", "server", "active", s.boundAddr)
	if s.endpoint.store != nil {
		reg.RegisterInfrastructure("result-cache", "redis", "active", "")
	}
	reg.RegisterReader("reader", string(s.endpoint.format), "active")
	for i, name := range s.endpoint.pipe.StageNames() {
		reg.RegisterStage(name, i, "initialized")
	}
	reg.RegisterHandler(http.MethodGet, wire.PathService, "handshake")
	reg.RegisterHandler(http.MethodPost, wire.PathProcess, "process")
	reg.RegisterHandler(http.MethodGet, "/health", "health")
	reg.RegisterHandler(http.MethodGet, "/info", "info")
	reg.LogSummary(s.log)
}

// Components returns the startup component registry, populated once
// Start succeeds.
func (s *Server) Components() *logger.ComponentRegistry {
	return s.components
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("server shutdown error", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.started = false
	s.log.Info("serving endpoint stopped")
	return nil
}

// Health reports whether the server is accepting requests.
func (s *Server) Health(ctx context.Context) component.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return component.Health{Name: s.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}

// Serve starts every component (the server plus, when the endpoint has
// one, its result cache), blocks until ctx is canceled, then stops them
// in reverse order.
func (s *Server) Serve(ctx context.Context) error {
	registry := component.NewRegistry()
	if s.endpoint.store != nil {
		if err := registry.Register(s.endpoint.store); err != nil {
			return err
		}
	}
	if err := registry.Register(s); err != nil {
		return err
	}

	if err := registry.StartAll(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return registry.StopAll(stopCtx)
}
