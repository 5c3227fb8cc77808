package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/docpack/pipekit/component"
	"github.com/docpack/pipekit/logger"
	"github.com/docpack/pipekit/resilience"
)

// ResultStore caches process-call results keyed by a digest of the call
// inputs. All failures are soft: a broken cache degrades to a miss.
type ResultStore struct {
	client  *Client
	lazy    *component.BaseLazyComponent
	breaker *resilience.CircuitBreaker
	ttl     time.Duration
	prefix  string
	log     *logger.Logger
}

var _ component.Component = (*ResultStore)(nil)

// NewResultStore creates a result store from the given config. The redis
// connection is dialed lazily on the first Lookup or Save.
func NewResultStore(cfg Config, log *logger.Logger) (*ResultStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &ResultStore{
		ttl:    cfg.ttl(),
		prefix: cfg.KeyPrefix,
		log:    log.WithComponent("cache"),
	}
	s.client = newClient(cfg, s.log)
	s.lazy = component.NewBaseLazyComponent("cache", func(ctx context.Context) error {
		return s.client.Ping(ctx)
	}).WithHealthCheck(s.client.Ping).WithCloser(s.client.Close)
	s.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "cache",
		MaxFailures: 3,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			s.log.Warn("Cache circuit state changed", logger.Fields(
				"from", from.String(),
				"to", to.String(),
			))
		},
	})
	return s, nil
}

// Key derives the cache key for a process call from the service name,
// input format and raw payload.
func (s *ResultStore) Key(service, format, payload string) string {
	h := sha256.New()
	h.Write([]byte(service))
	h.Write([]byte{0})
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write([]byte(payload))
	return s.prefix + ":result:" + hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the cached result for key. A redis failure or an open
// circuit reports a miss.
func (s *ResultStore) Lookup(ctx context.Context, key string) (string, bool) {
	var result string
	found := false
	err := s.breaker.Execute(func() error {
		if err := s.lazy.Initialize(ctx); err != nil {
			return err
		}
		val, err := s.client.Get(ctx, key)
		if stderrors.Is(err, goredis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		result, found = val, true
		return nil
	})
	if err != nil {
		if !stderrors.Is(err, resilience.ErrCircuitOpen) {
			s.log.Warn("Cache lookup failed", logger.MergeWithError(logger.Fields("key", key), err))
		}
		return "", false
	}
	return result, found
}

// Save stores a result under key with the configured TTL. Failures are
// logged, never returned.
func (s *ResultStore) Save(ctx context.Context, key, result string) {
	err := s.breaker.Execute(func() error {
		if err := s.lazy.Initialize(ctx); err != nil {
			return err
		}
		return s.client.Set(ctx, key, result, s.ttl)
	})
	if err != nil && !stderrors.Is(err, resilience.ErrCircuitOpen) {
		s.log.Warn("Cache save failed", logger.MergeWithError(logger.Fields("key", key), err))
	}
}

// Name returns the component name.
func (s *ResultStore) Name() string { return "cache" }

// Start is a no-op; the connection is dialed on first use so an absent
// redis never blocks endpoint startup.
func (s *ResultStore) Start(ctx context.Context) error {
	s.log.Info("Result cache ready", logger.Fields("ttl", s.ttl.String()))
	return nil
}

// Stop closes the redis connection if it was ever dialed.
func (s *ResultStore) Stop(ctx context.Context) error {
	return s.lazy.Close()
}

// Health reports degraded until the first use dials the connection.
func (s *ResultStore) Health(ctx context.Context) component.Health {
	if !s.lazy.IsInitialized() {
		return component.Health{Name: "cache", Status: component.StatusDegraded, Message: "not yet connected"}
	}
	if err := s.lazy.HealthCheck(ctx); err != nil {
		return component.Health{Name: "cache", Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: "cache", Status: component.StatusHealthy}
}
