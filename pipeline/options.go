package pipeline

import (
	"github.com/docpack/pipekit/logger"
	"github.com/docpack/pipekit/observability"
)

// Option customizes a Pipeline at construction time.
type Option func(*Pipeline)

// WithName sets the pipeline name used in logs, traces and the persisted
// topology.
func WithName(name string) Option {
	return func(p *Pipeline) {
		if name != "" {
			p.name = name
		}
	}
}

// WithTypeCheck toggles initialization-time schema validation. Disabled
// by default; when disabled, unmet stage requirements surface only as
// data-access failures at process time.
func WithTypeCheck(enabled bool) Option {
	return func(p *Pipeline) {
		p.typeCheck = enabled
	}
}

// WithConcurrency sets the worker count for Stream. Values above one
// process packs on a worker pool and give up output ordering; Process is
// always a single sequential pass regardless.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger replaces the pipeline's logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics attaches metric instruments for per-stage and per-pack
// recording. Without it, no metrics are emitted.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}
