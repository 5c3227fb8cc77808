// Package registry maps component kinds to factories so pipelines can
// be rebuilt from their persisted topology form.
package registry

import (
	"sort"
	"sync"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/pipeline"
	"github.com/docpack/pipekit/processor"
	"github.com/docpack/pipekit/processor/eliza"
	"github.com/docpack/pipekit/processor/inject"
	"github.com/docpack/pipekit/reader"
	"github.com/docpack/pipekit/remote"
)

// ReaderFactory produces a fresh, unconfigured reader.
type ReaderFactory func() reader.Reader

// ProcessorFactory produces a fresh, unconfigured processor.
type ProcessorFactory func() processor.Processor

// Registry maps registry kinds to component factories. Factories build
// blank components; options travel in the topology and are applied when
// the rebuilt pipeline is initialized.
type Registry struct {
	mu         sync.RWMutex
	readers    map[string]ReaderFactory
	processors map[string]ProcessorFactory
}

// New creates a Registry preloaded with the built-in readers and
// processors.
func New() *Registry {
	r := &Registry{
		readers:    make(map[string]ReaderFactory),
		processors: make(map[string]ProcessorFactory),
	}
	r.readers[reader.KindString] = func() reader.Reader { return reader.NewStringReader() }
	r.readers[reader.KindDeserialize] = func() reader.Reader { return reader.NewDeserializeReader() }
	r.readers[reader.KindLines] = func() reader.Reader { return reader.NewLinesReader() }
	r.processors[inject.Kind] = func() processor.Processor { return inject.New() }
	r.processors[eliza.Kind] = func() processor.Processor { return eliza.New() }
	r.processors[remote.Kind] = func() processor.Processor { return remote.New() }
	return r
}

// RegisterReader adds a reader factory under a kind. Registering a kind
// twice is rejected so a topology always resolves to one component.
func (r *Registry) RegisterReader(kind string, f ReaderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.readers[kind]; ok {
		return errors.AlreadyExists("reader kind").WithDetail("kind", kind)
	}
	r.readers[kind] = f
	return nil
}

// RegisterProcessor adds a processor factory under a kind.
func (r *Registry) RegisterProcessor(kind string, f ProcessorFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.processors[kind]; ok {
		return errors.AlreadyExists("processor kind").WithDetail("kind", kind)
	}
	r.processors[kind] = f
	return nil
}

// NewReader builds a fresh reader of the given kind.
func (r *Registry) NewReader(kind string) (reader.Reader, error) {
	r.mu.RLock()
	f, ok := r.readers[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("reader kind", kind)
	}
	return f(), nil
}

// NewProcessor builds a fresh processor of the given kind.
func (r *Registry) NewProcessor(kind string) (processor.Processor, error) {
	r.mu.RLock()
	f, ok := r.processors[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("processor kind", kind)
	}
	return f(), nil
}

// Readers returns the sorted registered reader kinds.
func (r *Registry) Readers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.readers)
}

// Processors returns the sorted registered processor kinds.
func (r *Registry) Processors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.processors)
}

// Build assembles an uninitialized pipeline from a topology. Options
// given here are applied after those captured in the topology, so a
// caller can attach a logger or metrics without touching the file.
func (r *Registry) Build(t *pipeline.Topology, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if t == nil {
		return nil, errors.InvalidInput("topology", "topology is nil")
	}
	rdr, err := r.NewReader(t.Reader.Kind)
	if err != nil {
		return nil, err
	}

	buildOpts := []pipeline.Option{
		pipeline.WithName(t.Name),
		pipeline.WithTypeCheck(t.TypeCheck),
		pipeline.WithConcurrency(t.Concurrency),
	}
	buildOpts = append(buildOpts, opts...)

	p := pipeline.New(buildOpts...)
	if err := p.SetReader(rdr, t.Reader.Options); err != nil {
		return nil, err
	}
	for i, spec := range t.Processors {
		proc, err := r.NewProcessor(spec.Kind)
		if err != nil {
			return nil, errors.Wrap(err).WithDetail("stage", i)
		}
		if err := p.Add(proc, spec.Options); err != nil {
			return nil, errors.Wrap(err).WithDetail("stage", i)
		}
	}
	return p, nil
}

// Load reads a topology file and builds the pipeline it describes.
func (r *Registry) Load(path string, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	t, err := pipeline.LoadTopology(path)
	if err != nil {
		return nil, err
	}
	return r.Build(t, opts...)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
