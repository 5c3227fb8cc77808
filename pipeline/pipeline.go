package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/logger"
	"github.com/docpack/pipekit/observability"
	"github.com/docpack/pipekit/pack"
	"github.com/docpack/pipekit/processor"
	"github.com/docpack/pipekit/reader"
	"github.com/docpack/pipekit/stream"
)

// stage binds a processor to its raw configuration and registry kind.
type stage struct {
	proc processor.Processor
	cfg  processor.Config
	kind string
	name string
}

// Pipeline owns an ordered processor chain plus a reader. Assemble with
// SetReader and Add, then call Initialize once; after that the chain is
// immutable and Process and Stream drive packs through it.
type Pipeline struct {
	name        string
	rdr         reader.Reader
	readerCfg   processor.Config
	readerKind  string
	stages      []*stage
	typeCheck   bool
	concurrency int
	log         *logger.Logger
	metrics     *observability.Metrics

	mu     sync.Mutex
	inited atomic.Bool

	effIn  pack.Schema
	effOut pack.Schema
}

// New creates an empty pipeline. Type checking is off and Stream runs
// sequentially unless options say otherwise.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		name:        "pipeline",
		concurrency: 1,
		log:         logger.WithComponent("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// kinder is implemented by readers and processors that expose the
// registry identifier they were created under.
type kinder interface {
	Kind() string
}

func kindOf(v any) string {
	if k, ok := v.(kinder); ok {
		return k.Kind()
	}
	return ""
}

func stageName(p processor.Processor) string {
	if n, ok := p.(processor.Namer); ok {
		return n.Name()
	}
	if k, ok := p.(kinder); ok {
		return k.Kind()
	}
	return fmt.Sprintf("%T", p)
}

// SetReader assigns the reader that turns raw input into packs. Its
// configuration is applied during Initialize.
func (p *Pipeline) SetReader(r reader.Reader, cfg processor.Config) error {
	if p.inited.Load() {
		return errors.InvalidState("set reader", "pipeline is initialized")
	}
	p.rdr = r
	p.readerCfg = cfg
	p.readerKind = kindOf(r)
	return nil
}

// Add appends a processor to the chain. Insertion order is execution
// order, fixed once Initialize has run.
func (p *Pipeline) Add(proc processor.Processor, cfg processor.Config) error {
	if p.inited.Load() {
		return errors.InvalidState("add processor", "pipeline is initialized")
	}
	p.stages = append(p.stages, &stage{
		proc: proc,
		cfg:  cfg,
		kind: kindOf(proc),
		name: stageName(proc),
	})
	return nil
}

// Initialize configures the reader and every stage in order, runs stage
// pre-flight work such as remote handshakes, and, when type checking is
// enabled, verifies each stage's expected schema against the manifest
// accumulated from the reader and all earlier stages. A failed attempt
// leaves the pipeline uninitialized.
func (p *Pipeline) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inited.Load() {
		return errors.InvalidState("initialize", "pipeline is initialized")
	}
	if p.rdr == nil {
		return errors.Configuration(p.name, "no reader set")
	}

	if err := p.rdr.Configure(p.readerCfg); err != nil {
		return err
	}

	manifest := p.rdr.DefaultSchema().Clone()
	for i, st := range p.stages {
		if err := st.proc.Configure(st.cfg); err != nil {
			return withStage(err, i, st.name)
		}
		if init, ok := st.proc.(processor.Initializer); ok {
			if err := init.Initialize(ctx); err != nil {
				return withStage(err, i, st.name)
			}
		}
		if p.typeCheck {
			if missing, ok := manifest.Covers(st.proc.ExpectedSchema()); !ok {
				return errors.SchemaValidation(st.name,
					fmt.Sprintf("stage %d requires %s not produced by earlier stages", i, missing)).
					WithDetail("stage", i).
					WithDetail("missing", missing.String())
			}
		}
		manifest.Merge(st.proc.OutputSchema())
	}

	p.effIn, p.effOut = p.computeEffective()

	p.log.Info("pipeline initialized", logger.Fields(
		logger.FieldPipeline, p.name,
		"stages", len(p.stages),
		"type_check", p.typeCheck,
	))
	p.inited.Store(true)
	return nil
}

// withStage stamps stage position onto an error from configuration,
// pre-flight initialization or processing.
func withStage(err error, i int, name string) error {
	return errors.Wrap(err).WithDetail("stage", i).WithDetail("processor", name)
}

// computeEffective derives the pipeline's effective schemas: input is
// the union over stages of requirements not satisfied by the reader or
// earlier stages, output is the reader defaults plus every stage's
// declared output. Stage schemas are read after pre-flight
// initialization, so remote stages contribute the schemas they adopted
// from their endpoint.
func (p *Pipeline) computeEffective() (in, out pack.Schema) {
	in = pack.NewSchema()
	provided := p.rdr.DefaultSchema().Clone()
	for _, st := range p.stages {
		if missing, ok := provided.Covers(st.proc.ExpectedSchema()); !ok {
			in.Merge(missing)
		}
		provided.Merge(st.proc.OutputSchema())
	}
	return in, provided
}

// Process pulls the first pack the reader yields for raw and runs it
// through the chain, returning the processed pack. The pack's manifest
// ends up covering the reader defaults and every stage's declared
// output.
func (p *Pipeline) Process(ctx context.Context, raw string) (*pack.Pack, error) {
	if !p.inited.Load() {
		return nil, errors.InvalidState("process", "pipeline is not initialized")
	}

	it := p.rdr.Iter(ctx, raw)
	defer it.Close()

	pk, ok, err := it.Next(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.InvalidInput("input", "reader produced no pack")
	}
	return p.runChain(ctx, pk)
}

// Stream lazily yields one processed pack per input unit the reader
// emits, in emission order. With WithConcurrency above one, packs run on
// a worker pool and output order is not preserved. The caller must Close
// the iterator.
func (p *Pipeline) Stream(ctx context.Context, raw string) stream.Iterator[*pack.Pack] {
	if !p.inited.Load() {
		return &failIter{err: errors.InvalidState("stream", "pipeline is not initialized")}
	}

	src := stream.FromFunc(func(ctx context.Context) stream.Iterator[*pack.Pack] {
		return p.rdr.Iter(ctx, raw)
	})
	var out *stream.Stream[*pack.Pack]
	if p.concurrency > 1 {
		out = stream.Parallel(src, p.concurrency, p.runChain)
	} else {
		out = stream.Map(src, p.runChain)
	}
	return out.Iter(ctx)
}

// runChain executes every stage against pk in chain order, merging each
// stage's declared output schema into the pack manifest after it runs.
func (p *Pipeline) runChain(ctx context.Context, pk *pack.Pack) (*pack.Pack, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineProcess)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPipelineName, p.name)
	observability.SetSpanAttribute(ctx, observability.AttrPackID, pk.ID())

	pk.RecordSchema(p.rdr.DefaultSchema())

	for i, st := range p.stages {
		start := time.Now()
		stageCtx, stageSpan := observability.StartSpan(ctx, observability.SpanStageProcess)
		observability.SetSpanAttribute(stageCtx, observability.AttrProcessorName, st.name)

		err := st.proc.Process(stageCtx, pk)
		if err != nil {
			observability.SetSpanError(stageCtx, err)
			stageSpan.End()
			if p.metrics != nil {
				p.metrics.RecordStage(ctx, p.name, st.name, "error", time.Since(start))
				p.metrics.RecordPack(ctx, p.name, "error")
			}
			p.log.Error("stage failed", logger.MergeWithError(logger.Fields(
				logger.FieldPipeline, p.name,
				logger.FieldProcessor, st.name,
				logger.FieldStage, i,
				logger.FieldPackID, pk.ID(),
			), err))
			return nil, withStage(err, i, st.name)
		}
		pk.RecordSchema(st.proc.OutputSchema())
		stageSpan.End()
		if p.metrics != nil {
			p.metrics.RecordStage(ctx, p.name, st.name, "ok", time.Since(start))
		}
	}

	if p.metrics != nil {
		p.metrics.RecordPack(ctx, p.name, "ok")
	}
	p.log.Debug("pack processed", logger.Fields(
		logger.FieldPipeline, p.name,
		logger.FieldPackID, pk.ID(),
		"entries", pk.Len(),
	))
	return pk, nil
}

// EffectiveSchemas reports the pipeline's derived input and output
// schemas: what callers must supply beyond the reader defaults, and what
// processed packs are guaranteed to carry. Valid only after Initialize.
func (p *Pipeline) EffectiveSchemas() (input, output pack.Schema, err error) {
	if !p.inited.Load() {
		return nil, nil, errors.InvalidState("report effective schemas", "pipeline is not initialized")
	}
	return p.effIn.Clone(), p.effOut.Clone(), nil
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Initialized reports whether Initialize completed successfully.
func (p *Pipeline) Initialized() bool { return p.inited.Load() }

// Stages returns the number of processors in the chain.
func (p *Pipeline) Stages() int { return len(p.stages) }

// StageNames returns the processor names in chain order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.name
	}
	return names
}

// TypeCheck reports whether initialization-time schema validation is
// enabled.
func (p *Pipeline) TypeCheck() bool { return p.typeCheck }

// CheckHealth reports pipeline health for serving endpoints.
func (p *Pipeline) CheckHealth(_ context.Context) observability.Health {
	if !p.inited.Load() {
		return observability.Health{
			Name:    p.name,
			Status:  observability.HealthStatusDown,
			Message: "not initialized",
		}
	}
	return observability.Health{
		Name:   p.name,
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"stages": strconv.Itoa(len(p.stages)),
		},
	}
}

// failIter yields a single error and then stops.
type failIter struct {
	err  error
	done bool
}

func (it *failIter) Next(_ context.Context) (*pack.Pack, bool, error) {
	if it.done {
		return nil, false, nil
	}
	it.done = true
	return nil, false, it.err
}

func (it *failIter) Close() error { return nil }
