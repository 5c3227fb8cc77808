// Package pipeline assembles ordered processor chains over document packs
// and drives their initialization-time schema validation and per-pack
// execution.
//
// A pipeline is built incrementally: set a reader, append processors in
// execution order, then call Initialize exactly once. Initialization
// configures every stage, lets stages with pre-flight work (such as a
// remote handshake) run it, and, when type checking is enabled, verifies
// that each stage's expected schema is covered by the manifest accumulated
// from the reader and all earlier stages.
//
// After initialization the chain is immutable. Process runs one input
// through the chain; Stream lazily yields one output pack per input unit
// the reader emits.
//
//	p := pipeline.New(pipeline.WithName("eliza"))
//	p.SetReader(&reader.StringReader{}, nil)
//	p.Add(inject.New(), processor.Config{"utterance": "bye"})
//	p.Add(eliza.New(), nil)
//	if err := p.Initialize(ctx); err != nil {
//	    return err
//	}
//	out, err := p.Process(ctx, "")
//
// Assembly and Initialize are single-goroutine operations. Once
// initialized, Process and Stream are safe to call concurrently as long
// as every stage keeps its per-call state on the pack.
package pipeline
