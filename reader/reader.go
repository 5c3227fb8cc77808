package reader

import (
	"context"

	"github.com/docpack/pipekit/pack"
	"github.com/docpack/pipekit/processor"
	"github.com/docpack/pipekit/stream"
)

// Reader is a pipeline source.
//
// Configure is called once during pipeline initialization. DefaultSchema
// declares the entry records the reader itself guarantees on every pack
// it emits; it seeds initialization-time validation. Iter turns one raw
// source into a lazy, finite-or-infinite pack stream.
type Reader interface {
	Configure(cfg processor.Config) error
	DefaultSchema() pack.Schema
	Iter(ctx context.Context, source string) stream.Iterator[*pack.Pack]
}
