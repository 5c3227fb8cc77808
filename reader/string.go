package reader

import (
	"context"

	"github.com/docpack/pipekit/pack"
	"github.com/docpack/pipekit/processor"
	"github.com/docpack/pipekit/stream"
)

// KindString is the registry kind of StringReader.
const KindString = "reader.string"

// StringReader wraps a raw text source into a single fresh pack.
type StringReader struct{}

// NewStringReader creates a StringReader.
func NewStringReader() *StringReader { return &StringReader{} }

// Kind returns the reader's registry kind.
func (r *StringReader) Kind() string { return KindString }

// Configure accepts no options; any key is rejected.
func (r *StringReader) Configure(cfg processor.Config) error {
	var opts struct{}
	return processor.Decode(KindString, cfg, &opts)
}

// DefaultSchema declares no records: the emitted pack carries raw text only.
func (r *StringReader) DefaultSchema() pack.Schema {
	return pack.NewSchema()
}

// Iter emits exactly one pack whose text is the source.
func (r *StringReader) Iter(ctx context.Context, source string) stream.Iterator[*pack.Pack] {
	return stream.Map(stream.FromSlice([]string{source}), func(_ context.Context, s string) (*pack.Pack, error) {
		p := pack.New()
		p.SetText(s)
		return p, nil
	}).Iter(ctx)
}
