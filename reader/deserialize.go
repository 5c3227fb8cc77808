package reader

import (
	"context"

	"github.com/docpack/pipekit/pack"
	"github.com/docpack/pipekit/processor"
	"github.com/docpack/pipekit/stream"
)

// KindDeserialize is the registry kind of DeserializeReader.
const KindDeserialize = "reader.deserialize"

// DeserializeReader treats the source as a serialized pack and restores
// it. This is the reader behind served pipelines accepting pack payloads.
type DeserializeReader struct{}

// NewDeserializeReader creates a DeserializeReader.
func NewDeserializeReader() *DeserializeReader { return &DeserializeReader{} }

// Kind returns the reader's registry kind.
func (r *DeserializeReader) Kind() string { return KindDeserialize }

// Configure accepts no options; any key is rejected.
func (r *DeserializeReader) Configure(cfg processor.Config) error {
	var opts struct{}
	return processor.Decode(KindDeserialize, cfg, &opts)
}

// DefaultSchema declares no records: the restored pack's manifest carries
// whatever the serialized form recorded, which is unknown until runtime.
func (r *DeserializeReader) DefaultSchema() pack.Schema {
	return pack.NewSchema()
}

// Iter emits exactly one pack restored from the serialized source.
// Malformed payloads surface on the first Next call.
func (r *DeserializeReader) Iter(ctx context.Context, source string) stream.Iterator[*pack.Pack] {
	return stream.Map(stream.FromSlice([]string{source}), func(_ context.Context, s string) (*pack.Pack, error) {
		return pack.Deserialize(s)
	}).Iter(ctx)
}
