package reader

import (
	"context"
	"strings"

	"github.com/docpack/pipekit/pack"
	"github.com/docpack/pipekit/processor"
	"github.com/docpack/pipekit/stream"
)

// KindLines is the registry kind of LinesReader.
const KindLines = "reader.lines"

// LinesOptions configures a LinesReader.
type LinesOptions struct {
	// Separator splits the source into documents. Defaults to "\n".
	Separator string `mapstructure:"separator"`
	// KeepEmpty keeps documents that are blank after splitting.
	// By default blank documents are dropped.
	KeepEmpty bool `mapstructure:"keep_empty"`
}

// ApplyDefaults applies default values to the options.
func (o *LinesOptions) ApplyDefaults() {
	if o.Separator == "" {
		o.Separator = "\n"
	}
}

// LinesReader splits the source into documents and emits one pack per
// document. It is the multi-pack source used with the pipeline's
// streaming form.
type LinesReader struct {
	opts LinesOptions
}

// NewLinesReader creates a LinesReader with default options.
func NewLinesReader() *LinesReader {
	r := &LinesReader{}
	r.opts.ApplyDefaults()
	return r
}

// Kind returns the reader's registry kind.
func (r *LinesReader) Kind() string { return KindLines }

// Configure decodes separator and keep_empty options.
func (r *LinesReader) Configure(cfg processor.Config) error {
	var opts LinesOptions
	if err := processor.Decode(KindLines, cfg, &opts); err != nil {
		return err
	}
	opts.ApplyDefaults()
	r.opts = opts
	return nil
}

// DefaultSchema declares no records.
func (r *LinesReader) DefaultSchema() pack.Schema {
	return pack.NewSchema()
}

// Iter emits one pack per document of the source, in source order.
func (r *LinesReader) Iter(ctx context.Context, source string) stream.Iterator[*pack.Pack] {
	docs := strings.Split(source, r.opts.Separator)
	s := stream.FromSlice(docs)
	if !r.opts.KeepEmpty {
		s = stream.Filter(s, func(doc string) bool { return strings.TrimSpace(doc) != "" })
	}
	return stream.Map(s, func(_ context.Context, doc string) (*pack.Pack, error) {
		p := pack.New()
		p.SetText(doc)
		return p, nil
	}).Iter(ctx)
}
