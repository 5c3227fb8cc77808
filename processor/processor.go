package processor

import (
	"context"

	"github.com/go-viper/mapstructure/v2"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/pack"
)

// Config carries the raw options a processor is configured with, as
// assembled in code or loaded from a pipeline topology file.
type Config map[string]any

// Processor is one processing stage of a pipeline.
//
// Configure is called exactly once, during pipeline initialization and
// before any other method. ExpectedSchema declares the entry types and
// attributes the stage requires on incoming packs; OutputSchema declares
// what it adds. Process mutates the pack in place and must confine side
// effects to the pack and the processor's own state.
type Processor interface {
	Configure(cfg Config) error
	ExpectedSchema() pack.Schema
	OutputSchema() pack.Schema
	Process(ctx context.Context, p *pack.Pack) error
}

// Initializer is implemented by processors that need pre-flight work
// after configuration and before the first pack, such as a handshake
// with a remote service. Initialize is called once per pipeline
// initialization.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Namer is implemented by processors that expose a stable name for
// diagnostics. Stages without it are identified by Go type.
type Namer interface {
	Name() string
}

// Decode unmarshals a Config into a typed options struct. Unknown keys
// are rejected so a typo in a topology file fails configuration instead
// of being silently dropped. Duration fields accept Go duration strings.
func Decode(component string, cfg Config, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "mapstructure",
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.Internal(err).WithDetail("component", component)
	}
	if err := dec.Decode(map[string]any(cfg)); err != nil {
		return errors.Configuration(component, err.Error()).WithCause(err)
	}
	return nil
}
