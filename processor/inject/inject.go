// Package inject provides a processor that appends a fixed utterance to
// every pack, standing in for an interactive input stage when a
// conversational pipeline is driven from code or a topology file.
package inject

import (
	"context"

	"github.com/docpack/pipekit/pack"
	"github.com/docpack/pipekit/processor"
)

// Kind is the registry kind of the utterance injector.
const Kind = "inject"

// Options configure the injected utterance.
type Options struct {
	// Utterance is the text appended to each pack.
	Utterance string `mapstructure:"utterance"`
	// Speaker tags the appended entry. Defaults to the user side.
	Speaker string `mapstructure:"speaker"`
}

// Injector appends a configured utterance to every pack it processes.
type Injector struct {
	opts Options
}

// New creates an unconfigured Injector.
func New() *Injector { return &Injector{} }

// Kind returns the processor's registry kind.
func (i *Injector) Kind() string { return Kind }

// Configure decodes options, defaulting the speaker to the user side.
func (i *Injector) Configure(cfg processor.Config) error {
	opts := Options{Speaker: pack.SpeakerUser}
	if err := processor.Decode(Kind, cfg, &opts); err != nil {
		return err
	}
	i.opts = opts
	return nil
}

// ExpectedSchema requires nothing of incoming packs.
func (i *Injector) ExpectedSchema() pack.Schema { return pack.NewSchema() }

// OutputSchema declares the utterance entries the injector adds.
func (i *Injector) OutputSchema() pack.Schema {
	return pack.NewSchema().Add(pack.TypeUtterance, pack.AttrSpeaker)
}

// Process appends the configured utterance to the pack.
func (i *Injector) Process(_ context.Context, p *pack.Pack) error {
	pack.AddUtterance(p, i.opts.Utterance, i.opts.Speaker)
	return nil
}
