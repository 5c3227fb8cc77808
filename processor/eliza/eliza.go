// Package eliza implements the classic rule-based conversational
// responder as a pipeline processor: it reads the most recent user
// utterance, runs it through a keyword/decomposition/reassembly script
// and appends the reply to the pack as an ai utterance.
package eliza

import (
	"context"

	"github.com/docpack/pipekit/pack"
	"github.com/docpack/pipekit/processor"
)

// Kind is the registry kind of the responder.
const Kind = "eliza"

// Responder generates scripted replies to the most recent user
// utterance. Reply cycling is shared across packs, so repeating an
// input moves through a rule's reply variants in order.
type Responder struct {
	eng *engine
}

// New creates a Responder with a fresh rule table.
func New() *Responder { return &Responder{eng: newEngine()} }

// Kind returns the processor's registry kind.
func (r *Responder) Kind() string { return Kind }

// Configure accepts no options and recompiles the rule table, resetting
// reply cycling and recall memory.
func (r *Responder) Configure(cfg processor.Config) error {
	var opts struct{}
	if err := processor.Decode(Kind, cfg, &opts); err != nil {
		return err
	}
	r.eng = newEngine()
	return nil
}

// ExpectedSchema requires utterance entries with a speaker attribute.
func (r *Responder) ExpectedSchema() pack.Schema {
	return pack.NewSchema().Add(pack.TypeUtterance, pack.AttrSpeaker)
}

// OutputSchema declares the ai utterances the responder appends.
func (r *Responder) OutputSchema() pack.Schema {
	return pack.NewSchema().Add(pack.TypeUtterance, pack.AttrSpeaker)
}

// Process appends a reply to the last user utterance. A pack without
// one gets the script's opening line; a quit word gets its closing line.
func (r *Responder) Process(_ context.Context, p *pack.Pack) error {
	reply := script.initial
	if u, ok := pack.LastUtterance(p, pack.SpeakerUser); ok {
		if out, more := r.eng.respond(p.TextOf(u)); more {
			reply = out
		} else {
			reply = script.final
		}
	}
	pack.AddUtterance(p, reply, pack.SpeakerAI)
	return nil
}
