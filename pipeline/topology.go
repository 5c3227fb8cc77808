package pipeline

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/processor"
)

// Topology is the serializable description of an assembled pipeline:
// the reader kind plus each processor kind with its configuration, in
// execution order. Rebuilding a pipeline from its topology and
// initializing it reproduces the original validation outcome.
type Topology struct {
	Name        string          `yaml:"name,omitempty"`
	TypeCheck   bool            `yaml:"type_check,omitempty"`
	Concurrency int             `yaml:"concurrency,omitempty"`
	Reader      ComponentSpec   `yaml:"reader"`
	Processors  []ComponentSpec `yaml:"processors"`
}

// ComponentSpec identifies one component by registry kind and carries
// its raw configuration.
type ComponentSpec struct {
	Kind    string           `yaml:"kind"`
	Options processor.Config `yaml:"options,omitempty"`
}

// Topology captures the assembled chain as a serializable description.
// Every component must expose a registry kind; a stage constructed
// outside the registry without one cannot be captured.
func (p *Pipeline) Topology() (*Topology, error) {
	if p.rdr == nil {
		return nil, errors.Configuration(p.name, "no reader set")
	}
	if p.readerKind == "" {
		return nil, errors.Configuration(p.name, fmt.Sprintf("reader %T exposes no registry kind", p.rdr))
	}

	t := &Topology{
		Name:        p.name,
		TypeCheck:   p.typeCheck,
		Concurrency: p.concurrency,
		Reader:      ComponentSpec{Kind: p.readerKind, Options: p.readerCfg},
	}
	for i, st := range p.stages {
		if st.kind == "" {
			return nil, errors.Configuration(p.name,
				fmt.Sprintf("stage %d (%s) exposes no registry kind", i, st.name))
		}
		t.Processors = append(t.Processors, ComponentSpec{Kind: st.kind, Options: st.cfg})
	}
	return t, nil
}

// Save writes the pipeline topology as YAML.
func (p *Pipeline) Save(w io.Writer) error {
	t, err := p.Topology()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return errors.Internal(err).WithDetail("operation", "encode topology")
	}
	return enc.Close()
}

// SaveFile writes the pipeline topology to path.
func (p *Pipeline) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Internal(err).WithDetail("path", path)
	}
	defer f.Close()
	return p.Save(f)
}

// ParseTopology decodes a YAML topology document. Unknown top-level
// keys are rejected.
func ParseTopology(r io.Reader) (*Topology, error) {
	var t Topology
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, errors.InvalidFormat("topology", "pipeline topology YAML").WithCause(err)
	}
	if t.Reader.Kind == "" {
		return nil, errors.MissingField("reader.kind")
	}
	for i, spec := range t.Processors {
		if spec.Kind == "" {
			return nil, errors.MissingField(fmt.Sprintf("processors[%d].kind", i))
		}
	}
	return &t, nil
}

// LoadTopology reads a topology document from path.
func LoadTopology(path string) (*Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("topology", path)
		}
		return nil, errors.Internal(err).WithDetail("path", path)
	}
	defer f.Close()
	return ParseTopology(f)
}
