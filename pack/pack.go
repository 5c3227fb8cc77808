package pack

import (
	"encoding/json"
	"iter"

	"github.com/google/uuid"

	"github.com/docpack/pipekit/errors"
)

// Entry is a typed annotation over a span of the pack's text.
// Begin and End are byte offsets; End is exclusive. Entries with no
// attributes carry a nil map.
type Entry struct {
	ID         uint64            `json:"id"`
	Type       string            `json:"type"`
	Begin      int               `json:"begin"`
	End        int               `json:"end"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Attr returns the value of the named attribute, or "" when unset.
func (e *Entry) Attr(name string) string {
	return e.Attributes[name]
}

// SetAttr sets the named attribute on the entry.
func (e *Entry) SetAttr(name, value string) {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[name] = value
}

// Pack is the mutable document unit carried through a pipeline.
type Pack struct {
	id       string
	text     string
	entries  []*Entry
	manifest Schema
	nextID   uint64
}

// New creates an empty pack with a fresh ID.
func New() *Pack {
	return &Pack{
		id:       uuid.NewString(),
		manifest: NewSchema(),
	}
}

// ID returns the pack's identifier.
func (p *Pack) ID() string { return p.id }

// Text returns the pack's text payload.
func (p *Pack) Text() string { return p.text }

// SetText replaces the pack's text payload.
func (p *Pack) SetText(text string) { p.text = text }

// AppendText appends to the pack's text payload and returns the byte
// offset at which the appended text begins.
func (p *Pack) AppendText(text string) int {
	begin := len(p.text)
	p.text += text
	return begin
}

// TextOf returns the text covered by the entry's span. Spans outside the
// current text return "".
func (p *Pack) TextOf(e *Entry) string {
	if e == nil || e.Begin < 0 || e.End > len(p.text) || e.Begin > e.End {
		return ""
	}
	return p.text[e.Begin:e.End]
}

// AddEntry appends a typed annotation covering [begin, end) and returns it.
// Entry IDs are assigned sequentially per pack.
func (p *Pack) AddEntry(entryType string, begin, end int, attrs map[string]string) *Entry {
	p.nextID++
	e := &Entry{
		ID:    p.nextID,
		Type:  entryType,
		Begin: begin,
		End:   end,
	}
	if len(attrs) > 0 {
		e.Attributes = make(map[string]string, len(attrs))
		for k, v := range attrs {
			e.Attributes[k] = v
		}
	}
	p.entries = append(p.entries, e)
	return e
}

// Get returns a lazy sequence over entries of the given type, in insertion
// order. The sequence is restartable: ranging over it again replays from
// the beginning.
func (p *Pack) Get(entryType string) iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, e := range p.entries {
			if e.Type != entryType {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// All returns a lazy sequence over every entry, in insertion order.
func (p *Pack) All() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, e := range p.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Len returns the number of entries in the pack.
func (p *Pack) Len() int { return len(p.entries) }

// Record merges the given type and attributes into the pack's manifest.
func (p *Pack) Record(entryType string, attrs ...string) {
	p.manifest.Add(entryType, attrs...)
}

// RecordSchema merges a whole schema into the pack's manifest.
func (p *Pack) RecordSchema(s Schema) {
	p.manifest.Merge(s)
}

// Manifest returns a copy of the pack's record manifest. Mutating the
// copy does not affect the pack; use Record or RecordSchema to grow the
// manifest.
func (p *Pack) Manifest() Schema {
	return p.manifest.Clone()
}

// Replace overwrites the pack in place with the contents of other: ID,
// text, entries and manifest. Callers holding a pointer to the pack see
// the new content; other keeps no claim on its slices afterwards.
func (p *Pack) Replace(other *Pack) {
	p.id = other.id
	p.text = other.text
	p.entries = other.entries
	p.manifest = other.manifest
	p.nextID = other.nextID
}

// Clone returns a deep copy of the pack, entries and manifest included.
// The copy keeps the original's ID.
func (p *Pack) Clone() *Pack {
	c := &Pack{
		id:       p.id,
		text:     p.text,
		manifest: p.manifest.Clone(),
		nextID:   p.nextID,
	}
	c.entries = make([]*Entry, len(p.entries))
	for i, e := range p.entries {
		dup := *e
		if e.Attributes != nil {
			dup.Attributes = make(map[string]string, len(e.Attributes))
			for k, v := range e.Attributes {
				dup.Attributes[k] = v
			}
		}
		c.entries[i] = &dup
	}
	return c
}

// packJSON is the canonical serialized form of a pack.
type packJSON struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Entries  []*Entry `json:"entries"`
	Manifest Schema   `json:"manifest"`
	NextID   uint64   `json:"next_id"`
}

// Serialize encodes the pack as canonical JSON. Deserialize restores an
// equivalent pack: same ID, text, entries and manifest.
func (p *Pack) Serialize() (string, error) {
	data, err := json.Marshal(packJSON{
		ID:       p.id,
		Text:     p.text,
		Entries:  p.entries,
		Manifest: p.manifest,
		NextID:   p.nextID,
	})
	if err != nil {
		return "", errors.Internal(err).WithDetail("operation", "serialize pack")
	}
	return string(data), nil
}

// Deserialize restores a pack from its canonical JSON form.
func Deserialize(data string) (*Pack, error) {
	var pj packJSON
	if err := json.Unmarshal([]byte(data), &pj); err != nil {
		return nil, errors.InvalidFormat("payload", "serialized pack JSON").WithCause(err)
	}
	if pj.ID == "" {
		return nil, errors.MissingField("id")
	}
	p := &Pack{
		id:       pj.ID,
		text:     pj.Text,
		entries:  pj.Entries,
		manifest: pj.Manifest,
		nextID:   pj.NextID,
	}
	if p.manifest == nil {
		p.manifest = NewSchema()
	}
	for _, e := range p.entries {
		if e.ID > p.nextID {
			p.nextID = e.ID
		}
	}
	return p, nil
}
