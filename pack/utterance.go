package pack

// Well-known entry type and attribute names for conversational packs.
const (
	TypeUtterance = "Utterance"
	AttrSpeaker   = "speaker"

	SpeakerUser = "user"
	SpeakerAI   = "ai"
)

// AddUtterance appends text to the pack on its own line and adds an
// Utterance entry covering exactly the appended text, tagged with the
// given speaker. Returns the new entry.
func AddUtterance(p *Pack, text, speaker string) *Entry {
	p.AppendText("\n" + text)
	end := len(p.Text())
	return p.AddEntry(TypeUtterance, end-len(text), end, map[string]string{
		AttrSpeaker: speaker,
	})
}

// LastUtterance returns the most recently added Utterance entry for the
// given speaker, or false when the pack has none.
func LastUtterance(p *Pack, speaker string) (*Entry, bool) {
	var last *Entry
	for e := range p.Get(TypeUtterance) {
		if e.Attr(AttrSpeaker) == speaker {
			last = e
		}
	}
	return last, last != nil
}
