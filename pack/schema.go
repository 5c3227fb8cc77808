package pack

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AttrSet is a set of attribute names. It marshals as a sorted JSON array
// so serialized schemas are deterministic.
type AttrSet map[string]struct{}

// NewAttrSet creates an AttrSet from the given names.
func NewAttrSet(names ...string) AttrSet {
	s := make(AttrSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Add inserts the given names into the set.
func (a AttrSet) Add(names ...string) {
	for _, n := range names {
		a[n] = struct{}{}
	}
}

// Has reports whether the set contains name.
func (a AttrSet) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Merge inserts every name from other into the receiver.
func (a AttrSet) Merge(other AttrSet) {
	for n := range other {
		a[n] = struct{}{}
	}
}

// Clone returns a copy of the set.
func (a AttrSet) Clone() AttrSet {
	c := make(AttrSet, len(a))
	for n := range a {
		c[n] = struct{}{}
	}
	return c
}

// Equal reports whether both sets contain the same names.
func (a AttrSet) Equal(other AttrSet) bool {
	if len(a) != len(other) {
		return false
	}
	for n := range a {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// Sorted returns the names in sorted order.
func (a AttrSet) Sorted() []string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the set as a sorted array of names.
func (a AttrSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Sorted())
}

// UnmarshalJSON decodes the set from an array of names.
func (a *AttrSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*a = NewAttrSet(names...)
	return nil
}

// Schema maps entry types to the attribute names populated for them.
// It describes what a reader or processor guarantees (its output form)
// or requires (its expected form).
//
// Schemas marshal deterministically: object keys and attribute arrays
// are sorted.
type Schema map[string]AttrSet

// NewSchema creates an empty schema.
func NewSchema() Schema {
	return make(Schema)
}

// Add records attrs for entryType, creating the type if needed.
func (s Schema) Add(entryType string, attrs ...string) Schema {
	set, ok := s[entryType]
	if !ok {
		set = NewAttrSet()
		s[entryType] = set
	}
	set.Add(attrs...)
	return s
}

// Merge folds every type and attribute from other into the receiver.
// Merging never removes anything.
func (s Schema) Merge(other Schema) {
	for t, attrs := range other {
		set, ok := s[t]
		if !ok {
			set = NewAttrSet()
			s[t] = set
		}
		set.Merge(attrs)
	}
}

// Covers checks that every type and attribute in required is present in
// the receiver. It returns the missing subset and whether coverage is
// complete.
func (s Schema) Covers(required Schema) (Schema, bool) {
	missing := NewSchema()
	for t, attrs := range required {
		have, ok := s[t]
		if !ok {
			missing[t] = attrs.Clone()
			continue
		}
		for a := range attrs {
			if !have.Has(a) {
				missing.Add(t, a)
			}
		}
	}
	return missing, len(missing) == 0
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	c := make(Schema, len(s))
	for t, attrs := range s {
		c[t] = attrs.Clone()
	}
	return c
}

// Equal reports whether both schemas contain the same types and attributes.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for t, attrs := range s {
		o, ok := other[t]
		if !ok || !attrs.Equal(o) {
			return false
		}
	}
	return true
}

// Types returns the entry types in sorted order.
func (s Schema) Types() []string {
	types := make([]string, 0, len(s))
	for t := range s {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// String renders the schema as "Type{a,b}, Type2{}" with sorted types
// and attributes, for error messages and logs.
func (s Schema) String() string {
	parts := make([]string, 0, len(s))
	for _, t := range s.Types() {
		parts = append(parts, fmt.Sprintf("%s{%s}", t, strings.Join(s[t].Sorted(), ",")))
	}
	return strings.Join(parts, ", ")
}
