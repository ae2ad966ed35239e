// Package mapping resolves `{{nodeId.path}}` templates against upstream node output
// and builds mapped payloads from a Spec.
package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/dukex/operion-canvas/pkg/value"
)

// Entry maps a dotted target path to a literal or a template string.
type Entry struct {
	Target string
	Source value.Value
}

// Spec is an ordered mapping specification. It encodes as a JSON object.
type Spec struct {
	entries []Entry
}

// NewSpec builds a Spec from target/template string pairs in the given order.
func NewSpec(pairs ...string) Spec {
	var s Spec
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Set(pairs[i], value.StringOf(pairs[i+1]))
	}

	return s
}

func (s Spec) Len() int { return len(s.entries) }

// Entries returns a copy of the entries in order.
func (s Spec) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)

	return out
}

func (s Spec) Get(target string) (value.Value, bool) {
	for _, e := range s.entries {
		if e.Target == target {
			return e.Source, true
		}
	}

	return value.Undef(), false
}

// Set adds or replaces the entry for target.
func (s *Spec) Set(target string, source value.Value) {
	for i := range s.entries {
		if s.entries[i].Target == target {
			s.entries[i].Source = source

			return
		}
	}

	s.entries = append(s.entries, Entry{Target: target, Source: source})
}

func (s *Spec) Delete(target string) {
	for i := range s.entries {
		if s.entries[i].Target == target {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)

			return
		}
	}
}

func (s Spec) Clone() Spec {
	out := Spec{entries: make([]Entry, len(s.entries))}
	for i, e := range s.entries {
		out.entries[i] = Entry{Target: e.Target, Source: e.Source.Clone()}
	}

	return out
}

// Value returns the spec as a map value.
func (s Spec) Value() value.Value {
	obj := value.NewObject()
	for _, e := range s.entries {
		obj.Set(e.Target, e.Source)
	}

	return value.MapOf(obj)
}

// SpecFromValue converts a map value into a Spec. Null and Undefined give an empty Spec.
func SpecFromValue(v value.Value) (Spec, error) {
	var s Spec

	switch v.Kind() {
	case value.Undefined, value.Null:
		return s, nil
	case value.Map:
		v.Object().Range(func(key string, item value.Value) bool {
			s.entries = append(s.entries, Entry{Target: key, Source: item})

			return true
		})

		return s, nil
	default:
		return s, fmt.Errorf("mapping must be an object, got %s", v.Kind())
	}
}

func (s Spec) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value())
}

func (s *Spec) UnmarshalJSON(data []byte) error {
	v, err := value.Parse(data)
	if err != nil {
		return err
	}

	parsed, err := SpecFromValue(v)
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
