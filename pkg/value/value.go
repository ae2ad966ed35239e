// Package value provides the tagged variant used for node config, produced data and
// resolved mapping values.
package value

import (
	"fmt"
	"math"
	"sort"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	Undefined Kind = iota // no value; the result of a failed lookup
	Null
	Bool
	Number
	String
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a null | bool | number | string | ordered-list | ordered-map variant.
// The zero Value is Undefined.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
	obj  *Object
}

// Undef returns the "no value" marker.
func Undef() Value { return Value{} }

func NullValue() Value { return Value{kind: Null} }

func BoolOf(b bool) Value { return Value{kind: Bool, b: b} }

func NumberOf(n float64) Value { return Value{kind: Number, n: n} }

func IntOf(i int) Value { return Value{kind: Number, n: float64(i)} }

func StringOf(s string) Value { return Value{kind: String, s: s} }

func ListOf(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}

	return Value{kind: List, list: items}
}

// MapOf wraps an Object. A nil object becomes an empty map.
func MapOf(obj *Object) Value {
	if obj == nil {
		obj = NewObject()
	}

	return Value{kind: Map, obj: obj}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == Undefined }

// IsContainer reports whether v can be traversed by key or index.
func (v Value) IsContainer() bool { return v.kind == List || v.kind == Map }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == Bool }

func (v Value) Number() (float64, bool) { return v.n, v.kind == Number }

func (v Value) Str() (string, bool) { return v.s, v.kind == String }

// Items returns the backing slice of a list, or nil.
func (v Value) Items() []Value {
	if v.kind != List {
		return nil
	}

	return v.list
}

// Object returns the map of a Map value, or nil.
func (v Value) Object() *Object {
	if v.kind != Map {
		return nil
	}

	return v.obj
}

// Len returns the number of elements of a container, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case List:
		return len(v.list)
	case Map:
		return v.obj.Len()
	default:
		return 0
	}
}

// Index returns the i-th list element.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != List || i < 0 || i >= len(v.list) {
		return Undef(), false
	}

	return v.list[i], true
}

// Get returns the value stored under key in a map.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Map {
		return Undef(), false
	}

	return v.obj.Get(key)
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case List:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = item.Clone()
		}

		return ListOf(items...)
	case Map:
		return MapOf(v.obj.Clone())
	default:
		return v
	}
}

// Equal compares two values structurally. Map key order is ignored.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case Undefined, Null:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		return a.n == b.n || (math.IsNaN(a.n) && math.IsNaN(b.n))
	case String:
		return a.s == b.s
	case List:
		if len(a.list) != len(b.list) {
			return false
		}

		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}

		return true
	case Map:
		if a.obj.Len() != b.obj.Len() {
			return false
		}

		for _, key := range a.obj.Keys() {
			av, _ := a.obj.Get(key)

			bv, ok := b.obj.Get(key)
			if !ok || !Equal(av, bv) {
				return false
			}
		}

		return true
	}

	return false
}

// FromAny converts decoded JSON-like Go values (as produced by encoding/json into
// `any`) into a Value. Keys of plain Go maps are sorted since their order is lost.
func FromAny(in any) Value {
	switch t := in.(type) {
	case nil:
		return NullValue()
	case Value:
		return t
	case bool:
		return BoolOf(t)
	case float64:
		return NumberOf(t)
	case float32:
		return NumberOf(float64(t))
	case int:
		return NumberOf(float64(t))
	case int32:
		return NumberOf(float64(t))
	case int64:
		return NumberOf(float64(t))
	case uint:
		return NumberOf(float64(t))
	case uint64:
		return NumberOf(float64(t))
	case string:
		return StringOf(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}

		return ListOf(items...)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = StringOf(item)
		}

		return ListOf(items...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		obj := NewObject()
		for _, key := range keys {
			obj.Set(key, FromAny(t[key]))
		}

		return MapOf(obj)
	case map[string]string:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		obj := NewObject()
		for _, key := range keys {
			obj.Set(key, StringOf(t[key]))
		}

		return MapOf(obj)
	default:
		return StringOf(fmt.Sprint(t))
	}
}

// ToAny converts v back to plain Go values. Undefined becomes nil.
func (v Value) ToAny() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.n
	case String:
		return v.s
	case List:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.ToAny()
		}

		return out
	case Map:
		out := make(map[string]any, v.obj.Len())
		v.obj.Range(func(key string, item Value) bool {
			out[key] = item.ToAny()

			return true
		})

		return out
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case String:
		return v.s
	default:
		data, err := v.MarshalJSON()
		if err != nil {
			return v.kind.String()
		}

		return string(data)
	}
}
