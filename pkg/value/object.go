package value

// Object is an insertion-ordered string-keyed map.
type Object struct {
	keys   []string
	values map[string]Value
}

func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	return len(o.keys)
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Undef(), false
	}

	v, ok := o.values[key]

	return v, ok
}

// Set stores v under key, keeping the key's original position when it already exists.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.values[key] = v
}

func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}

	delete(o.values, key)

	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)

			break
		}
	}
}

// Keys returns a copy of the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}

	out := make([]string, len(o.keys))
	copy(out, o.keys)

	return out
}

// Range calls fn for each entry in order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}

	for _, key := range o.keys {
		if !fn(key, o.values[key]) {
			return
		}
	}
}

func (o *Object) Clone() *Object {
	out := NewObject()
	o.Range(func(key string, v Value) bool {
		out.Set(key, v.Clone())

		return true
	})

	return out
}
