package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var errUnexpectedToken = errors.New("unexpected JSON token")

// MarshalJSON encodes v keeping map key order. Undefined encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	err := v.encode(&buf)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Undefined, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		data, err := json.Marshal(v.n)
		if err != nil {
			return fmt.Errorf("failed to encode number: %w", err)
		}

		buf.Write(data)
	case String:
		data, err := json.Marshal(v.s)
		if err != nil {
			return fmt.Errorf("failed to encode string: %w", err)
		}

		buf.Write(data)
	case List:
		buf.WriteByte('[')

		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := item.encode(buf); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case Map:
		buf.WriteByte('{')

		first := true

		var err error

		v.obj.Range(func(key string, item Value) bool {
			if !first {
				buf.WriteByte(',')
			}

			first = false

			var data []byte

			data, err = json.Marshal(key)
			if err != nil {
				return false
			}

			buf.Write(data)
			buf.WriteByte(':')

			err = item.encode(buf)

			return err == nil
		})

		if err != nil {
			return err
		}

		buf.WriteByte('}')
	}

	return nil
}

// UnmarshalJSON decodes JSON into v preserving object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	out, err := decode(dec)
	if err != nil {
		return err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errUnexpectedToken)
	}

	*v = out

	return nil
}

// Parse decodes a JSON document into a Value.
func Parse(data []byte) (Value, error) {
	var v Value

	err := v.UnmarshalJSON(data)

	return v, err
}

func decode(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Undef(), err
	}

	switch t := tok.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolOf(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Undef(), fmt.Errorf("invalid number %q: %w", t.String(), err)
		}

		return NumberOf(n), nil
	case string:
		return StringOf(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}

			for dec.More() {
				item, err := decode(dec)
				if err != nil {
					return Undef(), err
				}

				items = append(items, item)
			}

			if _, err := dec.Token(); err != nil {
				return Undef(), err
			}

			return ListOf(items...), nil
		case '{':
			obj := NewObject()

			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Undef(), err
				}

				key, ok := keyTok.(string)
				if !ok {
					return Undef(), fmt.Errorf("%w: object key %v", errUnexpectedToken, keyTok)
				}

				item, err := decode(dec)
				if err != nil {
					return Undef(), err
				}

				obj.Set(key, item)
			}

			if _, err := dec.Token(); err != nil {
				return Undef(), err
			}

			return MapOf(obj), nil
		}
	}

	return Undef(), fmt.Errorf("%w: %v", errUnexpectedToken, tok)
}
