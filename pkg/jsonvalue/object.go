package jsonvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object is an insertion-ordered JSON object. Setting an existing key
// replaces its value in place.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// ObjectOf builds an object from the given members.
func ObjectOf(pairs ...Pair) *Object {
	o := NewObject()
	for _, p := range pairs {
		o.Set(p.Key, p.Value)
	}
	return o
}

// Pair is one object member.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for Pair{Key: k, Value: v}.
func P(k string, v Value) Pair { return Pair{Key: k, Value: v} }

// Set stores v under key and returns the object for chaining.
func (o *Object) Set(key string, v Value) *Object {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

// Get returns the member stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Keys returns member names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Equal compares members ignoring order.
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	if o.Len() == 0 {
		return true
	}
	for k, v := range o.values {
		ov, ok := other.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.writeTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Object) writeTo(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	if o != nil {
		for i, k := range o.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			name, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("%w: key %q: %v", ErrEncode, k, err)
			}
			buf.Write(name)
			buf.WriteByte(':')
			if err := o.values[k].writeTo(buf); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
	}
	buf.WriteByte('}')
	return nil
}
