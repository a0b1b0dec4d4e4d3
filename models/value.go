// ABOUTME: Schema-free JSON values for open-ended entity attributes
// ABOUTME: Defines the Value tagged union and the insertion-ordered Fields map
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is a JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  *Fields
}

func Null() Value                { return Value{} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }
func String(s string) Value      { return Value{kind: KindString, str: s} }
func Array(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// Float builds a number Value from a float64.
func Float(f float64) Value {
	return Number(json.Number(strconv.FormatFloat(f, 'f', -1, 64)))
}

// Object wraps f. A nil f is an empty object.
func Object(f *Fields) Value {
	if f == nil {
		f = NewFields()
	}
	return Value{kind: KindObject, obj: f}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) Items() []Value { return v.arr }

// Fields returns the object payload, or nil when v is not an object.
func (v Value) Fields() *Fields {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// Text renders scalars as plain text. Arrays and objects render as compact JSON,
// null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.num.String()
	case KindString:
		return v.str
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Labels flattens a list or mapping of free-text labels. Lists yield their
// scalar items; mappings yield their keys.
func (v Value) Labels() []string {
	var out []string
	switch v.kind {
	case KindArray:
		for _, item := range v.arr {
			if s := strings.TrimSpace(item.Text()); s != "" && item.kind != KindArray && item.kind != KindObject {
				out = append(out, s)
			}
		}
	case KindObject:
		out = append(out, v.obj.Keys()...)
	case KindString:
		if s := strings.TrimSpace(v.str); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num.String()), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		return v.obj.MarshalJSON()
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseValue decodes exactly one JSON document, keeping object key order.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := DecodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// DecodeValue reads the next JSON value from dec. dec should have UseNumber set.
func DecodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '{':
			f := NewFields()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("expected object key, got %v", keyTok)
				}
				item, err := DecodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				f.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(f), nil
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := DecodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// Fields is an insertion-ordered string-keyed map of Values. A nil *Fields
// behaves as an empty map for reads.
type Fields struct {
	keys   []string
	values map[string]Value
}

func NewFields() *Fields {
	return &Fields{values: make(map[string]Value)}
}

func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

func (f *Fields) Get(key string) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	v, ok := f.values[key]
	return v, ok
}

func (f *Fields) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Text returns the plain-text form of key, or "" when absent.
func (f *Fields) Text(key string) string {
	v, _ := f.Get(key)
	return v.Text()
}

// Set stores v under key. Replacing an existing key keeps its position.
func (f *Fields) Set(key string, v Value) {
	if f.values == nil {
		f.values = make(map[string]Value)
	}
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

func (f *Fields) Delete(key string) {
	if f == nil {
		return
	}
	if _, exists := f.values[key]; !exists {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Clone returns a deep copy.
func (f *Fields) Clone() *Fields {
	out := NewFields()
	for _, k := range f.Keys() {
		out.Set(k, f.values[k].Clone())
	}
	return out
}

// Clone copies arrays and objects at every depth. Scalars are returned as is.
func (v Value) Clone() Value {
	switch v.kind {
	case KindObject:
		return Object(v.obj.Clone())
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Clone()
		}
		return Array(items...)
	default:
		return v
	}
}

func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := f.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Fields) UnmarshalJSON(data []byte) error {
	v, err := ParseValue(data)
	if err != nil {
		return err
	}
	switch v.kind {
	case KindNull:
		*f = Fields{values: make(map[string]Value)}
	case KindObject:
		*f = *v.obj
	default:
		return fmt.Errorf("expected JSON object, got %s", v.kind)
	}
	return nil
}
