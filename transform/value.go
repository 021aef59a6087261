// Copyright 2015 Comcast Cable Communications Management, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// End Copyright

package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind discriminates the variants of Value. See spec §3.1: a JSON value is
// one of Null, Bool, Int, Decimal, Text, Array, or Object. Int and Decimal
// are distinct variants on purpose — see Value.Equal.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDecimal
	KindText
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindText:
		return "text"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a polymorphic tagged JSON value. It is a plain struct rather
// than an interface{} so that Kind-based dispatch (in Equal, TextForm,
// MarshalJSON)
// is a switch, not a type assertion cascade.
type Value struct {
	kind Kind
	b    bool
	i    int64
	d    decimal.Decimal
	s    string
	arr  []Value
	obj  *Object
}

// Object is an insertion-order-preserving string-keyed map of Values.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject makes an empty Object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set inserts or updates key. New keys are appended to the insertion order;
// re-setting an existing key does not move it.
func (o *Object) Set(key string, v Value) {
	if _, have := o.vals[key]; !have {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	return o.keys
}

// Len returns the number of entries.
func (o *Object) Len() int {
	return len(o.keys)
}

// Constructors.

func Null() Value                { return Value{kind: KindNull} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value     { return Value{kind: KindInt, i: i} }
func TextValue(s string) Value   { return Value{kind: KindText, s: s} }
func ArrayValue(a []Value) Value { return Value{kind: KindArray, arr: a} }
func ObjectValueOf(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

func DecimalValue(d decimal.Decimal) Value {
	return Value{kind: KindDecimal, d: d}
}

func DecimalFromFloat(f float64) Value {
	return Value{kind: KindDecimal, d: decimal.NewFromFloat(f)}
}

// Accessors.

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) Decimal() (decimal.Decimal, bool) {
	if v.kind != KindDecimal {
		return decimal.Decimal{}, false
	}
	return v.d, true
}

func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

func (v Value) Array() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) Object() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// AsNumericDecimal returns v's numeric value as a decimal.Decimal for Int
// and Decimal kinds, regardless of which variant it is. Used by ordering
// comparisons and arithmetic functions, which do not need the Int/Decimal
// distinction that equality does.
func (v Value) AsNumericDecimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindInt:
		return decimal.NewFromInt(v.i), true
	case KindDecimal:
		return v.d, true
	default:
		return decimal.Decimal{}, false
	}
}

// TextForm renders v the way the interpreter needs for value-mapping table
// lookups, $string, and condition string operators: the natural textual
// form of scalars, "" for null, and the compact JSON form for arrays and
// objects.
func (v Value) TextForm() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDecimal:
		return v.d.String()
	case KindText:
		return v.s
	default:
		bs, _ := json.Marshal(v)
		return string(bs)
	}
}

// Equal implements the type-strict equality of spec §4.4.
func (v Value) Equal(o Value) bool {
	if v.kind == KindNull || o.kind == KindNull {
		return v.kind == KindNull && o.kind == KindNull
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindDecimal:
		return v.d.Equal(o.d)
	case KindText:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != o.obj.Len() {
			return false
		}
		for _, k := range v.obj.Keys() {
			ov, have := o.obj.Get(k)
			if !have {
				return false
			}
			vv, _ := v.obj.Get(k)
			if !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON preserves the Int/Decimal distinction and object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindDecimal:
		return []byte(v.d.String()), nil
	case KindText:
		return json.Marshal(v.s)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			bs, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(bs)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.obj.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			ev, _ := v.obj.Get(k)
			vb, err := ev.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("transform: unmarshalable Value kind %v", v.kind)
}

// UnmarshalJSON is provided for convenience (e.g. embedding a Value in a
// struct decoded by encoding/json) but ParseValue below, which walks a
// json.Decoder's token stream directly, is what the interpreter uses: it
// is the only way to keep object key order and the Int/Decimal distinction
// without a second parse pass.
func (v *Value) UnmarshalJSON(bs []byte) error {
	parsed, err := ParseValue(bs)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseValue parses a single JSON document into a Value tree, preserving
// object key insertion order and classifying each numeric literal as Int
// or Decimal by its lexical form (a fractional part or exponent makes it
// a Decimal; spec §3.1).
func ParseValue(bs []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(bs))
	dec.UseNumber()
	v, err := parseValueFromDecoder(dec)
	if err != nil {
		return Value{}, err
	}
	// Reject trailing garbage after the first JSON value.
	if _, err := dec.Token(); err == nil {
		return Value{}, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func parseValueFromDecoder(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("expected object key, got %v", keyTok)
				}
				val, err := parseValueFromDecoder(dec)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return ObjectValueOf(obj), nil
		case '[':
			arr := make([]Value, 0)
			for dec.More() {
				val, err := parseValueFromDecoder(dec)
				if err != nil {
					return Value{}, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return ArrayValue(arr), nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %v", t)
	case nil:
		return Null(), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return TextValue(t), nil
	case json.Number:
		return parseNumber(string(t))
	default:
		return Value{}, fmt.Errorf("unexpected token %v (%T)", tok, tok)
	}
}

func parseNumber(lit string) (Value, error) {
	if strings.ContainsAny(lit, ".eE") {
		d, err := decimal.NewFromString(lit)
		if err != nil {
			return Value{}, fmt.Errorf("bad number literal %q: %w", lit, err)
		}
		return DecimalValue(d), nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		// Integer literal too big for int64; fall back to a Decimal rather
		// than lose precision.
		d, derr := decimal.NewFromString(lit)
		if derr != nil {
			return Value{}, fmt.Errorf("bad number literal %q: %w", lit, err)
		}
		return DecimalValue(d), nil
	}
	return IntValue(i), nil
}
