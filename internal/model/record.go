package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ppiankov/teachload/internal/schema"
)

// Kind tells whether a Value holds text or a number.
type Kind int

const (
	KindString Kind = iota
	KindNumber
)

// Value is a single typed field value.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

// String wraps a text value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number wraps a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text renders the value for tabular output. Numbers use the shortest
// representation that round-trips.
func (v Value) Text() string {
	if v.Kind == KindNumber {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}

// Any returns the value as a plain Go value (string or float64).
func (v Value) Any() any {
	if v.Kind == KindNumber {
		return v.Num
	}
	return v.Str
}

// MarshalJSON emits numbers as JSON numbers and text as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindNumber {
		return json.Marshal(v.Num)
	}
	return json.Marshal(v.Str)
}

// Coercion notes a numeric field that could not be parsed and was set to zero.
type Coercion struct {
	Field string `json:"field"`
	Raw   string `json:"raw"`
}

// Record is a validated row with every schema field populated.
type Record struct {
	schema    *schema.Schema
	values    []Value
	Page      int
	Coercions []Coercion
}

// NewRecord binds values to a schema. values must have exactly s.Len() entries.
func NewRecord(s *schema.Schema, values []Value) (Record, error) {
	if len(values) != s.Len() {
		return Record{}, fmt.Errorf("record has %d values, schema has %d fields", len(values), s.Len())
	}
	return Record{schema: s, values: values}, nil
}

// Schema returns the schema the record was built against.
func (r Record) Schema() *schema.Schema { return r.schema }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.values) }

// At returns the i-th value.
func (r Record) At(i int) Value { return r.values[i] }

// Get returns the value of a named field.
func (r Record) Get(name string) (Value, bool) {
	i, ok := r.schema.Index(name)
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Map returns the record as a field-name-to-value mapping.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, v := range r.values {
		m[r.schema.Field(i)] = v.Any()
	}
	return m
}

// Strings renders every value with Value.Text, in schema order.
func (r Record) Strings() []string {
	out := make([]string, len(r.values))
	for i, v := range r.values {
		out[i] = v.Text()
	}
	return out
}

// MarshalJSON writes the record as an object whose keys follow schema order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range r.values {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.schema.Field(i))
		if err != nil {
			return nil, err
		}
		val, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", r.schema.Field(i), err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
