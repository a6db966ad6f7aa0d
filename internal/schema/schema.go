// Package schema holds the fixed column layout of a teaching-load record.
package schema

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema is an immutable, ordered list of field names plus the subset of
// fields that carry numeric values. Order defines the positional mapping from
// raw tokens to fields.
type Schema struct {
	fields  []string
	numeric []bool
	index   map[string]int
}

// File is the on-disk YAML shape accepted by Load.
type File struct {
	Fields  []string `yaml:"fields"`
	Numeric []string `yaml:"numeric"`
}

// New builds a schema from ordered field names and the names of numeric fields.
func New(fields []string, numeric []string) (*Schema, error) {
	if len(fields) == 0 {
		return nil, errors.New("schema has no fields")
	}

	s := &Schema{
		fields:  make([]string, len(fields)),
		numeric: make([]bool, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	for i, name := range fields {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("field %d has an empty name", i)
		}
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("duplicate field %q", name)
		}
		s.fields[i] = name
		s.index[name] = i
	}

	for _, name := range numeric {
		i, ok := s.index[name]
		if !ok {
			return nil, fmt.Errorf("numeric field %q is not in the schema", name)
		}
		s.numeric[i] = true
	}

	return s, nil
}

// MustNew is New for package-level literals; it panics on an invalid schema.
func MustNew(fields []string, numeric []string) *Schema {
	s, err := New(fields, numeric)
	if err != nil {
		panic(err)
	}
	return s
}

// Load reads a schema from a YAML file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return New(f.Fields, f.Numeric)
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns a copy of the ordered field names.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the name of the i-th field.
func (s *Schema) Field(i int) string { return s.fields[i] }

// Index returns the position of a field name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// IsNumeric reports whether the i-th field is numeric.
func (s *Schema) IsNumeric(i int) bool { return s.numeric[i] }

// NumericCount returns the size of the numeric subset.
func (s *Schema) NumericCount() int {
	n := 0
	for _, v := range s.numeric {
		if v {
			n++
		}
	}
	return n
}

// IndexField is the record-index column, always the first field.
func (s *Schema) IndexField() string { return s.fields[0] }

// File returns the YAML representation of the schema.
func (s *Schema) File() File {
	f := File{Fields: s.Fields()}
	for i, name := range s.fields {
		if s.numeric[i] {
			f.Numeric = append(f.Numeric, name)
		}
	}
	return f
}
