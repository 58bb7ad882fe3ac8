package schema

import (
	"fmt"
	"time"
)

// FieldType is the closed set of value kinds a field can hold.
type FieldType int

const (
	Int FieldType = iota + 1
	String
	Date
)

func (t FieldType) String() string {
	switch t {
	case Int:
		return "int"
	case String:
		return "string"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// ParseFieldType maps the schema file spelling of a type to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "int":
		return Int, nil
	case "string":
		return String, nil
	case "date":
		return Date, nil
	default:
		return 0, &TypeError{Type: s}
	}
}

// FieldSpec describes how one document field is generated.
//
// AllowedValues, when non-empty, dominates every other policy. Its elements
// are already normalized to the Go type of the field: int64 for Int, string
// for String and time.Time for Date.
type FieldSpec struct {
	Name          string
	Type          FieldType
	AllowedValues []interface{}
	Unique        bool
	Skewed        bool
	UniqueRange   int // 0 when unset
}

// Enumerated reports whether the field draws from a fixed set of literals.
func (f FieldSpec) Enumerated() bool {
	return len(f.AllowedValues) > 0
}

// Allows reports whether v is one of the field's allowed values.
func (f FieldSpec) Allows(v interface{}) bool {
	for _, a := range f.AllowedValues {
		if sameValue(a, v) {
			return true
		}
	}
	return false
}

// Accepts reports whether v has the Go type generated for the field.
func (f FieldSpec) Accepts(v interface{}) bool {
	switch f.Type {
	case Int:
		_, ok := v.(int64)
		return ok
	case String:
		_, ok := v.(string)
		return ok
	case Date:
		_, ok := v.(time.Time)
		return ok
	default:
		return false
	}
}

func sameValue(a, b interface{}) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return a == b
}

// Spec is an ordered list of field descriptors.
type Spec struct {
	Fields []FieldSpec
	index  map[string]int
}

// NewSpec builds a Spec from already validated fields.
func NewSpec(fields []FieldSpec) *Spec {
	s := &Spec{
		Fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Field looks a field up by name.
func (s *Spec) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[i], true
}

// Names returns field names in spec order.
func (s *Spec) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func (s *Spec) Len() int {
	return len(s.Fields)
}
