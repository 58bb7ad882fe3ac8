package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Descriptor is one entry of a schema file as written on disk.
type Descriptor struct {
	Name          string        `json:"name" yaml:"name"`
	Type          string        `json:"type" yaml:"type"`
	AllowedValues []interface{} `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`
	Unique        bool          `json:"unique,omitempty" yaml:"unique,omitempty"`
	Skewed        bool          `json:"skewed,omitempty" yaml:"skewed,omitempty"`
	UniqueRange   *int          `json:"unique_range,omitempty" yaml:"unique_range,omitempty"`
}

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks the decoder from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("unsupported schema format: %s", filepath.Ext(path))
	}
}

// LoadFile reads and validates a schema file.
func LoadFile(path string) (*Spec, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &ConfigError{Index: -1, Reason: "cannot load " + path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	return Parse(data, format)
}

// Parse decodes and validates schema content.
func Parse(data []byte, format Format) (*Spec, error) {
	var descs []Descriptor

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&descs); err != nil {
			return nil, &ConfigError{Index: -1, Reason: "invalid JSON", Err: err}
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &descs); err != nil {
			return nil, &ConfigError{Index: -1, Reason: "invalid YAML", Err: err}
		}
	default:
		return nil, &ConfigError{Index: -1, Reason: fmt.Sprintf("unknown format %d", format)}
	}

	return FromDescriptors(descs)
}

// FromDescriptors validates descriptors and converts them into a Spec.
func FromDescriptors(descs []Descriptor) (*Spec, error) {
	if len(descs) == 0 {
		return nil, &ConfigError{Index: -1, Reason: "schema defines no fields"}
	}

	fields := make([]FieldSpec, 0, len(descs))
	seen := make(map[string]bool, len(descs))

	for i, d := range descs {
		if d.Name == "" {
			return nil, configErr(i, "", "missing name")
		}
		if seen[d.Name] {
			return nil, configErr(i, d.Name, "duplicate field name")
		}
		seen[d.Name] = true

		if d.Type == "" {
			return nil, configErr(i, d.Name, "missing type")
		}
		ft, err := ParseFieldType(d.Type)
		if err != nil {
			return nil, &ConfigError{Index: i, Field: d.Name, Reason: "invalid type", Err: err}
		}

		field := FieldSpec{
			Name:   d.Name,
			Type:   ft,
			Unique: d.Unique,
			Skewed: d.Skewed,
		}

		if d.UniqueRange != nil {
			if d.Unique {
				return nil, configErr(i, d.Name, "unique and unique_range are mutually exclusive")
			}
			if *d.UniqueRange <= 0 {
				return nil, configErr(i, d.Name, "unique_range must be positive, got %d", *d.UniqueRange)
			}
			field.UniqueRange = *d.UniqueRange
		}

		if len(d.AllowedValues) > 0 {
			field.AllowedValues = make([]interface{}, 0, len(d.AllowedValues))
			for _, raw := range d.AllowedValues {
				v, err := normalizeLiteral(ft, raw)
				if err != nil {
					return nil, &ConfigError{Index: i, Field: d.Name, Reason: "invalid allowed value", Err: err}
				}
				field.AllowedValues = append(field.AllowedValues, v)
			}
		}

		fields = append(fields, field)
	}

	return NewSpec(fields), nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// normalizeLiteral converts a decoded schema literal to the Go type the
// generator produces for t.
func normalizeLiteral(t FieldType, raw interface{}) (interface{}, error) {
	switch t {
	case Int:
		switch v := raw.(type) {
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("%s is not an integer", v)
			}
			return n, nil
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case uint64:
			if v > math.MaxInt64 {
				return nil, fmt.Errorf("%d overflows int64", v)
			}
			return int64(v), nil
		case float64:
			if v != math.Trunc(v) || math.Abs(v) > math.MaxInt64 {
				return nil, fmt.Errorf("%v is not an integer", v)
			}
			return int64(v), nil
		}
	case String:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case Date:
		switch v := raw.(type) {
		case time.Time:
			return v, nil
		case string:
			for _, layout := range dateLayouts {
				if ts, err := time.Parse(layout, v); err == nil {
					return ts, nil
				}
			}
			return nil, fmt.Errorf("cannot parse %q as a date", v)
		}
	}
	return nil, fmt.Errorf("%v (%T) does not match type %s", raw, raw, t)
}
