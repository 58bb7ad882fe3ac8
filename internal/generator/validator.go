package generator

import (
	"github.com/Rana718/docstorm/internal/schema"
	"github.com/Rana718/docstorm/internal/types"
)

// Validator checks an assembled document against its schema.
type Validator interface {
	Validate(doc types.Document) error
}

// NewValidator returns a schema validator when enabled and a no-op otherwise.
func NewValidator(spec *schema.Spec, enabled bool) Validator {
	if !enabled || spec == nil {
		return noopValidator{}
	}
	return &schemaValidator{spec: spec}
}

type noopValidator struct{}

func (noopValidator) Validate(types.Document) error { return nil }

type schemaValidator struct {
	spec *schema.Spec
}

func (v *schemaValidator) Validate(doc types.Document) error {
	for _, f := range v.spec.Fields {
		val, ok := doc[f.Name]
		if !ok {
			return &ValidationError{Field: f.Name, Reason: "missing from document"}
		}
		if !f.Accepts(val) {
			return &ValidationError{Field: f.Name, Got: val, Reason: "expected " + f.Type.String()}
		}
		if f.Enumerated() && !f.Allows(val) {
			return &ValidationError{Field: f.Name, Allowed: f.AllowedValues, Got: val}
		}
	}
	return nil
}
