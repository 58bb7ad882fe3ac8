package generator

import (
	"fmt"

	"github.com/Rana718/docstorm/internal/schema"
	"github.com/Rana718/docstorm/internal/types"
)

// Assembler builds whole documents by generating every field of a spec in
// order and running the configured validator over the result.
type Assembler struct {
	gen       *Generator
	spec      *schema.Spec
	validator Validator
}

// NewAssembler wires gen to spec. validate selects the schema validator over
// the no-op one; generation is identical either way.
func NewAssembler(gen *Generator, spec *schema.Spec, validate bool) *Assembler {
	return &Assembler{
		gen:       gen,
		spec:      spec,
		validator: NewValidator(spec, validate),
	}
}

// Generator returns the underlying value generator.
func (a *Assembler) Generator() *Generator {
	if a == nil {
		return nil
	}
	return a.gen
}

// Generate returns one fresh document.
func (a *Assembler) Generate() (types.Document, error) {
	if a == nil || a.gen == nil {
		return nil, &InitializationError{Reason: "document requested before the generator was set up"}
	}
	if a.spec == nil {
		return nil, &InitializationError{Reason: "no schema loaded"}
	}

	doc := make(types.Document, a.spec.Len())
	for _, f := range a.spec.Fields {
		v, err := a.gen.Generate(f)
		if err != nil {
			return nil, fmt.Errorf("failed to generate field %s: %w", f.Name, err)
		}
		doc[f.Name] = v
	}

	if err := a.validator.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GenerateBatch returns n documents, stopping at the first error.
func (a *Assembler) GenerateBatch(n int) ([]types.Document, error) {
	docs := make([]types.Document, 0, n)
	for i := 0; i < n; i++ {
		doc, err := a.Generate()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
