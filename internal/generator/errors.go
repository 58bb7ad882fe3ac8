package generator

import (
	"fmt"
	"time"
)

// InitializationError is returned when documents are requested from an
// assembler that was never wired to a generator.
type InitializationError struct {
	Reason string
}

func (e *InitializationError) Error() string {
	return "generator not initialized: " + e.Reason
}

// ValidationError reports a generated document that violates its own schema.
// It signals a generator defect and must not be dropped.
type ValidationError struct {
	Field   string
	Allowed []interface{} // empty for type mismatches
	Got     interface{}
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("field %s must be one of %v, got %v", e.Field, formatValues(e.Allowed), formatValue(e.Got))
	}
	return fmt.Sprintf("field %s: %s (got %v of type %T)", e.Field, e.Reason, formatValue(e.Got), e.Got)
}

func formatValues(vs []interface{}) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = fmt.Sprint(formatValue(v))
	}
	return out
}

func formatValue(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339Nano)
	}
	return v
}
