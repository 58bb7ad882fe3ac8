package schema

import "fmt"

// ConfigError reports a malformed or contradictory schema. It is fatal and is
// raised before any worker starts.
type ConfigError struct {
	Index  int    // position of the offending descriptor, -1 for file-level errors
	Field  string // may be empty when the descriptor has no name
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	switch {
	case e.Field != "":
		return fmt.Sprintf("schema field %q: %s", e.Field, msg)
	case e.Index >= 0:
		return fmt.Sprintf("schema field #%d: %s", e.Index, msg)
	default:
		return "schema: " + msg
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TypeError reports a field type outside int, string and date.
type TypeError struct {
	Type string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("unsupported field type %q (supported: int, string, date)", e.Type)
}

func configErr(index int, field, format string, args ...interface{}) error {
	return &ConfigError{Index: index, Field: field, Reason: fmt.Sprintf(format, args...)}
}
