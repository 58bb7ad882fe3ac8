package types

// Document is one generated record: field name to value.
// Values are int64, string or time.Time.
type Document map[string]interface{}

// Filter is an equality match on one or more fields.
type Filter map[string]interface{}

// Target selects which node serves a read.
type Target int

const (
	Primary Target = iota
	Secondary
)

func (t Target) String() string {
	switch t {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// DefaultCountField is the name of the per-group counter in aggregation results.
const DefaultCountField = "total_records"

// GroupCount describes the aggregation run by the aggregate task: count
// documents per distinct value of Field, most frequent first.
type GroupCount struct {
	Field      string
	CountField string
}

// CountAs returns the counter name, falling back to DefaultCountField.
func (g GroupCount) CountAs() string {
	if g.CountField == "" {
		return DefaultCountField
	}
	return g.CountField
}
