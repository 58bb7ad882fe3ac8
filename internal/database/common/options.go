package common

import "github.com/Rana718/docstorm/internal/schema"

// Options describe where documents go and how the target is prepared.
type Options struct {
	URL        string
	ReplicaURL string // secondary read target; empty means reuse URL
	Database   string
	Collection string
	Spec       *schema.Spec
	IndexField string // create an index on this field when non-empty
	PoolSize   int
}

// IndexName is the name given to the key-field index.
func IndexName(collection, field string) string {
	return "idx_" + collection + "_" + field
}
