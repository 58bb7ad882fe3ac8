package database

import (
	"context"

	"github.com/Rana718/docstorm/internal/database/common"
	"github.com/Rana718/docstorm/internal/types"
)

// Store is the capability set the workload needs from a data store.
// Implementations must be safe for concurrent use by all workers.
type Store interface {
	// Connection management
	Connect(ctx context.Context, opts Options) error
	Close() error
	Ping(ctx context.Context) error

	// Document operations
	InsertOne(ctx context.Context, doc types.Document) error
	InsertMany(ctx context.Context, docs []types.Document) error
	// FindOne returns nil without error when nothing matches.
	FindOne(ctx context.Context, filter types.Filter) (types.Document, error)

	// Aggregation
	Aggregate(ctx context.Context, group types.GroupCount, target types.Target) ([]types.Document, error)
}

// Options describe where documents go and how the target is prepared.
type Options = common.Options
