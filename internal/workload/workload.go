// Package workload holds the four operations a worker mixes: single insert,
// bulk insert, find by a previously written key, and the group-count
// aggregation on the secondary target.
package workload

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Rana718/docstorm/internal/generator"
	"github.com/Rana718/docstorm/internal/keycache"
	"github.com/Rana718/docstorm/internal/scheduler"
	"github.com/Rana718/docstorm/internal/types"
)

const (
	TaskInsertOne  = "insert_one"
	TaskInsertBulk = "insert_bulk"
	TaskFindByKey  = "find_by_key"
	TaskAggregate  = "aggregate"

	DefaultBatchSize = 1000
)

// Store is the part of the store client the tasks call.
type Store interface {
	InsertOne(ctx context.Context, doc types.Document) error
	InsertMany(ctx context.Context, docs []types.Document) error
	FindOne(ctx context.Context, filter types.Filter) (types.Document, error)
	Aggregate(ctx context.Context, group types.GroupCount, target types.Target) ([]types.Document, error)
}

type Options struct {
	Assembler  *generator.Assembler
	Cache      *keycache.Cache
	Store      Store
	KeyField   string
	GroupField string
	BatchSize  int
}

// Weights is the task mix. Zero disables a task.
type Weights struct {
	InsertOne  int
	InsertBulk int
	FindByKey  int
	Aggregate  int
}

// Workload binds one worker's generator and key cache to the shared store.
// It is not safe for concurrent use.
type Workload struct {
	opts Options

	written int64
	found   int64
	missed  int64
}

func New(opts Options) (*Workload, error) {
	if opts.Assembler == nil {
		return nil, &generator.InitializationError{Reason: "workload has no document assembler"}
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("workload has no store")
	}
	if opts.Cache == nil {
		var r *rand.Rand
		if gen := opts.Assembler.Generator(); gen != nil {
			r = gen.Rand()
		}
		opts.Cache = keycache.New(keycache.DefaultCapacity, r)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Workload{opts: opts}, nil
}

func (w *Workload) record(doc types.Document) {
	if w.opts.KeyField == "" {
		return
	}
	if key, ok := doc[w.opts.KeyField]; ok {
		w.opts.Cache.Record(key)
	}
}

// InsertOne generates a document, remembers its key and writes it.
func (w *Workload) InsertOne(ctx context.Context) error {
	doc, err := w.opts.Assembler.Generate()
	if err != nil {
		return err
	}
	w.record(doc)

	if err := w.opts.Store.InsertOne(ctx, doc); err != nil {
		return err
	}
	w.written++
	return nil
}

// InsertBulk generates BatchSize documents and writes them in one call.
func (w *Workload) InsertBulk(ctx context.Context) error {
	docs, err := w.opts.Assembler.GenerateBatch(w.opts.BatchSize)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		w.record(doc)
	}

	if err := w.opts.Store.InsertMany(ctx, docs); err != nil {
		return err
	}
	w.written += int64(len(docs))
	return nil
}

// FindByKey looks up a cached key. With nothing cached yet it does nothing.
func (w *Workload) FindByKey(ctx context.Context) error {
	key, ok := w.opts.Cache.Sample()
	if !ok {
		return nil
	}

	doc, err := w.opts.Store.FindOne(ctx, types.Filter{w.opts.KeyField: key})
	if err != nil {
		return err
	}
	if doc == nil {
		w.missed++
	} else {
		w.found++
	}
	return nil
}

// Aggregate counts documents per GroupField on the secondary target.
func (w *Workload) Aggregate(ctx context.Context) error {
	_, err := w.opts.Store.Aggregate(ctx, types.GroupCount{
		Field:      w.opts.GroupField,
		CountField: types.DefaultCountField,
	}, types.Secondary)
	return err
}

// Entries is the scheduler table for weights.
func (w *Workload) Entries(weights Weights) []scheduler.Entry {
	return []scheduler.Entry{
		{Name: TaskInsertOne, Weight: weights.InsertOne, Run: w.InsertOne},
		{Name: TaskInsertBulk, Weight: weights.InsertBulk, Run: w.InsertBulk},
		{Name: TaskFindByKey, Weight: weights.FindByKey, Run: w.FindByKey},
		{Name: TaskAggregate, Weight: weights.Aggregate, Run: w.Aggregate},
	}
}

// Written is the number of documents this worker has stored.
func (w *Workload) Written() int64 {
	return w.written
}

// Lookups returns how many finds hit and missed.
func (w *Workload) Lookups() (found, missed int64) {
	return w.found, w.missed
}

func (w *Workload) Cache() *keycache.Cache {
	return w.opts.Cache
}
