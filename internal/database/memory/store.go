package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Rana718/docstorm/internal/database/common"
	"github.com/Rana718/docstorm/internal/types"
)

// Store keeps documents in process memory. It backs dry runs and tests.
type Store struct {
	mu         sync.RWMutex
	docs       []types.Document
	indexField string
	index      map[interface{}]int
	connected  bool
}

func New() *Store {
	return &Store{}
}

func (s *Store) Connect(ctx context.Context, opts common.Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = true
	if opts.IndexField != "" {
		s.indexField = opts.IndexField
		s.index = make(map[interface{}]int)
		for i, doc := range s.docs {
			s.indexLocked(doc, i)
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return fmt.Errorf("memory store is not connected")
	}
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Store) InsertOne(ctx context.Context, doc types.Document) error {
	return s.InsertMany(ctx, []types.Document{doc})
}

func (s *Store) InsertMany(ctx context.Context, docs []types.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		stored := make(types.Document, len(doc))
		for k, v := range doc {
			stored[k] = v
		}
		s.docs = append(s.docs, stored)
		s.indexLocked(stored, len(s.docs)-1)
	}
	return nil
}

// indexLocked keeps the first position of each key value.
func (s *Store) indexLocked(doc types.Document, pos int) {
	if s.index == nil {
		return
	}
	key, ok := doc[s.indexField]
	if !ok || key == nil {
		return
	}
	if _, exists := s.index[key]; !exists {
		s.index[key] = pos
	}
}

func (s *Store) FindOne(ctx context.Context, filter types.Filter) (types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index != nil && len(filter) == 1 {
		if key, ok := filter[s.indexField]; ok {
			if pos, found := s.index[key]; found {
				return copyDoc(s.docs[pos]), nil
			}
			return nil, nil
		}
	}

	for _, doc := range s.docs {
		if common.Matches(doc, filter) {
			return copyDoc(doc), nil
		}
	}
	return nil, nil
}

func (s *Store) Aggregate(ctx context.Context, g types.GroupCount, target types.Target) ([]types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tally := common.NewTally()
	for _, doc := range s.docs {
		tally.Add(doc[g.Field])
	}
	return tally.Results(g), nil
}

func copyDoc(doc types.Document) types.Document {
	out := make(types.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
