package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/Rana718/docstorm/internal/database/common"
	"github.com/Rana718/docstorm/internal/types"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store keeps documents in a bbolt file. Each collection is a bucket of
// BSON-encoded documents keyed by insertion sequence; the optional key index
// is a sibling bucket mapping encoded key values to the first sequence.
type Store struct {
	db         *bolt.DB
	path       string
	bucket     []byte
	indexField string
	index      []byte
}

func New() *Store {
	return &Store{}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Connect(ctx context.Context, opts common.Options) error {
	if opts.Collection == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	s.path = strings.TrimPrefix(opts.URL, "bolt://")
	if s.path == "" {
		return fmt.Errorf("bolt database path cannot be empty")
	}

	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open bbolt database: %w", err)
	}
	s.db = db
	s.bucket = []byte(opts.Collection)

	if opts.IndexField != "" {
		s.indexField = opts.IndexField
		s.index = []byte(common.IndexName(opts.Collection, opts.IndexField))
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(s.bucket); err != nil {
			return err
		}
		if s.index == nil {
			return nil
		}
		idx, err := tx.CreateBucketIfNotExists(s.index)
		if err != nil {
			return err
		}
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			doc, err := decode(v)
			if err != nil {
				return err
			}
			return s.indexDoc(idx, doc, k)
		})
	})
	if err != nil {
		s.db.Close()
		return fmt.Errorf("failed to prepare bucket %s: %w", opts.Collection, err)
	}

	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("bolt store is not connected")
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return fmt.Errorf("bucket not found: %s", s.bucket)
		}
		return nil
	})
}

func (s *Store) InsertOne(ctx context.Context, doc types.Document) error {
	return s.InsertMany(ctx, []types.Document{doc})
}

func (s *Store) InsertMany(ctx context.Context, docs []types.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(s.bucket)
		if bkt == nil {
			return fmt.Errorf("bucket not found: %s", s.bucket)
		}
		var idx *bolt.Bucket
		if s.index != nil {
			idx = tx.Bucket(s.index)
		}

		for _, doc := range docs {
			seq, err := bkt.NextSequence()
			if err != nil {
				return err
			}
			key := seqKey(seq)

			data, err := bson.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to encode document: %w", err)
			}
			if err := bkt.Put(key, data); err != nil {
				return err
			}
			if idx != nil {
				if err := s.indexDoc(idx, doc, key); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// indexDoc records the first document seen for each key value.
func (s *Store) indexDoc(idx *bolt.Bucket, doc types.Document, seq []byte) error {
	value, ok := doc[s.indexField]
	if !ok || value == nil {
		return nil
	}
	k, err := indexKey(value)
	if err != nil {
		return err
	}
	if idx.Get(k) != nil {
		return nil
	}
	return idx.Put(k, seq)
}

func (s *Store) FindOne(ctx context.Context, filter types.Filter) (types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filter = storedFilter(filter)

	var found types.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(s.bucket)
		if bkt == nil {
			return fmt.Errorf("bucket not found: %s", s.bucket)
		}

		if value, ok := filter[s.indexField]; ok && s.index != nil && len(filter) == 1 {
			k, err := indexKey(value)
			if err != nil {
				return err
			}
			seq := tx.Bucket(s.index).Get(k)
			if seq == nil {
				return nil
			}
			found, err = decode(bkt.Get(seq))
			return err
		}

		c := bkt.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			doc, err := decode(v)
			if err != nil {
				return err
			}
			if common.Matches(doc, filter) {
				found = doc
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s *Store) Aggregate(ctx context.Context, g types.GroupCount, target types.Target) ([]types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tally := common.NewTally()
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(s.bucket)
		if bkt == nil {
			return fmt.Errorf("bucket not found: %s", s.bucket)
		}
		return bkt.ForEach(func(k, v []byte) error {
			doc, err := decode(v)
			if err != nil {
				return err
			}
			tally.Add(doc[g.Field])
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tally.Results(g), nil
}

// storedFilter truncates dates to the millisecond precision BSON keeps, so a
// filter built from a generated document matches what was stored.
func storedFilter(filter types.Filter) types.Filter {
	out := make(types.Filter, len(filter))
	for k, v := range filter {
		if ts, ok := v.(time.Time); ok {
			v = ts.UTC().Truncate(time.Millisecond)
		}
		out[k] = v
	}
	return out
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func indexKey(value interface{}) ([]byte, error) {
	data, err := bson.Marshal(bson.D{{Key: "k", Value: value}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode index key: %w", err)
	}
	return data, nil
}

func decode(data []byte) (types.Document, error) {
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	doc := make(types.Document, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case primitive.DateTime:
			doc[k] = val.Time().UTC()
		case int32:
			doc[k] = int64(val)
		default:
			doc[k] = v
		}
	}
	return doc, nil
}
