// Package keycache keeps a bounded sample of keys a worker has written so
// that reads can target documents that exist.
package keycache

import "math/rand"

const (
	DefaultCapacity = 1000

	// replaceOneIn is the inverse probability that a full cache swaps one of
	// its entries for a newly recorded key.
	replaceOneIn = 10
)

// Cache is a fixed-capacity key sample owned by a single worker. It is not
// safe for concurrent use.
type Cache struct {
	keys []interface{}
	cap  int
	rand *rand.Rand
}

// New creates an empty cache. A non-positive capacity falls back to
// DefaultCapacity.
func New(capacity int, r *rand.Rand) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if r == nil {
		r = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Cache{
		keys: make([]interface{}, 0, capacity),
		cap:  capacity,
		rand: r,
	}
}

// Record adds key. Below capacity it is appended; once full, it replaces a
// random slot one time in ten and is dropped otherwise. This is not a
// reservoir sample: older keys outlive what uniform sampling would give them.
func (c *Cache) Record(key interface{}) {
	if key == nil {
		return
	}
	if len(c.keys) < c.cap {
		c.keys = append(c.keys, key)
		return
	}
	if c.rand.Intn(replaceOneIn) == 0 {
		c.keys[c.rand.Intn(len(c.keys))] = key
	}
}

// Sample returns a uniformly chosen key, or false if nothing was recorded.
func (c *Cache) Sample() (interface{}, bool) {
	if len(c.keys) == 0 {
		return nil, false
	}
	return c.keys[c.rand.Intn(len(c.keys))], true
}

func (c *Cache) Len() int {
	return len(c.keys)
}

func (c *Cache) Cap() int {
	return c.cap
}
