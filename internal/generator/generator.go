package generator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/Rana718/docstorm/internal/schema"
)

const (
	// seedMax bounds the per-generator seed. Unique values are
	// seed*uniqueStride + counter, so workers with different seeds occupy
	// disjoint blocks of the int64 space as long as counters stay below
	// uniqueStride.
	seedMax      = 1_000_000_000
	uniqueStride = 1_000_000

	defaultIntMax = 10_000
	hotBucketMax  = 9
	hotBucketProb = 0.8

	tokenLength   = 8
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	dateWindowYears = 2
)

// ErrCounterExhausted is returned when a unique counter can no longer
// produce a value representable as int64.
var ErrCounterExhausted = errors.New("unique counter exhausted")

// ErrSeedOutOfRange is returned for seeds whose unique block would not fit
// in int64.
var ErrSeedOutOfRange = errors.New("seed out of range")

// ValidateSeed reports whether seed lies in [1, seedMax].
func ValidateSeed(seed int64) error {
	if seed < 1 || seed > seedMax {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrSeedOutOfRange, seed, int64(seedMax))
	}
	return nil
}

// Generator synthesizes field values. It owns all generation state for one
// worker and must not be shared between goroutines.
type Generator struct {
	rand     *rand.Rand
	seed     int64
	now      func() time.Time
	counters map[string]int64
	pools    map[string]*rangePool
}

type Option func(*Generator)

// WithSeed fixes the seed instead of drawing it. Seeds outside
// [1, 1e9] make unique fields fail with ErrSeedOutOfRange.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = seed }
}

// WithRand supplies the random source used for every draw.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rand = r }
}

// WithClock replaces time.Now for date generation.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a Generator for spec. A seed in [1, 1e9] is drawn unless
// WithSeed is given, and the per-field unique-range pools are rotated by it.
func New(spec *schema.Spec, opts ...Option) *Generator {
	g := &Generator{
		now:      time.Now,
		counters: make(map[string]int64),
		pools:    make(map[string]*rangePool),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rand == nil {
		g.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.seed == 0 {
		g.seed = g.rand.Int63n(seedMax) + 1
	}

	if spec != nil {
		for _, f := range spec.Fields {
			if f.Unique {
				g.counters[f.Name] = 0
			}
			if f.UniqueRange > 0 {
				g.pools[f.Name] = newRangePool(f.UniqueRange, g.seed)
			}
		}
	}

	return g
}

// Seed returns the seed separating this generator's unique values from
// those of other workers.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Rand exposes the generator's random source so the rest of a worker can
// draw from the same stream.
func (g *Generator) Rand() *rand.Rand {
	return g.rand
}

// Generate produces one value for f.
func (g *Generator) Generate(f schema.FieldSpec) (interface{}, error) {
	if f.Enumerated() {
		return f.AllowedValues[g.rand.Intn(len(f.AllowedValues))], nil
	}

	switch f.Type {
	case schema.Int:
		return g.generateInt(f)
	case schema.String:
		return g.generateToken(), nil
	case schema.Date:
		return g.generateDate(), nil
	default:
		return nil, &schema.TypeError{Type: f.Type.String()}
	}
}

func (g *Generator) generateInt(f schema.FieldSpec) (interface{}, error) {
	switch {
	case f.Unique:
		return g.nextUnique(f.Name)
	case f.UniqueRange > 0:
		pool, ok := g.pools[f.Name]
		if !ok || pool.size != f.UniqueRange {
			pool = newRangePool(f.UniqueRange, g.seed)
			g.pools[f.Name] = pool
		}
		return pool.next(), nil
	case f.Skewed:
		if g.rand.Float64() < hotBucketProb {
			return int64(g.rand.Intn(hotBucketMax + 1)), nil
		}
		return int64(hotBucketMax + 1 + g.rand.Intn(defaultIntMax-hotBucketMax)), nil
	default:
		return int64(g.rand.Intn(defaultIntMax + 1)), nil
	}
}

func (g *Generator) nextUnique(name string) (int64, error) {
	if err := ValidateSeed(g.seed); err != nil {
		return 0, err
	}
	base := g.seed * uniqueStride
	counter := g.counters[name]
	if counter >= math.MaxInt64-base {
		return 0, ErrCounterExhausted
	}
	counter++
	g.counters[name] = counter
	return base + counter, nil
}

func (g *Generator) generateToken() string {
	b := make([]byte, tokenLength)
	for i := range b {
		b[i] = tokenAlphabet[g.rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}

func (g *Generator) generateDate() time.Time {
	end := g.now()
	start := end.AddDate(-dateWindowYears, 0, 0)
	span := end.Sub(start)
	return start.Add(time.Duration(g.rand.Int63n(int64(span) + 1)))
}

// rangePool cycles through [0, size). The pool holds 0..size-1 in order, so
// a slot's value is its index and only the read cursor needs storing.
type rangePool struct {
	size   int
	cursor int
}

// newRangePool starts the cursor where a right rotation of the ordered pool
// by seed mod size would leave the front element.
func newRangePool(size int, seed int64) *rangePool {
	shift := int(seed % int64(size))
	return &rangePool{
		size:   size,
		cursor: (size - shift) % size,
	}
}

func (p *rangePool) next() int64 {
	v := p.cursor
	p.cursor = (p.cursor + 1) % p.size
	return int64(v)
}
