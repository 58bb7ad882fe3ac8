package common

import (
	"fmt"
	"sort"
	"time"

	"github.com/Rana718/docstorm/internal/types"
)

// Tally counts documents per group key for stores that aggregate in process.
type Tally struct {
	counts map[interface{}]int64
	order  []interface{}
}

func NewTally() *Tally {
	return &Tally{counts: make(map[interface{}]int64)}
}

func (t *Tally) Add(key interface{}) {
	if ts, ok := key.(time.Time); ok {
		key = ts.UTC()
	}
	if _, seen := t.counts[key]; !seen {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

// Results returns one document per group, largest count first. Ties are
// broken by the printed key so output is stable.
func (t *Tally) Results(g types.GroupCount) []types.Document {
	order := append([]interface{}(nil), t.order...)
	sort.SliceStable(order, func(i, j int) bool {
		ci, cj := t.counts[order[i]], t.counts[order[j]]
		if ci != cj {
			return ci > cj
		}
		return fmt.Sprint(order[i]) < fmt.Sprint(order[j])
	})

	results := make([]types.Document, 0, len(order))
	for _, key := range order {
		results = append(results, types.Document{
			g.Field:     key,
			g.CountAs(): t.counts[key],
		})
	}
	return results
}

// Matches reports whether doc has every filter field with an equal value.
func Matches(doc types.Document, filter types.Filter) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !ValuesEqual(got, want) {
			return false
		}
	}
	return true
}

func ValuesEqual(a, b interface{}) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
