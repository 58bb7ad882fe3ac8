package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var (
	ErrNoRunnableTasks = errors.New("no task has a positive weight")
	ErrNegativeWeight  = errors.New("negative task weight")
)

// Entry is one schedulable task.
type Entry struct {
	Name   string
	Weight int
	Run    func(ctx context.Context) error
}

// Scheduler picks entries with probability proportional to their weight.
// Draws are independent. A Scheduler belongs to one worker.
type Scheduler struct {
	entries    []Entry
	cumulative []int
	total      int
	rand       *rand.Rand
}

// New validates the weight table. Zero-weight entries are kept for reporting
// but can never be selected.
func New(entries []Entry, r *rand.Rand) (*Scheduler, error) {
	s := &Scheduler{
		entries:    make([]Entry, len(entries)),
		cumulative: make([]int, len(entries)),
		rand:       r,
	}
	copy(s.entries, entries)

	for i, e := range entries {
		if e.Weight < 0 {
			return nil, fmt.Errorf("%w: %s=%d", ErrNegativeWeight, e.Name, e.Weight)
		}
		if e.Weight > 0 && e.Run == nil {
			return nil, fmt.Errorf("task %s has weight %d but nothing to run", e.Name, e.Weight)
		}
		s.total += e.Weight
		s.cumulative[i] = s.total
	}
	if s.total == 0 {
		return nil, ErrNoRunnableTasks
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(rand.Int63()))
	}

	return s, nil
}

// Next returns the entry to run next.
func (s *Scheduler) Next() Entry {
	r := s.rand.Intn(s.total)
	i := sort.Search(len(s.cumulative), func(i int) bool {
		return s.cumulative[i] > r
	})
	return s.entries[i]
}

// RunNext selects an entry and runs it to completion.
func (s *Scheduler) RunNext(ctx context.Context) (string, error) {
	e := s.Next()
	return e.Name, e.Run(ctx)
}

// Probability returns the selection probability of the named entry.
func (s *Scheduler) Probability(name string) float64 {
	for _, e := range s.entries {
		if e.Name == name {
			return float64(e.Weight) / float64(s.total)
		}
	}
	return 0
}

// Weights returns the configured table in registration order.
func (s *Scheduler) Weights() map[string]int {
	w := make(map[string]int, len(s.entries))
	for _, e := range s.entries {
		w[e.Name] = e.Weight
	}
	return w
}
