package runner

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// TaskStats counts one task across all workers.
type TaskStats struct {
	ops       atomic.Uint64
	failures  atomic.Uint64
	latencyNs atomic.Uint64
	maxNs     atomic.Uint64

	mu      sync.Mutex
	lastErr error
}

func (t *TaskStats) record(latency time.Duration, err error) {
	ns := uint64(latency.Nanoseconds())
	t.ops.Add(1)
	t.latencyNs.Add(ns)
	for {
		cur := t.maxNs.Load()
		if ns <= cur || t.maxNs.CompareAndSwap(cur, ns) {
			break
		}
	}

	if err != nil {
		t.failures.Add(1)
		t.mu.Lock()
		t.lastErr = err
		t.mu.Unlock()
	}
}

// Stats is shared by every worker of a run. The task set is fixed at
// creation so lookups need no lock.
type Stats struct {
	start atomic.Int64 // unix nanoseconds
	tasks map[string]*TaskStats

	documents atomic.Int64
	found     atomic.Int64
	missed    atomic.Int64
}

func NewStats(tasks []string) *Stats {
	s := &Stats{
		tasks: make(map[string]*TaskStats, len(tasks)),
	}
	for _, name := range tasks {
		s.tasks[name] = &TaskStats{}
	}
	s.markStart()
	return s
}

// markStart restarts the elapsed-time clock.
func (s *Stats) markStart() {
	s.start.Store(time.Now().UnixNano())
}

func (s *Stats) Record(task string, latency time.Duration, err error) {
	if t, ok := s.tasks[task]; ok {
		t.record(latency, err)
	}
}

func (s *Stats) addWorkerTotals(documents, found, missed int64) {
	s.documents.Add(documents)
	s.found.Add(found)
	s.missed.Add(missed)
}

// TaskSnapshot is a point-in-time copy of one task's counters.
type TaskSnapshot struct {
	Name           string
	Ops            uint64
	Failures       uint64
	AverageLatency time.Duration
	MaxLatency     time.Duration
	LastError      error
}

type Snapshot struct {
	Elapsed   time.Duration
	Ops       uint64
	Failures  uint64
	Documents int64
	Found     int64
	Missed    int64
	Tasks     []TaskSnapshot
}

// OpsPerSecond is the overall operation rate.
func (s Snapshot) OpsPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Ops) / s.Elapsed.Seconds()
}

func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Elapsed:   time.Since(time.Unix(0, s.start.Load())),
		Documents: s.documents.Load(),
		Found:     s.found.Load(),
		Missed:    s.missed.Load(),
	}

	for name, t := range s.tasks {
		ops := t.ops.Load()
		ts := TaskSnapshot{
			Name:       name,
			Ops:        ops,
			Failures:   t.failures.Load(),
			MaxLatency: time.Duration(t.maxNs.Load()),
		}
		if ops > 0 {
			ts.AverageLatency = time.Duration(t.latencyNs.Load() / ops)
		}
		t.mu.Lock()
		ts.LastError = t.lastErr
		t.mu.Unlock()

		snap.Ops += ts.Ops
		snap.Failures += ts.Failures
		snap.Tasks = append(snap.Tasks, ts)
	}

	sort.Slice(snap.Tasks, func(i, j int) bool {
		return snap.Tasks[i].Name < snap.Tasks[j].Name
	})
	return snap
}
