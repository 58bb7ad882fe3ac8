package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Rana718/docstorm/internal/database/common"
	"github.com/Rana718/docstorm/internal/database/memory"
	"github.com/Rana718/docstorm/internal/generator"
	"github.com/Rana718/docstorm/internal/scheduler"
	"github.com/Rana718/docstorm/internal/schema"
	"github.com/Rana718/docstorm/internal/types"
	"github.com/Rana718/docstorm/internal/workload"
)

var testSpec = schema.NewSpec([]schema.FieldSpec{
	{Name: "RECON_RECORD_ID", Type: schema.Int, Unique: true},
	{Name: "STATUS", Type: schema.String, AllowedValues: []interface{}{"OPEN", "CLOSED", "PENDING"}},
	{Name: "CREATED_AT", Type: schema.Date},
})

func memoryStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	if err := s.Connect(context.Background(), common.Options{IndexField: "RECON_RECORD_ID"}); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	return s
}

func baseOptions(store workload.Store) Options {
	return Options{
		Spec:       testSpec,
		Store:      store,
		Weights:    workload.Weights{InsertOne: 2, InsertBulk: 1, FindByKey: 2, Aggregate: 1},
		KeyField:   "RECON_RECORD_ID",
		GroupField: "STATUS",
		BatchSize:  10,
		CacheSize:  100,
		Validate:   true,
		Workers:    4,
		MaxOps:     50,
		Seed:       99,
	}
}

func TestRunBoundedOps(t *testing.T) {
	store := memoryStore(t)
	r, err := New(baseOptions(store))
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := r.Stats().Snapshot()
	if snap.Ops != 200 {
		t.Errorf("Expected 200 operations, got %d", snap.Ops)
	}
	if snap.Failures != 0 {
		t.Errorf("Expected no failures, got %d", snap.Failures)
	}
	if int64(store.Len()) != snap.Documents {
		t.Errorf("Expected %d stored documents, got %d", snap.Documents, store.Len())
	}
	if snap.Missed != 0 {
		t.Errorf("Expected every lookup to hit, got %d misses", snap.Missed)
	}
}

func TestElapsedExcludesSetup(t *testing.T) {
	opts := baseOptions(memoryStore(t))
	opts.Workers = 1
	opts.MaxOps = 5
	r, err := New(opts)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if elapsed := r.Stats().Snapshot().Elapsed; elapsed >= 300*time.Millisecond {
		t.Errorf("Expected elapsed time to start at Run, got %s", elapsed)
	}
}

func TestRunDistinctKeysAcrossWorkers(t *testing.T) {
	store := memoryStore(t)
	opts := baseOptions(store)
	opts.Weights = workload.Weights{InsertOne: 1}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	groups, err := store.Aggregate(context.Background(), types.GroupCount{Field: "RECON_RECORD_ID"}, types.Primary)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(groups) != 200 {
		t.Errorf("Expected 200 distinct keys, got %d", len(groups))
	}
}

func TestSeedReproducesKeys(t *testing.T) {
	keys := func() []interface{} {
		store := memoryStore(t)
		opts := baseOptions(store)
		opts.Weights = workload.Weights{InsertOne: 1}
		opts.Workers = 1
		opts.MaxOps = 5
		opts.Seed = 1234
		r, err := New(opts)
		if err != nil {
			t.Fatalf("Failed to create runner: %v", err)
		}
		if err := r.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		groups, err := store.Aggregate(context.Background(), types.GroupCount{Field: "RECON_RECORD_ID"}, types.Primary)
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		var out []interface{}
		for _, g := range groups {
			out = append(out, g["RECON_RECORD_ID"])
		}
		return out
	}

	first, second := keys(), keys()
	if len(first) != 5 || len(second) != 5 {
		t.Fatalf("Expected 5 keys per run, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Expected identical keys for the same seed, got %v and %v", first, second)
			break
		}
	}
}

func TestRunStopsOnDuration(t *testing.T) {
	opts := baseOptions(memoryStore(t))
	opts.MaxOps = 0
	opts.Duration = 50 * time.Millisecond
	opts.WaitMin = time.Millisecond
	opts.WaitMax = 2 * time.Millisecond

	r, err := New(opts)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}

	start := time.Now()
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Expected run to stop near 50ms, took %s", elapsed)
	}
	if r.Stats().Snapshot().Ops == 0 {
		t.Error("Expected some operations to run")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	opts := baseOptions(memoryStore(t))
	opts.MaxOps = 0

	r, err := New(opts)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	if err := r.Run(ctx); err != nil {
		t.Errorf("Expected clean stop on cancel, got %v", err)
	}
}

type failingStore struct{ workload.Store }

func (failingStore) InsertOne(ctx context.Context, doc types.Document) error {
	return errors.New("connection refused")
}

func TestStoreErrorsAreCounted(t *testing.T) {
	opts := baseOptions(failingStore{memoryStore(t)})
	opts.Weights = workload.Weights{InsertOne: 1}
	opts.Workers = 2
	opts.MaxOps = 5

	r, err := New(opts)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Expected store errors not to stop the run, got %v", err)
	}

	snap := r.Stats().Snapshot()
	if snap.Failures != 10 {
		t.Errorf("Expected 10 failures, got %d", snap.Failures)
	}

	var buf bytes.Buffer
	PrintSummary(&buf, snap)
	if !strings.Contains(buf.String(), "connection refused") {
		t.Errorf("Expected last error in summary, got:\n%s", buf.String())
	}
}

func TestGeneratorErrorsStopTheRun(t *testing.T) {
	badSpec := schema.NewSpec([]schema.FieldSpec{
		{Name: "X", Type: schema.FieldType(99)},
	})
	opts := baseOptions(memoryStore(t))
	opts.Spec = badSpec
	opts.Weights = workload.Weights{InsertOne: 1}
	opts.Validate = false

	r, err := New(opts)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}

	err = r.Run(context.Background())
	var typeErr *schema.TypeError
	if !errors.As(err, &typeErr) {
		t.Errorf("Expected TypeError to stop the run, got %v", err)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	store := memoryStore(t)

	opts := baseOptions(store)
	opts.Weights = workload.Weights{}
	if _, err := New(opts); !errors.Is(err, scheduler.ErrNoRunnableTasks) {
		t.Errorf("Expected ErrNoRunnableTasks, got %v", err)
	}

	opts = baseOptions(store)
	opts.Spec = nil
	var initErr *generator.InitializationError
	if _, err := New(opts); !errors.As(err, &initErr) {
		t.Errorf("Expected InitializationError, got %v", err)
	}

	opts = baseOptions(store)
	opts.Workers = 0
	if _, err := New(opts); err == nil {
		t.Error("Expected error for zero workers")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(generator.ErrCounterExhausted) {
		t.Error("Expected counter exhaustion to be fatal")
	}
	if !IsFatal(generator.ValidateSeed(-1)) {
		t.Error("Expected a bad seed to be fatal")
	}
	if !IsFatal(&generator.ValidationError{Field: "X", Reason: "bad"}) {
		t.Error("Expected validation errors to be fatal")
	}
	if IsFatal(errors.New("timeout")) {
		t.Error("Expected store errors not to be fatal")
	}
}
