// Package runner drives the load: it starts one goroutine per worker, each
// with its own generator, key cache and scheduler over a shared store, and
// collects per-task counters until the run is stopped.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/Rana718/docstorm/internal/generator"
	"github.com/Rana718/docstorm/internal/keycache"
	"github.com/Rana718/docstorm/internal/scheduler"
	"github.com/Rana718/docstorm/internal/schema"
	"github.com/Rana718/docstorm/internal/workload"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Spec  *schema.Spec
	Store workload.Store

	Weights    workload.Weights
	KeyField   string
	GroupField string
	BatchSize  int
	CacheSize  int
	Validate   bool

	Workers  int
	Duration time.Duration // 0 runs until ctx is cancelled or MaxOps is reached
	MaxOps   int64         // per worker, 0 is unbounded
	WaitMin  time.Duration
	WaitMax  time.Duration

	// Seed, when non-zero, makes every worker's random stream reproducible.
	Seed     int64
	Progress bool
	Out      io.Writer
}

type Runner struct {
	opts  Options
	stats *Stats
	out   io.Writer
}

var taskNames = []string{
	workload.TaskInsertOne,
	workload.TaskInsertBulk,
	workload.TaskFindByKey,
	workload.TaskAggregate,
}

func New(opts Options) (*Runner, error) {
	if opts.Spec == nil {
		return nil, &generator.InitializationError{Reason: "no schema loaded"}
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("runner has no store")
	}
	if opts.Workers <= 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", opts.Workers)
	}
	if opts.WaitMax < opts.WaitMin {
		return nil, fmt.Errorf("wait_max (%s) cannot be less than wait_min (%s)", opts.WaitMax, opts.WaitMin)
	}

	// Fail on a bad weight table before any worker starts.
	noop := func(context.Context) error { return nil }
	probe := []scheduler.Entry{
		{Name: workload.TaskInsertOne, Weight: opts.Weights.InsertOne, Run: noop},
		{Name: workload.TaskInsertBulk, Weight: opts.Weights.InsertBulk, Run: noop},
		{Name: workload.TaskFindByKey, Weight: opts.Weights.FindByKey, Run: noop},
		{Name: workload.TaskAggregate, Weight: opts.Weights.Aggregate, Run: noop},
	}
	if _, err := scheduler.New(probe, nil); err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	return &Runner{
		opts:  opts,
		stats: NewStats(taskNames),
		out:   out,
	}, nil
}

func (r *Runner) Stats() *Stats {
	return r.stats
}

// Run blocks until every worker stops. Reaching Duration, MaxOps or a
// cancelled ctx is a normal end; a generator failure stops all workers and
// is returned.
func (r *Runner) Run(ctx context.Context) error {
	r.stats.markStart()

	if r.opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Duration)
		defer cancel()
	}

	bar := r.newProgressBar()
	if bar != nil {
		defer bar.Finish()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.opts.Workers; i++ {
		seed := r.workerSeed(i)
		g.Go(func() error {
			return r.worker(gctx, seed, bar)
		})
	}

	return g.Wait()
}

func (r *Runner) workerSeed(i int) int64 {
	if r.opts.Seed != 0 {
		return r.opts.Seed + int64(i)
	}
	return time.Now().UnixNano() + int64(i)
}

func (r *Runner) newProgressBar() *progressbar.ProgressBar {
	if !r.opts.Progress {
		return nil
	}
	total := int64(-1)
	if r.opts.MaxOps > 0 {
		total = r.opts.MaxOps * int64(r.opts.Workers)
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription("operations"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("ops"),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func (r *Runner) worker(ctx context.Context, seed int64, bar *progressbar.ProgressBar) error {
	id := uuid.New().String()[:8]
	rng := rand.New(rand.NewSource(seed))

	gen := generator.New(r.opts.Spec, generator.WithRand(rng))
	w, err := workload.New(workload.Options{
		Assembler:  generator.NewAssembler(gen, r.opts.Spec, r.opts.Validate),
		Cache:      keycache.New(r.opts.CacheSize, rng),
		Store:      r.opts.Store,
		KeyField:   r.opts.KeyField,
		GroupField: r.opts.GroupField,
		BatchSize:  r.opts.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("worker %s: %w", id, err)
	}
	sched, err := scheduler.New(w.Entries(r.opts.Weights), rng)
	if err != nil {
		return fmt.Errorf("worker %s: %w", id, err)
	}

	defer func() {
		found, missed := w.Lookups()
		r.stats.addWorkerTotals(w.Written(), found, missed)
	}()

	color.New(color.FgCyan).Fprintf(r.out, "🔧 worker %s started (seed %d)\n", id, gen.Seed())

	for ops := int64(0); r.opts.MaxOps == 0 || ops < r.opts.MaxOps; ops++ {
		if ctx.Err() != nil {
			return nil
		}

		entry := sched.Next()
		start := time.Now()
		err := entry.Run(ctx)
		elapsed := time.Since(start)

		if err != nil {
			if IsFatal(err) {
				return fmt.Errorf("worker %s: %s: %w", id, entry.Name, err)
			}
			if ctx.Err() != nil {
				return nil
			}
		}
		r.stats.Record(entry.Name, elapsed, err)
		if bar != nil {
			bar.Add(1)
		}

		if !r.pause(ctx, rng) {
			return nil
		}
	}
	return nil
}

// pause sleeps a uniform time in [WaitMin, WaitMax]. It returns false if ctx
// ended first.
func (r *Runner) pause(ctx context.Context, rng *rand.Rand) bool {
	d := r.opts.WaitMin
	if spread := r.opts.WaitMax - r.opts.WaitMin; spread > 0 {
		d += time.Duration(rng.Int63n(int64(spread) + 1))
	}
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// IsFatal reports whether err comes from document generation rather than the
// store. Those stop the run instead of being counted.
func IsFatal(err error) bool {
	var initErr *generator.InitializationError
	var valErr *generator.ValidationError
	var typeErr *schema.TypeError
	return errors.As(err, &initErr) ||
		errors.As(err, &valErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, generator.ErrCounterExhausted) ||
		errors.Is(err, generator.ErrSeedOutOfRange)
}
