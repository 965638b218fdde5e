package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
)

// JobFunc processes one instrument to completion. It reports failures in the
// returned result instead of an error so one instrument cannot stop the batch.
type JobFunc func(ctx context.Context, instrument string) *InstrumentResult

type job struct {
	index      int
	instrument string
}

type indexedResult struct {
	index  int
	result *InstrumentResult
}

// Pool runs instrument jobs on a fixed number of workers fed from a bounded queue
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a pool with the given number of workers
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		workers: workers,
		logger:  logger.With(slog.String("component", "pool")),
	}
}

// Workers returns the number of workers
func (p *Pool) Workers() int {
	return p.workers
}

// Run processes every instrument with fn and returns the results in input
// order. When ctx is cancelled no further jobs are started; the results of
// finished jobs are returned together with the context error.
func (p *Pool) Run(ctx context.Context, instruments []string, fn JobFunc) ([]*InstrumentResult, error) {
	p.logger.InfoContext(ctx, "Starting worker pool",
		slog.Int("workers", p.workers),
		slog.Int("instruments", len(instruments)))

	jobs := make(chan job, p.workers*2)
	out := make(chan indexedResult, len(instruments))
	progress := NewProgressTracker("instruments", len(instruments))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i, instrument := range instruments {
			select {
			case jobs <- job{index: i, instrument: instrument}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < p.workers; w++ {
		logger := p.logger.With(slog.Int("worker_id", w))
		g.Go(func() error {
			for j := range jobs {
				if err := gctx.Err(); err != nil {
					logger.DebugContext(gctx, "Worker stopped by context")
					return err
				}
				res := p.runJob(gctx, j, fn, logger)
				out <- indexedResult{index: j.index, result: res}

				progress.Increment(j.instrument)
				current, total, pct, _ := progress.GetProgress()
				logger.InfoContext(gctx, "Instrument finished",
					slog.String("instrument", j.instrument),
					slog.String("status", string(res.Status)),
					slog.Int("done", current),
					slog.Int("total", total),
					slog.Float64("percent", pct),
					slog.String("eta", progress.GetETA()))
			}
			return nil
		})
	}

	err := g.Wait()
	close(out)

	collected := make([]indexedResult, 0, len(instruments))
	for r := range out {
		collected = append(collected, r)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })

	results := make([]*InstrumentResult, len(collected))
	for i, r := range collected {
		results[i] = r.result
	}

	p.logger.InfoContext(ctx, "Worker pool finished",
		slog.Int("completed", len(results)),
		slog.Bool("complete", progress.IsComplete()),
		slog.String("elapsed", progress.GetElapsedTimeString()))
	return results, err
}

// runJob executes one job and converts a panic into a failed result
func (p *Pool) runJob(ctx context.Context, j job, fn JobFunc, logger *slog.Logger) (res *InstrumentResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Instrument processing panicked",
				slog.String("instrument", j.instrument),
				slog.Any("panic", r))
			res = &InstrumentResult{
				Instrument: j.instrument,
				Status:     StatusFailed,
				Err:        fmt.Errorf("instrument %s: processing panicked: %v", j.instrument, r),
			}
		}
	}()

	res = fn(ctx, j.instrument)
	if res == nil {
		res = &InstrumentResult{
			Instrument: j.instrument,
			Status:     StatusFailed,
			Err:        fmt.Errorf("instrument %s: no result", j.instrument),
		}
	}
	return res
}
