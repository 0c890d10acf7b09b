// Package runner executes several scenario simulations concurrently and
// collects comparable summaries. Each worker owns its engine outright; no
// engine is ever shared between goroutines.
package runner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/tbsim/internal/engine"
	"github.com/okian/tbsim/internal/scenario"
	"github.com/okian/tbsim/pkg/logger"
	"github.com/okian/tbsim/pkg/metrics"
)

// Result pairs a scenario with its finished run summary.
type Result struct {
	Scenario    string         `json:"scenario"`
	Description string         `json:"description"`
	Summary     engine.Summary `json:"summary"`
	Err         error          `json:"-"`
}

// Runner fans scenario runs out over a fixed-size worker pool.
type Runner struct {
	workers        int
	metricsEnabled bool
	logger         logger.Logger
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithWorkers sets the number of concurrent simulations.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetricsEnabled toggles Prometheus metric updates from batch engines.
func WithMetricsEnabled(enabled bool) Option {
	return func(r *Runner) {
		r.metricsEnabled = enabled
	}
}

// New constructs a Runner with default configuration.
func New(opts ...Option) *Runner {
	r := &Runner{
		workers:        runtime.NumCPU(),
		metricsEnabled: false, // batch engines would trample the live gauges
		logger:         logger.Get().Named("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every scenario to completion and returns results in input
// order. Cancellation is cooperative at day granularity: a canceled context
// stops each in-flight run at its next day boundary and marks the result
// with the context error.
func (r *Runner) Run(ctx context.Context, scenarios []scenario.Scenario) []Result {
	jobs := make(chan int)
	results := make([]Result, len(scenarios))

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = r.runOne(ctx, scenarios[idx])
			}
		}()
	}

	for i := range scenarios {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// runOne drives a single scenario to completion or cancellation.
func (r *Runner) runOne(ctx context.Context, sc scenario.Scenario) Result {
	start := time.Now()

	eng, err := engine.New(sc.Config,
		engine.WithLogger(r.logger.Named(sc.Name)),
		engine.WithMetricsEnabled(r.metricsEnabled),
	)
	if err != nil {
		return Result{Scenario: sc.Name, Description: sc.Description,
			Err: fmt.Errorf("scenario %q: %w", sc.Name, err)}
	}

	eng.Start()
	for eng.Status() != engine.StatusCompleted {
		if err := ctx.Err(); err != nil {
			r.logger.Warn(ctx, "run canceled",
				logger.String("scenario", sc.Name),
				logger.Int("day", eng.CurrentDay()),
			)
			return Result{Scenario: sc.Name, Description: sc.Description,
				Summary: eng.Summary(), Err: err}
		}
		eng.Step()
	}

	elapsed := time.Since(start)
	metrics.RecordRunCompleted(elapsed.Seconds())
	r.logger.Info(ctx, "scenario completed",
		logger.String("scenario", sc.Name),
		logger.Duration("elapsed", elapsed),
	)

	return Result{Scenario: sc.Name, Description: sc.Description, Summary: eng.Summary()}
}
