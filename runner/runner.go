package runner

// runner.go contains the time based benchmark loop. Iterations run strictly
// one after another: scenarios mutate shared document state.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/scenario"
	"github.com/rs/zerolog"
)

// Runner executes scenarios and measures them.
type Runner struct {
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a runner.
func New(logger zerolog.Logger) *Runner {
	return &Runner{
		logger: logger,
		now:    time.Now,
	}
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Benchmark runs sc n times and records the wall clock duration of every
// successful Run in milliseconds. Errors returned by Run are collected and
// never abort the loop; errors of the other hooks do.
//
// Unless inSuite is set, SetupSuite and CleanupSuite are called around
// the loop.
func (r *Runner) Benchmark(ctx context.Context, sc *scenario.Scenario, n int, inSuite bool) (result *model.BenchmarkResult, err error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	if !inSuite {
		if err := sc.DoSetupSuite(ctx); err != nil {
			return nil, fmt.Errorf("failed to set up suite of %s: %w", sc.ID, err)
		}
		defer func() {
			if cerr := sc.DoCleanupSuite(ctx); cerr != nil {
				err = errors.Join(err, fmt.Errorf("failed to clean up suite of %s: %w", sc.ID, cerr))
			}
		}()
	}

	result = &model.BenchmarkResult{
		Times:  make([]float64, 0, n),
		Errors: []*model.IterationError{},
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sc.DoSetup(ctx); err != nil {
			return nil, fmt.Errorf("failed to set up iteration %d of %s: %w", i, sc.ID, err)
		}

		start := r.now()
		runErr := sc.Run(ctx)
		elapsed := r.now().Sub(start)

		if runErr != nil {
			r.logger.Warn().
				Err(runErr).
				Str("scenario", sc.ID).
				Int("iteration", i).
				Msg("Scenario iteration failed")
			result.Errors = append(result.Errors, model.NewIterationError(i, runErr))
		} else {
			result.Times = append(result.Times, milliseconds(elapsed))
		}

		if err := sc.DoCleanup(ctx); err != nil {
			return nil, fmt.Errorf("failed to clean up iteration %d of %s: %w", i, sc.ID, err)
		}
	}

	r.logger.Debug().
		Str("scenario", sc.ID).
		Int("repeats", n).
		Int("errors", len(result.Errors)).
		Msg("Benchmark finished")
	return result, nil
}
