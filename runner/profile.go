package runner

// profile.go contains the sampling profiler loop.

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/profiler"
	"github.com/perfgo/uiprof/scenario"
	"github.com/perfgo/uiprof/stats"
	"github.com/perfgo/uiprof/trace"
)

// Mode selects how profiler sessions map to iterations.
type Mode string

const (
	// ModeMicro starts one session per iteration, around Run only.
	ModeMicro Mode = "micro"
	// ModeMacro starts one session spanning all iterations including
	// their setup and cleanup.
	ModeMacro Mode = "macro"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMicro, ModeMacro:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown profile mode %q (use %s or %s)", s, ModeMicro, ModeMacro)
}

// Profile runs sc n times under the sampling profiler p. In micro mode
// onMicroStep (optional) is called after every iteration. A session whose
// trace cannot be resolved is logged and left out of the result.
func (r *Runner) Profile(ctx context.Context, sc *scenario.Scenario, p profiler.Profiler, mode Mode, onMicroStep func(i int), n int, inSuite bool) (result *model.ProfileResult, err error) {
	if p == nil {
		return nil, profiler.ErrUnavailable
	}
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

	result = &model.ProfileResult{
		Traces:           []*trace.Trace{},
		Errors:           []*model.IterationError{},
		SamplingInterval: milliseconds(p.Interval()),
	}

	switch mode {
	case ModeMicro:
		err = r.profileMicro(ctx, sc, p, onMicroStep, n, result)
	case ModeMacro:
		err = r.profileMacro(ctx, sc, p, n, result)
	default:
		_, err = ParseMode(string(mode))
	}
	if err != nil {
		return nil, err
	}

	var intervals []float64
	for _, t := range result.Traces {
		intervals = append(intervals, trace.SampleIntervals(t)...)
	}
	if avg := stats.Mean(intervals); !math.IsNaN(avg) {
		result.AverageSampleInterval = &avg
	}

	r.logger.Debug().
		Str("scenario", sc.ID).
		Str("mode", string(mode)).
		Int("traces", len(result.Traces)).
		Int("errors", len(result.Errors)).
		Msg("Profile finished")
	return result, nil
}

func (r *Runner) profileMicro(ctx context.Context, sc *scenario.Scenario, p profiler.Profiler, onMicroStep func(i int), n int, result *model.ProfileResult) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sc.DoSetup(ctx); err != nil {
			return fmt.Errorf("failed to set up iteration %d of %s: %w", i, sc.ID, err)
		}

		sess, err := p.Start(ctx)
		if err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		if runErr := sess.Run(ctx, sc.Run); runErr != nil {
			r.iterationFailed(sc, i, runErr, result)
		}
		r.collect(sess, i, result)

		if err := sc.DoCleanup(ctx); err != nil {
			return fmt.Errorf("failed to clean up iteration %d of %s: %w", i, sc.ID, err)
		}
		if onMicroStep != nil {
			onMicroStep(i)
		}
	}
	return nil
}

func (r *Runner) profileMacro(ctx context.Context, sc *scenario.Scenario, p profiler.Profiler, n int, result *model.ProfileResult) error {
	sess, err := p.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start profiler: %w", err)
	}

	for i := 0; i < n; i++ {
		err := sess.Run(ctx, func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sc.DoSetup(ctx); err != nil {
				return fmt.Errorf("failed to set up iteration %d of %s: %w", i, sc.ID, err)
			}
			if runErr := sc.Run(ctx); runErr != nil {
				r.iterationFailed(sc, i, runErr, result)
			}
			if err := sc.DoCleanup(ctx); err != nil {
				return fmt.Errorf("failed to clean up iteration %d of %s: %w", i, sc.ID, err)
			}
			return nil
		})
		if err != nil {
			_, _ = sess.Stop()
			return err
		}
	}

	r.collect(sess, -1, result)
	return nil
}

func (r *Runner) iterationFailed(sc *scenario.Scenario, i int, err error, result *model.ProfileResult) {
	r.logger.Warn().
		Err(err).
		Str("scenario", sc.ID).
		Int("iteration", i).
		Msg("Scenario iteration failed")
	result.Errors = append(result.Errors, model.NewIterationError(i, err))
}

func (r *Runner) collect(sess profiler.Session, i int, result *model.ProfileResult) {
	t, err := sess.Stop()
	if err != nil || t == nil {
		r.logger.Warn().
			Err(err).
			Int("iteration", i).
			Msg("Failed to resolve profiler trace")
		return
	}
	result.Traces = append(result.Traces, t)
}
