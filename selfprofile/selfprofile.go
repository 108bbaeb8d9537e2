// Package selfprofile runs a scenario under the sampling profiler and keeps
// the raw traces together with an environment fingerprint of the document.
package selfprofile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/perfgo/uiprof/document"
	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/profiler"
	"github.com/perfgo/uiprof/runner"
	"github.com/perfgo/uiprof/scenario"
)

// ProfileRunner profiles a scenario. *runner.Runner implements it.
type ProfileRunner interface {
	Profile(ctx context.Context, sc *scenario.Scenario, p profiler.Profiler, mode runner.Mode, onMicroStep func(i int), n int, inSuite bool) (*model.ProfileResult, error)
}

// Benchmark is the self-profile benchmark.
type Benchmark struct {
	logger   zerolog.Logger
	runner   ProfileRunner
	profiler profiler.Profiler
	doc      *document.Document
	now      func() time.Time
}

// New creates a self-profile benchmark. doc may be nil when the scenario
// does not run against a document.
func New(logger zerolog.Logger, r ProfileRunner, p profiler.Profiler, doc *document.Document) *Benchmark {
	return &Benchmark{
		logger:   logger,
		runner:   r,
		profiler: p,
		doc:      doc,
		now:      time.Now,
	}
}

// Run profiles sc n times in the given mode. onStep is forwarded to the
// runner and called after every micro mode iteration.
func (b *Benchmark) Run(ctx context.Context, sc *scenario.Scenario, mode runner.Mode, n int, onStep func(i int)) (*model.SelfProfileReport, error) {
	tags := map[string]int{}
	if b.doc != nil {
		tags = b.doc.TagCounts()
	}

	start := b.now()
	result, err := b.runner.Profile(ctx, sc, b.profiler, mode, onStep, n, false)
	if err != nil {
		return nil, fmt.Errorf("failed to profile %s: %w", sc.ID, err)
	}
	duration := b.now().Sub(start)

	b.logger.Info().
		Str("scenario", sc.ID).
		Str("mode", string(mode)).
		Int("traces", len(result.Traces)).
		Int("errors", len(result.Errors)).
		Dur("duration", duration).
		Msg("Self profile finished")

	return &model.SelfProfileReport{
		ProfileResult: *result,
		Scenario:      sc.ID,
		Mode:          string(mode),
		Repeats:       n,
		TagCounts:     tags,
		Duration:      float64(duration) / float64(time.Millisecond),
	}, nil
}
