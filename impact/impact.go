// Package impact attributes the cost of a scenario to the style sheets and
// rules of the document by removing them one unit at a time and measuring
// the scenario against a shared reference run.
package impact

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/perfgo/uiprof/document"
	"github.com/perfgo/uiprof/inventory"
	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/scenario"
)

// Benchmark names as recorded in reports.
const (
	StyleSheetBenchmark     = "stylesheet"
	StyleRuleBenchmark      = "style-rule"
	StyleRuleGroupBenchmark = "style-rule-group"
	StyleRuleUsageBenchmark = "style-rule-usage"
)

// Benchmarker measures a scenario. *runner.Runner implements it.
type Benchmarker interface {
	Benchmark(ctx context.Context, sc *scenario.Scenario, n int, inSuite bool) (*model.BenchmarkResult, error)
}

// Impact runs mutation-impact benchmarks against one document.
type Impact struct {
	logger   zerolog.Logger
	runner   Benchmarker
	doc      *document.Document
	skip     *regexp.Regexp
	fetcher  inventory.Fetcher
	progress func(fraction float64)
}

// Option configures an Impact.
type Option func(*Impact)

// WithSkip leaves rules whose selector matches re out of the inventory.
func WithSkip(re *regexp.Regexp) Option {
	return func(b *Impact) {
		b.skip = re
	}
}

// WithFetcher sets how external source maps are retrieved.
func WithFetcher(f inventory.Fetcher) Option {
	return func(b *Impact) {
		b.fetcher = f
	}
}

// WithProgress registers a callback receiving the fraction of units done.
func WithProgress(fn func(fraction float64)) Option {
	return func(b *Impact) {
		b.progress = fn
	}
}

// New creates an Impact for doc measured by r.
func New(logger zerolog.Logger, r Benchmarker, doc *document.Document, opts ...Option) *Impact {
	b := &Impact{
		logger: logger,
		runner: r,
		doc:    doc,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// suite runs fn between the scenario's suite hooks. CleanupSuite runs even
// when fn fails.
func (b *Impact) suite(ctx context.Context, sc *scenario.Scenario, fn func() error) (err error) {
	if err := sc.Validate(); err != nil {
		return err
	}
	if err := sc.DoSetupSuite(ctx); err != nil {
		return fmt.Errorf("failed to set up suite of %s: %w", sc.ID, err)
	}
	defer func() {
		if cerr := sc.DoCleanupSuite(ctx); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to clean up suite of %s: %w", sc.ID, cerr))
		}
	}()
	return fn()
}

// reference measures the unmodified document at twice the repeat count.
func (b *Impact) reference(ctx context.Context, sc *scenario.Scenario, name string, n int) (*model.ImpactReport, error) {
	if err := b.doc.Layout(ctx); err != nil {
		return nil, err
	}
	ref, err := b.runner.Benchmark(ctx, sc, 2*n, true)
	if err != nil {
		return nil, fmt.Errorf("failed to measure reference: %w", err)
	}
	b.logger.Info().
		Str("benchmark", name).
		Str("scenario", sc.ID).
		Int("repeats", 2*n).
		Msg("Reference measured")
	return &model.ImpactReport{
		Benchmark:       name,
		Scenario:        sc.ID,
		Repeats:         n,
		Reference:       ref.Times,
		ReferenceErrors: ref.Errors,
		Rows:            []model.ImpactRow{},
	}, nil
}

// measure applies mutate, waits for layout, benchmarks the scenario and
// restores the document. A failing restore always fails the measurement.
func (b *Impact) measure(ctx context.Context, sc *scenario.Scenario, n int, mutate func() (document.Restore, error)) (result *model.BenchmarkResult, err error) {
	restore, err := mutate()
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := restore(); rerr != nil {
			result = nil
			err = errors.Join(err, rerr)
		}
	}()

	if err := b.doc.Layout(ctx); err != nil {
		return nil, err
	}
	return b.runner.Benchmark(ctx, sc, n, true)
}

func (b *Impact) report(name string, done, total int) {
	fraction := 1.0
	if total > 0 {
		fraction = float64(done) / float64(total)
	}
	b.logger.Debug().
		Str("benchmark", name).
		Float64("progress", fraction).
		Msg("Progress")
	if b.progress != nil {
		b.progress(fraction)
	}
}

func (b *Impact) collect(ctx context.Context) ([]inventory.Record, error) {
	records, err := inventory.Collect(ctx, b.doc.StyleElements(), b.skip, b.fetcher)
	if err != nil {
		return nil, fmt.Errorf("failed to collect style rules: %w", err)
	}
	return records, nil
}

// StyleSheets measures the scenario with each style sheet disabled in turn.
func (b *Impact) StyleSheets(ctx context.Context, sc *scenario.Scenario, n int) (report *model.ImpactReport, err error) {
	err = b.suite(ctx, sc, func() error {
		sheets, err := inventory.Sheets(ctx, b.doc.StyleElements(), b.fetcher)
		if err != nil {
			return fmt.Errorf("failed to collect style sheets: %w", err)
		}
		report, err = b.reference(ctx, sc, StyleSheetBenchmark, n)
		if err != nil {
			return err
		}

		for i, s := range sheets {
			result, err := b.measure(ctx, sc, n, func() (document.Restore, error) {
				return s.Sheet.Disable(), nil
			})
			if err != nil {
				return fmt.Errorf("failed to measure style sheet %d: %w", s.StylesheetIndex, err)
			}
			report.Rows = append(report.Rows, model.ImpactRow{
				BenchmarkResult: *result,
				Source:          deref(s.Source),
				RuleIndex:       -1,
				StylesheetIndex: s.StylesheetIndex,
			})
			b.report(StyleSheetBenchmark, i+1, len(sheets))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.ComputeDeltas()
	return report, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
