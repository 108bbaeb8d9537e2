package cli

// This file contains the benchmark commands.

import (
	"fmt"
	"regexp"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/uiprof/impact"
	"github.com/perfgo/uiprof/inventory"
	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/runner"
)

func (a *App) benchTime(ctx *cli.Context) error {
	return a.record(ctx, model.HistoryTypeBenchmark, "time", func(r *run) (any, error) {
		result, err := runner.New(a.logger).Benchmark(ctx.Context, r.sc, r.repeats, false)
		if err != nil {
			return nil, err
		}
		a.printBenchmark(result)
		return result, nil
	})
}

func (a *App) newImpact(ctx *cli.Context, r *run) (*impact.Impact, error) {
	opts := []impact.Option{
		impact.WithFetcher(inventory.NewFetcher(r.doc.Dir())),
		impact.WithProgress(func(fraction float64) {
			a.logger.Info().Float64("progress", fraction).Msg("Measuring")
		}),
	}
	if ctx.IsSet("skip") {
		re, err := regexp.Compile(ctx.String("skip"))
		if err != nil {
			return nil, fmt.Errorf("invalid skip pattern: %w", err)
		}
		opts = append(opts, impact.WithSkip(re))
	}
	return impact.New(a.logger, runner.New(a.logger), r.doc, opts...), nil
}

func (a *App) impactBenchmark(ctx *cli.Context, name string, measure func(b *impact.Impact, r *run) (*model.ImpactReport, error)) error {
	return a.record(ctx, model.HistoryTypeImpact, name, func(r *run) (any, error) {
		b, err := a.newImpact(ctx, r)
		if err != nil {
			return nil, err
		}
		report, err := measure(b, r)
		if err != nil {
			return nil, err
		}
		a.printImpact(report, 0)
		return report, nil
	})
}

func (a *App) benchStyleSheets(ctx *cli.Context) error {
	return a.impactBenchmark(ctx, impact.StyleSheetBenchmark, func(b *impact.Impact, r *run) (*model.ImpactReport, error) {
		return b.StyleSheets(ctx.Context, r.sc, r.repeats)
	})
}

func (a *App) benchStyleRules(ctx *cli.Context) error {
	return a.impactBenchmark(ctx, impact.StyleRuleBenchmark, func(b *impact.Impact, r *run) (*model.ImpactReport, error) {
		return b.StyleRules(ctx.Context, r.sc, r.repeats)
	})
}

func (a *App) benchStyleRuleGroups(ctx *cli.Context) error {
	opts := impact.GroupOptions{
		MinGroups: ctx.Int("min-groups"),
		MaxGroups: ctx.Int("max-groups"),
		Shuffles:  ctx.Int("shuffles"),
		Seed:      ctx.Uint64("seed"),
	}
	return a.impactBenchmark(ctx, impact.StyleRuleGroupBenchmark, func(b *impact.Impact, r *run) (*model.ImpactReport, error) {
		r.history.Options["groups"] = opts
		return b.StyleRuleGroups(ctx.Context, r.sc, r.repeats, opts)
	})
}

func (a *App) benchStyleRuleUsage(ctx *cli.Context) error {
	return a.impactBenchmark(ctx, impact.StyleRuleUsageBenchmark, func(b *impact.Impact, r *run) (*model.ImpactReport, error) {
		return b.StyleRuleUsage(ctx.Context, r.sc, r.repeats)
	})
}
