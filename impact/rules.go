package impact

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/perfgo/uiprof/document"
	"github.com/perfgo/uiprof/inventory"
	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/scenario"
)

// removeRule deletes the rule of rec after checking the inventory still
// describes the live sheet.
func removeRule(rec inventory.Record) (document.Restore, error) {
	live, err := rec.Sheet.Rule(rec.RuleIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to remove rule %q: %w", rec.Selector, err)
	}
	if live != document.Rule(rec.Rule) {
		return nil, fmt.Errorf("failed to remove rule %q: style sheet %d changed since the inventory was taken", rec.Selector, rec.StylesheetIndex)
	}
	return rec.Sheet.RemoveRule(rec.RuleIndex)
}

// removeBlock deletes a set of rules from the highest index down so that
// each removal leaves the indices of the remaining ones intact. The
// returned Restore reinserts them in the reverse order.
func removeBlock(block []inventory.Record) (document.Restore, error) {
	ordered := slices.Clone(block)
	slices.SortFunc(ordered, func(a, b inventory.Record) int {
		if c := cmp.Compare(b.StylesheetIndex, a.StylesheetIndex); c != 0 {
			return c
		}
		return cmp.Compare(b.RuleIndex, a.RuleIndex)
	})

	restores := make([]document.Restore, 0, len(ordered))
	restoreAll := func() error {
		var errs []error
		for i := len(restores) - 1; i >= 0; i-- {
			if err := restores[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, rec := range ordered {
		restore, err := removeRule(rec)
		if err != nil {
			return nil, errors.Join(err, restoreAll())
		}
		restores = append(restores, restore)
	}
	return restoreAll, nil
}

// StyleRules measures the scenario with each style rule removed in turn.
func (b *Impact) StyleRules(ctx context.Context, sc *scenario.Scenario, n int) (report *model.ImpactReport, err error) {
	err = b.suite(ctx, sc, func() error {
		records, err := b.collect(ctx)
		if err != nil {
			return err
		}
		report, err = b.reference(ctx, sc, StyleRuleBenchmark, n)
		if err != nil {
			return err
		}

		for i, rec := range records {
			result, err := b.measure(ctx, sc, n, func() (document.Restore, error) {
				return removeRule(rec)
			})
			if err != nil {
				return fmt.Errorf("failed to measure rule %q: %w", rec.Selector, err)
			}
			report.Rows = append(report.Rows, ruleRow(rec, result))
			b.report(StyleRuleBenchmark, i+1, len(records))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.ComputeDeltas()
	return report, nil
}

func ruleRow(rec inventory.Record, result *model.BenchmarkResult) model.ImpactRow {
	return model.ImpactRow{
		BenchmarkResult: *result,
		Selector:        rec.Selector,
		Source:          deref(rec.Source),
		RuleIndex:       rec.RuleIndex,
		StylesheetIndex: rec.StylesheetIndex,
	}
}

// GroupOptions configures the rule-group benchmark.
type GroupOptions struct {
	// Smallest number of blocks the rule set is partitioned into
	MinGroups int
	// Largest number of blocks the rule set is partitioned into
	MaxGroups int
	// Randomised re-orderings measured in addition to the document order
	Shuffles int
	// Seed of the re-orderings
	Seed uint64
}

// DefaultGroupOptions returns the options used when none are given.
func DefaultGroupOptions() GroupOptions {
	return GroupOptions{
		MinGroups: 2,
		MaxGroups: 8,
		Shuffles:  0,
		Seed:      1,
	}
}

func (o GroupOptions) validate() error {
	if o.MinGroups < 1 {
		return fmt.Errorf("min groups must be at least 1, got %d", o.MinGroups)
	}
	if o.MaxGroups < o.MinGroups {
		return fmt.Errorf("max groups %d is below min groups %d", o.MaxGroups, o.MinGroups)
	}
	if o.Shuffles < 0 {
		return fmt.Errorf("shuffles must not be negative, got %d", o.Shuffles)
	}
	return nil
}

type group struct {
	info  model.GroupInfo
	block []inventory.Record
}

// partitions splits the inventory into k contiguous blocks for every k in
// range, first in document order and then for each shuffle.
func partitions(records []inventory.Record, o GroupOptions) []group {
	maxGroups := min(o.MaxGroups, len(records))
	var groups []group
	for shuffle := 0; shuffle <= o.Shuffles; shuffle++ {
		order := make([]int, len(records))
		for i := range order {
			order[i] = i
		}
		if shuffle > 0 {
			rng := rand.New(rand.NewPCG(o.Seed, uint64(shuffle)))
			rng.Shuffle(len(order), func(i, j int) {
				order[i], order[j] = order[j], order[i]
			})
		}

		for k := o.MinGroups; k <= maxGroups; k++ {
			for blk := 0; blk < k; blk++ {
				lo, hi := blk*len(order)/k, (blk+1)*len(order)/k
				g := group{info: model.GroupInfo{Groups: k, Block: blk, Shuffle: shuffle}}
				for _, idx := range order[lo:hi] {
					g.info.Rules = append(g.info.Rules, idx)
					g.block = append(g.block, records[idx])
				}
				groups = append(groups, g)
			}
		}
	}
	return groups
}

// StyleRuleGroups measures the scenario with contiguous blocks of rules
// removed.
func (b *Impact) StyleRuleGroups(ctx context.Context, sc *scenario.Scenario, n int, opts GroupOptions) (report *model.ImpactReport, err error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	err = b.suite(ctx, sc, func() error {
		records, err := b.collect(ctx)
		if err != nil {
			return err
		}
		report, err = b.reference(ctx, sc, StyleRuleGroupBenchmark, n)
		if err != nil {
			return err
		}

		groups := partitions(records, opts)
		for i, g := range groups {
			result, err := b.measure(ctx, sc, n, func() (document.Restore, error) {
				return removeBlock(g.block)
			})
			if err != nil {
				return fmt.Errorf("failed to measure block %d of %d: %w", g.info.Block, g.info.Groups, err)
			}
			report.Rows = append(report.Rows, groupRow(g, result))
			b.report(StyleRuleGroupBenchmark, i+1, len(groups))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.ComputeDeltas()
	return report, nil
}

func groupRow(g group, result *model.BenchmarkResult) model.ImpactRow {
	info := g.info
	row := model.ImpactRow{
		BenchmarkResult: *result,
		RuleIndex:       -1,
		Group:           &info,
	}
	if len(g.block) == 0 {
		return row
	}

	first := g.block[0]
	source := deref(first.Source)
	for _, rec := range g.block {
		row.RulesInBlock = append(row.RulesInBlock, rec.Selector)
		if deref(rec.Source) != source {
			source = ""
		}
		if rec.StylesheetIndex < first.StylesheetIndex ||
			(rec.StylesheetIndex == first.StylesheetIndex && rec.RuleIndex < first.RuleIndex) {
			first = rec
		}
	}
	row.Source = source
	row.RuleIndex = first.RuleIndex
	row.StylesheetIndex = first.StylesheetIndex
	return row
}
