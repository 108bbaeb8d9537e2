package impact

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/perfgo/uiprof/document"
	"github.com/perfgo/uiprof/inventory"
	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/scenario"
)

// selectorToken matches the class and id simple selectors of a selector.
var selectorToken = regexp.MustCompile(`[.#]-?[_a-zA-Z][\w-]*`)

// tracker records the class/id tokens touched while the document is
// observed and, when given a rule, the touched elements matching it at the
// time of the mutation.
type tracker struct {
	rule    *document.StyleRule
	tokens  map[string]bool
	matched map[*html.Node]bool
}

func newTracker(rule *document.StyleRule) *tracker {
	return &tracker{
		rule:    rule,
		tokens:  make(map[string]bool),
		matched: make(map[*html.Node]bool),
	}
}

func (t *tracker) touch(el *document.Element) {
	if t.rule != nil && t.rule.Matches(el.Node()) {
		t.matched[el.Node()] = true
	}
}

func (t *tracker) observe(rec document.MutationRecord) {
	switch rec.Type {
	case document.MutationAttributes:
		t.touch(rec.Target)
		switch rec.AttributeName {
		case "class":
			old := strings.Fields(rec.OldValue)
			cur := rec.Target.Classes()
			for _, c := range old {
				if !slices.Contains(cur, c) {
					t.tokens["."+c] = true
				}
			}
			for _, c := range cur {
				if !slices.Contains(old, c) {
					t.tokens["."+c] = true
				}
			}
		case "id":
			if rec.OldValue != "" {
				t.tokens["#"+rec.OldValue] = true
			}
			if id := rec.Target.ID(); id != "" {
				t.tokens["#"+id] = true
			}
		}
	case document.MutationChildList:
		for _, el := range rec.Added {
			t.touch(el)
			t.addElementTokens(el)
		}
		for _, el := range rec.Removed {
			t.addElementTokens(el)
		}
	}
}

func (t *tracker) addElementTokens(el *document.Element) {
	for _, c := range el.Classes() {
		t.tokens["."+c] = true
	}
	if id := el.ID(); id != "" {
		t.tokens["#"+id] = true
	}
}

// relevant reports whether a selector names a touched class or id.
func (t *tracker) relevant(selector string) bool {
	for _, tok := range selectorToken.FindAllString(selector, -1) {
		if t.tokens[tok] {
			return true
		}
	}
	return false
}

// touched counts the distinct mutated elements that matched the rule.
func (t *tracker) touched() int {
	return len(t.matched)
}

// observed runs fn with a tracker for rule attached to the document.
func (b *Impact) observed(rule *document.StyleRule, fn func() error) (*tracker, error) {
	t := newTracker(rule)
	disconnect := b.doc.Observe(t.observe)
	defer disconnect()

	if err := fn(); err != nil {
		return nil, err
	}
	return t, nil
}

// StyleRuleUsage measures the scenario with each rule removed whose
// selector names a class or id the scenario touches, and reports how many
// elements each rule matched among the touched ones and at rest.
func (b *Impact) StyleRuleUsage(ctx context.Context, sc *scenario.Scenario, n int) (report *model.ImpactReport, err error) {
	err = b.suite(ctx, sc, func() error {
		records, err := b.collect(ctx)
		if err != nil {
			return err
		}

		scan, err := b.observed(nil, func() error {
			_, err := b.runner.Benchmark(ctx, sc, 1, true)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to observe scenario: %w", err)
		}
		var relevant []inventory.Record
		for _, rec := range records {
			if scan.relevant(rec.Selector) {
				relevant = append(relevant, rec)
			}
		}
		b.logger.Info().
			Str("scenario", sc.ID).
			Int("rules", len(records)).
			Int("relevant", len(relevant)).
			Msg("Selected rules touched by the scenario")

		report, err = b.reference(ctx, sc, StyleRuleUsageBenchmark, n)
		if err != nil {
			return err
		}

		for i, rec := range relevant {
			matching, err := b.doc.Matches(rec.Selector)
			if err != nil {
				b.logger.Debug().Err(err).Str("selector", rec.Selector).Msg("Selector cannot be matched at rest")
				matching = 0
			}

			var result *model.BenchmarkResult
			usage, err := b.observed(rec.Rule, func() error {
				var err error
				result, err = b.measure(ctx, sc, n, func() (document.Restore, error) {
					return removeRule(rec)
				})
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to measure rule %q: %w", rec.Selector, err)
			}

			row := ruleRow(rec, result)
			row.Usage = &model.Usage{
				ElementsTouched:  usage.touched(),
				ElementsMatching: matching,
			}
			report.Rows = append(report.Rows, row)
			b.report(StyleRuleUsageBenchmark, i+1, len(relevant))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.ComputeDeltas()
	return report, nil
}
