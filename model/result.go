package model

// result.go contains the JSON envelopes produced by the benchmarks. They
// hold no DOM references so they can be persisted and reloaded for display.

import (
	"github.com/perfgo/uiprof/stats"
	"github.com/perfgo/uiprof/trace"
)

// IterationError is an error returned by one scenario iteration.
type IterationError struct {
	Iteration int    `json:"iteration"`
	Message   string `json:"message"`
	err       error
}

// NewIterationError wraps the error of iteration i.
func NewIterationError(i int, err error) *IterationError {
	return &IterationError{Iteration: i, Message: err.Error(), err: err}
}

func (e *IterationError) Error() string {
	return e.Message
}

func (e *IterationError) Unwrap() error {
	return e.err
}

// BenchmarkResult is the outcome of a time based benchmark. Failed
// iterations contribute an error and no time.
type BenchmarkResult struct {
	// Duration of each successful Run in milliseconds
	Times  []float64         `json:"times"`
	Errors []*IterationError `json:"errors"`
}

// ProfileResult is the outcome of a sampling profiler benchmark.
type ProfileResult struct {
	Traces []*trace.Trace    `json:"traces"`
	Errors []*IterationError `json:"errors"`
	// Configured sampling interval in milliseconds
	SamplingInterval float64 `json:"samplingInterval"`
	// Observed mean distance between samples in milliseconds, nil when no
	// trace had two samples
	AverageSampleInterval *float64 `json:"averageSampleInterval"`
}

// GroupInfo identifies the block of rules removed for a rule-group row.
type GroupInfo struct {
	// Number of blocks the rule set was partitioned into
	Groups int `json:"groups"`
	// Index of this block within the partition
	Block int `json:"block"`
	// Randomised re-ordering the partition was taken from, 0 is the
	// document order
	Shuffle int `json:"shuffle"`
	// Inventory positions of the rules in the block
	Rules []int `json:"rules"`
}

// Usage describes how a rule relates to the elements a scenario touches.
type Usage struct {
	// Elements mutated during the measured runs that match the rule
	ElementsTouched int `json:"elementsTouched"`
	// Elements matching the rule with the document at rest
	ElementsMatching int `json:"elementsMatching"`
}

// ImpactRow associates a timing distribution with the style sheet, rule or
// rule block that was removed to produce it.
type ImpactRow struct {
	BenchmarkResult
	Selector        string     `json:"selector,omitempty"`
	RulesInBlock    []string   `json:"rulesInBlock,omitempty"`
	Source          string     `json:"source,omitempty"`
	RuleIndex       int        `json:"ruleIndex"`
	StylesheetIndex int        `json:"stylesheetIndex"`
	Group           *GroupInfo `json:"group,omitempty"`
	Usage           *Usage     `json:"usage,omitempty"`
	// IQM of the reference minus IQM of this row (ms); positive when the
	// removal made the scenario faster. Nil when no iteration succeeded.
	Delta *float64 `json:"delta,omitempty"`
}

// ImpactReport is the outcome of a mutation-impact benchmark.
type ImpactReport struct {
	Benchmark string `json:"benchmark"`
	Scenario  string `json:"scenario"`
	Repeats   int    `json:"repeats"`
	// Baseline distribution measured with nothing removed
	Reference []float64 `json:"reference"`
	// Iteration errors of the reference run
	ReferenceErrors []*IterationError `json:"referenceErrors"`
	Rows            []ImpactRow       `json:"rows"`
}

// ComputeDeltas fills in the Delta of every row from the reference. Rows
// without successful iterations get no delta.
func (r *ImpactReport) ComputeDeltas() {
	ref := stats.Summarize(r.Reference).IQM
	for i := range r.Rows {
		r.Rows[i].Delta = nil
		if len(r.Rows[i].Times) == 0 || len(r.Reference) == 0 {
			continue
		}
		delta := ref - stats.Summarize(r.Rows[i].Times).IQM
		r.Rows[i].Delta = &delta
	}
}

// SelfProfileReport is the outcome of a self-profile benchmark. Traces are
// kept unreduced; frame level aggregation happens when displaying.
type SelfProfileReport struct {
	ProfileResult
	Scenario string `json:"scenario"`
	Mode     string `json:"mode"`
	Repeats  int    `json:"repeats"`
	// Live elements by tag name when the benchmark started
	TagCounts map[string]int `json:"tagCounts"`
	// Wall clock duration of the whole benchmark in milliseconds
	Duration float64 `json:"duration"`
}
