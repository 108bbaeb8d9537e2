package cli

// This file contains the text rendering of benchmark results.

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/stats"
	"github.com/perfgo/uiprof/trace"
)

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func (a *App) printBenchmark(result *model.BenchmarkResult) {
	s := stats.Summarize(result.Times)
	fmt.Fprintf(a.out, "\n=== Timings (%d runs, %d errors) ===\n\n", s.N, len(result.Errors))

	w := a.table()
	fmt.Fprintln(w, "iqm\tmean\tmedian\tp95\tmin\tmax\tstddev\tstderr\t")
	fmt.Fprintf(w, "%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t\n",
		s.IQM, s.Mean, s.Median, s.P95, s.Min, s.Max, s.StdDev, s.StdErr)
	w.Flush()
	fmt.Fprintln(a.out, "(milliseconds)")

	for _, e := range result.Errors {
		fmt.Fprintf(a.out, "  iteration %d: %s\n", e.Iteration, e.Message)
	}
}

// printImpact renders the rows ranked by delta. limit 0 shows all rows.
func (a *App) printImpact(report *model.ImpactReport, limit int) {
	ref := stats.Summarize(report.Reference)
	fmt.Fprintf(a.out, "\n=== %s: %s (%d rows) ===\n\n", report.Benchmark, report.Scenario, len(report.Rows))
	fmt.Fprintf(a.out, "Reference: iqm=%.3fms stderr=%.3fms runs=%d errors=%d\n\n",
		ref.IQM, ref.StdErr, ref.N, len(report.ReferenceErrors))

	rows := make([]model.ImpactRow, len(report.Rows))
	copy(rows, report.Rows)
	// Rows without a delta failed every iteration and go last.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Delta == nil || rows[j].Delta == nil {
			return rows[j].Delta == nil && rows[i].Delta != nil
		}
		return *rows[i].Delta > *rows[j].Delta
	})
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	w := a.table()
	fmt.Fprintln(w, "delta\tiqm\tstderr\terrors\tsheet\trule\t\ttarget\t")
	for _, row := range rows {
		s := stats.Summarize(row.Times)
		rule := "-"
		if row.RuleIndex >= 0 {
			rule = fmt.Sprint(row.RuleIndex)
		}
		delta := "-"
		if row.Delta != nil {
			delta = fmt.Sprintf("%+.3f", *row.Delta)
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%d\t%d\t%s\t\t%s\t\n",
			delta, s.IQM, s.StdErr, len(row.Errors), row.StylesheetIndex, rule, describeRow(row))
	}
	w.Flush()
	fmt.Fprintln(a.out, "(milliseconds, positive delta: faster without it)")
}

func describeRow(row model.ImpactRow) string {
	target := row.Selector
	switch {
	case row.Group != nil:
		target = fmt.Sprintf("block %d/%d (%d rules", row.Group.Block+1, row.Group.Groups, len(row.Group.Rules))
		if row.Group.Shuffle > 0 {
			target += fmt.Sprintf(", shuffle %d", row.Group.Shuffle)
		}
		target += ")"
	case target == "":
		target = "<style sheet>"
	}
	if row.Usage != nil {
		target += fmt.Sprintf(" touched=%d matching=%d", row.Usage.ElementsTouched, row.Usage.ElementsMatching)
	}
	if row.Source != "" {
		target += " [" + row.Source + "]"
	}
	return target
}

func (a *App) printSelfProfile(report *model.SelfProfileReport) {
	fmt.Fprintf(a.out, "\n=== Self profile: %s (%s, %d repeats) ===\n\n", report.Scenario, report.Mode, report.Repeats)
	fmt.Fprintf(a.out, "Traces: %d\n", len(report.Traces))
	fmt.Fprintf(a.out, "Errors: %d\n", len(report.Errors))
	fmt.Fprintf(a.out, "Duration: %.1fms\n", report.Duration)
	fmt.Fprintf(a.out, "Sampling interval: %.3fms", report.SamplingInterval)
	if report.AverageSampleInterval != nil {
		fmt.Fprintf(a.out, " (observed %.3fms)", *report.AverageSampleInterval)
	}
	fmt.Fprintln(a.out)

	tags := make([]string, 0, len(report.TagCounts))
	for tag := range report.TagCounts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	total := 0
	for _, tag := range tags {
		total += report.TagCounts[tag]
	}
	fmt.Fprintf(a.out, "Elements: %d in %d tags\n", total, len(tags))
}

func (a *App) printFrames(rows []trace.FrameTiming, limit int) {
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	w := a.table()
	fmt.Fprintln(w, "total\tiqm\tcount\t\tfunction\t")
	for _, row := range rows {
		location := row.Resource
		if row.Line > 0 {
			location = fmt.Sprintf("%s:%d", location, row.Line)
		}
		fmt.Fprintf(w, "%.3f\t%.3f\t%d\t\t%s %s\t\n", row.Total, row.IQM, row.Count, row.Name, location)
	}
	w.Flush()
	fmt.Fprintln(a.out, "(milliseconds)")
}
