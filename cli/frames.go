package cli

// This file contains the frames command, the render time reduction of
// self-profile traces into per-function timings.

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/uiprof/history"
	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/trace"
)

func (a *App) frames(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" {
		arg = "0"
	}

	historyEntries, err := a.loadHistory(ctx)
	if err != nil {
		return err
	}
	entry, err := history.Find(historyEntries, arg)
	if err != nil {
		return err
	}
	if entry.History.Type != model.HistoryTypeSelfProfile {
		return fmt.Errorf("run %s is a %s run, frames need a self-profile run", shorten(entry.History.ID), entry.History.Type)
	}

	var report model.SelfProfileReport
	if err := entry.ReadJSON(model.ArtifactTypeResult, &report); err != nil {
		return err
	}
	rows, err := trace.Aggregate(report.Traces)
	if err != nil {
		return fmt.Errorf("failed to aggregate frames: %w", err)
	}

	fmt.Fprintf(a.out, "=== Frames: %s (%d traces, %d functions) ===\n\n", report.Scenario, len(report.Traces), len(rows))
	a.printFrames(rows, ctx.Int("limit"))
	return nil
}
