package cli

// This file contains the list command for displaying previous runs.

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/uiprof/history"
)

func (a *App) loadHistory(ctx *cli.Context) ([]history.Entry, error) {
	root, err := history.GetRoot(ctx.String("results-dir"))
	if err != nil {
		return nil, err
	}
	entries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

func (a *App) list(ctx *cli.Context) error {
	filterScenario := ctx.String("scenario")
	limit := ctx.Int("limit")

	historyEntries, err := a.loadHistory(ctx)
	if err != nil {
		return err
	}

	// Apply scenario filter if specified
	var filteredEntries []history.Entry
	for _, entry := range historyEntries {
		if filterScenario == "" || entry.History.Scenario == filterScenario {
			filteredEntries = append(filteredEntries, entry)
		}
	}

	if len(filteredEntries) == 0 {
		if filterScenario != "" {
			fmt.Fprintf(a.out, "No history entries found for scenario: %s\n", filterScenario)
		} else {
			fmt.Fprintln(a.out, "No history entries found")
		}
		return nil
	}

	// Apply limit
	displayRuns := filteredEntries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Fprintf(a.out, "\n=== History (%d total) ===\n\n", len(filteredEntries))

	for _, entry := range displayRuns {
		h := entry.History
		timestamp := h.Timestamp.Format("2006-01-02 15:04:05")
		duration := h.Duration.Round(time.Millisecond)

		status := "✓"
		if h.ExitCode != 0 {
			status = "✗"
		}

		fmt.Fprintf(a.out, "%s  %s (%s)  [%s]  %s/%s  id=%s\n",
			status, timestamp, humanize.Time(h.Timestamp), duration, h.Benchmark, h.Scenario, shorten(h.ID))
		if len(h.Args) > 1 {
			fmt.Fprintf(a.out, "   Args: %s\n", strings.Join(h.Args[1:], " "))
		}
		if h.Page != "" {
			fmt.Fprintf(a.out, "   Page: %s\n", h.Page)
		}
		if h.Git != nil && h.Git.Commit != "" {
			fmt.Fprintf(a.out, "   Commit: %s", shorten(h.Git.Commit))
			if h.Git.Branch != "" {
				fmt.Fprintf(a.out, " (%s)", h.Git.Branch)
			}
			fmt.Fprintln(a.out)
		}
		if h.Error != "" {
			fmt.Fprintf(a.out, "   Error: %s\n", h.Error)
		}
		for _, artifact := range h.Artifacts {
			fmt.Fprintf(a.out, "   %s: %s (%s)\n", artifact.Type, artifact.File, humanize.Bytes(artifact.Size))
		}
		fmt.Fprintf(a.out, "   %s\n", entry.FullPath)
		fmt.Fprintln(a.out)
	}

	fmt.Fprintf(a.out, "View results: %s view <ID>\n", AppName)

	return nil
}
