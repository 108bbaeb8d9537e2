package cli

// This file contains the view command for displaying results from history.

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/uiprof/history"
	"github.com/perfgo/uiprof/model"
)

func removeFirstDashDash(in []string) []string {
	if len(in) > 0 && in[0] == "--" {
		return in[1:]
	}
	return in
}

func parseViewArgs(in []string) (idArg string, pprofArgs []string) {
	if len(in) == 0 {
		return "0", nil
	}

	// If first arg is "--", use default "0" and rest are pprof args
	if in[0] == "--" {
		return "0", in[1:]
	}

	// A negative index is "-" followed by only digits (e.g. "-1"), a pprof
	// flag is anything else starting with "-" (e.g. "-http=:8080", "-top")
	if len(in[0]) > 1 && in[0][0] == '-' {
		if _, err := strconv.ParseInt(in[0], 10, 64); err != nil {
			return "0", in
		}
	}

	// First arg is the ID/index, rest are pprof args (with optional "--" removed)
	return in[0], removeFirstDashDash(in[1:])
}

func (a *App) view(ctx *cli.Context) error {
	arg, pprofArgs := parseViewArgs(ctx.Args().Slice())

	historyEntries, err := a.loadHistory(ctx)
	if err != nil {
		return err
	}
	entry, err := history.Find(historyEntries, arg)
	if err != nil {
		return err
	}

	return a.displayHistoryEntry(entry, pprofArgs)
}

func (a *App) displayHistoryEntry(entry *history.Entry, pprofArgs []string) error {
	h := entry.History

	fmt.Fprintf(a.out, "=== Run: %s ===\n", shorten(h.ID))
	fmt.Fprintf(a.out, "Benchmark: %s\n", h.Benchmark)
	fmt.Fprintf(a.out, "Scenario: %s\n", h.Scenario)
	if h.Page != "" {
		fmt.Fprintf(a.out, "Page: %s\n", h.Page)
	}
	fmt.Fprintf(a.out, "Time: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(a.out, "Duration: %s\n", h.Duration)
	if len(h.Options) > 0 {
		fmt.Fprintf(a.out, "Options: %v\n", h.Options)
	}
	if h.Git != nil && h.Git.Commit != "" {
		fmt.Fprintf(a.out, "Git Commit: %s", shorten(h.Git.Commit))
		if h.Git.Branch != "" {
			fmt.Fprintf(a.out, " (%s)", h.Git.Branch)
		}
		fmt.Fprintln(a.out)
	}
	if h.Error != "" {
		fmt.Fprintf(a.out, "Error: %s\n", h.Error)
	}

	if h.Artifact(model.ArtifactTypeResult) == nil {
		fmt.Fprintln(a.out, "\nNo results recorded")
		fmt.Fprintf(a.out, "History directory: %s\n", entry.FullPath)
		return nil
	}

	switch h.Type {
	case model.HistoryTypeBenchmark:
		var result model.BenchmarkResult
		if err := entry.ReadJSON(model.ArtifactTypeResult, &result); err != nil {
			return err
		}
		a.printBenchmark(&result)
	case model.HistoryTypeImpact:
		var report model.ImpactReport
		if err := entry.ReadJSON(model.ArtifactTypeResult, &report); err != nil {
			return err
		}
		a.printImpact(&report, 0)
	case model.HistoryTypeSelfProfile:
		var report model.SelfProfileReport
		if err := entry.ReadJSON(model.ArtifactTypeResult, &report); err != nil {
			return err
		}
		a.printSelfProfile(&report)
		if profile := h.Artifact(model.ArtifactTypePprofProfile); profile != nil {
			return a.displayProfile(entry.FullPath, profile, pprofArgs)
		}
	default:
		return fmt.Errorf("unknown run type %q", h.Type)
	}
	return nil
}

func (a *App) displayProfile(runDir string, artifact *model.Artifact, pprofArgs []string) error {
	profilePath := filepath.Join(runDir, artifact.File)
	fmt.Fprintf(a.out, "\nProfile: %s (%s)\n", profilePath, humanize.Bytes(artifact.Size))

	// Build pprof command with any additional args
	args := []string{"tool", "pprof"}
	args = append(args, pprofArgs...)
	args = append(args, profilePath)

	cmd := exec.Command("go", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = a.out
	cmd.Stderr = os.Stderr
	cmd.Dir = runDir

	return cmd.Run()
}
