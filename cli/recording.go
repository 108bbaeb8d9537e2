package cli

// This file contains run recording: every benchmark command loads its
// page and scenario, measures and leaves a history directory behind.

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/uiprof/document"
	"github.com/perfgo/uiprof/history"
	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/scenario"
	"github.com/perfgo/uiprof/scenarios"
)

// run is one recorded execution.
type run struct {
	history *model.History
	dir     string
	doc     *document.Document
	sc      *scenario.Scenario
	repeats int
}

// load reads the page and builds the scenario named on the command line.
func (a *App) load(ctx *cli.Context, h *model.History) (*run, error) {
	page := ctx.String("page")
	if page == "" {
		return nil, fmt.Errorf("no page given: use --page or UIPROF_PAGE")
	}
	repeats := ctx.Int("repeats")
	if repeats < 1 {
		return nil, fmt.Errorf("repeats must be at least 1, got %d", repeats)
	}

	doc, err := document.LoadFile(page)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", page, err)
	}

	factory, err := scenarios.Lookup(ctx.String("scenario"))
	if err != nil {
		return nil, err
	}
	values, err := scenario.ParseOptions(ctx.StringSlice("option"))
	if err != nil {
		return nil, err
	}
	sc, err := factory.New(doc, values)
	if err != nil {
		return nil, err
	}

	h.Scenario = sc.ID
	h.Page = page
	h.Options = factory.Schema.ApplyDefaults(values)

	a.logger.Debug().
		Str("page", page).
		Str("scenario", sc.ID).
		Interface("options", h.Options).
		Int("style_elements", len(doc.StyleElements())).
		Msg("Loaded page")

	return &run{history: h, doc: doc, sc: sc, repeats: repeats}, nil
}

// record runs measure and stores its result in a new history directory.
// The run is recorded even when measuring fails.
func (a *App) record(ctx *cli.Context, typ model.HistoryType, benchmark string, measure func(r *run) (any, error)) (err error) {
	startTime := time.Now()

	// Generate random 16-byte ID
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return fmt.Errorf("failed to generate run ID: %w", err)
	}

	h := &model.History{
		ID:        hex.EncodeToString(idBytes),
		Type:      typ,
		Benchmark: benchmark,
		Timestamp: startTime,
		Args:      os.Args,
	}
	if cwd, err := os.Getwd(); err == nil {
		h.WorkDir = cwd
	}
	// Capture git info (non-fatal if it fails)
	if git, err := a.getGitInfo(); err == nil {
		h.Git = git
	} else {
		a.logger.Debug().Err(err).Msg("Not recording git information")
	}

	r, err := a.load(ctx, h)
	if err != nil {
		return err
	}

	root, err := history.GetRoot(ctx.String("results-dir"))
	if err != nil {
		return err
	}
	r.dir, err = history.Prepare(root, h)
	if err != nil {
		return fmt.Errorf("failed to prepare history directory: %w", err)
	}

	defer func() {
		h.Duration = time.Since(startTime)
		if err != nil {
			h.ExitCode = 1
			h.Error = err.Error()
		}
		// Record the history (non-fatal if it fails)
		if serr := history.Save(r.dir, h); serr != nil {
			a.logger.Warn().Err(serr).Msg("Failed to record history")
			return
		}
		a.logger.Debug().Str("dir", r.dir).Str("id", h.ID).Msg("Recorded run")
	}()

	a.logger.Info().
		Str("benchmark", benchmark).
		Str("scenario", r.sc.ID).
		Int("repeats", r.repeats).
		Msg("Starting benchmark")

	result, err := measure(r)
	if err != nil {
		return err
	}
	if err := history.WriteJSON(r.dir, h, model.ArtifactTypeResult, "result.json", result); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nRecorded run %s in %s\n", shorten(h.ID), r.dir)
	fmt.Fprintf(a.out, "View again: %s view %s\n", AppName, shorten(h.ID))
	if len(h.Args) > 0 {
		fmt.Fprintf(a.out, "Re-run: %s\n", shellescape.QuoteCommand(h.Args))
	}
	return nil
}
