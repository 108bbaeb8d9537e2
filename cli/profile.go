package cli

// This file contains the self-profile command.

import (
	"io"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/uiprof/history"
	"github.com/perfgo/uiprof/model"
	"github.com/perfgo/uiprof/profiler"
	"github.com/perfgo/uiprof/runner"
	"github.com/perfgo/uiprof/selfprofile"
	"github.com/perfgo/uiprof/trace"
)

func (a *App) profile(ctx *cli.Context) error {
	mode, err := runner.ParseMode(ctx.String("mode"))
	if err != nil {
		return err
	}
	interval := ctx.Duration("interval")

	return a.record(ctx, model.HistoryTypeSelfProfile, "self-profile", func(r *run) (any, error) {
		r.history.Options["mode"] = string(mode)
		r.history.Options["interval"] = interval.String()

		b := selfprofile.New(a.logger, runner.New(a.logger), profiler.NewSampler(a.logger, interval), r.doc)
		report, err := b.Run(ctx.Context, r.sc, mode, r.repeats, func(i int) {
			a.logger.Debug().Int("iteration", i).Msg("Profiled iteration")
		})
		if err != nil {
			return nil, err
		}

		if len(report.Traces) > 0 {
			err := history.WriteArtifact(r.dir, r.history, model.ArtifactTypePprofProfile, "profile.pb.gz", func(w io.Writer) error {
				return trace.WriteProfile(w, report.Traces)
			})
			if err != nil {
				a.logger.Warn().Err(err).Msg("Failed to write pprof profile")
			}
		}

		a.printSelfProfile(report)
		return report, nil
	})
}
