package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/uiprof/history"
)

const AppName = "uiprof"

type App struct {
	logger zerolog.Logger
	out    io.Writer
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		out:    os.Stdout,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Measure how style sheets and rules affect the cost of UI scenarios",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "verbose",
					Usage:   "Enable verbose (debug) logging",
					EnvVars: []string{"UIPROF_VERBOSE"},
				},
				&cli.StringFlag{
					Name:    "results-dir",
					Usage:   "Directory runs are recorded to, relative paths resolve against the git repository root",
					Value:   history.DefaultDir,
					EnvVars: []string{"UIPROF_RESULTS_DIR"},
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:  "bench",
		Usage: "Run a time based benchmark of a scenario",
		Subcommands: []*cli.Command{
			{
				Name:   "time",
				Usage:  "Measure the scenario against the unmodified page",
				Action: app.benchTime,
				Flags:  benchFlags(),
			},
			{
				Name:   "stylesheet",
				Usage:  "Measure the scenario with each style sheet disabled in turn",
				Action: app.benchStyleSheets,
				Flags:  benchFlags(),
			},
			{
				Name:   "style-rule",
				Usage:  "Measure the scenario with each style rule removed in turn",
				Action: app.benchStyleRules,
				Flags:  append(benchFlags(), SkipFlag()),
			},
			{
				Name:   "style-rule-group",
				Usage:  "Measure the scenario with contiguous blocks of style rules removed",
				Action: app.benchStyleRuleGroups,
				Flags:  append(benchFlags(), SkipFlag(), MinGroupsFlag(), MaxGroupsFlag(), ShufflesFlag(), SeedFlag()),
			},
			{
				Name:   "style-rule-usage",
				Usage:  "Measure the scenario with each rule naming a touched class or id removed",
				Action: app.benchStyleRuleUsage,
				Flags:  append(benchFlags(), SkipFlag()),
			},
		},
		// Default action when no subcommand is specified
		Action: app.benchTime,
		Flags:  benchFlags(),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "profile",
		Usage:  "Run a scenario under the sampling profiler",
		Action: app.profile,
		Flags:  append(benchFlags(), ModeFlag(), IntervalFlag()),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "scenarios",
		Usage:  "List the built-in scenarios and their options",
		Action: app.listScenarios,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous runs",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "scenario",
				Aliases: []string{"s"},
				Usage:   "Filter by scenario id",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View the results of a run",
		ArgsUsage:       "[ID|INDEX]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View the results of a run.

Arguments:
  0           View last run (default)
  -1          View 2nd last run
  -2          View 3rd last run
  <hex-id>    View run matching the hex ID prefix

Examples:
  uiprof view           # View last run
  uiprof view -1        # View 2nd last run
  uiprof view abc123    # View run with ID starting with abc123
  uiprof view 0 -top    # Open the profile of a self-profile run with pprof

Benchmarks print their timing summary, mutation-impact benchmarks one
row per removed sheet, rule or block ranked by delta, self-profile runs
are opened with go tool pprof.`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "frames",
		Usage:     "Aggregate the frame timings of a self-profile run",
		ArgsUsage: "[ID|INDEX]",
		Action:    app.frames,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of frames to show",
				Value:   30,
			},
		},
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, shorten(commit), date)
	}
}

func shorten(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
