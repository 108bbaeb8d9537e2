package cli

// This file contains the flags shared by the benchmark commands.

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/uiprof/impact"
)

func benchFlags() []cli.Flag {
	return []cli.Flag{
		PageFlag(),
		ScenarioFlag(),
		OptionFlag(),
		RepeatsFlag(),
	}
}

// PageFlag returns the flag selecting the HTML page to load.
func PageFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "page",
		Aliases: []string{"p"},
		Usage:   "HTML page the scenario runs against",
		EnvVars: []string{"UIPROF_PAGE"},
	}
}

// ScenarioFlag returns the flag selecting the scenario.
func ScenarioFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "scenario",
		Aliases: []string{"s"},
		Usage:   "Scenario to measure (see uiprof scenarios)",
		Value:   "restyle",
		EnvVars: []string{"UIPROF_SCENARIO"},
	}
}

// OptionFlag returns the flag overriding scenario options.
func OptionFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "option",
		Aliases: []string{"o"},
		Usage:   "Scenario option as key=value (can be specified multiple times)",
	}
}

// RepeatsFlag returns the repeat count flag.
func RepeatsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "repeats",
		Aliases: []string{"n"},
		Usage:   "Iterations per measurement, the reference run uses twice as many",
		Value:   10,
		EnvVars: []string{"UIPROF_REPEATS"},
	}
}

// SkipFlag returns the selector skip pattern flag.
func SkipFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "skip",
		Usage:   "Regular expression of selectors to leave out",
		EnvVars: []string{"UIPROF_SKIP"},
	}
}

// MinGroupsFlag returns the smallest partition flag of the rule-group benchmark.
func MinGroupsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "min-groups",
		Usage: "Smallest number of blocks the rules are partitioned into",
		Value: impact.DefaultGroupOptions().MinGroups,
	}
}

// MaxGroupsFlag returns the largest partition flag of the rule-group benchmark.
func MaxGroupsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "max-groups",
		Usage: "Largest number of blocks the rules are partitioned into",
		Value: impact.DefaultGroupOptions().MaxGroups,
	}
}

// ShufflesFlag returns the re-ordering count flag of the rule-group benchmark.
func ShufflesFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "shuffles",
		Usage: "Randomised re-orderings measured in addition to the document order",
		Value: impact.DefaultGroupOptions().Shuffles,
	}
}

// SeedFlag returns the re-ordering seed flag of the rule-group benchmark.
func SeedFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:  "seed",
		Usage: "Seed of the randomised re-orderings",
		Value: impact.DefaultGroupOptions().Seed,
	}
}

// ModeFlag returns the profiling mode flag.
func ModeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "mode",
		Usage: "micro: one profiler session per iteration, macro: one session for all",
		Value: "micro",
	}
}

// IntervalFlag returns the sampling interval flag.
func IntervalFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:    "interval",
		Usage:   "Sampling interval of the profiler",
		Value:   time.Millisecond,
		EnvVars: []string{"UIPROF_INTERVAL"},
	}
}
