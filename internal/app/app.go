// Package app assembles the command-line interface. Each command wires
// together configuration, storage and the sampler; none of them read global
// state beyond the environment.
package app

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/timescope/timescope/version"
)

// New builds the CLI application.
func New() *cli.App {
	return &cli.App{
		Name:  "timescope",
		Usage: "Track which application holds focus and report where the day went",
		UsageText: `timescope <command> [options]

   timescope start
   timescope status
   timescope report --date 2026-03-03
   timescope report --week --json
   timescope export --date 2026-03-03 -o today.csv
   timescope stop`,
		Version:              fmt.Sprintf("%s (built %s)", version.Version, version.Date),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start the sampling daemon",
				Action: startAction,
			},
			{
				Name:   "serve",
				Usage:  "Start the sampling daemon with the local JSON API",
				Action: serveAction,
			},
			{
				Name:   "stop",
				Usage:  "Stop the sampling daemon",
				Action: stopAction,
			},
			{
				Name:   "status",
				Usage:  "Show daemon status, the focused window and idle state",
				Action: statusAction,
			},
			{
				Name:  "report",
				Usage: "Print an activity report for a day or a week",
				Flags: []cli.Flag{
					dateFlag,
					weekFlag,
					jsonFlag,
				},
				Action: reportAction,
			},
			{
				Name:  "export",
				Usage: "Export one day of samples as CSV",
				Flags: []cli.Flag{
					dateFlag,
					outputFlag,
				},
				Action: exportAction,
			},
			{
				Name:      "import",
				Usage:     "Import samples from a CSV file",
				ArgsUsage: "<file>",
				Action:    importAction,
			},
			{
				Name:   "storage",
				Usage:  "Show sample count, earliest sample and database size",
				Flags:  []cli.Flag{jsonFlag},
				Action: storageAction,
			},
			{
				Name:   "clear",
				Usage:  "Delete all recorded samples",
				Flags:  []cli.Flag{forceFlag},
				Action: clearAction,
			},
		},
	}
}

var (
	dateFlag = &cli.StringFlag{
		Name:    "date",
		Aliases: []string{"d"},
		Usage:   "Day to operate on in YYYY-MM-DD form (default: today)",
	}

	weekFlag = &cli.BoolFlag{
		Name:    "week",
		Aliases: []string{"w"},
		Usage:   "Report the whole week containing the date",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Emit JSON instead of text",
	}

	outputFlag = &cli.PathFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write to `FILE` instead of standard output",
	}

	forceFlag = &cli.BoolFlag{
		Name:    "force",
		Aliases: []string{"f"},
		Usage:   "Skip the confirmation prompt",
	}
)
