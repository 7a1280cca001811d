// Scenario CLI - deterministic P&L projections for capacity-bound businesses
//
// Usage:
//
//	scenario simulate [--file scenario.yaml] [--utilization-rate 60] [options]
//	scenario sweep --from 0 --to 100 --step 5
//	scenario store get|put|list <owner>
//	scenario serve --port 8080
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"scenario-engine/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// .env must be loaded before flag parsing so EnvVars can see it.
	config.LoadEnv()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "scenario",
		Usage:   "Scenario simulation engine - capacity, demand, revenue and break-even projections",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "env",
				Value:   "production",
				Usage:   "Runtime environment; development enables console logs",
				EnvVars: []string{"ENV"},
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   "sqlite",
				Usage:   "Scenario store (sqlite, postgres, clickhouse, memory, http)",
				EnvVars: []string{"SCENARIO_STORE"},
			},
			&cli.StringFlag{
				Name:    "dsn",
				Value:   "scenarios.db",
				Usage:   "Store location: file path, database DSN or server URL",
				EnvVars: []string{"SCENARIO_DSN"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the http store and the API server",
				EnvVars: []string{"SCENARIO_API_KEY"},
			},
		},

		Before: func(c *cli.Context) error {
			config.SetupLogger(c.String("env"), c.String("log-level"), c.App.ErrWriter)
			log.Debug().Str("store", c.String("store")).Msg("cli starting")
			return nil
		},

		Commands: []*cli.Command{
			simulateCommand(),
			sweepCommand(),
			storeCommand(),
			policyCommand(),
			serveCommand(),
		},
	}
}
