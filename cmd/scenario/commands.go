package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"scenario-engine/api"
	"scenario-engine/internal/config"
	"scenario-engine/internal/policy"
	"scenario-engine/internal/simulation"
	"scenario-engine/internal/store"
	"scenario-engine/pkg/errors"
	"scenario-engine/pkg/units"
)

// =============================================================================
// INPUT FLAGS
// =============================================================================

type floatInput struct {
	name  string
	usage string
	set   func(*simulation.ScenarioInput, float64)
}

type countInput struct {
	name  string
	usage string
	set   func(*simulation.ScenarioInput, int64)
}

var floatInputs = []floatInput{
	{"operating-window", "Operating window per day (see --window-unit)", func(in *simulation.ScenarioInput, v float64) { in.OperatingWindowMinutesPerDay = v }},
	{"service-duration", "Service duration per session (see --duration-unit)", func(in *simulation.ScenarioInput, v float64) { in.ServiceDurationMinutes = v }},
	{"turnaround", "Turnaround between sessions (see --duration-unit)", func(in *simulation.ScenarioInput, v float64) { in.TurnaroundMinutes = v }},
	{"utilization-rate", "Utilization rate in percent (0-100)", func(in *simulation.ScenarioInput, v float64) { in.UtilizationRate = v }},
	{"demand-multiplier", "Demand multiplier", func(in *simulation.ScenarioInput, v float64) { in.DemandMultiplier = v }},
	{"price-metered", "Metered price per session", func(in *simulation.ScenarioInput, v float64) { in.PriceMetered = v }},
	{"price-secondary", "Secondary revenue per session", func(in *simulation.ScenarioInput, v float64) { in.PriceSecondaryPerSession = v }},
	{"subscription-fee", "Monthly subscription fee", func(in *simulation.ScenarioInput, v float64) { in.SubscriptionFee = v }},
	{"sponsor-fee", "Monthly sponsorship fee", func(in *simulation.ScenarioInput, v float64) { in.SponsorFee = v }},
	{"floor-area", "Floor area units", func(in *simulation.ScenarioInput, v float64) { in.FloorAreaUnits = v }},
	{"area-cost", "Cost per area unit per year", func(in *simulation.ScenarioInput, v float64) { in.AreaCostPerUnitPerYear = v }},
	{"labor-cost", "Labor cost per month", func(in *simulation.ScenarioInput, v float64) { in.LaborCostPerMonth = v }},
	{"utilities-cost", "Utilities cost per month", func(in *simulation.ScenarioInput, v float64) { in.UtilitiesCostPerMonth = v }},
}

var countInputs = []countInput{
	{"units", "Resource unit count", func(in *simulation.ScenarioInput, v int64) { in.ResourceUnitCount = v }},
	{"subscribers", "Subscriber count", func(in *simulation.ScenarioInput, v int64) { in.SubscriberCount = v }},
	{"sponsors", "Sponsor count", func(in *simulation.ScenarioInput, v int64) { in.SponsorCount = v }},
}

func inputFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Scenario file (YAML or JSON); flags override its values",
		},
		&cli.StringFlag{
			Name:  "owner",
			Usage: "Start from the scenario stored for this owner",
		},
		&cli.StringFlag{
			Name:  "window-unit",
			Value: "minutes",
			Usage: "Unit of --operating-window (minutes, hours, seconds)",
		},
		&cli.StringFlag{
			Name:  "duration-unit",
			Value: "minutes",
			Usage: "Unit of --service-duration and --turnaround",
		},
	}
	for _, f := range floatInputs {
		flags = append(flags, &cli.Float64Flag{Name: f.name, Usage: f.usage})
	}
	for _, f := range countInputs {
		flags = append(flags, &cli.Int64Flag{Name: f.name, Usage: f.usage})
	}
	return flags
}

// resolveInput layers, in order: defaults, the owner's stored scenario, the
// scenario file, then individual flags.
func resolveInput(ctx context.Context, c *cli.Context, s store.Store) (simulation.ScenarioInput, error) {
	in := simulation.DefaultInput()

	if owner := c.String("owner"); owner != "" && s != nil {
		stored, err := s.Load(ctx, owner)
		if err != nil {
			return in, fmt.Errorf("failed to load scenario for %s: %w", owner, err)
		}
		if stored != nil {
			in = *stored
		}
	}

	if path := c.String("file"); path != "" {
		fromFile, err := simulation.LoadInputFileOnto(path, in)
		if err != nil {
			return in, err
		}
		in = fromFile
	}

	windowUnit, err := units.ParseUnit(c.String("window-unit"))
	if err != nil {
		return in, fmt.Errorf("--window-unit: %w", err)
	}
	durationUnit, err := units.ParseUnit(c.String("duration-unit"))
	if err != nil {
		return in, fmt.Errorf("--duration-unit: %w", err)
	}
	for _, f := range floatInputs {
		if !c.IsSet(f.name) {
			continue
		}
		v := c.Float64(f.name)
		switch f.name {
		case "operating-window":
			v = units.ToMinutes(v, windowUnit)
		case "service-duration", "turnaround":
			v = units.ToMinutes(v, durationUnit)
		}
		f.set(&in, v)
	}
	for _, f := range countInputs {
		if c.IsSet(f.name) {
			f.set(&in, c.Int64(f.name))
		}
	}

	if errs := in.Validate(); len(errs) > 0 {
		return in, fmt.Errorf("invalid scenario: %w", errors.Join(errs))
	}
	return in, nil
}

// =============================================================================
// SIMULATE COMMAND
// =============================================================================

func simulateCommand() *cli.Command {
	flags := append(inputFlags(),
		&cli.StringFlag{
			Name:  "format",
			Value: "table",
			Usage: "Output format (table, json, markdown)",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Save the resulting scenario for --owner",
		},
		&cli.BoolFlag{
			Name:  "skip-policy",
			Usage: "Skip guardrail evaluation",
		},
		&cli.Float64Flag{
			Name:  "min-margin",
			Usage: "Deny when profit margin (percent) is below this value",
		},
		&cli.Float64Flag{
			Name:  "max-break-even",
			Usage: "Deny when break-even utilization (percent) is above this value",
		},
		&cli.StringFlag{
			Name:    "policies-dir",
			Usage:   "Directory of rego policies to evaluate",
			EnvVars: []string{"POLICIES_DIR"},
		},
	)

	return &cli.Command{
		Name:   "simulate",
		Usage:  "Compute a scenario projection",
		Flags:  flags,
		Action: runSimulate,
	}
}

func runSimulate(c *cli.Context) error {
	ctx := c.Context

	var s store.Store
	if c.String("owner") != "" {
		opened, closeFn, err := openStore(ctx, storeOptionsFrom(c))
		if err != nil {
			return err
		}
		defer closeFn()
		s = opened
	}

	input, err := resolveInput(ctx, c, s)
	if err != nil {
		return err
	}

	result := simulation.ComputeScenario(input)

	var policyResult *policy.EvaluationResult
	if !c.Bool("skip-policy") {
		policyResult, err = evaluatePolicies(ctx, c, result)
		if err != nil {
			return fmt.Errorf("policy evaluation failed: %w", err)
		}
	}

	if c.Bool("save") {
		if s == nil {
			return fmt.Errorf("--save requires --owner")
		}
		if err := s.Save(ctx, c.String("owner"), input); err != nil {
			return fmt.Errorf("failed to save scenario: %w", err)
		}
		log.Info().Str("owner_id", c.String("owner")).Msg("scenario saved")
	}

	w := c.App.Writer
	switch c.String("format") {
	case "json":
		err = outputJSON(w, result, policyResult)
	case "markdown":
		err = outputMarkdown(w, result, policyResult)
	default:
		err = outputTable(w, result, policyResult)
	}
	if err != nil {
		return err
	}

	if policyResult != nil && policyResult.Decision == policy.DecisionDeny {
		return cli.Exit("policy denied scenario", 2)
	}
	return nil
}

func evaluatePolicies(ctx context.Context, c *cli.Context, result simulation.ScenarioResult) (*policy.EvaluationResult, error) {
	engine := policy.NewEngine().WithRegoDir(c.String("policies-dir"))

	if c.IsSet("min-margin") {
		engine.AddPolicy(policy.Policy{
			ID:        "cli-min-margin",
			Name:      "Minimum Margin",
			Type:      policy.PolicyTypeMinMargin,
			Severity:  policy.SeverityError,
			Threshold: c.Float64("min-margin"),
			Enabled:   true,
		})
	}
	if c.IsSet("max-break-even") {
		engine.AddPolicy(policy.Policy{
			ID:        "cli-max-break-even",
			Name:      "Maximum Break-Even",
			Type:      policy.PolicyTypeMaxBreakEven,
			Severity:  policy.SeverityError,
			Threshold: c.Float64("max-break-even"),
			Enabled:   true,
		})
	}

	return engine.Evaluate(ctx, policy.EvaluationRequest{Result: result})
}

// =============================================================================
// SWEEP COMMAND
// =============================================================================

func sweepCommand() *cli.Command {
	flags := append(inputFlags(),
		&cli.Float64Flag{Name: "from", Value: 0, Usage: "First utilization rate"},
		&cli.Float64Flag{Name: "to", Value: 100, Usage: "Last utilization rate"},
		&cli.Float64Flag{Name: "step", Value: 10, Usage: "Utilization increment"},
		&cli.StringFlag{Name: "format", Value: "table", Usage: "Output format (table, json)"},
	)

	return &cli.Command{
		Name:  "sweep",
		Usage: "Project the scenario across a range of utilization rates",
		Flags: flags,
		Action: func(c *cli.Context) error {
			var s store.Store
			if c.String("owner") != "" {
				opened, closeFn, err := openStore(c.Context, storeOptionsFrom(c))
				if err != nil {
					return err
				}
				defer closeFn()
				s = opened
			}

			input, err := resolveInput(c.Context, c, s)
			if err != nil {
				return err
			}
			points, err := simulation.Sweep(input, c.Float64("from"), c.Float64("to"), c.Float64("step"))
			if err != nil {
				return err
			}
			if c.String("format") == "json" {
				return writeJSON(c.App.Writer, points)
			}
			return outputSweepTable(c.App.Writer, points)
		},
	}
}

// =============================================================================
// STORE COMMAND
// =============================================================================

func storeCommand() *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Read and write stored scenarios",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print the scenario stored for an owner",
				ArgsUsage: "<owner>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "yaml", Usage: "Output format (yaml, json)"},
				},
				Action: runStoreGet,
			},
			{
				Name:      "put",
				Usage:     "Store a scenario for an owner",
				ArgsUsage: "<owner>",
				Flags:     inputFlags(),
				Action:    runStorePut,
			},
			{
				Name:  "list",
				Usage: "List stored scenarios",
				Action: func(c *cli.Context) error {
					s, closeFn, err := openStore(c.Context, storeOptionsFrom(c))
					if err != nil {
						return err
					}
					defer closeFn()

					lister, ok := s.(store.Lister)
					if !ok {
						return fmt.Errorf("store %q cannot list scenarios", c.String("store"))
					}
					records, err := lister.List(c.Context)
					if err != nil {
						return err
					}
					return outputRecords(c.App.Writer, records)
				},
			},
		},
	}
}

func ownerArg(c *cli.Context) (string, error) {
	owner := strings.TrimSpace(c.Args().First())
	if owner == "" {
		return "", fmt.Errorf("owner argument is required")
	}
	return owner, nil
}

func runStoreGet(c *cli.Context) error {
	owner, err := ownerArg(c)
	if err != nil {
		return err
	}
	s, closeFn, err := openStore(c.Context, storeOptionsFrom(c))
	if err != nil {
		return err
	}
	defer closeFn()

	in, err := s.Load(c.Context, owner)
	if err != nil {
		return err
	}
	if in == nil {
		return errors.NewNotFoundError(owner)
	}

	if c.String("format") == "json" {
		return writeJSON(c.App.Writer, in)
	}
	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(simulation.InputFile{Name: owner, Scenario: *in})
}

func runStorePut(c *cli.Context) error {
	owner, err := ownerArg(c)
	if err != nil {
		return err
	}
	s, closeFn, err := openStore(c.Context, storeOptionsFrom(c))
	if err != nil {
		return err
	}
	defer closeFn()

	input, err := resolveInput(c.Context, c, s)
	if err != nil {
		return err
	}
	if err := s.Save(c.Context, owner, input); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "saved scenario for %s\n", owner)
	return nil
}

// =============================================================================
// POLICY COMMAND
// =============================================================================

func policyCommand() *cli.Command {
	return &cli.Command{
		Name:  "policy",
		Usage: "Inspect guardrail policies",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List built-in policies",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, "Built-in Policies:")
					for _, p := range policy.DefaultPolicies() {
						fmt.Fprintf(c.App.Writer, "  - %s (%s, %s): %s\n", p.ID, p.Type, p.Severity, p.Description)
					}
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "Compile the rego policies in a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "policies-dir",
						Usage:    "Directory of rego policies",
						EnvVars:  []string{"POLICIES_DIR"},
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					if err := policy.NewRegoEvaluator(c.String("policies-dir")).ValidatePolicies(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "policies OK")
					return nil
				},
			},
		},
	}
}

// =============================================================================
// SERVE COMMAND (API SERVER)
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the scenario API server",
		Description: "Settings default to PORT, CORS_ORIGINS, POLICIES_DIR and\n" +
			"SCENARIO_SAVE_TIMEOUT (a .env file is honored); flags override them.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "API server port (default 8080)",
			},
			&cli.StringFlag{
				Name:  "cors-origins",
				Usage: "Comma-separated list of allowed CORS origins (default *)",
			},
			&cli.StringFlag{
				Name:  "policies-dir",
				Usage: "Directory of rego policies applied to every simulation",
			},
			&cli.DurationFlag{
				Name:  "save-timeout",
				Usage: "Timeout for background scenario saves (default 10s)",
			},
		},
		Action: runServe,
	}
}

// serverConfig layers set flags over the environment.
func serverConfig(c *cli.Context, env *config.Config) *api.Config {
	if c.IsSet("port") {
		env.Port = c.Int("port")
	}
	if c.IsSet("cors-origins") {
		env.CORSOrigins = nil
		for _, o := range strings.Split(c.String("cors-origins"), ",") {
			if o = strings.TrimSpace(o); o != "" {
				env.CORSOrigins = append(env.CORSOrigins, o)
			}
		}
	}
	if c.IsSet("policies-dir") {
		env.PoliciesDir = c.String("policies-dir")
	}
	if c.IsSet("save-timeout") {
		env.SaveTimeout = c.Duration("save-timeout")
	}
	if c.IsSet("api-key") {
		env.APIKey = c.String("api-key")
	}

	cfg := api.DefaultConfig()
	cfg.Port = env.Port
	cfg.CORSOrigins = env.CORSOrigins
	cfg.APIKey = env.APIKey
	cfg.PoliciesDir = env.PoliciesDir
	cfg.SaveTimeout = env.SaveTimeout
	return cfg
}

func runServe(c *cli.Context) error {
	cfg := serverConfig(c, config.FromEnv())

	if cfg.PoliciesDir != "" {
		if err := policy.NewRegoEvaluator(cfg.PoliciesDir).ValidatePolicies(c.Context); err != nil {
			return err
		}
	}

	s, closeFn, err := openStore(c.Context, storeOptionsFrom(c))
	if err != nil {
		return err
	}
	defer closeFn()

	api.Version = version
	server := api.NewServer(s, cfg)
	return server.StartWithGracefulShutdown()
}
