package commands

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fuzzworker/internal/cli"
	"fuzzworker/internal/config"
	"fuzzworker/internal/device"
	"fuzzworker/internal/domain"
	"fuzzworker/internal/events"
	"fuzzworker/internal/execution"
	"fuzzworker/internal/phoneagent"
	"fuzzworker/internal/testcases"
	"fuzzworker/internal/ui"
)

// annotationOutput marks commands whose stdout is the NDJSON event stream
const annotationOutput = "output"

// Collaborators are the external systems the commands talk to
type Collaborators struct {
	// Runner executes adb; nil means os/exec
	Runner device.CommandRunner
	// Agents builds the agent factory for a run
	Agents func(cfg *config.RunConfig, log logrus.FieldLogger, adb *device.ADB) execution.AgentFactory
}

// DefaultCollaborators drives real devices through adb and a remote model
func DefaultCollaborators() Collaborators {
	return Collaborators{
		Runner: device.ExecRunner,
		Agents: phoneAgents,
	}
}

// phoneAgents builds OpenAI-compatible phone agents that act through adb
func phoneAgents(cfg *config.RunConfig, log logrus.FieldLogger, adb *device.ADB) execution.AgentFactory {
	return func(mc phoneagent.ModelConfig) (execution.Agent, error) {
		agent, err := phoneagent.New(mc,
			phoneagent.WithMaxSteps(cfg.MaxSteps),
			phoneagent.WithLogger(log),
			phoneagent.WithControllerFactory(func(deviceID string) phoneagent.Controller {
				return adb.Controller(deviceID)
			}),
		)
		if err != nil {
			return nil, err
		}
		return agent, nil
	}
}

// Commands holds all CLI commands
type Commands struct {
	Run     *RunCommand
	Devices *DevicesCommand
	View    *ViewCommand
	Migrate *MigrateCommand

	emitter events.Emitter
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.RunConfig, stdout, stderr io.Writer, collab Collaborators) *Commands {
	emitter := events.NewJSONLines(stdout)
	loader := testcases.NewLoader()
	summary := ui.NewSummary(stdout)
	viewer := ui.NewResultsViewer()

	return &Commands{
		Run:     NewRunCommand(cfg, loader, emitter, stderr, collab),
		Devices: NewDevicesCommand(cfg, summary, stderr, collab),
		View:    NewViewCommand(cfg, summary, viewer, stdout),
		Migrate: NewMigrateCommand(cfg, stderr),
		emitter: emitter,
	}
}

// Register registers all commands with cobra. The root command behaves
// like `run` so the worker can be invoked with the run flags directly.
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.RunConfig) {
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", config.DefaultLogLevel, "Log level for stderr diagnostics (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", config.DefaultLogFormat, "Log format for stderr diagnostics. Valid values are 'text', 'json'")
	rootCmd.PersistentFlags().StringVar(&flags.ADBPath, "adb", config.DefaultADBPath, "Path to the adb binary")

	preRun := func(cmd *cobra.Command, args []string) error {
		if err := applyEnvFallbacks(cmd); err != nil {
			return err
		}
		flags.Apply(cfg)
		return nil
	}

	rootCmd.RunE = c.Run.Execute
	rootCmd.PreRunE = preRun
	rootCmd.Args = cobra.NoArgs
	rootCmd.SilenceUsage = true
	rootCmd.Annotations = map[string]string{annotationOutput: "ndjson"}
	bindRunFlags(rootCmd, flags)

	// Run command
	runCmd := &cobra.Command{
		Use:         "run",
		Short:       "Run fuzz test cases on the first connected device",
		Long:        "Execute every test case of a JSON file through the phone agent, streaming NDJSON events on stdout",
		Args:        cobra.NoArgs,
		RunE:        c.Run.Execute,
		PreRunE:     preRun,
		Annotations: map[string]string{annotationOutput: "ndjson"},
	}
	bindRunFlags(runCmd, flags)
	rootCmd.AddCommand(runCmd)

	// Devices command
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List devices known to adb",
		Args:  cobra.NoArgs,
		RunE:  c.Devices.Execute,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			flags.Apply(cfg)
			return nil
		},
	}
	devicesCmd.Flags().BoolVar(&c.Devices.all, "all", false, "Include offline and unauthorized devices")
	rootCmd.AddCommand(devicesCmd)

	// View command
	viewCmd := &cobra.Command{
		Use:   "view <results.json>",
		Short: "View the results of a finished run",
		Long:  "Browse a results file written with --results-file in an interactive viewer",
		Args:  cobra.ExactArgs(1),
		RunE:  c.View.Execute,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			flags.Apply(cfg)
			return nil
		},
	}
	viewCmd.Flags().BoolVar(&c.View.plain, "plain", false, "Print a summary table instead of opening the interactive viewer")
	rootCmd.AddCommand(viewCmd)

	// Migrate command
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the MySQL results database and tables",
		Args:  cobra.NoArgs,
		RunE:  c.Migrate.Execute,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			flags.Apply(cfg)
			return nil
		},
	}
	migrateCmd.Flags().StringVar(&flags.ResultsDSN, "results-dsn", "", "MySQL DSN of the results database (go-sql-driver format)")
	_ = migrateCmd.MarkFlagRequired("results-dsn")
	rootCmd.AddCommand(migrateCmd)
}

func bindRunFlags(cmd *cobra.Command, flags *cli.Flags) {
	cmd.Flags().StringVar(&flags.TaskID, "task-id", "", "Task identifier echoed in log events")
	cmd.Flags().StringVar(&flags.TargetApp, "target-app", "", "Package id of the application under test")
	cmd.Flags().StringVar(&flags.TestCases, "test-cases", "", "Path to a JSON file with an array of test case objects")
	cmd.Flags().StringVar(&flags.ModelURL, "model-url", "", "Base URL of the model API (env "+config.EnvModelURL+")")
	cmd.Flags().StringVar(&flags.Model, "model", "", "Model name (env "+config.EnvModel+")")
	cmd.Flags().StringVar(&flags.APIKey, "api-key", "", "API key for the model endpoint (env "+config.EnvAPIKey+")")
	cmd.Flags().BoolVar(&flags.Progress, "progress", false, "Render a progress bar on stderr")
	cmd.Flags().StringVar(&flags.ResultsOut, "results-file", "", "Also write the run results to this JSON file")
	cmd.Flags().StringVar(&flags.ResultsDSN, "results-dsn", "", "Also record the run in MySQL (go-sql-driver DSN)")
	cmd.Flags().IntVar(&flags.MaxSteps, "max-steps", config.DefaultMaxSteps, "Maximum agent turns per test case")
	for _, name := range config.RequiredFlags {
		_ = cmd.MarkFlagRequired(name)
	}
}

// applyEnvFallbacks fills model flags that were not given from the
// environment (including a .env file). cobra validates required flags
// after PreRunE, so values set here count as provided.
func applyEnvFallbacks(cmd *cobra.Command) error {
	if err := config.LoadEnvFile(config.DefaultEnvFile); err != nil {
		return err
	}
	for name := range config.EnvFallbacks {
		f := cmd.Flags().Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if v, ok := config.EnvValue(name); ok {
			if err := cmd.Flags().Set(name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Report emits err as an error event when cmd streams events and the
// error has not been reported yet. Usage errors raised by cobra before
// the command runs reach the caller this way.
func (c *Commands) Report(cmd *cobra.Command, err error) {
	if err == nil || !StreamsEvents(cmd) || IsReported(err) {
		return
	}
	_ = c.emitter.Emit(domain.NewError(err.Error()))
}

// StreamsEvents reports whether cmd writes the NDJSON event stream, in
// which case its errors must be reported as an error event.
func StreamsEvents(cmd *cobra.Command) bool {
	return cmd != nil && cmd.Annotations[annotationOutput] == "ndjson"
}

// reportedError wraps an error whose error event was already written
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err has already been emitted as an error event
func IsReported(err error) bool {
	var reported *reportedError
	var fatal *execution.FatalError
	return errors.As(err, &reported) || errors.As(err, &fatal)
}
