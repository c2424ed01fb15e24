package commands

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fuzzworker/internal/config"
	"fuzzworker/internal/device"
	"fuzzworker/internal/domain"
	"fuzzworker/internal/events"
	"fuzzworker/internal/execution"
	"fuzzworker/internal/storage"
	"fuzzworker/internal/testcases"
	"fuzzworker/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config  *config.RunConfig
	loader  *testcases.Loader
	emitter events.Emitter
	stderr  io.Writer
	collab  Collaborators
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.RunConfig,
	loader *testcases.Loader,
	emitter events.Emitter,
	stderr io.Writer,
	collab Collaborators,
) *RunCommand {
	return &RunCommand{
		config:  cfg,
		loader:  loader,
		emitter: emitter,
		stderr:  stderr,
		collab:  collab,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	if err := rc.config.Validate(); err != nil {
		return err
	}

	log, err := rc.config.NewLogger()
	if err != nil {
		return err
	}
	log.SetOutput(rc.stderr)

	// Load test cases
	cases, err := rc.loader.Load(rc.config.GetTestCasesPath())
	if err != nil {
		return rc.report(fmt.Errorf("failed to read test case file: %w", err))
	}
	log.WithFields(logrus.Fields{
		"file":  rc.config.TestCasesPath,
		"cases": len(cases),
	}).Debug("loaded test cases")

	adb := device.NewADB(rc.config.ADBPath, rc.collab.Runner, log)
	orchestrator := execution.NewOrchestrator(rc.emitter, adb, rc.collab.Agents(rc.config, log, adb), log)

	if rc.config.Progress {
		orchestrator.SetProgress(ui.NewProgressBar(len(cases), rc.stderr))
	}

	recorder, closeRecorder, err := rc.openStorage()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRecorder(); err != nil {
			log.WithError(err).Warn("failed to close results storage")
		}
	}()
	if recorder != nil {
		orchestrator.SetRecorder(recorder)
	}

	return orchestrator.Run(cmd.Context(), rc.config, cases)
}

// openStorage builds the recorders requested on the command line
func (rc *RunCommand) openStorage() (execution.Recorder, func() error, error) {
	var stores storage.Multi
	closeFn := func() error { return nil }

	if rc.config.ResultsFile != "" {
		stores = append(stores, storage.NewJSONStorage(rc.config.ResultsFile))
	}
	if rc.config.ResultsDSN != "" {
		db, err := storage.NewMySQLStorage(rc.config.ResultsDSN)
		if err != nil {
			return nil, closeFn, fmt.Errorf("failed to open results database: %w", err)
		}
		stores = append(stores, db)
		closeFn = db.Close
	}

	if len(stores) == 0 {
		return nil, closeFn, nil
	}
	return stores, closeFn, nil
}

// report emits err as the run's error event and marks it as reported
func (rc *RunCommand) report(err error) error {
	if emitErr := rc.emitter.Emit(domain.NewError(err.Error())); emitErr != nil {
		return fmt.Errorf("%w (emit: %v)", err, emitErr)
	}
	return &reportedError{err: err}
}
