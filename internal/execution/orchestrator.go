package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fuzzworker/internal/config"
	"fuzzworker/internal/domain"
	"fuzzworker/internal/events"
	"fuzzworker/internal/phoneagent"
)

// Orchestrator runs a batch of test cases through an agent, one at a time,
// and reports progress on an event emitter.
type Orchestrator struct {
	emitter  events.Emitter
	devices  DeviceProvider
	newAgent AgentFactory
	progress Progress
	recorder Recorder
	log      logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(emitter events.Emitter, devices DeviceProvider, newAgent AgentFactory, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{
		emitter:  emitter,
		devices:  devices,
		newAgent: newAgent,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// SetProgress sets the progress observer for the orchestrator
func (o *Orchestrator) SetProgress(progress Progress) {
	o.progress = progress
}

// SetRecorder sets where finished runs are persisted
func (o *Orchestrator) SetRecorder(recorder Recorder) {
	o.recorder = recorder
}

// Run executes every test case in order. A failing case is recorded and the
// loop moves on. Any other failure is reported as a single error event and
// returned as a *FatalError; no complete event is emitted in that case.
func (o *Orchestrator) Run(ctx context.Context, cfg *config.RunConfig, cases []domain.TestCase) (err error) {
	log := o.log.WithFields(logrus.Fields{
		"task_id":    cfg.TaskID,
		"target_app": cfg.TargetApp,
	})

	o.emit(domain.NewLog(fmt.Sprintf("starting fuzz task: %s", cfg.TaskID), o.timestamp()))

	defer func() {
		if r := recover(); r != nil {
			err = o.fail(log, fmt.Errorf("panic: %v", r))
		}
	}()

	record, err := o.execute(ctx, log, cfg, cases)
	if err != nil {
		return o.fail(log, err)
	}

	o.emit(domain.NewComplete(record.Results))
	log.WithFields(logrus.Fields{
		"passed": record.Passed,
		"failed": record.Failed,
	}).Info("fuzz task completed")

	if o.recorder != nil {
		if err := o.recorder.Save(ctx, record); err != nil {
			log.WithError(err).Warn("failed to save run results")
		}
	}
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, log logrus.FieldLogger, cfg *config.RunConfig, cases []domain.TestCase) (*domain.RunRecord, error) {
	modelConfig, err := phoneagent.NewModelConfig(cfg.ModelURL, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, err
	}

	agent, err := o.newAgent(modelConfig)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	devices, err := o.devices.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}

	deviceID := devices[0].ID
	if binder, ok := agent.(DeviceBinder); ok {
		if err := binder.UseDevice(deviceID); err != nil {
			return nil, fmt.Errorf("bind device %s: %w", deviceID, err)
		}
	}
	o.emit(domain.NewLog(fmt.Sprintf("using device: %s", deviceID), o.timestamp()))
	log = log.WithField("device_id", deviceID)

	record := &domain.RunRecord{
		RunID:     o.newID(),
		TaskID:    cfg.TaskID,
		TargetApp: cfg.TargetApp,
		DeviceID:  deviceID,
		Model:     cfg.Model,
		StartedAt: o.now(),
		Cases:     cases,
		Results:   make([]domain.CaseResult, 0, len(cases)),
	}

	var passed, failed int
	for idx, tc := range cases {
		description := tc.Description()
		o.emit(domain.NewProgress(idx+1, len(cases), description))

		result := o.runCase(ctx, agent, idx, description)
		record.Results = append(record.Results, result)

		if result.Success {
			passed++
		} else {
			failed++
			log.WithField("case", idx).Warnf("test case failed: %s", result.Error)
		}
		if o.progress != nil {
			o.progress.Update(passed, failed)
		}
	}
	if o.progress != nil {
		o.progress.Finish()
	}

	record.FinishedAt = o.now()
	record.Tally()
	return record, nil
}

// runCase isolates a single agent call. Errors and panics become a failed
// result for that case only.
func (o *Orchestrator) runCase(ctx context.Context, agent Agent, idx int, instruction string) (result domain.CaseResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.Failed(idx, fmt.Errorf("panic: %v", r))
		}
	}()

	out, err := agent.Run(ctx, instruction)
	if err != nil {
		return domain.Failed(idx, err)
	}
	return domain.Succeeded(idx, out)
}

func (o *Orchestrator) fail(log logrus.FieldLogger, cause error) error {
	fatal := &FatalError{Err: cause}
	log.WithError(cause).Error("fuzz task failed")
	o.emit(domain.NewError(fatal.Error()))
	return fatal
}

func (o *Orchestrator) emit(ev domain.Event) {
	if err := o.emitter.Emit(ev); err != nil {
		o.log.WithError(err).Error("failed to write event")
	}
}

// timestamp returns the current time as fractional Unix seconds
func (o *Orchestrator) timestamp() float64 {
	return float64(o.now().UnixMicro()) / 1e6
}
