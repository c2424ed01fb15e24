package execution

import (
	"context"

	"fuzzworker/internal/domain"
	"fuzzworker/internal/phoneagent"
)

// Agent executes one natural-language instruction on a device and returns
// a textual result.
type Agent interface {
	Run(ctx context.Context, instruction string) (string, error)
}

// DeviceBinder is implemented by agents that must be told which device to
// drive. The orchestrator binds the selected device before the first case.
type DeviceBinder interface {
	UseDevice(deviceID string) error
}

// DeviceProvider enumerates currently reachable devices
type DeviceProvider interface {
	ListDevices(ctx context.Context) ([]domain.Device, error)
}

// AgentFactory builds an agent bound to a model configuration
type AgentFactory func(cfg phoneagent.ModelConfig) (Agent, error)

// Progress receives per-case tallies while a run is in flight
type Progress interface {
	Update(successCount, failCount int)
	Finish()
}

// Recorder persists the summary of a finished run
type Recorder interface {
	Save(ctx context.Context, record *domain.RunRecord) error
}
