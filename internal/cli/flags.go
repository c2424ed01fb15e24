package cli

import "fuzzworker/internal/config"

// Flags holds command-line flags
type Flags struct {
	TaskID     string
	TargetApp  string
	TestCases  string
	ModelURL   string
	Model      string
	APIKey     string
	LogLevel   string
	LogFormat  string
	Progress   bool
	ResultsOut string
	ResultsDSN string
	ADBPath    string
	MaxSteps   int
}

// Apply copies the parsed flags onto cfg
func (f *Flags) Apply(cfg *config.RunConfig) {
	cfg.TaskID = f.TaskID
	cfg.TargetApp = f.TargetApp
	cfg.TestCasesPath = f.TestCases
	cfg.ModelURL = f.ModelURL
	cfg.Model = f.Model
	cfg.APIKey = f.APIKey
	cfg.LogLevel = f.LogLevel
	cfg.LogFormat = f.LogFormat
	cfg.Progress = f.Progress
	cfg.ResultsFile = f.ResultsOut
	cfg.ResultsDSN = f.ResultsDSN
	cfg.ADBPath = f.ADBPath
	cfg.MaxSteps = f.MaxSteps
}
