package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// RunConfig holds everything a fuzz run needs. It is not modified once
// the command line has been parsed.
type RunConfig struct {
	// Required run settings
	TaskID        string
	TargetApp     string
	TestCasesPath string
	ModelURL      string
	Model         string
	APIKey        string

	// Diagnostics
	LogLevel  string
	LogFormat string
	Progress  bool

	// Result persistence
	ResultsFile string
	ResultsDSN  string

	// Agent settings
	ADBPath  string
	MaxSteps int
}

// New creates a RunConfig with defaults
func New() *RunConfig {
	return &RunConfig{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		ADBPath:   DefaultADBPath,
		MaxSteps:  DefaultMaxSteps,
	}
}

// Validate checks the required fields. cobra already rejects missing flags,
// this catches values that were given but empty.
func (c *RunConfig) Validate() error {
	fields := []struct {
		flag  string
		value string
	}{
		{"task-id", c.TaskID},
		{"target-app", c.TargetApp},
		{"test-cases", c.TestCasesPath},
		{"model-url", c.ModelURL},
		{"model", c.Model},
		{"api-key", c.APIKey},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("flag --%s must not be empty", f.flag)
		}
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("--max-steps must be positive, got %d", c.MaxSteps)
	}
	return nil
}

// GetTestCasesPath returns the test case file as an absolute path when it can be resolved
func (c *RunConfig) GetTestCasesPath() string {
	if abs, err := filepath.Abs(c.TestCasesPath); err == nil {
		return abs
	}
	return c.TestCasesPath
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left alone and a missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// EnvValue returns the environment fallback for a flag, if any
func EnvValue(flag string) (string, bool) {
	name, ok := EnvFallbacks[flag]
	if !ok {
		return "", false
	}
	v := os.Getenv(name)
	return v, v != ""
}

// NewLogger builds the stderr diagnostics logger from the config
func (c *RunConfig) NewLogger() (*logrus.Logger, error) {
	return NewLogger(c.LogLevel, c.LogFormat)
}

// NewLogger builds a logrus logger writing to stderr. Stdout is reserved
// for the event stream.
func NewLogger(level, format string) (*logrus.Logger, error) {
	logr := logrus.New()
	logr.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logr.SetLevel(lvl)

	switch format {
	case "json":
		logr.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logr.SetFormatter(&logrus.TextFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q, valid values are 'text', 'json'", format)
	}
	return logr, nil
}
