package config

const (
	// DefaultLogLevel is the logrus level used for stderr diagnostics
	DefaultLogLevel = "info"
	// DefaultLogFormat is the stderr log format
	DefaultLogFormat = "text"
	// DefaultADBPath is the adb binary looked up on PATH
	DefaultADBPath = "adb"
	// DefaultMaxSteps bounds the number of agent turns per test case
	DefaultMaxSteps = 20
	// DefaultEnvFile is loaded from the working directory when present
	DefaultEnvFile = ".env"
)

// Environment variables consulted for model settings not given as flags.
const (
	EnvModelURL = "AUTOGLM_BASE_URL"
	EnvModel    = "AUTOGLM_MODEL"
	EnvAPIKey   = "ZHIPU_API_KEY"
)

// RequiredFlags are the flags every run must provide
var RequiredFlags = []string{
	"task-id",
	"target-app",
	"test-cases",
	"model-url",
	"model",
	"api-key",
}

// EnvFallbacks maps flag names to the environment variable that may supply them
var EnvFallbacks = map[string]string{
	"model-url": EnvModelURL,
	"model":     EnvModel,
	"api-key":   EnvAPIKey,
}
