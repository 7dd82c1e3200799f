package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects how a process was configured and emits it as one
// structured event, so a single log line answers "what was this running
// with" when troubleshooting.
type StartupLogger struct {
	name         string
	version      string
	initDuration time.Duration

	s3Buckets    map[string]string
	dynamoTables map[string]string
	ssmParams    map[string]string
	models       map[string]string
	features     map[string]bool
	config       map[string]string
}

// NewStartupLogger creates a StartupLogger for the named binary
// (e.g. "spotdiff", "chat-lambda").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:         name,
		s3Buckets:    make(map[string]string),
		dynamoTables: make(map[string]string),
		ssmParams:    make(map[string]string),
		models:       make(map[string]string),
		features:     make(map[string]bool),
		config:       make(map[string]string),
	}
}

// Version sets the build version baked into the binary.
func (s *StartupLogger) Version(v string) *StartupLogger {
	s.version = v
	return s
}

// S3Bucket registers an S3 bucket the process writes to.
func (s *StartupLogger) S3Bucket(label, name string) *StartupLogger {
	if name != "" {
		s.s3Buckets[label] = name
	}
	return s
}

// DynamoTable registers a DynamoDB table the process writes to.
func (s *StartupLogger) DynamoTable(label, name string) *StartupLogger {
	if name != "" {
		s.dynamoTables[label] = name
	}
	return s
}

// SSMParam registers an SSM parameter path. Only the path is logged.
func (s *StartupLogger) SSMParam(label, path string) *StartupLogger {
	s.ssmParams[label] = path
	return s
}

// Model registers a Gemini model id by role ("text", "image", "chat").
func (s *StartupLogger) Model(role, id string) *StartupLogger {
	s.models[role] = id
	return s
}

// Feature registers a boolean feature flag (e.g. "archive", "websocket").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long start-up took.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// EnvOrDefault returns the named environment variable, or defaultVal when it
// is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits the collected information as a single INFO event.
func (s *StartupLogger) Log() {
	evt := log.Info()

	process := zerolog.Dict().
		Str("name", s.name).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Int("pid", os.Getpid()).
		Str("logLevel", zerolog.GlobalLevel().String())
	if s.version != "" {
		process = process.Str("version", s.version)
	}
	// Lambda identity, when running there.
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		process = process.
			Str("functionName", fn).
			Str("functionVersion", os.Getenv("AWS_LAMBDA_FUNCTION_VERSION")).
			Str("region", os.Getenv("AWS_REGION")).
			Str("memoryMB", os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE"))
	}
	evt = evt.Dict("process", process)

	resources := zerolog.Dict()
	hasResources := false
	for label, m := range map[string]map[string]string{
		"s3Buckets":    s.s3Buckets,
		"dynamoTables": s.dynamoTables,
		"ssmParams":    s.ssmParams,
	} {
		if len(m) > 0 {
			resources = resources.Dict(label, dictFromMap(m))
			hasResources = true
		}
	}
	if hasResources {
		evt = evt.Dict("resources", resources)
	}

	if len(s.models) > 0 {
		evt = evt.Dict("models", dictFromMap(s.models))
	}
	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}
	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}
	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Startup complete")
}

func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
