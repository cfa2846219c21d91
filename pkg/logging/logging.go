// Package logging configures the process-wide zerolog logger shared by
// every component of the backend.
package logging

import (
	"os"
	"runtime"
	"time"

	"cloud.google.com/go/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls the global logger set up at boot.
type Config struct {
	// Service tags every entry with the emitting service.
	Service string
	// Version is the git commit baked into the binary.
	Version string
	// Debug lowers the level from info to debug.
	Debug bool
	// Human switches to the console writer for local runs.
	Human bool
}

// Setup configures the global logger: structured JSON with the fields
// the Cloud Logging router keys on, console output when Human is set.
func Setup(cfg Config) {
	zerolog.TimestampFieldName = "timestamp"
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Human {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	log.Logger = log.Logger.Hook(severityHook{})
	log.Logger = log.With().
		Str("service", cfg.Service).
		Str("version", cfg.Version).
		Str("goversion", runtime.Version()).
		Logger()
}

// severityHook mirrors the zerolog level into the severity field Google
// Cloud Logging reads.
type severityHook struct{}

func (severityHook) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	e.Str("severity", toSeverity(level).String())
}

func toSeverity(level zerolog.Level) logging.Severity {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return logging.Debug
	case zerolog.WarnLevel:
		return logging.Warning
	case zerolog.ErrorLevel:
		return logging.Error
	case zerolog.FatalLevel:
		return logging.Alert
	case zerolog.PanicLevel:
		return logging.Emergency
	default:
		return logging.Info
	}
}
