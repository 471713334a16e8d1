package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	appNameVar   = "APP_NAME"
	logLevelVar  = "LOG_LEVEL"
	ioTimeoutVar = "IO_TIMEOUT"
)

type EnvConfig interface {
	GetAppName() string
	GetLogLevel() zerolog.Level
	GetIOTimeout() time.Duration
}

type EnvVars struct {
	source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "OAuth Client")
}

// GetLogLevel falls back to info for unknown level names.
func (e EnvVars) GetLogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(e.get(logLevelVar, "info"))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// GetIOTimeout bounds the whole token exchange, connect included.
func (e EnvVars) GetIOTimeout() time.Duration {
	d, err := time.ParseDuration(e.get(ioTimeoutVar, "30s"))
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
