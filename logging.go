package mcastlog

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

func ContextLogger(ctx context.Context) *slog.Logger {
	log := slog.Default()
	if ctx == nil {
		return log
	}
	keys := []ContextKey{
		ContextKeyPipelineName,
		ContextKeyPluginType,
		ContextKeyPluginName,
	}
	for _, key := range keys {
		if value := ctx.Value(key); value != nil {
			log = log.With(string(key), value)
		}
	}
	return log
}

type ContextKey string

const (
	// ContextKeyPipelineName is the name of a pipeline
	ContextKeyPipelineName ContextKey = "pipelineName"

	// ContextKeyPluginType is the type of plugin (eg. "output[multicast]")
	ContextKeyPluginType ContextKey = "pluginType"

	// ContextKeyPluginName is the name of the plugin
	ContextKeyPluginName ContextKey = "pluginName"

	// ContextKeySchema is the schema used by a pipeline
	ContextKeySchema ContextKey = "schema"
)

// SetupLogging installs a tint handler as the process-wide default logger.
func SetupLogging(level string, w io.Writer) {
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      ParseSlogLevel(level),
			TimeFormat: time.Kitchen,
		}),
	))
}

func ParseSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
