package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

// Setup configures process-wide structured JSON logging for the farm service
// and returns the base logger. Every line carries the service name and, when
// provided, the environment; the "local" environment lowers the level to
// debug.
func Setup(service, env string) *slog.Logger {
	env = strings.TrimSpace(env)
	level := slog.LevelInfo
	if env == "local" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: renameCoreAttrs,
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	base := slog.New(handler.WithAttrs(attrs))
	slog.SetDefault(base)

	// Bridge the standard library logger so dependencies keep working.
	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// renameCoreAttrs maps slog's built-in keys to timestamp/severity/message.
func renameCoreAttrs(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "timestamp"
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "message"
	}
	return attr
}
