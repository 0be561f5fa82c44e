// Package logger configures the process-wide slog logger.
package logger

import (
	"log/slog"
	"os"
)

var Logger *slog.Logger

// Init sets up the default text logger. Debug level is enabled via the
// DEBUG environment variable so it works before config is loaded.
func Init() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		level = slog.LevelDebug
	}

	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(Logger)
}

// With returns a child logger tagged with a component name.
func With(component string) *slog.Logger {
	if Logger == nil {
		Init()
	}
	return Logger.With("component", component)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
