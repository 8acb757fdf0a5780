package common

import (
	"os"

	"github.com/charmbracelet/log"
)

var (
	appLogger   *log.Logger
	errorLogger *log.Logger
)

func init() {
	appLogger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		Prefix:          "telegram-mcp",
	})
}

// SetupLogging configures the process-wide loggers. The console logger writes
// to stderr because stdout carries the MCP transport. Errors are additionally
// appended to errorLogPath as JSON records; if that file cannot be opened the
// console logger stays the only sink.
func SetupLogging(level, format, errorLogPath string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	appLogger.SetLevel(lvl)
	if format == "json" {
		appLogger.SetFormatter(log.JSONFormatter)
	}

	if errorLogPath == "" {
		return
	}
	f, err := os.OpenFile(errorLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		appLogger.Error("Failed to set up log file handler", "path", errorLogPath, "error", err)
		errorLogger = nil
		return
	}
	errorLogger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Level:           log.ErrorLevel,
		Formatter:       log.JSONFormatter,
	})
	appLogger.Info("Logging initialized", "error_log", errorLogPath)
}

// Logger returns the shared console logger. Modules derive their own with
// Logger().With("module", name).
func Logger() *log.Logger {
	return appLogger
}

// ErrorLog returns the JSON error-file logger, or nil when no file sink is
// configured.
func ErrorLog() *log.Logger {
	return errorLogger
}
