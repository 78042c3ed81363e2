package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"errtracer/logging"
)

func TestSetupLoggingFallsBackToStderrOnBadPath(t *testing.T) {
	oldLog, oldFormat, oldDebug := globalLog, globalLogFormat, globalDebug
	defer func() { globalLog, globalLogFormat, globalDebug = oldLog, oldFormat, oldDebug }()

	globalLog = filepath.Join(t.TempDir(), "no", "such", "dir", "log.txt")
	globalLogFormat = "text"
	globalDebug = false

	setupLogging()
	if logging.Default() == nil {
		t.Fatal("expected a default logger to be configured")
	}
}

func TestSetupLoggingWritesToConfiguredFile(t *testing.T) {
	oldLog, oldFormat, oldDebug := globalLog, globalLogFormat, globalDebug
	defer func() { globalLog, globalLogFormat, globalDebug = oldLog, oldFormat, oldDebug }()

	path := filepath.Join(t.TempDir(), "log.txt")
	globalLog = path
	globalLogFormat = "json"
	globalDebug = true

	setupLogging()
	logging.Default().Info("hello")

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
}

func TestGetContextReturnsLiveContext(t *testing.T) {
	ctx := GetContext()
	select {
	case <-ctx.Done():
		t.Fatal("context should not be done immediately")
	default:
	}
}
