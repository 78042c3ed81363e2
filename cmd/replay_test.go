package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunReplayRejectsMissingConfigFile(t *testing.T) {
	err := runReplay(replayCmd, []string{filepath.Join(t.TempDir(), "missing.conf")})
	if err == nil {
		t.Fatal("expected an error for a missing configuration file")
	}
}

func TestRunReplayRejectsConfigWithNoProgram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.conf")
	if err := os.WriteFile(path, []byte("output = dot\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	err := runReplay(replayCmd, []string{path})
	if err == nil {
		t.Fatal("expected an error when the configuration names no program")
	}
}
