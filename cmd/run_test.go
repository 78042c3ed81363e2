package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunSessionRejectsMissingConfigFile(t *testing.T) {
	err := runSession(runCmd, []string{filepath.Join(t.TempDir(), "missing.conf")})
	if err == nil {
		t.Fatal("expected an error for a missing configuration file")
	}
}

func TestRunSessionRejectsMissingShimPath(t *testing.T) {
	oldShim := runShimPath
	runShimPath = ""
	defer func() { runShimPath = oldShim }()

	path := filepath.Join(t.TempDir(), "session.conf")
	if err := os.WriteFile(path, []byte("program = /bin/true\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	err := runSession(runCmd, []string{path})
	if err == nil {
		t.Fatal("expected an error when no shim library is configured")
	}
}
