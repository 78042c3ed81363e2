package tracer

import "testing"

func TestStartRejectsEmptyProgram(t *testing.T) {
	if _, err := Start(nil, "/nonexistent.so", DefaultSocketPath, StartOptions{}); err == nil {
		t.Fatal("expected an error for an empty program")
	}
}

func TestStartUnsandboxedLaunchesProcess(t *testing.T) {
	launch, err := Start([]string{"/bin/true"}, "", "/tmp/errtracer-launch-test.sock", StartOptions{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := launch.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}
