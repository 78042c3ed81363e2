package sandbox

import (
	"runtime"
	"syscall"
	"testing"
)

func TestSysProcAttrSetsNamespaceFlags(t *testing.T) {
	attr := SysProcAttr()
	want := uintptr(syscall.CLONE_NEWNS | syscall.CLONE_NEWPID |
		syscall.CLONE_NEWUTS | syscall.CLONE_NEWIPC | syscall.CLONE_NEWNET)
	if uintptr(attr.Cloneflags) != want {
		t.Fatalf("Cloneflags = %#x, want %#x", attr.Cloneflags, want)
	}
	if !attr.Setsid {
		t.Fatal("Setsid = false, want true")
	}
}

func TestNewCgroupUnwritableRootDoesNotPanic(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("cgroup v2 is linux-specific")
	}
	// The real cgroup root is not writable by an unprivileged test
	// process under most CI sandboxes, so creating a subdirectory there
	// should fail cleanly rather than panic.
	if _, err := NewCgroup(999999); err != nil {
		t.Logf("NewCgroup failed as expected in an unprivileged sandbox: %v", err)
	}
}

func TestBuildFilterDeniesConfiguredSyscalls(t *testing.T) {
	filter := buildFilter()
	if len(filter) == 0 {
		t.Fatal("buildFilter() returned an empty program")
	}

	found := map[string]bool{}
	for _, name := range deniedSyscalls {
		nr, ok := syscallNumbers[name]
		if !ok {
			t.Fatalf("missing syscall number for %q", name)
		}
		for _, instr := range filter {
			if instr.Code == (bpfJmp|bpfJeq|bpfK) && instr.K == uint32(nr) {
				found[name] = true
			}
		}
	}
	for _, name := range deniedSyscalls {
		if !found[name] {
			t.Errorf("buildFilter() has no deny rule for %q", name)
		}
	}

	last := filter[len(filter)-1]
	if last.Code != (bpfRet|bpfK) || last.K != seccompRetAllow {
		t.Fatalf("final instruction = %+v, want default-allow return", last)
	}
}

func TestLastCapHasSaneFallback(t *testing.T) {
	n := lastCap()
	if n < 0 || n > 63 {
		t.Fatalf("lastCap() = %d, want value in [0, 63]", n)
	}
}

func TestMinimalDevicesCoverStandardNodes(t *testing.T) {
	want := map[string]bool{"null": true, "zero": true, "full": true, "random": true, "urandom": true, "tty": true}
	for _, dev := range minimalDevices {
		if !want[dev.name] {
			t.Errorf("unexpected device node %q in minimalDevices", dev.name)
		}
		delete(want, dev.name)
	}
	for missing := range want {
		t.Errorf("minimalDevices is missing %q", missing)
	}
}
