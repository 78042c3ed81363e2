// Package sandbox optionally isolates a traced run: fresh mount/PID/UTS/
// IPC/network namespaces, a cgroup v2 controller capping memory and task
// count, every capability dropped from the bounding set, and a seccomp
// filter denying a small deny-list of syscalls the target has no
// business calling while being traced (reboot, mount/umount2, ptrace,
// kexec_load).
//
// Adapted from the runtime's linux namespace/cgroup/capability
// primitives: same SysProcAttr-and-cgroupfs approach, but driven by a
// fixed policy instead of an OCI spec.Linux configuration, since a
// traced run has no bundle to read isolation settings from.
package sandbox

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"errtracer/errors"
)

// ReexecArg is the hidden first argument a sandboxed launch passes to a
// re-exec of the errtracer binary itself, distinguishing "I am the
// sandboxed child, finish dropping privileges then exec the real
// target" from a normal invocation. Go's os/exec has no fork-without-exec
// hook the way a raw fork(2)+execve(2) would, so seccomp/capability
// setup that must happen after clone but before the target's exec is
// done by re-executing the harness binary itself as that hook.
const ReexecArg = "__errtracer_sandbox_init__"

// Init is the re-exec entry point: it drops every capability from the
// bounding set, installs the syscall deny-list, then execs the real
// target named by args. It must be called as early as possible in
// main(), before any other initialization, when os.Args[1] == ReexecArg.
func Init(args []string) error {
	if err := SetupMinimalDev(); err != nil {
		return err
	}
	if err := DropAllCapabilities(); err != nil {
		return err
	}
	if err := ApplySeccomp(); err != nil {
		return err
	}
	path, err := exec.LookPath(args[0])
	if err != nil {
		return errors.Wrap(err, errors.ErrSandbox, "sandbox.init")
	}
	if err := unix.Exec(path, args, os.Environ()); err != nil {
		return errors.Wrap(err, errors.ErrSandbox, "sandbox.init")
	}
	return nil
}

// Config names the limits a sandboxed run is subject to. A nil/zero
// MemoryMax or PidsMax leaves that control unbounded.
type Config struct {
	MemoryMax int64
	PidsMax   int64
}

// cgroupRoot is the cgroup v2 mount point.
const cgroupRoot = "/sys/fs/cgroup"

// SysProcAttr builds the namespace isolation applied to the target
// process: new mount, PID, UTS, IPC, and network namespaces. The harness
// never needs a user namespace (it runs as the same user as the target
// would without isolation), unlike a full container runtime.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWNS | syscall.CLONE_NEWPID |
			syscall.CLONE_NEWUTS | syscall.CLONE_NEWIPC | syscall.CLONE_NEWNET,
		Setsid: true,
	}
}

// Cgroup is one cgroup v2 control group scoped to a single run.
type Cgroup struct {
	path string
}

// NewCgroup creates (or reuses) a cgroup directory named after the run
// index, under a dedicated harness subtree.
func NewCgroup(runIndex int) (*Cgroup, error) {
	path := filepath.Join(cgroupRoot, "errtracer", "run-"+strconv.Itoa(runIndex))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrSandbox, "cgroup.create")
	}
	return &Cgroup{path: path}, nil
}

// Apply writes the configured memory and pids limits to the cgroup's
// controller files. Zero values leave the corresponding control
// unwritten (cgroup v2 defaults to "max", i.e. unbounded).
func (c *Cgroup) Apply(cfg Config) error {
	if cfg.MemoryMax > 0 {
		if err := c.writeControl("memory.max", strconv.FormatInt(cfg.MemoryMax, 10)); err != nil {
			return err
		}
	}
	if cfg.PidsMax > 0 {
		if err := c.writeControl("pids.max", strconv.FormatInt(cfg.PidsMax, 10)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cgroup) writeControl(file, value string) error {
	path := filepath.Join(c.path, file)
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return errors.WrapWithDetail(err, errors.ErrSandbox, "cgroup.apply", fmt.Sprintf("write %s", file))
	}
	return nil
}

// AddProcess joins pid to this cgroup.
func (c *Cgroup) AddProcess(pid int) error {
	path := filepath.Join(c.path, "cgroup.procs")
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrSandbox, "cgroup.addProcess")
	}
	return nil
}

// Destroy removes the cgroup directory once its process has exited.
func (c *Cgroup) Destroy() error {
	if err := os.Remove(c.path); err != nil {
		return errors.Wrap(err, errors.ErrSandbox, "cgroup.destroy")
	}
	return nil
}
