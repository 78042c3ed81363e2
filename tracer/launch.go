package tracer

import (
	"os"
	"os/exec"

	"errtracer/errors"
	"errtracer/sandbox"
)

// ShimLibraryEnv names the environment variable the launcher uses to
// locate the interception shim's shared object; SocketPathEnv tells the
// shim which welcome socket to dial. Grounded on Tracer::init's
// "LD_PRELOAD=bin/lib_filesystem.so" literal, generalized into
// configurable env vars since this harness's socket path is not a fixed
// compile-time constant.
const (
	ShimLibraryEnv = "LD_PRELOAD"
	SocketPathEnv  = "ERRTRACER_SOCKET"
)

// DefaultSocketPath is the welcome socket path used when the session
// configuration does not override it, matching the original's
// "/tmp/analyserSocket".
const DefaultSocketPath = "/tmp/analyserSocket"

// Launch starts one instance of the target program with the shim
// preloaded and pointed at socketPath. It does not wait for the process;
// the caller drives the protocol exchange via the Socket returned by
// Accept and eventually calls Wait.
type Launch struct {
	cmd    *exec.Cmd
	cgroup *sandbox.Cgroup
}

// StartOptions controls how the target is launched. A zero value starts
// the target unsandboxed, matching the original's bare fork+exec.
type StartOptions struct {
	Sandbox   bool
	RunIndex  int
	MemoryMax int64
	PidsMax   int64
}

// Start execs program (program[0] is the path, the rest its argv) with
// the shim preloaded, mirroring Tracer::init's fork+putenv+execv but
// using os/exec instead of a raw fork so the child never inherits the
// welcome socket's listening descriptor.
//
// When opts.Sandbox is set, the target runs in fresh mount/PID/UTS/IPC/
// network namespaces and a cgroup v2 group capping memory and task
// count, with capabilities and the syscall deny-list dropped via a
// re-exec of the harness binary itself (see sandbox.Init) before the
// target's own exec.
func Start(program []string, shimPath, socketPath string, opts StartOptions) (*Launch, error) {
	if len(program) == 0 {
		return nil, errors.New(errors.ErrConfiguration, "start", "program is empty")
	}

	var cmd *exec.Cmd
	if opts.Sandbox {
		self, err := os.Executable()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrSandbox, "start")
		}
		cmd = exec.Command(self, append([]string{sandbox.ReexecArg}, program...)...)
		cmd.SysProcAttr = sandbox.SysProcAttr()
	} else {
		cmd = exec.Command(program[0], program[1:]...)
	}

	cmd.Env = append(os.Environ(),
		ShimLibraryEnv+"="+shimPath,
		SocketPathEnv+"="+socketPath,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Start(); err != nil {
		return nil, errors.WrapWithDetail(err, errors.ErrConfiguration, "start", "program cannot be executed")
	}

	launch := &Launch{cmd: cmd}
	if opts.Sandbox {
		cg, err := sandbox.NewCgroup(opts.RunIndex)
		if err != nil {
			return nil, err
		}
		if err := cg.Apply(sandbox.Config{MemoryMax: opts.MemoryMax, PidsMax: opts.PidsMax}); err != nil {
			return nil, err
		}
		if err := cg.AddProcess(cmd.Process.Pid); err != nil {
			return nil, err
		}
		launch.cgroup = cg
	}
	return launch, nil
}

// Wait blocks until the target process exits, matching Tracer::trace's
// trailing wait(&status) once the socket exchange has ended. When the
// launch was sandboxed, its cgroup is torn down afterward.
func (l *Launch) Wait() error {
	err := l.cmd.Wait()
	if l.cgroup != nil {
		l.cgroup.Destroy()
	}
	return err
}
