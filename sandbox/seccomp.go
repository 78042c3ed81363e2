package sandbox

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"errtracer/errors"
)

// Seccomp/BPF constants mirrored from linux/seccomp.h and linux/bpf.h;
// the harness only ever builds one fixed filter, so there is no need
// for the runtime's full OCI action/architecture translation tables.
const (
	seccompModeFilter = 2
	seccompRetErrno   = 0x00050000
	seccompRetAllow   = 0x7fff0000

	prSetNoNewPrivs = 38
	prSetSeccomp    = 22

	bpfLd  = 0x00
	bpfJmp = 0x05
	bpfRet = 0x06
	bpfW   = 0x00
	bpfAbs = 0x20
	bpfJeq = 0x10
	bpfK   = 0x00

	offsetNR = 0

	auditArchX86_64 = 0xc000003e
)

// deniedSyscalls lists every syscall a traced target is refused while
// sandboxed: namespace/mount manipulation and process inspection that a
// target under analysis has no legitimate reason to perform and that
// could otherwise be used to escape or interfere with the harness.
var deniedSyscalls = []string{"ptrace", "mount", "umount2", "reboot", "kexec_load"}

type sockFprog struct {
	Len    uint16
	Filter *sockFilter
}

type sockFilter struct {
	Code uint16
	Jt   uint8
	Jf   uint8
	K    uint32
}

func bpfStmt(code uint16, k uint32) sockFilter {
	return sockFilter{Code: code, K: k}
}

func bpfJump(code uint16, k uint32, jt, jf uint8) sockFilter {
	return sockFilter{Code: code, Jt: jt, Jf: jf, K: k}
}

// syscallNumbers maps the deny-list's names to their x86_64 syscall
// numbers, taken from the same numbering the runtime's seccomp table
// uses.
var syscallNumbers = map[string]int{
	"ptrace":     101,
	"mount":      165,
	"umount2":    166,
	"reboot":     169,
	"kexec_load": 246,
}

// ApplySeccomp installs a BPF filter that denies every syscall in
// deniedSyscalls with EPERM and allows everything else. Unlike the
// runtime's configurable allow/deny rule set driven by an OCI
// spec.LinuxSeccomp, a traced run's policy is fixed: the harness always
// denies the same small set regardless of configuration.
func ApplySeccomp() error {
	if err := unix.Prctl(prSetNoNewPrivs, 1, 0, 0, 0); err != nil {
		return errors.Wrap(err, errors.ErrSandbox, "sandbox.noNewPrivs")
	}

	filter := buildFilter()
	prog := sockFprog{Len: uint16(len(filter)), Filter: &filter[0]}

	if err := unix.Prctl(prSetSeccomp, seccompModeFilter, uintptr(unsafe.Pointer(&prog)), 0, 0); err != nil {
		return errors.Wrap(err, errors.ErrSandbox, "sandbox.installSeccomp")
	}
	return nil
}

func buildFilter() []sockFilter {
	var filter []sockFilter

	filter = append(filter, bpfStmt(bpfLd|bpfW|bpfAbs, offsetNR))

	for _, name := range deniedSyscalls {
		nr, ok := syscallNumbers[name]
		if !ok {
			continue
		}
		filter = append(filter, bpfJump(bpfJmp|bpfJeq|bpfK, uint32(nr), 0, 1))
		filter = append(filter, bpfStmt(bpfRet|bpfK, seccompRetErrno|uint32(unix.EPERM)))
	}

	filter = append(filter, bpfStmt(bpfRet|bpfK, seccompRetAllow))
	return filter
}
