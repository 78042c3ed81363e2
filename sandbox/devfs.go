package sandbox

import (
	"golang.org/x/sys/unix"

	"errtracer/errors"
)

// minimalDevices is the fixed set of device nodes a sandboxed run gets,
// grounded on the runtime's linux/devices.go allow-list — the same
// major:minor pairs, narrowed to the handful every ordinary program
// needs (null/zero/full/random/urandom, plus a console) rather than the
// runtime's full bundle-driven device list, since the harness never
// builds a container rootfs for these nodes to belong to.
var minimalDevices = []struct {
	name  string
	major uint32
	minor uint32
	mode  uint32
}{
	{"null", 1, 3, 0o666},
	{"zero", 1, 5, 0o666},
	{"full", 1, 7, 0o666},
	{"random", 1, 8, 0o666},
	{"urandom", 1, 9, 0o666},
	{"tty", 5, 0, 0o666},
}

// SetupMinimalDev mounts a tmpfs over /dev and populates it with a
// handful of device nodes, run inside the sandboxed process's own new
// mount namespace so the host's /dev is never touched. Must run after
// the Cloneflags-driven namespace switch has taken effect (i.e. inside
// the re-exec'd child, before the target's own exec) and before
// capabilities are dropped, since mknod(2) requires CAP_MKNOD.
func SetupMinimalDev() error {
	if err := unix.Mount("tmpfs", "/dev", "tmpfs", unix.MS_NOSUID, "mode=755"); err != nil {
		return errors.Wrap(err, errors.ErrSandbox, "sandbox.mountDev")
	}

	for _, dev := range minimalDevices {
		path := "/dev/" + dev.name
		devt := unix.Mkdev(dev.major, dev.minor)
		mode := dev.mode | unix.S_IFCHR
		if err := unix.Mknod(path, mode, int(devt)); err != nil {
			return errors.WrapWithDetail(err, errors.ErrSandbox, "sandbox.mknod", path)
		}
	}
	return nil
}
