package sandbox

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"errtracer/errors"
)

// PR_CAPBSET_READ and PR_CAPBSET_DROP are prctl(2) operations used to
// probe and drop entries from the calling process's capability bounding
// set.
const (
	prCapbsetRead = 23
	prCapbsetDrop = 24
)

var (
	lastCapOnce  sync.Once
	lastCapValue = 40
)

// lastCap returns the highest capability number supported by the
// running kernel, read from /proc/sys/kernel/cap_last_cap with a
// prctl-probe fallback for kernels where that file is unavailable.
func lastCap() int {
	lastCapOnce.Do(func() {
		if data, err := os.ReadFile("/proc/sys/kernel/cap_last_cap"); err == nil {
			if val, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && val >= 0 {
				lastCapValue = val
				return
			}
		}
		for cap := 40; cap <= 63; cap++ {
			if err := unix.Prctl(prCapbsetRead, uintptr(cap), 0, 0, 0); err != nil {
				lastCapValue = cap - 1
				return
			}
		}
		lastCapValue = 63
	})
	return lastCapValue
}

// DropAllCapabilities clears every capability from the calling process's
// bounding set. A traced run has no legitimate use for any privileged
// capability, so unlike the runtime's ApplyCapabilities (which keeps a
// configured allow-list), the sandbox always drops everything.
func DropAllCapabilities() error {
	for cap := 0; cap <= lastCap(); cap++ {
		if err := unix.Prctl(prCapbsetDrop, uintptr(cap), 0, 0, 0); err != nil && err != unix.EINVAL {
			return errors.Wrap(err, errors.ErrSandbox, "sandbox.dropCapabilities")
		}
	}
	return nil
}
