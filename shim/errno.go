package shim

import "golang.org/x/sys/unix"

// errnoValues maps the symbolic errno names catalog.ErrnoName returns to
// their numeric values, via golang.org/x/sys/unix rather than redeclaring
// the constants — the same package the sandbox layer already uses for its
// syscall-level work.
var errnoValues = map[string]int{
	"EBADF": int(unix.EBADF), "EINVAL": int(unix.EINVAL), "EIO": int(unix.EIO),
	"EACCES": int(unix.EACCES), "EFAULT": int(unix.EFAULT),
	"ENOMEM": int(unix.ENOMEM), "EINTR": int(unix.EINTR),
	"ENAMETOOLONG": int(unix.ENAMETOOLONG), "ENOENT": int(unix.ENOENT),
	"ENOTDIR": int(unix.ENOTDIR), "EDQUOT": int(unix.EDQUOT),
	"EFBIG": int(unix.EFBIG), "ENOSPC": int(unix.ENOSPC),
	"EMFILE": int(unix.EMFILE), "ENFILE": int(unix.ENFILE),
	"EMLINK": int(unix.EMLINK), "EWOULDBLOCK": int(unix.EWOULDBLOCK),
	"EPERM": int(unix.EPERM), "EROFS": int(unix.EROFS),
	"EISDIR": int(unix.EISDIR), "EEXIST": int(unix.EEXIST),
	"ELOOP": int(unix.ELOOP), "ENOTEMPTY": int(unix.ENOTEMPTY),
}
