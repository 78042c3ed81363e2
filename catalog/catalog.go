// Package catalog holds the fixed table of interceptable libc entry points:
// their identity, their classification (controllable / notify-only), the
// parameter index canonicalization uses in "base_param" mode, and the
// variant groups applicable to each controllable function.
//
// Everything here is data, not behavior, matching how the analyzer this
// harness is modeled on keeps its function/variant tables as static maps
// indexed by a function identifier enum rather than scattering them across
// code paths.
package catalog

// Function identifies one of the 45 libc entry points the harness knows
// about. Order matches the numbering the shim and the harness agree on over
// the wire (the wire protocol carries function names, not these ordinals,
// but the ordinals are the stable Go-side identity used for table lookups).
type Function int

const (
	Read Function = iota
	Write
	Open
	Open64
	Close
	Lseek
	Creat
	Creat64
	Link
	Symlink
	Unlink
	Stat
	Lstat
	Fstat
	Access
	Chmod
	Fchmod
	Flock
	Opendir
	Readdir
	Closedir
	Mkdir
	Rmdir
	Fsync

	Mmap
	Munmap
	Mlock
	Munlock
	Mlockall
	Munlockall
	Brk
	Select
	Poll
	Dup
	Dup2
	Shmget
	Chown
	Fchown
	Lchown
	Mount
	Umount
	Umount2
	Umask
	Rewinddir
	Sync

	numFunctions
)

var functionNames = [numFunctions]string{
	Read: "read", Write: "write", Open: "open", Open64: "open64",
	Close: "close", Lseek: "lseek", Creat: "creat", Creat64: "creat64",
	Link: "link", Symlink: "symlink", Unlink: "unlink", Stat: "stat",
	Lstat: "lstat", Fstat: "fstat", Access: "access", Chmod: "chmod",
	Fchmod: "fchmod", Flock: "flock", Opendir: "opendir", Readdir: "readdir",
	Closedir: "closedir", Mkdir: "mkdir", Rmdir: "rmdir", Fsync: "fsync",
	Mmap: "mmap", Munmap: "munmap", Mlock: "mlock", Munlock: "munlock",
	Mlockall: "mlockall", Munlockall: "munlockall", Brk: "brk",
	Select: "select", Poll: "poll", Dup: "dup", Dup2: "dup2",
	Shmget: "shmget", Chown: "chown", Fchown: "fchown", Lchown: "lchown",
	Mount: "mount", Umount: "umount", Umount2: "umount2", Umask: "umask",
	Rewinddir: "rewinddir", Sync: "sync",
}

var functionsByName map[string]Function

func init() {
	functionsByName = make(map[string]Function, numFunctions)
	for f, name := range functionNames {
		functionsByName[name] = Function(f)
	}
}

// String returns the wire/configuration name of the function.
func (f Function) String() string {
	if f < 0 || int(f) >= len(functionNames) {
		return "unknown"
	}
	return functionNames[f]
}

// Lookup resolves a function by its libc name. The ok result is false for
// any name outside the fixed catalog.
func Lookup(name string) (Function, bool) {
	f, ok := functionsByName[name]
	return f, ok
}

// Exists reports whether name is a cataloged function.
func Exists(name string) bool {
	_, ok := functionsByName[name]
	return ok
}

// NumFunctions is the size of the full catalog (45 entries).
const NumFunctions = int(numFunctions)

// Name returns the wire/configuration name of f, equivalent to f.String().
func Name(f Function) string { return f.String() }

// controllableFunctions is the subset of the catalog the scheduler may
// inject an error into. Order matches original_source's controlFunctions.
var controllableFunctions = []Function{
	Read, Write, Open, Open64, Close, Lseek, Creat, Creat64, Link, Symlink,
	Unlink, Stat, Lstat, Fstat, Access, Chmod, Fchmod, Flock, Opendir,
	Readdir, Closedir, Mkdir, Rmdir, Fsync,
}

var controllableSet map[Function]bool

func init() {
	controllableSet = make(map[Function]bool, len(controllableFunctions))
	for _, f := range controllableFunctions {
		controllableSet[f] = true
	}
}

// IsControllable reports whether name names a function the control list may
// name (the 24-function controllable subset).
func IsControllable(name string) bool {
	f, ok := Lookup(name)
	return ok && controllableSet[f]
}

// Controllable returns the ordered list of controllable functions.
func Controllable() []Function {
	out := make([]Function, len(controllableFunctions))
	copy(out, controllableFunctions)
	return out
}

// NumControllable is the size of the controllable subset (24 entries).
var NumControllable = len(controllableFunctions)

// BaseParamIndex returns the parameter index canonicalization should use in
// "base_param" mode, and whether this function has one at all (readdir and
// closedir have none in the original table and canonicalize to an empty
// parameter list).
func BaseParamIndex(f Function) (int, bool) {
	idx, ok := baseParamIndex[f]
	return idx, ok
}

var baseParamIndex = map[Function]int{
	Read: 0, Write: 0, Open: 0, Open64: 0, Close: 0, Lseek: 0, Creat: 0,
	Creat64: 0, Link: 1, Symlink: 1, Unlink: 0, Stat: 0, Lstat: 0, Fstat: 0,
	Access: 0, Chmod: 0, Fchmod: 0, Flock: 0, Opendir: 0, Mkdir: 0, Rmdir: 0,
	Fsync: 0, Mmap: 1, Munmap: 1, Mlock: 1, Munlock: 1, Mlockall: 0, Dup: 0,
	Dup2: 0, Shmget: 1, Chown: 0, Fchown: 0, Lchown: 0, Mount: 0, Umount: 0,
	Umount2: 0, Umask: 0,
}
