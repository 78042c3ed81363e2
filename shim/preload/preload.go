// Command preload is the cgo bridge that turns errtracer/shim's pure-Go
// dispatch logic into libc-callable symbols. It is built as a C shared
// library (-buildmode=c-shared), not run as a Go binary; main exists only
// because cgo requires package main to have one.
//
// The //export functions below are the only things this file contributes:
// a thin, C-ABI-friendly wrapper around shim.Dispatch/Complete/Errno. The
// actual libc symbol overrides (read, write, open, ...) are hand-written C
// in trampolines.c, next to this file, which call these exports and then
// dlsym(RTLD_NEXT, ...) the real implementation themselves — cgo cannot
// export a Go function under an arbitrary existing libc name, and C is a
// better fit for the varargs/pointer-heavy libc signatures than a cgo
// export boundary would be.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"strings"

	"errtracer/shim"
)

func main() {}

// callTable hands out int64 handles for in-flight Call values, since cgo
// exports can't return a Go struct by value across the C boundary. A call
// is registered at dispatch time and consumed exactly once by the matching
// Complete call, mirroring the original's one-shot TInMsg lifetime.
var callTable = shim.NewCallTable()

// paramSep joins a wrapped function's parameter strings into one C string,
// since cgo export signatures can't carry a C-style argv/argc pair
// cleanly. The original's own wire format never embeds this byte in a
// parameter (paths and formatted numbers only), so a single separator is
// sufficient.
const paramSep = "\x1f"

//export ErrtracerDispatch
func ErrtracerDispatch(fnName *C.char, paramsJoined *C.char, variantOut *C.int) C.longlong {
	name := C.GoString(fnName)
	var params []string
	if joined := C.GoString(paramsJoined); joined != "" {
		params = strings.Split(joined, paramSep)
	}

	call, variant, err := shim.Dispatch(name, params)
	if err != nil {
		// Connection trouble: behave as if untracked rather than aborting
		// the wrapped call, matching initFunction's "no info, call through
		// normally" fallback on a malformed/absent response.
		*variantOut = 0
		return -1
	}
	*variantOut = C.int(variant)
	return C.longlong(callTable.Put(call))
}

//export ErrtracerComplete
func ErrtracerComplete(handle C.longlong, returnVal C.longlong) {
	call, ok := callTable.Take(int64(handle))
	if !ok {
		return
	}
	shim.Complete(call, int64(returnVal))
}

//export ErrtracerErrno
func ErrtracerErrno(variantCode C.int) C.int {
	val, ok := shim.Errno(int(variantCode))
	if !ok {
		return 0
	}
	return C.int(val)
}
