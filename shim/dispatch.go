// Package shim implements the interception side of the wire protocol: the
// state a preloaded library keeps once dlopen'd into a traced target,
// mirroring lib_filesystem.c's socketConnection/initFunction/sendReturnMsg
// trio but expressed as ordinary Go plumbing over net.Dial/net.Conn rather
// than raw libc sockets, and reusing the errtracer/protocol package both
// sides of the connection already share.
//
// This package holds no exported libc-callable symbols itself and no cgo —
// those live in shim/preload, a cgo "package main" built with
// -buildmode=c-shared that calls back into the exported functions below.
// Keeping this package cgo-free means it stays unit-testable with a plain
// go test invocation.
package shim

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"errtracer/catalog"
	"errtracer/protocol"
)

// track classifies how an intercepted call should be reported, mirroring
// lib_filesystem.c's funList entries (0/1/2).
type track int

const (
	trackNone track = iota
	trackNotify
	trackControl
)

// session holds the single, lazily-established connection to the welcome
// socket and the per-function tracking classification learned from the
// OPTION handshake. There is exactly one of these per process, matching
// the original's single global socketFd.
type session struct {
	mu    sync.Mutex
	conn  net.Conn
	recv  *protocol.Reader
	funcs [catalog.NumFunctions]track
}

var global session

// socketPathEnv names the environment variable the launcher sets to tell
// the shim which welcome socket to dial, matching tracer.SocketPathEnv.
const socketPathEnv = "ERRTRACER_SOCKET"

// connect lazily dials the welcome socket and completes the INIT/OPTION
// handshake, matching socketConnection()'s "only connect once" guard.
func (s *session) connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil
	}

	path := os.Getenv(socketPathEnv)
	if path == "" {
		return fmt.Errorf("shim: %s not set", socketPathEnv)
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return fmt.Errorf("shim: connect: %w", err)
	}

	if _, err := conn.Write([]byte(protocol.NewInit().Compose())); err != nil {
		conn.Close()
		return fmt.Errorf("shim: send INIT: %w", err)
	}

	reader := protocol.NewReader(conn)
	record, err := reader.ReadRecord()
	if err != nil {
		conn.Close()
		return fmt.Errorf("shim: recv OPTION: %w", err)
	}
	option, err := protocol.ParseFromController(record)
	if err != nil || option.Type != protocol.Option {
		conn.Close()
		return fmt.Errorf("shim: malformed OPTION message")
	}

	s.conn = conn
	s.recv = reader
	s.applyOption(option)
	return nil
}

// applyOption sets funcs from a parsed OPTION message: NOTIFY assignment
// happens first, then CONTROL overwrites it for any function in both
// lists, matching parseOptionMsg's funList[i]=1 then funList[i]=2 order.
func (s *session) applyOption(option *protocol.Outbound) {
	for i := range s.funcs {
		s.funcs[i] = trackNone
	}
	assign := func(kind protocol.ListKind, names []string, mark track, limit int) {
		switch kind {
		case protocol.ListAll:
			for i := 0; i < limit; i++ {
				s.funcs[i] = mark
			}
		case protocol.ListInclude:
			for _, name := range names {
				if f, ok := catalog.Lookup(name); ok {
					s.funcs[f] = mark
				}
			}
		}
	}
	assign(option.NotifyKind, option.NotifyNames, trackNotify, catalog.NumFunctions)
	assign(option.ControlKind, option.ControlNames, trackControl, catalog.NumControllable)
}

// dispatch mirrors initFunction(): if fn is untracked, it returns
// (trackNone, 0, nil) without touching the socket. Otherwise it sends a
// NOTIFY or CONTROL record describing the call and returns the variant to
// apply (0 meaning "no injected error, call through normally").
func dispatch(fn catalog.Function, params []string) (track, int, error) {
	if err := global.connect(); err != nil {
		return trackNone, 0, err
	}

	global.mu.Lock()
	mark := global.funcs[fn]
	conn := global.conn
	reader := global.recv
	global.mu.Unlock()

	if mark == trackNone {
		return trackNone, 0, nil
	}

	msgType := protocol.Notify
	if mark == trackControl {
		msgType = protocol.Control
	}
	call := protocol.NewCall(msgType, catalog.Name(fn), params)
	if _, err := conn.Write([]byte(call.Compose())); err != nil {
		return trackNone, 0, fmt.Errorf("shim: send %s: %w", msgType, err)
	}

	record, err := reader.ReadRecord()
	if err != nil {
		return trackNone, 0, fmt.Errorf("shim: recv response: %w", err)
	}
	resp, err := protocol.ParseFromController(record)
	if err != nil {
		return trackNone, 0, fmt.Errorf("shim: parse response: %w", err)
	}
	if resp.Type != protocol.Exec || resp.Function != catalog.Name(fn) {
		// ACK (always sent for NOTIFY) or a mismatched EXEC: treat as
		// "no injected error", matching initFunction's NULL-return path.
		return mark, 0, nil
	}
	return mark, resp.Variant, nil
}

// complete sends the call's return value and waits for the controller's
// ACK, mirroring sendReturnMsg(). A no-op if the call was never tracked.
func complete(mark track, returnVal string) {
	if mark == trackNone {
		return
	}
	global.mu.Lock()
	conn := global.conn
	reader := global.recv
	global.mu.Unlock()
	if conn == nil {
		return
	}
	if _, err := conn.Write([]byte(protocol.NewReturn(returnVal).Compose())); err != nil {
		return
	}
	reader.ReadRecord()
}

// formatReturn renders an integral return value the way the original's
// sprintf("%zd", ...) does: a bare decimal string.
func formatReturn(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Call is the opaque handle a Dispatch caller passes back to Complete. It
// wraps the tracking classification learned at dispatch time so Complete
// doesn't need to look the function up in the catalog a second time.
type Call struct {
	mark track
}

// Dispatch is the exported entry point a wrapped libc function calls before
// doing its real work: it reports the call to the controller if fn is
// tracked, and returns the variant to apply (0 for "call through
// normally"). fn must be a name catalog.Lookup recognizes; an unrecognized
// name is treated as untracked rather than an error, since a preload
// library may be loaded into a process invoking libc functions outside the
// fixed 45-entry catalog.
func Dispatch(fn string, params []string) (Call, int, error) {
	f, ok := catalog.Lookup(fn)
	if !ok {
		return Call{mark: trackNone}, 0, nil
	}
	mark, variant, err := dispatch(f, params)
	return Call{mark: mark}, variant, err
}

// Complete reports a finished call's integral return value, matching the
// original's sprintf("%zd", returnVal) formatting. A no-op for a Call
// Dispatch reported as untracked.
func Complete(call Call, returnVal int64) {
	complete(call.mark, formatReturn(returnVal))
}

// Errno returns the numeric errno value a variant code maps to, and
// whether the code was recognized. The preload trampolines assign this
// directly to C's errno global before returning -1.
func Errno(variantCode int) (int, bool) {
	name, ok := catalog.ErrnoName(variantCode)
	if !ok {
		return 0, false
	}
	val, ok := errnoValues[name]
	return val, ok
}
