// Package errors provides typed error handling for the analysis harness.
//
// This package defines domain-specific error types that enable better error
// classification, debugging, and user feedback. All errors support the standard
// errors.Is() and errors.As() functions for error inspection.
package errors

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrConfiguration indicates a bad option, unknown function, invalid
	// subroutine size, unexecutable program, or an accept timeout with no
	// tracked calls ever observed.
	ErrConfiguration ErrorKind = iota
	// ErrProtocol indicates a message on the wire violated the expected
	// type sequence.
	ErrProtocol
	// ErrSocket indicates a bind/listen/accept/send/recv failure that is
	// not a clean peer close.
	ErrSocket
	// ErrTransient indicates the peer closed its socket once it had no
	// more tracked calls pending — end of run, not failure.
	ErrTransient
	// ErrSandbox indicates a namespace/cgroup/seccomp setup failure when
	// per-run isolation is enabled.
	ErrSandbox
	// ErrInternal indicates an internal error that should not be
	// reachable given the above.
	ErrInternal
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrConfiguration:
		return "configuration error"
	case ErrProtocol:
		return "protocol error"
	case ErrSocket:
		return "socket error"
	case ErrTransient:
		return "transient"
	case ErrSandbox:
		return "sandbox error"
	case ErrInternal:
		return "internal error"
	default:
		return "unknown error"
	}
}

// HarnessError represents an error that occurred during an analysis session.
type HarnessError struct {
	// Op is the operation that failed (e.g., "accept", "configure", "exec").
	Op string
	// Run is the run number the error occurred in, if applicable (-1 if
	// not associated with a specific run).
	Run int
	// Err is the underlying error.
	Err error
	// Kind is the error classification.
	Kind ErrorKind
	// Detail provides additional context about the error.
	Detail string
}

// Error returns the error message.
func (e *HarnessError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var msg string
	if e.Run >= 0 {
		msg = fmt.Sprintf("run %d: ", e.Run)
	}
	if e.Op != "" {
		msg += fmt.Sprintf("%s: ", e.Op)
	}
	if e.Detail != "" {
		msg += e.Detail
	} else {
		msg += e.Kind.String()
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *HarnessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether the error matches the target.
// It matches if the target is a *HarnessError with the same Kind,
// or if the underlying error matches.
func (e *HarnessError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if t, ok := target.(*HarnessError); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a new HarnessError with the given kind, not tied to a run.
func New(kind ErrorKind, op string, detail string) *HarnessError {
	return &HarnessError{
		Op:     op,
		Run:    -1,
		Kind:   kind,
		Detail: detail,
	}
}

// Wrap wraps an error with harness context.
func Wrap(err error, kind ErrorKind, op string) *HarnessError {
	return &HarnessError{
		Op:   op,
		Run:  -1,
		Err:  err,
		Kind: kind,
	}
}

// WrapWithRun wraps an error with harness context and a run number.
func WrapWithRun(err error, kind ErrorKind, op string, run int) *HarnessError {
	return &HarnessError{
		Op:   op,
		Run:  run,
		Err:  err,
		Kind: kind,
	}
}

// WrapWithDetail wraps an error with additional detail.
func WrapWithDetail(err error, kind ErrorKind, op string, detail string) *HarnessError {
	return &HarnessError{
		Op:     op,
		Run:    -1,
		Err:    err,
		Kind:   kind,
		Detail: detail,
	}
}

// IsKind checks if an error is of a specific kind.
func IsKind(err error, kind ErrorKind) bool {
	var herr *HarnessError
	if errors.As(err, &herr) {
		return herr.Kind == kind
	}
	return false
}

// GetKind returns the error kind if the error is a HarnessError.
func GetKind(err error) (ErrorKind, bool) {
	var herr *HarnessError
	if errors.As(err, &herr) {
		return herr.Kind, true
	}
	return 0, false
}

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)
