// Package errors provides predefined sentinel errors for common failure cases.
package errors

// Configuration errors.
var (
	// ErrAcceptTimeout indicates the welcome socket's accept deadline
	// elapsed with no connection from the target.
	ErrAcceptTimeout = &HarnessError{
		Run: -1, Kind: ErrConfiguration,
		Detail: "program calls none of the selected functions",
	}

	// ErrUnknownFunction indicates a configured function name is not in
	// the catalog.
	ErrUnknownFunction = &HarnessError{
		Run: -1, Kind: ErrConfiguration,
		Detail: "unknown function name",
	}

	// ErrNotControllable indicates a configured control function exists
	// in the catalog but cannot have variants injected into it.
	ErrNotControllable = &HarnessError{
		Run: -1, Kind: ErrConfiguration,
		Detail: "function is not controllable",
	}

	// ErrInvalidGroup indicates a configured variant group name is
	// unrecognized.
	ErrInvalidGroup = &HarnessError{
		Run: -1, Kind: ErrConfiguration,
		Detail: "invalid variant group",
	}

	// ErrInvalidSubroutine indicates a non-positive subroutine size was
	// configured for jump detection.
	ErrInvalidSubroutine = &HarnessError{
		Run: -1, Kind: ErrConfiguration,
		Detail: "subroutine size must be positive",
	}

	// ErrProgramNotExecutable indicates the configured target path is not
	// an executable file.
	ErrProgramNotExecutable = &HarnessError{
		Run: -1, Kind: ErrConfiguration,
		Detail: "program is not executable",
	}

	// ErrDestinationUnopenable indicates the output destination file
	// could not be opened for writing.
	ErrDestinationUnopenable = &HarnessError{
		Run: -1, Kind: ErrConfiguration,
		Detail: "destination file could not be opened",
	}
)

// Protocol errors.
var (
	// ErrUnexpectedInit indicates an INIT message was expected but not
	// received as the first message on a new connection.
	ErrUnexpectedInit = &HarnessError{
		Run: -1, Kind: ErrProtocol,
		Detail: "INIT not received",
	}

	// ErrUnexpectedMessage indicates a message of an unexpected type
	// arrived for the harness's current protocol state.
	ErrUnexpectedMessage = &HarnessError{
		Run: -1, Kind: ErrProtocol,
		Detail: "unexpected message type",
	}
)

// Socket / transient errors.
var (
	// ErrPeerClosed indicates the shim closed its connection; this ends
	// the run being traced but is not itself a failure.
	ErrPeerClosed = &HarnessError{
		Run: -1, Kind: ErrTransient,
		Detail: "peer closed the connection",
	}

	// ErrInvalidSocketPath indicates the configured welcome socket path
	// exists but is not a socket.
	ErrInvalidSocketPath = &HarnessError{
		Run: -1, Kind: ErrSocket,
		Detail: "invalid socket path",
	}
)

// Sandbox errors.
var (
	// ErrSandboxSetup indicates namespace/cgroup/seccomp preparation for
	// an isolated run failed.
	ErrSandboxSetup = &HarnessError{
		Run: -1, Kind: ErrSandbox,
		Detail: "failed to set up sandbox",
	}
)
