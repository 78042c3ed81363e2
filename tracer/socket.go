// Package tracer drives one run of the target program: it launches the
// process with the shim preloaded, accepts its connection on the session's
// welcome socket, and exchanges the line-oriented control protocol with
// it until the process exits or closes its end.
//
// Grounded on the original analyzer's Socket class: a single welcome
// socket per session, bound once and reused by every run, accepting with
// a 2-second timeout that is
// itself meaningful (it means the target never called a selected
// function).
package tracer

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"errtracer/errors"
	"errtracer/protocol"
)

// welcomeTimeout is the time the harness waits for the shim to connect
// before concluding the target calls none of the selected functions.
const welcomeTimeout = 2 * time.Second

// Socket is the session's named-socket rendezvous with the shim loaded
// into the target process: one listener, one connected peer per run.
type Socket struct {
	path     string
	listener *net.UnixListener
	conn     net.Conn
	reader   *protocol.Reader
}

// newTestSocket wraps an already-connected net.Conn for tests, bypassing
// the real welcome-socket listen/accept dance.
func newTestSocket(conn net.Conn) *Socket {
	return &Socket{conn: conn, reader: protocol.NewReader(conn)}
}

// Listen creates and binds a fresh welcome socket at path, removing any
// stale socket file left behind by a previous session.
func Listen(path string) (*Socket, error) {
	if err := validatePath(path); err != nil {
		return nil, errors.WrapWithDetail(err, errors.ErrSocket, "listen", err.Error())
	}
	_ = os.Remove(path)

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSocket, "resolve")
	}
	l, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSocket, "listen")
	}
	return &Socket{path: path, listener: l}, nil
}

// validatePath mirrors utils.ValidateSocketPath: a path that doesn't
// exist yet is fine (we're about to create it); a path that exists must
// already be a socket, never an ordinary file left over from something
// else.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("socket path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid socket path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot stat socket path: %w", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("path %q exists but is not a socket", path)
	}
	return nil
}

// Accept waits up to welcomeTimeout for the shim to connect. A timeout
// with no connection is reported as ErrAcceptTimeout, matching the
// original's ConfigurationException("Program calls none of selected
// functions") — it is a configuration problem (the selected functions
// are never reached), not a transport failure.
func (s *Socket) Accept() error {
	if err := s.listener.SetDeadline(time.Now().Add(welcomeTimeout)); err != nil {
		return errors.Wrap(err, errors.ErrSocket, "accept")
	}
	conn, err := s.listener.AcceptUnix()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return errors.ErrAcceptTimeout
		}
		return errors.Wrap(err, errors.ErrSocket, "accept")
	}
	s.conn = conn
	s.reader = protocol.NewReader(conn)
	return nil
}

// Send writes one already-composed wire record (Outbound.Compose's
// result, terminator included) to the client connection.
func (s *Socket) Send(record string) error {
	if _, err := s.conn.Write([]byte(record)); err != nil {
		if isBrokenPipe(err) {
			return errors.ErrPeerClosed
		}
		return errors.Wrap(err, errors.ErrSocket, "send")
	}
	return nil
}

// Recv blocks for the next complete record from the client connection.
// An io.EOF from the underlying stream is reported as ErrPeerClosed,
// matching Socket::recvMsg's SocketClosedException when recv returns 0.
func (s *Socket) Recv() (string, error) {
	record, err := s.reader.ReadRecord()
	if err != nil {
		if err == io.EOF || err == io.ErrClosedPipe {
			return "", errors.ErrPeerClosed
		}
		return "", errors.Wrap(err, errors.ErrSocket, "recv")
	}
	return record, nil
}

func isBrokenPipe(err error) bool {
	if err == io.ErrClosedPipe {
		return true
	}
	var sysErr *os.SyscallError
	if ok := asSyscallError(err, &sysErr); ok {
		return sysErr.Err.Error() == "broken pipe"
	}
	return false
}

func asSyscallError(err error, target **os.SyscallError) bool {
	for err != nil {
		if se, ok := err.(*os.SyscallError); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CloseClient closes the per-connection socket once a run's exchange is
// complete, matching Socket::closeClientSocket.
func (s *Socket) CloseClient() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Close closes the welcome socket and removes its file, matching
// Socket::closeWelcomeSocket.
func (s *Socket) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}
