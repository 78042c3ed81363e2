package tracer

import (
	"net"
	"testing"

	"errtracer/call"
	"errtracer/protocol"
)

// fakeDispatcher records every call it sees and always answers CONTROL
// with a no-op EXEC (variant 0) and NOTIFY with ACK.
type fakeDispatcher struct {
	controlled []string
	notified   []string
}

func (d *fakeDispatcher) ControlCall(c *call.Call, run *call.Run, callNum int) *protocol.Outbound {
	d.controlled = append(d.controlled, c.Name)
	return protocol.NewExec(c.Name, 0)
}

func (d *fakeDispatcher) NotifyCall(c *call.Call, callNum int) *protocol.Outbound {
	d.notified = append(d.notified, c.Name)
	return protocol.NewAck()
}

// shimCall describes one NOTIFY/CONTROL message the fake shim sends.
type shimCall struct {
	msgType string
	fn      string
	params  []string
}

// shimSide plays the role of the interception shim on the other end of
// the pipe: it sends INIT, reads OPTION, then for each call sends
// NOTIFY/CONTROL, reads the response, sends RETURN, reads ACK, and
// finally closes its end.
func shimSide(t *testing.T, conn net.Conn, calls []shimCall) {
	t.Helper()
	reader := protocol.NewReader(conn)

	write := func(record string) {
		if _, err := conn.Write([]byte(record)); err != nil {
			t.Errorf("shim write: %v", err)
		}
	}

	write((&protocol.Outbound{Type: protocol.Init}).Compose())
	if _, err := reader.ReadRecord(); err != nil {
		t.Errorf("shim read OPTION: %v", err)
		return
	}

	for _, c := range calls {
		body := c.msgType + "\r\n" + c.fn + "\r\n"
		for _, p := range c.params {
			body += p + "\r\n"
		}
		body += "\r\n"
		write(body)

		if _, err := reader.ReadRecord(); err != nil {
			t.Errorf("shim read response: %v", err)
			return
		}

		write("RETURN\r\n0\r\n\r\n")
		if _, err := reader.ReadRecord(); err != nil {
			t.Errorf("shim read ack: %v", err)
			return
		}
	}

	conn.Close()
}

func TestTraceDispatchesControlAndNotify(t *testing.T) {
	serverConn, shimConn := net.Pipe()
	defer serverConn.Close()

	calls := []shimCall{
		{msgType: "CONTROL", fn: "open", params: []string{"a"}},
		{msgType: "NOTIFY", fn: "close", params: []string{"0"}},
	}

	go shimSide(t, shimConn, calls)

	sock := newTestSocket(serverConn)
	option := &protocol.Outbound{Type: protocol.Option, NotifyKind: protocol.ListAll, ControlKind: protocol.ListNone}
	if err := Handshake(sock, option); err != nil {
		t.Fatalf("Handshake() error = %v", err)
	}

	d := &fakeDispatcher{}
	run, err := Trace(sock, d)
	if err != nil {
		t.Fatalf("Trace() error = %v", err)
	}

	if run.Len() != 2 {
		t.Fatalf("run.Len() = %d, want 2", run.Len())
	}
	if len(d.controlled) != 1 || d.controlled[0] != "open" {
		t.Fatalf("controlled = %v, want [open]", d.controlled)
	}
	if len(d.notified) != 1 || d.notified[0] != "close" {
		t.Fatalf("notified = %v, want [close]", d.notified)
	}
	if run.Calls[0].ReturnVal != "0" {
		t.Fatalf("first call ReturnVal = %q, want %q", run.Calls[0].ReturnVal, "0")
	}
}

func TestTraceEndsOnPeerClose(t *testing.T) {
	serverConn, shimConn := net.Pipe()
	defer serverConn.Close()

	go shimSide(t, shimConn, nil)

	sock := newTestSocket(serverConn)
	option := &protocol.Outbound{Type: protocol.Option, NotifyKind: protocol.ListNone, ControlKind: protocol.ListNone}
	if err := Handshake(sock, option); err != nil {
		t.Fatalf("Handshake() error = %v", err)
	}

	run, err := Trace(sock, &fakeDispatcher{})
	if err != nil {
		t.Fatalf("Trace() error = %v", err)
	}
	if run.Len() != 0 {
		t.Fatalf("run.Len() = %d, want 0", run.Len())
	}
}
