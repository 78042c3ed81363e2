package protocol

import "testing"

func TestParseInboundControl(t *testing.T) {
	record := "CONTROL\r\nopen\r\nx\r\n0\r\n"
	msg, err := ParseInbound(record)
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if msg.Type != Control || msg.Function != "open" {
		t.Fatalf("got %+v", msg)
	}
	if len(msg.Params) != 2 || msg.Params[0] != "x" || msg.Params[1] != "0" {
		t.Fatalf("params = %v", msg.Params)
	}
}

func TestParseInboundReturn(t *testing.T) {
	msg, err := ParseInbound("RETURN\r\n-1\r\n")
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if msg.Type != Return || msg.ReturnVal != "-1" {
		t.Fatalf("got %+v", msg)
	}
}

func TestParseInboundInit(t *testing.T) {
	msg, err := ParseInbound("INIT\r\n")
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if msg.Type != Init {
		t.Fatalf("got %+v", msg)
	}
}

func TestParseInboundUnknownType(t *testing.T) {
	if _, err := ParseInbound("BOGUS\r\n"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestComposeOption(t *testing.T) {
	m := &Outbound{
		Type:         Option,
		NotifyKind:   ListInclude,
		NotifyNames:  []string{"read", "write"},
		ControlKind:  ListAll,
		ControlNames: nil,
	}
	got := m.Compose()
	want := "OPTION\r\nNOTIFICATION\r\nINCLUDE\r\nread\r\nwrite\r\nCONTROL\r\nALL\r\n\r\n"
	if got != want {
		t.Fatalf("Compose() =\n%q\nwant\n%q", got, want)
	}
}

func TestComposeExec(t *testing.T) {
	got := NewExec("open", 61).Compose()
	want := "EXEC\r\nopen\r\n61\r\n\r\n"
	if got != want {
		t.Fatalf("Compose() = %q, want %q", got, want)
	}
}

func TestComposeAck(t *testing.T) {
	got := NewAck().Compose()
	want := "ACK\r\n\r\n"
	if got != want {
		t.Fatalf("Compose() = %q, want %q", got, want)
	}
}

func TestComposeCallAndReturn(t *testing.T) {
	got := NewCall(Control, "open", []string{"x", "0"}).Compose()
	want := "CONTROL\r\nopen\r\nx\r\n0\r\n\r\n"
	if got != want {
		t.Fatalf("Compose() = %q, want %q", got, want)
	}

	got = NewReturn("-1").Compose()
	want = "RETURN\r\n-1\r\n\r\n"
	if got != want {
		t.Fatalf("Compose() = %q, want %q", got, want)
	}

	got = NewInit().Compose()
	want = "INIT\r\n\r\n"
	if got != want {
		t.Fatalf("Compose() = %q, want %q", got, want)
	}
}

func TestParseFromControllerOption(t *testing.T) {
	composed := (&Outbound{
		Type: Option, NotifyKind: ListAll,
		ControlKind: ListInclude, ControlNames: []string{"open", "read"},
	}).Compose()
	msg, err := ParseFromController(trimRecordSep(composed))
	if err != nil {
		t.Fatalf("ParseFromController: %v", err)
	}
	if msg.NotifyKind != ListAll {
		t.Fatalf("NotifyKind = %v, want ListAll", msg.NotifyKind)
	}
	if msg.ControlKind != ListInclude || len(msg.ControlNames) != 2 {
		t.Fatalf("ControlKind/Names = %v %v", msg.ControlKind, msg.ControlNames)
	}
}

func TestParseFromControllerExec(t *testing.T) {
	msg, err := ParseFromController(trimRecordSep(NewExec("read", 20).Compose()))
	if err != nil {
		t.Fatalf("ParseFromController: %v", err)
	}
	if msg.Type != Exec || msg.Function != "read" || msg.Variant != 20 {
		t.Fatalf("got %+v", msg)
	}
}

func TestParseFromControllerAck(t *testing.T) {
	msg, err := ParseFromController(trimRecordSep(NewAck().Compose()))
	if err != nil {
		t.Fatalf("ParseFromController: %v", err)
	}
	if msg.Type != Ack {
		t.Fatalf("got %+v", msg)
	}
}

// trimRecordSep strips the trailing "\r\n\r\n" a Compose() call appends,
// matching how a Reader hands a complete record to the parser.
func trimRecordSep(composed string) string {
	return composed[:len(composed)-len(recordSep)]
}
