// Package protocol implements the line-oriented wire codec the tracer and
// the interception shim speak over their Unix domain socket connection.
//
// Records are terminated by "\r\n\r\n"; fields within a record by "\r\n".
// There are six message types: INIT, OPTION, NOTIFY, CONTROL, EXEC, ACK,
// RETURN (seven counting the type itself plus an UNDEF sentinel used only
// before a message is parsed).
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Type identifies a message kind on the wire.
type Type int

const (
	Undef Type = iota
	Init
	Option
	Control
	Notify
	Exec
	Ack
	Return
)

var typeNames = map[Type]string{
	Init: "INIT", Option: "OPTION", Control: "CONTROL", Notify: "NOTIFY",
	Exec: "EXEC", Ack: "ACK", Return: "RETURN", Undef: "UNDEF",
}

var namesToType = map[string]Type{
	"INIT": Init, "OPTION": Option, "CONTROL": Control, "NOTIFY": Notify,
	"EXEC": Exec, "ACK": Ack, "RETURN": Return, "UNDEF": Undef,
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNDEF"
}

const (
	fieldSep  = "\r\n"
	recordSep = "\r\n\r\n"
)

// ListKind names how a configured function list was specified:
// every cataloged/controllable function (All), none (None), or an
// explicit name list (Include).
type ListKind int

const (
	ListAll ListKind = iota
	ListNone
	ListInclude
)

var listKindNames = map[ListKind]string{
	ListAll: "ALL", ListNone: "NONE", ListInclude: "INCLUDE",
}

var namesToListKind = map[string]ListKind{
	"ALL": ListAll, "NONE": ListNone, "INCLUDE": ListInclude,
}

func (k ListKind) String() string { return listKindNames[k] }

// Inbound is a message received from the shim: INIT (no fields), NOTIFY or
// CONTROL (function name plus parameter strings), or RETURN (a single
// return-value string).
type Inbound struct {
	Type       Type
	Function   string
	Params     []string
	ReturnVal  string
}

// ParseInbound parses one complete record (without the trailing record
// separator) received from the shim.
func ParseInbound(record string) (*Inbound, error) {
	lines := strings.Split(record, fieldSep)
	if len(lines) == 0 || lines[0] == "" {
		return nil, fmt.Errorf("protocol: empty message")
	}
	typ, ok := namesToType[lines[0]]
	if !ok {
		return nil, fmt.Errorf("protocol: unknown message type %q", lines[0])
	}
	msg := &Inbound{Type: typ}
	switch typ {
	case Init, Ack:
		// no body
	case Notify, Control:
		if len(lines) < 2 {
			return nil, fmt.Errorf("protocol: %s missing function name", typ)
		}
		msg.Function = lines[1]
		for _, p := range lines[2:] {
			if p == "" {
				continue
			}
			msg.Params = append(msg.Params, p)
		}
	case Return:
		if len(lines) < 2 {
			return nil, fmt.Errorf("protocol: RETURN missing value")
		}
		msg.ReturnVal = lines[1]
	default:
		return nil, fmt.Errorf("protocol: unexpected inbound type %s", typ)
	}
	return msg, nil
}

// Outbound is a message sent to the shim: OPTION (the notify/control
// configuration), EXEC (a function plus the variant code to apply), or ACK.
// The shim composes the mirror image of this struct — NOTIFY/CONTROL (a
// call in progress) and RETURN (its result) — reusing the same fields,
// since both ends of the socket ultimately describe "a function, its
// parameters or return value, and sometimes a variant code".
type Outbound struct {
	Type         Type
	NotifyKind   ListKind
	NotifyNames  []string
	ControlKind  ListKind
	ControlNames []string
	Function     string
	Params       []string
	Variant      int
	ReturnVal    string
}

// Compose serializes an Outbound message into wire form, including the
// trailing record separator.
func (m *Outbound) Compose() string {
	var b strings.Builder
	switch m.Type {
	case Option:
		b.WriteString("OPTION" + fieldSep)
		b.WriteString("NOTIFICATION" + fieldSep)
		b.WriteString(m.NotifyKind.String() + fieldSep)
		for _, n := range m.NotifyNames {
			b.WriteString(n + fieldSep)
		}
		b.WriteString("CONTROL" + fieldSep)
		b.WriteString(m.ControlKind.String() + fieldSep)
		for _, n := range m.ControlNames {
			b.WriteString(n + fieldSep)
		}
	case Exec:
		b.WriteString("EXEC" + fieldSep)
		b.WriteString(m.Function + fieldSep)
		b.WriteString(strconv.Itoa(m.Variant) + fieldSep)
	case Notify, Control:
		b.WriteString(m.Type.String() + fieldSep)
		b.WriteString(m.Function + fieldSep)
		for _, p := range m.Params {
			b.WriteString(p + fieldSep)
		}
	case Return:
		b.WriteString("RETURN" + fieldSep)
		b.WriteString(m.ReturnVal + fieldSep)
	default:
		b.WriteString(m.Type.String() + fieldSep)
	}
	b.WriteString(fieldSep)
	return b.String()
}

// ParseFromController parses one complete record (without the trailing
// record separator) sent by the controller to the shim: OPTION, EXEC, or
// ACK. This is the shim side's counterpart to ParseInbound.
func ParseFromController(record string) (*Outbound, error) {
	lines := strings.Split(record, fieldSep)
	if len(lines) == 0 || lines[0] == "" {
		return nil, fmt.Errorf("protocol: empty message")
	}
	typ, ok := namesToType[lines[0]]
	if !ok {
		return nil, fmt.Errorf("protocol: unknown message type %q", lines[0])
	}
	msg := &Outbound{Type: typ}
	switch typ {
	case Ack:
		// no body
	case Exec:
		if len(lines) < 3 {
			return nil, fmt.Errorf("protocol: EXEC missing function/variant")
		}
		msg.Function = lines[1]
		variant, err := strconv.Atoi(lines[2])
		if err != nil {
			return nil, fmt.Errorf("protocol: EXEC invalid variant %q: %w", lines[2], err)
		}
		msg.Variant = variant
	case Option:
		if len(lines) < 4 || lines[1] != "NOTIFICATION" {
			return nil, fmt.Errorf("protocol: malformed OPTION message")
		}
		idx := 2
		notifyKind, ok := namesToListKind[lines[idx]]
		if !ok {
			return nil, fmt.Errorf("protocol: unknown notification kind %q", lines[idx])
		}
		idx++
		var notifyNames []string
		if notifyKind == ListInclude {
			for idx < len(lines) && lines[idx] != "CONTROL" {
				if lines[idx] != "" {
					notifyNames = append(notifyNames, lines[idx])
				}
				idx++
			}
		}
		if idx >= len(lines) || lines[idx] != "CONTROL" {
			return nil, fmt.Errorf("protocol: OPTION message missing CONTROL marker")
		}
		idx++
		if idx >= len(lines) {
			return nil, fmt.Errorf("protocol: OPTION message missing control kind")
		}
		controlKind, ok := namesToListKind[lines[idx]]
		if !ok {
			return nil, fmt.Errorf("protocol: unknown control kind %q", lines[idx])
		}
		idx++
		var controlNames []string
		if controlKind == ListInclude {
			for ; idx < len(lines); idx++ {
				if lines[idx] != "" {
					controlNames = append(controlNames, lines[idx])
				}
			}
		}
		msg.NotifyKind = notifyKind
		msg.NotifyNames = notifyNames
		msg.ControlKind = controlKind
		msg.ControlNames = controlNames
	default:
		return nil, fmt.Errorf("protocol: unexpected message from controller %s", typ)
	}
	return msg, nil
}

// NewInit returns the INIT message, sent once when the shim first
// connects to the welcome socket.
func NewInit() *Outbound { return &Outbound{Type: Init} }

// NewReturn returns the RETURN message reporting a completed call's
// result.
func NewReturn(returnVal string) *Outbound { return &Outbound{Type: Return, ReturnVal: returnVal} }

// NewCall returns a NOTIFY or CONTROL message describing one intercepted
// call, depending on tracked's classification.
func NewCall(tracked Type, function string, params []string) *Outbound {
	return &Outbound{Type: tracked, Function: function, Params: params}
}

// NewAck returns the ACK message, sent both in reply to NOTIFY and as the
// final acknowledgement of a RETURN.
func NewAck() *Outbound { return &Outbound{Type: Ack} }

// NewExec returns the EXEC message naming the variant to apply to fn.
// variant 0 means "no injected error, call through normally".
func NewExec(fn string, variant int) *Outbound {
	return &Outbound{Type: Exec, Function: fn, Variant: variant}
}
