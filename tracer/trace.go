package tracer

import (
	"errtracer/call"
	"errtracer/catalog"
	"errtracer/errors"
	"errtracer/protocol"
)

// Dispatcher reacts to one CONTROL or NOTIFY message arriving mid-run; it
// is the session's Controller in spec terms. ControlCall schedules the
// call's variant and returns the EXEC response; NotifyCall only observes
// the call and always returns ACK.
type Dispatcher interface {
	ControlCall(c *call.Call, run *call.Run, callNum int) *protocol.Outbound
	NotifyCall(c *call.Call, callNum int) *protocol.Outbound
}

// Handshake performs the INIT/OPTION exchange that opens a connection:
// the shim must send INIT first, and is answered with the OPTION message
// describing which functions this run notifies or controls.
func Handshake(sock *Socket, option *protocol.Outbound) error {
	record, err := sock.Recv()
	if err != nil {
		return err
	}
	msg, err := protocol.ParseInbound(record)
	if err != nil {
		return errors.Wrap(err, errors.ErrProtocol, "handshake")
	}
	if msg.Type != protocol.Init {
		return errors.ErrUnexpectedInit
	}
	return sock.Send(option.Compose())
}

// Trace drives one run to completion: it receives NOTIFY/CONTROL/RETURN
// messages in a loop, forwards each to d, and appends every observed call
// to the returned Run. The loop ends when the shim closes its connection
// or sends anything other than NOTIFY/CONTROL (there are no more pending
// messages), matching Tracer::trace exactly.
func Trace(sock *Socket, d Dispatcher) (*call.Run, error) {
	run := &call.Run{}
	callNum := 0

	for {
		record, err := sock.Recv()
		if err != nil {
			if errors.IsKind(err, errors.ErrTransient) {
				break
			}
			return run, err
		}
		msg, err := protocol.ParseInbound(record)
		if err != nil {
			return run, errors.Wrap(err, errors.ErrProtocol, "trace")
		}
		if msg.Type != protocol.Control && msg.Type != protocol.Notify {
			break
		}

		c := toCall(msg)

		var resp *protocol.Outbound
		if msg.Type == protocol.Control {
			resp = d.ControlCall(c, run, callNum)
		} else {
			resp = d.NotifyCall(c, callNum)
		}
		callNum++
		run.Append(c)

		if err := sock.Send(resp.Compose()); err != nil {
			if errors.IsKind(err, errors.ErrTransient) {
				break
			}
			return run, err
		}

		record, err = sock.Recv()
		if err != nil {
			if errors.IsKind(err, errors.ErrTransient) {
				break
			}
			return run, err
		}
		retMsg, err := protocol.ParseInbound(record)
		if err != nil {
			return run, errors.Wrap(err, errors.ErrProtocol, "trace")
		}
		if retMsg.Type == protocol.Return {
			c.ReturnVal = retMsg.ReturnVal
			if err := sock.Send(protocol.NewAck().Compose()); err != nil {
				if errors.IsKind(err, errors.ErrTransient) {
					break
				}
				return run, err
			}
		}
	}

	return run, nil
}

func toCall(msg *protocol.Inbound) *call.Call {
	fn, _ := catalog.Lookup(msg.Function)
	return &call.Call{Function: fn, Name: msg.Function, Params: msg.Params}
}
