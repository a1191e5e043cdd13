package model

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// Message is one outbound unit: it knows which mailbox it belongs to and
// how to render itself as the NUL-free tag text the worker side parses.
// Encoded forms never contain a NUL byte; the shared mailbox framing relies
// on NUL as its terminator.
type Message interface {
	Channel() MsgChannel
	Encode() []byte
}

// ControlMessage is a message flowing supervisor -> worker.
type ControlMessage interface {
	Message
	isControl()
}

// StatusMessage is a message flowing worker -> supervisor.
type StatusMessage interface {
	Message
	isStatus()
}

// ControlVerb is a process control request verb.
type ControlVerb uint8

const (
	VerbSuspend ControlVerb = iota
	VerbResume
	VerbQuit
	VerbAbort
)

func (v ControlVerb) String() string {
	switch v {
	case VerbSuspend:
		return "suspend"
	case VerbResume:
		return "resume"
	case VerbQuit:
		return "quit"
	case VerbAbort:
		return "abort"
	}
	return fmt.Sprintf("control_verb(%d)", uint8(v))
}

// GraphicsMode is a requested or reported graphics state.
type GraphicsMode uint8

const (
	GraphicsHide GraphicsMode = iota
	GraphicsWindow
	GraphicsFullscreen
)

func (m GraphicsMode) String() string {
	switch m {
	case GraphicsHide:
		return "hide"
	case GraphicsWindow:
		return "window"
	case GraphicsFullscreen:
		return "fullscreen"
	}
	return fmt.Sprintf("graphics_mode(%d)", uint8(m))
}

// ProcessControl asks the worker to change its run state.
type ProcessControl struct {
	Verb ControlVerb
}

func (ProcessControl) Channel() MsgChannel { return ChannelProcessControlRequest }
func (ProcessControl) isControl()          {}

func (m ProcessControl) Encode() []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.WriteString("<")
	_, _ = buf.WriteString(m.Verb.String())
	_, _ = buf.WriteString("/>")
	return append([]byte(nil), buf.B...)
}

// ProcessControlAck confirms a process control verb was acted on.
type ProcessControlAck struct {
	Verb ControlVerb
}

func (ProcessControlAck) Channel() MsgChannel { return ChannelProcessControlReply }
func (ProcessControlAck) isStatus()           {}

func (m ProcessControlAck) Encode() []byte {
	return encodeTag("ack", m.Verb.String())
}

// GraphicsRequest asks the worker to switch graphics mode.
type GraphicsRequest struct {
	Mode GraphicsMode
}

func (GraphicsRequest) Channel() MsgChannel { return ChannelGraphicsRequest }
func (GraphicsRequest) isControl()          {}

func (m GraphicsRequest) Encode() []byte {
	return encodeTag("graphics_mode", m.Mode.String())
}

// GraphicsReply reports the graphics mode the worker settled on.
type GraphicsReply struct {
	Mode GraphicsMode
}

func (GraphicsReply) Channel() MsgChannel { return ChannelGraphicsReply }
func (GraphicsReply) isStatus()           {}

func (m GraphicsReply) Encode() []byte {
	return encodeTag("graphics_mode", m.Mode.String())
}

// Heartbeat is the supervisor's liveness beacon. WSS, when nonzero, carries
// the working set size hint in bytes.
type Heartbeat struct {
	WSS uint64
}

func (Heartbeat) Channel() MsgChannel { return ChannelHeartbeat }
func (Heartbeat) isControl()          {}

func (m Heartbeat) Encode() []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.WriteString("<heartbeat/>")
	if m.WSS > 0 {
		_, _ = buf.WriteString("<wss>")
		_, _ = buf.WriteString(strconv.FormatUint(m.WSS, 10))
		_, _ = buf.WriteString("</wss>")
	}
	return append([]byte(nil), buf.B...)
}

// AppStatus is the worker's periodic progress report.
type AppStatus struct {
	CurrentCPUTime float64
	FractionDone   float64
}

func (AppStatus) Channel() MsgChannel { return ChannelAppStatus }
func (AppStatus) isStatus()           {}

func (m AppStatus) Encode() []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.WriteString("<current_cpu_time>")
	_, _ = buf.WriteString(strconv.FormatFloat(m.CurrentCPUTime, 'g', -1, 64))
	_, _ = buf.WriteString("</current_cpu_time><fraction_done>")
	_, _ = buf.WriteString(strconv.FormatFloat(m.FractionDone, 'g', -1, 64))
	_, _ = buf.WriteString("</fraction_done>")
	return append([]byte(nil), buf.B...)
}

// TrickleUp carries an opaque worker -> supervisor payload.
type TrickleUp struct {
	Data []byte
}

func (TrickleUp) Channel() MsgChannel { return ChannelTrickleUp }
func (TrickleUp) isStatus()           {}
func (m TrickleUp) Encode() []byte    { return m.Data }

// TrickleDown carries an opaque supervisor -> worker payload.
type TrickleDown struct {
	Data []byte
}

func (TrickleDown) Channel() MsgChannel { return ChannelTrickleDown }
func (TrickleDown) isControl()          {}
func (m TrickleDown) Encode() []byte    { return m.Data }

// DecodeControl parses raw mailbox bytes read from a control channel.
func DecodeControl(c MsgChannel, b []byte) (ControlMessage, error) {
	switch c {
	case ChannelProcessControlRequest:
		verb, err := parseVerb(b)
		if err != nil {
			return nil, err
		}
		return ProcessControl{Verb: verb}, nil
	case ChannelGraphicsRequest:
		mode, err := parseGraphicsMode(b)
		if err != nil {
			return nil, err
		}
		return GraphicsRequest{Mode: mode}, nil
	case ChannelHeartbeat:
		if !bytes.Contains(b, []byte("<heartbeat/>")) {
			return nil, fmt.Errorf("model: %q is not a heartbeat", b)
		}
		hb := Heartbeat{}
		if v, ok := tagValue(b, "wss"); ok {
			wss, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("model: bad wss %q: %v", v, err)
			}
			hb.WSS = wss
		}
		return hb, nil
	case ChannelTrickleDown:
		return TrickleDown{Data: b}, nil
	}
	return nil, fmt.Errorf("model: %s is not a control channel", c)
}

// DecodeStatus parses raw mailbox bytes read from a status channel.
func DecodeStatus(c MsgChannel, b []byte) (StatusMessage, error) {
	switch c {
	case ChannelProcessControlReply:
		v, ok := tagValue(b, "ack")
		if !ok {
			return nil, fmt.Errorf("model: %q is not a process control ack", b)
		}
		verb, err := parseVerb([]byte("<" + v + "/>"))
		if err != nil {
			return nil, err
		}
		return ProcessControlAck{Verb: verb}, nil
	case ChannelGraphicsReply:
		mode, err := parseGraphicsMode(b)
		if err != nil {
			return nil, err
		}
		return GraphicsReply{Mode: mode}, nil
	case ChannelAppStatus:
		st := AppStatus{}
		v, ok := tagValue(b, "current_cpu_time")
		if !ok {
			return nil, fmt.Errorf("model: %q is not an app status", b)
		}
		cpu, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("model: bad current_cpu_time %q: %v", v, err)
		}
		st.CurrentCPUTime = cpu
		if v, ok := tagValue(b, "fraction_done"); ok {
			fd, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("model: bad fraction_done %q: %v", v, err)
			}
			st.FractionDone = fd
		}
		return st, nil
	case ChannelTrickleUp:
		return TrickleUp{Data: b}, nil
	}
	return nil, fmt.Errorf("model: %s is not a status channel", c)
}

func encodeTag(tag, value string) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_ = buf.WriteByte('<')
	_, _ = buf.WriteString(tag)
	_ = buf.WriteByte('>')
	_, _ = buf.WriteString(value)
	_, _ = buf.WriteString("</")
	_, _ = buf.WriteString(tag)
	_ = buf.WriteByte('>')
	return append([]byte(nil), buf.B...)
}

func parseVerb(b []byte) (ControlVerb, error) {
	for _, v := range []ControlVerb{VerbSuspend, VerbResume, VerbQuit, VerbAbort} {
		if bytes.Contains(b, []byte("<"+v.String()+"/>")) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("model: %q carries no process control verb", b)
}

func parseGraphicsMode(b []byte) (GraphicsMode, error) {
	v, ok := tagValue(b, "graphics_mode")
	if !ok {
		return 0, fmt.Errorf("model: %q carries no graphics mode", b)
	}
	for _, m := range []GraphicsMode{GraphicsHide, GraphicsWindow, GraphicsFullscreen} {
		if v == m.String() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("model: unknown graphics mode %q", v)
}

// tagValue extracts the text between <tag> and </tag>, if present.
func tagValue(b []byte, tag string) (string, bool) {
	open := "<" + tag + ">"
	i := bytes.Index(b, []byte(open))
	if i < 0 {
		return "", false
	}
	rest := b[i+len(open):]
	j := bytes.Index(rest, []byte("</"+tag+">"))
	if j < 0 {
		return "", false
	}
	return string(rest[:j]), true
}
