// Package model defines the message channels and typed messages exchanged
// between a supervisor and the worker application it runs, over the shared
// memory region provided by pkg/shm.
//
// The channel enumeration and its order are part of the shared memory ABI:
// the worker side maps the same file and resolves mailboxes positionally.
package model

import "fmt"

// MsgChannel identifies one mailbox in the shared region.
//
// The declaration order below is the binary layout order of the region.
// Reordering these constants is an ABI break for the cooperating process.
type MsgChannel uint8

const (
	ChannelProcessControlRequest MsgChannel = iota
	ChannelProcessControlReply
	ChannelGraphicsRequest
	ChannelGraphicsReply
	ChannelHeartbeat
	ChannelAppStatus
	ChannelTrickleUp
	ChannelTrickleDown

	// ChannelCount is the number of mailboxes in the shared region.
	ChannelCount = 8
)

func (c MsgChannel) String() string {
	switch c {
	case ChannelProcessControlRequest:
		return "process_control_request"
	case ChannelProcessControlReply:
		return "process_control_reply"
	case ChannelGraphicsRequest:
		return "graphics_request"
	case ChannelGraphicsReply:
		return "graphics_reply"
	case ChannelHeartbeat:
		return "heartbeat"
	case ChannelAppStatus:
		return "app_status"
	case ChannelTrickleUp:
		return "trickle_up"
	case ChannelTrickleDown:
		return "trickle_down"
	}
	return fmt.Sprintf("msg_channel(%d)", uint8(c))
}

// ControlChannels is the ordered set of channels the worker polls for
// supervisor-issued messages. Scan priority is this slice's order, not the
// MsgChannel declaration order: process control outranks everything else so
// quit/abort are seen before graphics or trickle chatter.
var ControlChannels = []MsgChannel{
	ChannelProcessControlRequest,
	ChannelGraphicsRequest,
	ChannelHeartbeat,
	ChannelTrickleDown,
}

// StatusChannels is the ordered set of channels the supervisor polls for
// worker-issued messages.
var StatusChannels = []MsgChannel{
	ChannelProcessControlReply,
	ChannelGraphicsReply,
	ChannelAppStatus,
	ChannelTrickleUp,
}
