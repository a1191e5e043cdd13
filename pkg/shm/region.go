package shm

import (
	"fmt"
	"unsafe"

	"github.com/srediag/app-shm/pkg/model"
)

// SharedMemSize is the exact byte size of the shared region: eight
// mailboxes, no header, no padding. The cooperating process maps the same
// file and resolves mailboxes by offset, so this is a wire format.
const SharedMemSize = model.ChannelCount * MailboxSize

// SharedMem is the full shared region. Field order matches the
// model.MsgChannel declaration order and is part of the ABI.
type SharedMem struct {
	processControlRequest Mailbox
	processControlReply   Mailbox
	graphicsRequest       Mailbox
	graphicsReply         Mailbox
	heartbeat             Mailbox
	appStatus             Mailbox
	trickleUp             Mailbox
	trickleDown           Mailbox
}

// Layout must stay byte-for-byte compatible with the mapping peer.
var (
	_ [SharedMemSize - unsafe.Sizeof(SharedMem{})]struct{}
	_ [unsafe.Sizeof(SharedMem{}) - SharedMemSize]struct{}
)

// Channel resolves a channel identifier to its mailbox. Total over the
// closed identifier set; an out-of-range value is a programming error.
func (s *SharedMem) Channel(c model.MsgChannel) *Mailbox {
	switch c {
	case model.ChannelProcessControlRequest:
		return &s.processControlRequest
	case model.ChannelProcessControlReply:
		return &s.processControlReply
	case model.ChannelGraphicsRequest:
		return &s.graphicsRequest
	case model.ChannelGraphicsReply:
		return &s.graphicsReply
	case model.ChannelHeartbeat:
		return &s.heartbeat
	case model.ChannelAppStatus:
		return &s.appStatus
	case model.ChannelTrickleUp:
		return &s.trickleUp
	case model.ChannelTrickleDown:
		return &s.trickleDown
	}
	panic(fmt.Sprintf("shm: no mailbox for channel %d", c))
}
