package shm

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/srediag/app-shm/pkg/model"
)

func TestSharedMemLayout(t *testing.T) {
	assert.Equal(t, uintptr(8192), unsafe.Sizeof(SharedMem{}))
	assert.Equal(t, uintptr(1024), unsafe.Sizeof(Mailbox{}))

	var s SharedMem
	assert.Equal(t, uintptr(0*MailboxSize), unsafe.Offsetof(s.processControlRequest))
	assert.Equal(t, uintptr(1*MailboxSize), unsafe.Offsetof(s.processControlReply))
	assert.Equal(t, uintptr(2*MailboxSize), unsafe.Offsetof(s.graphicsRequest))
	assert.Equal(t, uintptr(3*MailboxSize), unsafe.Offsetof(s.graphicsReply))
	assert.Equal(t, uintptr(4*MailboxSize), unsafe.Offsetof(s.heartbeat))
	assert.Equal(t, uintptr(5*MailboxSize), unsafe.Offsetof(s.appStatus))
	assert.Equal(t, uintptr(6*MailboxSize), unsafe.Offsetof(s.trickleUp))
	assert.Equal(t, uintptr(7*MailboxSize), unsafe.Offsetof(s.trickleDown))
}

func TestChannelDispatchIsTotal(t *testing.T) {
	var s SharedMem
	seen := make(map[*Mailbox]bool)
	for c := model.MsgChannel(0); c < model.ChannelCount; c++ {
		mb := s.Channel(c)
		assert.NotNil(t, mb)
		assert.Equal(t, false, seen[mb], "channel %s aliases another mailbox", c)
		seen[mb] = true
	}
	assert.Equal(t, model.ChannelCount, len(seen))
}

// The occupancy flag must land on the mailbox's first byte at the channel's
// fixed offset: that byte is the entire cross-process protocol.
func TestOccupancyByteAtFixedOffset(t *testing.T) {
	var s SharedMem
	raw := (*[SharedMemSize]byte)(unsafe.Pointer(&s))

	s.Channel(model.ChannelHeartbeat).ForcePush([]byte("<heartbeat/>"))

	assert.Equal(t, byte(1), raw[4*MailboxSize])
	assert.Equal(t, byte('<'), raw[4*MailboxSize+1])
	// Guard byte stays zero.
	assert.Equal(t, byte(0), raw[5*MailboxSize-1])

	s.Channel(model.ChannelHeartbeat).Clear()
	assert.Equal(t, byte(0), raw[4*MailboxSize])
}
