package shm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srediag/app-shm/pkg/model"
)

func TestSpoolDeliversImmediatelyWhenFree(t *testing.T) {
	ch := NewMemoryChannel()
	s := NewSpool(ch, 4)
	defer s.Dispose()

	assert.Equal(t, nil, s.Enqueue(model.TrickleUp{Data: []byte("one")}))
	assert.Equal(t, int64(0), s.Pending())
	assert.Equal(t, false, ch.IsEmpty(model.ChannelTrickleUp))
}

func TestSpoolParksAndFlushesInOrder(t *testing.T) {
	ch := NewMemoryChannel()
	s := NewSpool(ch, 4)
	defer s.Dispose()

	assert.Equal(t, nil, s.Enqueue(model.TrickleUp{Data: []byte("one")}))
	assert.Equal(t, nil, s.Enqueue(model.TrickleUp{Data: []byte("two")}))
	assert.Equal(t, nil, s.Enqueue(model.TrickleUp{Data: []byte("three")}))
	assert.Equal(t, int64(2), s.Pending())

	// Mailbox still occupied, nothing can move.
	assert.Equal(t, 0, s.Flush())

	v, ok := ch.Receive(model.ChannelTrickleUp)
	assert.Equal(t, true, ok)
	assert.Equal(t, []byte("one"), v)

	// One slot freed, exactly one parked message moves, in order.
	assert.Equal(t, 1, s.Flush())
	assert.Equal(t, int64(1), s.Pending())

	v, ok = ch.Receive(model.ChannelTrickleUp)
	assert.Equal(t, true, ok)
	assert.Equal(t, []byte("two"), v)

	assert.Equal(t, 1, s.Flush())
	v, ok = ch.Receive(model.ChannelTrickleUp)
	assert.Equal(t, true, ok)
	assert.Equal(t, []byte("three"), v)
	assert.Equal(t, int64(0), s.Pending())
}

func TestSpoolPreservesOrderAcrossChannels(t *testing.T) {
	ch := NewMemoryChannel()
	s := NewSpool(ch, 4)
	defer s.Dispose()

	// Block trickle-up, then enqueue one message per channel; the spool
	// is one FIFO, so the free app-status slot still waits its turn.
	assert.Equal(t, nil, s.Enqueue(model.TrickleUp{Data: []byte("a")}))
	assert.Equal(t, nil, s.Enqueue(model.TrickleUp{Data: []byte("b")}))
	assert.Equal(t, nil, s.Enqueue(model.AppStatus{FractionDone: 0.5}))

	assert.Equal(t, 0, s.Flush())
	assert.Equal(t, true, ch.IsEmpty(model.ChannelAppStatus))
}
