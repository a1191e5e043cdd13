package shm

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srediag/app-shm/pkg/model"
)

func TestChannelPushReceive(t *testing.T) {
	ch := NewMemoryChannel()
	defer func() { _ = ch.Close() }()

	assert.Equal(t, true, ch.IsEmpty(model.ChannelAppStatus))
	assert.Equal(t, true, ch.Push(model.AppStatus{CurrentCPUTime: 12.5, FractionDone: 0.25}))
	assert.Equal(t, false, ch.IsEmpty(model.ChannelAppStatus))

	// Second push on the occupied slot is backpressure.
	assert.Equal(t, false, ch.Push(model.AppStatus{CurrentCPUTime: 13, FractionDone: 0.3}))

	v, ok := ch.Receive(model.ChannelAppStatus)
	assert.Equal(t, true, ok)
	assert.Equal(t, []byte("<current_cpu_time>12.5</current_cpu_time><fraction_done>0.25</fraction_done>"), v)
	assert.Equal(t, true, ch.IsEmpty(model.ChannelAppStatus))
}

func TestChannelForceRoundTrip(t *testing.T) {
	ch := NewMemoryChannel()

	ch.Force(model.Heartbeat{WSS: 2048})
	ch.Force(model.Heartbeat{WSS: 4096}) // last writer wins

	msg, err := ch.PullControl()
	assert.Equal(t, nil, err)
	assert.Equal(t, model.Heartbeat{WSS: 4096}, msg)

	msg, err = ch.PullControl()
	assert.Equal(t, nil, err)
	assert.Nil(t, msg)
}

func TestChannelPeekAndClear(t *testing.T) {
	ch := NewMemoryChannel()
	ch.Force(model.TrickleDown{Data: []byte("variety")})

	v, ok := ch.Peek(model.ChannelTrickleDown)
	assert.Equal(t, true, ok)
	assert.Equal(t, []byte("variety"), v)
	assert.Equal(t, false, ch.IsEmpty(model.ChannelTrickleDown))

	ch.Clear(model.ChannelTrickleDown)
	assert.Equal(t, true, ch.IsEmpty(model.ChannelTrickleDown))
	ch.Clear(model.ChannelTrickleDown)
	assert.Equal(t, true, ch.IsEmpty(model.ChannelTrickleDown))
}

func TestChannelUncheckedOps(t *testing.T) {
	ch := NewMemoryChannel()

	// Caller routes bytes explicitly, bypassing message typing.
	assert.Equal(t, true, ch.PushUnchecked(model.ChannelTrickleUp, []byte("raw")))
	assert.Equal(t, false, ch.PushUnchecked(model.ChannelTrickleUp, []byte("raw2")))

	ch.ForceUnchecked(model.ChannelTrickleUp, []byte("replaced"))
	v, ok := ch.Receive(model.ChannelTrickleUp)
	assert.Equal(t, true, ok)
	assert.Equal(t, []byte("replaced"), v)
}

func TestPullControlOrder(t *testing.T) {
	ch := NewMemoryChannel()

	// Occupy two control channels; the earlier group entry wins and the
	// later one stays occupied.
	ch.Force(model.Heartbeat{})
	ch.Force(model.ProcessControl{Verb: model.VerbSuspend})

	msg, err := ch.PullControl()
	assert.Equal(t, nil, err)
	assert.Equal(t, model.ProcessControl{Verb: model.VerbSuspend}, msg)
	assert.Equal(t, false, ch.IsEmpty(model.ChannelHeartbeat))

	msg, err = ch.PullControl()
	assert.Equal(t, nil, err)
	assert.Equal(t, model.Heartbeat{}, msg)

	msg, err = ch.PullControl()
	assert.Equal(t, nil, err)
	assert.Nil(t, msg)
}

func TestPullStatusOrder(t *testing.T) {
	ch := NewMemoryChannel()

	ch.Force(model.TrickleUp{Data: []byte("late")})
	ch.Force(model.GraphicsReply{Mode: model.GraphicsWindow})

	msg, err := ch.PullStatus()
	assert.Equal(t, nil, err)
	assert.Equal(t, model.GraphicsReply{Mode: model.GraphicsWindow}, msg)
	assert.Equal(t, false, ch.IsEmpty(model.ChannelTrickleUp))
}

func TestPullMalformedMessage(t *testing.T) {
	ch := NewMemoryChannel()
	ch.ForceUnchecked(model.ChannelAppStatus, []byte("not an app status"))

	msg, err := ch.PullStatus()
	assert.Nil(t, msg)
	assert.Equal(t, true, errors.Is(err, ErrMalformedMessage))

	// The malformed message was consumed, not left to poison every pull.
	assert.Equal(t, true, ch.IsEmpty(model.ChannelAppStatus))
	msg, err = ch.PullStatus()
	assert.Equal(t, nil, err)
	assert.Nil(t, msg)
}

func TestChannelTransactionAtomicity(t *testing.T) {
	ch := NewMemoryChannel()

	// Writers force heartbeats while readers run multi-mailbox scans; the
	// per-instance lock linearizes them. Mostly a race detector test.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ch.Force(model.Heartbeat{WSS: uint64(j)})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, err := ch.PullControl()
				assert.Equal(t, nil, err)
			}
		}()
	}
	wg.Wait()
}
